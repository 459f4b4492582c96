package program

import (
	"testing"
	"time"

	"github.com/mrd0ll4r/kaleidoscope/internal/script"
	"github.com/mrd0ll4r/kaleidoscope/internal/values"
)

func loadScripted(t *testing.T, source string) *Scripted {
	t.Helper()
	sp, err := Load("test-program", script.ProgramBuiltin, source, nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(sp.Close)
	return sp
}

func TestScriptedPriorityAndOutputs(t *testing.T) {
	const source = `
SOURCE_VERSION = 1
function setup()
  set_priority(3)
  add_output_address(5)
  add_output_address(6)
end
function _tick(now)
  return {[5]=1000, [6]=2000}
end
`
	sp := loadScripted(t, source)
	if err := sp.Setup(nil, nil); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if sp.priority != 3 {
		t.Errorf("priority = %d, want 3", sp.priority)
	}

	sp.Enable()
	var out []values.SetRequest
	state := TickState{Now: time.Now(), LocalTime: time.Now()}
	if err := sp.Run(state, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := make(map[values.Address]values.OutputValue)
	for _, sr := range out {
		got[sr.Target.Address] = sr.Value
	}
	if got[5] != 1000 || got[6] != 2000 {
		t.Errorf("outputs = %+v, want {5:1000, 6:2000}", got)
	}
}

func TestScriptedPriorityAboveMaxRejected(t *testing.T) {
	const source = `
SOURCE_VERSION = 1
function setup()
  set_priority(21)
end
`
	sp := loadScripted(t, source)
	if err := sp.Setup(nil, nil); err == nil {
		t.Error("set_priority(21) should fail: priority must be <= 20")
	}
}

func TestScriptedUnknownAliasRejected(t *testing.T) {
	const source = `
SOURCE_VERSION = 1
function setup()
  add_input_alias("unknown")
end
`
	sp := loadScripted(t, source)
	if err := sp.Setup(map[string]values.Address{}, map[string]values.Address{}); err == nil {
		t.Error("add_input_alias(\"unknown\") should fail")
	}
}

func TestScriptedVersionMismatchFailsLoad(t *testing.T) {
	const source = `SOURCE_VERSION = 999`
	if _, err := Load("bad-version", script.ProgramBuiltin, source, nil, nil); err == nil {
		t.Error("a script with a mismatched SOURCE_VERSION should fail to load")
	}
}

func TestScriptedDuplicateParameterNameRejected(t *testing.T) {
	const source = `
SOURCE_VERSION = 1
function setup()
  declare_parameter("speed", "continuous", 0, 1, 0)
  declare_parameter("speed", "continuous", 0, 1, 0)
end
`
	sp := loadScripted(t, source)
	if err := sp.Setup(nil, nil); err == nil {
		t.Error("declaring a duplicate parameter name should fail")
	}
}

func TestScriptedSlowModeSkipsTicks(t *testing.T) {
	const source = `
SOURCE_VERSION = 1
calls = 0
function setup()
  set_slow_mode(true)
end
function _tick(now)
  calls = calls + 1
  return {}
end
`
	sp := loadScripted(t, source)
	if err := sp.Setup(nil, nil); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	sp.Enable() // marks dirty, so tick 1 always runs regardless of slow mode

	state := TickState{Now: time.Now(), LocalTime: time.Now()}

	// Tick 1 runs (dirty from Enable).
	var out []values.SetRequest
	if err := sp.Run(state, &out); err != nil {
		t.Fatalf("Run #1: %v", err)
	}
	if sp.skipCounter != 999 {
		t.Errorf("skipCounter after first run = %d, want 999", sp.skipCounter)
	}

	// Ticks 2..1000 (999 of them) should be skipped, decrementing the
	// counter to 0 without calling _tick.
	for i := 0; i < 999; i++ {
		out = nil
		if err := sp.Run(state, &out); err != nil {
			t.Fatalf("Run (skip) #%d: %v", i, err)
		}
	}
	if sp.skipCounter != 0 {
		t.Errorf("skipCounter after 999 skipped runs = %d, want 0", sp.skipCounter)
	}

	// Tick 1001 runs again, resetting the counter.
	out = nil
	if err := sp.Run(state, &out); err != nil {
		t.Fatalf("Run #1001: %v", err)
	}
	if sp.skipCounter != 999 {
		t.Errorf("skipCounter after tick 1001 = %d, want 999 (reset)", sp.skipCounter)
	}
}

func TestScriptedDirtyOverridesSlowModeSkip(t *testing.T) {
	const source = `
SOURCE_VERSION = 1
function setup()
  set_slow_mode(true)
  declare_parameter("x", "continuous", 0, 1, 0)
end
function _tick(now)
  return {}
end
`
	sp := loadScripted(t, source)
	if err := sp.Setup(nil, nil); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	sp.Enable()

	state := TickState{Now: time.Now(), LocalTime: time.Now()}
	var out []values.SetRequest
	if err := sp.Run(state, &out); err != nil {
		t.Fatalf("Run #1: %v", err)
	}
	if sp.skipCounter != 999 {
		t.Fatalf("skipCounter = %d, want 999", sp.skipCounter)
	}

	// Simulate a control-surface mutation mid-skip: mark dirty again.
	sp.Params.MarkDirty()
	out = nil
	if err := sp.Run(state, &out); err != nil {
		t.Fatalf("Run (dirty override): %v", err)
	}
	if sp.skipCounter != 999 {
		t.Errorf("skipCounter after dirty override = %d, want 999 (reset, not decremented)", sp.skipCounter)
	}
}

package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mrd0ll4r/kaleidoscope/internal/program"
	"github.com/mrd0ll4r/kaleidoscope/internal/values"
)

// stubProgram is a minimal program.Program for exercising Fixture's active-
// program bookkeeping without a real script host.
type stubProgram struct {
	name     string
	enabled  int
}

func (s *stubProgram) Name() string { return s.name }
func (s *stubProgram) Enable()      { s.enabled++ }
func (s *stubProgram) Run(program.TickState, *[]values.SetRequest) error { return nil }

func newTestFixture(names ...string) *Fixture {
	programs := make([]program.Program, len(names))
	for i, n := range names {
		programs[i] = &stubProgram{name: n}
	}
	return &Fixture{Name: "test", Programs: programs, CurrentProgramIndex: 0}
}

// TestCycleSkipsManualAndExternal exercises spec §8 scenario 5.
func TestCycleSkipsManualAndExternal(t *testing.T) {
	f := newTestFixture("OFF", "ON", "EXTERNAL", "MANUAL", "SCR1", "SCR2")

	want := []string{"ON", "SCR1", "SCR2", "OFF", "ON"}
	for i, w := range want {
		got, err := f.CycleActiveProgram()
		if err != nil {
			t.Fatalf("CycleActiveProgram() #%d: %v", i, err)
		}
		if got != w {
			t.Errorf("CycleActiveProgram() #%d = %q, want %q", i, got, w)
		}
	}
}

func TestSetActiveProgramEnablesAndErrorsOnUnknown(t *testing.T) {
	f := newTestFixture("OFF", "ON")

	if err := f.SetActiveProgram("ON"); err != nil {
		t.Fatalf("SetActiveProgram(ON): %v", err)
	}
	if f.CurrentProgramIndex != 1 {
		t.Errorf("CurrentProgramIndex = %d, want 1", f.CurrentProgramIndex)
	}
	if f.Programs[1].(*stubProgram).enabled != 1 {
		t.Error("SetActiveProgram should call Enable on the target program")
	}

	if err := f.SetActiveProgram("NOPE"); err == nil {
		t.Error("SetActiveProgram on an unknown name should fail")
	}
}

func TestAssembleRejectsOnlyManualAndExternal(t *testing.T) {
	b := &builder{
		name:          "only-manual",
		disableOff:    true,
		disableOn:     true,
		disableManual: false,
	}
	if _, err := b.assemble(nil, nil); err == nil {
		t.Error("a fixture with only MANUAL/EXTERNAL cycleable programs should be rejected at load")
	}
}

func TestAssembleDuplicateProgramNameRejected(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "clash.lua")
	const source = "SOURCE_VERSION = 1\nfunction setup() end\n"
	if err := os.WriteFile(scriptPath, []byte(source), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	b := &builder{
		name:      "dup",
		sourceDir: dir,
		programDecls: []programDecl{
			{name: "OFF", relPath: "clash.lua"},
		},
	}
	if _, err := b.assemble(map[string]values.Address{}, map[string]values.Address{}); err == nil {
		t.Error("a declared program named OFF should collide with the builtin OFF program")
	}
}

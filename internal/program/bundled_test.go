package program

import (
	"testing"
	"time"

	"github.com/mrd0ll4r/kaleidoscope/internal/values"
)

func TestOffEmitsOnceOnEnable(t *testing.T) {
	off := NewOff([]values.Address{10, 11})
	off.Enable()

	state := TickState{Now: time.Now(), LocalTime: time.Now()}

	var out []values.SetRequest
	if err := off.Run(state, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("first run: got %d set-requests, want 2", len(out))
	}
	for _, sr := range out {
		if sr.Value != values.Low {
			t.Errorf("OFF should emit Low, got %v for address %v", sr.Value, sr.Target.Address)
		}
	}

	out = nil
	if err := off.Run(state, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("second run: got %d set-requests, want 0", len(out))
	}
}

func TestOnEmitsHigh(t *testing.T) {
	on := NewOn([]values.Address{5})
	on.Enable()

	var out []values.SetRequest
	state := TickState{Now: time.Now(), LocalTime: time.Now()}
	if err := on.Run(state, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 1 || out[0].Value != values.High {
		t.Errorf("ON should emit one High set-request, got %+v", out)
	}
}

func TestExternalIsNoOp(t *testing.T) {
	ext := External{}
	ext.Enable()
	var out []values.SetRequest
	if err := ext.Run(TickState{}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("EXTERNAL should never emit set-requests, got %+v", out)
	}
}

func TestManualReflectsParameter(t *testing.T) {
	manual, err := NewManual(map[string]values.Address{"a": 5, "b": 6})
	if err != nil {
		t.Fatalf("NewManual: %v", err)
	}
	manual.Enable()

	p, ok := manual.Params.Get("a")
	if !ok {
		t.Fatal("expected parameter \"a\"")
	}
	if err := p.SetContinuous(0.5); err != nil {
		t.Fatalf("SetContinuous: %v", err)
	}
	manual.Params.MarkDirty()

	var out []values.SetRequest
	if err := manual.Run(TickState{}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := make(map[values.Address]values.OutputValue)
	for _, sr := range out {
		got[sr.Target.Address] = sr.Value
	}
	if got[5] != 32768 {
		t.Errorf("address 5 (a=0.5) = %v, want 32768", got[5])
	}
	if got[6] != values.Low {
		t.Errorf("address 6 (b=0.0) = %v, want Low", got[6])
	}
}

func TestManualQuietWithoutResetOrDirty(t *testing.T) {
	manual, _ := NewManual(map[string]values.Address{"a": 5})
	var out []values.SetRequest
	if err := manual.Run(TickState{}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("MANUAL with no reset/dirty should emit nothing, got %+v", out)
	}
}

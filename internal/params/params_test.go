package params

import "testing"

func TestDiscreteCycleWrapsAround(t *testing.T) {
	p, err := NewDiscrete("mode", []Level{{Name: "L0"}, {Name: "L1"}, {Name: "L2"}}, 0)
	if err != nil {
		t.Fatalf("NewDiscrete: %v", err)
	}

	want := []string{"L1", "L2", "L0"}
	for i, w := range want {
		got, err := p.Cycle()
		if err != nil {
			t.Fatalf("Cycle() #%d: %v", i, err)
		}
		if got != w {
			t.Errorf("Cycle() #%d = %q, want %q", i, got, w)
		}
	}
}

func TestContinuousSetRoundTrip(t *testing.T) {
	p, err := NewContinuous("level", 0, 10, 5)
	if err != nil {
		t.Fatalf("NewContinuous: %v", err)
	}
	if err := p.SetContinuous(7.5); err != nil {
		t.Fatalf("SetContinuous(7.5): %v", err)
	}
	if p.Continuous.Current != 7.5 {
		t.Errorf("Current = %v, want 7.5", p.Continuous.Current)
	}
}

func TestContinuousSetOutOfRange(t *testing.T) {
	p, _ := NewContinuous("level", 0, 10, 5)
	if err := p.SetContinuous(10.1); err == nil {
		t.Error("SetContinuous(10.1) on [0,10] should fail")
	}
	if err := p.SetContinuous(-0.1); err == nil {
		t.Error("SetContinuous(-0.1) on [0,10] should fail")
	}
}

func TestContinuousCycleFails(t *testing.T) {
	p, _ := NewContinuous("level", 0, 10, 5)
	if _, err := p.Cycle(); err == nil {
		t.Error("Cycle() on a continuous parameter should fail")
	}
}

func TestDiscreteSetUnknownLevel(t *testing.T) {
	p, _ := NewDiscrete("mode", []Level{{Name: "L0"}}, 0)
	if err := p.SetDiscrete("L99"); err == nil {
		t.Error("SetDiscrete(\"L99\") should fail for an unknown level")
	}
}

func TestSetTypeMismatch(t *testing.T) {
	c, _ := NewContinuous("c", 0, 1, 0)
	if err := c.SetDiscrete("anything"); err == nil {
		t.Error("SetDiscrete on a continuous parameter should fail")
	}
	d, _ := NewDiscrete("d", []Level{{Name: "L0"}}, 0)
	if err := d.SetContinuous(0.5); err == nil {
		t.Error("SetContinuous on a discrete parameter should fail")
	}
}

func TestNewDiscreteRequiresAtLeastOneLevel(t *testing.T) {
	if _, err := NewDiscrete("mode", nil, 0); err == nil {
		t.Error("NewDiscrete with zero levels should fail")
	}
}

func TestNewContinuousRequiresDefaultInRange(t *testing.T) {
	if _, err := NewContinuous("c", 0, 1, 2); err == nil {
		t.Error("NewContinuous with default outside [lower, upper] should fail")
	}
}

func TestTableDeclareDuplicateName(t *testing.T) {
	table := NewTable()
	p1, _ := NewContinuous("x", 0, 1, 0)
	p2, _ := NewContinuous("x", 0, 1, 0)
	if err := table.Declare(p1); err != nil {
		t.Fatalf("first Declare: %v", err)
	}
	if err := table.Declare(p2); err == nil {
		t.Error("second Declare with duplicate name should fail")
	}
}

func TestTableDirtyFlag(t *testing.T) {
	table := NewTable()
	if table.Dirty {
		t.Error("new table should not be dirty")
	}
	table.MarkDirty()
	if !table.Dirty {
		t.Error("MarkDirty should set Dirty")
	}
	table.ClearDirty()
	if table.Dirty {
		t.Error("ClearDirty should clear Dirty")
	}
}

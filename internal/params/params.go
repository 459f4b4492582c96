// Package params implements the typed program parameter model: continuous
// parameters with a range, and discrete parameters with named levels, plus
// the set/cycle operations and dirty-tracking described in spec §4.3.
package params

import "fmt"

// Level is one named option of a discrete parameter.
type Level struct {
	Name        string
	Description string
}

// Continuous is a parameter whose value is a float within [Lower, Upper].
type Continuous struct {
	Lower   float64
	Upper   float64
	Current float64
}

// Discrete is a parameter whose value is one of an ordered set of named
// levels, selected by index.
type Discrete struct {
	Levels       []Level
	CurrentIndex int
}

// Parameter is a named program parameter, exactly one of Continuous or
// Discrete.
type Parameter struct {
	Name       string
	IsDiscrete bool
	Continuous Continuous
	Discrete   Discrete
}

// NewContinuous constructs a continuous parameter, validating the
// construction invariant lower <= def <= upper.
func NewContinuous(name string, lower, upper, def float64) (*Parameter, error) {
	if !(lower <= def && def <= upper) {
		return nil, fmt.Errorf("parameter %q: default %v out of range [%v, %v]", name, def, lower, upper)
	}
	return &Parameter{
		Name:       name,
		IsDiscrete: false,
		Continuous: Continuous{Lower: lower, Upper: upper, Current: def},
	}, nil
}

// NewDiscrete constructs a discrete parameter over levels, validating that
// at least one level exists.
func NewDiscrete(name string, levels []Level, defaultIndex int) (*Parameter, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("parameter %q: discrete parameter needs at least one level", name)
	}
	if defaultIndex < 0 || defaultIndex >= len(levels) {
		defaultIndex = 0
	}
	return &Parameter{
		Name:       name,
		IsDiscrete: true,
		Discrete:   Discrete{Levels: append([]Level(nil), levels...), CurrentIndex: defaultIndex},
	}, nil
}

// SetContinuous assigns value if it lies within the parameter's range.
func (p *Parameter) SetContinuous(value float64) error {
	if p.IsDiscrete {
		return fmt.Errorf("type mismatch")
	}
	if value < p.Continuous.Lower || value > p.Continuous.Upper {
		return fmt.Errorf("value out of range")
	}
	p.Continuous.Current = value
	return nil
}

// SetDiscrete assigns CurrentIndex to the level named level.
func (p *Parameter) SetDiscrete(level string) error {
	if !p.IsDiscrete {
		return fmt.Errorf("type mismatch")
	}
	for i, l := range p.Discrete.Levels {
		if l.Name == level {
			p.Discrete.CurrentIndex = i
			return nil
		}
	}
	return fmt.Errorf("level not found")
}

// Cycle advances a discrete parameter to its next level, wrapping around,
// and returns the new level's name. Continuous parameters cannot be cycled.
func (p *Parameter) Cycle() (string, error) {
	if !p.IsDiscrete {
		return "", fmt.Errorf("continuous parameter cannot be cycled")
	}
	p.Discrete.CurrentIndex = (p.Discrete.CurrentIndex + 1) % len(p.Discrete.Levels)
	return p.Discrete.Levels[p.Discrete.CurrentIndex].Name, nil
}

// CurrentLevel returns the name of a discrete parameter's current level.
func (p *Parameter) CurrentLevel() string {
	return p.Discrete.Levels[p.Discrete.CurrentIndex].Name
}

// Table is the ordered, named collection of a program's parameters, plus
// the dirty flag a mutation sets to force the program's next tick to run
// (spec §4.3, "Observable").
type Table struct {
	order  []string
	byName map[string]*Parameter
	Dirty  bool
}

// NewTable creates an empty parameter table.
func NewTable() *Table {
	return &Table{byName: make(map[string]*Parameter)}
}

// Declare adds a parameter to the table. Duplicate names are an error, per
// spec §4.4 ("duplicate names within a program are an error").
func (t *Table) Declare(p *Parameter) error {
	if _, exists := t.byName[p.Name]; exists {
		return fmt.Errorf("duplicate parameter name %q", p.Name)
	}
	t.byName[p.Name] = p
	t.order = append(t.order, p.Name)
	return nil
}

// Get returns the parameter named name, if present.
func (t *Table) Get(name string) (*Parameter, bool) {
	p, ok := t.byName[name]
	return p, ok
}

// Names returns the parameter names in declaration order.
func (t *Table) Names() []string {
	return append([]string(nil), t.order...)
}

// All returns every parameter in declaration order.
func (t *Table) All() []*Parameter {
	out := make([]*Parameter, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.byName[name])
	}
	return out
}

// MarkDirty sets the dirty flag, forcing the owning scripted program to run
// on its next scheduled tick.
func (t *Table) MarkDirty() {
	t.Dirty = true
}

// ClearDirty resets the dirty flag after the owning program has observed
// it.
func (t *Table) ClearDirty() {
	t.Dirty = false
}

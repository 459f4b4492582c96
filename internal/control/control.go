// Package control implements the control surface adapter (spec §4.9, C10):
// the fixture/program/parameter read and mutation operations the REST
// boundary in spec §6 exposes. Every mutation acquires the scheduler's
// fixtures mutex for its duration. Parameter writes mark the target
// program's parameters dirty and program switches enable the newly active
// program, so the change takes effect on the next tick.
package control

import (
	"fmt"
	"time"

	"github.com/mrd0ll4r/kaleidoscope/internal/events"
	"github.com/mrd0ll4r/kaleidoscope/internal/fixture"
	"github.com/mrd0ll4r/kaleidoscope/internal/params"
	"github.com/mrd0ll4r/kaleidoscope/internal/program"
	"github.com/mrd0ll4r/kaleidoscope/internal/scheduler"
)

// paramOwner is implemented by programs that expose a parameter table
// (Scripted and Manual); bundled OFF/ON/EXTERNAL do not.
type paramOwner interface {
	ParameterTable() *params.Table
}

// FixtureMetadata describes one fixture's current state.
type FixtureMetadata struct {
	Name          string   `json:"name"`
	ActiveProgram string   `json:"active_program"`
	Programs      []string `json:"programs"`
}

// ProgramMetadata describes one program's current state.
type ProgramMetadata struct {
	Name       string   `json:"name"`
	Parameters []string `json:"parameters"`
}

// ContinuousValue is the wire shape of a continuous parameter's current
// state.
type ContinuousValue struct {
	Lower   float64 `json:"lower"`
	Upper   float64 `json:"upper"`
	Current float64 `json:"current"`
}

// DiscreteValue is the wire shape of a discrete parameter's current state.
type DiscreteValue struct {
	Levels  []string `json:"levels"`
	Current string   `json:"current"`
}

// ProgramParameter is the wire shape of GET .../parameters/{parameter}.
type ProgramParameter struct {
	Name       string           `json:"name"`
	Continuous *ContinuousValue `json:"continuous,omitempty"`
	Discrete   *DiscreteValue   `json:"discrete,omitempty"`
}

// SetRequest is the decoded body of POST .../parameters/{parameter}: one of
// Continuous or Discrete is set (spec §6).
type SetRequest struct {
	Continuous *struct {
		Value float64 `json:"value"`
	} `json:"Continuous,omitempty"`
	Discrete *struct {
		Level string `json:"level"`
	} `json:"Discrete,omitempty"`
}

// ErrNotFound is returned for unknown fixtures, programs, or parameters.
var ErrNotFound = fmt.Errorf("not found")

// Adapter is the control surface adapter, backed by a running scheduler.
type Adapter struct {
	sched *scheduler.Scheduler
	bus   *events.Bus
}

// New creates an Adapter over sched, publishing ControlMutationEvents on
// bus.
func New(sched *scheduler.Scheduler, bus *events.Bus) *Adapter {
	return &Adapter{sched: sched, bus: bus}
}

func describeFixture(f *fixture.Fixture) FixtureMetadata {
	names := make([]string, len(f.Programs))
	for i, p := range f.Programs {
		names[i] = p.Name()
	}
	return FixtureMetadata{
		Name:          f.Name,
		ActiveProgram: f.ActiveProgram().Name(),
		Programs:      names,
	}
}

func describeProgram(p program.Program) ProgramMetadata {
	meta := ProgramMetadata{Name: p.Name()}
	if owner, ok := p.(paramOwner); ok {
		meta.Parameters = owner.ParameterTable().Names()
	}
	return meta
}

func describeParameter(p *params.Parameter) ProgramParameter {
	if p.IsDiscrete {
		levels := make([]string, len(p.Discrete.Levels))
		for i, l := range p.Discrete.Levels {
			levels[i] = l.Name
		}
		return ProgramParameter{
			Name: p.Name,
			Discrete: &DiscreteValue{
				Levels:  levels,
				Current: p.CurrentLevel(),
			},
		}
	}
	return ProgramParameter{
		Name: p.Name,
		Continuous: &ContinuousValue{
			Lower:   p.Continuous.Lower,
			Upper:   p.Continuous.Upper,
			Current: p.Continuous.Current,
		},
	}
}

// ListFixtures returns every fixture's metadata, keyed by name.
func (a *Adapter) ListFixtures() map[string]FixtureMetadata {
	out := make(map[string]FixtureMetadata)
	a.sched.WithFixtures(func(fixtures []*fixture.Fixture) {
		for _, f := range fixtures {
			out[f.Name] = describeFixture(f)
		}
	})
	return out
}

// GetFixture returns one fixture's metadata.
func (a *Adapter) GetFixture(name string) (FixtureMetadata, error) {
	var meta FixtureMetadata
	err := ErrNotFound
	a.sched.WithFixtures(func(fixtures []*fixture.Fixture) {
		if f := findFixture(fixtures, name); f != nil {
			meta = describeFixture(f)
			err = nil
		}
	})
	return meta, err
}

// ListPrograms returns every program's metadata for fixtureName.
func (a *Adapter) ListPrograms(fixtureName string) ([]ProgramMetadata, error) {
	var out []ProgramMetadata
	err := ErrNotFound
	a.sched.WithFixtures(func(fixtures []*fixture.Fixture) {
		f := findFixture(fixtures, fixtureName)
		if f == nil {
			return
		}
		err = nil
		for _, p := range f.Programs {
			out = append(out, describeProgram(p))
		}
	})
	return out, err
}

// GetProgram returns one program's metadata.
func (a *Adapter) GetProgram(fixtureName, programName string) (ProgramMetadata, error) {
	var meta ProgramMetadata
	err := ErrNotFound
	a.sched.WithFixtures(func(fixtures []*fixture.Fixture) {
		f := findFixture(fixtures, fixtureName)
		if f == nil {
			return
		}
		p := findProgram(f, programName)
		if p == nil {
			return
		}
		meta = describeProgram(p)
		err = nil
	})
	return meta, err
}

// SetActiveProgram sets fixtureName's active program to programName.
func (a *Adapter) SetActiveProgram(fixtureName, programName string) error {
	err := ErrNotFound
	a.sched.WithFixtures(func(fixtures []*fixture.Fixture) {
		f := findFixture(fixtures, fixtureName)
		if f == nil {
			return
		}
		if ferr := f.SetActiveProgram(programName); ferr != nil {
			return
		}
		err = nil
	})
	if err == nil {
		a.publishMutation(fixtureName, "set_active_program:"+programName)
	}
	return err
}

// CycleActiveProgram advances fixtureName's active program and returns its
// new name.
func (a *Adapter) CycleActiveProgram(fixtureName string) (string, error) {
	var newName string
	err := ErrNotFound
	a.sched.WithFixtures(func(fixtures []*fixture.Fixture) {
		f := findFixture(fixtures, fixtureName)
		if f == nil {
			return
		}
		newName, err = f.CycleActiveProgram()
	})
	if err == nil {
		a.publishMutation(fixtureName, "cycle_active_program")
	}
	return newName, err
}

// ListParameters returns every parameter of one program.
func (a *Adapter) ListParameters(fixtureName, programName string) ([]ProgramParameter, error) {
	var out []ProgramParameter
	err := ErrNotFound
	a.sched.WithFixtures(func(fixtures []*fixture.Fixture) {
		f := findFixture(fixtures, fixtureName)
		if f == nil {
			return
		}
		p := findProgram(f, programName)
		if p == nil {
			return
		}
		owner, ok := p.(paramOwner)
		if !ok {
			err = nil
			return
		}
		err = nil
		for _, param := range owner.ParameterTable().All() {
			out = append(out, describeParameter(param))
		}
	})
	return out, err
}

// GetParameter returns one program parameter.
func (a *Adapter) GetParameter(fixtureName, programName, paramName string) (ProgramParameter, error) {
	var meta ProgramParameter
	err := ErrNotFound
	a.sched.WithFixtures(func(fixtures []*fixture.Fixture) {
		param, ok := a.findParameter(fixtures, fixtureName, programName, paramName)
		if !ok {
			return
		}
		meta = describeParameter(param)
		err = nil
	})
	return meta, err
}

// SetParameter applies req to the named parameter, marking its program
// dirty so it re-evaluates on the next tick (spec §4.3, §4.9).
func (a *Adapter) SetParameter(fixtureName, programName, paramName string, req SetRequest) error {
	err := ErrNotFound
	a.sched.WithFixtures(func(fixtures []*fixture.Fixture) {
		table, param, ok := a.findParameterTable(fixtures, fixtureName, programName, paramName)
		if !ok {
			return
		}
		switch {
		case req.Continuous != nil:
			err = param.SetContinuous(req.Continuous.Value)
		case req.Discrete != nil:
			err = param.SetDiscrete(req.Discrete.Level)
		default:
			err = fmt.Errorf("type mismatch")
		}
		if err == nil {
			table.MarkDirty()
		}
	})
	if err == nil {
		a.publishMutation(fixtureName, "set_parameter:"+programName+"."+paramName)
	}
	return err
}

// CycleParameter cycles a discrete parameter, returning its new level.
func (a *Adapter) CycleParameter(fixtureName, programName, paramName string) (string, error) {
	var newLevel string
	err := ErrNotFound
	a.sched.WithFixtures(func(fixtures []*fixture.Fixture) {
		table, param, ok := a.findParameterTable(fixtures, fixtureName, programName, paramName)
		if !ok {
			return
		}
		newLevel, err = param.Cycle()
		if err == nil {
			table.MarkDirty()
		}
	})
	if err == nil {
		a.publishMutation(fixtureName, "cycle_parameter:"+programName+"."+paramName)
	}
	return newLevel, err
}

func (a *Adapter) findParameter(fixtures []*fixture.Fixture, fixtureName, programName, paramName string) (*params.Parameter, bool) {
	_, p, ok := a.findParameterTable(fixtures, fixtureName, programName, paramName)
	return p, ok
}

func (a *Adapter) findParameterTable(fixtures []*fixture.Fixture, fixtureName, programName, paramName string) (*params.Table, *params.Parameter, bool) {
	f := findFixture(fixtures, fixtureName)
	if f == nil {
		return nil, nil, false
	}
	p := findProgram(f, programName)
	if p == nil {
		return nil, nil, false
	}
	owner, ok := p.(paramOwner)
	if !ok {
		return nil, nil, false
	}
	table := owner.ParameterTable()
	param, ok := table.Get(paramName)
	if !ok {
		return nil, nil, false
	}
	return table, param, true
}

func (a *Adapter) publishMutation(fixtureName, action string) {
	if a.bus == nil {
		return
	}
	a.bus.Publish(events.ControlMutationEvent{Fixture: fixtureName, Action: action, Timestamp: time.Now()})
}

func findFixture(fixtures []*fixture.Fixture, name string) *fixture.Fixture {
	for _, f := range fixtures {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func findProgram(f *fixture.Fixture, name string) program.Program {
	for _, p := range f.Programs {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

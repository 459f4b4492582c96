// Package program implements the bundled OFF/ON/MANUAL/EXTERNAL programs
// and the scripted-program adapter every fixture assembles its program list
// from (spec §4.5, §4.6).
package program

import (
	"fmt"
	"sort"
	"time"

	"github.com/mrd0ll4r/kaleidoscope/internal/events"
	"github.com/mrd0ll4r/kaleidoscope/internal/params"
	"github.com/mrd0ll4r/kaleidoscope/internal/values"
)

// TickState is the per-tick context passed to every program's Run, built
// once by the scheduler and shared read-only across all fixtures in a tick
// (spec §4.7 step 1).
type TickState struct {
	Now       time.Time
	LocalTime time.Time
}

// Program is the shared interface bundled and scripted programs implement,
// addressed by a fixture's program list (spec §4.6).
type Program interface {
	Name() string
	Enable()
	Run(state TickState, out *[]values.SetRequest) error
}

// EventDispatcher is implemented by programs that can receive routed
// addressed events (only Scripted does; bundled programs have no
// subscriptions, spec §4.4 add_event_subscription). The scheduler drains the
// shared events FIFO once per tick and offers each event to the active
// program of every fixture (spec §4.8 step 3, scenario 6).
type EventDispatcher interface {
	DispatchEvent(alias string, ae events.AddressedEvent) error
}

// Constant is the OFF/ON bundled program: on enable it arms a one-shot
// reset, and on the first run after that it emits a set-request for every
// owned address at a fixed value, then goes quiet until re-enabled (spec
// §4.5).
type Constant struct {
	name      string
	value     values.OutputValue
	addresses []values.Address
	reset     bool
}

// NewOff constructs the OFF bundled program over addresses.
func NewOff(addresses []values.Address) *Constant {
	return &Constant{name: "OFF", value: values.Low, addresses: addresses}
}

// NewOn constructs the ON bundled program over addresses.
func NewOn(addresses []values.Address) *Constant {
	return &Constant{name: "ON", value: values.High, addresses: addresses}
}

func (c *Constant) Name() string { return c.name }

func (c *Constant) Enable() { c.reset = true }

func (c *Constant) Run(_ TickState, out *[]values.SetRequest) error {
	if !c.reset {
		return nil
	}
	for _, a := range c.addresses {
		*out = append(*out, values.NewSetRequest(a, c.value))
	}
	c.reset = false
	return nil
}

// External is the EXTERNAL bundled program: its outputs are driven entirely
// by something outside the scheduler, so Run is a no-op (spec §4.5).
type External struct{}

func (External) Name() string { return "EXTERNAL" }

func (External) Enable() {}

func (External) Run(TickState, *[]values.SetRequest) error { return nil }

// manualRange is the [0.0, 1.0] range every MANUAL parameter is constructed
// over (spec §4.5).
var manualRange = values.Range{Lower: 0.0, Upper: 1.0}

// Manual is the MANUAL bundled program: one continuous parameter per output
// alias, each mapped linearly onto that output's value whenever the program
// is (re-)enabled or its parameters are mutated (spec §4.5).
type Manual struct {
	Params    *params.Table
	addresses []values.Address // sorted by numeric address
	names     []string         // parameter name per addresses[i]
	reset     bool
}

// NewManual constructs a MANUAL program from the output alias -> address
// map a fixture assembles at setup. Output addresses are sorted by numeric
// address, and one continuous parameter (named after the alias) is declared
// per output (spec §4.5).
func NewManual(outputAliasAddress map[string]values.Address) (*Manual, error) {
	type pair struct {
		alias string
		addr  values.Address
	}
	pairs := make([]pair, 0, len(outputAliasAddress))
	for alias, addr := range outputAliasAddress {
		pairs = append(pairs, pair{alias, addr})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].addr < pairs[j].addr })

	table := params.NewTable()
	addresses := make([]values.Address, 0, len(pairs))
	names := make([]string, 0, len(pairs))
	for _, p := range pairs {
		param, err := params.NewContinuous(p.alias, manualRange.Lower, manualRange.Upper, 0.0)
		if err != nil {
			return nil, fmt.Errorf("manual program: %w", err)
		}
		if err := table.Declare(param); err != nil {
			return nil, fmt.Errorf("manual program: %w", err)
		}
		addresses = append(addresses, p.addr)
		names = append(names, p.alias)
	}

	return &Manual{Params: table, addresses: addresses, names: names}, nil
}

func (*Manual) Name() string { return "MANUAL" }

// ParameterTable returns the program's per-output parameters, for the
// control surface adapter.
func (m *Manual) ParameterTable() *params.Table { return m.Params }

func (m *Manual) Enable() { m.reset = true }

func (m *Manual) Run(_ TickState, out *[]values.SetRequest) error {
	if !m.reset && !m.Params.Dirty {
		return nil
	}
	for i, addr := range m.addresses {
		p, ok := m.Params.Get(m.names[i])
		if !ok {
			continue
		}
		v := values.MapToValue(manualRange, p.Continuous.Current)
		*out = append(*out, values.NewSetRequest(addr, v))
	}
	m.reset = false
	m.Params.ClearDirty()
	return nil
}

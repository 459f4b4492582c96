// Package universe holds the immutable universe configuration fetched from
// upstream at startup and the mutable local mirror of current input/output
// values the event ingester keeps in sync (spec C3).
package universe

import (
	"sync"

	"github.com/mrd0ll4r/kaleidoscope/internal/events"
	"github.com/mrd0ll4r/kaleidoscope/internal/values"
)

// Descriptor names one addressable channel on a device.
type Descriptor struct {
	Alias   string         `json:"alias"`
	Address values.Address `json:"address"`
}

// Device groups the input and output descriptors upstream reports for one
// physical device.
type Device struct {
	Name    string       `json:"name"`
	Inputs  []Descriptor `json:"inputs"`
	Outputs []Descriptor `json:"outputs"`
}

// Config is the immutable universe configuration fetched once from
// upstream at startup (spec §3, "Lifecycle").
type Config struct {
	Devices []Device `json:"devices"`
}

// InputAliasAddresses returns the alias -> address mapping over every input
// descriptor in the universe, the table bound into scripted programs as
// input_alias_address (spec §4.4).
func (c Config) InputAliasAddresses() map[string]values.Address {
	out := make(map[string]values.Address)
	for _, d := range c.Devices {
		for _, desc := range d.Inputs {
			out[desc.Alias] = desc.Address
		}
	}
	return out
}

// OutputAliasAddresses returns the alias -> address mapping over every
// output descriptor in the universe.
func (c Config) OutputAliasAddresses() map[string]values.Address {
	out := make(map[string]values.Address)
	for _, d := range c.Devices {
		for _, desc := range d.Outputs {
			out[desc.Alias] = desc.Address
		}
	}
	return out
}

// AddressAliases returns the address -> alias mapping over every input and
// output descriptor in the universe, used to resolve an incoming
// AddressedEvent's address back to the alias a scripted program's
// add_event_subscription named (spec §4.8 step 3, §4.4).
func (c Config) AddressAliases() map[values.Address]string {
	out := make(map[values.Address]string)
	for _, d := range c.Devices {
		for _, desc := range d.Inputs {
			out[desc.Address] = desc.Alias
		}
		for _, desc := range d.Outputs {
			out[desc.Address] = desc.Alias
		}
	}
	return out
}

// Addresses returns every address known to the universe, input or output.
func (c Config) Addresses() []values.Address {
	seen := make(map[values.Address]struct{})
	var out []values.Address
	for _, d := range c.Devices {
		for _, desc := range d.Inputs {
			if _, ok := seen[desc.Address]; !ok {
				seen[desc.Address] = struct{}{}
				out = append(out, desc.Address)
			}
		}
		for _, desc := range d.Outputs {
			if _, ok := seen[desc.Address]; !ok {
				seen[desc.Address] = struct{}{}
				out = append(out, desc.Address)
			}
		}
	}
	return out
}

// Entry is the current state of one address in the universe view: either a
// last-known-good value, or an error string.
type Entry struct {
	OK    bool
	Value values.InputValue
	Err   string
}

// View is the authoritative local mirror of current input/output values,
// keyed by address. It covers every address in the universe and is mutated
// only by the event ingester (spec §3 "UniverseView").
type View struct {
	mu      sync.RWMutex
	entries map[values.Address]Entry
}

// NewView creates a View with one (empty) entry per address in cfg.
func NewView(cfg Config) *View {
	v := &View{entries: make(map[values.Address]Entry)}
	for _, addr := range cfg.Addresses() {
		v.entries[addr] = Entry{}
	}
	return v
}

// Apply mutates the view for an incoming AddressedEvent: an Update replaces
// the address's value, an error payload records the error string.
func (v *View) Apply(ev events.AddressedEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if ev.Event.IsError() {
		v.entries[ev.Address] = Entry{OK: false, Err: ev.Event.Err}
		return
	}
	if !ev.Event.Kind.IsButton {
		v.entries[ev.Address] = Entry{OK: true, Value: ev.Event.Kind.Update}
	}
	// Button gestures carry no new steady-state value for the address.
}

// Get returns a snapshot of the current entry for addr.
func (v *View) Get(addr values.Address) (Entry, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	e, ok := v.entries[addr]
	return e, ok
}

// Snapshot returns a copy of the entire view, for control-surface reads.
func (v *View) Snapshot() map[values.Address]Entry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[values.Address]Entry, len(v.entries))
	for k, e := range v.entries {
		out[k] = e
	}
	return out
}

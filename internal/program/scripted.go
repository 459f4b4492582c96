package program

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/mrd0ll4r/kaleidoscope/internal/events"
	"github.com/mrd0ll4r/kaleidoscope/internal/params"
	"github.com/mrd0ll4r/kaleidoscope/internal/script"
	"github.com/mrd0ll4r/kaleidoscope/internal/values"
)

// skipSlowMode is how many tick invocations a slow-mode program skips after
// each successful run (spec §4.4 setup callable set_slow_mode).
const skipSlowMode = 999

// maxPriority is the highest priority value accepted by set_priority (spec
// §4.4).
const maxPriority = 20

// subscription records one add_event_subscription call from a scripted
// program's setup() (spec §4.4). filter is the single-kind events.Filter
// (spec §4.2, C2) equivalent to eventType, built once at declaration so
// dispatch reuses the same Any/All matching logic every other filter
// consumer in the codebase does.
type subscription struct {
	alias          string
	eventType      string
	filter         events.Filter
	targetFunction string
}

// filterForEventType builds the single-entry events.Filter corresponding to
// one of add_event_subscription's type strings (spec §4.4).
func filterForEventType(eventType string) (events.Filter, bool) {
	var kind events.FilterKind
	switch eventType {
	case "update":
		kind = events.UpdateFilterKind()
	case "button_down":
		kind = events.ButtonFilterKind(events.ButtonDown)
	case "button_up":
		kind = events.ButtonFilterKind(events.ButtonUp)
	case "button_clicked":
		kind = events.ButtonFilterKind(events.ButtonClicked)
	case "button_long_press":
		kind = events.ButtonFilterKind(events.ButtonLongPress)
	default:
		return events.Filter{}, false
	}
	return events.NewFilter(events.FilterAny, []events.FilterEntry{events.KindEntry(kind)}), true
}

// Scripted is a scripted program: its outputs are computed by a user Lua
// source running on a script.Host, loaded and driven per the sequence in
// spec §4.4.
type Scripted struct {
	name        string
	host        *script.Host
	Params      *params.Table
	priority    uint8
	slowMode    bool
	skipCounter int
	epoch       time.Time
	inputAddrs  []values.Address
	outputAddrs []values.Address
	subs        []subscription
}

// Load instantiates a script host for source, runs the load sequence (spec
// §4.4 steps 1-5), and returns a Scripted program ready for Setup.
func Load(programName, builtin, source string, inputAliases, outputAliases map[string]values.Address) (*Scripted, error) {
	host := script.NewHost()

	if err := host.Exec(builtin); err != nil {
		host.Close()
		return nil, fmt.Errorf("program %q: builtin: %w", programName, err)
	}

	host.BindStandardConstants(programName, inputAliases, outputAliases)

	if err := host.Exec(source); err != nil {
		host.Close()
		return nil, fmt.Errorf("program %q: %w", programName, err)
	}

	if err := host.CheckVersion(); err != nil {
		host.Close()
		return nil, fmt.Errorf("program %q: %w", programName, err)
	}

	return &Scripted{
		name:   programName,
		host:   host,
		Params: params.NewTable(),
		epoch:  time.Now(),
	}, nil
}

// Setup invokes the script's setup() under the setup-only callables
// described in spec §4.4, recording everything the script declares.
func (s *Scripted) Setup(inputAliasAddress, outputAliasAddress map[string]values.Address) error {
	resolveAlias := func(table map[string]values.Address, alias string) (values.Address, bool) {
		a, ok := table[alias]
		return a, ok
	}

	callables := map[string]lua.LGFunction{
		"set_priority": func(L *lua.LState) int {
			p := L.CheckInt(1)
			if p < 0 || p > maxPriority {
				L.RaiseError("priority must be <= %d", maxPriority)
				return 0
			}
			s.priority = uint8(p)
			return 0
		},
		"set_slow_mode": func(L *lua.LState) int {
			s.slowMode = L.CheckBool(1)
			return 0
		},
		"add_input_address": func(L *lua.LState) int {
			s.inputAddrs = append(s.inputAddrs, values.Address(L.CheckInt(1)))
			return 0
		},
		"add_input_alias": func(L *lua.LState) int {
			alias := L.CheckString(1)
			addr, ok := resolveAlias(inputAliasAddress, alias)
			if !ok {
				addr, ok = resolveAlias(outputAliasAddress, alias)
			}
			if !ok {
				L.RaiseError("unknown alias: %s", alias)
				return 0
			}
			s.inputAddrs = append(s.inputAddrs, addr)
			return 0
		},
		"add_output_address": func(L *lua.LState) int {
			s.outputAddrs = append(s.outputAddrs, values.Address(L.CheckInt(1)))
			return 0
		},
		"add_output_alias": func(L *lua.LState) int {
			alias := L.CheckString(1)
			addr, ok := resolveAlias(outputAliasAddress, alias)
			if !ok {
				L.RaiseError("unknown output alias %q", alias)
				return 0
			}
			s.outputAddrs = append(s.outputAddrs, addr)
			return 0
		},
		"add_event_subscription": func(L *lua.LState) int {
			alias := L.CheckString(1)
			eventType := L.CheckString(2)
			target := L.CheckString(3)
			filter, ok := filterForEventType(eventType)
			if !ok {
				L.RaiseError("unknown event subscription type %q", eventType)
				return 0
			}
			if L.GetGlobal(target) == lua.LNil {
				L.RaiseError("event subscription target function %q not found", target)
				return 0
			}
			s.subs = append(s.subs, subscription{alias: alias, eventType: eventType, filter: filter, targetFunction: target})
			return 0
		},
		"declare_parameter": func(L *lua.LState) int {
			return s.declareParameter(L)
		},
	}

	if err := s.host.RunSetup(callables); err != nil {
		return fmt.Errorf("program %q: %w", s.name, err)
	}
	return nil
}

// declareParameter implements the declare_parameter(...) setup callable.
// Continuous form: declare_parameter(name, "continuous", lower, upper, default).
// Discrete form: declare_parameter(name, "discrete", {levels...}, default_index).
func (s *Scripted) declareParameter(L *lua.LState) int {
	name := L.CheckString(1)
	kind := L.CheckString(2)

	var p *params.Parameter
	var err error
	switch kind {
	case "continuous":
		lower := float64(L.CheckNumber(3))
		upper := float64(L.CheckNumber(4))
		def := float64(L.OptNumber(5, lua.LNumber(lower)))
		p, err = params.NewContinuous(name, lower, upper, def)
	case "discrete":
		tbl := L.CheckTable(3)
		var levels []params.Level
		tbl.ForEach(func(_, v lua.LValue) {
			switch lv := v.(type) {
			case lua.LString:
				levels = append(levels, params.Level{Name: string(lv)})
			case *lua.LTable:
				levels = append(levels, params.Level{
					Name:        lv.RawGetString("name").String(),
					Description: lv.RawGetString("description").String(),
				})
			}
		})
		defIdx := L.OptInt(4, 0)
		p, err = params.NewDiscrete(name, levels, defIdx)
	default:
		L.RaiseError("unknown parameter kind %q", kind)
		return 0
	}
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	if err := s.Params.Declare(p); err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	return 0
}

func (s *Scripted) Name() string { return s.name }

// ParameterTable returns the program's declared parameters, for the
// control surface adapter.
func (s *Scripted) ParameterTable() *params.Table { return s.Params }

// Enable marks the program's parameters dirty so its next tick re-binds
// them immediately, mirroring the bundled programs' reset-on-enable
// behavior.
func (s *Scripted) Enable() {
	s.Params.MarkDirty()
}

// Run implements the scripted per-tick sequence (spec §4.4).
func (s *Scripted) Run(state TickState, out *[]values.SetRequest) error {
	dirty := s.Params.Dirty
	if dirty {
		s.bindParameterValues()
		s.Params.ClearDirty()
	}

	midnight := time.Date(state.LocalTime.Year(), state.LocalTime.Month(), state.LocalTime.Day(), 0, 0, 0, 0, state.LocalTime.Location())
	s.host.BindTimeOfDay(state.LocalTime.Sub(midnight).Seconds())
	now := state.Now.Sub(s.epoch).Seconds()

	if s.slowMode && s.skipCounter > 0 && !dirty {
		s.skipCounter--
		return nil
	}

	outputs, err := s.host.Tick(now)
	if err != nil {
		return fmt.Errorf("program %q: %w", s.name, err)
	}
	for addr, v := range outputs {
		*out = append(*out, values.NewSetRequest(addr, v))
	}
	if s.slowMode {
		s.skipCounter = skipSlowMode
	}
	return nil
}

func (s *Scripted) bindParameterValues() {
	numeric := make(map[string]float64)
	levels := make(map[string]string)
	for _, p := range s.Params.All() {
		if p.IsDiscrete {
			levels[p.Name] = p.CurrentLevel()
		} else {
			numeric[p.Name] = p.Continuous.Current
		}
	}
	s.host.BindParameterValues(numeric, levels)
}

// InputAddresses returns the addresses this program subscribes input from.
func (s *Scripted) InputAddresses() []values.Address { return s.inputAddrs }

// OutputAddresses returns the addresses this program is permitted to write.
func (s *Scripted) OutputAddresses() []values.Address { return s.outputAddrs }

// Close releases the underlying script host.
func (s *Scripted) Close() { s.host.Close() }

// DispatchEvent delivers an addressed event to every subscription matching
// alias and the event's gesture/update kind, encoding the payload as the
// semicolon-delimited string described in spec §9 and invoking the
// subscribed target function.
func (s *Scripted) DispatchEvent(alias string, ae events.AddressedEvent) error {
	for _, sub := range s.subs {
		if sub.alias != alias || !sub.filter.Matches(ae.Event) {
			continue
		}
		fn := s.host.L.GetGlobal(sub.targetFunction)
		if fn == lua.LNil {
			continue
		}
		payload := encodeEventPayload(ae)
		if err := s.host.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LString(payload)); err != nil {
			return fmt.Errorf("program %q: event handler %q: %w", s.name, sub.targetFunction, err)
		}
	}
	return nil
}

func eventTypeOf(ev events.Event) string {
	if ev.IsError() {
		return ""
	}
	if !ev.Kind.IsButton {
		return "update"
	}
	switch ev.Kind.Button.Kind {
	case events.ButtonUp:
		return "button_up"
	case events.ButtonDown:
		return "button_down"
	case events.ButtonClicked:
		return "button_clicked"
	case events.ButtonLongPress:
		return "button_long_press"
	default:
		return ""
	}
}

// encodeEventPayload renders an event as "address type payload..." with
// semicolon field separators (spec §9). The string is passed unparsed to the
// subscribed handler; the bundled builtin scripts contain no parser for it.
func encodeEventPayload(ae events.AddressedEvent) string {
	fields := []string{strconv.Itoa(int(ae.Address)), eventTypeOf(ae.Event)}

	switch {
	case ae.Event.Kind.IsButton && ae.Event.Kind.Button.Kind == events.ButtonClicked:
		fields = append(fields, strconv.FormatFloat(ae.Event.Kind.Button.DurationSeconds, 'f', -1, 64))
	case ae.Event.Kind.IsButton && ae.Event.Kind.Button.Kind == events.ButtonLongPress:
		fields = append(fields, strconv.FormatInt(ae.Event.Kind.Button.Seconds, 10))
	case !ae.Event.Kind.IsButton:
		fields = append(fields, encodeInputValue(ae.Event.Kind.Update))
	}

	return strings.Join(fields, ";")
}

func encodeInputValue(v values.InputValue) string {
	return strconv.FormatFloat(v.AsFloat(), 'f', -1, 64)
}

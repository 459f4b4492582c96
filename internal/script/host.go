// Package script provides the embedded scripting host scripted programs and
// fixtures run on (spec §4.4): a thin, host-agnostic load/call contract
// backed by github.com/yuin/gopher-lua, the nearest ecosystem equivalent of
// the original implementation's rlua heritage. No example repo in the
// corpus embeds a scripting language, so this package and the Perlin
// bindings in noise.go are grounded directly in spec §4.4/§9 rather than in
// teacher code.
package script

import (
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/mrd0ll4r/kaleidoscope/internal/values"
)

// EngineVersion is the KALEIDOSCOPE_VERSION constant bound into every
// script host and checked against each source's SOURCE_VERSION at load
// (spec §4.4 step 5).
const EngineVersion = 1

// Host wraps a single-use gopher-lua interpreter for one program or
// fixture source file. Hosts are never shared across programs and never
// held across suspension points (spec §5).
type Host struct {
	L     *lua.LState
	epoch time.Time
}

// NewHost creates a script host with only the base and table standard
// libraries loaded, per spec §4.4 step 1 ("pre-load its standard
// table/array facility only").
func NewHost() *Host {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	return &Host{L: L, epoch: time.Now()}
}

// Close releases the underlying interpreter state.
func (h *Host) Close() {
	h.L.Close()
}

// Exec runs a source string once, for the program builtin, fixture
// builtin, or user source load stages.
func (h *Host) Exec(source string) error {
	if err := h.L.DoString(source); err != nil {
		return fmt.Errorf("script exec: %w", err)
	}
	return nil
}

// BindNumber binds a numeric constant into the global namespace.
func (h *Host) BindNumber(name string, v float64) {
	h.L.SetGlobal(name, lua.LNumber(v))
}

// BindString binds a string constant into the global namespace.
func (h *Host) BindString(name string, v string) {
	h.L.SetGlobal(name, lua.LString(v))
}

// BindAddressTable binds a string-keyed table of addresses into the global
// namespace, used for input_alias_address and output_alias_address (spec
// §4.4 step 3).
func (h *Host) BindAddressTable(name string, m map[string]values.Address) {
	t := h.L.NewTable()
	for alias, addr := range m {
		t.RawSetString(alias, lua.LNumber(addr))
	}
	h.L.SetGlobal(name, t)
}

// BindFunc binds a host-side callable into the global namespace.
func (h *Host) BindFunc(name string, fn lua.LGFunction) {
	h.L.SetGlobal(name, h.L.NewFunction(fn))
}

// Unbind removes a global, used to invalidate setup-only callables once
// setup() has returned (spec §4.4 step 6).
func (h *Host) Unbind(name string) {
	h.L.SetGlobal(name, lua.LNil)
}

// BindStandardConstants binds START, PROGRAM_NAME, KALEIDOSCOPE_VERSION,
// input_alias_address, output_alias_address, and the noise2d/noise3d/noise4d
// callables (spec §4.4 step 3).
func (h *Host) BindStandardConstants(programName string, inputAliases, outputAliases map[string]values.Address) {
	h.BindNumber("START", float64(time.Since(h.epoch).Seconds()))
	h.BindString("PROGRAM_NAME", programName)
	h.BindNumber("KALEIDOSCOPE_VERSION", float64(EngineVersion))
	h.BindAddressTable("input_alias_address", inputAliases)
	h.BindAddressTable("output_alias_address", outputAliases)

	h.BindFunc("noise2d", func(L *lua.LState) int {
		x, y := float64(L.CheckNumber(1)), float64(L.CheckNumber(2))
		L.Push(lua.LNumber(noise2d(x, y)))
		return 1
	})
	h.BindFunc("noise3d", func(L *lua.LState) int {
		x, y, z := float64(L.CheckNumber(1)), float64(L.CheckNumber(2)), float64(L.CheckNumber(3))
		L.Push(lua.LNumber(noise3d(x, y, z)))
		return 1
	})
	h.BindFunc("noise4d", func(L *lua.LState) int {
		x, y, z, t := float64(L.CheckNumber(1)), float64(L.CheckNumber(2)), float64(L.CheckNumber(3)), float64(L.CheckNumber(4))
		L.Push(lua.LNumber(noise4d(x, y, z, t)))
		return 1
	})
}

// CheckVersion verifies the loaded source's SOURCE_VERSION global equals
// EngineVersion (spec §4.4 step 5).
func (h *Host) CheckVersion() error {
	gv := h.L.GetGlobal("SOURCE_VERSION")
	n, ok := gv.(lua.LNumber)
	if !ok {
		return fmt.Errorf("script does not define SOURCE_VERSION")
	}
	if int(n) != EngineVersion {
		return fmt.Errorf("script version mismatch: SOURCE_VERSION=%d, engine=%d", int(n), EngineVersion)
	}
	return nil
}

// RunSetup binds callables, invokes the global setup() function, then
// unbinds the callables again (spec §4.4 step 6).
func (h *Host) RunSetup(callables map[string]lua.LGFunction) error {
	for name, fn := range callables {
		h.BindFunc(name, fn)
	}
	defer func() {
		for name := range callables {
			h.Unbind(name)
		}
	}()

	fn := h.L.GetGlobal("setup")
	if fn == lua.LNil {
		return fmt.Errorf("script does not define setup()")
	}
	if err := h.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
		return fmt.Errorf("setup(): %w", err)
	}
	return nil
}

// BindParameterValues (re-)binds the parameter-values table read by scripts
// that declare parameters, invoked whenever a program's dirty flag is set
// (spec §4.4 per-tick step 1).
func (h *Host) BindParameterValues(values map[string]float64, levels map[string]string) {
	t := h.L.NewTable()
	for name, v := range values {
		t.RawSetString(name, lua.LNumber(v))
	}
	for name, lvl := range levels {
		t.RawSetString(name, lua.LString(lvl))
	}
	h.L.SetGlobal("PARAMETERS", t)
}

// BindTimeOfDay binds TIME_OF_DAY, seconds since local midnight (spec §4.4
// per-tick step 2).
func (h *Host) BindTimeOfDay(secondsSinceMidnight float64) {
	h.BindNumber("TIME_OF_DAY", secondsSinceMidnight)
}

// Tick calls the global _tick(now) function and decodes its return value, a
// table mapping integer addresses to integer output values (spec §4.4
// per-tick step 4).
func (h *Host) Tick(now float64) (map[values.Address]values.OutputValue, error) {
	fn := h.L.GetGlobal("_tick")
	if fn == lua.LNil {
		return nil, fmt.Errorf("script does not define _tick")
	}
	if err := h.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LNumber(now)); err != nil {
		return nil, fmt.Errorf("_tick(%v): %w", now, err)
	}
	ret := h.L.Get(-1)
	h.L.Pop(1)

	table, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("_tick returned %s, expected a table", ret.Type().String())
	}

	out := make(map[values.Address]values.OutputValue)
	var rangeErr error
	table.ForEach(func(k, v lua.LValue) {
		if rangeErr != nil {
			return
		}
		kn, ok := k.(lua.LNumber)
		if !ok {
			rangeErr = fmt.Errorf("_tick result has non-numeric address key %v", k)
			return
		}
		vn, ok := v.(lua.LNumber)
		if !ok {
			rangeErr = fmt.Errorf("_tick result has non-numeric output value %v", v)
			return
		}
		out[values.Address(kn)] = values.OutputValue(vn)
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	return out, nil
}

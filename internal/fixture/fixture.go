// Package fixture implements the Fixture type (spec §4.6): a named unit
// that owns a set of output addresses and a list of programs, exactly one
// of which is active at a time.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"

	"github.com/mrd0ll4r/kaleidoscope/internal/program"
	"github.com/mrd0ll4r/kaleidoscope/internal/script"
	"github.com/mrd0ll4r/kaleidoscope/internal/universe"
	"github.com/mrd0ll4r/kaleidoscope/internal/values"
)

// Fixture is an assembled, runnable fixture: its program list and currently
// active program index.
type Fixture struct {
	Name                string
	OutputAddresses     []values.Address
	Programs            []program.Program
	CurrentProgramIndex int
}

// Load reads sourcePath, assembles a Fixture against universeCfg, and loads
// every declared scripted program relative to sourcePath's directory (spec
// §4.6).
func Load(sourcePath string, universeCfg universe.Config) (*Fixture, error) {
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", sourcePath, err)
	}

	host := script.NewHost()
	defer host.Close()

	if err := host.Exec(script.FixtureBuiltin); err != nil {
		return nil, fmt.Errorf("fixture %s: builtin: %w", sourcePath, err)
	}

	inputAliases := universeCfg.InputAliasAddresses()
	outputAliases := universeCfg.OutputAliasAddresses()
	host.BindStandardConstants(filepath.Base(sourcePath), inputAliases, outputAliases)

	if err := host.Exec(string(source)); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", sourcePath, err)
	}
	if err := host.CheckVersion(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", sourcePath, err)
	}

	b := &builder{
		sourceDir:     filepath.Dir(sourcePath),
		outputAliases: outputAliases,
	}
	callables := map[string]lua.LGFunction{
		"fixture_name": func(L *lua.LState) int {
			b.name = L.CheckString(1)
			return 0
		},
		"disable_builtin_programs": func(L *lua.LState) int {
			b.disableOff = L.CheckBool(1)
			b.disableOn = b.disableOff
			return 0
		},
		"disable_manual_program": func(L *lua.LState) int {
			b.disableManual = L.CheckBool(1)
			return 0
		},
		"add_output_address": func(L *lua.LState) int {
			b.outputAddrs = append(b.outputAddrs, values.Address(L.CheckInt(1)))
			return 0
		},
		"add_output_alias": func(L *lua.LState) int {
			alias := L.CheckString(1)
			addr, ok := outputAliases[alias]
			if !ok {
				L.RaiseError("unknown output alias %q", alias)
				return 0
			}
			b.outputAddrs = append(b.outputAddrs, addr)
			return 0
		},
		"add_program": func(L *lua.LState) int {
			name := L.CheckString(1)
			relPath := L.CheckString(2)
			for _, p := range b.programDecls {
				if p.name == name {
					L.RaiseError("duplicate program name %q", name)
					return 0
				}
			}
			b.programDecls = append(b.programDecls, programDecl{name: name, relPath: relPath})
			return 0
		},
	}
	if err := host.RunSetup(callables); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", sourcePath, err)
	}

	if b.name == "" {
		b.name = filepath.Base(sourcePath)
	}

	return b.assemble(inputAliases, outputAliases)
}

type programDecl struct {
	name    string
	relPath string
}

type builder struct {
	name          string
	sourceDir     string
	outputAddrs   []values.Address
	outputAliases map[string]values.Address
	disableOff    bool
	disableOn     bool
	disableManual bool
	programDecls  []programDecl
}

func (b *builder) assemble(inputAliases, outputAliases map[string]values.Address) (*Fixture, error) {
	seen := make(map[string]struct{})
	var programs []program.Program

	addProgram := func(p program.Program) error {
		if _, dup := seen[p.Name()]; dup {
			return fmt.Errorf("duplicate program name %q", p.Name())
		}
		seen[p.Name()] = struct{}{}
		programs = append(programs, p)
		return nil
	}

	if !b.disableOff {
		if err := addProgram(program.NewOff(b.outputAddrs)); err != nil {
			return nil, err
		}
	}
	if !b.disableOn {
		if err := addProgram(program.NewOn(b.outputAddrs)); err != nil {
			return nil, err
		}
	}
	if err := addProgram(program.External{}); err != nil {
		return nil, err
	}
	if !b.disableManual {
		outputAliasSubset := make(map[string]values.Address)
		for alias, addr := range b.outputAliases {
			for _, owned := range b.outputAddrs {
				if addr == owned {
					outputAliasSubset[alias] = addr
				}
			}
		}
		manual, err := program.NewManual(outputAliasSubset)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", b.name, err)
		}
		if err := addProgram(manual); err != nil {
			return nil, err
		}
	}

	for _, decl := range b.programDecls {
		scriptPath := filepath.Join(b.sourceDir, decl.relPath)
		source, err := os.ReadFile(scriptPath)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: program %s: %w", b.name, decl.name, err)
		}
		sp, err := program.Load(decl.name, script.ProgramBuiltin, string(source), inputAliases, outputAliases)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", b.name, err)
		}
		if err := sp.Setup(inputAliases, outputAliases); err != nil {
			return nil, fmt.Errorf("fixture %s: %w", b.name, err)
		}
		if err := addProgram(sp); err != nil {
			return nil, err
		}
	}

	if len(programs) == 0 {
		return nil, fmt.Errorf("fixture %s: program list is empty", b.name)
	}

	cycleable := false
	for _, p := range programs {
		if p.Name() != "MANUAL" && p.Name() != "EXTERNAL" {
			cycleable = true
			break
		}
	}
	if !cycleable {
		return nil, fmt.Errorf("fixture %s: no cycleable program (only MANUAL/EXTERNAL present)", b.name)
	}

	return &Fixture{
		Name:                b.name,
		OutputAddresses:     b.outputAddrs,
		Programs:            programs,
		CurrentProgramIndex: 0,
	}, nil
}

// SetActiveProgram switches the active program to name, enabling it (spec
// §4.6).
func (f *Fixture) SetActiveProgram(name string) error {
	for i, p := range f.Programs {
		if p.Name() == name {
			f.CurrentProgramIndex = i
			p.Enable()
			return nil
		}
	}
	return fmt.Errorf("not found")
}

// CycleActiveProgram advances to the next program, skipping MANUAL and
// EXTERNAL, enabling the landed program and returning its name (spec
// §4.6).
func (f *Fixture) CycleActiveProgram() (string, error) {
	if len(f.Programs) == 0 {
		return "", fmt.Errorf("fixture has no programs")
	}
	n := len(f.Programs)
	for i := 1; i <= n; i++ {
		idx := (f.CurrentProgramIndex + i) % n
		name := f.Programs[idx].Name()
		if name == "MANUAL" || name == "EXTERNAL" {
			continue
		}
		f.CurrentProgramIndex = idx
		f.Programs[idx].Enable()
		return name, nil
	}
	return "", fmt.Errorf("fixture has no cycleable programs")
}

// ActiveProgram returns the currently active program.
func (f *Fixture) ActiveProgram() program.Program {
	return f.Programs[f.CurrentProgramIndex]
}

// RunCurrentProgram delegates to the active program, appending its
// set-requests to out (spec §4.6).
func (f *Fixture) RunCurrentProgram(state program.TickState, out *[]values.SetRequest) error {
	return f.ActiveProgram().Run(state, out)
}

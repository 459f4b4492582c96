package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mrd0ll4r/kaleidoscope/internal/fixture"
	"github.com/mrd0ll4r/kaleidoscope/internal/universe"
)

// CreateValidateFixturesCmd creates the validate-fixtures command, which
// loads every fixture definition under a directory without starting the
// scheduler, reporting any Lua or assembly errors.
func CreateValidateFixturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate-fixtures <path>",
		Short: "Load and validate fixture definitions without running them",
		Long:  `Loads every fixture file under the given directory against an empty universe, reporting load errors.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			fixturesPath := args[0]

			matches, err := filepath.Glob(filepath.Join(fixturesPath, "*.lua"))
			if err != nil {
				return fmt.Errorf("scan fixtures path: %w", err)
			}
			if len(matches) == 0 {
				return fmt.Errorf("no fixture files found under %s", fixturesPath)
			}

			failed := false
			for _, path := range matches {
				if _, err := fixture.Load(path, universe.Config{}); err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
					failed = true
					continue
				}
				fmt.Printf("%s: ok\n", path)
			}

			if failed {
				return fmt.Errorf("one or more fixtures failed to load")
			}
			return nil
		},
	}

	return cmd
}

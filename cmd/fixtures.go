package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/zjrosen/dmxcheck/internal/fixture"
)

var fixturesDir string

var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "Run policy-validation fixtures",
	Long: `Run every policy-validation fixture in a directory.

A fixture is a YAML document naming a registry under test and the issue
counts and findings the validator must report for it. Fixture results are
printed one per line; the command exits with status 1 if any fixture fails.

Examples:
  dmxcheck fixtures --dir fixtures/policy_validation`,
	RunE: runFixtures,
}

func init() {
	fixturesCmd.Flags().StringVar(&fixturesDir, "dir", "", "directory of fixture YAML files")
	_ = fixturesCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(fixturesCmd)
}

func runFixtures(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	paths, err := filepath.Glob(filepath.Join(fixturesDir, "*.yaml"))
	if err != nil {
		return err
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return fmt.Errorf("no fixture files in %s", fixturesDir)
	}

	runner := fixture.NewRunner(cat)
	failed := 0

	for _, path := range paths {
		f, err := fixture.Load(path)
		if err != nil {
			return err
		}

		result, err := runner.Run(cmd.Context(), f)
		if err != nil {
			return err
		}

		status := "PASS"
		if !result.Passed() {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(os.Stdout, "%s %s (errors %d/%d, warnings %d/%d)\n",
			status, result.FixtureID,
			result.GotCounts.Error, result.WantCounts.Error,
			result.GotCounts.Warn, result.WantCounts.Warn)

		for _, a := range result.Assertions {
			if a.Passed {
				continue
			}
			fmt.Fprintf(os.Stdout, "  missing: %s %s (want >= %d, got %d)\n",
				a.Assertion.IssueID, a.Assertion.Severity, a.Assertion.CountMin, a.Got)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d fixture(s) failed", failed, len(paths))
	}
	return nil
}

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/dmxcheck/internal/config"
	"github.com/zjrosen/dmxcheck/internal/issue"
	"github.com/zjrosen/dmxcheck/internal/presentation"
	"github.com/zjrosen/dmxcheck/internal/validate"
	"github.com/zjrosen/dmxcheck/internal/watcher"
)

var validateWatch bool

var validateCmd = &cobra.Command{
	Use:   "validate <registry.yaml>",
	Short: "Validate a downmix policy registry",
	Long: `Validate a downmix policy registry and every pack it references.

The report is printed to stdout, JSON by default. The command exits with
status 1 when the report contains errors, so it can gate CI pipelines.

Examples:
  # Validate and print the JSON report
  dmxcheck validate ontology/policies/downmix.yaml

  # Human-readable summary
  dmxcheck validate ontology/policies/downmix.yaml --format text

  # Re-validate whenever the registry tree changes
  dmxcheck validate ontology/policies/downmix.yaml --watch

  # Pull the error count with jq
  dmxcheck validate registry.yaml | jq '.issue_counts.error'`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("format", "",
		`output format: "json" or "text"`)
	validateCmd.Flags().Int("workers", 0,
		"concurrent pack validation workers (0 = one per CPU)")
	validateCmd.Flags().BoolVar(&validateWatch, "watch", false,
		"re-validate when the registry tree changes")

	_ = viper.BindPFlag("validate.format", validateCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("validate.workers", validateCmd.Flags().Lookup("workers"))

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := config.ValidateValidate(cfg.Validate); err != nil {
		return err
	}

	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	registryPath := args[0]
	runner := validate.NewRunner(cat, validate.WithWorkers(cfg.Validate.Workers))

	runOnce := func() (*issue.Report, error) {
		report, err := runner.Run(cmd.Context(), registryPath)
		if err != nil {
			return nil, err
		}
		return report, printReport(report)
	}

	report, err := runOnce()
	if err != nil {
		return err
	}

	if !validateWatch {
		if !report.OK {
			return fmt.Errorf("validation failed: %d error(s)", report.IssueCounts.Error)
		}
		return nil
	}

	w, err := watcher.New(watcher.Config{
		RegistryPath: registryPath,
		DebounceDur:  time.Duration(cfg.Validate.WatchDebounceMS) * time.Millisecond,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "watching for changes (ctrl-c to stop)")
	for {
		select {
		case <-changes:
			if _, err := runOnce(); err != nil {
				return err
			}
		case <-cmd.Context().Done():
			return nil
		}
	}
}

func printReport(report *issue.Report) error {
	formatter := presentation.NewFormatter(os.Stdout)
	if cfg.Validate.Format == config.FormatText {
		return formatter.FormatReportText(report)
	}
	return formatter.FormatJSON(report)
}

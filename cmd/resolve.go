package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/dmxcheck/internal/config"
	"github.com/zjrosen/dmxcheck/internal/matrix"
	"github.com/zjrosen/dmxcheck/internal/registry"
	"github.com/zjrosen/dmxcheck/internal/resolve"
	"github.com/zjrosen/dmxcheck/internal/validate"
)

var (
	resolveFrom   string
	resolveTo     string
	resolvePolicy string
	resolveForce  bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <registry.yaml>",
	Short: "Resolve a conversion into a dense gain matrix",
	Long: `Resolve a source-to-target layout conversion into a dense gain matrix.

The registry is validated first; resolution refuses to run against a
registry with validation errors unless --force is given. Direct
conversion entries win over composition paths unless the entry's matrix
ID carries the .COMPOSED suffix.

Examples:
  # Resolve with the source layout's default policy
  dmxcheck resolve registry.yaml --from LAYOUT.5_1 --to LAYOUT.2_0

  # Pin a policy and render CSV
  dmxcheck resolve registry.yaml --from LAYOUT.5_1 --to LAYOUT.2_0 \
    --policy POLICY.DOWNMIX.FILM_STANDARD --format csv`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveFrom, "from", "", "source layout ID")
	resolveCmd.Flags().StringVar(&resolveTo, "to", "", "target layout ID")
	resolveCmd.Flags().StringVar(&resolvePolicy, "policy", "", "policy ID (default: registry default for the source layout)")
	resolveCmd.Flags().BoolVar(&resolveForce, "force", false, "resolve even when validation reports errors")
	resolveCmd.Flags().String("format", "", `output format: "json" or "csv"`)
	_ = resolveCmd.MarkFlagRequired("from")
	_ = resolveCmd.MarkFlagRequired("to")

	_ = viper.BindPFlag("resolve.format", resolveCmd.Flags().Lookup("format"))

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	if err := config.ValidateResolve(cfg.Resolve); err != nil {
		return err
	}

	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	registryPath := args[0]

	// The validator is the truth layer: a registry with errors does not get
	// to produce matrices unless the caller insists.
	report, err := validate.NewRunner(cat).Run(cmd.Context(), registryPath)
	if err != nil {
		return err
	}
	if !report.OK && !resolveForce {
		return fmt.Errorf("registry has %d validation error(s); rerun with --force to resolve anyway",
			report.IssueCounts.Error)
	}

	reg, issues := registry.LoadRegistry(registryPath)
	if reg == nil {
		return registryLoadError(issues)
	}

	var opts []resolve.Option
	if cfg.Resolve.SkipCache {
		opts = append(opts, resolve.WithSkipCache())
	}
	resolver := resolve.New(cat, reg, opts...)

	res, err := resolver.Resolve(cmd.Context(), resolve.Request{
		SourceLayoutID: resolveFrom,
		TargetLayoutID: resolveTo,
		PolicyID:       resolvePolicy,
	})
	if err != nil {
		return err
	}

	if cfg.Resolve.Format == config.ResolveFormatCSV {
		_, err = fmt.Fprint(os.Stdout, matrix.FormatCSV(res.Matrix))
		return err
	}

	out, err := matrix.FormatResolutionJSON(res.Matrix, res.Steps)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, out)
	return err
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/dmxcheck/internal/inventory"
	"github.com/zjrosen/dmxcheck/internal/presentation"
	"github.com/zjrosen/dmxcheck/internal/registry"
)

var (
	listLayouts     bool
	listPolicies    bool
	listConversions bool
)

var catalogListCmd = &cobra.Command{
	Use:   "catalog:list <registry.yaml>",
	Short: "List layouts, policies, and reachable conversions",
	Long: `List the reference layouts, declared policies, and every reachable
conversion as JSON.

Conversions merge the registry's declared entries with every matrix found
in a loaded pack, so a matrix no conversion references still shows up.
With no section flag, all sections are included.

Examples:
  # Full inventory
  dmxcheck catalog:list registry.yaml

  # Only policies
  dmxcheck catalog:list registry.yaml --policies

  # Parse specific fields with jq
  dmxcheck catalog:list registry.yaml | jq '.conversions[].source_layout_id'`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogList,
}

func init() {
	catalogListCmd.Flags().BoolVar(&listLayouts, "layouts", false, "include the layouts section")
	catalogListCmd.Flags().BoolVar(&listPolicies, "policies", false, "include the policies section")
	catalogListCmd.Flags().BoolVar(&listConversions, "conversions", false, "include the conversions section")
	rootCmd.AddCommand(catalogListCmd)
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	reg, issues := registry.LoadRegistry(args[0])
	if reg == nil {
		return registryLoadError(issues)
	}

	// Unloadable packs drop out of the conversion merge; the listing is an
	// inventory, not a validation.
	packs := make(map[string]*registry.PolicyPack, len(reg.Policies))
	for _, policyID := range reg.PolicyIDs() {
		pack, _ := registry.LoadPack(reg.PackPath(reg.Policies[policyID]), policyID)
		packs[policyID] = pack
	}

	payload := inventory.Build(cat, reg, packs, inventory.Options{
		Layouts:     listLayouts,
		Policies:    listPolicies,
		Conversions: listConversions,
	})

	return presentation.NewFormatter(os.Stdout).FormatJSON(payload)
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/dmxcheck/internal/catalog"
	"github.com/zjrosen/dmxcheck/internal/config"
	"github.com/zjrosen/dmxcheck/internal/issue"
	"github.com/zjrosen/dmxcheck/internal/log"
)

var (
	version = "dev"
	cfgFile string
	debug   bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "dmxcheck",
	Short:   "Validate and resolve downmix policy registries",
	Long: `dmxcheck validates downmix policy registries against a reference catalog
of layouts and speakers, and resolves conversions into dense gain matrices.

A registry names policies, each backed by a pack file of coefficient
matrices. Validation checks structure, references, coefficient sanity, and
composition path contiguity, and reports findings deterministically.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// SetVersion overrides the version string shown by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .dmxcheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug logging to stderr")
	rootCmd.PersistentFlags().String("catalog-layouts", "",
		"path to the reference layouts document")
	rootCmd.PersistentFlags().String("catalog-speakers", "",
		"path to the reference speakers document (optional)")

	// Bind flags to viper
	_ = viper.BindPFlag("catalog.layouts", rootCmd.PersistentFlags().Lookup("catalog-layouts"))
	_ = viper.BindPFlag("catalog.speakers", rootCmd.PersistentFlags().Lookup("catalog-speakers"))
}

func initConfig() {
	defaults := config.Default()
	viper.SetDefault("validate.format", defaults.Validate.Format)
	viper.SetDefault("validate.workers", defaults.Validate.Workers)
	viper.SetDefault("validate.watch_debounce_ms", defaults.Validate.WatchDebounceMS)
	viper.SetDefault("resolve.format", defaults.Resolve.Format)
	viper.SetDefault("resolve.skip_cache", defaults.Resolve.SkipCache)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .dmxcheck/config.yaml (current directory)
		// 2. ~/.config/dmxcheck/config.yaml (user config)
		if _, err := os.Stat(".dmxcheck/config.yaml"); err == nil {
			viper.SetConfigFile(".dmxcheck/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "dmxcheck"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	// A missing config file is fine; defaults and flags carry the run.
	_ = viper.ReadInConfig()
	_ = viper.Unmarshal(&cfg)

	if debug {
		log.Init(os.Stderr)
	} else {
		log.InitFromEnv()
	}
}

// registryLoadError converts fatal registry load issues into a command error.
func registryLoadError(issues []issue.Issue) error {
	if len(issues) > 0 {
		return fmt.Errorf("registry unreadable: %s", issues[0].Evidence.Detail)
	}
	return fmt.Errorf("registry unreadable")
}

// loadCatalog builds the reference catalog from the configured documents.
func loadCatalog() (*catalog.Catalog, error) {
	if cfg.Catalog.Layouts == "" {
		return nil, fmt.Errorf("catalog layouts path is required (--catalog-layouts or catalog.layouts in config)")
	}
	return catalog.Load(cfg.Catalog.Layouts, cfg.Catalog.Speakers)
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/dmxcheck/internal/config"
)

var configInitPath string

var configInitCmd = &cobra.Command{
	Use:   "config:init",
	Short: "Write a commented default config file",
	Long: `Write the commented default configuration.

Refuses to overwrite an existing file.

Examples:
  # Project-local config
  dmxcheck config:init

  # Explicit location
  dmxcheck config:init --path ~/.config/dmxcheck/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteDefaultConfig(configInitPath); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "wrote %s\n", configInitPath)
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configInitPath, "path", ".dmxcheck/config.yaml",
		"where to write the config file")
	rootCmd.AddCommand(configInitCmd)
}

/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/recordkv/pkg/config"
)

// newInitCmd represents the init command
func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file and data directory",
		Long: `Create a recordkv configuration file with a generated client API key and
make sure the data directory exists.

This command will:
- Write the config file (0600) unless one already exists
- Generate a 256-bit client API key for the HTTP server
- Create the data directory

Examples:
  recordkv init
  recordkv init --config ./recordkv.yaml --data-dir ./data --print-key`,
		Args: cobra.NoArgs,
		// init writes the config, so it must not fail on a broken one
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			dataDir, _ := cmd.Flags().GetString("data-dir")
			force, _ := cmd.Flags().GetBool("force")
			printKey, _ := cmd.Flags().GetBool("print-key")

			if configPath == "" {
				configPath = config.GetDefaultConfigPath()
			}

			if config.ConfigExists(configPath) && !force {
				cmd.Printf("Configuration already exists at %s. Use --force to overwrite.\n", configPath)
				return nil
			}

			cfg, err := config.BootstrapConfig(configPath, dataDir)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}

			cmd.Printf("Configuration created at %s\n", configPath)
			cmd.Printf("Data directory: %s\n", cfg.DataDir)
			if printKey {
				cmd.Printf("Client API key: %s\n", cfg.Security.ClientAPIKey)
			}
			cmd.Printf("\nYou can now start the server with:\n")
			cmd.Printf("  recordkv serve --config %s\n", configPath)
			return nil
		},
	}

	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	initCmd.Flags().Bool("print-key", false, "Print the generated client API key")
	return initCmd
}

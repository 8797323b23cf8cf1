/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/recordkv/pkg/adapter"
	"github.com/ssargent/recordkv/pkg/config"
	"github.com/ssargent/recordkv/pkg/di"
	"github.com/ssargent/recordkv/pkg/logging"
)

type containerKey struct{}

// NewRootCmd builds the recordkv command tree
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

// newRootCmd lets tests replace container factories before any command runs
func newRootCmd(configure func(*di.Container)) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "recordkv",
		Short: "recordkv - field records over pluggable key-value engines",
		Long: `recordkv stores records of named fields as single values in an ordered
key-value engine (pebble, an append-only log, bbolt or memory) and can serve
them over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
			if err != nil {
				return &config.ConfigError{Field: "logging", Reason: err.Error()}
			}

			container, err := di.NewContainer(cfg, logger)
			if err != nil {
				return err
			}
			if configure != nil {
				configure(container)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, containerKey{}, container))
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to config file (default: OS-specific location)")
	flags.StringP("data-dir", "d", "", "Data directory for the store")
	flags.String("variant", "", "Storage engine: 0|baseline, 1|log, 2|bolt, 3|memory")
	flags.Bool("sync", false, "Fsync every write")
	flags.String("remote", "", "Use the HTTP server at this URL instead of a local engine")
	flags.String("remote-api-key", "", "API key sent to the remote server")
	flags.String("remote-format", "", "Remote body format: json or msgpack")
	flags.Int("scan-workers", 0, "Goroutines used to decode a scan (0 = GOMAXPROCS)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text or json")

	rootCmd.AddCommand(
		newReadCmd(),
		newInsertCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newScanCmd(),
		newServeCmd(),
		newInitCmd(),
		newShellCmd(),
	)
	return rootCmd
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main().
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfig loads the config file when present and applies the flags
// the user set explicitly.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("variant") {
		v, _ := flags.GetString("variant")
		cfg.Variant = config.VariantName(v)
	}
	if flags.Changed("sync") {
		cfg.Store.Sync, _ = flags.GetBool("sync")
	}
	if flags.Changed("remote") {
		cfg.Remote.Endpoint, _ = flags.GetString("remote")
	}
	if flags.Changed("remote-api-key") {
		cfg.Remote.APIKey, _ = flags.GetString("remote-api-key")
	}
	if flags.Changed("remote-format") {
		cfg.Remote.Format, _ = flags.GetString("remote-format")
	}
	if flags.Changed("scan-workers") {
		cfg.Scan.Workers, _ = flags.GetInt("scan-workers")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format, _ = flags.GetString("log-format")
	}

	// Flags only some commands define
	if changed(cmd, "port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if changed(cmd, "bind") {
		cfg.Bind, _ = flags.GetString("bind")
	}
	if changed(cmd, "api-key") {
		cfg.Security.ClientAPIKey, _ = flags.GetString("api-key")
	}
	if scratch, _ := flags.GetBool("scratch"); scratch {
		cfg.Variant = "memory"
		cfg.Remote.Endpoint = ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func containerFrom(cmd *cobra.Command) (*di.Container, error) {
	c, ok := cmd.Context().Value(containerKey{}).(*di.Container)
	if !ok {
		return nil, errors.New("dependency container not initialized")
	}
	return c, nil
}

// withDB opens the configured database for the duration of fn. The store
// itself opens on first use.
func withDB(cmd *cobra.Command, fn func(db *adapter.DB) error) error {
	return runDB(cmd, (*di.Container).NewDB, fn)
}

// withOpenDB is withDB with the store opened up front
func withOpenDB(cmd *cobra.Command, fn func(db *adapter.DB) error) error {
	return runDB(cmd, (*di.Container).OpenDB, fn)
}

func runDB(cmd *cobra.Command, open func(*di.Container) (*adapter.DB, error), fn func(db *adapter.DB) error) (err error) {
	c, err := containerFrom(cmd)
	if err != nil {
		return err
	}
	db, err := open(c)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(db)
}

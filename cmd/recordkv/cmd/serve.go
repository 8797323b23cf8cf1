/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/recordkv/pkg/adapter"
)

// newServeCmd represents the serve command
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the recordkv HTTP API over the configured store.

The server exposes /get, /put, /update, /del and /scan with JSON or msgpack
records, plus /health, /metrics and /swagger. When a client API key is set
(in the config file or with --api-key) every record request must carry it in
the X-API-Key header.

Examples:
  recordkv serve --port 8080
  recordkv serve --variant log --data-dir ./data --api-key mysecretkey`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := containerFrom(cmd)
			if err != nil {
				return err
			}
			cfg := container.Config()

			return withOpenDB(cmd, func(db *adapter.DB) error {
				cmd.Printf("Starting recordkv server on %s:%d\n", cfg.Bind, cfg.Port)
				if cfg.Remote.Endpoint == "" {
					cmd.Printf("Data directory: %s\n", cfg.DataDir)
				}

				starter := container.GetServerFactory().CreateServerStarter()
				return starter.StartServer(cmd.Context(), db, container.ServerConfig(db))
			})
		},
	}

	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	serveCmd.Flags().String("api-key", "", "API key clients must send (overrides the config file)")
	return serveCmd
}

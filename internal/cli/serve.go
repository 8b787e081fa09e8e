package cli

import (
	"github.com/spf13/cobra"

	"github.com/hardstucks/podium/internal/server"
)

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the assignment HTTP API",
		Long: `Serve starts the HTTP API with one solve endpoint per debate format
(POST /bp, POST /traditional) and a health check (GET /healthz).
Configuration comes from an optional TOML file, overridable via PODIUM_*
environment variables; a .env file in the working directory is honored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := server.LoadConfig(configPath)
			if err != nil {
				return err
			}

			resultCache, err := server.NewCache(cmd.Context(), cfg, c.Logger)
			if err != nil {
				return err
			}
			defer resultCache.Close()

			return server.New(cfg, c.Logger, resultCache).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")

	return cmd
}

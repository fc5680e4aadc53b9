package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/camillebr/photosite/internal/config"
	"github.com/camillebr/photosite/internal/metrics"
	"github.com/camillebr/photosite/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP content service.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			metrics.Init()

			app, err := server.Build(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("build application: %w", err)
			}

			return app.Run(cmd.Context())
		},
	}
}

// Package cmd wires the command-line interface for the photosite service.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photosite",
		Short: "Content service for the photography site.",
		Long: `photosite serves the public content API and the admin ingestion
pipeline: section images are transcoded to JPEG, given a BlurHash
placeholder, uploaded to the object store and recorded in the metadata
store in one operation.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

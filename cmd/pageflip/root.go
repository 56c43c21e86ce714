package main

import (
	"github.com/spf13/cobra"

	"github.com/pageflip/pageflip/internal/api"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "pageflip",
	Short: "On-demand page image server for galleries and scanned PDFs",
	Long: `Pageflip serves decoded page images, on demand, from an ordered
file collection to an image-viewing consumer.

A gallery is either a directory of image files or a PDF whose pages are
rendered on request. Pages are decoded by a single background worker that
always serves the most recently requested page first.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.pageflip/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "pageflip home directory (default: ~/.pageflip)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(statusCmd)
}


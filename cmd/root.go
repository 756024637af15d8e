package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pagebuild",
	Short: "Assemble a single-page static site from components, data and assets",
	Long: `pagebuild resolves a page template against JSON data and reusable HTML
components, links or inlines the site's stylesheets and scripts, and writes
the result together with the asset trees to an output directory. It can
watch the sources and rebuild on change, and serve the output locally.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".pagebuild.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pagebuild/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize pagebuild configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the source, output and asset directories and the asset mode, and writes a .pagebuild.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

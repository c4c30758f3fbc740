package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gateswong/wowplaybook/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize wowplaybook configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the site and writes the config file (.wowplaybook.yml by default).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

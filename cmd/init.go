package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ziadkadry99/zoomdeck/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize zoomdeck configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that asks for your user id, server and timer and writes the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

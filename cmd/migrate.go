package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qgatssdev/nika/cmd/commands"
	"github.com/qgatssdev/nika/config"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database migrations",
	Run: func(cmd *cobra.Command, args []string) {
		commands.Migrate(config.LoadConfig(viper.GetViper()))
	},
}

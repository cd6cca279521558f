package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qgatssdev/nika/cmd/commands"
	"github.com/qgatssdev/nika/config"
	"github.com/qgatssdev/nika/crons"
	"github.com/qgatssdev/nika/events"
	"github.com/qgatssdev/nika/queries"
	"github.com/qgatssdev/nika/server"
	"github.com/qgatssdev/nika/service"
)

var skipMigrations bool

func init() {
	startCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not run the database migrations before starting")
	rootCmd.AddCommand(startCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the http api and the background crons",
	Long:  `Connect to the database and the message broker, then serve the trade webhook and the referral api`,
	Run: func(cmd *cobra.Command, args []string) {
		// load server configuration from server
		log.Debug().Msg("Loading server configuration")
		if viper.ConfigFileUsed() != "" {
			log.Debug().Str("section", "init").Str("path", viper.ConfigFileUsed()).Msg("Configuration file loaded")
		}
		cfg := config.LoadConfig(viper.GetViper())
		if !skipMigrations {
			log.Debug().Msg("Running migrations")
			commands.Migrate(cfg)
		}

		repo, err := queries.Open(cfg.DatabaseCluster)
		if err != nil {
			log.Fatal().Err(err).Str("section", "init").Msg("Unable to connect to database")
		}
		defer repo.Close()

		publisher := events.NewPublisher(cfg.Kafka)
		dataServices := service.NewService(cfg, repo, publisher)
		defer dataServices.Close()

		crons.Start(cfg.Crons, repo)
		defer crons.Close()

		// start a new server
		log.Debug().Str("section", "init").Msg("Starting new server instance")
		srv := server.NewServer(cfg, dataServices)
		log.Info().Str("section", "init").Int("port", cfg.Server.API.Port).Msg("Listening for incoming requests")
		if err := srv.Listen(); err != nil {
			log.Error().Err(err).Str("section", "server").Msg("Server stopped with error")
		}
	},
}

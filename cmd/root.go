package cmd

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/qgatssdev/nika/config"
)

var (
	// LogLevel is one of debug, info, warn, error, fatal or panic
	LogLevel = "info"
	// LogFormat is json or pretty
	LogFormat = "json"
	cfgFile   string
)

var rootCmd = &cobra.Command{
	Use:   "nika",
	Short: "Referral driven trading fee distribution",
	Long: `Settles trade fees into cashback, referral commissions and treasury,
and lets referrers claim the commissions they earned.`,
}

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	LogLevel = envOr("LOG_LEVEL", LogLevel)
	LogFormat = envOr("LOG_FORMAT", LogFormat)

	cobra.OnInitialize(initConfig)
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./.config.yaml)")
	flags.StringVar(&LogLevel, "log-level", LogLevel, "minimum level to log: debug|info|warn|error|fatal|panic")
	flags.StringVar(&LogFormat, "log-format", LogFormat, "log output: json|pretty")
}

func initConfig() {
	config.OpenConfig(cfgFile)
	setupLogger(LogLevel, LogFormat)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// Execute runs the command selected on the command line
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func setupLogger(level, format string) {
	if format == "pretty" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		log.Warn().Str("level", level).Msg("Unknown log level, using info")
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)

	gin.SetMode(gin.ReleaseMode)
	if parsed == zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	}
}

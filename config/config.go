package config

import (
	"fmt"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/qgatssdev/nika/conv"
)

// Config structure
type Config struct {
	Server          ServerConfig
	Kafka           KafkaConfig           `mapstructure:"kafka"`
	DatabaseCluster DatabaseClusterConfig `mapstructure:"database_cluster"`
	Crons           Crons                 `mapstructure:"crons"`
	Fee             FeeConfig             `mapstructure:"fee"`
	ReferralConfig  ReferralsConfig       `mapstructure:"referral_config"`
	Tokens          []string              `mapstructure:"tokens"`
}

// ReferralsConfig holds the default commission rate of each referral level
type ReferralsConfig struct {
	L1 float64 `mapstructure:"L1"`
	L2 float64 `mapstructure:"L2"`
	L3 float64 `mapstructure:"L3"`
}

// GetRate returns the default rate of a level as an exact decimal
func (cfg ReferralsConfig) GetRate(level int) *decimal.Big {
	switch level {
	case 1:
		return conv.FromFloat(cfg.L1)
	case 2:
		return conv.FromFloat(cfg.L2)
	case 3:
		return conv.FromFloat(cfg.L3)
	}
	return conv.NewDecimalWithPrecision()
}

// FeeConfig structure
type FeeConfig struct {
	// DefaultRate is applied on the trade volume when the webhook does not carry a fee
	DefaultRate float64 `mapstructure:"default_rate"`
	// DefaultCashback is the share of the fee returned to the paying user
	DefaultCashback float64 `mapstructure:"default_cashback"`
}

func (cfg FeeConfig) GetDefaultRate() *decimal.Big {
	return conv.FromFloat(cfg.DefaultRate)
}

func (cfg FeeConfig) GetDefaultCashback() *decimal.Big {
	return conv.FromFloat(cfg.DefaultCashback)
}

// KafkaConfig structure
type KafkaConfig struct {
	UseTLS       bool          `mapstructure:"use_tls"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// Enabled is true when at least one broker is configured
func (cfg KafkaConfig) Enabled() bool {
	return len(cfg.Brokers) > 0
}

// ServerConfig structure
type ServerConfig struct {
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	API        APIConfig        `mapstructure:"api"`
}

// MonitoringConfig structure
type MonitoringConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Crons - mapping of ids to execution frequency
type Crons map[string]string

// APIConfig structure
type APIConfig struct {
	Port            int
	KeepAlive       bool          `mapstructure:"keep_alive"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	JWTTokenSecret  string        `mapstructure:"jwt_token_secret"`
	// WebhookSecret authenticates the execution layer calling the trade webhook. Empty disables the check.
	WebhookSecret string `mapstructure:"webhook_secret"`
	AdminAPIKey   string `mapstructure:"admin_api_key"`
}

// DatabaseClusterConfig structure
type DatabaseClusterConfig struct {
	Writer DatabaseConfig `mapstructure:"writer"`
	Reader DatabaseConfig `mapstructure:"reader"`
}

// DatabaseConfig structure
type DatabaseConfig struct {
	Type            string // postgres
	Host            string
	Username        string
	Password        string
	Name            string
	SSLmode         string `mapstructure:"sslmode"`
	ApplicationName string `mapstructure:"application_name"`
	Port            int
	MaxOpenConns    int `mapstructure:"max_open_conns"`
	MaxIdleConns    int `mapstructure:"max_idle_conns"`
}

// DSN builds the postgres connection string
func (db DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=%s",
		db.Host, db.Port, db.Username, db.Password, db.Name, db.SSLmode, db.ApplicationName,
	)
}

// URI builds the postgres url used by the migration tool
func (db DatabaseConfig) URI() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", db.Username, db.Password, db.Host, db.Port, db.Name, db.SSLmode)
}

// LoadConfig Load server configuration from the yaml file
func LoadConfig(viperConf *viper.Viper) Config {
	var config Config

	err := viperConf.Unmarshal(&config)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to decode config into struct")
	}
	if config.DatabaseCluster.Reader.Host == "" {
		config.DatabaseCluster.Reader = config.DatabaseCluster.Writer
	}
	return config
}

// OpenConfig godoc
func OpenConfig(file string) {
	// Don't forget to read config either from cfgFile, from current directory or from home directory!
	if file != "" {
		// Use config file from the flag.
		viper.SetConfigFile(file)
	}

	viper.SetConfigType("yaml")
	viper.SetConfigName(".config")
	viper.AddConfigPath(".")          // First try to load the config from the current directory
	viper.AddConfigPath("$HOME")      // Then try to load it from the HOME directory
	viper.AddConfigPath("/etc/nika/") // As a last resort try to load it from /etc/
	viper.SetEnvPrefix("CFG")
	viper.AutomaticEnv()
	SetDefaultVariables(viper.GetViper())

	err := viper.ReadInConfig() // Find and read the config file
	if err != nil {             // Handle errors reading the config file
		log.Fatal().Err(err).Msg("Unable to read configuration file")
	}
}

// SetDefaultVariables registers the values used when the configuration file omits them
func SetDefaultVariables(v *viper.Viper) {
	v.SetDefault("server.api.port", 8080)
	v.SetDefault("server.api.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.monitoring.enabled", true)
	v.SetDefault("server.monitoring.path", "/metrics")
	v.SetDefault("database_cluster.writer.type", "postgres")
	v.SetDefault("database_cluster.writer.port", 5432)
	v.SetDefault("database_cluster.writer.sslmode", "disable")
	v.SetDefault("database_cluster.writer.application_name", "nika")
	v.SetDefault("referral_config.L1", 0.30)
	v.SetDefault("referral_config.L2", 0.03)
	v.SetDefault("referral_config.L3", 0.02)
	v.SetDefault("fee.default_rate", 0.01)
	v.SetDefault("fee.default_cashback", 0.10)
	v.SetDefault("tokens", []string{"USDT", "USDC", "ETH", "SOL", "BTC"})
	v.SetDefault("kafka.topic", "nika.events")
	v.SetDefault("kafka.batch_timeout", 10*time.Millisecond)
	v.SetDefault("crons", map[string]string{"update_user_referrals_cache": "@every 5m"})
}

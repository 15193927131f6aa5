package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`

	// Allowed CORS origin; "*" lets any client in.
	AllowOrigin string `mapstructure:"allow_origin" validate:"required"`

	// Per-client outbound WebSocket buffer (messages).
	SendBuffer int `mapstructure:"send_buffer" validate:"min=1"`
}

// CatalogConfig points at the building catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// DatabaseConfig controls the production ledger.
type DatabaseConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// SQLite path, or ":memory:".
	Path string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Log level: debug, info, warn, error
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	// Log format: json, text
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// Load reads configuration with this priority:
// 1. Environment variables (FACTORY_ prefix)
// 2. Config file (config.yaml)
// 3. Defaults
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("FACTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8081")
	v.SetDefault("server.allow_origin", "*")
	v.SetDefault("server.send_buffer", 256)
	v.SetDefault("catalog.path", "catalog.yaml")
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.path", "factory.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

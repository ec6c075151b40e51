// Package config provides configuration loading and validation for the
// admin server. Values come from an optional YAML file, ADMIN_* environment
// variables, and built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the admin server.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logger   LoggerConfig   `mapstructure:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"min=1s"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"min=1s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s"`
}

// DatabaseConfig holds the SQLite connection settings. The database file is
// written by the bot process; this server only reads it and runs admin
// deletes.
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"              validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"min=1s"`
}

// AuthConfig holds the single admin credential pair and the cookie session
// key. Credentials are a plain comparison against configured values; this is
// an internal tool with no account model. If SessionKey is empty a random
// key is generated at startup and sessions do not survive restarts.
type AuthConfig struct {
	Username   string `mapstructure:"username"    validate:"required"`
	Password   string `mapstructure:"password"    validate:"required"`
	SessionKey string `mapstructure:"session_key" validate:"omitempty,min=32"`
}

// LoggerConfig holds structured logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// Load reads configuration from the given YAML file, applies ADMIN_*
// environment overrides and defaults, and validates the result. A missing
// config file is not an error; defaults and environment still apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("ADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		slog.Info("configuration file not found, using defaults", "path", path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	slog.Debug("configuration loaded",
		"addr", cfg.Server.Addr,
		"db_path", cfg.Database.Path,
		"log_level", cfg.Logger.Level)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8090")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.path", "data/bot_messages.db")
	// SQLite does not support concurrent writers, keep the pool at one.
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.password", "admin123")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

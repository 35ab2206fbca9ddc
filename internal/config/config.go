// Package config loads server configuration from a YAML file and GAME_*
// environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
}

// ServerConfig configures the HTTP/websocket listener.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig configures optional session persistence.
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GameConfig carries per-game setup defaults.
type GameConfig struct {
	StartingMoney int `mapstructure:"starting_money"`
	MaxPlayers    int `mapstructure:"max_players"`
}

// Load reads configuration from path, if given, then applies GAME_*
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.url", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("game.starting_money", 100_000)
	v.SetDefault("game.max_players", 6)

	v.SetEnvPrefix("GAME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("database.url is required when database.enabled is true")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	if c.Game.MaxPlayers < 1 {
		return fmt.Errorf("game.max_players must be at least 1, got %d", c.Game.MaxPlayers)
	}
	if c.Game.StartingMoney < 0 {
		return fmt.Errorf("game.starting_money must not be negative, got %d", c.Game.StartingMoney)
	}
	return nil
}

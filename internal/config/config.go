// Package config loads server configuration from a YAML file with
// environment-variable overrides (CODEOPOLY_ prefix).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Judge    JudgeConfig    `mapstructure:"judge"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds the transport and session settings.
type ServerConfig struct {
	WebSocket   WebSocketConfig `mapstructure:"websocket"`
	LeasePeriod time.Duration   `mapstructure:"lease_period"`
	MaxSessions int             `mapstructure:"max_sessions"`
}

// WebSocketConfig configures the websocket listener.
type WebSocketConfig struct {
	Address         string        `mapstructure:"address"`
	Path            string        `mapstructure:"path"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes"`
}

// GameConfig holds per-match rule settings.
type GameConfig struct {
	StartingCash       int           `mapstructure:"starting_cash"`
	DuelTimeLimit      time.Duration `mapstructure:"duel_time_limit"`
	DecisionTimeout    time.Duration `mapstructure:"decision_timeout"`
	MatchDurationLimit time.Duration `mapstructure:"match_duration_limit"`
}

// JudgeConfig points at the external code-execution judge.
type JudgeConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig configures the postgres pool used for match
// persistence. Persistence is optional: an empty URL disables it.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from path. A missing file is not an error;
// defaults and environment overrides still apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CODEOPOLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.path", "/ws")
	v.SetDefault("server.websocket.write_timeout", 10*time.Second)
	v.SetDefault("server.websocket.pong_timeout", 60*time.Second)
	v.SetDefault("server.websocket.ping_interval", 54*time.Second)
	v.SetDefault("server.websocket.max_message_bytes", 64*1024)
	v.SetDefault("server.lease_period", 2*time.Minute)
	v.SetDefault("server.max_sessions", 1000)

	v.SetDefault("game.starting_cash", 1500)
	v.SetDefault("game.duel_time_limit", 5*time.Minute)
	v.SetDefault("game.decision_timeout", 45*time.Second)
	v.SetDefault("game.match_duration_limit", 45*time.Minute)

	v.SetDefault("judge.timeout", 30*time.Second)

	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("database.connect_timeout", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func (c *Config) validate() error {
	if c.Game.StartingCash <= 0 {
		return fmt.Errorf("game.starting_cash must be positive")
	}
	if c.Game.DuelTimeLimit <= 0 {
		return fmt.Errorf("game.duel_time_limit must be positive")
	}
	if c.Server.MaxSessions <= 0 {
		return fmt.Errorf("server.max_sessions must be positive")
	}
	return nil
}

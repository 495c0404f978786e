// Package config loads the server configuration from defaults, an optional YAML file and MINIKV_ environment
// variables, in increasing order of priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const EnvPrefix = "MINIKV"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Limits  LimitsConfig  `mapstructure:"limits"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	// ReadTimeout bounds the time to receive the rest of a command once its first byte arrived, 0 disables it
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// IdleTimeout bounds the time a connection may stay silent between commands, 0 disables it
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// RateLimit is the number of commands per second allowed on one connection, 0 disables rate limiting
	RateLimit            float64 `mapstructure:"rate_limit"`
	RateBurst            int     `mapstructure:"rate_burst"`
	CloseOnProtocolError bool    `mapstructure:"close_on_protocol_error"`
}

type LimitsConfig struct {
	MaxDepth      int `mapstructure:"max_depth"`
	MaxElements   int `mapstructure:"max_elements"`
	MaxBulkLength int `mapstructure:"max_bulk_length"`
	MaxBufferSize int `mapstructure:"max_buffer_size"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

var defaults = map[string]any{
	"server.address":                 "127.0.0.1:6379",
	"server.read_timeout":            30 * time.Second,
	"server.idle_timeout":            time.Duration(0),
	"server.write_timeout":           30 * time.Second,
	"server.rate_limit":              0.0,
	"server.rate_burst":              100,
	"server.close_on_protocol_error": false,
	"limits.max_depth":               32,
	"limits.max_elements":            1_000_000,
	"limits.max_bulk_length":         512 * 1024 * 1024,
	"limits.max_buffer_size":         1024 * 1024 * 1024,
	"metrics.enabled":                false,
	"metrics.address":                "127.0.0.1:9121",
	"log.level":                      "info",
	"log.format":                     "console",
	"log.file":                       "",
	"log.max_size":                   100,
	"log.max_age":                    30,
	"log.max_backups":                5,
	"log.compress":                   true,
}

// Default returns the configuration used when no file or environment override is present
func Default() *Config {
	cfg, err := Load(afero.NewMemMapFs(), "")
	if err != nil {
		// Defaults are static, failing here is a programming error
		panic(err)
	}
	return cfg
}

// Load reads the configuration. path may be empty, in which case only defaults and environment variables are used.
func Load(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var ErrInvalidConfig = errors.New("invalid config")

// frameOverhead is the room a bulk string of the maximum length needs on top of its payload for the length line, the
// trailing CRLF and the request array header
const frameOverhead = 64

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Address == "" {
		errs = append(errs, fmt.Errorf("%w: server.address is required", ErrInvalidConfig))
	}
	if c.Server.ReadTimeout < 0 || c.Server.IdleTimeout < 0 || c.Server.WriteTimeout < 0 {
		errs = append(errs, fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("%w: server.rate_limit must not be negative", ErrInvalidConfig))
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("%w: server.rate_burst must be at least 1", ErrInvalidConfig))
	}
	if c.Limits.MaxDepth < 1 || c.Limits.MaxElements < 1 || c.Limits.MaxBulkLength < 1 {
		errs = append(errs, fmt.Errorf("%w: limits must be positive", ErrInvalidConfig))
	}
	if c.Limits.MaxBufferSize-c.Limits.MaxBulkLength < frameOverhead {
		errs = append(errs, fmt.Errorf("%w: limits.max_buffer_size must exceed limits.max_bulk_length by at least %d bytes",
			ErrInvalidConfig, frameOverhead))
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		errs = append(errs, fmt.Errorf("%w: metrics.address is required when metrics are enabled", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

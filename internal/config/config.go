package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. PADRON_SERVER_PORT.
const EnvPrefix = "PADRON"

// Config defines server configuration. Environment keys are derived from
// field names, e.g. PADRON_LOCK_REDIS_ADDR.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Lock      LockConfig      `yaml:"lock"`
	Identity  IdentityConfig  `yaml:"identity"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// RateLimit is the number of /mcp requests allowed per actor (or client
	// IP without one) per minute. Zero disables it.
	RateLimit       int           `yaml:"rate_limit" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
}

type DBConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type LockConfig struct {
	Backend     string        `yaml:"backend"`
	RedisAddr   string        `yaml:"redis_addr" split_words:"true"`
	RedisPrefix string        `yaml:"redis_prefix" split_words:"true"`
	TTL         time.Duration `yaml:"ttl"`
}

type IdentityConfig struct {
	DefaultActor string `yaml:"default_actor" split_words:"true"`
	Header       string `yaml:"header"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			RateLimit:       300,
			ShutdownTimeout: 10 * time.Second,
		},
		DB: DBConfig{
			Driver: "sqlite",
			Path:   "padron.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Lock: LockConfig{
			Backend:     "local",
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "padron",
			TTL:         10 * time.Second,
		},
		Identity: IdentityConfig{
			DefaultActor: "system",
			Header:       "X-Actor",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file named by
// PADRON_CONFIG_PATH, and PADRON_* environment variables, in that order.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(EnvPrefix + "_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that enumerated settings hold known values.
func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("invalid rate limit %d", c.Server.RateLimit)
	}
	if err := oneOf("db driver", c.DB.Driver, "sqlite", "memory"); err != nil {
		return err
	}
	if c.DB.Driver == "sqlite" && c.DB.Path == "" {
		return fmt.Errorf("db path required for sqlite")
	}
	if err := oneOf("transport mode", c.Transport.Mode, "http", "stdio"); err != nil {
		return err
	}
	if err := oneOf("lock backend", c.Lock.Backend, "local", "redis"); err != nil {
		return err
	}
	if err := oneOf("log level", strings.ToLower(c.Log.Level), "debug", "info", "warn", "error"); err != nil {
		return err
	}
	if strings.TrimSpace(c.Identity.DefaultActor) == "" {
		return fmt.Errorf("identity default actor required")
	}
	return nil
}

// SlogLevel maps the configured level name onto a slog level.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (want one of %s)", name, value, strings.Join(allowed, ", "))
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

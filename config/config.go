// Package config loads abaccess settings from an optional YAML file and
// ABACCESS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lborres/abaccess/pkg/crypto"
)

const EnvPrefix = "ABACCESS"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Client   ClientConfig   `mapstructure:"client"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // development or production
	BasePath        string        `mapstructure:"base_path"`
	StaticDir       string        `mapstructure:"static_dir"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects account storage. An empty URL keeps everything in
// memory.
type DatabaseConfig struct {
	URL     string `mapstructure:"url"`
	Migrate bool   `mapstructure:"migrate"`
}

type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	URL          string `mapstructure:"url"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type SessionConfig struct {
	Secret        string        `mapstructure:"secret"`
	MaxAge        time.Duration `mapstructure:"max_age"`
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
	CookieName    string        `mapstructure:"cookie_name"`
	CookieMaxAge  time.Duration `mapstructure:"cookie_max_age"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	CacheSize     int           `mapstructure:"cache_size"`
	DisableCache  bool          `mapstructure:"disable_cache"`
}

// SecurityConfig tunes argon2id. Memory is in KiB.
type SecurityConfig struct {
	Argon2Memory      uint32 `mapstructure:"argon2_memory"`
	Argon2Iterations  uint32 `mapstructure:"argon2_iterations"`
	Argon2Parallelism uint8  `mapstructure:"argon2_parallelism"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

type ClientConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	StateDir string        `mapstructure:"state_dir"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.base_path", "/api/auth")
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.migrate", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("session.secret", "")
	v.SetDefault("session.max_age", time.Hour)
	v.SetDefault("session.purge_interval", 10*time.Minute)
	v.SetDefault("session.cookie_name", "auth-session")
	v.SetDefault("session.cookie_max_age", 7*24*time.Hour)
	v.SetDefault("session.cache_ttl", 5*time.Minute)
	v.SetDefault("session.cache_size", 500)
	v.SetDefault("session.disable_cache", false)

	v.SetDefault("security.argon2_memory", 64*1024)
	v.SetDefault("security.argon2_iterations", 3)
	v.SetDefault("security.argon2_parallelism", 2)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("client.base_url", "http://localhost:8080/api/auth")
	v.SetDefault("client.state_dir", "")
	v.SetDefault("client.timeout", 30*time.Second)
}

// Load reads configuration. With an empty path it looks for abaccess.yaml
// in the working directory and ./configs, and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("abaccess")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Server.Mode {
	case "development", "production":
	default:
		return fmt.Errorf("invalid server.mode %q", c.Server.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid logging.format %q", c.Logging.Format)
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	if c.Security.Argon2Memory > crypto.MaxArgon2Memory {
		return fmt.Errorf("security.argon2_memory %d exceeds %d KiB", c.Security.Argon2Memory, crypto.MaxArgon2Memory)
	}
	if c.Security.Argon2Iterations > crypto.MaxArgon2Iterations {
		return fmt.Errorf("security.argon2_iterations %d exceeds %d", c.Security.Argon2Iterations, crypto.MaxArgon2Iterations)
	}
	return nil
}

func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *ServerConfig) Production() bool {
	return c.Mode == "production"
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid logging.level %q", s)
	}
	return level, nil
}

// NewLogger builds the process logger.
func (c LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(c.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Package config loads the explored service configuration from defaults,
// an optional YAML file and EXPLORED_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Index  IndexConfig  `mapstructure:"index"`
	Flush  FlushConfig  `mapstructure:"flush"`
	Store  StoreConfig  `mapstructure:"store"`
	Feed   FeedConfig   `mapstructure:"feed"`
	Server ServerConfig `mapstructure:"server"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type IndexConfig struct {
	// Backend selects the in-memory point set: "grid" or "rtree"
	Backend string `mapstructure:"backend"`
}

type FlushConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type StoreConfig struct {
	// Driver is one of "memory", "file", "postgres", "redis"
	Driver   string         `mapstructure:"driver"`
	Path     string         `mapstructure:"path"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

type FeedConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	NATSURL string `mapstructure:"nats_url"`
	Subject string `mapstructure:"subject"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Port int    `mapstructure:"port"`
}

// ListenAddr returns host:port for the HTTP listener
func (s ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", s.Addr, s.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("index.backend", "grid")
	v.SetDefault("flush.interval", "15s")
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.path", "data/explored.gob")
	v.SetDefault("store.postgres.host", "localhost")
	v.SetDefault("store.postgres.port", 5432)
	v.SetDefault("store.postgres.user", "postgres")
	v.SetDefault("store.postgres.password", "")
	v.SetDefault("store.postgres.dbname", "explored")
	v.SetDefault("store.postgres.sslmode", "disable")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.key", "explored:points")
	v.SetDefault("feed.enabled", false)
	v.SetDefault("feed.nats_url", "nats://localhost:4222")
	v.SetDefault("feed.subject", "explored.fixes.>")
	v.SetDefault("server.addr", "0.0.0.0")
	v.SetDefault("server.port", 8080)
}

// Load reads configuration from file and environment variables.
// An empty path searches for config.yaml in . and ./configs.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		_ = v.ReadInConfig() // OK if missing
	}

	// Environment variables: EXPLORED_STORE_DRIVER → store.driver
	v.SetEnvPrefix("EXPLORED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be trace|debug|info|warn|error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be console|json, got %q", c.Log.Format))
	}
	switch c.Index.Backend {
	case "grid", "rtree":
	default:
		errs = append(errs, fmt.Sprintf("index.backend must be grid|rtree, got %q", c.Index.Backend))
	}
	if c.Flush.Interval < time.Second || c.Flush.Interval > 5*time.Minute {
		errs = append(errs, fmt.Sprintf("flush.interval must be between 1s and 5m, got %s", c.Flush.Interval))
	}

	switch c.Store.Driver {
	case "memory":
	case "file":
		if c.Store.Path == "" {
			errs = append(errs, "store.path is required for the file driver")
		}
	case "postgres":
		pg := c.Store.Postgres
		if pg.Host == "" {
			errs = append(errs, "store.postgres.host is required")
		}
		if pg.Port <= 0 || pg.Port > 65535 {
			errs = append(errs, fmt.Sprintf("store.postgres.port must be 1-65535, got %d", pg.Port))
		}
		if pg.User == "" {
			errs = append(errs, "store.postgres.user is required")
		}
		if pg.DBName == "" {
			errs = append(errs, "store.postgres.dbname is required")
		}
	case "redis":
		if c.Store.Redis.Addr == "" {
			errs = append(errs, "store.redis.addr is required")
		}
		if c.Store.Redis.Key == "" {
			errs = append(errs, "store.redis.key is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be memory|file|postgres|redis, got %q", c.Store.Driver))
	}

	if c.Feed.Enabled {
		if c.Feed.NATSURL == "" {
			errs = append(errs, "feed.nats_url is required when the feed is enabled")
		}
		if c.Feed.Subject == "" {
			errs = append(errs, "feed.subject is required when the feed is enabled")
		}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Package config загружает настройки: значения по умолчанию, затем
// config.yaml (если есть), затем переменные окружения KANBAN_*.
// Например, KANBAN_SERVER_PORT переопределяет server.port.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Repository RepositoryConfig `mapstructure:"repository"`
	File       FileConfig       `mapstructure:"file"`
	Database   DatabaseConfig   `mapstructure:"database"`
	SQLite     SQLiteConfig     `mapstructure:"sqlite"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Listing    ListingConfig    `mapstructure:"listing"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       int           `mapstructure:"rate_limit"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type"` // memory, file, sqlite или postgres
}

type FileConfig struct {
	Path          string        `mapstructure:"path"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	FlushOnWrite  bool          `mapstructure:"flush_on_write"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MinConnections int           `mapstructure:"min_connections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	Migrate        bool          `mapstructure:"migrate"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

type ListingConfig struct {
	DefaultLimit    int `mapstructure:"default_limit"`
	MaxLimit        int `mapstructure:"max_limit"`
	MoveConcurrency int `mapstructure:"move_concurrency"`
}

var repositoryTypes = map[string]bool{"memory": true, "file": true, "sqlite": true, "postgres": true}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit", 600)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})

	v.SetDefault("logging.development", true)

	v.SetDefault("repository.type", "file")

	v.SetDefault("file.path", "db.json")
	v.SetDefault("file.flush_interval", 30*time.Second)
	v.SetDefault("file.flush_on_write", false)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)
	v.SetDefault("database.migrate", true)
	v.SetDefault("database.connect_timeout", 30*time.Second)

	v.SetDefault("sqlite.path", "kanban.db")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", time.Minute)
	v.SetDefault("cache.prefix", "kanban")

	v.SetDefault("listing.default_limit", 10)
	v.SetDefault("listing.max_limit", 100)
	v.SetDefault("listing.move_concurrency", 8)
}

func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath читает config.yaml из configPath (файл или каталог) либо из текущего каталога.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("KANBAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case strings.HasSuffix(configPath, ".yaml"), strings.HasSuffix(configPath, ".yml"):
		v.SetConfigFile(configPath)
	default:
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if configPath != "" {
			v.AddConfigPath(configPath)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения конфига: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфига: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("неверный конфиг: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port должен быть от 1 до 65535")
	}

	cfg.Repository.Type = strings.ToLower(strings.TrimSpace(cfg.Repository.Type))
	if !repositoryTypes[cfg.Repository.Type] {
		errs = append(errs, "repository.type должен быть одним из: memory, file, sqlite, postgres")
	}

	switch cfg.Repository.Type {
	case "file":
		if cfg.File.Path == "" {
			errs = append(errs, "file.path обязателен для repository.type=file")
		}
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, "sqlite.path обязателен для repository.type=sqlite")
		}
	case "postgres":
		if cfg.Database.URL == "" {
			errs = append(errs, "database.url обязателен для repository.type=postgres")
		}
		if cfg.Database.MinConnections > cfg.Database.MaxConnections {
			errs = append(errs, "database.min_connections больше max_connections")
		}
	}

	if cfg.Cache.Enabled && cfg.Cache.Addr == "" {
		errs = append(errs, "cache.addr обязателен при cache.enabled")
	}

	if cfg.Listing.DefaultLimit <= 0 {
		errs = append(errs, "listing.default_limit должен быть > 0")
	}
	if cfg.Listing.MaxLimit > 0 && cfg.Listing.DefaultLimit > cfg.Listing.MaxLimit {
		errs = append(errs, "listing.default_limit больше max_limit")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

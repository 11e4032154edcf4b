package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Env        string           `yaml:"env"`
	Symbols    []string         `yaml:"symbols"`
	DateRange  DateRangeConfig  `yaml:"date_range"`
	Paths      PathsConfig      `yaml:"paths"`
	LogLevel   string           `yaml:"log_level"`
	DataSource DataSourceConfig `yaml:"data_source"`
	Proxy      string           `yaml:"proxy"`
	Database   DatabaseConfig   `yaml:"database"`
	State      StateConfig      `yaml:"state"`
	Validation struct {
		Strict bool `yaml:"strict"`
	} `yaml:"validation"`
	Gold struct {
		StaleAfterDays int `yaml:"stale_after_days"`
	} `yaml:"gold"`
	Schedule struct {
		Cron       string `yaml:"cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Monitoring struct {
		SentryDSN string `yaml:"sentry_dsn"`
	} `yaml:"monitoring"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
}

// DateRangeConfig bounds the fetch window. Dates are YYYY-MM-DD; an empty End
// means today (UTC).
type DateRangeConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// PathsConfig locates every on-disk layer.
type PathsConfig struct {
	Bronze  string `yaml:"bronze"`
	Silver  string `yaml:"silver"`
	Gold    string `yaml:"gold"`
	State   string `yaml:"state"`
	LogFile string `yaml:"log_file"`
}

// DataSourceConfig selects the market-data provider.
type DataSourceConfig struct {
	Provider string        `yaml:"provider"`
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DatabaseConfig selects and configures the store backend.
type DatabaseConfig struct {
	Driver     string   `yaml:"driver"`
	SQLitePath string   `yaml:"sqlite_path"`
	BatchSize  int      `yaml:"batch_size"`
	Postgres   DBConfig `yaml:"postgres"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// StateConfig selects where processed bronze identifiers are kept.
type StateConfig struct {
	Backend string `yaml:"backend"`
	Redis   struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Key      string `yaml:"key"`
	} `yaml:"redis"`
}

// Load reads config from a YAML file, expands ${VAR} references, then applies
// environment variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config and validates it.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// StartDate returns the parsed range start.
func (c *Config) StartDate() (time.Time, error) {
	return time.Parse("2006-01-02", c.DateRange.Start)
}

// EndDate returns the parsed range end, or today's UTC date when unset.
func (c *Config) EndDate(now time.Time) (time.Time, error) {
	if c.DateRange.End == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", c.DateRange.End)
}

func (c *Config) applyEnv() {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("ENV", &c.Env)
	str("DB_DRIVER", &c.Database.Driver)
	str("SQLITE_PATH", &c.Database.SQLitePath)
	str("DB_HOST", &c.Database.Postgres.Host)
	str("DB_NAME", &c.Database.Postgres.Name)
	str("DB_USER", &c.Database.Postgres.User)
	str("DB_PASSWORD", &c.Database.Postgres.Password)
	str("SENTRY_DSN", &c.Monitoring.SentryDSN)
	str("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	str("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	str("HTTPS_PROXY", &c.Proxy)
	str("VENDOR_API_KEY", &c.DataSource.APIKey)
	str("REDIS_ADDR", &c.State.Redis.Addr)

	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Postgres.Port = port
		}
	}
}

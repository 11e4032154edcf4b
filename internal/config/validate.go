package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// CronParser is the schedule dialect: six fields, seconds first.
var CronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return errors.New("symbols must list at least one symbol")
	}
	for i, s := range c.Symbols {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("symbols[%d] is empty", i)
		}
	}

	if c.DateRange.Start == "" {
		return errors.New("date_range.start is required")
	}
	start, err := time.Parse("2006-01-02", c.DateRange.Start)
	if err != nil {
		return fmt.Errorf("date_range.start %q is not YYYY-MM-DD", c.DateRange.Start)
	}
	if c.DateRange.End != "" {
		end, err := time.Parse("2006-01-02", c.DateRange.End)
		if err != nil {
			return fmt.Errorf("date_range.end %q is not YYYY-MM-DD", c.DateRange.End)
		}
		if end.Before(start) {
			return errors.New("date_range.end is before date_range.start")
		}
	}

	switch c.DataSource.Provider {
	case ProviderYahoo:
	case ProviderREST:
		if c.DataSource.BaseURL == "" {
			return errors.New("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return errors.New("database.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if c.Database.BatchSize < 1 {
		return errors.New("database.batch_size must be >= 1")
	}

	switch c.State.Backend {
	case StateBackendFile:
		if c.Paths.State == "" {
			return errors.New("paths.state is required for the file state backend")
		}
	case StateBackendRedis:
		if c.State.Redis.Addr == "" {
			return errors.New("state.redis.addr is required for the redis state backend")
		}
	default:
		return fmt.Errorf("state.backend %q is not supported", c.State.Backend)
	}

	// 0 means unset and is replaced by the default before validation.
	if c.Gold.StaleAfterDays < 1 {
		return errors.New("gold.stale_after_days must be >= 1")
	}

	if c.Schedule.Cron != "" {
		if _, err := CronParser.Parse(c.Schedule.Cron); err != nil {
			return fmt.Errorf("schedule.cron: %w", err)
		}
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

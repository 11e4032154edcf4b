package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultEnv            = "development"
	DefaultBronzeDir      = "data/bronze"
	DefaultSilverDir      = "data/silver"
	DefaultGoldDir        = "data/gold"
	DefaultStateFile      = "data/state/processed_files.txt"
	DefaultLogFile        = "logs/pipeline_run.json"
	DefaultLogLevel       = "info"
	DefaultProvider       = ProviderYahoo
	DefaultFetchTimeout   = 30 * time.Second
	DefaultDriver         = DriverPostgres
	DefaultSQLitePath     = ":memory:"
	DefaultBatchSize      = 500
	DefaultDBPort         = 5432
	DefaultDBSSLMode      = "prefer"
	DefaultMaxConns       = 4
	DefaultStateBackend   = StateBackendFile
	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKey       = "marketetl:processed"
	DefaultStaleAfterDays = 2
)

// Known enum values.
const (
	ProviderYahoo = "yahoo"
	ProviderREST  = "rest"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	StateBackendFile  = "file"
	StateBackendRedis = "redis"
)

func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = DefaultEnv
	}
	if c.Paths.Bronze == "" {
		c.Paths.Bronze = DefaultBronzeDir
	}
	if c.Paths.Silver == "" {
		c.Paths.Silver = DefaultSilverDir
	}
	if c.Paths.Gold == "" {
		c.Paths.Gold = DefaultGoldDir
	}
	if c.Paths.State == "" {
		c.Paths.State = DefaultStateFile
	}
	if c.Paths.LogFile == "" {
		c.Paths.LogFile = DefaultLogFile
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}

	if c.DataSource.Provider == "" {
		c.DataSource.Provider = DefaultProvider
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = DefaultFetchTimeout
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDriver
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = DefaultSQLitePath
	}
	if c.Database.BatchSize == 0 {
		c.Database.BatchSize = DefaultBatchSize
	}
	if c.Database.Postgres.Port == 0 {
		c.Database.Postgres.Port = DefaultDBPort
	}
	if c.Database.Postgres.SSLMode == "" {
		c.Database.Postgres.SSLMode = DefaultDBSSLMode
	}
	if c.Database.Postgres.MaxConns == 0 {
		c.Database.Postgres.MaxConns = DefaultMaxConns
	}

	if c.State.Backend == "" {
		c.State.Backend = DefaultStateBackend
	}
	if c.State.Redis.Addr == "" {
		c.State.Redis.Addr = DefaultRedisAddr
	}
	if c.State.Redis.Key == "" {
		c.State.Redis.Key = DefaultRedisKey
	}

	if c.Gold.StaleAfterDays == 0 {
		c.Gold.StaleAfterDays = DefaultStaleAfterDays
	}
}

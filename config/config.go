package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Lending  LendingConfig  `mapstructure:"lending"`
	Vault    VaultConfig    `mapstructure:"vault"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// LendingConfig holds the marketplace policy knobs. Interest rates are
// fixed per term; keys of TermRates are term lengths in days.
type LendingConfig struct {
	MinPrincipal  int64              `mapstructure:"min_principal"`
	MaxPrincipal  int64              `mapstructure:"max_principal"`
	TermRates     map[string]float64 `mapstructure:"term_rates"` // "7" -> 0.03
	ProcessingFee int64              `mapstructure:"processing_fee"`
}

// RateForTerm returns the interest rate for a term length, if allowed.
func (l LendingConfig) RateForTerm(termDays int) (float64, bool) {
	rate, ok := l.TermRates[fmt.Sprintf("%d", termDays)]
	return rate, ok
}

type VaultConfig struct {
	MinDeposit     int64   `mapstructure:"min_deposit"`
	YieldThreshold int64   `mapstructure:"yield_threshold"`
	DailyYieldRate float64 `mapstructure:"daily_yield_rate"`
}

type WorkerConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	YieldInterval     time.Duration `mapstructure:"yield_interval"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
	SweepBatchSize    int           `mapstructure:"sweep_batch_size"`
	YieldBatchSize    int           `mapstructure:"yield_batch_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: ALPHA_.
// Nested keys use underscore: ALPHA_DATABASE_HOST, ALPHA_JWT_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "alpha_ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "alpha-ledger")
	v.SetDefault("lending.min_principal", 100)
	v.SetDefault("lending.max_principal", 50000)
	v.SetDefault("lending.term_rates", map[string]float64{"7": 0.03, "14": 0.05, "28": 0.08})
	v.SetDefault("lending.processing_fee", 10)
	v.SetDefault("vault.min_deposit", 100)
	v.SetDefault("vault.yield_threshold", 5000)
	v.SetDefault("vault.daily_yield_rate", 0.01)
	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.yield_interval", "1h")
	v.SetDefault("worker.sweep_interval", "10m")
	v.SetDefault("worker.sweep_batch_size", 100)
	v.SetDefault("worker.yield_batch_size", 500)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: ALPHA_DATABASE_HOST -> database.host
	v.SetEnvPrefix("ALPHA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

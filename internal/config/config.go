package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

// Config holds the whole application configuration.
// It is populated from environment variables.
type Config struct {
	App     AppConfig
	Store   StoreConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Lending LendingConfig
	Jobs    JobConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
	Banner      string
}

type StoreConfig struct {
	Driver string // postgres, mongo, memory
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Password string
	DB       int
}

// LendingConfig carries the borrowing rules.
type LendingConfig struct {
	MaxBorrowed   int
	LateAfterDays int
	PenaltyDays   int
	AutoSeed      bool
	CacheTTL      time.Duration

	RetryAttempts  int
	RetryBaseDelay time.Duration
}

type JobConfig struct {
	PenaltySweepCron string
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Eigen Library"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "3030"),
			Version:     getEnv("APP_VERSION", "1.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGO_DATABASE", "libraryDB"),
			ConnectTimeout: getEnvDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Lending: LendingConfig{
			MaxBorrowed:    getEnvInt("LENDING_MAX_BORROWED", 2),
			LateAfterDays:  getEnvInt("LENDING_LATE_DAYS", 7),
			PenaltyDays:    getEnvInt("LENDING_PENALTY_DAYS", 3),
			AutoSeed:       getEnvBool("LENDING_AUTO_SEED", true),
			CacheTTL:       getEnvDuration("LENDING_CACHE_TTL", 30*time.Second),
			RetryAttempts:  getEnvInt("LENDING_RETRY_ATTEMPTS", 5),
			RetryBaseDelay: getEnvDuration("LENDING_RETRY_BASE_DELAY", 10*time.Millisecond),
		},
		Jobs: JobConfig{
			PenaltySweepCron: getEnv("JOB_PENALTY_SWEEP_CRON", "0 * * * *"),
		},
	}
	cfg.App.Banner = fmt.Sprintf("%s %s", cfg.App.Name, cfg.App.Version)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMongo, StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of postgres, mongo, memory (got %q)", c.Store.Driver)
	}

	if c.Lending.MaxBorrowed <= 0 {
		return fmt.Errorf("LENDING_MAX_BORROWED must be positive")
	}
	if c.Lending.LateAfterDays < 0 || c.Lending.PenaltyDays < 0 {
		return fmt.Errorf("LENDING_LATE_DAYS and LENDING_PENALTY_DAYS must not be negative")
	}
	if c.Lending.RetryAttempts <= 0 {
		return fmt.Errorf("LENDING_RETRY_ATTEMPTS must be positive")
	}

	if c.App.Environment == "production" && c.Store.Driver == StoreDriverMemory {
		return fmt.Errorf("the memory store must not be used in production")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// Package config loads freshlife settings from defaults, an optional TOML
// file named by FRESHLIFE_CONFIG, and environment variables, in that order.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	LedgerMemory  = "memory"
	LedgerSheets  = "sheets"
)

type Config struct {
	// HTTP Server
	Port            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	RateLimitPerMin int

	LogLevel string
	// TimeZone names the location whose calendar day is "today".
	TimeZone string

	// Document store
	DataBackend  string
	SQLiteDBPath string

	// Budget status cache
	BudgetCacheSize int
	BudgetCacheTTL  time.Duration

	// AMQP; an empty URL disables event publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Ledger export
	LedgerBackend            string
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	ExpensesSheet            string
	TasksSheet               string
	BudgetsSheet             string
}

// fileConfig mirrors Config for the TOML file. Empty values leave the
// default in place.
type fileConfig struct {
	Server struct {
		Port            string `toml:"port"`
		RequestTimeout  string `toml:"request_timeout"`
		ShutdownTimeout string `toml:"shutdown_timeout"`
		RateLimitPerMin int    `toml:"rate_limit_per_minute"`
	} `toml:"server"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
	TimeZone string `toml:"time_zone"`
	Store    struct {
		Backend         string `toml:"backend"`
		SQLitePath      string `toml:"sqlite_path"`
		BudgetCacheSize int    `toml:"budget_cache_size"`
		BudgetCacheTTL  string `toml:"budget_cache_ttl"`
	} `toml:"store"`
	AMQP struct {
		URL      string `toml:"url"`
		Exchange string `toml:"exchange"`
		Queue    string `toml:"queue"`
	} `toml:"amqp"`
	Ledger struct {
		Backend            string `toml:"backend"`
		SpreadsheetID      string `toml:"spreadsheet_id"`
		ServiceAccountFile string `toml:"service_account_file"`
		ExpensesSheet      string `toml:"expenses_sheet"`
		TasksSheet         string `toml:"tasks_sheet"`
		BudgetsSheet       string `toml:"budgets_sheet"`
	} `toml:"ledger"`
}

func Defaults() *Config {
	return &Config{
		Port:            "8081",
		RequestTimeout:  10 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitPerMin: 60,
		LogLevel:        "info",
		TimeZone:        "Local",
		DataBackend:     BackendMemory,
		SQLiteDBPath:    "./data/freshlife.db",
		BudgetCacheSize: 32,
		BudgetCacheTTL:  time.Minute,
		AMQPExchange:    "freshlife",
		AMQPQueue:       "freshlife_ledger",
		LedgerBackend:   LedgerMemory,
		ExpensesSheet:   "Expenses",
		TasksSheet:      "Tasks",
		BudgetsSheet:    "Budgets",
	}
}

// Load builds the configuration. Only an unreadable or malformed config file
// is an error; use Validate for semantic checks.
func Load() (*Config, error) {
	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("FRESHLIFE_CONFIG")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	var f fileConfig
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	setString(&c.Port, f.Server.Port)
	setString(&c.LogLevel, f.Log.Level)
	setString(&c.TimeZone, f.TimeZone)
	setString(&c.DataBackend, f.Store.Backend)
	setString(&c.SQLiteDBPath, f.Store.SQLitePath)
	setString(&c.AMQPURL, f.AMQP.URL)
	setString(&c.AMQPExchange, f.AMQP.Exchange)
	setString(&c.AMQPQueue, f.AMQP.Queue)
	setString(&c.LedgerBackend, f.Ledger.Backend)
	setString(&c.GoogleSpreadsheetID, f.Ledger.SpreadsheetID)
	setString(&c.GoogleServiceAccountFile, f.Ledger.ServiceAccountFile)
	setString(&c.ExpensesSheet, f.Ledger.ExpensesSheet)
	setString(&c.TasksSheet, f.Ledger.TasksSheet)
	setString(&c.BudgetsSheet, f.Ledger.BudgetsSheet)
	if f.Server.RateLimitPerMin != 0 {
		c.RateLimitPerMin = f.Server.RateLimitPerMin
	}
	if f.Store.BudgetCacheSize != 0 {
		c.BudgetCacheSize = f.Store.BudgetCacheSize
	}

	for _, d := range []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"server.request_timeout", f.Server.RequestTimeout, &c.RequestTimeout},
		{"server.shutdown_timeout", f.Server.ShutdownTimeout, &c.ShutdownTimeout},
		{"store.budget_cache_ttl", f.Store.BudgetCacheTTL, &c.BudgetCacheTTL},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config file %s: %s: %w", path, d.key, err)
		}
		*d.dst = v
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", c.RequestTimeout)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.RateLimitPerMin = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMin)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.TimeZone = getEnv("TIME_ZONE", c.TimeZone)

	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.BudgetCacheSize = getEnvInt("BUDGET_CACHE_SIZE", c.BudgetCacheSize)
	c.BudgetCacheTTL = getEnvDuration("BUDGET_CACHE_TTL", c.BudgetCacheTTL)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.LedgerBackend = getEnv("LEDGER_BACKEND", c.LedgerBackend)
	c.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", c.GoogleSpreadsheetID)
	c.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", c.GoogleServiceAccountJSON)
	c.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", c.GoogleServiceAccountFile)
	c.ExpensesSheet = getEnv("GOOGLE_EXPENSES_SHEET", c.ExpensesSheet)
	c.TasksSheet = getEnv("GOOGLE_TASKS_SHEET", c.TasksSheet)
	c.BudgetsSheet = getEnv("GOOGLE_BUDGETS_SHEET", c.BudgetsSheet)
}

// Location resolves TimeZone.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.TimeZone)
	if tz == "" || tz == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid time zone '%s': %v", c.TimeZone, err))
	}

	switch c.DataBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s]", c.DataBackend, BackendMemory, BackendSQLite))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch c.LedgerBackend {
	case LedgerMemory:
	case LedgerSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets ledger")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets ledger")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid ledger backend '%s': must be one of [%s %s]", c.LedgerBackend, LedgerMemory, LedgerSheets))
	}

	if c.RequestTimeout < 100*time.Millisecond || c.RequestTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be between 100ms and 5m", c.RequestTimeout))
	}
	if c.RateLimitPerMin < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMin))
	}
	if c.BudgetCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid budget cache size %d: must be at least 1", c.BudgetCacheSize))
	}
	if c.BudgetCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid budget cache TTL %v: must not be negative", c.BudgetCacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

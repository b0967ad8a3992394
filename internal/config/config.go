// Package config reads the process configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"salesengine/internal/sources"
)

// Data backends.
const (
	BackendCSV    = "csv"
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

var validBackends = []string{BackendCSV, BackendSheets, BackendSQLite}

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Backend selection
	DataBackend string

	// CSV files, one per logical table
	DataDir string
	Files   sources.Mapping

	// Database
	SQLiteDBPath string

	// Google Sheets, one tab per logical table
	GoogleSpreadsheetID string
	Tabs                sources.Mapping

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Analytics
	TopEarners int
}

func Load() *Config {
	cfg := &Config{
		Port:            getEnv("PORT", "8081"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataBackend: getEnv("DATA_BACKEND", BackendCSV),

		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/sales.db"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "salesengine"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sales_reports"),

		TopEarners: getEnvInt("TOP_EARNERS", 20),

		Files: make(sources.Mapping, len(sources.Names)),
		Tabs:  make(sources.Mapping, len(sources.Names)),
	}
	for _, name := range sources.Names {
		prefix := strings.ToUpper(name)
		cfg.Files[name] = getEnv(prefix+"_FILE", name+".csv")
		cfg.Tabs[name] = getEnv(prefix+"_TAB", name)
	}
	return cfg
}

// Sources returns the table locations of the configured backend: file
// names for csv, tab names for sheets, nil for sqlite.
func (c *Config) Sources() sources.Mapping {
	switch c.DataBackend {
	case BackendCSV:
		return c.Files
	case BackendSheets:
		return c.Tabs
	default:
		return nil
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendCSV:
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using csv backend")
		} else if info, err := os.Stat(c.DataDir); err != nil || !info.IsDir() {
			errors = append(errors, fmt.Sprintf("data directory does not exist: %s", c.DataDir))
		}
		for _, name := range sources.Names {
			if strings.TrimSpace(c.Files[name]) == "" {
				errors = append(errors, fmt.Sprintf("file for table %s cannot be empty", name))
			}
		}
	case BackendSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		for _, name := range sources.Names {
			if strings.TrimSpace(c.Tabs[name]) == "" {
				errors = append(errors, fmt.Sprintf("tab for table %s cannot be empty", name))
			}
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if _, err := os.Stat(c.SQLiteDBPath); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("SQLite database does not exist: %s (run the import command first)", c.SQLiteDBPath))
		}
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

	if c.TopEarners < 1 {
		errors = append(errors, fmt.Sprintf("invalid top earners %d: must be at least 1", c.TopEarners))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateSQLiteTarget checks the SQLite path for commands that create the
// database rather than read it.
func (c *Config) ValidateSQLiteTarget() error {
	if c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path cannot be empty")
	}
	dir := filepath.Dir(c.SQLiteDBPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("cannot create SQLite database directory '%s': %w", dir, err)
		}
	}
	return nil
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

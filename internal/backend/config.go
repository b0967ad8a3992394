package backend

import (
	"fmt"

	"salesengine/internal/config"
	"salesengine/internal/sources"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// CSV specific
	DataDir string
	Files   sources.Mapping

	// Google Sheets specific
	GoogleSpreadsheetID string
	Tabs                sources.Mapping

	// SQLite specific
	SQLiteDBPath string
}

// BackendType represents the type of backend
type BackendType string

const (
	CSVBackend    BackendType = config.BackendCSV
	SheetsBackend BackendType = config.BackendSheets
	SQLiteBackend BackendType = config.BackendSQLite
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, SheetsBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:                backendType,
		DataDir:             appConfig.DataDir,
		Files:               appConfig.Files,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		Tabs:                appConfig.Tabs,
		SQLiteDBPath:        appConfig.SQLiteDBPath,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case CSVBackend:
		if c.DataDir == "" {
			return fmt.Errorf("data directory is required for csv backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	}
	return nil
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	return []string{CSVBackend.String(), SheetsBackend.String(), SQLiteBackend.String()}
}

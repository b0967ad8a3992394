package backend

import (
	"context"
	"fmt"

	"salesengine/internal/loader"
	"salesengine/internal/log"
	"salesengine/internal/repository"
	"salesengine/internal/sources"
	"salesengine/internal/sources/csv"
	"salesengine/internal/sources/google"
	"salesengine/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVBackend:
		return f.createCSVBackend(config), nil
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// sourceBackend loads through the row loader.
type sourceBackend struct {
	src    sources.RowSource
	logger *log.Logger
}

func (b *sourceBackend) Records(ctx context.Context) (repository.Records, error) {
	return loader.LoadRecords(ctx, b.src, b.logger)
}

type sqliteBackend struct {
	repo *storage.SQLiteRepository
}

func (b *sqliteBackend) Records(ctx context.Context) (repository.Records, error) {
	return b.repo.Records(ctx)
}

func (f *DefaultFactory) createCSVBackend(config Config) *BackendResult {
	src := csv.New(config.DataDir, config.Files)

	f.logger.Info("Initialized CSV backend", "data_directory", config.DataDir)

	return &BackendResult{Backend: &sourceBackend{src: src, logger: f.logger}}
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	client, err := google.New(ctx, config.GoogleSpreadsheetID, config.Tabs, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend")

	return &BackendResult{Backend: &sourceBackend{src: client, logger: f.logger}}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: &sqliteBackend{repo: repo},
		Cleanup: repo.Close,
	}, nil
}

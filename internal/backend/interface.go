// Package backend builds the configured data source of a sales dataset.
package backend

import (
	"context"

	"salesengine/internal/repository"
)

// Backend yields the raw records of one dataset.
type Backend interface {
	Records(ctx context.Context) (repository.Records, error)
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Close runs the cleanup function, if any.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Load reads b into an immutable Dataset.
func Load(ctx context.Context, b Backend) (*repository.Dataset, error) {
	recs, err := b.Records(ctx)
	if err != nil {
		return nil, err
	}
	return repository.NewDataset(recs), nil
}

// Package memory is an in-process RowSource, used for tests and for
// feeding already parsed tables to the loader.
package memory

import (
	"context"
	"fmt"
	"sync"

	"salesengine/internal/sources"
)

type Source struct {
	mu     sync.Mutex
	tables map[string][]sources.Row
}

var _ sources.RowSource = (*Source)(nil)

func New() *Source {
	return &Source{tables: make(map[string][]sources.Row)}
}

// Put replaces the rows of a table.
func (s *Source) Put(name string, rows ...sources.Row) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = append([]sources.Row(nil), rows...)
	return s
}

// PutMatrix stores a header row plus data rows.
func (s *Source) PutMatrix(name string, values [][]string) error {
	rows, err := sources.FromMatrix(values)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	s.Put(name, rows...)
	return nil
}

// Rows returns a copy of the stored rows. A table that was never stored
// reads as empty.
func (s *Source) Rows(_ context.Context, name string) ([]sources.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sources.Row(nil), s.tables[name]...), nil
}

// Package csv reads sales tables from comma-separated files, one file per
// logical table, each starting with a header row.
package csv

import (
	"context"
	stdcsv "encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"salesengine/internal/sources"
)

// Source reads tables from files resolved through a Mapping. Relative
// locations are joined with Dir.
type Source struct {
	Dir     string
	Mapping sources.Mapping
}

var _ sources.RowSource = (*Source)(nil)

// DefaultMapping maps each logical table to "<name>.csv".
func DefaultMapping() sources.Mapping {
	m := make(sources.Mapping, len(sources.Names))
	for _, name := range sources.Names {
		m[name] = name + ".csv"
	}
	return m
}

// New creates a Source rooted at dir. A nil mapping uses DefaultMapping.
func New(dir string, mapping sources.Mapping) *Source {
	if mapping == nil {
		mapping = DefaultMapping()
	}
	return &Source{Dir: dir, Mapping: mapping}
}

// Path resolves the file backing a logical table.
func (s *Source) Path(name string) (string, error) {
	loc, err := s.Mapping.Location(name)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(loc) || s.Dir == "" {
		return loc, nil
	}
	return filepath.Join(s.Dir, loc), nil
}

// Rows reads the whole file for name.
func (s *Source) Rows(ctx context.Context, name string) ([]sources.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := stdcsv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	rows, err := sources.FromMatrix(records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

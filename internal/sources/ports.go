// Package sources defines where the raw sales tables are read from.
package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Logical table names.
const (
	Merchants    = "merchants"
	Items        = "items"
	Invoices     = "invoices"
	InvoiceItems = "invoice_items"
	Transactions = "transactions"
	Customers    = "customers"
)

// Names lists every logical table in load order.
var Names = []string{Merchants, Items, Invoices, InvoiceItems, Transactions, Customers}

// ErrUnknownTable is returned for a logical name missing from a Mapping.
var ErrUnknownTable = errors.New("unknown table")

// Row is one record keyed by header name.
type Row map[string]string

// Get returns the trimmed value of column, "" when absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r[column])
}

// RowSource reads every row of one logical table.
type RowSource interface {
	Rows(ctx context.Context, name string) ([]Row, error)
}

// Mapping maps a logical table name to a location (file path, sheet tab).
type Mapping map[string]string

// Location resolves name or fails with ErrUnknownTable.
func (m Mapping) Location(name string) (string, error) {
	loc, ok := m[name]
	if !ok || strings.TrimSpace(loc) == "" {
		return "", fmt.Errorf("%s: %w", name, ErrUnknownTable)
	}
	return loc, nil
}

// FromMatrix turns a header row plus data rows into Rows. Blank rows are
// skipped and short rows are padded with "".
func FromMatrix(values [][]string) ([]Row, error) {
	if len(values) == 0 {
		return nil, errors.New("missing header row")
	}
	header := make([]string, len(values[0]))
	for i, h := range values[0] {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	rows := make([]Row, 0, len(values)-1)
	for _, rec := range values[1:] {
		if blank(rec) {
			continue
		}
		row := make(Row, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Package storage keeps a snapshot of a loaded dataset in SQLite so it can
// be served without re-reading the original sources.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"salesengine/internal/core"
	"salesengine/internal/log"
	"salesengine/internal/repository"
)

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Debug("Schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// tables in dependency order; deletes run in reverse.
var tables = []string{"merchants", "items", "invoices", "invoice_items", "transactions", "customers"}

// Import replaces the stored snapshot with recs in a single transaction.
// Each row keeps its position in recs as seq. Rows repeating an id already
// written are ignored.
func (r *SQLiteRepository) Import(ctx context.Context, recs repository.Records) (err error) {
	start := time.Now()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i := len(tables) - 1; i >= 0; i-- {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+tables[i]); err != nil {
			return fmt.Errorf("clear %s: %w", tables[i], err)
		}
	}

	if err = insertAll(ctx, tx, "merchants",
		`INSERT INTO merchants (id, name, created_at, updated_at, seq) VALUES (?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		recs.Merchants, func(m core.Merchant) []any {
			return []any{m.ID, m.Name, formatTime(m.CreatedAt), formatTime(m.UpdatedAt)}
		}); err != nil {
		return err
	}
	if err = insertAll(ctx, tx, "items",
		`INSERT INTO items (id, name, description, unit_price_cents, merchant_id, created_at, updated_at, seq) VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		recs.Items, func(it core.Item) []any {
			return []any{it.ID, it.Name, it.Description, it.UnitPrice.Cents, it.MerchantID, formatTime(it.CreatedAt), formatTime(it.UpdatedAt)}
		}); err != nil {
		return err
	}
	if err = insertAll(ctx, tx, "invoices",
		`INSERT INTO invoices (id, customer_id, merchant_id, status, created_at, updated_at, seq) VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		recs.Invoices, func(inv core.Invoice) []any {
			return []any{inv.ID, inv.CustomerID, inv.MerchantID, string(inv.Status), formatTime(inv.CreatedAt), formatTime(inv.UpdatedAt)}
		}); err != nil {
		return err
	}
	if err = insertAll(ctx, tx, "invoice_items",
		`INSERT INTO invoice_items (id, item_id, invoice_id, quantity, unit_price_cents, created_at, updated_at, seq) VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		recs.InvoiceItems, func(ii core.InvoiceItem) []any {
			return []any{ii.ID, ii.ItemID, ii.InvoiceID, ii.Quantity, ii.UnitPrice.Cents, formatTime(ii.CreatedAt), formatTime(ii.UpdatedAt)}
		}); err != nil {
		return err
	}
	if err = insertAll(ctx, tx, "transactions",
		`INSERT INTO transactions (id, invoice_id, credit_card_number, credit_card_expiration_date, result, created_at, updated_at, seq) VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		recs.Transactions, func(t core.Transaction) []any {
			return []any{t.ID, t.InvoiceID, t.CreditCardNumber, t.CreditCardExpirationDate, string(t.Result), formatTime(t.CreatedAt), formatTime(t.UpdatedAt)}
		}); err != nil {
		return err
	}
	if err = insertAll(ctx, tx, "customers",
		`INSERT INTO customers (id, first_name, last_name, created_at, updated_at, seq) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		recs.Customers, func(c core.Customer) []any {
			return []any{c.ID, c.FirstName, c.LastName, formatTime(c.CreatedAt), formatTime(c.UpdatedAt)}
		}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	args := []any{log.FieldOperation, log.OpImport, log.FieldDuration, time.Since(start).Milliseconds()}
	for table, n := range recs.Counts() {
		args = append(args, table, n)
	}
	r.logger.InfoContext(ctx, "Dataset imported to SQLite", args...)
	return nil
}

func insertAll[T any](ctx context.Context, tx *sql.Tx, table, query string, rows []T, args func(T) []any) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", table, err)
	}
	defer stmt.Close()
	for seq, row := range rows {
		if _, err := stmt.ExecContext(ctx, append(args(row), seq)...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	return nil
}

// Records reads the whole snapshot back, each table in the order it was
// imported.
func (r *SQLiteRepository) Records(ctx context.Context) (repository.Records, error) {
	var (
		recs repository.Records
		err  error
	)
	if recs.Merchants, err = queryAll(ctx, r.db, "merchants",
		`SELECT id, name, created_at, updated_at FROM merchants ORDER BY seq, id`,
		func(s scanner) (m core.Merchant, err error) {
			var created, updated string
			if err = s.Scan(&m.ID, &m.Name, &created, &updated); err != nil {
				return m, err
			}
			m.CreatedAt, m.UpdatedAt, err = parseTimes(created, updated)
			return m, err
		}); err != nil {
		return recs, err
	}
	if recs.Items, err = queryAll(ctx, r.db, "items",
		`SELECT id, name, description, unit_price_cents, merchant_id, created_at, updated_at FROM items ORDER BY seq, id`,
		func(s scanner) (it core.Item, err error) {
			var created, updated string
			if err = s.Scan(&it.ID, &it.Name, &it.Description, &it.UnitPrice.Cents, &it.MerchantID, &created, &updated); err != nil {
				return it, err
			}
			it.CreatedAt, it.UpdatedAt, err = parseTimes(created, updated)
			return it, err
		}); err != nil {
		return recs, err
	}
	if recs.Invoices, err = queryAll(ctx, r.db, "invoices",
		`SELECT id, customer_id, merchant_id, status, created_at, updated_at FROM invoices ORDER BY seq, id`,
		func(s scanner) (inv core.Invoice, err error) {
			var status, created, updated string
			if err = s.Scan(&inv.ID, &inv.CustomerID, &inv.MerchantID, &status, &created, &updated); err != nil {
				return inv, err
			}
			if inv.Status, err = core.ParseInvoiceStatus(status); err != nil {
				return inv, err
			}
			inv.CreatedAt, inv.UpdatedAt, err = parseTimes(created, updated)
			return inv, err
		}); err != nil {
		return recs, err
	}
	if recs.InvoiceItems, err = queryAll(ctx, r.db, "invoice_items",
		`SELECT id, item_id, invoice_id, quantity, unit_price_cents, created_at, updated_at FROM invoice_items ORDER BY seq, id`,
		func(s scanner) (ii core.InvoiceItem, err error) {
			var created, updated string
			if err = s.Scan(&ii.ID, &ii.ItemID, &ii.InvoiceID, &ii.Quantity, &ii.UnitPrice.Cents, &created, &updated); err != nil {
				return ii, err
			}
			ii.CreatedAt, ii.UpdatedAt, err = parseTimes(created, updated)
			return ii, err
		}); err != nil {
		return recs, err
	}
	if recs.Transactions, err = queryAll(ctx, r.db, "transactions",
		`SELECT id, invoice_id, credit_card_number, credit_card_expiration_date, result, created_at, updated_at FROM transactions ORDER BY seq, id`,
		func(s scanner) (t core.Transaction, err error) {
			var result, created, updated string
			if err = s.Scan(&t.ID, &t.InvoiceID, &t.CreditCardNumber, &t.CreditCardExpirationDate, &result, &created, &updated); err != nil {
				return t, err
			}
			if t.Result, err = core.ParseTransactionResult(result); err != nil {
				return t, err
			}
			t.CreatedAt, t.UpdatedAt, err = parseTimes(created, updated)
			return t, err
		}); err != nil {
		return recs, err
	}
	if recs.Customers, err = queryAll(ctx, r.db, "customers",
		`SELECT id, first_name, last_name, created_at, updated_at FROM customers ORDER BY seq, id`,
		func(s scanner) (c core.Customer, err error) {
			var created, updated string
			if err = s.Scan(&c.ID, &c.FirstName, &c.LastName, &created, &updated); err != nil {
				return c, err
			}
			c.CreatedAt, c.UpdatedAt, err = parseTimes(created, updated)
			return c, err
		}); err != nil {
		return recs, err
	}

	r.logger.DebugContext(ctx, "Dataset read from SQLite", log.FieldOperation, log.OpLoad)
	return recs, nil
}

// Dataset reads the snapshot into an in-memory Dataset.
func (r *SQLiteRepository) Dataset(ctx context.Context) (*repository.Dataset, error) {
	recs, err := r.Records(ctx)
	if err != nil {
		return nil, err
	}
	return repository.NewDataset(recs), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func queryAll[T any](ctx context.Context, db *sql.DB, table, query string, scan func(scanner) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", s, core.ErrInvalidDate)
	}
	return t, nil
}

func parseTimes(created, updated string) (time.Time, time.Time, error) {
	c, err := parseTime(created)
	if err != nil {
		return c, time.Time{}, err
	}
	u, err := parseTime(updated)
	return c, u, err
}

// Package loader turns raw source tables into a Dataset.
package loader

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"salesengine/internal/core"
	"salesengine/internal/log"
	"salesengine/internal/repository"
	"salesengine/internal/sources"
)

// ErrMalformedRow is wrapped by every conversion failure.
var ErrMalformedRow = errors.New("malformed row")

// timestampLayouts are tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	core.DateLayout,
}

// Load reads and converts all six tables.
func Load(ctx context.Context, src sources.RowSource, logger *log.Logger) (*repository.Dataset, error) {
	records, err := LoadRecords(ctx, src, logger)
	if err != nil {
		return nil, err
	}
	return repository.NewDataset(records), nil
}

// LoadRecords reads the tables concurrently and converts them in place.
// The first failing table cancels the rest.
func LoadRecords(ctx context.Context, src sources.RowSource, logger *log.Logger) (repository.Records, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentLoader)
	start := time.Now()

	var r repository.Records
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { r.Merchants, err = loadTable(ctx, src, sources.Merchants, parseMerchant); return })
	g.Go(func() (err error) { r.Items, err = loadTable(ctx, src, sources.Items, parseItem); return })
	g.Go(func() (err error) { r.Invoices, err = loadTable(ctx, src, sources.Invoices, parseInvoice); return })
	g.Go(func() (err error) {
		r.InvoiceItems, err = loadTable(ctx, src, sources.InvoiceItems, parseInvoiceItem)
		return
	})
	g.Go(func() (err error) {
		r.Transactions, err = loadTable(ctx, src, sources.Transactions, parseTransaction)
		return
	})
	g.Go(func() (err error) { r.Customers, err = loadTable(ctx, src, sources.Customers, parseCustomer); return })
	if err := g.Wait(); err != nil {
		logger.Error("Dataset load failed",
			log.FieldOperation, log.OpLoad,
			log.FieldError, err.Error())
		return repository.Records{}, err
	}

	args := []any{log.FieldOperation, log.OpLoad, log.FieldDuration, time.Since(start).Milliseconds()}
	for table, n := range r.Counts() {
		args = append(args, table, n)
	}
	logger.Info("Dataset loaded", args...)
	return r, nil
}

func loadTable[T any](ctx context.Context, src sources.RowSource, name string, parse func(*fields) T) ([]T, error) {
	rows, err := src.Rows(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	out := make([]T, 0, len(rows))
	for i, row := range rows {
		f := &fields{row: row}
		v := parse(f)
		if f.err != nil {
			// Line 1 is the header.
			return nil, fmt.Errorf("%s line %d: %w", name, i+2, f.err)
		}
		out = append(out, v)
	}
	return out, nil
}

// fields reads typed columns from a row, keeping the first failure.
type fields struct {
	row sources.Row
	err error
}

func (f *fields) fail(column, value string, err error) {
	if f.err == nil {
		f.err = fmt.Errorf("%w: column %s=%q: %w", ErrMalformedRow, column, value, err)
	}
}

func (f *fields) str(column string) string {
	return f.row.Get(column)
}

func (f *fields) id(column string) int64 {
	v := f.str(column)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		f.fail(column, v, err)
		return 0
	}
	return n
}

func (f *fields) money(column string) core.Money {
	v := f.str(column)
	m, err := core.ParseCents(v)
	if err != nil {
		f.fail(column, v, err)
	}
	return m
}

// time accepts an empty value as the zero time.
func (f *fields) time(column string) time.Time {
	v := f.str(column)
	if v == "" {
		return time.Time{}
	}
	t, err := parseTimestamp(v)
	if err != nil {
		f.fail(column, v, err)
	}
	return t
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, core.ErrInvalidDate
}

func parseMerchant(f *fields) core.Merchant {
	return core.Merchant{
		ID:        f.id("id"),
		Name:      f.str("name"),
		CreatedAt: f.time("created_at"),
		UpdatedAt: f.time("updated_at"),
	}
}

func parseItem(f *fields) core.Item {
	return core.Item{
		ID:          f.id("id"),
		Name:        f.str("name"),
		Description: f.str("description"),
		UnitPrice:   f.money("unit_price"),
		MerchantID:  f.id("merchant_id"),
		CreatedAt:   f.time("created_at"),
		UpdatedAt:   f.time("updated_at"),
	}
}

func parseInvoice(f *fields) core.Invoice {
	inv := core.Invoice{
		ID:         f.id("id"),
		CustomerID: f.id("customer_id"),
		MerchantID: f.id("merchant_id"),
		CreatedAt:  f.time("created_at"),
		UpdatedAt:  f.time("updated_at"),
	}
	raw := f.str("status")
	status, err := core.ParseInvoiceStatus(raw)
	if err != nil {
		f.fail("status", raw, err)
	}
	inv.Status = status
	return inv
}

func parseInvoiceItem(f *fields) core.InvoiceItem {
	ii := core.InvoiceItem{
		ID:        f.id("id"),
		ItemID:    f.id("item_id"),
		InvoiceID: f.id("invoice_id"),
		Quantity:  f.id("quantity"),
		UnitPrice: f.money("unit_price"),
		CreatedAt: f.time("created_at"),
		UpdatedAt: f.time("updated_at"),
	}
	if f.err == nil {
		f.validate(ii)
	}
	return ii
}

// validate reports an invalid line item against the column that failed.
func (f *fields) validate(ii core.InvoiceItem) {
	err := ii.Validate()
	switch {
	case err == nil:
	case errors.Is(err, core.ErrInvalidAmount):
		f.fail("unit_price", ii.UnitPrice.String(), err)
	default:
		f.fail("quantity", strconv.FormatInt(ii.Quantity, 10), err)
	}
}

func parseTransaction(f *fields) core.Transaction {
	tx := core.Transaction{
		ID:                       f.id("id"),
		InvoiceID:                f.id("invoice_id"),
		CreditCardNumber:         f.str("credit_card_number"),
		CreditCardExpirationDate: f.str("credit_card_expiration_date"),
		CreatedAt:                f.time("created_at"),
		UpdatedAt:                f.time("updated_at"),
	}
	raw := f.str("result")
	result, err := core.ParseTransactionResult(raw)
	if err != nil {
		f.fail("result", raw, err)
	}
	tx.Result = result
	return tx
}

func parseCustomer(f *fields) core.Customer {
	return core.Customer{
		ID:        f.id("id"),
		FirstName: f.str("first_name"),
		LastName:  f.str("last_name"),
		CreatedAt: f.time("created_at"),
		UpdatedAt: f.time("updated_at"),
	}
}

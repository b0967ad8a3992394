package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"salesengine/internal/core"
	"salesengine/internal/repository"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "sales.db"), nil)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sample() repository.Records {
	created := time.Date(2012, 3, 27, 14, 54, 9, 0, time.UTC)
	return repository.Records{
		Merchants: []core.Merchant{
			{ID: 2, Name: "Candisart", CreatedAt: created},
			{ID: 1, Name: "Shopin1901", CreatedAt: created, UpdatedAt: created},
			{ID: 1, Name: "Duplicate"},
		},
		Items: []core.Item{
			{ID: 10, Name: "Frames", Description: "Glitter", UnitPrice: core.Money{Cents: 1350}, MerchantID: 1, CreatedAt: created},
		},
		Invoices: []core.Invoice{
			{ID: 100, CustomerID: 7, MerchantID: 1, Status: core.StatusShipped, CreatedAt: created},
		},
		InvoiceItems: []core.InvoiceItem{
			{ID: 1000, ItemID: 10, InvoiceID: 100, Quantity: 3, UnitPrice: core.Money{Cents: 1300}},
		},
		Transactions: []core.Transaction{
			{ID: 5, InvoiceID: 100, CreditCardNumber: "4068631943231473", CreditCardExpirationDate: "0217", Result: core.ResultSuccess},
		},
		Customers: []core.Customer{
			{ID: 7, FirstName: "Joey", LastName: "Ondricka"},
		},
	}
}

func TestImportAndRecords(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Import(ctx, sample()); err != nil {
		t.Fatalf("import: %v", err)
	}
	recs, err := repo.Records(ctx)
	if err != nil {
		t.Fatalf("records: %v", err)
	}

	if len(recs.Merchants) != 2 || recs.Merchants[0].ID != 2 || recs.Merchants[1].Name != "Shopin1901" {
		t.Fatalf("expected merchants in import order with first duplicate kept, got %+v", recs.Merchants)
	}
	if !recs.Merchants[1].CreatedAt.Equal(time.Date(2012, 3, 27, 14, 54, 9, 0, time.UTC)) {
		t.Fatalf("timestamp not preserved: %v", recs.Merchants[1].CreatedAt)
	}
	if !recs.Merchants[0].UpdatedAt.IsZero() {
		t.Fatalf("expected zero updated_at, got %v", recs.Merchants[0].UpdatedAt)
	}
	if recs.Items[0].UnitPrice.Cents != 1350 || recs.Invoices[0].Status != core.StatusShipped {
		t.Fatalf("unexpected item/invoice %+v %+v", recs.Items[0], recs.Invoices[0])
	}
	if recs.InvoiceItems[0].Quantity != 3 || recs.Transactions[0].Result != core.ResultSuccess {
		t.Fatalf("unexpected line/transaction %+v %+v", recs.InvoiceItems[0], recs.Transactions[0])
	}
	if recs.Customers[0].Name() != "Joey Ondricka" {
		t.Fatalf("unexpected customer %+v", recs.Customers[0])
	}
}

func TestImportReplacesSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Import(ctx, sample()); err != nil {
		t.Fatalf("first import: %v", err)
	}
	next := repository.Records{Merchants: []core.Merchant{{ID: 3, Name: "Only"}}}
	if err := repo.Import(ctx, next); err != nil {
		t.Fatalf("second import: %v", err)
	}
	ds, err := repo.Dataset(ctx)
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	counts := ds.Records().Counts()
	if counts["merchants"] != 1 || counts["items"] != 0 || counts["invoices"] != 0 {
		t.Fatalf("expected previous snapshot to be replaced, got %v", counts)
	}
}

func TestImportRollsBackOnFailure(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Import(ctx, sample()); err != nil {
		t.Fatalf("import: %v", err)
	}
	bad := sample()
	bad.InvoiceItems[0].Quantity = -1
	if err := repo.Import(ctx, bad); err == nil {
		t.Fatal("expected check constraint failure")
	}
	recs, err := repo.Records(ctx)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(recs.InvoiceItems) != 1 || recs.InvoiceItems[0].Quantity != 3 {
		t.Fatalf("expected rollback to keep the previous snapshot, got %+v", recs.InvoiceItems)
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.db")
	for i := 0; i < 2; i++ {
		version, err := RunMigrations(path)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if version != 2 {
			t.Fatalf("expected schema version 2, got %d", version)
		}
	}
}

func TestRecordsKeepImportOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	recs := sample()
	recs.Invoices = []core.Invoice{
		{ID: 300, CustomerID: 7, MerchantID: 2, Status: core.StatusPending},
		{ID: 100, CustomerID: 7, MerchantID: 1, Status: core.StatusShipped},
		{ID: 200, CustomerID: 7, MerchantID: 1, Status: core.StatusReturned},
	}
	if err := repo.Import(ctx, recs); err != nil {
		t.Fatalf("import: %v", err)
	}
	got, err := repo.Records(ctx)
	if err != nil {
		t.Fatalf("records: %v", err)
	}

	want := []int64{300, 100, 200}
	if len(got.Invoices) != len(want) {
		t.Fatalf("expected %d invoices, got %+v", len(want), got.Invoices)
	}
	for i, id := range want {
		if got.Invoices[i].ID != id {
			t.Fatalf("invoice %d: expected id %d, got %d", i, id, got.Invoices[i].ID)
		}
	}
	if got.Merchants[0].ID != 2 || got.Merchants[1].ID != 1 {
		t.Fatalf("expected merchants in import order, got %+v", got.Merchants)
	}
}

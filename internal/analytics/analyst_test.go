package analytics

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"salesengine/internal/core"
	"salesengine/internal/repository"
)

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func cents(c int64) core.Money { return core.Money{Cents: c} }

// salesFixture has two merchants. Merchant 1 owns two paid invoices worth
// 160.00; merchant 2 owns two unpaid invoices. Three invoices fall on a
// Monday and one on a Tuesday.
func salesFixture() repository.Records {
	return repository.Records{
		Merchants: []core.Merchant{
			{ID: 1, Name: "First", CreatedAt: at(2020, time.March, 5)},
			{ID: 2, Name: "Second", CreatedAt: at(2020, time.June, 1)},
		},
		Items: []core.Item{
			{ID: 11, Name: "Lamp", UnitPrice: cents(5000), MerchantID: 1},
			{ID: 12, Name: "Bulb", UnitPrice: cents(1000), MerchantID: 1},
			{ID: 21, Name: "Vase", UnitPrice: cents(2000), MerchantID: 2},
		},
		Invoices: []core.Invoice{
			{ID: 100, CustomerID: 1, MerchantID: 1, Status: core.StatusShipped, CreatedAt: at(2024, time.January, 1)},
			{ID: 101, CustomerID: 1, MerchantID: 1, Status: core.StatusShipped, CreatedAt: at(2024, time.January, 8)},
			{ID: 200, CustomerID: 2, MerchantID: 2, Status: core.StatusPending, CreatedAt: at(2024, time.January, 1)},
			{ID: 201, CustomerID: 2, MerchantID: 2, Status: core.StatusReturned, CreatedAt: at(2024, time.January, 2)},
		},
		InvoiceItems: []core.InvoiceItem{
			{ID: 1, InvoiceID: 100, ItemID: 11, Quantity: 2, UnitPrice: cents(5000)},
			{ID: 2, InvoiceID: 100, ItemID: 12, Quantity: 3, UnitPrice: cents(1000)},
			{ID: 3, InvoiceID: 101, ItemID: 12, Quantity: 3, UnitPrice: cents(1000)},
			{ID: 4, InvoiceID: 200, ItemID: 21, Quantity: 1, UnitPrice: cents(2000)},
		},
		Transactions: []core.Transaction{
			{ID: 1, InvoiceID: 100, Result: core.ResultSuccess},
			{ID: 2, InvoiceID: 101, Result: core.ResultSuccess},
			{ID: 3, InvoiceID: 200, Result: core.ResultFailed},
		},
		Customers: []core.Customer{
			{ID: 1, FirstName: "Joey", LastName: "Ondricka"},
			{ID: 2, FirstName: "Cecelia", LastName: "Osinski"},
		},
	}
}

func newAnalyst(r repository.Records) *Analyst {
	return New(repository.NewDataset(r))
}

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMetricsAreComputedOnce(t *testing.T) {
	a := newAnalyst(salesFixture())

	for i := 0; i < 3; i++ {
		if _, err := a.AverageItemsPerMerchantStandardDeviation(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := a.MerchantsWithHighItemCount(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	for _, metric := range []string{
		"average_items_per_merchant",
		"average_items_per_merchant_standard_deviation",
		"merchants_with_high_item_count",
		"find_items",
	} {
		if got := a.Memo().Computations(metric); got != 1 {
			t.Errorf("%s computed %d times, want 1", metric, got)
		}
	}
	if got := a.Memo().Computations("items_per_merchant"); got != 2 {
		t.Errorf("items_per_merchant computed %d times, want once per merchant", got)
	}
}

func TestFailuresAreMemoized(t *testing.T) {
	r := salesFixture()
	r.Merchants = r.Merchants[:1]
	a := newAnalyst(r)

	for i := 0; i < 2; i++ {
		if _, err := a.AverageItemsPerMerchantStandardDeviation(); !errors.Is(err, core.ErrDivisionByZero) {
			t.Fatalf("expected ErrDivisionByZero, got %v", err)
		}
	}
	if got := a.Memo().Computations("average_items_per_merchant_standard_deviation"); got != 1 {
		t.Fatalf("failed metric computed %d times, want 1", got)
	}
}

func TestConcurrentCallersShareResults(t *testing.T) {
	a := newAnalyst(salesFixture())

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.Summary(); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := a.Memo().Computations("summary"); got != 1 {
		t.Fatalf("summary computed %d times, want 1", got)
	}
}

func TestIsPaidInFull(t *testing.T) {
	a := newAnalyst(salesFixture())

	tests := []struct {
		name    string
		invoice int64
		want    bool
	}{
		{"all transactions succeeded", 100, true},
		{"failed transaction", 200, false},
		{"no transactions", 201, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, ok := a.Dataset().Invoices.FindByID(tt.invoice)
			if !ok {
				t.Fatalf("invoice %d missing from fixture", tt.invoice)
			}
			if got := a.IsPaidInFull(inv); got != tt.want {
				t.Fatalf("IsPaidInFull(%d) = %v, want %v", tt.invoice, got, tt.want)
			}
		})
	}

	if got := len(a.PaidInvoices()); got != 2 {
		t.Errorf("expected 2 paid invoices, got %d", got)
	}
	if got := len(a.UnpaidInvoices()); got != 2 {
		t.Errorf("expected 2 unpaid invoices, got %d", got)
	}
}

func TestSummary(t *testing.T) {
	a := newAnalyst(salesFixture())

	r, err := a.Summary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Counts["invoices"] != 4 || r.Counts["merchants"] != 2 {
		t.Errorf("unexpected counts %v", r.Counts)
	}
	if !almost(r.AverageItemsPerMerchant, 1.5) || !almost(r.AverageItemsPerMerchantStandardDeviation, 0.71) {
		t.Errorf("unexpected item stats %v / %v", r.AverageItemsPerMerchant, r.AverageItemsPerMerchantStandardDeviation)
	}
	if !almost(r.InvoiceStatus[core.StatusShipped], 50) {
		t.Errorf("unexpected shipped share %v", r.InvoiceStatus[core.StatusShipped])
	}
	if len(r.TopRevenueEarners) != 2 || r.TopRevenueEarners[0].MerchantID != 1 {
		t.Errorf("unexpected earners %+v", r.TopRevenueEarners)
	}
}

func TestSummaryFailsAsAWhole(t *testing.T) {
	r := salesFixture()
	r.Merchants = r.Merchants[:1]
	a := newAnalyst(r)

	if _, err := a.Summary(); !errors.Is(err, core.ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestSummaryKeepsConfiguredTopEarners(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"one", 1, 1},
		{"default", 0, 2},
		{"larger than dataset", 50, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(repository.NewDataset(salesFixture()), WithTopEarners(tt.n))
			r, err := a.Summary()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(r.TopRevenueEarners) != tt.want {
				t.Fatalf("expected %d earners, got %+v", tt.want, r.TopRevenueEarners)
			}
			if r.TopRevenueEarners[0].MerchantID != 1 {
				t.Errorf("expected merchant 1 first, got %+v", r.TopRevenueEarners)
			}
		})
	}
}

func TestReturnedSlicesAreCopies(t *testing.T) {
	a := newAnalyst(salesFixture())

	a.MerchantsByRevenue()[0].Revenue = cents(-1)
	a.MerchantIDs()[0] = 999
	a.PaidInvoices()[0].ID = 999
	a.InvoiceTotalsByDay()[0].Count = 999

	if got := a.MerchantsByRevenue()[0]; got.MerchantID != 1 || got.Revenue != cents(16000) {
		t.Errorf("MerchantsByRevenue changed by caller: %+v", got)
	}
	if got := a.MerchantIDs(); got[0] != 1 || got[1] != 2 {
		t.Errorf("MerchantIDs changed by caller: %v", got)
	}
	if got := a.ItemsPerMerchantAll(); got[0] != 2 || got[1] != 1 {
		t.Errorf("ItemsPerMerchantAll misaligned: %v", got)
	}
	if got := a.MerchantsByItemCount(); got[0] != (MerchantCount{MerchantID: 1, Count: 2}) {
		t.Errorf("MerchantsByItemCount misaligned: %+v", got)
	}
	if got := a.PaidInvoices()[0].ID; got != 100 {
		t.Errorf("PaidInvoices changed by caller: %d", got)
	}
	if got := a.InvoiceTotalsByDay()[0].Count; got != 3 {
		t.Errorf("InvoiceTotalsByDay changed by caller: %d", got)
	}
}

func TestSummaryReturnsCopies(t *testing.T) {
	a := newAnalyst(salesFixture())

	r, err := a.Summary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Counts["invoices"] = 0
	r.TopRevenueEarners[0].MerchantID = 999
	r.InvoiceTotalsByDay[0].Count = 0

	again, err := a.Summary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Counts["invoices"] != 4 {
		t.Errorf("counts changed by caller: %v", again.Counts)
	}
	if again.TopRevenueEarners[0].MerchantID != 1 {
		t.Errorf("earners changed by caller: %+v", again.TopRevenueEarners)
	}
	if again.InvoiceTotalsByDay[0].Count != 3 {
		t.Errorf("weekday buckets changed by caller: %+v", again.InvoiceTotalsByDay)
	}
}

package analytics

import (
	"errors"
	"testing"

	"salesengine/internal/core"
	"salesengine/internal/repository"
)

func merchantsWithItems(counts ...int) repository.Records {
	var r repository.Records
	var itemID int64
	for i, n := range counts {
		id := int64(i + 1)
		r.Merchants = append(r.Merchants, core.Merchant{ID: id, Name: "m"})
		for j := 0; j < n; j++ {
			itemID++
			r.Items = append(r.Items, core.Item{ID: itemID, MerchantID: id, UnitPrice: cents(1000)})
		}
	}
	return r
}

func TestItemsPerMerchantMatchesItemCount(t *testing.T) {
	a := newAnalyst(salesFixture())

	for _, id := range a.MerchantIDs() {
		want := len(a.Dataset().Items.FindAllByMerchantID(id))
		if got := a.ItemsPerMerchant(id); got != want {
			t.Errorf("merchant %d: got %d items, want %d", id, got, want)
		}
	}
	counts := a.MerchantsByItemCount()
	if len(counts) != 2 || counts[0] != (MerchantCount{1, 2}) || counts[1] != (MerchantCount{2, 1}) {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestItemCountStatistics(t *testing.T) {
	tests := []struct {
		name    string
		counts  []int
		avg     float64
		sd      float64
		high    []int64
		wantErr error
	}{
		{name: "two merchants", counts: []int{3, 5}, avg: 4, sd: 1.41},
		{name: "outlier", counts: []int{1, 1, 1, 1, 10}, avg: 2.8, sd: 4.02, high: []int64{5}},
		{name: "single merchant", counts: []int{4}, avg: 4, wantErr: core.ErrDivisionByZero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAnalyst(merchantsWithItems(tt.counts...))

			avg, err := a.AverageItemsPerMerchant()
			if err != nil || !almost(avg, tt.avg) {
				t.Fatalf("average = %v, %v; want %v", avg, err, tt.avg)
			}
			sd, err := a.AverageItemsPerMerchantStandardDeviation()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if _, err := a.MerchantsWithHighItemCount(); !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected dependent metric to fail with %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || !almost(sd, tt.sd) {
				t.Fatalf("std dev = %v, %v; want %v", sd, err, tt.sd)
			}
			high, err := a.MerchantsWithHighItemCount()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(high) != len(tt.high) {
				t.Fatalf("got %d high merchants, want %v", len(high), tt.high)
			}
			for i, m := range high {
				if m.ID != tt.high[i] {
					t.Errorf("high[%d] = %d, want %d", i, m.ID, tt.high[i])
				}
			}
		})
	}
}

func TestAverageItemsPerMerchantWithoutMerchants(t *testing.T) {
	a := newAnalyst(repository.Records{})
	if _, err := a.AverageItemsPerMerchant(); !errors.Is(err, core.ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestInvoiceCountStatistics(t *testing.T) {
	a := newAnalyst(salesFixture())

	avg, err := a.AverageInvoicesPerMerchant()
	if err != nil || !almost(avg, 2) {
		t.Fatalf("average = %v, %v", avg, err)
	}
	sd, err := a.AverageInvoicesPerMerchantStandardDeviation()
	if err != nil || sd != 0 {
		t.Fatalf("std dev = %v, %v", sd, err)
	}
	top, err := a.TopMerchantsByInvoiceCount()
	if err != nil || len(top) != 2 {
		t.Fatalf("top = %v, %v", top, err)
	}
	bottom, err := a.BottomMerchantsByInvoiceCount()
	if err != nil || len(bottom) != 2 {
		t.Fatalf("bottom = %v, %v", bottom, err)
	}
}

func TestMerchantsByRevenue(t *testing.T) {
	a := newAnalyst(salesFixture())

	ranked := a.MerchantsByRevenue()
	want := []MerchantRevenue{
		{MerchantID: 1, Revenue: cents(16000)},
		{MerchantID: 2, Revenue: cents(0)},
	}
	if len(ranked) != len(want) {
		t.Fatalf("expected one entry per merchant, got %+v", ranked)
	}
	for i := range want {
		if ranked[i] != want[i] {
			t.Errorf("ranked[%d] = %+v, want %+v", i, ranked[i], want[i])
		}
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i-1].Revenue.Cents < ranked[i].Revenue.Cents {
			t.Fatalf("ranking not descending: %+v", ranked)
		}
	}

	if got := a.TopRevenueEarners(1); len(got) != 1 || got[0].Name != "First" {
		t.Errorf("unexpected top earner %+v", got)
	}
	if got := a.TopRevenueEarners(0); len(got) != 2 {
		t.Errorf("default earners should be capped by merchant count, got %d", len(got))
	}
	if got := a.RevenueByMerchant(1); got != cents(16000) {
		t.Errorf("RevenueByMerchant(1) = %v", got)
	}
	if got := a.RevenueByMerchant(2); !got.IsZero() {
		t.Errorf("RevenueByMerchant(2) = %v", got)
	}
}

func TestMerchantsByRevenueTiesKeepEncounterOrder(t *testing.T) {
	r := salesFixture()
	r.Merchants = append(r.Merchants, core.Merchant{ID: 3, Name: "Third"})
	a := newAnalyst(r)

	ranked := a.MerchantsByRevenue()
	if len(ranked) != 3 || ranked[1].MerchantID != 2 || ranked[2].MerchantID != 3 {
		t.Fatalf("unexpected tie order %+v", ranked)
	}
}

func TestAverageItemPriceForMerchant(t *testing.T) {
	a := newAnalyst(salesFixture())

	tests := []struct {
		id      int64
		want    string
		wantErr error
	}{
		{id: 1, want: "30.00"},
		{id: 2, want: "20.00"},
		{id: 99, wantErr: core.ErrDivisionByZero},
	}
	for _, tt := range tests {
		got, err := a.AverageItemPriceForMerchant(tt.id)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("merchant %d: expected %v, got %v", tt.id, tt.wantErr, err)
			}
			continue
		}
		if err != nil || got.StringFixed(2) != tt.want {
			t.Errorf("merchant %d: got %s, %v; want %s", tt.id, got.StringFixed(2), err, tt.want)
		}
	}

	avg, err := a.AverageAveragePricePerMerchant()
	if err != nil || avg.StringFixed(2) != "25.00" {
		t.Fatalf("average of averages = %s, %v", avg.StringFixed(2), err)
	}
}

func TestBestItemForMerchant(t *testing.T) {
	a := newAnalyst(salesFixture())

	item, ok := a.BestItemForMerchant(1)
	if !ok || item.ID != 11 {
		t.Fatalf("best item = %+v, %v; want item 11", item, ok)
	}
	if _, ok := a.BestItemForMerchant(2); ok {
		t.Fatal("merchant without paid sales should have no best item")
	}
}

func TestSupplementaryMerchantQueries(t *testing.T) {
	a := newAnalyst(salesFixture())

	if got := a.MerchantsWithPendingInvoices(); len(got) != 1 || got[0].ID != 2 {
		t.Errorf("pending = %+v", got)
	}
	if got := a.MerchantsWithOnlyOneItem(); len(got) != 1 || got[0].ID != 2 {
		t.Errorf("only one item = %+v", got)
	}
	june, err := a.MerchantsWithOnlyOneItemRegisteredInMonth("June")
	if err != nil || len(june) != 1 {
		t.Errorf("June = %+v, %v", june, err)
	}
	march, err := a.MerchantsWithOnlyOneItemRegisteredInMonth("march")
	if err != nil || len(march) != 0 {
		t.Errorf("March = %+v, %v", march, err)
	}
	if _, err := a.MerchantsWithOnlyOneItemRegisteredInMonth("Smarch"); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("expected ErrInvalidMonth, got %v", err)
	}
}

package analytics

import (
	"errors"
	"testing"
	"time"

	"salesengine/internal/core"
	"salesengine/internal/repository"
)

func TestInvoiceStatus(t *testing.T) {
	a := newAnalyst(salesFixture())

	tests := []struct {
		tag     string
		want    float64
		wantErr error
	}{
		{tag: "shipped", want: 50},
		{tag: "pending", want: 25},
		{tag: "Returned", want: 25},
		{tag: "completed", want: 0},
		{tag: "lost", wantErr: core.ErrUnknownStatus},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := a.InvoiceStatusFor(tt.tag)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || !almost(got, tt.want) {
				t.Fatalf("got %v, %v; want %v", got, err, tt.want)
			}
		})
	}
}

func TestInvoiceStatusWithoutInvoices(t *testing.T) {
	a := newAnalyst(repository.Records{})
	if _, err := a.InvoiceStatus(core.StatusPending); !errors.Is(err, core.ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestTotalRevenueByDate(t *testing.T) {
	a := newAnalyst(salesFixture())

	tests := []struct {
		date string
		want int64
	}{
		{"2024-01-01", 15000},
		{"2024-01-08", 3000},
		{"2024-01-02", 0},
		{"1999-12-31", 0},
	}
	for _, tt := range tests {
		got, err := a.TotalRevenueByDateString(tt.date)
		if err != nil || got.Cents != tt.want {
			t.Errorf("%s: got %v, %v; want %d cents", tt.date, got, err, tt.want)
		}
	}
	if _, err := a.TotalRevenueByDateString("01/01/2024"); !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
	if got := a.TotalRevenueByDate(time.Date(2024, time.January, 1, 23, 0, 0, 0, time.UTC)); got.Cents != 15000 {
		t.Errorf("time of day should not matter, got %v", got)
	}
}

func TestWeekdayStatistics(t *testing.T) {
	a := newAnalyst(salesFixture())

	days := a.InvoiceTotalsByDay()
	want := []DayCount{{"Monday", 3}, {"Tuesday", 1}}
	if len(days) != len(want) {
		t.Fatalf("expected only weekdays that occur, got %+v", days)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("days[%d] = %+v, want %+v", i, days[i], want[i])
		}
	}

	avg, err := a.InvoicesPerDayAverage()
	if err != nil || !almost(avg, 2) {
		t.Fatalf("average = %v, %v", avg, err)
	}
	sd, err := a.WeekdayInvoiceStandardDeviation()
	if err != nil || !almost(sd, 1.41) {
		t.Fatalf("std dev = %v, %v", sd, err)
	}
	top, err := a.TopDaysByInvoiceCount()
	if err != nil || len(top) != 0 {
		t.Fatalf("top days = %v, %v", top, err)
	}
}

func TestTopDaysByInvoiceCount(t *testing.T) {
	var r repository.Records
	// 2024-01-01 is a Monday.
	perDay := []int{10, 2, 2, 2, 2, 2, 2}
	var id int64
	for offset, n := range perDay {
		for i := 0; i < n; i++ {
			id++
			r.Invoices = append(r.Invoices, core.Invoice{ID: id, MerchantID: 1, Status: core.StatusShipped, CreatedAt: at(2024, time.January, 1+offset)})
		}
	}
	a := newAnalyst(r)

	top, err := a.TopDaysByInvoiceCount()
	if err != nil || len(top) != 1 || top[0] != "Monday" {
		t.Fatalf("top days = %v, %v", top, err)
	}
}

package analytics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"salesengine/internal/cache"
	"salesengine/internal/core"
)

// DayCount is the number of invoices created on one weekday.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// IsPaidInFull reports whether the invoice has transactions and all of them
// succeeded.
func (a *Analyst) IsPaidInFull(inv core.Invoice) bool {
	return computeValue(a, cache.K("is_paid_in_full", inv.ID), func() bool {
		return a.ds.IsPaidInFull(inv)
	})
}

// PaidInvoices lists paid-in-full invoices in load order.
func (a *Analyst) PaidInvoices() []core.Invoice {
	return computeSlice(a, cache.K("valid_invoices"), func() []core.Invoice {
		var out []core.Invoice
		for _, inv := range a.ds.Invoices.All() {
			if a.IsPaidInFull(inv) {
				out = append(out, inv)
			}
		}
		return out
	})
}

func (a *Analyst) UnpaidInvoices() []core.Invoice {
	return computeSlice(a, cache.K("invalid_invoices"), func() []core.Invoice {
		var out []core.Invoice
		for _, inv := range a.ds.Invoices.All() {
			if !a.IsPaidInFull(inv) {
				out = append(out, inv)
			}
		}
		return out
	})
}

// InvoiceTotal is Σ quantity × unit price over the invoice's line items.
func (a *Analyst) InvoiceTotal(inv core.Invoice) core.Money {
	return computeValue(a, cache.K("invoice_total", inv.ID), func() core.Money {
		return a.ds.InvoiceTotal(inv)
	})
}

// InvoiceStatus is the share of invoices with the given status, as a
// percentage rounded to 2 places.
func (a *Analyst) InvoiceStatus(status core.InvoiceStatus) (float64, error) {
	return asFloat(compute(a, cache.K("invoice_status", status), func() (decimal.Decimal, error) {
		matching := a.ds.Invoices.FindAllByStatus(status)
		return percentage(len(matching), len(a.ds.Invoices.All()))
	}))
}

// InvoiceStatusFor parses tag before delegating to InvoiceStatus.
func (a *Analyst) InvoiceStatusFor(tag string) (float64, error) {
	status, err := core.ParseInvoiceStatus(tag)
	if err != nil {
		return 0, err
	}
	return a.InvoiceStatus(status)
}

// TotalRevenueByDate sums the totals of every invoice created on the
// calendar date of date, paid or not.
func (a *Analyst) TotalRevenueByDate(date time.Time) core.Money {
	return computeValue(a, cache.K("total_revenue_by_date", date.Format(core.DateLayout)), func() core.Money {
		var total core.Money
		for _, inv := range a.ds.Invoices.FindAllByCreatedDate(date) {
			total = total.Add(a.InvoiceTotal(inv))
		}
		return total
	})
}

// TotalRevenueByDateString parses a YYYY-MM-DD date first.
func (a *Analyst) TotalRevenueByDateString(s string) (core.Money, error) {
	date, err := core.ParseDate(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("revenue date %q: %w", s, err)
	}
	return a.TotalRevenueByDate(date), nil
}

// InvoiceTotalsByDay counts invoices per weekday. Only weekdays that occur
// are listed, in the order they are first seen.
func (a *Analyst) InvoiceTotalsByDay() []DayCount {
	return computeSlice(a, cache.K("invoice_totals_by_day"), func() []DayCount {
		index := make(map[time.Weekday]int)
		var out []DayCount
		for _, inv := range a.ds.Invoices.All() {
			day := inv.CreatedAt.Weekday()
			i, ok := index[day]
			if !ok {
				i = len(out)
				index[day] = i
				out = append(out, DayCount{Day: day.String()})
			}
			out[i].Count++
		}
		return out
	})
}

func dayCounts(days []DayCount) []decimal.Decimal {
	out := make([]decimal.Decimal, len(days))
	for i, d := range days {
		out[i] = decimal.NewFromInt(int64(d.Count))
	}
	return out
}

func (a *Analyst) invoicesPerDayAverage() (decimal.Decimal, error) {
	return compute(a, cache.K("invoices_per_day_average"), func() (decimal.Decimal, error) {
		return mean(dayCounts(a.InvoiceTotalsByDay()))
	})
}

// InvoicesPerDayAverage is the mean of the weekday buckets.
func (a *Analyst) InvoicesPerDayAverage() (float64, error) {
	return asFloat(a.invoicesPerDayAverage())
}

func (a *Analyst) weekdayStdDev() (decimal.Decimal, error) {
	return compute(a, cache.K("weekday_invoice_standard_deviation"), func() (decimal.Decimal, error) {
		avg, err := a.invoicesPerDayAverage()
		if err != nil {
			return decimal.Zero, err
		}
		return sampleStdDev(dayCounts(a.InvoiceTotalsByDay()), avg)
	})
}

func (a *Analyst) WeekdayInvoiceStandardDeviation() (float64, error) {
	return asFloat(a.weekdayStdDev())
}

// TopDaysByInvoiceCount returns weekday names whose count is at least one
// standard deviation above the mean.
func (a *Analyst) TopDaysByInvoiceCount() ([]string, error) {
	return computeSliceErr(a, cache.K("top_days_by_invoice_count"), func() ([]string, error) {
		avg, err := a.invoicesPerDayAverage()
		if err != nil {
			return nil, err
		}
		sd, err := a.weekdayStdDev()
		if err != nil {
			return nil, err
		}
		threshold := avg.Add(sd)
		var days []string
		for _, d := range a.InvoiceTotalsByDay() {
			if decimal.NewFromInt(int64(d.Count)).GreaterThanOrEqual(threshold) {
				days = append(days, d.Day)
			}
		}
		return days, nil
	})
}

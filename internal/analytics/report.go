package analytics

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"salesengine/internal/cache"
	"salesengine/internal/core"
)

// Report gathers the headline metrics of a dataset.
type Report struct {
	Counts map[string]int `json:"counts"`

	AverageItemsPerMerchant                  float64 `json:"average_items_per_merchant"`
	AverageItemsPerMerchantStandardDeviation float64 `json:"average_items_per_merchant_standard_deviation"`
	MerchantsWithHighItemCount               []int64 `json:"merchants_with_high_item_count"`

	AverageInvoicesPerMerchant                  float64 `json:"average_invoices_per_merchant"`
	AverageInvoicesPerMerchantStandardDeviation float64 `json:"average_invoices_per_merchant_standard_deviation"`
	TopMerchantsByInvoiceCount                  []int64 `json:"top_merchants_by_invoice_count"`
	BottomMerchantsByInvoiceCount               []int64 `json:"bottom_merchants_by_invoice_count"`

	AverageUnitPrice decimal.Decimal `json:"average_unit_price"`
	GoldenItems      []int64         `json:"golden_items"`

	InvoiceStatus         map[core.InvoiceStatus]float64 `json:"invoice_status"`
	InvoiceTotalsByDay    []DayCount                     `json:"invoice_totals_by_day"`
	TopDaysByInvoiceCount []string                       `json:"top_days_by_invoice_count"`

	TopRevenueEarners []MerchantRevenue `json:"top_revenue_earners"`
}

// Summary computes the Report. The first failing metric fails the whole
// report. TopRevenueEarners keeps the number set by WithTopEarners.
func (a *Analyst) Summary() (Report, error) {
	r, err := compute(a, cache.K("summary"), a.summary)
	return r.clone(), err
}

func (r Report) clone() Report {
	r.Counts = maps.Clone(r.Counts)
	r.MerchantsWithHighItemCount = slices.Clone(r.MerchantsWithHighItemCount)
	r.TopMerchantsByInvoiceCount = slices.Clone(r.TopMerchantsByInvoiceCount)
	r.BottomMerchantsByInvoiceCount = slices.Clone(r.BottomMerchantsByInvoiceCount)
	r.GoldenItems = slices.Clone(r.GoldenItems)
	r.InvoiceStatus = maps.Clone(r.InvoiceStatus)
	r.InvoiceTotalsByDay = slices.Clone(r.InvoiceTotalsByDay)
	r.TopDaysByInvoiceCount = slices.Clone(r.TopDaysByInvoiceCount)
	r.TopRevenueEarners = slices.Clone(r.TopRevenueEarners)
	return r
}

func (a *Analyst) summary() (Report, error) {
	var (
		r   Report
		err error
	)
	r.Counts = a.ds.Records().Counts()

	if r.AverageItemsPerMerchant, err = a.AverageItemsPerMerchant(); err != nil {
		return Report{}, err
	}
	if r.AverageItemsPerMerchantStandardDeviation, err = a.AverageItemsPerMerchantStandardDeviation(); err != nil {
		return Report{}, err
	}
	high, err := a.MerchantsWithHighItemCount()
	if err != nil {
		return Report{}, err
	}
	r.MerchantsWithHighItemCount = merchantIDs(high)

	if r.AverageInvoicesPerMerchant, err = a.AverageInvoicesPerMerchant(); err != nil {
		return Report{}, err
	}
	if r.AverageInvoicesPerMerchantStandardDeviation, err = a.AverageInvoicesPerMerchantStandardDeviation(); err != nil {
		return Report{}, err
	}
	top, err := a.TopMerchantsByInvoiceCount()
	if err != nil {
		return Report{}, err
	}
	r.TopMerchantsByInvoiceCount = merchantIDs(top)
	bottom, err := a.BottomMerchantsByInvoiceCount()
	if err != nil {
		return Report{}, err
	}
	r.BottomMerchantsByInvoiceCount = merchantIDs(bottom)

	if r.AverageUnitPrice, err = a.AverageUnitPrice(); err != nil {
		return Report{}, err
	}
	golden, err := a.GoldenItems()
	if err != nil {
		return Report{}, err
	}
	for _, it := range golden {
		r.GoldenItems = append(r.GoldenItems, it.ID)
	}

	r.InvoiceStatus = make(map[core.InvoiceStatus]float64)
	for _, st := range []core.InvoiceStatus{core.StatusPending, core.StatusShipped, core.StatusReturned} {
		if r.InvoiceStatus[st], err = a.InvoiceStatus(st); err != nil {
			return Report{}, err
		}
	}
	r.InvoiceTotalsByDay = a.InvoiceTotalsByDay()
	if r.TopDaysByInvoiceCount, err = a.TopDaysByInvoiceCount(); err != nil {
		return Report{}, err
	}

	ranked := a.MerchantsByRevenue()
	if len(ranked) > a.topEarners {
		ranked = ranked[:a.topEarners]
	}
	r.TopRevenueEarners = ranked
	return r, nil
}

func merchantIDs(ms []core.Merchant) []int64 {
	ids := make([]int64, len(ms))
	for i, m := range ms {
		ids[i] = m.ID
	}
	return ids
}

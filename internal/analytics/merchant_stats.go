package analytics

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"salesengine/internal/cache"
	"salesengine/internal/core"
)

// DefaultTopEarners is the size of TopRevenueEarners when n ≤ 0.
const DefaultTopEarners = 20

// MerchantCount pairs a merchant id with a per-merchant count.
type MerchantCount struct {
	MerchantID int64 `json:"merchant_id"`
	Count      int   `json:"count"`
}

// MerchantRevenue pairs a merchant id with its paid-in-full revenue.
type MerchantRevenue struct {
	MerchantID int64      `json:"merchant_id"`
	Revenue    core.Money `json:"revenue"`
}

// MerchantIDs lists merchant ids in load order.
func (a *Analyst) MerchantIDs() []int64 {
	return computeSlice(a, cache.K("merchant_list"), a.ds.Merchants.IDs)
}

func (a *Analyst) merchantsByID(ids []int64) []core.Merchant {
	out := make([]core.Merchant, 0, len(ids))
	for _, id := range ids {
		if m, ok := a.ds.Merchants.FindByID(id); ok {
			out = append(out, m)
		}
	}
	return out
}

// ItemsPerMerchant counts the items whose merchant id is id.
func (a *Analyst) ItemsPerMerchant(id int64) int {
	return computeValue(a, cache.K("items_per_merchant", id), func() int {
		return len(a.ds.Items.FindAllByMerchantID(id))
	})
}

// ItemsPerMerchantAll is aligned with MerchantIDs.
func (a *Analyst) ItemsPerMerchantAll() []int {
	return computeSlice(a, cache.K("find_items"), func() []int {
		ids := a.MerchantIDs()
		counts := make([]int, len(ids))
		for i, id := range ids {
			counts[i] = a.ItemsPerMerchant(id)
		}
		return counts
	})
}

func (a *Analyst) MerchantsByItemCount() []MerchantCount {
	return computeSlice(a, cache.K("merchants_by_item_count"), func() []MerchantCount {
		return zipCounts(a.MerchantIDs(), a.ItemsPerMerchantAll())
	})
}

func zipCounts(ids []int64, counts []int) []MerchantCount {
	out := make([]MerchantCount, len(ids))
	for i, id := range ids {
		out[i] = MerchantCount{MerchantID: id, Count: counts[i]}
	}
	return out
}

func (a *Analyst) averageItemsPerMerchant() (decimal.Decimal, error) {
	return compute(a, cache.K("average_items_per_merchant"), func() (decimal.Decimal, error) {
		return ratio(len(a.ds.Items.All()), len(a.ds.Merchants.All()))
	})
}

// AverageItemsPerMerchant is items ÷ merchants, rounded to 2 places.
func (a *Analyst) AverageItemsPerMerchant() (float64, error) {
	return asFloat(a.averageItemsPerMerchant())
}

func (a *Analyst) itemsPerMerchantStdDev() (decimal.Decimal, error) {
	return compute(a, cache.K("average_items_per_merchant_standard_deviation"), func() (decimal.Decimal, error) {
		avg, err := a.averageItemsPerMerchant()
		if err != nil {
			return decimal.Zero, err
		}
		return sampleStdDev(ints(a.ItemsPerMerchantAll()), avg)
	})
}

// AverageItemsPerMerchantStandardDeviation is the sample standard deviation
// of per-merchant item counts. It fails with core.ErrDivisionByZero for a
// dataset with fewer than two merchants.
func (a *Analyst) AverageItemsPerMerchantStandardDeviation() (float64, error) {
	return asFloat(a.itemsPerMerchantStdDev())
}

// MerchantsWithHighItemCount returns merchants whose item count is at least
// one standard deviation above the mean.
func (a *Analyst) MerchantsWithHighItemCount() ([]core.Merchant, error) {
	return computeSliceErr(a, cache.K("merchants_with_high_item_count"), func() ([]core.Merchant, error) {
		avg, err := a.averageItemsPerMerchant()
		if err != nil {
			return nil, err
		}
		sd, err := a.itemsPerMerchantStdDev()
		if err != nil {
			return nil, err
		}
		threshold := avg.Add(sd)
		var ids []int64
		for _, mc := range a.MerchantsByItemCount() {
			if decimal.NewFromInt(int64(mc.Count)).GreaterThanOrEqual(threshold) {
				ids = append(ids, mc.MerchantID)
			}
		}
		return a.merchantsByID(ids), nil
	})
}

func (a *Analyst) InvoicesPerMerchant(id int64) int {
	return computeValue(a, cache.K("invoices_per_merchant", id), func() int {
		return len(a.ds.Invoices.FindAllByMerchantID(id))
	})
}

// InvoicesPerMerchantAll is aligned with MerchantIDs.
func (a *Analyst) InvoicesPerMerchantAll() []int {
	return computeSlice(a, cache.K("find_invoices"), func() []int {
		ids := a.MerchantIDs()
		counts := make([]int, len(ids))
		for i, id := range ids {
			counts[i] = a.InvoicesPerMerchant(id)
		}
		return counts
	})
}

func (a *Analyst) MerchantsByInvoiceCount() []MerchantCount {
	return computeSlice(a, cache.K("merchants_invoice_total_list"), func() []MerchantCount {
		return zipCounts(a.MerchantIDs(), a.InvoicesPerMerchantAll())
	})
}

func (a *Analyst) averageInvoicesPerMerchant() (decimal.Decimal, error) {
	return compute(a, cache.K("average_invoices_per_merchant"), func() (decimal.Decimal, error) {
		return mean(ints(a.InvoicesPerMerchantAll()))
	})
}

func (a *Analyst) AverageInvoicesPerMerchant() (float64, error) {
	return asFloat(a.averageInvoicesPerMerchant())
}

func (a *Analyst) invoicesPerMerchantStdDev() (decimal.Decimal, error) {
	return compute(a, cache.K("average_invoices_per_merchant_standard_deviation"), func() (decimal.Decimal, error) {
		avg, err := a.averageInvoicesPerMerchant()
		if err != nil {
			return decimal.Zero, err
		}
		return sampleStdDev(ints(a.InvoicesPerMerchantAll()), avg)
	})
}

func (a *Analyst) AverageInvoicesPerMerchantStandardDeviation() (float64, error) {
	return asFloat(a.invoicesPerMerchantStdDev())
}

// invoiceCountBounds returns mean−2σ and mean+2σ of per-merchant invoice counts.
func (a *Analyst) invoiceCountBounds() (low, high decimal.Decimal, err error) {
	avg, err := a.averageInvoicesPerMerchant()
	if err != nil {
		return low, high, err
	}
	sd, err := a.invoicesPerMerchantStdDev()
	if err != nil {
		return low, high, err
	}
	twoSD := sd.Mul(decimal.NewFromInt(2))
	return avg.Sub(twoSD), avg.Add(twoSD), nil
}

// TopMerchantsByInvoiceCount returns merchants at or above mean+2σ invoices.
func (a *Analyst) TopMerchantsByInvoiceCount() ([]core.Merchant, error) {
	return computeSliceErr(a, cache.K("top_merchants_by_invoice_count"), func() ([]core.Merchant, error) {
		_, high, err := a.invoiceCountBounds()
		if err != nil {
			return nil, err
		}
		return a.merchantsByInvoiceCount(func(n decimal.Decimal) bool { return n.GreaterThanOrEqual(high) }), nil
	})
}

// BottomMerchantsByInvoiceCount returns merchants at or below mean−2σ invoices.
func (a *Analyst) BottomMerchantsByInvoiceCount() ([]core.Merchant, error) {
	return computeSliceErr(a, cache.K("bottom_merchants_by_invoice_count"), func() ([]core.Merchant, error) {
		low, _, err := a.invoiceCountBounds()
		if err != nil {
			return nil, err
		}
		return a.merchantsByInvoiceCount(func(n decimal.Decimal) bool { return n.LessThanOrEqual(low) }), nil
	})
}

func (a *Analyst) merchantsByInvoiceCount(keep func(decimal.Decimal) bool) []core.Merchant {
	var ids []int64
	for _, mc := range a.MerchantsByInvoiceCount() {
		if keep(decimal.NewFromInt(int64(mc.Count))) {
			ids = append(ids, mc.MerchantID)
		}
	}
	return a.merchantsByID(ids)
}

// MerchantsByRevenue has exactly one entry per merchant, zero-revenue
// merchants included, sorted by revenue descending. Ties keep encounter
// order: merchants in order of their first paid invoice, then merchants
// without paid invoices in load order.
func (a *Analyst) MerchantsByRevenue() []MerchantRevenue {
	return computeSlice(a, cache.K("merchants_by_revenue"), func() []MerchantRevenue {
		totals := make(map[int64]core.Money)
		var order []int64
		for _, inv := range a.PaidInvoices() {
			if _, ok := a.ds.Merchants.FindByID(inv.MerchantID); !ok {
				continue
			}
			if _, seen := totals[inv.MerchantID]; !seen {
				order = append(order, inv.MerchantID)
			}
			totals[inv.MerchantID] = totals[inv.MerchantID].Add(a.InvoiceTotal(inv))
		}
		for _, id := range a.MerchantIDs() {
			if _, seen := totals[id]; !seen {
				totals[id] = core.Money{}
				order = append(order, id)
			}
		}
		ranked := make([]MerchantRevenue, len(order))
		for i, id := range order {
			ranked[i] = MerchantRevenue{MerchantID: id, Revenue: totals[id]}
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Revenue.Cents > ranked[j].Revenue.Cents
		})
		return ranked
	})
}

func (a *Analyst) MerchantsRankedByRevenue() []core.Merchant {
	return computeSlice(a, cache.K("merchants_ranked_by_revenue"), func() []core.Merchant {
		ranked := a.MerchantsByRevenue()
		ids := make([]int64, len(ranked))
		for i, mr := range ranked {
			ids[i] = mr.MerchantID
		}
		return a.merchantsByID(ids)
	})
}

// TopRevenueEarners returns the first n merchants by revenue (DefaultTopEarners
// when n ≤ 0).
func (a *Analyst) TopRevenueEarners(n int) []core.Merchant {
	if n <= 0 {
		n = DefaultTopEarners
	}
	return computeSlice(a, cache.K("top_revenue_earners", n), func() []core.Merchant {
		ranked := a.MerchantsRankedByRevenue()
		if n > len(ranked) {
			n = len(ranked)
		}
		return append([]core.Merchant(nil), ranked[:n]...)
	})
}

// RevenueByMerchant sums the totals of the merchant's paid-in-full invoices.
func (a *Analyst) RevenueByMerchant(id int64) core.Money {
	return computeValue(a, cache.K("revenue_by_merchant", id), func() core.Money {
		var total core.Money
		for _, inv := range a.paidInvoicesOfMerchant(id) {
			total = total.Add(a.InvoiceTotal(inv))
		}
		return total
	})
}

func (a *Analyst) paidInvoicesOfMerchant(id int64) []core.Invoice {
	return computeValue(a, cache.K("valid_invoices_of_merchant", id), func() []core.Invoice {
		var out []core.Invoice
		for _, inv := range a.ds.Invoices.FindAllByMerchantID(id) {
			if a.IsPaidInFull(inv) {
				out = append(out, inv)
			}
		}
		return out
	})
}

// paidInvoiceItemsOfMerchant lists the line items of the merchant's
// paid-in-full invoices in invoice order.
func (a *Analyst) paidInvoiceItemsOfMerchant(id int64) []core.InvoiceItem {
	return computeValue(a, cache.K("invoice_items_of_merchant", id), func() []core.InvoiceItem {
		var out []core.InvoiceItem
		for _, inv := range a.paidInvoicesOfMerchant(id) {
			out = append(out, a.ds.InvoiceItemsOf(inv)...)
		}
		return out
	})
}

// AverageItemPriceForMerchant is the mean unit price of the merchant's
// items. It fails with core.ErrDivisionByZero when the merchant has none.
func (a *Analyst) AverageItemPriceForMerchant(id int64) (decimal.Decimal, error) {
	return compute(a, cache.K("average_item_price_for_merchant", id), func() (decimal.Decimal, error) {
		avg, err := mean(prices(a.ds.Items.FindAllByMerchantID(id)))
		if err != nil {
			return decimal.Zero, fmt.Errorf("merchant %d: %w", id, err)
		}
		return avg, nil
	})
}

// AverageAveragePricePerMerchant is the mean of the per-merchant average
// item prices.
func (a *Analyst) AverageAveragePricePerMerchant() (decimal.Decimal, error) {
	return compute(a, cache.K("average_average_price_per_merchant"), func() (decimal.Decimal, error) {
		ids := a.MerchantIDs()
		avgs := make([]decimal.Decimal, 0, len(ids))
		for _, id := range ids {
			avg, err := a.AverageItemPriceForMerchant(id)
			if err != nil {
				return decimal.Zero, err
			}
			avgs = append(avgs, avg)
		}
		return mean(avgs)
	})
}

type itemResult struct {
	item core.Item
	ok   bool
}

// BestItemForMerchant returns the item with the highest revenue (unit price
// × quantity summed over the merchant's paid line items). The first item
// encountered wins ties.
func (a *Analyst) BestItemForMerchant(id int64) (core.Item, bool) {
	r := computeValue(a, cache.K("best_item_for_merchant", id), func() itemResult {
		revenue := make(map[int64]core.Money)
		var order []int64
		for _, ii := range a.paidInvoiceItemsOfMerchant(id) {
			if _, seen := revenue[ii.ItemID]; !seen {
				order = append(order, ii.ItemID)
			}
			revenue[ii.ItemID] = revenue[ii.ItemID].Add(ii.Revenue())
		}
		if len(order) == 0 {
			return itemResult{}
		}
		best := order[0]
		for _, itemID := range order[1:] {
			if revenue[itemID].Cents > revenue[best].Cents {
				best = itemID
			}
		}
		item, ok := a.ds.Items.FindByID(best)
		return itemResult{item: item, ok: ok}
	})
	return r.item, r.ok
}

// MerchantsWithPendingInvoices returns merchants owning at least one invoice
// that is not paid in full, in order of first such invoice.
func (a *Analyst) MerchantsWithPendingInvoices() []core.Merchant {
	return computeSlice(a, cache.K("merchants_with_pending_invoices"), func() []core.Merchant {
		seen := make(map[int64]bool)
		var ids []int64
		for _, inv := range a.UnpaidInvoices() {
			if !seen[inv.MerchantID] {
				seen[inv.MerchantID] = true
				ids = append(ids, inv.MerchantID)
			}
		}
		return a.merchantsByID(ids)
	})
}

func (a *Analyst) MerchantsWithOnlyOneItem() []core.Merchant {
	return computeSlice(a, cache.K("merchants_with_only_one_item"), func() []core.Merchant {
		var ids []int64
		for _, mc := range a.MerchantsByItemCount() {
			if mc.Count == 1 {
				ids = append(ids, mc.MerchantID)
			}
		}
		return a.merchantsByID(ids)
	})
}

// MerchantsWithOnlyOneItemRegisteredInMonth narrows MerchantsWithOnlyOneItem
// to merchants created in the named month ("March"), any year.
func (a *Analyst) MerchantsWithOnlyOneItemRegisteredInMonth(month string) ([]core.Merchant, error) {
	m, err := core.ParseMonth(month)
	if err != nil {
		return nil, fmt.Errorf("month %q: %w", month, err)
	}
	return computeSlice(a, cache.K("merchants_with_only_one_item_registered_in_month", m), func() []core.Merchant {
		var out []core.Merchant
		for _, merchant := range a.MerchantsWithOnlyOneItem() {
			if merchant.CreatedAt.Month() == m {
				out = append(out, merchant)
			}
		}
		return out
	}), nil
}

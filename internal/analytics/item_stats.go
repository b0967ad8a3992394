package analytics

import (
	"github.com/shopspring/decimal"

	"salesengine/internal/cache"
	"salesengine/internal/core"
)

// ItemRevenue is one group of identical sold line items (same item, unit
// price and quantity) of a merchant.
type ItemRevenue struct {
	ItemID      int64      `json:"item_id"`
	UnitPrice   core.Money `json:"unit_price"`
	Quantity    int64      `json:"quantity"`
	Occurrences int        `json:"occurrences"`
	Revenue     core.Money `json:"revenue"`
}

// AverageUnitPrice is the mean unit price over all items.
func (a *Analyst) AverageUnitPrice() (decimal.Decimal, error) {
	return compute(a, cache.K("average_unit_price"), func() (decimal.Decimal, error) {
		return mean(prices(a.ds.Items.All()))
	})
}

// UnitPriceStandardDeviation is the sample standard deviation of all unit
// prices.
func (a *Analyst) UnitPriceStandardDeviation() (decimal.Decimal, error) {
	return compute(a, cache.K("unit_price_standard_deviation"), func() (decimal.Decimal, error) {
		avg, err := a.AverageUnitPrice()
		if err != nil {
			return decimal.Zero, err
		}
		return sampleStdDev(prices(a.ds.Items.All()), avg)
	})
}

// GoldenItemsThreshold is mean + 2σ of all unit prices.
func (a *Analyst) GoldenItemsThreshold() (decimal.Decimal, error) {
	return compute(a, cache.K("golden_items_threshold"), func() (decimal.Decimal, error) {
		avg, err := a.AverageUnitPrice()
		if err != nil {
			return decimal.Zero, err
		}
		sd, err := a.UnitPriceStandardDeviation()
		if err != nil {
			return decimal.Zero, err
		}
		return avg.Add(sd.Mul(decimal.NewFromInt(2))), nil
	})
}

// GoldenItems returns items priced at or above GoldenItemsThreshold.
func (a *Analyst) GoldenItems() ([]core.Item, error) {
	return computeSliceErr(a, cache.K("golden_items"), func() ([]core.Item, error) {
		threshold, err := a.GoldenItemsThreshold()
		if err != nil {
			return nil, err
		}
		var out []core.Item
		for _, it := range a.ds.Items.All() {
			if it.UnitPrice.Decimal().GreaterThanOrEqual(threshold) {
				out = append(out, it)
			}
		}
		return out, nil
	})
}

// MostSoldItemForMerchant returns every item tied for the highest total
// quantity over the merchant's paid-in-full invoices, in the order they
// were first sold. Empty when the merchant sold nothing.
func (a *Analyst) MostSoldItemForMerchant(id int64) []core.Item {
	return computeSlice(a, cache.K("most_sold_item_for_merchant", id), func() []core.Item {
		quantity := make(map[int64]int64)
		var order []int64
		for _, ii := range a.paidInvoiceItemsOfMerchant(id) {
			if _, seen := quantity[ii.ItemID]; !seen {
				order = append(order, ii.ItemID)
			}
			quantity[ii.ItemID] += ii.Quantity
		}
		var most int64
		for _, itemID := range order {
			if quantity[itemID] > most {
				most = quantity[itemID]
			}
		}
		var out []core.Item
		for _, itemID := range order {
			if quantity[itemID] != most {
				continue
			}
			if it, ok := a.ds.Items.FindByID(itemID); ok {
				out = append(out, it)
			}
		}
		return out
	})
}

type itemRevenueResult struct {
	rev ItemRevenue
	ok  bool
}

// TopInvoiceItemRevenue groups the merchant's paid line items by (item, unit
// price, quantity) and returns the group with the largest unit price ×
// quantity × occurrences. The first group encountered wins ties.
func (a *Analyst) TopInvoiceItemRevenue(id int64) (ItemRevenue, bool) {
	r := computeValue(a, cache.K("top_invoice_item_revenue", id), func() itemRevenueResult {
		type groupKey struct {
			itemID   int64
			price    int64
			quantity int64
		}
		groups := make(map[groupKey]*ItemRevenue)
		var order []groupKey
		for _, ii := range a.paidInvoiceItemsOfMerchant(id) {
			k := groupKey{itemID: ii.ItemID, price: ii.UnitPrice.Cents, quantity: ii.Quantity}
			g, ok := groups[k]
			if !ok {
				g = &ItemRevenue{ItemID: ii.ItemID, UnitPrice: ii.UnitPrice, Quantity: ii.Quantity}
				groups[k] = g
				order = append(order, k)
			}
			g.Occurrences++
			g.Revenue = ii.UnitPrice.Mul(ii.Quantity * int64(g.Occurrences))
		}
		if len(order) == 0 {
			return itemRevenueResult{}
		}
		best := groups[order[0]]
		for _, k := range order[1:] {
			if groups[k].Revenue.Cents > best.Revenue.Cents {
				best = groups[k]
			}
		}
		return itemRevenueResult{rev: *best, ok: true}
	})
	return r.rev, r.ok
}

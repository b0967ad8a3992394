package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"salesengine/internal/analytics"
	"salesengine/internal/core"
)

type merchantView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type itemView struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	UnitPrice   core.Money `json:"unit_price"`
	MerchantID  int64      `json:"merchant_id"`
}

type statView struct {
	Average           float64 `json:"average"`
	StandardDeviation float64 `json:"standard_deviation"`
}

func merchantViews(ms []core.Merchant) []merchantView {
	out := make([]merchantView, len(ms))
	for i, m := range ms {
		out[i] = merchantView{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt}
	}
	return out
}

func itemViews(items []core.Item) []itemView {
	out := make([]itemView, len(items))
	for i, it := range items {
		out[i] = itemView{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			UnitPrice:   it.UnitPrice,
			MerchantID:  it.MerchantID,
		}
	}
	return out
}

// merchant resolves the {id} path segment to a known merchant.
func (s *Server) merchant(r *http.Request) (core.Merchant, error) {
	id, err := pathID(r)
	if err != nil {
		return core.Merchant{}, err
	}
	m, ok := s.analyst.Dataset().Merchants.FindByID(id)
	if !ok {
		return core.Merchant{}, fmt.Errorf("merchant %d: %w", id, core.ErrNotFound)
	}
	return m, nil
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	report, err := s.analyst.Summary()
	if err != nil {
		s.writeFailure(w, r, "summary", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAverageItems(w http.ResponseWriter, r *http.Request) {
	avg, err := s.analyst.AverageItemsPerMerchant()
	if err != nil {
		s.writeFailure(w, r, "average_items_per_merchant", err)
		return
	}
	sd, err := s.analyst.AverageItemsPerMerchantStandardDeviation()
	if err != nil {
		s.writeFailure(w, r, "average_items_per_merchant_standard_deviation", err)
		return
	}
	writeJSON(w, http.StatusOK, statView{Average: avg, StandardDeviation: sd})
}

func (s *Server) handleHighItemCount(w http.ResponseWriter, r *http.Request) {
	ms, err := s.analyst.MerchantsWithHighItemCount()
	if err != nil {
		s.writeFailure(w, r, "merchants_with_high_item_count", err)
		return
	}
	writeJSON(w, http.StatusOK, merchantViews(ms))
}

func (s *Server) handleAverageInvoices(w http.ResponseWriter, r *http.Request) {
	avg, err := s.analyst.AverageInvoicesPerMerchant()
	if err != nil {
		s.writeFailure(w, r, "average_invoices_per_merchant", err)
		return
	}
	sd, err := s.analyst.AverageInvoicesPerMerchantStandardDeviation()
	if err != nil {
		s.writeFailure(w, r, "average_invoices_per_merchant_standard_deviation", err)
		return
	}
	writeJSON(w, http.StatusOK, statView{Average: avg, StandardDeviation: sd})
}

func (s *Server) handleTopByInvoices(w http.ResponseWriter, r *http.Request) {
	ms, err := s.analyst.TopMerchantsByInvoiceCount()
	if err != nil {
		s.writeFailure(w, r, "top_merchants_by_invoice_count", err)
		return
	}
	writeJSON(w, http.StatusOK, merchantViews(ms))
}

func (s *Server) handleBottomByInvoices(w http.ResponseWriter, r *http.Request) {
	ms, err := s.analyst.BottomMerchantsByInvoiceCount()
	if err != nil {
		s.writeFailure(w, r, "bottom_merchants_by_invoice_count", err)
		return
	}
	writeJSON(w, http.StatusOK, merchantViews(ms))
}

func (s *Server) handleRevenue(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, s.topEarners)
	if err != nil {
		s.writeFailure(w, r, "merchants_by_revenue", err)
		return
	}
	ranked := s.analyst.MerchantsByRevenue()
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	writeJSON(w, http.StatusOK, ranked)
}

func (s *Server) handleMerchantRevenue(w http.ResponseWriter, r *http.Request) {
	m, err := s.merchant(r)
	if err != nil {
		s.writeFailure(w, r, "revenue_by_merchant", err)
		return
	}
	writeJSON(w, http.StatusOK, analytics.MerchantRevenue{MerchantID: m.ID, Revenue: s.analyst.RevenueByMerchant(m.ID)})
}

func (s *Server) handleAverageAveragePrice(w http.ResponseWriter, r *http.Request) {
	avg, err := s.analyst.AverageAveragePricePerMerchant()
	if err != nil {
		s.writeFailure(w, r, "average_average_price_per_merchant", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"average_price": avg})
}

func (s *Server) handleAveragePrice(w http.ResponseWriter, r *http.Request) {
	m, err := s.merchant(r)
	if err != nil {
		s.writeFailure(w, r, "average_item_price_for_merchant", err)
		return
	}
	avg, err := s.analyst.AverageItemPriceForMerchant(m.ID)
	if err != nil {
		s.writeFailure(w, r, "average_item_price_for_merchant", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"merchant_id": m.ID, "average_price": avg})
}

func (s *Server) handleBestItem(w http.ResponseWriter, r *http.Request) {
	m, err := s.merchant(r)
	if err != nil {
		s.writeFailure(w, r, "best_item_for_merchant", err)
		return
	}
	item, ok := s.analyst.BestItemForMerchant(m.ID)
	if !ok {
		s.writeFailure(w, r, "best_item_for_merchant", fmt.Errorf("best item of merchant %d: %w", m.ID, core.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, itemViews([]core.Item{item})[0])
}

func (s *Server) handleMostSold(w http.ResponseWriter, r *http.Request) {
	m, err := s.merchant(r)
	if err != nil {
		s.writeFailure(w, r, "most_sold_item_for_merchant", err)
		return
	}
	writeJSON(w, http.StatusOK, itemViews(s.analyst.MostSoldItemForMerchant(m.ID)))
}

func (s *Server) handlePendingMerchants(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, merchantViews(s.analyst.MerchantsWithPendingInvoices()))
}

// handleSingleItemMerchants accepts an optional ?month= filter on the
// merchant registration month.
func (s *Server) handleSingleItemMerchants(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		writeJSON(w, http.StatusOK, merchantViews(s.analyst.MerchantsWithOnlyOneItem()))
		return
	}
	ms, err := s.analyst.MerchantsWithOnlyOneItemRegisteredInMonth(month)
	if err != nil {
		s.writeFailure(w, r, "merchants_with_only_one_item_registered_in_month", err)
		return
	}
	writeJSON(w, http.StatusOK, merchantViews(ms))
}

func (s *Server) handleAverageUnitPrice(w http.ResponseWriter, r *http.Request) {
	avg, err := s.analyst.AverageUnitPrice()
	if err != nil {
		s.writeFailure(w, r, "average_unit_price", err)
		return
	}
	sd, err := s.analyst.UnitPriceStandardDeviation()
	if err != nil {
		s.writeFailure(w, r, "unit_price_standard_deviation", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"average": avg, "standard_deviation": sd})
}

func (s *Server) handleGoldenItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.analyst.GoldenItems()
	if err != nil {
		s.writeFailure(w, r, "golden_items", err)
		return
	}
	writeJSON(w, http.StatusOK, itemViews(items))
}

func (s *Server) handleInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	tag := r.PathValue("status")
	pct, err := s.analyst.InvoiceStatusFor(tag)
	if err != nil {
		s.writeFailure(w, r, "invoice_status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": tag, "percentage": pct})
}

func (s *Server) handleRevenueByDate(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	total, err := s.analyst.TotalRevenueByDateString(date)
	if err != nil {
		s.writeFailure(w, r, "total_revenue_by_date", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "revenue": total})
}

func (s *Server) handleInvoiceDays(w http.ResponseWriter, r *http.Request) {
	days := s.analyst.InvoiceTotalsByDay()
	avg, err := s.analyst.InvoicesPerDayAverage()
	if err != nil {
		s.writeFailure(w, r, "invoices_per_day_average", err)
		return
	}
	sd, err := s.analyst.WeekdayInvoiceStandardDeviation()
	if err != nil {
		s.writeFailure(w, r, "weekday_invoice_standard_deviation", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"days":               days,
		"average":            avg,
		"standard_deviation": sd,
	})
}

func (s *Server) handleTopDays(w http.ResponseWriter, r *http.Request) {
	days, err := s.analyst.TopDaysByInvoiceCount()
	if err != nil {
		s.writeFailure(w, r, "top_days_by_invoice_count", err)
		return
	}
	if days == nil {
		days = []string{}
	}
	writeJSON(w, http.StatusOK, days)
}

package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salesengine/internal/analytics"
	"salesengine/internal/log"
)

// Options tunes a Server. Zero values select the defaults.
type Options struct {
	Logger *log.Logger
	// RequestsPerMinute caps requests per client IP. Zero means 120.
	RequestsPerMinute int
	// TopEarners is the default limit of /api/merchants/revenue.
	TopEarners int
	// Registry receives the analyst and HTTP collectors. A fresh registry
	// is created when nil.
	Registry *prometheus.Registry
}

// Server exposes one Analyst as a read-only JSON API.
type Server struct {
	http.Server
	analyst     *analytics.Analyst
	logger      *log.Logger
	rateLimiter *rateLimiter
	metrics     *serverMetrics
	topEarners  int

	shutdownOnce sync.Once
}

type serverMetrics struct {
	rateLimited prometheus.Counter
	suspicious  prometheus.Counter
}

func newServerMetrics(reg *prometheus.Registry) *serverMetrics {
	m := &serverMetrics{
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "salesengine",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}),
		suspicious: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "salesengine",
			Subsystem: "http",
			Name:      "suspicious_requests_total",
			Help:      "Requests matching a known probing pattern.",
		}),
	}
	reg.MustRegister(m.rateLimited, m.suspicious)
	return m
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, a *analytics.Analyst, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	reg.MustRegister(a.Memo().Collectors()...)

	topEarners := opts.TopEarners
	if topEarners <= 0 {
		topEarners = analytics.DefaultTopEarners
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
		},
		analyst:     a,
		logger:      logger,
		rateLimiter: newRateLimiter(opts.RequestsPerMinute),
		metrics:     newServerMetrics(reg),
		topEarners:  topEarners,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /api/summary", s.guard(s.handleSummary))

	mux.HandleFunc("GET /api/merchants/average-items", s.guard(s.handleAverageItems))
	mux.HandleFunc("GET /api/merchants/high-item-count", s.guard(s.handleHighItemCount))
	mux.HandleFunc("GET /api/merchants/average-invoices", s.guard(s.handleAverageInvoices))
	mux.HandleFunc("GET /api/merchants/top-by-invoices", s.guard(s.handleTopByInvoices))
	mux.HandleFunc("GET /api/merchants/bottom-by-invoices", s.guard(s.handleBottomByInvoices))
	mux.HandleFunc("GET /api/merchants/revenue", s.guard(s.handleRevenue))
	mux.HandleFunc("GET /api/merchants/average-price", s.guard(s.handleAverageAveragePrice))
	mux.HandleFunc("GET /api/merchants/pending", s.guard(s.handlePendingMerchants))
	mux.HandleFunc("GET /api/merchants/single-item", s.guard(s.handleSingleItemMerchants))
	mux.HandleFunc("GET /api/merchants/{id}/revenue", s.guard(s.handleMerchantRevenue))
	mux.HandleFunc("GET /api/merchants/{id}/average-price", s.guard(s.handleAveragePrice))
	mux.HandleFunc("GET /api/merchants/{id}/best-item", s.guard(s.handleBestItem))
	mux.HandleFunc("GET /api/merchants/{id}/most-sold", s.guard(s.handleMostSold))

	mux.HandleFunc("GET /api/items/average-price", s.guard(s.handleAverageUnitPrice))
	mux.HandleFunc("GET /api/items/golden", s.guard(s.handleGoldenItems))

	mux.HandleFunc("GET /api/invoices/status/{status}", s.guard(s.handleInvoiceStatus))
	mux.HandleFunc("GET /api/invoices/revenue/{date}", s.guard(s.handleRevenueByDate))
	mux.HandleFunc("GET /api/invoices/days", s.guard(s.handleInvoiceDays))
	mux.HandleFunc("GET /api/invoices/top-days", s.guard(s.handleTopDays))

	s.Handler = log.Middleware(logger)(mux)
	return s
}

// guard applies rate limiting, probe detection and security headers.
func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		clientIP := extractClientIP(r)

		if detectSuspiciousRequest(r) {
			s.metrics.suspicious.Inc()
			log.FromContext(ctx).WarnContext(ctx, "Suspicious request",
				log.FieldClientIP, clientIP,
				log.FieldPath, r.URL.Path,
				"user_agent", r.UserAgent())
		}

		if !s.rateLimiter.allow(clientIP) {
			s.metrics.rateLimited.Inc()
			log.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded", log.FieldClientIP, clientIP)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next(w, r)
	}
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports ready once a dataset is attached.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.analyst.Dataset() == nil {
		writeError(w, http.StatusServiceUnavailable, "dataset not loaded")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"counts": s.analyst.Dataset().Records().Counts(),
	})
}

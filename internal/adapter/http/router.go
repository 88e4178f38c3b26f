package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/ledgerd/internal/adapter/http/handler"
	"github.com/iho/ledgerd/internal/adapter/http/middleware"
	"github.com/iho/ledgerd/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler  *handler.AccountHandler
	TransferHandler *handler.TransferHandler
	AuditHandler    *handler.AuditHandler
	LedgerHandler   *handler.LedgerHandler
	HealthHandler   *handler.HealthHandler

	// Optional.
	Idempotency *middleware.IdempotencyMiddleware
	RateLimiter *middleware.RateLimiter
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Logger      zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Idempotency != nil {
			r.Use(cfg.Idempotency.Wrap)
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.AccountHandler.Get)
				r.Post("/deposit", cfg.AccountHandler.Deposit)
				r.Post("/withdraw", cfg.AccountHandler.Withdraw)
				r.Post("/send", cfg.TransferHandler.Send)
				r.Get("/audit", cfg.AuditHandler.List)
				r.Get("/reconcile", cfg.LedgerHandler.Reconcile)
			})
		})

		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
	})

	return r
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shophub/storefront/internal/storefront"
	"github.com/shophub/storefront/pkg/health"
	"github.com/shophub/storefront/pkg/middleware"
)

// RouterConfig holds the surface settings that come from configuration.
type RouterConfig struct {
	ServiceName string
	CORS        middleware.CORSConfig

	// MetricsAllowCIDRs restricts /metrics. Empty leaves it open.
	MetricsAllowCIDRs []string

	// PprofAllowCIDRs enables /debug/pprof for these ranges. Empty disables it.
	PprofAllowCIDRs []string

	// RateLimitRPS and RateLimitBurst bound /api/v1 per client IP.
	// A zero RPS turns limiting off.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates a chi router exposing the storefront view state as JSON.
func NewRouter(
	sf *storefront.Storefront,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())

	metrics := promhttp.Handler()
	if len(cfg.MetricsAllowCIDRs) > 0 {
		metrics = middleware.IPAllowlist(cfg.MetricsAllowCIDRs, logger)(metrics)
	}
	r.Method(http.MethodGet, "/metrics", metrics)

	middleware.RegisterPprof(r, cfg.PprofAllowCIDRs, logger)

	productHandler := NewProductHandler(sf, logger)
	reviewHandler := NewReviewHandler(sf, logger)

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		r.Use(ContentTypeJSON)
		r.Use(middleware.NoStore)

		r.Get("/", productHandler.ListProducts)
		r.Post("/", productHandler.CreateProduct)
		r.Post("/refetch", productHandler.RefetchProducts)
		r.Delete("/{productId}", productHandler.DeleteProduct)

		r.Route("/{productId}/reviews", func(r chi.Router) {
			r.Get("/", reviewHandler.ListReviews)
			r.Post("/", reviewHandler.CreateReview)
			r.Post("/refetch", reviewHandler.RefetchReviews)
			r.Delete("/{reviewId}", reviewHandler.DeleteReview)
		})
	})

	return r
}

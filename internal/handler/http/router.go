package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/service"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/health"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/middleware"
)

// RouterConfig holds the cross-cutting settings of the router.
type RouterConfig struct {
	ServiceName string
	CORS        middleware.CORSConfig
	// CacheMaxAge is the max-age in seconds sent on anonymous park reads.
	// Zero disables the Cache-Control header.
	CacheMaxAge int
	// HTTPMetrics and MetricsHandler are optional.
	HTTPMetrics    *middleware.HTTPMetrics
	MetricsHandler http.Handler
	// RateLimit throttles mutating API calls per caller. Nil disables it.
	RateLimit *middleware.RateLimitConfig
	// PprofCIDRs enables /debug/pprof for the listed networks when set.
	PprofCIDRs []string
}

// NewRouter creates a chi router with all park and review routes registered.
func NewRouter(
	parkService *service.ParkService,
	reviewService *service.ReviewService,
	helpfulService *service.HelpfulService,
	validateToken middleware.TokenValidator,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Middleware)
	}
	r.Use(middleware.CORS(cfg.CORS))

	// Health check and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if len(cfg.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	parkHandler := NewParkHandler(parkService, logger)
	reviewHandler := NewReviewHandler(reviewService, helpfulService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(validateToken, logger))
		r.Use(middleware.RequestLogger(logger))
		if cfg.RateLimit != nil {
			r.Use(middleware.RateLimit(*cfg.RateLimit, logger))
		}

		r.Route("/parks", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.CacheMaxAge > 0 {
					r.Use(middleware.CacheControl(cfg.CacheMaxAge))
				}
				r.Get("/", parkHandler.ListParks)
				r.Get("/{parkId}", parkHandler.GetPark)
			})
			r.Get("/{parkId}/reviews", reviewHandler.ListParkReviews)
			r.Post("/{parkId}/reviews", reviewHandler.CreateReview)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", reviewHandler.ListReviews)
			r.Get("/{reviewId}", reviewHandler.GetReview)
			r.Put("/{reviewId}", reviewHandler.UpdateReview)
			r.Delete("/{reviewId}", reviewHandler.DeleteReview)
			r.Post("/{reviewId}/helpful", reviewHandler.ToggleHelpful)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logger, string(domain.RoleAdmin)))

			r.Get("/reviews", reviewHandler.ListReviews)
			r.Patch("/reviews/{reviewId}/status", reviewHandler.SetReviewStatus)
			r.Post("/parks/{parkId}/recompute", reviewHandler.RecomputeParkRatings)
		})
	})

	return r
}

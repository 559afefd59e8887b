package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devllyservices-png/zedyoumplus2-sub000/pkg/health"
	"github.com/devllyservices-png/zedyoumplus2-sub000/pkg/middleware"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	ServiceName       string
	RequestTimeout    time.Duration
	CORS              middleware.CORSConfig
	PprofEnabled      bool
	PprofAllowedCIDRs []string
}

// NewRouter creates a chi router with all notification service routes registered.
func NewRouter(
	notificationHandler *NotificationHandler,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users/{userId}/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.ListByUser)
			r.Get("/unread-count", notificationHandler.UnreadCount)
			r.Put("/read", notificationHandler.MarkAllAsRead)
		})
		r.Route("/notifications", func(r chi.Router) {
			r.Put("/{id}/read", notificationHandler.MarkAsRead)
			r.Post("/system", notificationHandler.SendSystemNotification)
		})
	})

	return r
}

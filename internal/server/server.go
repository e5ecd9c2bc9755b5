// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"safetails/internal/config"
	"safetails/internal/logging"
	"safetails/internal/server/handlers"
	"safetails/internal/service/feed"
	proximitysvc "safetails/internal/service/proximity"
)

// Dependencies are the services the HTTP API exposes
type Dependencies struct {
	Proximity *proximitysvc.Service
	Hub       *feed.Hub
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, deps Dependencies) *Server {
	router := NewRouter(cfg, deps)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// NewRouter builds the routes and middleware
func NewRouter(cfg config.ServerConfig, deps Dependencies) *chi.Mux {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logging.RequestLogger(deps.Logger))
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.NotFound(handlers.NotFound)
	router.MethodNotAllowed(handlers.MethodNotAllowed)

	proximityHandler := handlers.NewProximityHandler(deps.Proximity, deps.Logger)

	// Routes
	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			r.Route("/alerts", func(r chi.Router) {
				r.Get("/", proximityHandler.Listing(proximitysvc.ProfileAlerts))
				r.Get("/nearby", proximityHandler.Nearby(proximitysvc.ProfileAlerts, "radius"))
			})

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", proximityHandler.Listing(proximitysvc.ProfilePosts))
				r.Get("/nearby", proximityHandler.Nearby(proximitysvc.ProfilePosts, "distance"))
			})

			r.Route("/vets", func(r chi.Router) {
				r.Get("/", proximityHandler.Listing(proximitysvc.ProfileVets))
				r.Get("/nearby", proximityHandler.Nearby(proximitysvc.ProfileVets, "distance"))
				r.Get("/emergency", proximityHandler.Nearby(proximitysvc.ProfileVetsEmergency, "distance"))
			})
		})
	})

	// WebSocket endpoint for the live nearby-alert feed
	if deps.Hub != nil {
		router.Handle("/ws/alerts/nearby", handlers.NewFeedHandler(
			deps.Hub,
			deps.Proximity.Alerts.Profile(),
			handlers.DefaultWebSocketConfig(),
			cfg.CorsOrigins,
			deps.Logger,
		))
	}

	if deps.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	return router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

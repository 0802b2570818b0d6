package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nevloh/nevloh-website-sub001/internal/dashboard"
	httpmiddleware "github.com/nevloh/nevloh-website-sub001/internal/http/middleware"
	"github.com/nevloh/nevloh-website-sub001/internal/intake"
	"github.com/nevloh/nevloh-website-sub001/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	IntakeHandler      *intake.Handler
	DashboardHandler   *dashboard.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// RateLimiter guards POST /api/leads; nil disables it.
	RateLimiter  *httpmiddleware.RateLimiter
	MaxBodyBytes int64
	// TrustProxyHeaders takes the client IP from X-Forwarded-For/X-Real-IP.
	// Enable only behind a proxy that overwrites those headers; otherwise
	// clients can pick the IP the rate limit and velocity check key on.
	TrustProxyHeaders bool
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	if cfg.IntakeHandler != nil {
		r.Route("/api", func(api chi.Router) {
			api.Use(httpmiddleware.MaxBodyBytes(cfg.MaxBodyBytes))
			api.With(httpmiddleware.RateLimit(cfg.RateLimiter, cfg.Logger)).Post("/leads", cfg.IntakeHandler.SubmitLead)
		})
	}

	if cfg.DashboardHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.Compress(5, "application/json", "text/csv"))
			admin.Use(httpmiddleware.MaxBodyBytes(cfg.MaxBodyBytes))
			admin.Mount("/", cfg.DashboardHandler.Routes())
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

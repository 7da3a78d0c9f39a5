package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	v1 "github.com/gosuda/hrm/internal/api/v1"
	"github.com/gosuda/hrm/internal/api/ws"
	"github.com/gosuda/hrm/internal/config"
	"github.com/gosuda/hrm/internal/server/middleware"
)

// HealthCheck reports whether one backing service is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the services the HTTP layer is wired to.
type Deps struct {
	Auth      v1.AuthService
	Companies v1.CompanyService
	Users     v1.UserService
	Employees v1.EmployeeService
	Documents v1.DocumentService
	Logs      v1.LogService
	Dashboard v1.DashboardService
	Resolver  middleware.Resolver
	Activity  ws.Subscriber
	Health    map[string]HealthCheck
	// Registry backs /metrics and the HTTP instruments; nil disables both.
	Registry *prometheus.Registry
	// WebAssets is served on unmatched routes with SPA fallback; nil disables it.
	WebAssets fs.FS
}

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server with all routes wired. ctx bounds the background
// cleanup of the rate limiters.
func New(ctx context.Context, cfg *config.Config, d Deps) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(hlog.NewHandler(log.Logger))
	router.Use(requestIDLogger)
	router.Use(hlog.AccessHandler(accessLog))
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	router.Use(middleware.Origin)
	if d.Registry != nil {
		router.Use(middleware.NewMetrics(d.Registry).Handler)
	}

	cookie := middleware.Cookie{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure}
	session := middleware.Session(d.Resolver, cookie)

	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router,
			ReadTimeout:       cfg.Server.ReadTimeout,
			ReadHeaderTimeout: cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
		},
	}

	// Mount API routes on /api/v1 with two sub-groups:
	// 1. Auth endpoints, open to anonymous callers and limited per client IP.
	// 2. Authenticated group for all other endpoints.
	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ctx, cfg.Security.LoginRPS, cfg.Security.LoginBurst))
			r.Use(middleware.OptionalSession(d.Resolver, cookie))

			authConfig := huma.DefaultConfig("HRM Auth API", "1.0.0")
			authConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			authConfig.OpenAPIPath = "/auth/openapi"
			authConfig.SchemasPath = "/auth/schemas"
			authConfig.DocsPath = ""
			authAPI := humachi.New(r, authConfig)
			registerAuthRoutes(authAPI, d, cookie, cfg.Session.TTL)
		})

		r.Group(func(r chi.Router) {
			r.Use(session)
			r.Use(middleware.RequireAuth())
			r.Use(middleware.RateLimit(ctx, cfg.Security.APIRPS, cfg.Security.APIBurst))

			apiConfig := huma.DefaultConfig("HRM API", "1.0.0")
			apiConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			api := humachi.New(r, apiConfig)
			registerAPIRoutes(api, d, cfg.Storage.MaxUploadBytes)
		})
	})

	// WebSocket routes.
	router.Route("/ws", func(r chi.Router) {
		r.Use(session)
		r.Use(middleware.RequireAuth())
		registerWSRoutes(r, ws.NewHub(d.Activity, cfg.Server.CORSOrigins))
	})

	router.Get("/healthz", healthHandler(d.Health))

	if d.Registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{Registry: d.Registry}))
	}

	// Must be registered last so API and WS routes take priority.
	if d.WebAssets != nil {
		router.NotFound(spaFileServer(d.WebAssets).ServeHTTP)
		log.Info().Msg("web dashboard enabled")
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	ev := hlog.FromRequest(r).Info()
	if status >= http.StatusInternalServerError {
		ev = hlog.FromRequest(r).Error()
	}
	ev.Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("http request")
}

const healthTimeout = 2 * time.Second

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		body := struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks,omitempty"`
		}{Status: "ok", Checks: make(map[string]string, len(checks))}

		for name, check := range checks {
			if err := check(ctx); err != nil {
				hlog.FromRequest(r).Warn().Err(err).Str("check", name).Msg("health check failed")
				body.Checks[name] = "unavailable"
				body.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			body.Checks[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/originhq/origin/internal/auth"
	"github.com/originhq/origin/internal/config"
	"github.com/originhq/origin/internal/docs"
	"github.com/originhq/origin/internal/readiness"
	"github.com/originhq/origin/pkg/apikey"
	"github.com/originhq/origin/pkg/tenant"
)

// Server holds the HTTP server dependencies.
type Server struct {
	Router    *chi.Mux
	V1Router  chi.Router // authenticated, tenant-scoped /v1 sub-router
	Logger    *slog.Logger
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Metrics   *prometheus.Registry
	readiness *readiness.Checker
	limiter   *auth.RateLimiter
	failOpen  bool
	startedAt time.Time
}

// NewServer creates an HTTP server with the middleware chain and
// health/readiness/metrics/docs endpoints mounted. Domain handlers are
// mounted onto V1Router afterward, by the caller (composition root), via
// Mount — since their constructors depend on stores this package knows
// nothing about.
func NewServer(cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client, metricsReg *prometheus.Registry, readinessChecker *readiness.Checker, keys *apikey.Service, tenants *tenant.Store, limiter *auth.RateLimiter) *Server {
	s := &Server{
		Router:    chi.NewRouter(),
		Logger:    logger,
		DB:        db,
		Redis:     rdb,
		Metrics:   metricsReg,
		readiness: readinessChecker,
		limiter:   limiter,
		failOpen:  cfg.IPAllowlistFailsOpen(),
		startedAt: time.Now(),
	}

	s.Router.Use(Correlation)
	s.Router.Use(Logger(logger))
	s.Router.Use(Metrics)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key", "Idempotency-Key", "X-Correlation-Id"},
		ExposedHeaders:   []string{"X-Correlation-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Public routes: no auth, no scope (spec.md §4.12).
	s.Router.Get("/health", s.handleHealth)
	s.Router.Get("/ready", s.handleReady)
	s.Router.Handle("/metrics", promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))
	s.Router.Get("/api/docs", docs.SwaggerUIHandler())
	s.Router.Get("/api/docs/openapi.yaml", docs.OpenAPISpecHandler())

	// Authenticated, tenant-scoped API routes. Scope differs per route,
	// so only authentication is applied at this level — Mount applies
	// the rest of the chain per route group.
	s.Router.Route("/v1", func(r chi.Router) {
		r.Use(auth.Authenticate(keys, tenants, logger))
		r.Use(auth.RequireAuth)
		s.V1Router = r
	})

	return s
}

// Mount wires a domain handler under /v1/<pattern>, enforcing spec.md §9's
// fixed order for everything past authentication: scope, then rate-limit,
// then IP allowlist, then the handler itself.
func (s *Server) Mount(pattern string, scope apikey.Scope, handler http.Handler) {
	r := chi.NewRouter()
	r.Use(auth.RequireScope(scope))
	r.Use(auth.Middleware(s.limiter))
	r.Use(auth.IPAllowlist(s.failOpen))
	r.Mount("/", handler)
	s.V1Router.Mount(pattern, r)
}

// MountMethodScoped is Mount for route groups that mix reads and writes
// under different scopes (spec.md §4.12: /v1/webhooks requires
// webhooks:write for POST and webhooks:read for GET).
func (s *Server) MountMethodScoped(pattern string, readScope, writeScope apikey.Scope, handler http.Handler) {
	r := chi.NewRouter()
	r.Use(auth.RequireMethodScope(readScope, writeScope))
	r.Use(auth.Middleware(s.limiter))
	r.Use(auth.IPAllowlist(s.failOpen))
	r.Mount("/", handler)
	s.V1Router.Mount(pattern, r)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ok, checks := s.readiness.Check(r.Context())
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	Respond(w, status, map[string]any{
		"ready":  ok,
		"checks": checks,
	})
}

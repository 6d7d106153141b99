package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"saas-tenancy/internal/auth"
	"saas-tenancy/internal/catalog"
	"saas-tenancy/internal/config"
	"saas-tenancy/internal/manager"
	"saas-tenancy/internal/messaging"
	"saas-tenancy/internal/metrics"
	"saas-tenancy/internal/ratelimit"
	"saas-tenancy/internal/store"
	"saas-tenancy/internal/tenancy"
)

// HealthCheck is a named dependency probe for /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type API struct {
	Directory *store.Directory
	Catalog   *catalog.Service
	Resolver  *tenancy.Resolver
	Limiter   *ratelimit.Limiter
	Cfg       *config.Config

	// Jobs queues imports; when nil they run inline.
	Jobs      messaging.JobPublisher
	TenantMgr *manager.TenantManager
	Checks    []HealthCheck

	logger *zap.Logger
}

type Option func(*API)

func WithJobs(jobs messaging.JobPublisher) Option {
	return func(a *API) { a.Jobs = jobs }
}

func WithTenantManager(tm *manager.TenantManager) Option {
	return func(a *API) { a.TenantMgr = tm }
}

func WithHealthCheck(name string, check func(ctx context.Context) error) Option {
	return func(a *API) { a.Checks = append(a.Checks, HealthCheck{Name: name, Check: check}) }
}

func NewAPI(
	cfg *config.Config,
	dir *store.Directory,
	products *catalog.Service,
	resolver *tenancy.Resolver,
	logger *zap.Logger,
	opts ...Option,
) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &API{
		Directory: dir,
		Catalog:   products,
		Resolver:  resolver,
		Limiter:   ratelimit.New(cfg.Server.RateLimit, logger),
		Cfg:       cfg,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *API) Router() http.Handler {
	header := a.Cfg.Tenancy.Header
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", a.Health)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Tenant administration; tenants are not tenant-owned, so no binding.
	r.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(a.Limiter, header))
		r.Use(auth.JWTAuthMiddleware(a.logger))

		r.Post("/tenants", a.CreateTenant)
		r.Get("/tenants", a.ListTenants)
		r.Get("/tenants/{id}", a.GetTenant)
		r.Patch("/tenants/{id}", a.UpdateTenant)
		r.Delete("/tenants/{id}", a.DeactivateTenant)
		r.Put("/tenants/{id}/config/concurrency", a.UpdateConcurrency)
	})

	// Tenant data.
	r.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(a.Limiter, header))
		r.Use(tenancy.Middleware(a.Resolver, header, a.logger))

		r.With(auth.JWTAuthMiddleware(a.logger)).Get("/export", a.Export)

		r.Group(func(r chi.Router) {
			r.Use(auth.ActorMiddleware(a.logger))

			r.Get("/products", a.ListProducts)
			r.Get("/products/{id}", a.GetProduct)

			r.Group(func(r chi.Router) {
				r.Use(tenancy.RequireTenant)

				r.Post("/products", a.CreateProduct)
				r.Post("/products/import", a.ImportProducts)
				r.Put("/products/{id}", a.UpdateProduct)
				r.Delete("/products/{id}", a.DeleteProduct)
			})
		})
	})

	return r
}

// @Summary Service health
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(a.Checks))}
	status := http.StatusOK
	for _, c := range a.Checks {
		if err := c.Check(ctx); err != nil {
			a.logger.Warn("health check failed", zap.String("check", c.Name), zap.Error(err))
			resp.Checks[c.Name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.Name] = "ok"
	}
	writeJSON(w, status, resp)
}

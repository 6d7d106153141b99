package tenancy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"saas-tenancy/internal/metrics"
	"saas-tenancy/internal/model"
)

// DefaultHeader carries the tenant hint on inbound requests and job messages.
const DefaultHeader = "X-Tenant-ID"

// DefaultCacheTTL is used when a cache is configured without a TTL.
const DefaultCacheTTL = 5 * time.Minute

// Lookup finds tenants without any tenant filter applied.
// It must return ErrTenantNotFound when no tenant has the identifier.
type Lookup interface {
	FindByIdentifier(ctx context.Context, identifier string) (*model.Tenant, error)
}

// Resolver turns a tenant hint into a bound tenant.
type Resolver struct {
	lookup Lookup
	cache  Cache
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache enables caching of lookups. Entries are dropped by Invalidate.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(r *Resolver) {
		if cache != nil {
			r.cache = cache
		}
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithClock overrides the clock used for validity checks.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewResolver(lookup Lookup, opts ...Option) *Resolver {
	r := &Resolver{
		lookup: lookup,
		cache:  NewNoopCache(),
		ttl:    DefaultCacheTTL,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve binds the tenant named by hint into the operation carried by ctx.
//
// An empty hint, an unknown identifier, or an inactive/expired tenant leave
// the binding empty and return nil: deciding whether an unscoped operation
// may proceed is up to downstream authorization. Only lookup failures and
// binding violations are returned.
func (r *Resolver) Resolve(ctx context.Context, hint string) error {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return nil
	}

	tenant, ok := r.cache.Get(ctx, hint)
	if ok {
		metrics.ResolverCacheHits.Inc()
	} else {
		var err error
		tenant, err = r.lookup.FindByIdentifier(ctx, hint)
		if errors.Is(err, ErrTenantNotFound) {
			metrics.TenantResolutions.WithLabelValues("miss").Inc()
			r.logger.Debug("tenant hint did not match", zap.String("hint", hint))
			return nil
		}
		if err != nil {
			metrics.TenantResolutions.WithLabelValues("error").Inc()
			return fmt.Errorf("resolve tenant %q: %w", hint, err)
		}
		r.cache.Set(ctx, hint, tenant, r.ttl)
	}

	if !tenant.Active || tenant.Expired(r.now()) {
		metrics.TenantResolutions.WithLabelValues("inactive").Inc()
		r.logger.Info("tenant not bound: inactive or expired",
			zap.String("tenant", tenant.Identifier),
			zap.Bool("active", tenant.Active),
			zap.Time("valid_until", tenant.ValidUntil),
		)
		return nil
	}

	if err := Bind(ctx, tenant); err != nil {
		metrics.TenantResolutions.WithLabelValues("error").Inc()
		return err
	}
	metrics.TenantResolutions.WithLabelValues("bound").Inc()
	return nil
}

// Invalidate drops any cached entry for the identifier.
// Call it whenever a tenant record changes.
func (r *Resolver) Invalidate(ctx context.Context, identifier string) {
	r.cache.Delete(ctx, identifier)
}

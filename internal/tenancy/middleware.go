package tenancy

import (
	"net/http"

	"go.uber.org/zap"
)

// Middleware gives every request its own binding and resolves the tenant
// named by header into it. Requests without a (known, active) tenant are
// passed on unbound.
func Middleware(resolver *Resolver, header string, logger *zap.Logger) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultHeader
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := NewContext(r.Context())

			if err := resolver.Resolve(ctx, r.Header.Get(header)); err != nil {
				logger.Error("tenant resolution failed", zap.String("path", r.URL.Path), zap.Error(err))
				http.Error(w, "tenant resolution failed", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTenant rejects requests that reach it without a bound tenant.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := Current(r.Context()); !ok {
			http.Error(w, ErrTenantRequired.Error(), http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

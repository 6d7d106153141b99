// internal/auth/middleware.go
package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"saas-tenancy/internal/audit"
	"saas-tenancy/internal/tenancy"
)

// JWTAuthMiddleware rejects requests without a valid Bearer token and records
// the token subject as the audit actor. A token pinned to a tenant is only
// accepted for requests bound to that tenant.
func JWTAuthMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return authenticate(logger, true)
}

// ActorMiddleware is JWTAuthMiddleware for routes where the token is optional.
// Requests without one pass through and are audited as the system actor.
// Both must run after tenant resolution.
func ActorMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return authenticate(logger, false)
}

func authenticate(logger *zap.Logger, required bool) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" && !required {
				next.ServeHTTP(w, r)
				return
			}
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if claims.Tenant != "" {
				if key, _ := tenancy.Key(r.Context()); key != claims.Tenant {
					logger.Warn("token tenant mismatch",
						zap.String("subject", claims.Subject),
						zap.String("token_tenant", claims.Tenant),
						zap.String("bound_tenant", key),
					)
					http.Error(w, "token not valid for this tenant", http.StatusForbidden)
					return
				}
			}

			ctx := audit.WithActor(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

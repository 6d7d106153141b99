package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saas-tenancy/internal/audit"
	"saas-tenancy/internal/model"
	"saas-tenancy/internal/tenancy"
)

func init() {
	SetSecret("test-secret")
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("alice", "acme")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "acme", claims.Tenant)
}

func TestValidateTokenRejectsBadTokens(t *testing.T) {
	_, err := ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	signed, err := expired.SignedString(JWTSecret)
	require.NoError(t, err)
	_, err = ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}})
	signed, err = other.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{})
	signed, err = anonymous.SignedString(JWTSecret)
	require.NoError(t, err)
	_, err = ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// serve runs the middleware on a request bound to tenant (if non-empty) and
// returns the response with the actor seen by the handler.
func serve(t *testing.T, tenant, authorization string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	return serveWith(t, ActorMiddleware(nil), tenant, authorization)
}

func serveWith(t *testing.T, mw func(http.Handler) http.Handler, tenant, authorization string) (*httptest.ResponseRecorder, string) {
	t.Helper()

	var actor string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = audit.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	ctx := tenancy.NewContext(context.Background())
	if tenant != "" {
		require.NoError(t, tenancy.Bind(ctx, &model.Tenant{Identifier: tenant}))
	}
	req := httptest.NewRequest(http.MethodGet, "/products", nil).WithContext(ctx)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, actor
}

func TestActorMiddleware(t *testing.T) {
	pinned, err := GenerateToken("alice", "acme")
	require.NoError(t, err)
	unpinned, err := GenerateToken("ops", "")
	require.NoError(t, err)

	rec, actor := serve(t, "acme", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, audit.SystemActor, actor)

	rec, actor = serve(t, "acme", "Bearer "+pinned)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "alice", actor)

	rec, actor = serve(t, "globex", "Bearer "+unpinned)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "ops", actor)

	rec, _ = serve(t, "globex", "Bearer "+pinned)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = serve(t, "", "Bearer "+pinned)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = serve(t, "acme", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serve(t, "acme", "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthMiddlewareRequiresToken(t *testing.T) {
	mw := JWTAuthMiddleware(nil)
	pinned, err := GenerateToken("alice", "acme")
	require.NoError(t, err)
	unpinned, err := GenerateToken("ops", "")
	require.NoError(t, err)

	rec, _ := serveWith(t, mw, "acme", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serveWith(t, mw, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serveWith(t, mw, "acme", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, actor := serveWith(t, mw, "acme", "Bearer "+pinned)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "alice", actor)

	rec, actor = serveWith(t, mw, "", "Bearer "+unpinned)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "ops", actor)

	rec, _ = serveWith(t, mw, "", "Bearer "+pinned)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

package oauth_library

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-oauth/storage/memory"

	"github.com/teemow/inboxpulse/internal/instrumentation"
)

func TestSSOAccessTokenMiddleware_NoUser(t *testing.T) {
	// Requests without an authenticated user pass through without storing tokens
	store := memory.New()
	defer store.Stop()

	handler := SSOAccessTokenMiddleware(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set(SSOAccessTokenHeader, "test-access-token")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSSOAccessTokenMiddleware_NoAccessToken(t *testing.T) {
	// Requests without X-Google-Access-Token header pass through normally
	store := memory.New()
	defer store.Stop()

	handler := SSOAccessTokenMiddleware(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	userInfo := &UserInfo{
		Email: "test@example.com",
		Name:  "Test User",
	}
	req = req.WithContext(ContextWithUserInfo(req.Context(), userInfo))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	// Token should not be stored
	_, err := store.GetToken(req.Context(), "test@example.com")
	assert.Error(t, err)
}

func TestSSOAccessTokenMiddleware_StoresAccessToken(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	var handlerCalled bool
	var tokenFromContext string
	handler := SSOAccessTokenMiddleware(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		tokenFromContext, _ = GetGoogleAccessTokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set(SSOAccessTokenHeader, "forwarded-access-token")

	userInfo := &UserInfo{
		Email: "sso-user@example.com",
		Name:  "SSO User",
	}
	req = req.WithContext(ContextWithUserInfo(req.Context(), userInfo))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, handlerCalled)
	assert.Equal(t, "forwarded-access-token", tokenFromContext)

	token, err := store.GetToken(req.Context(), "sso-user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "forwarded-access-token", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	// Expiry defaults to approximately 1 hour from now
	assert.WithinDuration(t, time.Now().Add(1*time.Hour), token.Expiry, 5*time.Second)
}

func TestSSOAccessTokenMiddleware_WithRefreshTokenAndExpiry(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	handler := SSOAccessTokenMiddleware(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	expiry := time.Now().Add(30 * time.Minute).UTC().Truncate(time.Second)

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set(SSOAccessTokenHeader, "access-token")
	req.Header.Set(SSORefreshTokenHeader, "refresh-token")
	req.Header.Set(SSOTokenExpiryHeader, expiry.Format(time.RFC3339))

	userInfo := &UserInfo{
		Email: "refresh-user@example.com",
		Name:  "Refresh User",
	}
	req = req.WithContext(ContextWithUserInfo(req.Context(), userInfo))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	token, err := store.GetToken(req.Context(), "refresh-user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "access-token", token.AccessToken)
	assert.Equal(t, "refresh-token", token.RefreshToken)
	assert.True(t, token.Expiry.Equal(expiry))
}

type fakeSSOMetrics struct {
	results []string
}

func (f *fakeSSOMetrics) RecordSSOTokenInjection(_ context.Context, result string) {
	f.results = append(f.results, result)
}

func TestSSOAccessTokenMiddleware_RecordsMetrics(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	metrics := &fakeSSOMetrics{}
	handler := SSOAccessTokenMiddlewareWithConfig(&SSOMiddlewareConfig{
		Store:   store,
		Metrics: metrics,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Unauthenticated request
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	// Authenticated request without forwarded token
	req = httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req = req.WithContext(ContextWithUserInfo(req.Context(), &UserInfo{Email: "user@example.com"}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, metrics.results, 2)
	assert.Equal(t, instrumentation.SSOInjectionResultNoUser, metrics.results[0])
	assert.Equal(t, instrumentation.SSOInjectionResultNoToken, metrics.results[1])
}

func TestParseTokenExpiry(t *testing.T) {
	t.Run("empty value defaults to one hour", func(t *testing.T) {
		expiry := parseTokenExpiry("")
		assert.WithinDuration(t, time.Now().Add(defaultAccessTokenExpiry), expiry, 5*time.Second)
	})

	t.Run("invalid value defaults to one hour", func(t *testing.T) {
		expiry := parseTokenExpiry("not-a-timestamp")
		assert.WithinDuration(t, time.Now().Add(defaultAccessTokenExpiry), expiry, 5*time.Second)
	})

	t.Run("valid RFC3339 value", func(t *testing.T) {
		want := time.Date(2026, 8, 25, 15, 4, 5, 0, time.UTC)
		expiry := parseTokenExpiry(want.Format(time.RFC3339))
		assert.True(t, expiry.Equal(want))
	})
}

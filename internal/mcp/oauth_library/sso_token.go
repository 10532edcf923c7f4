package oauth_library

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/giantswarm/mcp-oauth/storage"

	"github.com/teemow/inboxpulse/internal/instrumentation"
	"github.com/teemow/inboxpulse/internal/logging"
)

const (
	// SSOAccessTokenHeader carries the user's Google access token when an
	// upstream SSO aggregator forwards requests. The ID token in the
	// Authorization header proves identity; the access token grants
	// Gmail API access with the required scopes.
	SSOAccessTokenHeader = "X-Google-Access-Token"

	// SSORefreshTokenHeader optionally carries a Google refresh token,
	// enabling automatic refresh for long-running sessions.
	SSORefreshTokenHeader = "X-Google-Refresh-Token"

	// SSOTokenExpiryHeader optionally carries the access token expiry in
	// RFC3339 format. Without it a one hour expiry is assumed.
	SSOTokenExpiryHeader = "X-Google-Token-Expiry"

	// Google access tokens typically expire in 1 hour.
	defaultAccessTokenExpiry = 1 * time.Hour

	tokenStoreTimeout = 5 * time.Second
)

// SSOMetricsRecorder records SSO token injection metrics without
// depending on the full Metrics type.
type SSOMetricsRecorder interface {
	RecordSSOTokenInjection(ctx context.Context, result string)
}

// SSOMiddlewareConfig holds configuration for the SSO access token
// middleware.
type SSOMiddlewareConfig struct {
	// Store is the token store to save forwarded access tokens
	Store storage.TokenStore

	// Logger for audit and debug logging (optional, uses slog.Default if nil)
	Logger *slog.Logger

	// Metrics for recording SSO token injection metrics (optional)
	Metrics SSOMetricsRecorder
}

// SSOAccessTokenMiddleware creates middleware that extracts and stores
// forwarded Google access tokens. It must wrap handlers that are
// already protected by OAuth validation, since it reads the
// authenticated user from the request context.
//
// Flow with an upstream aggregator:
//  1. The aggregator validates the user with Google OAuth
//  2. It forwards the ID token in the Authorization header
//  3. It forwards the access token in X-Google-Access-Token
//  4. This middleware stores the access token for Gmail API calls and
//     injects it into the request context
func SSOAccessTokenMiddleware(store storage.TokenStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return SSOAccessTokenMiddlewareWithConfig(&SSOMiddlewareConfig{
		Store:  store,
		Logger: logger,
	})
}

// SSOAccessTokenMiddlewareWithConfig creates middleware with full
// configuration including metrics.
func SSOAccessTokenMiddlewareWithConfig(config *SSOMiddlewareConfig) func(http.Handler) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	recordMetric := func(ctx context.Context, result string) {
		if config.Metrics != nil {
			config.Metrics.RecordSSOTokenInjection(ctx, result)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// The OAuth middleware already returned 401 if auth was
			// required, so unauthenticated requests just pass through.
			userInfo, ok := GetUserFromContext(ctx)
			if !ok || userInfo == nil || userInfo.Email == "" {
				recordMetric(ctx, instrumentation.SSOInjectionResultNoUser)
				next.ServeHTTP(w, r)
				return
			}

			accessToken := r.Header.Get(SSOAccessTokenHeader)
			if accessToken == "" {
				// User authenticated directly with this server.
				recordMetric(ctx, instrumentation.SSOInjectionResultNoToken)
				next.ServeHTTP(w, r)
				return
			}

			refreshToken := r.Header.Get(SSORefreshTokenHeader)
			expiry := parseTokenExpiry(r.Header.Get(SSOTokenExpiryHeader))

			token := &oauth2.Token{
				AccessToken:  accessToken,
				RefreshToken: refreshToken,
				TokenType:    "Bearer",
				Expiry:       expiry,
			}

			storeCtx, cancel := context.WithTimeout(ctx, tokenStoreTimeout)
			storeErr := config.Store.SaveToken(storeCtx, userInfo.Email, token)
			cancel()

			if storeErr != nil {
				logger.Error("Failed to store forwarded SSO access token",
					logging.UserHash(userInfo.Email),
					logging.Err(storeErr),
				)
				recordMetric(ctx, instrumentation.SSOInjectionResultStoreFailed)
				// Continue anyway, the token can still travel via context.
			} else {
				logger.Info("Stored forwarded SSO access token",
					logging.UserHash(userInfo.Email),
					slog.Bool("has_refresh_token", refreshToken != ""),
					slog.String("expires_in", time.Until(expiry).Round(time.Second).String()),
					slog.Bool("is_sso", userInfo.IsSSO()),
				)
			}

			// Inject the access token into the request context so tools
			// can read it via GetGoogleAccessTokenFromContext without a
			// store lookup.
			ctx = ContextWithGoogleAccessToken(ctx, accessToken)
			r = r.WithContext(ctx)

			if userInfo.IsSSO() {
				logger.Debug("SSO token injection: using SSO-forwarded token",
					logging.UserHash(userInfo.Email))
				recordMetric(ctx, instrumentation.SSOInjectionResultSuccess)
			} else if storeErr == nil {
				// Non-SSO flow with access token header (unusual but supported)
				logger.Debug("SSO token injection: token stored for non-SSO user",
					logging.UserHash(userInfo.Email))
				recordMetric(ctx, instrumentation.SSOInjectionResultStored)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// parseTokenExpiry parses the expiry header value, falling back to one
// hour from now when the value is empty or invalid.
func parseTokenExpiry(expiryStr string) time.Time {
	if expiryStr == "" {
		return time.Now().Add(defaultAccessTokenExpiry)
	}

	expiry, err := time.Parse(time.RFC3339, expiryStr)
	if err != nil {
		return time.Now().Add(defaultAccessTokenExpiry)
	}

	return expiry
}

// WrapWithSSOAccessToken wraps an HTTP handler with the SSO access
// token middleware.
func WrapWithSSOAccessToken(handler http.Handler, store storage.TokenStore, logger *slog.Logger) http.Handler {
	return SSOAccessTokenMiddleware(store, logger)(handler)
}

// WrapWithSSOAccessTokenAndMetrics is like WrapWithSSOAccessToken but
// also records injection metrics.
func WrapWithSSOAccessTokenAndMetrics(handler http.Handler, store storage.TokenStore, logger *slog.Logger, metrics SSOMetricsRecorder) http.Handler {
	return SSOAccessTokenMiddlewareWithConfig(&SSOMiddlewareConfig{
		Store:   store,
		Logger:  logger,
		Metrics: metrics,
	})(handler)
}

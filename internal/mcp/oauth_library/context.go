package oauth_library

import (
	"context"

	mcpoauth "github.com/giantswarm/mcp-oauth"
	"github.com/giantswarm/mcp-oauth/providers"
)

// UserInfo describes the authenticated user as reported by the identity
// provider.
type UserInfo = providers.UserInfo

// contextKey is a private type for context keys defined in this package.
type contextKey string

// googleAccessTokenKey stores a forwarded Google access token.
const googleAccessTokenKey contextKey = "google_access_token"

// ContextWithUserInfo returns a context carrying the authenticated user.
// The token validation middleware sets this automatically; tests use it
// to simulate authenticated requests.
func ContextWithUserInfo(ctx context.Context, userInfo *UserInfo) context.Context {
	return mcpoauth.ContextWithUserInfo(ctx, userInfo)
}

// GetUserFromContext retrieves the authenticated user from the request
// context. Returns false when the request was not authenticated.
func GetUserFromContext(ctx context.Context) (*UserInfo, bool) {
	return mcpoauth.UserInfoFromContext(ctx)
}

// ContextWithGoogleAccessToken returns a context carrying a Google
// access token forwarded by an upstream SSO aggregator.
func ContextWithGoogleAccessToken(ctx context.Context, accessToken string) context.Context {
	return context.WithValue(ctx, googleAccessTokenKey, accessToken)
}

// GetGoogleAccessTokenFromContext retrieves a forwarded Google access
// token from the request context, if one was injected.
func GetGoogleAccessTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(googleAccessTokenKey).(string)
	return token, ok && token != ""
}

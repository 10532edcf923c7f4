package oauth_library

import (
	mcpoauth "github.com/giantswarm/mcp-oauth"
	"github.com/giantswarm/mcp-oauth/providers"
)

// AuthorizationURLOptions contains optional OIDC parameters for the
// authorization request, enabling silent re-authentication and user
// hints per OpenID Connect Core 1.0 Section 3.1.2.1.
//
// Common usage for silent authentication:
//
//	opts := &oauth_library.AuthorizationURLOptions{
//	    Prompt:    "none",
//	    LoginHint: "user@example.com",
//	}
type AuthorizationURLOptions = providers.AuthorizationURLOptions

// SilentAuthError represents an error from a silent authentication
// attempt. These errors indicate the IdP requires user interaction and
// the client should fall back to interactive login.
type SilentAuthError = mcpoauth.SilentAuthError

// CallbackResult holds the parsed query parameters from an OAuth
// redirect. Use Err() to get a typed error for error responses,
// including SilentAuthError for silent authentication failures.
type CallbackResult = mcpoauth.CallbackResult

// IsSilentAuthError returns true if the error indicates silent
// authentication failed and interactive login is required. Silent
// authentication fails when the IdP requires user interaction but the
// authorization request used prompt=none.
func IsSilentAuthError(err error) bool {
	return mcpoauth.IsSilentAuthError(err)
}

// ParseOAuthError parses an OAuth error response. Silent auth failure
// codes (login_required, consent_required, interaction_required,
// account_selection_required) yield a *SilentAuthError; other codes a
// generic error. Returns nil if errorCode is empty.
func ParseOAuthError(errorCode, errorDescription string) error {
	return mcpoauth.ParseOAuthError(errorCode, errorDescription)
}

// ParseCallbackQuery creates a CallbackResult from OAuth callback query
// parameters.
func ParseCallbackQuery(code, state, errorCode, errorDescription, errorURI string) *CallbackResult {
	return mcpoauth.ParseCallbackQuery(code, state, errorCode, errorDescription, errorURI)
}

// OAuth error codes for silent authentication failures, per OIDC Core
// Section 3.1.2.6.
const (
	ErrorCodeLoginRequired            = mcpoauth.ErrorCodeLoginRequired
	ErrorCodeConsentRequired          = mcpoauth.ErrorCodeConsentRequired
	ErrorCodeInteractionRequired      = mcpoauth.ErrorCodeInteractionRequired
	ErrorCodeAccountSelectionRequired = mcpoauth.ErrorCodeAccountSelectionRequired
)

// OIDC prompt values for AuthorizationURLOptions.Prompt.
const (
	// PromptNone requests silent authentication. The IdP returns an
	// error instead of displaying UI when interaction is needed.
	PromptNone = "none"

	// PromptLogin forces re-authentication even if a session exists.
	PromptLogin = "login"

	// PromptConsent forces the consent screen even if previously granted.
	PromptConsent = "consent"

	// PromptSelectAccount forces account selection.
	PromptSelectAccount = "select_account"
)

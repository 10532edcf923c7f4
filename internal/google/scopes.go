package google

import gmail "google.golang.org/api/gmail/v1"

// DefaultOAuthScopes are the Google OAuth scopes the service requests.
// Inbox insights are strictly read-only, so only the read-only Gmail
// scope is included alongside the OpenID Connect scopes needed for
// user identification in the HTTP OAuth flow.
var DefaultOAuthScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",

	gmail.GmailReadonlyScope,
}

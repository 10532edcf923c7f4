// Package oauth_library adapts the github.com/giantswarm/mcp-oauth
// library for inboxpulse. It wires Google as the upstream identity
// provider, exposes the OAuth 2.1 endpoints and token validation
// middleware used by the HTTP transport, and bridges the library's
// token store to the google.TokenProvider interface so Gmail clients
// can be built from OAuth-acquired tokens.
//
// The package also carries the SSO access token middleware: when an
// upstream aggregator forwards a user's Google access token in the
// X-Google-Access-Token header, the middleware stores it and injects it
// into the request context for downstream Gmail API calls.
package oauth_library

// Package server provides the MCP server context, session management,
// and OAuth-enabled HTTP server for the inboxpulse application.
//
// # Key Components
//
// ServerContext manages Gmail clients and insight engines with lazy
// initialization and caching. It supports multiple accounts; each
// account gets its own client and engine, created on first use.
//
// OAuthHTTPServer wraps an MCP server with OAuth 2.1 authentication:
//   - Authorization Server Metadata (RFC 8414)
//   - Protected Resource Metadata (RFC 9728)
//   - Dynamic Client Registration (RFC 7591)
//   - Token Revocation (RFC 7009)
//   - Token Introspection (RFC 7662)
//
// SessionIDManager handles multi-account session tracking for HTTP
// transport. It maps Bearer tokens to Google accounts, enabling
// multiple users to share a single MCP server instance.
//
// MetricsServer exposes Prometheus metrics on a dedicated port so
// operational data never shares a listener with client traffic, and
// HealthChecker provides the liveness and readiness endpoints used by
// Kubernetes probes.
//
// # Security Features
//
// The OAuth server includes security-focused defaults:
//   - HTTPS required for production (localhost exempt for development)
//   - PKCE required (OAuth 2.1 compliance)
//   - State parameter required for CSRF protection
//   - Rate limiting per IP and per authenticated user
//   - Audit logging for authentication events
package server

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxpulse/internal/google"
	"github.com/teemow/inboxpulse/internal/instrumentation"
	"github.com/teemow/inboxpulse/internal/mcp/oauth_library"
)

// OAuthConfig holds the settings for the OAuth-enabled HTTP transport.
type OAuthConfig struct {
	// BaseURL is the externally visible base URL of the server, used as
	// the OAuth issuer and for redirect URIs.
	BaseURL string

	// Google OAuth client credentials.
	GoogleClientID     string
	GoogleClientSecret string

	// DisableStreaming forces plain JSON responses on the /mcp endpoint
	// for clients that cannot handle SSE streams.
	DisableStreaming bool

	// DebugMode enables verbose request logging.
	DebugMode bool

	// AllowPublicClientRegistration permits dynamic client registration
	// without a registration access token.
	AllowPublicClientRegistration bool

	// RegistrationAccessToken protects /oauth/register when public
	// registration is disabled.
	RegistrationAccessToken string

	// AllowInsecureAuthWithoutState disables the OAuth state requirement.
	// Development only.
	AllowInsecureAuthWithoutState bool

	// MaxClientsPerIP caps dynamic client registrations per source IP.
	MaxClientsPerIP int
}

// OAuthHTTPServer wraps an MCP server with OAuth 2.1 authentication
// backed by the mcp-oauth library. It implements RFC 9728 Protected
// Resource Metadata so MCP clients can discover the authorization
// server, plus the full set of OAuth endpoints.
type OAuthHTTPServer struct {
	mcpServer        *mcpserver.MCPServer
	oauthHandler     *oauth_library.Handler
	httpServer       *http.Server
	serverType       string // "streamable-http"
	disableStreaming bool
	metrics          *instrumentation.Metrics
	sessions         *SessionIDManager
	healthChecker    *HealthChecker
}

// CreateOAuthHandler creates an OAuth handler for use with the HTTP
// transport. Creating the handler before the MCP server allows the
// token provider to be injected into the server context.
func CreateOAuthHandler(config OAuthConfig) (*oauth_library.Handler, error) {
	libraryConfig := &oauth_library.Config{
		BaseURL:            config.BaseURL,
		GoogleClientID:     config.GoogleClientID,
		GoogleClientSecret: config.GoogleClientSecret,
		Scopes:             google.DefaultOAuthScopes,
		Security: oauth_library.SecurityConfig{
			AllowPublicClientRegistration: config.AllowPublicClientRegistration,
			RegistrationAccessToken:       config.RegistrationAccessToken,
			AllowInsecureAuthWithoutState: config.AllowInsecureAuthWithoutState,
			MaxClientsPerIP:               config.MaxClientsPerIP,
			EnableAuditLogging:            true, // Always enable audit logging
		},
		RateLimit: oauth_library.RateLimitConfig{
			Rate:      10,  // 10 req/sec per IP
			Burst:     20,  // Allow burst of 20
			UserRate:  100, // 100 req/sec per authenticated user
			UserBurst: 200, // Allow burst of 200
		},
	}

	return oauth_library.NewHandler(libraryConfig)
}

// NewOAuthHTTPServer creates a new OAuth-enabled HTTP server for MCP.
func NewOAuthHTTPServer(mcpServer *mcpserver.MCPServer, serverType string, config OAuthConfig) (*OAuthHTTPServer, error) {
	oauthHandler, err := CreateOAuthHandler(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth handler: %w", err)
	}

	return &OAuthHTTPServer{
		mcpServer:        mcpServer,
		oauthHandler:     oauthHandler,
		serverType:       serverType,
		disableStreaming: config.DisableStreaming,
		sessions:         NewSessionIDManager(),
	}, nil
}

// NewOAuthHTTPServerWithHandler creates a new OAuth-enabled HTTP server
// with an existing handler.
func NewOAuthHTTPServerWithHandler(mcpServer *mcpserver.MCPServer, serverType string, oauthHandler *oauth_library.Handler, disableStreaming bool) (*OAuthHTTPServer, error) {
	return &OAuthHTTPServer{
		mcpServer:        mcpServer,
		oauthHandler:     oauthHandler,
		serverType:       serverType,
		disableStreaming: disableStreaming,
		sessions:         NewSessionIDManager(),
	}, nil
}

// SetMetrics attaches instrumentation metrics to the server. Must be
// called before Start to take effect.
func (s *OAuthHTTPServer) SetMetrics(metrics *instrumentation.Metrics) {
	s.metrics = metrics
}

// SetHealthChecker attaches health check endpoints to the server. Must
// be called before Start to take effect.
func (s *OAuthHTTPServer) SetHealthChecker(hc *HealthChecker) {
	s.healthChecker = hc
}

// Start starts the OAuth-enabled HTTP server
func (s *OAuthHTTPServer) Start(addr string) error {
	// Validate HTTPS requirement for OAuth 2.1
	baseURL := s.oauthHandler.GetServer().Config.Issuer
	if err := validateHTTPSRequirement(baseURL); err != nil {
		return err
	}

	mux := http.NewServeMux()

	// Get the library's HTTP handler
	libHandler := s.oauthHandler.GetHandler()

	// ========== OAuth 2.1 Endpoints ==========

	// Protected Resource Metadata endpoint (RFC 9728)
	mux.HandleFunc("/.well-known/oauth-protected-resource", libHandler.ServeProtectedResourceMetadata)

	// Authorization Server Metadata endpoint (RFC 8414)
	mux.HandleFunc("/.well-known/oauth-authorization-server", libHandler.ServeAuthorizationServerMetadata)

	// Dynamic Client Registration endpoint (RFC 7591)
	mux.HandleFunc("/oauth/register", libHandler.ServeClientRegistration)

	// OAuth Authorization endpoint
	mux.HandleFunc("/oauth/authorize", libHandler.ServeAuthorization)

	// OAuth Token endpoint
	mux.HandleFunc("/oauth/token", libHandler.ServeToken)

	// OAuth Callback endpoint (from provider)
	mux.HandleFunc("/oauth/callback", libHandler.ServeCallback)

	// Token Revocation endpoint (RFC 7009)
	mux.HandleFunc("/oauth/revoke", libHandler.ServeTokenRevocation)

	// Token Introspection endpoint (RFC 7662)
	mux.HandleFunc("/oauth/introspect", libHandler.ServeTokenIntrospection)

	// ========== Health Endpoints ==========

	if s.healthChecker != nil {
		s.healthChecker.RegisterHealthEndpoints(mux)
	}

	// ========== MCP Endpoints ==========

	// Register MCP endpoints based on server type
	switch s.serverType {
	case "streamable-http":
		// Create Streamable HTTP server
		var httpServer http.Handler
		if s.disableStreaming {
			httpServer = mcpserver.NewStreamableHTTPServer(s.mcpServer,
				mcpserver.WithEndpointPath("/mcp"),
				mcpserver.WithDisableStreaming(true),
			)
		} else {
			httpServer = mcpserver.NewStreamableHTTPServer(s.mcpServer,
				mcpserver.WithEndpointPath("/mcp"),
			)
		}

		// Wrap MCP endpoint with OAuth middleware and instrumentation.
		// Token validation runs first so the SSO middleware can read the
		// authenticated user from the request context.
		mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httpServer.ServeHTTP(w, r)
		})
		var ssoMetrics oauth_library.SSOMetricsRecorder
		if s.metrics != nil {
			ssoMetrics = s.metrics
		}
		ssoHandler := oauth_library.WrapWithSSOAccessTokenAndMetrics(
			mcpHandler, s.oauthHandler.TokenStore(), slog.Default(), ssoMetrics)
		mux.Handle("/mcp", s.oauthInstrumentationWrapper(libHandler.ValidateToken(ssoHandler)))

	default:
		return fmt.Errorf("unsupported server type: %s", s.serverType)
	}

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.instrumentationMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *OAuthHTTPServer) Shutdown(ctx context.Context) error {
	// Stop the OAuth handler's background services
	if s.oauthHandler != nil {
		s.oauthHandler.Stop()
	}

	if s.sessions != nil {
		s.sessions.Stop()
	}

	// Shutdown HTTP server
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// GetOAuthHandler returns the OAuth handler for testing or direct access
func (s *OAuthHTTPServer) GetOAuthHandler() *oauth_library.Handler {
	return s.oauthHandler
}

// responseWriter captures the status code written by a handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// instrumentationMiddleware records request metrics for every endpoint.
// It is a no-op when no metrics are attached.
func (s *OAuthHTTPServer) instrumentationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

// oauthInstrumentationWrapper records authentication outcomes and
// session activity for the MCP endpoint. A 401 response means token
// validation rejected the request; anything else passed authentication.
func (s *OAuthHTTPServer) oauthInstrumentationWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		result := instrumentation.StatusSuccess
		if rw.statusCode == http.StatusUnauthorized {
			result = instrumentation.StatusError
		}
		s.metrics.RecordOAuthAuth(r.Context(), result)

		if result == instrumentation.StatusSuccess {
			s.trackSession(r)
		}
	})
}

// trackSession derives a session ID from the request's Bearer token and
// registers it on first sight so concurrent users are visible in the
// active session gauge.
func (s *OAuthHTTPServer) trackSession(r *http.Request) {
	if s.sessions == nil {
		return
	}

	sessionID, err := s.sessions.ResolveSessionID(r)
	if err != nil {
		return
	}

	if !s.sessions.HasSession(sessionID) {
		s.sessions.SetAccountForSession(sessionID, "default")
		if s.metrics != nil {
			s.metrics.IncrementActiveSessions(r.Context())
		}
	}
}

// validateHTTPSRequirement ensures OAuth 2.1 HTTPS compliance
// Allows HTTP only for loopback addresses (localhost, 127.0.0.1, ::1)
func validateHTTPSRequirement(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	// Parse URL to properly validate scheme and host
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	// Allow HTTP only for loopback addresses
	if u.Scheme == "http" {
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return fmt.Errorf("OAuth 2.1 requires HTTPS for production (got: %s). Use HTTPS or localhost for development", baseURL)
		}
	} else if u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s. Must be http (localhost only) or https", u.Scheme)
	}

	return nil
}

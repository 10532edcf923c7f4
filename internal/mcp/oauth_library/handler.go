package oauth_library

import (
	"fmt"
	"log/slog"

	mcpoauth "github.com/giantswarm/mcp-oauth"
	"github.com/giantswarm/mcp-oauth/providers/google"
	"github.com/giantswarm/mcp-oauth/security"
	"github.com/giantswarm/mcp-oauth/storage"
	"github.com/giantswarm/mcp-oauth/storage/memory"
)

// SecurityConfig holds the security-related knobs passed through to the
// mcp-oauth library.
type SecurityConfig struct {
	// AllowPublicClientRegistration permits client registration without
	// a registration access token. Keep disabled in production.
	AllowPublicClientRegistration bool

	// RegistrationAccessToken protects the client registration endpoint
	// when public registration is disabled.
	RegistrationAccessToken string

	// AllowInsecureAuthWithoutState disables the state parameter
	// requirement. Development only; state is CSRF protection.
	AllowInsecureAuthWithoutState bool

	// MaxClientsPerIP caps dynamic client registrations per source IP.
	MaxClientsPerIP int

	// EnableAuditLogging turns on the library's auth event logging.
	EnableAuditLogging bool
}

// RateLimitConfig holds request rate limits for the OAuth endpoints.
type RateLimitConfig struct {
	Rate      int // requests per second per IP
	Burst     int
	UserRate  int // requests per second per authenticated user
	UserBurst int
}

// Config configures the OAuth handler.
type Config struct {
	// BaseURL is the externally visible base URL of this server; it
	// becomes the OAuth issuer.
	BaseURL string

	// Google OAuth client credentials for the upstream provider.
	GoogleClientID     string
	GoogleClientSecret string

	// Scopes requested from Google. When empty the provider's defaults
	// are used.
	Scopes []string

	Security  SecurityConfig
	RateLimit RateLimitConfig
}

// Handler wraps the mcp-oauth server with an in-memory token store and
// exposes the pieces the HTTP transport needs.
type Handler struct {
	server  *mcpoauth.Server
	handler *mcpoauth.Handler
	store   *memory.Store
}

// NewHandler creates an OAuth handler backed by the mcp-oauth library
// with Google as the upstream identity provider.
func NewHandler(cfg *Config) (*Handler, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil, fmt.Errorf("Google OAuth client credentials are required")
	}

	provider, err := google.NewProvider(&google.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.BaseURL + "/oauth/callback",
		Scopes:       cfg.Scopes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google provider: %w", err)
	}

	store := memory.New()

	server, err := mcpoauth.NewServer(provider, store, store, store, &mcpoauth.ServerConfig{
		Issuer:                        cfg.BaseURL,
		AllowPublicClientRegistration: cfg.Security.AllowPublicClientRegistration,
		RegistrationAccessToken:       cfg.Security.RegistrationAccessToken,
		AllowNoStateParameter:         cfg.Security.AllowInsecureAuthWithoutState,
		MaxClientsPerIP:               cfg.Security.MaxClientsPerIP,
	}, slog.Default())
	if err != nil {
		store.Stop()
		return nil, fmt.Errorf("failed to create OAuth server: %w", err)
	}

	server.SetAuditor(security.NewAuditor(slog.Default(), cfg.Security.EnableAuditLogging))
	if cfg.RateLimit.Rate > 0 {
		server.SetRateLimiter(security.NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst, slog.Default()))
	}
	if cfg.RateLimit.UserRate > 0 {
		server.SetUserRateLimiter(security.NewRateLimiter(cfg.RateLimit.UserRate, cfg.RateLimit.UserBurst, slog.Default()))
	}

	return &Handler{
		server:  server,
		handler: mcpoauth.NewHandler(server, slog.Default()),
		store:   store,
	}, nil
}

// GetHandler returns the mcp-oauth HTTP handler, which serves the OAuth
// HTTP endpoints and the token validation middleware.
func (h *Handler) GetHandler() *mcpoauth.Handler {
	return h.handler
}

// GetServer returns the underlying mcp-oauth server.
func (h *Handler) GetServer() *mcpoauth.Server {
	return h.server
}

// TokenStore returns the token store holding Google tokens for
// authenticated users.
func (h *Handler) TokenStore() storage.TokenStore {
	return h.store
}

// Stop shuts down the handler's background services.
func (h *Handler) Stop() {
	if h.store != nil {
		h.store.Stop()
	}
}

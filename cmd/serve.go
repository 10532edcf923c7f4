package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxpulse/internal/google"
	"github.com/teemow/inboxpulse/internal/insights"
	"github.com/teemow/inboxpulse/internal/instrumentation"
	"github.com/teemow/inboxpulse/internal/mcp/oauth_library"
	"github.com/teemow/inboxpulse/internal/resources"
	"github.com/teemow/inboxpulse/internal/server"
	"github.com/teemow/inboxpulse/internal/tools/google_tools"
	"github.com/teemow/inboxpulse/internal/tools/insight_tools"
)

// OAuthSecurityConfig holds OAuth security settings for the HTTP
// transport.
type OAuthSecurityConfig struct {
	AllowPublicClientRegistration bool
	RegistrationAccessToken       string
	AllowInsecureAuthWithoutState bool
	MaxClientsPerIP               int
}

// MetricsConfig holds configuration for the metrics server.
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// serveOptions collects every serve flag after the environment overlay
// has been applied.
type serveOptions struct {
	transport          string
	debugMode          bool
	httpAddr           string
	googleClientID     string
	googleClientSecret string
	disableStreaming   bool
	baseURL            string
	importantDomains   []string
	security           OAuthSecurityConfig
	metrics            MetricsConfig
}

func newServeCmd() *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide read-only
Gmail inbox insight tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport with Google OAuth

All tools are read-only; the server only ever requests the
gmail.readonly scope and never modifies the mailbox.

OAuth Configuration:
  HTTP Transport:
    Base URL (required for deployed instances):
      --base-url https://your-domain.com OR MCP_BASE_URL env var
      Auto-detected for localhost (development only)

    Token Refresh (required):
      --google-client-id and --google-client-secret flags
      OR GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars

  STDIO Transport:
    GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars enable token
    refresh. Without these, tokens expire after about an hour.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&opts.googleClientID, "google-client-id", "", "Google OAuth Client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&opts.googleClientSecret, "google-client-secret", "", "Google OAuth Client Secret. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().BoolVar(&opts.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Public base URL for OAuth (HTTP transport only). Required for deployed instances. Can also use MCP_BASE_URL env var. Example: https://mcp.example.com")
	cmd.Flags().StringSliceVar(&opts.importantDomains, "important-domains", nil, "Sender domains that earn an importance bonus (comma-separated). Can also use IMPORTANT_SENDER_DOMAINS env var.")

	// OAuth security settings (HTTP transport only)
	cmd.Flags().BoolVar(&opts.security.AllowPublicClientRegistration, "oauth-allow-public-registration", false, "WARNING: Allow unauthenticated client registration (NOT recommended for production). Can also use MCP_OAUTH_ALLOW_PUBLIC_REGISTRATION env var. Default: false (secure)")
	cmd.Flags().StringVar(&opts.security.RegistrationAccessToken, "oauth-registration-token", "", "Registration access token required for client registration when public registration is disabled. Can also use MCP_OAUTH_REGISTRATION_TOKEN env var.")
	cmd.Flags().BoolVar(&opts.security.AllowInsecureAuthWithoutState, "oauth-allow-no-state", false, "WARNING: Allow authorization without state parameter (weakens CSRF protection). Can also use MCP_OAUTH_ALLOW_NO_STATE env var. Default: false (secure)")
	cmd.Flags().IntVar(&opts.security.MaxClientsPerIP, "oauth-max-clients-per-ip", 10, "Maximum number of clients that can be registered per IP address (prevents DoS). Can also use MCP_OAUTH_MAX_CLIENTS_PER_IP env var. Default: 10")

	// Metrics server flags
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// applyEnvOverlay fills unset serve options from the environment.
// Flags win over environment variables.
func (o *serveOptions) applyEnvOverlay() {
	if !o.metrics.Enabled && os.Getenv("METRICS_ENABLED") == "true" {
		o.metrics.Enabled = true
	}
	if o.metrics.Addr == "" || o.metrics.Addr == server.DefaultMetricsAddr {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			o.metrics.Addr = addr
		}
	}

	if o.googleClientID == "" {
		o.googleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if o.googleClientSecret == "" {
		o.googleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}

	if !o.security.AllowPublicClientRegistration && os.Getenv("MCP_OAUTH_ALLOW_PUBLIC_REGISTRATION") == "true" {
		o.security.AllowPublicClientRegistration = true
	}
	if o.security.RegistrationAccessToken == "" {
		o.security.RegistrationAccessToken = os.Getenv("MCP_OAUTH_REGISTRATION_TOKEN")
	}
	if !o.security.AllowInsecureAuthWithoutState && os.Getenv("MCP_OAUTH_ALLOW_NO_STATE") == "true" {
		o.security.AllowInsecureAuthWithoutState = true
	}
	if o.security.MaxClientsPerIP == 0 {
		if envMax := os.Getenv("MCP_OAUTH_MAX_CLIENTS_PER_IP"); envMax != "" {
			if maxClients, err := strconv.Atoi(envMax); err == nil && maxClients > 0 {
				o.security.MaxClientsPerIP = maxClients
			}
		}
		if o.security.MaxClientsPerIP == 0 {
			o.security.MaxClientsPerIP = 10
		}
	}
}

// startMetricsServer launches the metrics listener and waits for it to
// bind, so a port conflict fails the serve command instead of logging
// from a goroutine later.
func startMetricsServer(provider *instrumentation.Provider, cfg MetricsConfig) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.Addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	ready := make(chan struct{})
	startErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(ready); err != nil && err != http.ErrServerClosed {
			startErr <- err
		}
		close(startErr)
	}()

	select {
	case <-ready:
		log.Printf("Metrics server started on %s", metricsServer.Addr())
		return metricsServer, nil
	case err := <-startErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runServe(opts serveOptions) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts.applyEnvOverlay()

	if opts.googleClientID != "" && opts.googleClientSecret != "" {
		google.SetClientCredentials(opts.googleClientID, opts.googleClientSecret)
	}

	// Move any legacy single-account token file before clients are built.
	if err := google.MigrateDefaultToken(); err != nil && opts.transport != "stdio" {
		log.Printf("Warning: failed to migrate legacy token file: %v", err)
	}

	scoring := buildScoringConfig(opts.importantDomains)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			if opts.transport != "stdio" {
				log.Printf("Error during instrumentation shutdown: %v", err)
			}
		}
	}()

	// Stdio mode writes the MCP protocol to stdout, so no extra
	// listeners are started there.
	var metricsServer *server.MetricsServer
	if opts.transport != "stdio" && opts.metrics.Enabled && provider.Enabled() {
		metricsServer, err = startMetricsServer(provider, opts.metrics)
		if err != nil {
			return err
		}
	}

	serverContext, err := server.NewServerContext(shutdownCtx, scoring)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}

	if provider.Enabled() {
		serverContext.SetInstrumentation(provider.Metrics(),
			instrumentation.NewAuditLoggerWithConfig(nil, instrConfig.AuditLogging))
	}
	defer func() {
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error during metrics server shutdown: %v", err)
			}
		}
		if err := serverContext.Shutdown(); err != nil {
			if opts.transport != "stdio" {
				log.Printf("Error during server context shutdown: %v", err)
			}
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("inboxpulse", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)

	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	switch opts.transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		fmt.Printf("Starting inboxpulse MCP server with %s transport...\n", opts.transport)
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, provider, opts)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}
}

// buildScoringConfig builds the importance scoring policy from the
// domain flag, falling back to the IMPORTANT_SENDER_DOMAINS env var.
func buildScoringConfig(importantDomains []string) insights.ScoringConfig {
	if len(importantDomains) == 0 {
		importantDomains = parseCommaSeparatedList(os.Getenv("IMPORTANT_SENDER_DOMAINS"))
	}

	scoring := insights.DefaultScoringConfig()
	if len(importantDomains) > 0 {
		scoring = scoring.WithDomainBonus(importantDomains...)
	}
	return scoring
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers all MCP tools and resources.
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Inbox Insights",
			register: func() error {
				return insight_tools.RegisterInsightTools(mcpSrv, ctx)
			},
		},
		{
			name: "Google OAuth",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, ctx)
			},
		},
		{
			name: "User Resources",
			register: func() error {
				return resources.RegisterUserResources(mcpSrv, ctx)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, instrProvider *instrumentation.Provider, opts serveOptions) error {
	baseURL := opts.baseURL
	if baseURL == "" {
		baseURL = os.Getenv("MCP_BASE_URL")
	}
	if baseURL == "" {
		// Auto-detection only makes sense for local development.
		baseURL = fmt.Sprintf("http://%s", opts.httpAddr)
		if opts.httpAddr[0] == ':' {
			baseURL = fmt.Sprintf("http://localhost%s", opts.httpAddr)
		}
		log.Printf("No base URL configured, using auto-detected: %s", baseURL)
		log.Printf("For deployed instances, set --base-url flag or MCP_BASE_URL env var")
	} else {
		log.Printf("Using configured base URL: %s", baseURL)
	}

	oauthConfig := server.OAuthConfig{
		BaseURL:                       baseURL,
		GoogleClientID:                opts.googleClientID,
		GoogleClientSecret:            opts.googleClientSecret,
		DisableStreaming:              opts.disableStreaming,
		DebugMode:                     opts.debugMode,
		AllowPublicClientRegistration: opts.security.AllowPublicClientRegistration,
		RegistrationAccessToken:       opts.security.RegistrationAccessToken,
		AllowInsecureAuthWithoutState: opts.security.AllowInsecureAuthWithoutState,
		MaxClientsPerIP:               opts.security.MaxClientsPerIP,
	}

	oauthHandler, err := server.CreateOAuthHandler(oauthConfig)
	if err != nil {
		return fmt.Errorf("failed to create OAuth handler: %w", err)
	}

	// Route Gmail client construction through the OAuth token store so
	// accounts authenticated via the OAuth flow work without token files.
	serverContext.SetTokenProvider(oauth_library.NewTokenProvider(oauthHandler.TokenStore()))

	oauthServer, err := server.NewOAuthHTTPServerWithHandler(mcpSrv, "streamable-http", oauthHandler, opts.disableStreaming)
	if err != nil {
		oauthHandler.Stop()
		return fmt.Errorf("failed to create OAuth HTTP server: %w", err)
	}

	healthChecker := server.NewHealthChecker(serverContext)
	oauthServer.SetHealthChecker(healthChecker)

	if instrProvider != nil && instrProvider.Enabled() {
		oauthServer.SetMetrics(instrProvider.Metrics())
	}

	fmt.Printf("Streamable HTTP server with Google OAuth authentication starting on %s\n", opts.httpAddr)
	fmt.Printf("  HTTP endpoint: /mcp\n")
	fmt.Printf("  Health endpoints: /healthz, /readyz\n")
	fmt.Printf("  OAuth metadata: /.well-known/oauth-protected-resource\n")
	fmt.Printf("  Authorization Server: %s\n", baseURL)
	if opts.metrics.Enabled {
		fmt.Printf("  Metrics endpoint: %s/metrics\n", opts.metrics.Addr)
	}

	if opts.googleClientID != "" && opts.googleClientSecret != "" {
		fmt.Println("\n✓ Automatic token refresh: ENABLED")
		fmt.Println("  Tokens will be refreshed automatically before expiration")
	} else {
		fmt.Println("\n⚠ Automatic token refresh: DISABLED")
		fmt.Println("  Users will need to re-authenticate when tokens expire (~1 hour)")
		fmt.Println("  To enable, provide --google-client-id and --google-client-secret")
	}

	fmt.Println("\nClients must authenticate with Google OAuth to access this server.")
	fmt.Println("The MCP client (e.g., Cursor, Claude Desktop) will handle the OAuth flow automatically.")

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := oauthServer.Start(opts.httpAddr); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		fmt.Println("Shutdown signal received, stopping HTTP server...")
		healthChecker.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := oauthServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		fmt.Println("HTTP server stopped normally")
	}

	fmt.Println("HTTP server gracefully stopped")
	return nil
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

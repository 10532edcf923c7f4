package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/teemow/inboxpulse/internal/gmail"
	"github.com/teemow/inboxpulse/internal/google"
	"github.com/teemow/inboxpulse/internal/insights"
	"github.com/teemow/inboxpulse/internal/instrumentation"
)

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx          context.Context
	cancel       context.CancelFunc
	gmailClients map[string]*gmail.Client    // Maps account name to Gmail client
	engines      map[string]*insights.Engine // Maps account name to insight engine
	scorer       *insights.Scorer
	scoring      insights.ScoringConfig

	// tokenProvider, when set, supplies OAuth tokens instead of the
	// token files on disk. The HTTP transport sets this so accounts
	// authenticated via the OAuth flow get Gmail clients.
	tokenProvider google.TokenProvider

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context with the given scoring
// policy. Gmail clients are lazily initialized per account when first
// needed.
func NewServerContext(ctx context.Context, scoring insights.ScoringConfig) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:          shutdownCtx,
		cancel:       cancel,
		gmailClients: make(map[string]*gmail.Client),
		engines:      make(map[string]*insights.Engine),
		scorer:       insights.NewScorer(scoring),
		scoring:      scoring,
	}

	// Try to create the default Gmail client, but don't fail if the
	// token is missing; it will be re-attempted on first use.
	if gmail.HasToken() {
		client, err := gmail.NewClient(shutdownCtx)
		if err != nil {
			fmt.Printf("Warning: failed to create Gmail client for default account: %v\n", err)
		} else {
			sc.gmailClients["default"] = client
		}
	}

	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// ScoringConfig returns the scoring policy the server was started with.
func (sc *ServerContext) ScoringConfig() insights.ScoringConfig {
	return sc.scoring
}

// GmailClientForAccount returns the Gmail client for a specific account
// Creates and caches the client if it doesn't exist yet
// Returns nil if the account has no token
func (sc *ServerContext) GmailClientForAccount(account string) *gmail.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.gmailClientLocked(account)
}

func (sc *ServerContext) gmailClientLocked(account string) *gmail.Client {
	if client, ok := sc.gmailClients[account]; ok {
		return client
	}

	var client *gmail.Client
	var err error

	if sc.tokenProvider != nil {
		if !sc.tokenProvider.HasTokenForAccount(account) {
			return nil
		}
		client, err = gmail.NewClientWithTokenProvider(sc.ctx, account, sc.tokenProvider)
	} else {
		if !gmail.HasTokenForAccount(account) {
			return nil
		}
		client, err = gmail.NewClientForAccount(sc.ctx, account)
	}

	if err != nil {
		fmt.Printf("Warning: failed to create Gmail client for account %s: %v\n", account, err)
		return nil
	}

	sc.gmailClients[account] = client
	return client
}

// GmailClient returns the Gmail client for the default account
func (sc *ServerContext) GmailClient() *gmail.Client {
	return sc.GmailClientForAccount("default")
}

// SetGmailClientForAccount sets the Gmail client for a specific account.
// A nil client clears the cache entry so the next query rebuilds the
// client from the current token. Any cached engine for the account is
// dropped either way.
func (sc *ServerContext) SetGmailClientForAccount(account string, client *gmail.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if client == nil {
		delete(sc.gmailClients, account)
	} else {
		sc.gmailClients[account] = client
	}
	delete(sc.engines, account)
}

// SetGmailClient sets the Gmail client for the default account
func (sc *ServerContext) SetGmailClient(client *gmail.Client) {
	sc.SetGmailClientForAccount("default", client)
}

// EngineForAccount returns the insight engine for a specific account,
// creating and caching it on first use. Returns nil if the account has
// no authenticated Gmail client.
func (sc *ServerContext) EngineForAccount(account string) *insights.Engine {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if engine, ok := sc.engines[account]; ok {
		return engine
	}

	client := sc.gmailClientLocked(account)
	if client == nil {
		return nil
	}

	engine := insights.NewEngine(client, sc.scorer)
	sc.engines[account] = engine
	return engine
}

// Engine returns the insight engine for the default account
func (sc *ServerContext) Engine() *insights.Engine {
	return sc.EngineForAccount("default")
}

// SetTokenProvider sets the token provider used for Gmail client
// construction. Cached clients and engines are dropped so subsequent
// queries use the new provider.
func (sc *ServerContext) SetTokenProvider(provider google.TokenProvider) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.tokenProvider = provider
	sc.gmailClients = make(map[string]*gmail.Client)
	sc.engines = make(map[string]*insights.Engine)
}

// TokenProvider returns the configured token provider, or nil when
// tokens come from disk.
func (sc *ServerContext) TokenProvider() google.TokenProvider {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.tokenProvider
}

// SetInstrumentation attaches metrics and audit logging to the server
// context so tool handlers can record invocations.
func (sc *ServerContext) SetInstrumentation(metrics *instrumentation.Metrics, auditLogger *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = metrics
	sc.auditLogger = auditLogger
}

// Metrics returns the attached metrics instance, or nil when
// instrumentation is not configured.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// AuditLogger returns the attached audit logger, or nil when
// instrumentation is not configured.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}

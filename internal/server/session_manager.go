package server

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/teemow/inboxpulse/internal/logging"
)

const (
	defaultSessionTimeout  = 24 * time.Hour
	sessionCleanupInterval = 10 * time.Minute
)

// ErrNoAuthorizationHeader is returned when a request carries no
// Authorization header to derive a session from.
var ErrNoAuthorizationHeader = errors.New("no authorization header provided")

type sessionInfo struct {
	account    string
	lastAccess time.Time
}

// SessionIDManager maps Bearer tokens to stable session IDs so several
// users or Google accounts can share one MCP server instance. Idle
// sessions are swept periodically; call Stop to end the sweeper.
type SessionIDManager struct {
	sessions       map[string]*sessionInfo
	mu             sync.RWMutex
	cleanupTicker  *time.Ticker
	cleanupDone    chan struct{}
	sessionTimeout time.Duration
	logger         *slog.Logger
}

// NewSessionIDManager creates a manager with the default 24 hour
// session timeout.
func NewSessionIDManager() *SessionIDManager {
	return NewSessionIDManagerWithLogger(defaultSessionTimeout, slog.Default())
}

// NewSessionIDManagerWithTimeout creates a manager with a custom
// session timeout.
func NewSessionIDManagerWithTimeout(timeout time.Duration) *SessionIDManager {
	return NewSessionIDManagerWithLogger(timeout, slog.Default())
}

// NewSessionIDManagerWithLogger creates a manager with a custom
// timeout and logger.
func NewSessionIDManagerWithLogger(timeout time.Duration, logger *slog.Logger) *SessionIDManager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &SessionIDManager{
		sessions:       make(map[string]*sessionInfo),
		cleanupTicker:  time.NewTicker(sessionCleanupInterval),
		cleanupDone:    make(chan struct{}),
		sessionTimeout: timeout,
		logger:         logger,
	}

	go m.sweepExpiredSessions()

	return m
}

// ResolveSessionID derives the session ID from the request's
// Authorization header. The same Bearer token always yields the same
// session ID.
func (m *SessionIDManager) ResolveSessionID(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrNoAuthorizationHeader
	}

	return m.generateSessionID(authHeader), nil
}

// HasSession reports whether the session ID is currently tracked.
func (m *SessionIDManager) HasSession(sessionID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[sessionID]
	return ok
}

// GetAccountForSession returns the account associated with a session,
// refreshing its last access time. Unknown sessions map to "default".
func (m *SessionIDManager) GetAccountForSession(sessionID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if info, ok := m.sessions[sessionID]; ok {
		info.lastAccess = time.Now()
		return info.account
	}
	return "default"
}

// SetAccountForSession associates an account with a session ID,
// creating the session if needed.
func (m *SessionIDManager) SetAccountForSession(sessionID, account string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = &sessionInfo{
		account:    account,
		lastAccess: time.Now(),
	}
}

func (m *SessionIDManager) generateSessionID(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// RemoveSession drops a session.
func (m *SessionIDManager) RemoveSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// ListSessions returns all tracked session IDs.
func (m *SessionIDManager) ListSessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]string, 0, len(m.sessions))
	for sessionID := range m.sessions {
		sessions = append(sessions, sessionID)
	}
	return sessions
}

func (m *SessionIDManager) sweepExpiredSessions() {
	for {
		select {
		case <-m.cleanupTicker.C:
			m.mu.Lock()
			now := time.Now()
			expired := 0
			for sessionID, info := range m.sessions {
				if now.Sub(info.lastAccess) > m.sessionTimeout {
					delete(m.sessions, sessionID)
					expired++
				}
			}
			m.mu.Unlock()
			if expired > 0 {
				m.logger.Info("Cleaned up expired sessions", logging.Count(expired))
			}
		case <-m.cleanupDone:
			return
		}
	}
}

// Stop ends the cleanup sweeper.
func (m *SessionIDManager) Stop() {
	if m.cleanupTicker != nil {
		m.cleanupTicker.Stop()
	}
	if m.cleanupDone != nil {
		close(m.cleanupDone)
	}
}

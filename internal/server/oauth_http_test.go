package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestValidateHTTPSRequirement(t *testing.T) {
	valid := []string{
		"https://inbox.example.com",
		"https://inbox.example.com/mcp",
		"https://inbox.example.com:8443",
		"http://localhost:8080",
		"http://127.0.0.1:8080",
		"http://[::1]:8080",
	}
	for _, baseURL := range valid {
		t.Run("accepts "+baseURL, func(t *testing.T) {
			if err := validateHTTPSRequirement(baseURL); err != nil {
				t.Errorf("validateHTTPSRequirement(%q) = %v, want nil", baseURL, err)
			}
		})
	}

	invalid := []struct {
		name    string
		baseURL string
	}{
		{"plain HTTP on a public host", "http://inbox.example.com"},
		{"localhost as a subdomain", "http://localhost.example.com"},
		{"loopback IP as a subdomain", "http://127.0.0.1.example.com"},
		{"empty URL", ""},
		{"not a URL", "not a url"},
		{"unsupported scheme", "ftp://inbox.example.com"},
	}
	for _, tt := range invalid {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			if err := validateHTTPSRequirement(tt.baseURL); err == nil {
				t.Errorf("validateHTTPSRequirement(%q) = nil, want error", tt.baseURL)
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	t.Run("captures status code", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		rw := newResponseWriter(recorder)

		rw.WriteHeader(http.StatusNotFound)

		if rw.statusCode != http.StatusNotFound {
			t.Errorf("statusCode = %d, want %d", rw.statusCode, http.StatusNotFound)
		}
		if recorder.Code != http.StatusNotFound {
			t.Errorf("recorder.Code = %d, want %d", recorder.Code, http.StatusNotFound)
		}
	})

	t.Run("defaults to 200 without WriteHeader", func(t *testing.T) {
		rw := newResponseWriter(httptest.NewRecorder())

		if rw.statusCode != http.StatusOK {
			t.Errorf("statusCode = %d, want %d", rw.statusCode, http.StatusOK)
		}
	})
}

func TestInstrumentationMiddleware_NoMetrics(t *testing.T) {
	server := &OAuthHTTPServer{}
	called := false
	next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	})

	handler := server.instrumentationMiddleware(next)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/healthz", nil))

	if !called {
		t.Error("expected next handler to be called")
	}
}

func TestOAuthInstrumentationWrapper_NoMetrics(t *testing.T) {
	server := &OAuthHTTPServer{}
	called := false
	next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	})

	handler := server.oauthInstrumentationWrapper(next)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/mcp", nil))

	if !called {
		t.Error("expected next handler to be called")
	}
}

func TestTrackSession(t *testing.T) {
	sessions := NewSessionIDManagerWithTimeout(time.Hour)
	defer sessions.Stop()

	server := &OAuthHTTPServer{sessions: sessions}

	t.Run("ignores requests without bearer token", func(t *testing.T) {
		server.trackSession(httptest.NewRequest("POST", "/mcp", nil))

		if got := len(sessions.ListSessions()); got != 0 {
			t.Errorf("expected no tracked sessions, got %d", got)
		}
	})

	t.Run("registers a session once per token", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/mcp", nil)
		req.Header.Set("Authorization", "Bearer token-abc")

		server.trackSession(req)
		server.trackSession(req)

		if got := len(sessions.ListSessions()); got != 1 {
			t.Errorf("expected 1 tracked session, got %d", got)
		}
	})

	t.Run("nil session manager is a no-op", func(t *testing.T) {
		bare := &OAuthHTTPServer{}
		req := httptest.NewRequest("POST", "/mcp", nil)
		req.Header.Set("Authorization", "Bearer token-xyz")

		bare.trackSession(req)
	})
}

func TestSetHealthChecker(t *testing.T) {
	server := &OAuthHTTPServer{}
	hc := NewHealthChecker(nil)

	server.SetHealthChecker(hc)

	if server.healthChecker != hc {
		t.Error("expected health checker to be attached")
	}
}

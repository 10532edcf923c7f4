package instrumentation

import (
	"context"
	"testing"
	"time"
)

func newTestMetrics(t *testing.T, detailedLabels bool) (*Metrics, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	config := testProviderConfig("prometheus", "none")
	config.DetailedLabels = detailedLabels

	provider, err := NewProvider(ctx, config)
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics := provider.Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}
	return metrics, ctx
}

// The prometheus exporter makes recorded values hard to observe from
// here, so these tests exercise every recording path and rely on the
// SDK to reject invalid instruments at construction time.
func TestMetrics_Recorders(t *testing.T) {
	metrics, ctx := newTestMetrics(t, false)

	t.Run("http requests", func(t *testing.T) {
		metrics.RecordHTTPRequest(ctx, "GET", "/mcp", 200, 100*time.Millisecond)
		metrics.RecordHTTPRequest(ctx, "POST", "/mcp", 500, 50*time.Millisecond)
	})

	t.Run("google api operations", func(t *testing.T) {
		metrics.RecordGoogleAPIOperation(ctx, ServiceGmail, OperationList, StatusSuccess, 200*time.Millisecond)
		metrics.RecordGoogleAPIOperation(ctx, ServiceGmail, OperationGet, StatusError, 500*time.Millisecond)
		metrics.RecordGoogleAPIOperation(ctx, ServiceGmail, OperationProfile, StatusSuccess, 100*time.Millisecond)
	})

	t.Run("insight queries", func(t *testing.T) {
		metrics.RecordInsightQuery(ctx, OperationUnread, StatusSuccess, 20)
		metrics.RecordInsightQuery(ctx, OperationWeekly, StatusSuccess, 100)
		// Failed queries score nothing; the scored counter must not
		// record a zero-value add.
		metrics.RecordInsightQuery(ctx, OperationSearch, StatusError, 0)
	})

	t.Run("oauth", func(t *testing.T) {
		metrics.RecordOAuthAuth(ctx, OAuthResultSuccess)
		metrics.RecordOAuthAuth(ctx, OAuthResultFailure)
		metrics.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
		metrics.RecordOAuthTokenRefresh(ctx, OAuthResultFailure)
		metrics.RecordOAuthTokenRefresh(ctx, OAuthResultExpired)
	})

	t.Run("tool invocations", func(t *testing.T) {
		metrics.RecordToolInvocation(ctx, "get_unread_emails", StatusSuccess, 100*time.Millisecond)
		metrics.RecordToolInvocation(ctx, "search_emails", StatusError, 500*time.Millisecond)
	})

	t.Run("active sessions", func(t *testing.T) {
		metrics.IncrementActiveSessions(ctx)
		metrics.IncrementActiveSessions(ctx)
		metrics.DecrementActiveSessions(ctx)
	})
}

func TestMetrics_ToolInvocationWithAccount(t *testing.T) {
	t.Run("account label dropped by default", func(t *testing.T) {
		metrics, ctx := newTestMetrics(t, false)
		metrics.RecordToolInvocationWithAccount(ctx, "get_unread_emails", StatusSuccess, "alice@example.com", 100*time.Millisecond)
	})

	t.Run("account label attached with detailed labels", func(t *testing.T) {
		metrics, ctx := newTestMetrics(t, true)
		metrics.RecordToolInvocationWithAccount(ctx, "get_unread_emails", StatusSuccess, "alice@example.com", 100*time.Millisecond)
	})
}

func TestMetrics_NoOpWhenDisabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{
		ServiceName:    "inboxpulse-test",
		ServiceVersion: "0.0.1",
		Enabled:        false,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	metrics := provider.Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil even when disabled")
	}

	// Every recorder must tolerate nil instruments.
	metrics.RecordHTTPRequest(ctx, "GET", "/mcp", 200, 100*time.Millisecond)
	metrics.RecordGoogleAPIOperation(ctx, ServiceGmail, OperationList, StatusSuccess, 200*time.Millisecond)
	metrics.RecordOAuthAuth(ctx, OAuthResultSuccess)
	metrics.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
	metrics.RecordInsightQuery(ctx, OperationUnread, StatusSuccess, 5)
	metrics.RecordToolInvocation(ctx, "get_unread_emails", StatusSuccess, 100*time.Millisecond)
	metrics.RecordToolInvocationWithAccount(ctx, "get_unread_emails", StatusSuccess, "alice@example.com", 100*time.Millisecond)
	metrics.IncrementActiveSessions(ctx)
	metrics.DecrementActiveSessions(ctx)
}

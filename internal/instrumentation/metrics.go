package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrTool      = "tool"
	attrAccount   = "account"
)

// Metrics records the service's observability metrics. A zero Metrics
// value is a valid no-op recorder; every method checks its instruments
// before recording.
type Metrics struct {
	// HTTP
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	activeSessions      metric.Int64UpDownCounter

	// Google API
	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	// OAuth
	oauthAuthTotal         metric.Int64Counter
	oauthTokenRefreshTotal metric.Int64Counter
	ssoTokenInjectionTotal metric.Int64Counter

	// MCP tools
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// Insight queries
	insightQueriesTotal metric.Int64Counter
	messagesScoredTotal metric.Int64Counter

	// detailedLabels opts in to high-cardinality labels (account).
	detailedLabels bool
}

type instrumentErrors struct {
	meter metric.Meter
	err   error
}

func (ie *instrumentErrors) counter(name, desc, unit string) metric.Int64Counter {
	if ie.err != nil {
		return nil
	}
	c, err := ie.meter.Int64Counter(name,
		metric.WithDescription(desc),
		metric.WithUnit(unit),
	)
	if err != nil {
		ie.err = fmt.Errorf("failed to create %s counter: %w", name, err)
	}
	return c
}

func (ie *instrumentErrors) histogram(name, desc string, boundaries ...float64) metric.Float64Histogram {
	if ie.err != nil {
		return nil
	}
	h, err := ie.meter.Float64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(boundaries...),
	)
	if err != nil {
		ie.err = fmt.Errorf("failed to create %s histogram: %w", name, err)
	}
	return h
}

// NewMetrics creates a Metrics recorder with all instruments
// registered on the given meter. detailedLabels enables the
// high-cardinality account label on tool invocation metrics.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	ie := &instrumentErrors{meter: meter}

	m := &Metrics{
		detailedLabels: detailedLabels,

		httpRequestsTotal: ie.counter("http_requests_total",
			"Total number of HTTP requests", "{request}"),
		httpRequestDuration: ie.histogram("http_request_duration_seconds",
			"HTTP request duration in seconds",
			0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),

		googleAPIOperationsTotal: ie.counter("google_api_operations_total",
			"Total number of Google API operations", "{operation}"),
		googleAPIOperationDuration: ie.histogram("google_api_operation_duration_seconds",
			"Google API operation duration in seconds",
			0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),

		oauthAuthTotal: ie.counter("oauth_auth_total",
			"Total number of OAuth authentication attempts", "{attempt}"),
		oauthTokenRefreshTotal: ie.counter("oauth_token_refresh_total",
			"Total number of OAuth token refresh attempts", "{attempt}"),
		ssoTokenInjectionTotal: ie.counter("sso_token_injection_total",
			"Total number of SSO access token injection attempts", "{attempt}"),

		toolInvocationsTotal: ie.counter("mcp_tool_invocations_total",
			"Total number of MCP tool invocations", "{invocation}"),
		toolDuration: ie.histogram("mcp_tool_duration_seconds",
			"MCP tool execution duration in seconds",
			0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),

		insightQueriesTotal: ie.counter("insight_queries_total",
			"Total number of insight queries answered", "{query}"),
		messagesScoredTotal: ie.counter("messages_scored_total",
			"Total number of messages run through the importance scorer", "{message}"),
	}

	sessions, err := meter.Int64UpDownCounter(
		"active_sessions",
		metric.WithDescription("Number of active user sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active_sessions gauge: %w", err)
	}
	m.activeSessions = sessions

	if ie.err != nil {
		return nil, ie.err
	}
	return m, nil
}

// RecordHTTPRequest records one HTTP request with its status and
// duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordGoogleAPIOperation records one Google API call. service is the
// Google service (gmail), operation the call type (list, get, profile)
// and status "success" or "error".
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.googleAPIOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordOAuthAuth records an OAuth authentication attempt. result is
// "success" or "failure".
func (m *Metrics) RecordOAuthAuth(ctx context.Context, result string) {
	if m.oauthAuthTotal == nil {
		return
	}
	m.oauthAuthTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordOAuthTokenRefresh records a token refresh attempt. result is
// "success", "failure" or "expired".
func (m *Metrics) RecordOAuthTokenRefresh(ctx context.Context, result string) {
	if m.oauthTokenRefreshTotal == nil {
		return
	}
	m.oauthTokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordSSOTokenInjection records an SSO access token injection
// attempt. result is one of the SSOInjectionResult constants.
func (m *Metrics) RecordSSOTokenInjection(ctx context.Context, result string) {
	if m.ssoTokenInjectionTotal == nil {
		return
	}
	m.ssoTokenInjectionTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordInsightQuery records one answered insight query together with
// the number of messages scored to answer it. operation is one of the
// Operation constants (unread, missed, sender_summary, search, weekly).
func (m *Metrics) RecordInsightQuery(ctx context.Context, operation, status string, scored int) {
	if m.insightQueriesTotal == nil || m.messagesScoredTotal == nil {
		return
	}

	m.insightQueriesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	))
	if scored > 0 {
		m.messagesScoredTotal.Add(ctx, int64(scored), metric.WithAttributes(
			attribute.String(attrOperation, operation),
		))
	}
}

// RecordToolInvocation records one MCP tool invocation with its status
// and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolInvocationWithAccount is RecordToolInvocation plus the
// account label, which is only attached when detailedLabels is on.
func (m *Metrics) RecordToolInvocationWithAccount(ctx context.Context, toolName, status, account string, duration time.Duration) {
	if m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && account != "" {
		attrs = append(attrs, attribute.String(attrAccount, account))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// IncrementActiveSessions bumps the active session gauge.
func (m *Metrics) IncrementActiveSessions(ctx context.Context) {
	if m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, 1)
}

// DecrementActiveSessions lowers the active session gauge.
func (m *Metrics) DecrementActiveSessions(ctx context.Context) {
	if m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, -1)
}

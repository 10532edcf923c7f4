// Package instrumentation wires OpenTelemetry metrics, tracing and
// audit logging into the inboxpulse MCP server.
//
// A single Provider owns the meter and tracer providers. Metrics are
// exported through Prometheus (scraped from a dedicated port), OTLP or
// stdout; traces through OTLP or stdout. When instrumentation is
// disabled the Provider still hands out recorders, they just record
// nothing, so call sites never branch on configuration.
//
// # Metrics
//
// Server and HTTP:
//   - http_requests_total: requests by method, path and status
//   - http_request_duration_seconds: request duration histogram
//   - active_sessions: gauge of tracked user sessions
//
// Google API:
//   - google_api_operations_total: calls by service, operation, status
//   - google_api_operation_duration_seconds: call duration histogram
//
// OAuth:
//   - oauth_auth_total: authentication events by result
//   - oauth_token_refresh_total: token refresh attempts by result
//   - sso_token_injection_total: SSO header token injections by result
//
// MCP tools:
//   - mcp_tool_invocations_total: invocations by tool name and status
//   - mcp_tool_duration_seconds: tool execution duration histogram
//
// Insight engine:
//   - insight_queries_total: answered insight queries by operation and status
//   - messages_scored_total: messages run through the importance scorer
//
// # Tracing
//
// Spans cover HTTP request handling, MCP tool invocations
// (tool.<name>), Google API calls (google.<service>.<operation>) and
// OAuth token operations. Sampling follows OTEL_TRACES_SAMPLER_ARG.
//
// # Configuration
//
// DefaultConfig reads the environment:
//   - INSTRUMENTATION_ENABLED: enable or disable (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: collector endpoint for the otlp exporters
//   - OTEL_TRACES_SAMPLER_ARG: sampling ratio in [0, 1] (default: 0.1)
//   - OTEL_SERVICE_NAME: reported service name (default: inboxpulse)
//
// # Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
//		ServiceName:    "inboxpulse",
//		ServiceVersion: "0.1.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordToolInvocation(ctx, "get_unread_emails", "success", time.Since(start))
//	metrics.RecordInsightQuery(ctx, instrumentation.OperationUnread, "success", scored)
package instrumentation

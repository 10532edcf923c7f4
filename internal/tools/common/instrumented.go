package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxpulse/internal/instrumentation"
	"github.com/teemow/inboxpulse/internal/server"
)

// ToolHandlerFunc is the handler signature expected by mcp-go's AddTool.
type ToolHandlerFunc = mcpserver.ToolHandlerFunc

// InstrumentedToolHandler wraps a tool handler with invocation metrics
// and audit logging. When the server context carries no instrumentation
// the handler is called directly.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandlerFunc) ToolHandlerFunc {
	return instrumented(toolName, "", "", sc, handler)
}

// InstrumentedToolHandlerWithService additionally records the Google
// service and operation, so per-service API metrics line up with the
// tool invocation metrics.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandlerWithService("my_tool", "gmail", "list", sc, handler))
func InstrumentedToolHandlerWithService(toolName, serviceName, operation string, sc *server.ServerContext, handler ToolHandlerFunc) ToolHandlerFunc {
	return instrumented(toolName, serviceName, operation, sc, handler)
}

func instrumented(toolName, serviceName, operation string, sc *server.ServerContext, handler ToolHandlerFunc) ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		if metrics == nil && auditLogger == nil {
			return handler(ctx, request)
		}

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx)
		if serviceName != "" {
			invocation.WithService(serviceName, operation)
		}

		if account := GetAccountFromArgs(ctx, request.GetArguments()); account != "" {
			invocation.WithAccount(account)
		}

		result, err := handler(ctx, request)
		duration := time.Since(start)

		// A handler can fail either by returning an error or by
		// returning an MCP error result.
		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
			if err != nil {
				invocation.CompleteWithError(err)
			} else {
				invocation.Complete(false, nil)
			}
		} else {
			invocation.CompleteSuccess()
		}

		if metrics != nil {
			metrics.RecordToolInvocation(ctx, toolName, status, duration)
			if serviceName != "" {
				metrics.RecordGoogleAPIOperation(ctx, serviceName, operation, status, duration)
			}
		}

		if auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
		}

		return result, err
	}
}

package insight_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxpulse/internal/instrumentation"
	"github.com/teemow/inboxpulse/internal/server"
	"github.com/teemow/inboxpulse/internal/tools/common"
)

// RegisterInsightTools registers the five inbox insight tools with the
// MCP server. All tools are read-only.
func RegisterInsightTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	unreadTool := mcp.NewTool("get_unread_emails",
		mcp.WithDescription("Get unread emails scored and ordered by importance (1-10, highest first)"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of emails to return (default: 20, max: 100)"),
		),
	)

	s.AddTool(unreadTool, instrumented("get_unread_emails", instrumentation.OperationUnread, sc, handleGetUnreadEmails))

	missedTool := mcp.NewTool("get_important_missed_emails",
		mcp.WithDescription("Get unread emails from the last days that scored above an importance threshold and may have been overlooked"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithNumber("days_back",
			mcp.Description("How many days back to look (default: 7)"),
		),
		mcp.WithNumber("importance_threshold",
			mcp.Description("Minimum importance score 1-10 to include (default: 7)"),
		),
	)

	s.AddTool(missedTool, instrumented("get_important_missed_emails", instrumentation.OperationMissed, sc, handleGetImportantMissedEmails))

	summaryTool := mcp.NewTool("get_email_summary_by_sender",
		mcp.WithDescription("Get per-sender email statistics (total, unread, average importance) over a time window, busiest senders first"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithNumber("days_back",
			mcp.Description("How many days back to aggregate (default: 30)"),
		),
	)

	s.AddTool(summaryTool, instrumented("get_email_summary_by_sender", instrumentation.OperationSenderSummary, sc, handleGetEmailSummaryBySender))

	searchTool := mcp.NewTool("search_emails",
		mcp.WithDescription("Search emails with a Gmail query (e.g. 'from:user@example.com', 'subject:invoice is:unread') and get scored results"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Gmail search query"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of emails to return (default: 20, max: 100)"),
		),
	)

	s.AddTool(searchTool, instrumented("search_emails", instrumentation.OperationSearch, sc, handleSearchEmails))

	weeklyTool := mcp.NewTool("get_weekly_email_insights",
		mcp.WithDescription("Get a seven-day inbox overview: totals, unread and high-importance counts, daily breakdown, and top unread emails"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
	)

	s.AddTool(weeklyTool, instrumented("get_weekly_email_insights", instrumentation.OperationWeekly, sc, handleGetWeeklyEmailInsights))

	return nil
}

// insightHandler is the shape shared by the five tool handlers.
type insightHandler func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, int, error)

// instrumented adapts an insightHandler to the MCP handler signature,
// wrapping it with tool invocation metrics and recording the insight
// query counter with the number of messages scored.
func instrumented(toolName, operation string, sc *server.ServerContext, handler insightHandler) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return common.InstrumentedToolHandlerWithService(toolName, instrumentation.ServiceGmail, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			result, scored, err := handler(ctx, request, sc)

			if metrics := sc.Metrics(); metrics != nil {
				status := instrumentation.StatusSuccess
				if err != nil || (result != nil && result.IsError) {
					status = instrumentation.StatusError
				}
				metrics.RecordInsightQuery(ctx, operation, status, scored)
			}

			return result, err
		})
}

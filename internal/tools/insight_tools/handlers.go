package insight_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/inboxpulse/internal/google"
	"github.com/teemow/inboxpulse/internal/insights"
	"github.com/teemow/inboxpulse/internal/server"
	"github.com/teemow/inboxpulse/internal/tools/common"
)

func handleGetUnreadEmails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, int, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	maxResults := int64Arg(args, "max_results", insights.DefaultMaxResults)

	engine := sc.EngineForAccount(account)
	if engine == nil {
		return mcp.NewToolResultError(google.GetAuthenticationErrorMessage(account)), 0, nil
	}

	messages, err := engine.UnreadMessages(ctx, maxResults)
	if err != nil {
		return insightErrorResult(err, account, "fetch unread emails"), 0, nil
	}

	return jsonResult(struct {
		Account string                   `json:"account"`
		Count   int                      `json:"count"`
		Emails  []insights.ScoredMessage `json:"emails"`
	}{account, len(messages), messages}), len(messages), nil
}

func handleGetImportantMissedEmails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, int, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	daysBack := intArg(args, "days_back", insights.DefaultMissedDaysBack)
	threshold := intArg(args, "importance_threshold", insights.DefaultMissedThreshold)

	engine := sc.EngineForAccount(account)
	if engine == nil {
		return mcp.NewToolResultError(google.GetAuthenticationErrorMessage(account)), 0, nil
	}

	messages, err := engine.ImportantMissed(ctx, daysBack, threshold)
	if err != nil {
		return insightErrorResult(err, account, "fetch missed emails"), 0, nil
	}

	return jsonResult(struct {
		Account             string                   `json:"account"`
		DaysBack            int                      `json:"daysBack"`
		ImportanceThreshold int                      `json:"importanceThreshold"`
		Count               int                      `json:"count"`
		Emails              []insights.ScoredMessage `json:"emails"`
	}{account, daysBack, threshold, len(messages), messages}), len(messages), nil
}

func handleGetEmailSummaryBySender(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, int, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	daysBack := intArg(args, "days_back", insights.DefaultSummaryDaysBack)

	engine := sc.EngineForAccount(account)
	if engine == nil {
		return mcp.NewToolResultError(google.GetAuthenticationErrorMessage(account)), 0, nil
	}

	summaries, err := engine.SenderSummaries(ctx, daysBack)
	if err != nil {
		return insightErrorResult(err, account, "summarize emails by sender"), 0, nil
	}

	scored := 0
	for _, s := range summaries {
		scored += s.TotalCount
	}

	return jsonResult(struct {
		Account  string                   `json:"account"`
		DaysBack int                      `json:"daysBack"`
		Senders  []insights.SenderSummary `json:"senders"`
	}{account, daysBack, summaries}), scored, nil
}

func handleSearchEmails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, int, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query is required"), 0, nil
	}

	maxResults := int64Arg(args, "max_results", insights.DefaultMaxResults)

	engine := sc.EngineForAccount(account)
	if engine == nil {
		return mcp.NewToolResultError(google.GetAuthenticationErrorMessage(account)), 0, nil
	}

	messages, err := engine.Search(ctx, query, maxResults)
	if err != nil {
		return insightErrorResult(err, account, "search emails"), 0, nil
	}

	return jsonResult(struct {
		Account string                   `json:"account"`
		Query   string                   `json:"query"`
		Count   int                      `json:"count"`
		Emails  []insights.ScoredMessage `json:"emails"`
	}{account, query, len(messages), messages}), len(messages), nil
}

func handleGetWeeklyEmailInsights(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, int, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	engine := sc.EngineForAccount(account)
	if engine == nil {
		return mcp.NewToolResultError(google.GetAuthenticationErrorMessage(account)), 0, nil
	}

	overview, err := engine.WeeklyInsights(ctx)
	if err != nil {
		return insightErrorResult(err, account, "build weekly insights"), 0, nil
	}

	return jsonResult(struct {
		Account string                   `json:"account"`
		Week    *insights.WeeklyInsights `json:"week"`
	}{account, overview}), overview.TotalCount, nil
}

// intArg reads an integer argument, tolerating the float64 values JSON
// numbers arrive as. Absent or mistyped values fall back to def;
// out-of-range values are rejected downstream.
func intArg(args map[string]interface{}, key string, def int) int {
	if v, ok := args[key]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return def
}

func int64Arg(args map[string]interface{}, key string, def int64) int64 {
	if v, ok := args[key]; ok {
		if f, ok := v.(float64); ok {
			return int64(f)
		}
	}
	return def
}

// jsonResult marshals the payload as indented JSON. Marshal failures
// can only come from programmer error in the payload types.
func jsonResult(payload interface{}) *mcp.CallToolResult {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// insightErrorResult converts an engine error into a tool error result
// with an actionable message.
func insightErrorResult(err error, account, action string) *mcp.CallToolResult {
	switch {
	case errors.Is(err, insights.ErrInvalidParameter), errors.Is(err, insights.ErrInvalidQuery):
		return mcp.NewToolResultError(err.Error())
	case errors.Is(err, insights.ErrAuthentication):
		return mcp.NewToolResultError(google.GetAuthenticationErrorMessage(account))
	case errors.Is(err, insights.ErrUnavailable):
		return mcp.NewToolResultError(fmt.Sprintf("Gmail is temporarily unavailable, try again later: %v", err))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
	}
}

package google_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxpulse/internal/google"
	"github.com/teemow/inboxpulse/internal/server"
	"github.com/teemow/inboxpulse/internal/tools/common"
)

// RegisterGoogleTools registers the OAuth bootstrap tools. They cover
// the manual copy-paste flow used when the server runs on stdio without
// a browser-reachable callback endpoint.
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getAuthURLTool := mcp.NewTool("google_get_auth_url",
		mcp.WithDescription("Get the OAuth URL to authorize read-only Gmail access for a specific account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
	)

	s.AddTool(getAuthURLTool, common.InstrumentedToolHandler("google_get_auth_url", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAuthURL(ctx, request, sc)
		}))

	saveAuthCodeTool := mcp.NewTool("google_save_auth_code",
		mcp.WithDescription("Save the OAuth authorization code to complete Gmail authentication for a specific account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	)

	s.AddTool(saveAuthCodeTool, common.InstrumentedToolHandler("google_save_auth_code", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSaveAuthCode(ctx, request, sc)
		}))

	return nil
}

func accountFromArgs(args map[string]any) string {
	if account, ok := args["account"].(string); ok && account != "" {
		return account
	}
	return "default"
}

func handleGetAuthURL(_ context.Context, request mcp.CallToolRequest, _ *server.ServerContext) (*mcp.CallToolResult, error) {
	account := accountFromArgs(request.GetArguments())

	authURL := google.GetAuthURLForAccount(account)

	result := fmt.Sprintf(`To authorize read-only Gmail access for account "%s":

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant read-only access to Gmail
4. Copy the authorization code

5. Call the google_save_auth_code tool with the code and account name to complete authentication`, account, authURL)

	return mcp.NewToolResultText(result), nil
}

func handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := accountFromArgs(args)

	authCode, ok := args["authCode"].(string)
	if !ok || authCode == "" {
		return mcp.NewToolResultError("authCode is required"), nil
	}

	if err := google.SaveTokenForAccount(ctx, account, authCode); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save authorization code for account %s: %v", account, err)), nil
	}

	// Drop any stale client so the next query picks up the new token.
	sc.SetGmailClientForAccount(account, nil)

	return mcp.NewToolResultText(fmt.Sprintf("✅ Authorization successful for account '%s'! You can now query inbox insights for this account.", account)), nil
}

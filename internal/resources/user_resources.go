package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxpulse/internal/insights"
	"github.com/teemow/inboxpulse/internal/mcp/oauth_library"
	"github.com/teemow/inboxpulse/internal/server"
)

// RegisterUserResources registers read-only MCP resources: the current
// user's mailbox profile, the active importance scoring policy, and
// setup instructions for first-time authentication.
func RegisterUserResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	profileResource := mcp.NewResource(
		"user://profile",
		"Current User Profile",
		mcp.WithResourceDescription("Mailbox profile of the currently authenticated Google account"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(profileResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleUserProfile(ctx, request, sc)
	})

	scoringResource := mcp.NewResource(
		"config://scoring-policy",
		"Importance Scoring Policy",
		mcp.WithResourceDescription("The keyword, label and domain rules used to compute importance scores"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(scoringResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleScoringPolicy(ctx, request, sc)
	})

	setupResource := mcp.NewResource(
		"gmail://setup-instructions",
		"Setup Instructions",
		mcp.WithResourceDescription("How to set up Gmail API credentials and authenticate"),
		mcp.WithMIMEType("text/markdown"),
	)

	s.AddResource(setupResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSetupInstructions(ctx, request)
	})

	return nil
}

// extractAccountFromContext extracts the user's email from OAuth context.
// Falls back to "default" for STDIO transport or if no OAuth context is
// available.
func extractAccountFromContext(ctx context.Context) string {
	if userInfo, ok := oauth_library.GetUserFromContext(ctx); ok {
		return userInfo.Email
	}
	return "default"
}

// handleUserProfile returns the Gmail mailbox profile for the current user.
func handleUserProfile(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	account := extractAccountFromContext(ctx)

	gmailClient := sc.GmailClientForAccount(account)
	if gmailClient == nil {
		return nil, fmt.Errorf("no Gmail client available for account: %s", account)
	}

	profile, err := gmailClient.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	profileData := map[string]interface{}{
		"account":       account,
		"email":         profile.EmailAddress,
		"historyId":     profile.HistoryID,
		"messagesTotal": profile.MessagesTotal,
		"threadsTotal":  profile.ThreadsTotal,
	}

	jsonData, err := json.MarshalIndent(profileData, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile data: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

// handleScoringPolicy returns the scoring policy the server was started
// with, so clients can explain why a message scored the way it did.
func handleScoringPolicy(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	cfg := sc.ScoringConfig()

	policyData := map[string]interface{}{
		"keywords":     cfg.Keywords,
		"domainBonus":  cfg.DomainBonus,
		"labelWeights": cfg.LabelWeights,
		"scoreRange": map[string]int{
			"min": insights.MinScore,
			"max": insights.MaxScore,
		},
		"description": "Scores start at 5; subject keywords add +2 once, labels and sender domain adjust further, no-reply senders lose 1. The result is clamped to the score range.",
	}

	jsonData, err := json.MarshalIndent(policyData, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scoring policy: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

// setupInstructions walks a first-time user through enabling the Gmail
// API and authenticating via the OAuth tools.
const setupInstructions = `# Gmail Inbox Insights Setup Instructions

## 1. Enable the Gmail API in Google Cloud Console
1. Go to the Google Cloud Console (https://console.cloud.google.com/)
2. Create a new project or select an existing one
3. Enable the Gmail API for your project
4. Go to the Credentials page and create an OAuth 2.0 Client ID

## 2. Configure Credentials
Set the client credentials via environment variables before starting
the server:

    GOOGLE_CLIENT_ID=<your client id>
    GOOGLE_CLIENT_SECRET=<your client secret>

## 3. Authenticate
1. Call the google_get_auth_url tool and visit the returned URL
2. Grant read-only access to Gmail
3. Call google_save_auth_code with the authorization code

Only the gmail.readonly scope is requested; the server never modifies
your mailbox.

## 4. Available Tools
- get_unread_emails(): Get your unread emails, scored by importance
- get_important_missed_emails(): Find important emails you might have missed
- get_email_summary_by_sender(): Summary grouped by sender
- search_emails(query): Search using Gmail syntax
- get_weekly_email_insights(): Comprehensive weekly overview
`

func handleSetupInstructions(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/markdown",
			Text:     setupInstructions,
		},
	}, nil
}

package gmail

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/inboxpulse/internal/google"
	"github.com/teemow/inboxpulse/internal/insights"
)

// maxPageSize is the largest page the Gmail list endpoint serves.
const maxPageSize = 100

// metadataHeaders are the only headers the insight queries need, so
// messages are fetched in metadata format instead of full.
var metadataHeaders = []string{"From", "Subject", "Date"}

// Client wraps the Gmail Users service for a single account.
type Client struct {
	svc     *gmail.UsersService
	account string
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// HasTokenForAccount checks if a valid OAuth token exists for the specified account.
func HasTokenForAccount(account string) bool {
	return google.HasTokenForAccount(account)
}

// HasToken checks if a valid OAuth token exists for the default account.
func HasToken() bool {
	return google.HasToken()
}

// NewClientForAccount creates a new Gmail client with OAuth2 authentication
// for a specific account. The OAuth token must already exist; tools surface
// the auth URL when it does not.
func NewClientForAccount(ctx context.Context, account string) (*Client, error) {
	httpClient, err := google.GetHTTPClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%w: no valid Google OAuth token found for account %s: %v",
			insights.ErrAuthentication, account, err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{
		svc:     svc.Users,
		account: account,
	}, nil
}

// NewClient creates a new Gmail client for the default account.
func NewClient(ctx context.Context) (*Client, error) {
	return NewClientForAccount(ctx, "default")
}

// NewClientWithTokenProvider creates a Gmail client whose OAuth token
// comes from the given provider instead of the token files on disk.
// The HTTP transport uses this path, where tokens are managed by the
// OAuth middleware and keyed by the authenticated user's email.
func NewClientWithTokenProvider(ctx context.Context, account string, provider google.TokenProvider) (*Client, error) {
	token, err := provider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%w: no valid Google OAuth token found for account %s: %v",
			insights.ErrAuthentication, account, err)
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{
		svc:     svc.Users,
		account: account,
	}, nil
}

// FetchMessages lists message ids matching the query with pagination and
// fetches metadata for each id. It will fetch up to maxResults messages,
// making multiple list calls if necessary.
func (c *Client) FetchMessages(ctx context.Context, query string, maxResults int64) ([]insights.Message, error) {
	ids, err := c.listMessageIDs(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	messages := make([]insights.Message, 0, len(ids))
	for _, id := range ids {
		raw, err := c.svc.Messages.Get("me", id).
			Format("metadata").
			MetadataHeaders(metadataHeaders...).
			Context(ctx).
			Do()
		if err != nil {
			return nil, mapError(err)
		}
		messages = append(messages, parseMessage(raw))
	}
	return messages, nil
}

// listMessageIDs pages through the list endpoint until maxResults ids are
// collected or the result set is exhausted.
func (c *Client) listMessageIDs(ctx context.Context, query string, maxResults int64) ([]string, error) {
	var ids []string
	pageToken := ""

	for {
		remaining := maxResults - int64(len(ids))
		if remaining <= 0 {
			break
		}

		pageSize := remaining
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		req := c.svc.Messages.List("me").Q(query).MaxResults(pageSize).Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		res, err := req.Do()
		if err != nil {
			return nil, mapError(err)
		}

		for _, m := range res.Messages {
			ids = append(ids, m.Id)
		}

		if res.NextPageToken == "" || int64(len(ids)) >= maxResults {
			break
		}
		pageToken = res.NextPageToken
	}

	if int64(len(ids)) > maxResults {
		ids = ids[:maxResults]
	}
	return ids, nil
}

// Profile describes the authenticated mailbox.
type Profile struct {
	EmailAddress  string
	MessagesTotal int64
	ThreadsTotal  int64
	HistoryID     uint64
}

// GetProfile returns the authenticated account's mailbox profile.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	profile, err := c.svc.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}
	return &Profile{
		EmailAddress:  profile.EmailAddress,
		MessagesTotal: profile.MessagesTotal,
		ThreadsTotal:  profile.ThreadsTotal,
		HistoryID:     profile.HistoryId,
	}, nil
}

package google

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const cacheDirName = "inboxpulse"

// accountNamePattern restricts account names to filesystem-safe tokens
// since the account name becomes part of the token file name.
var accountNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Client credentials are provided at startup via SetClientCredentials
// (flags or environment); there is no built-in default.
var (
	clientID     string
	clientSecret string
)

// SetClientCredentials configures the OAuth client used for all token
// operations. Must be called before any auth flow starts.
func SetClientCredentials(id, secret string) {
	clientID = id
	clientSecret = secret
}

// validateAccountName ensures an account name is safe to embed in a
// file path
func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name must not be empty")
	}
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("account name %q may only contain letters, digits, hyphens and underscores", account)
	}
	return nil
}

// getTokenFilePath returns the token file location for an account
func getTokenFilePath(account string) string {
	return filepath.Join(userCacheDir(), cacheDirName, "google-"+account+".token")
}

// HasTokenForAccount checks if a valid OAuth token exists for the specified account
func HasTokenForAccount(account string) bool {
	if err := validateAccountName(account); err != nil {
		return false
	}
	_, err := os.ReadFile(getTokenFilePath(account))
	return err == nil
}

// HasToken checks if a valid OAuth token exists for the default account
func HasToken() bool {
	return HasTokenForAccount("default")
}

// GetAuthURLForAccount returns the OAuth URL for user authorization of
// the specified account
func GetAuthURLForAccount(account string) string {
	conf := getOAuthConfig()
	return conf.AuthCodeURL("state-" + account)
}

// GetAuthURL returns the OAuth URL for the default account
func GetAuthURL() string {
	return GetAuthURLForAccount("default")
}

// SaveTokenForAccount exchanges an authorization code for tokens and
// saves them for the specified account
func SaveTokenForAccount(ctx context.Context, account, authCode string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}

	conf := getOAuthConfig()
	t, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	tokenFile := getTokenFilePath(account)
	if err := os.MkdirAll(filepath.Dir(tokenFile), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tokenData := t.AccessToken + " " + t.RefreshToken
	if err := os.WriteFile(tokenFile, []byte(tokenData), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// SaveToken exchanges an authorization code for tokens and saves them
// for the default account
func SaveToken(ctx context.Context, authCode string) error {
	return SaveTokenForAccount(ctx, "default", authCode)
}

// getOAuthConfig returns the OAuth2 configuration. Only the read-only
// Gmail scope is requested; the service never modifies or sends mail.
func getOAuthConfig() *oauth2.Config {
	const OOB = "urn:ietf:wg:oauth:2.0:oob"
	id, secret := clientID, clientSecret
	if id == "" {
		id = os.Getenv("GOOGLE_OAUTH_CLIENT_ID")
	}
	if secret == "" {
		secret = os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET")
	}
	return &oauth2.Config{
		ClientID:     id,
		ClientSecret: secret,
		Endpoint:     google.Endpoint,
		RedirectURL:  OOB,
		Scopes:       DefaultOAuthScopes,
	}
}

// GetTokenSourceForAccount returns an OAuth2 token source for the
// stored token of the specified account
func GetTokenSourceForAccount(ctx context.Context, account string) (oauth2.TokenSource, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}

	slurp, err := os.ReadFile(getTokenFilePath(account))
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token found for account %s", account)
	}

	f := strings.Fields(strings.TrimSpace(string(slurp)))
	if len(f) != 2 {
		return nil, fmt.Errorf("invalid token format for account %s", account)
	}

	conf := getOAuthConfig()
	ts := conf.TokenSource(ctx, &oauth2.Token{
		AccessToken:  f[0],
		TokenType:    "Bearer",
		RefreshToken: f[1],
		Expiry:       time.Unix(1, 0),
	})

	if _, err := ts.Token(); err != nil {
		return nil, fmt.Errorf("cached token for account %s is invalid: %w", account, err)
	}

	return ts, nil
}

// GetTokenSource returns an OAuth2 token source for the default account
func GetTokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	return GetTokenSourceForAccount(ctx, "default")
}

// GetHTTPClientForAccount returns an HTTP client configured with OAuth2
// authentication for the specified account.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors
func GetHTTPClientForAccount(ctx context.Context, account string) (*http.Client, error) {
	ts, err := GetTokenSourceForAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, ts)

	// Force HTTP/1.1 by disabling HTTP/2
	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		ForceAttemptHTTP2: false,
	}

	return client, nil
}

// GetHTTPClient returns an authenticated HTTP client for the default account
func GetHTTPClient(ctx context.Context) (*http.Client, error) {
	return GetHTTPClientForAccount(ctx, "default")
}

// MigrateDefaultToken moves a legacy single-account token file to the
// per-account naming scheme. Idempotent; a no-op when no legacy file
// exists.
func MigrateDefaultToken() error {
	cacheDir := filepath.Join(userCacheDir(), cacheDirName)
	oldFile := filepath.Join(cacheDir, "google.token")
	newFile := filepath.Join(cacheDir, "google-default.token")

	if _, err := os.Stat(oldFile); os.IsNotExist(err) {
		return nil
	}
	if _, err := os.Stat(newFile); err == nil {
		// Both exist; keep the per-account file and drop the legacy one.
		return os.Remove(oldFile)
	}
	return os.Rename(oldFile, newFile)
}

// GetAuthenticationErrorMessage returns a user-facing message telling
// how to authenticate the given account
func GetAuthenticationErrorMessage(account string) string {
	return fmt.Sprintf(
		"No valid Google OAuth token found for account %q.\n\n"+
			"Visit this URL to authorize access:\n%s\n\n"+
			"Then save the authorization code with the google_save_auth_code tool "+
			"(account: %s).",
		account, GetAuthURLForAccount(account), account)
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		panic("No Windows TEMP or TMP environment variables found")
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}

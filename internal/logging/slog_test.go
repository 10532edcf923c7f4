package logging

import (
	"errors"
	"log/slog"
	"testing"
)

func TestStringAttrs(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"operation", Operation("weekly_insights"), KeyOperation, "weekly_insights"},
		{"service", Service("gmail"), KeyService, "gmail"},
		{"account", Account("work"), KeyAccount, "work"},
		{"tool", Tool("get_unread_emails"), KeyTool, "get_unread_emails"},
		{"status", Status(StatusSuccess), KeyStatus, StatusSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value.String() != tt.wantVal {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.wantVal)
			}
		})
	}
}

func TestCount(t *testing.T) {
	attr := Count(42)
	if attr.Key != KeyCount {
		t.Errorf("Count key = %q, want %q", attr.Key, KeyCount)
	}
	if attr.Value.Int64() != 42 {
		t.Errorf("Count value = %d, want 42", attr.Value.Int64())
	}
}

func TestWithHelpers(t *testing.T) {
	base := slog.Default()

	if WithOperation(base, "search") == nil {
		t.Error("WithOperation returned nil")
	}
	if WithTool(base, "search_emails") == nil {
		t.Error("WithTool returned nil")
	}
	if WithService(base, "gmail") == nil {
		t.Error("WithService returned nil")
	}
	if WithAccount(base, "personal") == nil {
		t.Error("WithAccount returned nil")
	}
}

func TestErr(t *testing.T) {
	err := errors.New("quota exceeded")
	attr := Err(err)
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "quota exceeded" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "quota exceeded")
	}
}

func TestErrNil(t *testing.T) {
	// A nil error yields an empty group, which slog omits from output.
	attr := Err(nil)
	if attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty string", attr.Key)
	}
}

func TestAnonymizeEmail(t *testing.T) {
	got := AnonymizeEmail("alice@example.com")
	// "user:" prefix plus 16 hex characters.
	if len(got) != 21 {
		t.Fatalf("AnonymizeEmail length = %d, want 21", len(got))
	}
	if got[:5] != "user:" {
		t.Errorf("AnonymizeEmail should start with %q, got %q", "user:", got)
	}

	if AnonymizeEmail("") != "" {
		t.Error("AnonymizeEmail(\"\") should be empty")
	}

	if AnonymizeEmail("alice@example.com") != got {
		t.Error("AnonymizeEmail should be deterministic")
	}
	if AnonymizeEmail("bob@example.com") == got {
		t.Error("different emails should hash differently")
	}
}

func TestUserHash(t *testing.T) {
	attr := UserHash("alice@example.com")
	if attr.Key != KeyUserHash {
		t.Errorf("UserHash key = %q, want %q", attr.Key, KeyUserHash)
	}
	if attr.Value.String() != AnonymizeEmail("alice@example.com") {
		t.Error("UserHash should carry the anonymized email")
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"", "<empty>"},
		{"ya29.a0", "[token:7 chars]"},
		{"a_very_long_token_string", "[token:24 chars]"},
	}

	for _, tt := range tests {
		if got := SanitizeToken(tt.token); got != tt.expected {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.expected)
		}
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"alice@example.com", "example.com"},
		{"bob@gmail.com", "gmail.com"},
		{"no-at-sign", ""},
		{"", ""},
		{"@", ""},
		{"trailing@", ""},
	}

	for _, tt := range tests {
		if got := ExtractDomain(tt.email); got != tt.expected {
			t.Errorf("ExtractDomain(%q) = %q, want %q", tt.email, got, tt.expected)
		}
	}
}

func TestDomain(t *testing.T) {
	attr := Domain("alice@example.com")
	if attr.Key != "user_domain" {
		t.Errorf("Domain key = %q, want %q", attr.Key, "user_domain")
	}
	if attr.Value.String() != "example.com" {
		t.Errorf("Domain value = %q, want %q", attr.Value.String(), "example.com")
	}
}

package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

// Attribute keys shared across the codebase so log lines stay
// queryable.
const (
	KeyOperation = "operation"
	KeyService   = "service"
	KeyAccount   = "account"
	KeyUserHash  = "user_hash"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
	KeyCount     = "count"
)

// Status values. Duplicated from the instrumentation package because
// instrumentation imports logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger scoped to an insight operation.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger scoped to an MCP tool.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithService returns a logger scoped to a Google service.
func WithService(logger *slog.Logger, service string) *slog.Logger {
	return logger.With(slog.String(KeyService, service))
}

// WithAccount returns a logger scoped to an account.
func WithAccount(logger *slog.Logger, account string) *slog.Logger {
	return logger.With(slog.String(KeyAccount, account))
}

// Operation builds the operation attribute.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Service builds the service attribute.
func Service(svc string) slog.Attr {
	return slog.String(KeyService, svc)
}

// Account builds the account attribute.
func Account(account string) slog.Attr {
	return slog.String(KeyAccount, account)
}

// Tool builds the tool attribute.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Status builds the status attribute.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Count builds a result count attribute.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Err builds the error attribute. A nil error yields an empty group,
// which slog omits, so Err(maybeNil) is always safe to pass.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail hashes an email into a stable "user:<hex>" token.
// Log entries stay correlatable without exposing the address.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(email))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash builds the user_hash attribute from an email address.
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}

// SanitizeToken masks a token for logging. Only the length survives;
// even token prefixes can leak JWT headers.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// ExtractDomain returns the domain part of an email address, or an
// empty string when the input is not a plain user@domain form.
func ExtractDomain(email string) string {
	if email == "" {
		return ""
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// Domain builds a user_domain attribute, a lower-cardinality
// alternative to logging the full address.
func Domain(email string) slog.Attr {
	return slog.String("user_domain", ExtractDomain(email))
}

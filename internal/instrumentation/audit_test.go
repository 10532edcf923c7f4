package instrumentation

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

const (
	testEmail      = "jane@example.com"
	testDomain     = "example.com"
	testAccount    = "work"
	testTraceID    = "abc123def456"
	testSpanID     = "span789"
	testToolUnread = "get_unread_emails"
	testToolSearch = "search_emails"
)

func attrsByKey(attrs []slog.Attr) map[string]slog.Attr {
	m := make(map[string]slog.Attr, len(attrs))
	for _, attr := range attrs {
		m[attr.Key] = attr
	}
	return m
}

func TestToolInvocation_Lifecycle(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ti := NewToolInvocation(testToolUnread)
		if ti.StartTime.IsZero() {
			t.Error("StartTime should be set on creation")
		}

		ti.CompleteSuccess()

		if !ti.Success {
			t.Error("Success should be true")
		}
		if ti.Duration < 0 {
			t.Error("Duration should not be negative")
		}
		if ti.Error != "" {
			t.Errorf("Error should be empty, got %q", ti.Error)
		}
	})

	t.Run("failure", func(t *testing.T) {
		ti := NewToolInvocation(testToolSearch)
		ti.CompleteWithError(errors.New("permission denied"))

		if ti.Success {
			t.Error("Success should be false")
		}
		if ti.Error != "permission denied" {
			t.Errorf("Error = %q, want %q", ti.Error, "permission denied")
		}
	})

	t.Run("complete with nil error leaves Error empty", func(t *testing.T) {
		ti := NewToolInvocation(testToolUnread)
		ti.Complete(true, nil)

		if ti.Error != "" {
			t.Errorf("Error = %q, want empty string", ti.Error)
		}
	})
}

func TestToolInvocation_Builders(t *testing.T) {
	ti := NewToolInvocation(testToolSearch).
		WithUser(testEmail).
		WithAccount(testAccount).
		WithService(ServiceGmail, OperationSearch)

	if ti.UserEmail != testEmail {
		t.Errorf("UserEmail = %q, want %q", ti.UserEmail, testEmail)
	}
	if ti.Account != testAccount {
		t.Errorf("Account = %q, want %q", ti.Account, testAccount)
	}
	if ti.ServiceName != ServiceGmail {
		t.Errorf("ServiceName = %q, want %q", ti.ServiceName, ServiceGmail)
	}
	if ti.Operation != OperationSearch {
		t.Errorf("Operation = %q, want %q", ti.Operation, OperationSearch)
	}
}

func TestToolInvocation_UserDomain(t *testing.T) {
	ti := NewToolInvocation(testToolUnread).WithUser(testEmail)

	if domain := ti.UserDomain(); domain != testDomain {
		t.Errorf("UserDomain() = %q, want %q", domain, testDomain)
	}
}

func TestToolInvocation_Status(t *testing.T) {
	ti := NewToolInvocation(testToolUnread)

	ti.Success = true
	if status := ti.Status(); status != StatusSuccess {
		t.Errorf("Status() = %q, want %q", status, StatusSuccess)
	}

	ti.Success = false
	if status := ti.Status(); status != StatusError {
		t.Errorf("Status() = %q, want %q", status, StatusError)
	}
}

func TestToolInvocation_LogAttrs(t *testing.T) {
	ti := NewToolInvocation(testToolSearch).
		WithUser(testEmail).
		WithAccount(testAccount).
		WithService(ServiceGmail, OperationSearch)
	ti.CompleteSuccess()
	ti.TraceID = testTraceID

	attrs := attrsByKey(ti.LogAttrs())

	for _, key := range []string{"tool", "user_domain", "duration", "success"} {
		if _, ok := attrs[key]; !ok {
			t.Errorf("missing required attribute %q", key)
		}
	}

	// Only the domain of the user appears in operational logs.
	if domain := attrs["user_domain"].Value.String(); domain != testDomain {
		t.Errorf("user_domain = %q, want %q", domain, testDomain)
	}
	if _, ok := attrs["user"]; ok {
		t.Error("full user email must not appear in operational log attributes")
	}

	if service := attrs["service"].Value.String(); service != ServiceGmail {
		t.Errorf("service = %q, want %q", service, ServiceGmail)
	}
	if operation := attrs["operation"].Value.String(); operation != OperationSearch {
		t.Errorf("operation = %q, want %q", operation, OperationSearch)
	}
}

func TestToolInvocation_LogAttrs_OmitsEmptyAndDefault(t *testing.T) {
	ti := NewToolInvocation(testToolUnread).WithAccount("default")
	ti.CompleteSuccess()

	attrs := attrsByKey(ti.LogAttrs())

	for _, key := range []string{"service", "operation", "trace_id", "error", "account"} {
		if _, ok := attrs[key]; ok {
			t.Errorf("attribute %q should be omitted", key)
		}
	}
}

func TestToolInvocation_LogAttrs_WithError(t *testing.T) {
	ti := NewToolInvocation(testToolUnread).
		WithUser(testEmail).
		CompleteWithError(errors.New("rate limited"))

	attrs := attrsByKey(ti.LogAttrs())

	if errVal := attrs["error"].Value.String(); errVal != "rate limited" {
		t.Errorf("error = %q, want %q", errVal, "rate limited")
	}
}

func TestToolInvocation_LogAuditAttrs(t *testing.T) {
	ti := NewToolInvocation(testToolSearch).
		WithUser(testEmail).
		WithAccount(testAccount).
		WithService(ServiceGmail, OperationSearch)
	ti.CompleteSuccess()
	ti.TraceID = testTraceID
	ti.SpanID = testSpanID

	attrs := attrsByKey(ti.LogAuditAttrs())

	// Audit attributes carry the full identity and trace context.
	if user := attrs["user"].Value.String(); user != testEmail {
		t.Errorf("user = %q, want %q", user, testEmail)
	}
	if account := attrs["account"].Value.String(); account != testAccount {
		t.Errorf("account = %q, want %q", account, testAccount)
	}
	if traceID := attrs["trace_id"].Value.String(); traceID != testTraceID {
		t.Errorf("trace_id = %q, want %q", traceID, testTraceID)
	}
	if spanID := attrs["span_id"].Value.String(); spanID != testSpanID {
		t.Errorf("span_id = %q, want %q", spanID, testSpanID)
	}
}

func TestToolInvocation_LogAuditAttrs_OmitsEmpty(t *testing.T) {
	ti := NewToolInvocation(testToolUnread)
	ti.CompleteSuccess()

	attrs := attrsByKey(ti.LogAuditAttrs())

	for _, key := range []string{"service", "operation", "trace_id", "span_id", "error"} {
		if _, ok := attrs[key]; ok {
			t.Errorf("attribute %q should be omitted when unset", key)
		}
	}
}

func TestToolInvocation_WithSpanContext_NoSpan(t *testing.T) {
	ti := NewToolInvocation(testToolUnread).WithSpanContext(context.Background())

	if ti.TraceID != "" {
		t.Errorf("TraceID = %q, want empty string", ti.TraceID)
	}
	if ti.SpanID != "" {
		t.Errorf("SpanID = %q, want empty string", ti.SpanID)
	}
}

func TestAuditLogger_New(t *testing.T) {
	al := NewAuditLogger(nil)
	if al.logger == nil {
		t.Error("nil logger should fall back to slog.Default")
	}

	logger := slog.Default()
	al = NewAuditLogger(logger)
	if al.logger != logger {
		t.Error("logger should be the provided logger")
	}
}

func TestAuditLogger_Logging(t *testing.T) {
	al := NewAuditLogger(slog.Default())

	success := NewToolInvocation(testToolUnread).
		WithUser(testEmail).
		WithAccount(testAccount).
		CompleteSuccess()
	failure := NewToolInvocation(testToolSearch).
		WithUser(testEmail).
		CompleteWithError(errors.New("backend unavailable"))
	audited := NewToolInvocation(testToolSearch).
		WithUser(testEmail).
		WithService(ServiceGmail, OperationSearch).
		CompleteSuccess()
	audited.TraceID = testTraceID

	// These must not panic regardless of outcome.
	al.LogToolInvocation(success)
	al.LogToolInvocation(failure)
	al.LogToolAudit(audited)
}

func TestAuditLogger_Disabled(t *testing.T) {
	al := NewAuditLoggerWithConfig(slog.Default(), AuditLoggingConfig{Enabled: false})

	ti := NewToolInvocation(testToolUnread).CompleteSuccess()

	// Disabled loggers drop records silently.
	al.LogToolInvocation(ti)
	al.LogToolAudit(ti)
}

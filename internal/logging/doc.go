// Package logging provides structured logging helpers built on the
// standard library's slog package.
//
// It centralizes attribute names (operation, tool, service, account,
// status) so log lines stay queryable across packages, and it holds
// the PII rules for a mail-reading service: email addresses are hashed
// into stable user:<hex> identifiers and tokens are reduced to their
// length before they reach a log sink.
//
// Create a scoped logger and record attributes:
//
//	logger := logging.WithOperation(slog.Default(), "weekly_insights")
//	logger.Info("scored unread messages",
//	    logging.Status(logging.StatusSuccess),
//	    logging.Count(12))
//
// Reference a user without leaking the address:
//
//	logger.Info("mailbox query", logging.UserHash(email))
package logging

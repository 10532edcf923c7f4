// Package insight_tools provides MCP (Model Context Protocol) tools for
// Gmail inbox insights.
//
// This package exposes five read-only query tools backed by the
// importance scoring engine:
//
//   - get_unread_emails: Unread messages scored and ordered by importance
//   - get_important_missed_emails: High-importance unread messages from
//     a recent window that may have been overlooked
//   - get_email_summary_by_sender: Per-sender aggregates (counts, unread,
//     average importance) over a window
//   - search_emails: Gmail query search with scored results
//   - get_weekly_email_insights: Seven-day activity overview with daily
//     breakdown and top unread messages
//
// Every tool accepts an optional "account" argument for multi-account
// setups; OAuth-authenticated HTTP requests override it with the
// authenticated user's email. Results are returned as JSON so agents
// can post-process them.
//
// None of the tools modify the mailbox. The only Gmail scope required
// is gmail.readonly.
package insight_tools

// Package resources provides MCP resources for exposing user and
// configuration data. Resources are read-only data sources that MCP
// clients can fetch: the authenticated user's mailbox profile, the
// active importance scoring policy, and setup instructions for
// first-time authentication.
package resources

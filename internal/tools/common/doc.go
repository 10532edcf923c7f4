// Package common holds helpers shared by the MCP tool packages, such
// as account argument extraction and the instrumentation wrapper for
// tool handlers.
package common

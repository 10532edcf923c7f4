// Package cmd implements the command-line interface for inboxpulse.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing the inbox insight tools
//   - digest: Print a weekly inbox digest to stdout
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The serve command is the default command when no subcommand is specified.
package cmd

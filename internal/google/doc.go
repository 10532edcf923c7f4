// Package google provides OAuth2 authentication and token management
// for the Gmail API.
//
// Tokens are stored per account in the user cache directory (STDIO
// transport) or supplied by the HTTP OAuth middleware (streamable-http
// transport). The TokenProvider interface lets both sources plug into
// the same Gmail client construction path.
package google

// Package insights implements the importance-scoring heuristic and the
// read-only query engine behind the inboxpulse MCP tools.
//
// The package is deliberately free of Gmail API types: messages arrive
// as normalized Message values through the Fetcher interface, are
// scored by a Scorer built from an immutable ScoringConfig, and are
// aggregated per call. Nothing is cached between calls; every
// operation recomputes scores from freshly fetched data.
package insights

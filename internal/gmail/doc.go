// Package gmail provides a read-only Gmail client for inbox insight
// queries. It implements the insights.Fetcher boundary: list message
// ids for a query, fetch metadata per id, and normalize the result
// into insights.Message values.
//
// All provider failures are mapped onto the insights error taxonomy
// so callers can distinguish an empty mailbox from a broken session.
package gmail

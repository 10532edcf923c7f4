package insights

import "errors"

// Failure kinds surfaced by the engine. Callers distinguish them with
// errors.Is; every provider-side failure is wrapped into exactly one of
// these so that "zero matches" is only ever the outcome of a successful
// fetch.
var (
	// ErrInvalidParameter marks out-of-range arguments. It is returned
	// before any provider call is made.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidQuery marks a search string the provider rejected.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrAuthentication marks a failure to establish or refresh the
	// provider session. The engine does not retry; refresh policy
	// belongs to the provider client.
	ErrAuthentication = errors.New("authentication failed")

	// ErrUnavailable marks a transient provider failure (network,
	// quota, 5xx).
	ErrUnavailable = errors.New("provider unavailable")
)

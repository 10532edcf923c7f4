package gmail

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/teemow/inboxpulse/internal/insights"
)

// mapError translates a Gmail API failure into the insights error
// taxonomy. Every error that leaves this package wraps exactly one of
// the insights sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: token refresh rejected: %v", insights.ErrAuthentication, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusBadRequest:
			return fmt.Errorf("%w: %v", insights.ErrInvalidQuery, err)
		case apiErr.Code == http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", insights.ErrAuthentication, err)
		case apiErr.Code == http.StatusForbidden:
			if isRateLimited(apiErr) {
				return fmt.Errorf("%w: %v", insights.ErrUnavailable, err)
			}
			return fmt.Errorf("%w: %v", insights.ErrAuthentication, err)
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %v", insights.ErrUnavailable, err)
		}
	}

	// Transport-level failures (DNS, TLS, connection reset).
	return fmt.Errorf("%w: %v", insights.ErrUnavailable, err)
}

// isRateLimited reports whether a 403 is a quota error rather than a
// permission error. Gmail signals quota exhaustion through the error
// reason, not the status code.
func isRateLimited(apiErr *googleapi.Error) bool {
	for _, e := range apiErr.Errors {
		switch e.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded", "dailyLimitExceeded":
			return true
		}
	}
	return false
}

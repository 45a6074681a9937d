package microsoft

import (
	"fmt"
	"net/http"

	"github.com/custodia-labs/outcal/internal/core/domain"
)

// WrapStatus converts a Microsoft Graph HTTP status code to the
// extraction error class for this run. Every class is terminal; no retry
// is attempted.
func WrapStatus(statusCode int) error {
	switch {
	case statusCode == http.StatusOK:
		return nil
	case statusCode == http.StatusUnauthorized:
		return domain.ErrSessionExpired
	case statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: access forbidden (status %d)", domain.ErrProviderError, statusCode)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: throttled (status %d)", domain.ErrProviderError, statusCode)
	case statusCode >= 500:
		return fmt.Errorf("%w: server error (status %d)", domain.ErrProviderError, statusCode)
	default:
		return fmt.Errorf("%w: unexpected status %d", domain.ErrProviderError, statusCode)
	}
}

// IsUnauthorised checks if the status code indicates an expired or
// invalid access token.
func IsUnauthorised(statusCode int) bool {
	return statusCode == http.StatusUnauthorized
}

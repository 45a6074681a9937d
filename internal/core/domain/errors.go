package domain

import (
	"errors"
	"fmt"
)

// Every error below is terminal for a run: the process reports it and
// exits non-zero. There is no retry loop or partial-success state.

// Configuration errors.
var (
	// ErrTargetNotFound indicates the requested target is not configured.
	ErrTargetNotFound = errors.New("config: target not found")

	// ErrMTLSIncomplete indicates a POST destination is configured but one
	// or more of the ca/cert/key paths is missing or unreadable.
	ErrMTLSIncomplete = errors.New("config: incomplete mTLS configuration")

	// ErrNoPostURL indicates --post was requested without a [post] url.
	ErrNoPostURL = errors.New("config: no post url configured")

	// ErrGraphAppMissing indicates the programmatic variant was requested
	// without a [graph] tenant_id/client_id pair.
	ErrGraphAppMissing = errors.New("config: graph tenant_id and client_id required")

	// ErrConfigInvalid indicates the config file could not be parsed, or
	// the requested flag combination is unusable.
	ErrConfigInvalid = errors.New("config: invalid configuration")
)

// Authentication errors.
var (
	// ErrInvalidCredentials indicates the provider rejected the username
	// or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrTwoFactorDenied indicates the out-of-band approval was declined.
	ErrTwoFactorDenied = errors.New("auth: two-factor approval denied")

	// ErrAuthTimeout indicates login or two-factor approval did not
	// complete within the bounded wait.
	ErrAuthTimeout = errors.New("auth: timed out waiting for sign-in")

	// ErrAuthNetwork indicates the identity provider was unreachable.
	ErrAuthNetwork = errors.New("auth: network failure")
)

// Extraction errors.
var (
	// ErrSessionExpired indicates the session became invalid before the
	// extraction completed.
	ErrSessionExpired = errors.New("extract: session expired")

	// ErrParseFailure indicates provider output could not be parsed into
	// calendar events.
	ErrParseFailure = errors.New("extract: parse failure")

	// ErrProviderError indicates the calendar provider returned an error.
	ErrProviderError = errors.New("extract: provider error")
)

// Delivery errors.
var (
	// ErrIOFailure indicates the formatted output could not be written or
	// transmitted.
	ErrIOFailure = errors.New("deliver: i/o failure")

	// ErrTLSHandshake indicates the mutual-TLS handshake failed.
	ErrTLSHandshake = errors.New("deliver: tls handshake failed")
)

// HTTPStatusError reports a non-2xx response from the POST destination.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("deliver: endpoint returned status %d", e.Code)
}

// Exit codes per error class. Anything unclassified maps to ExitFailure.
const (
	ExitSuccess  = 0
	ExitFailure  = 1
	ExitConfig   = 2
	ExitAuth     = 3
	ExitExtract  = 4
	ExitDelivery = 5
)

// ExitCode maps an error to the process exit code for its class.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case isAny(err, ErrTargetNotFound, ErrMTLSIncomplete, ErrNoPostURL, ErrGraphAppMissing, ErrConfigInvalid):
		return ExitConfig
	case isAny(err, ErrInvalidCredentials, ErrTwoFactorDenied, ErrAuthTimeout, ErrAuthNetwork):
		return ExitAuth
	case isAny(err, ErrSessionExpired, ErrParseFailure, ErrProviderError):
		return ExitExtract
	case isAny(err, ErrIOFailure, ErrTLSHandshake):
		return ExitDelivery
	default:
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) {
			return ExitDelivery
		}
		return ExitFailure
	}
}

func isAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

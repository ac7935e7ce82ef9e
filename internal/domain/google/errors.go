package google

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration signals missing or disabled OAuth client credentials.
	ErrConfiguration = errors.New("google: integration not configured")
	// ErrProtocol indicates a malformed callback (missing code/state, bad encoding).
	ErrProtocol = errors.New("google: invalid callback parameters")
	// ErrAuthorizationDenied is returned when the provider reports a denial.
	ErrAuthorizationDenied = errors.New("google: authorization denied")
	// ErrStateExpired means no stored state was found for the callback's key.
	ErrStateExpired = errors.New("google: state token expired or not found")
	// ErrStateMismatch means the presented state token does not equal the stored one.
	ErrStateMismatch = errors.New("google: state token mismatch")
	// ErrExchangeFailed wraps transport or provider failures during the code exchange.
	ErrExchangeFailed = errors.New("google: token exchange failed")
	// ErrNoRefreshToken means the exchange succeeded but yielded no refresh token.
	ErrNoRefreshToken = errors.New("google: no refresh token received")
	// ErrNotAuthorized means the user has no stored refresh token.
	ErrNotAuthorized = errors.New("google: account not authorized")
	// ErrAuthorizationExpired means the stored refresh token no longer refreshes.
	ErrAuthorizationExpired = errors.New("google: authorization expired")
	// ErrUpstream marks a transient upstream failure after retries were exhausted.
	ErrUpstream = errors.New("google: upstream request failed")
	// ErrPermissionDenied is the document-store permission failure that triggers
	// the direct-write fallback in the credential repository.
	ErrPermissionDenied = errors.New("google: permission denied")
)

// APIError is a permanent, non-retryable upstream failure carrying the
// provider's HTTP status.
type APIError struct {
	Status int
	Err    error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("google: api error (status %d): %v", e.Status, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsClientError reports whether err is a permanent upstream client error,
// optionally matching a specific status.
func IsClientError(err error, status int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return status == 0 || apiErr.Status == status
}

// internal/authflow/errors.go
package authflow

import "fmt"

// AuthDeniedError means the provider did not grant an access token: the
// user declined, the client credentials were rejected, or the callback was
// malformed. Terminal; the flow must be restarted from the beginning.
type AuthDeniedError struct {
	Reason string
	Err    error
}

func (e *AuthDeniedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authorization denied: %s: %v", e.Reason, e.Err)
	}
	return "authorization denied: " + e.Reason
}

func (e *AuthDeniedError) Unwrap() error { return e.Err }

// RefreshFailedError means the refresh token was rejected, revoked or the
// token endpoint errored. Not retried; the caller restarts the full flow.
type RefreshFailedError struct {
	Reason string
	Err    error
}

func (e *RefreshFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token refresh failed: %s: %v", e.Reason, e.Err)
	}
	return "token refresh failed: " + e.Reason
}

func (e *RefreshFailedError) Unwrap() error { return e.Err }

// Package sessionstore persists the OAuth2 token for each browser session.
//
// Backends mirror the service's storage configuration: redis when REDIS_URL
// is set, postgres when DATABASE_URL is set, an in-process map otherwise.
package sessionstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session holds no token.
var ErrNotFound = errors.New("sessionstore: no token for session")

// ExpiryBuffer keeps a token that is about to lapse from being sent on the
// wire; a refresh is triggered this long before the real expiry.
const ExpiryBuffer = 60 * time.Second

// Token is the credential set obtained from the provider for one session.
// AccessToken and Expiry change on every refresh; the remaining fields
// survive a refresh unless the provider reissues them.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry,omitempty"`
	Scope        []string  `json:"scope,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	ObtainedAt   time.Time `json:"obtained_at"`
}

// Fresh reports whether the access token is usable at now without a refresh.
func (t *Token) Fresh(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	if t.Expiry.IsZero() {
		return true
	}
	return now.Add(ExpiryBuffer).Before(t.Expiry)
}

// Store holds at most one Token per session id.
//
// Set must replace atomically: a concurrent reader observes either the old
// token or the new one, never a partial write. Get must see a preceding Set
// from the same request (read-your-writes).
type Store interface {
	Get(ctx context.Context, sessionID string) (*Token, error)
	Set(ctx context.Context, sessionID string, tok *Token) error
	Delete(ctx context.Context, sessionID string) error
}

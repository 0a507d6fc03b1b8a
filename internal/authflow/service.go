// Package authflow owns the OAuth2 token lifecycle: the authorization-code
// handshake with the provider, transparent refresh ahead of expiry, and
// teardown on logout. Tokens live in the session store; this package is the
// only writer.
package authflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"ledgerdemo/internal/sessionstore"
	"ledgerdemo/pkg/config"
	"ledgerdemo/pkg/metrics"
)

// ErrNoToken is returned when the session has never authorized (or has
// logged out). Callers redirect to the login entry point.
var ErrNoToken = errors.New("authflow: session has no token")

type Service struct {
	oauth *oauth2.Config
	store sessionstore.Store
	log   *zap.SugaredLogger
	now   func() time.Time

	// Collapses concurrent refreshes for one session (two tabs, one
	// token-endpoint round trip, one store write).
	flight singleflight.Group
}

func New(cfg config.Config, store sessionstore.Store, log *zap.SugaredLogger) *Service {
	return &Service{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// AuthCodeURL builds the provider redirect for the given anti-forgery state.
func (s *Service) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Complete exchanges the authorization code and persists the resulting
// token, replacing any prior token for the session. Exactly one store write
// happens on success; on failure the store is untouched.
func (s *Service) Complete(ctx context.Context, sessionID, code string) (*sessionstore.Token, error) {
	if code == "" {
		return nil, &AuthDeniedError{Reason: "callback carried no authorization code"}
	}
	tk, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, &AuthDeniedError{Reason: "code exchange rejected", Err: err}
	}
	if tk.AccessToken == "" {
		return nil, &AuthDeniedError{Reason: "provider response carried no access token"}
	}
	tok := fromOAuth2(tk, s.now())
	if err := s.store.Set(ctx, sessionID, tok); err != nil {
		return nil, err
	}
	metrics.LoginsTotal.Inc()
	s.log.Infow("authorization complete", "session", sessionID, "scopes", len(tok.Scope))
	return tok, nil
}

// Token returns a token that is safe to send: the stored one while fresh,
// a refreshed replacement once the stored one is inside the expiry buffer.
// ErrNoToken means the session must re-authorize.
func (s *Service) Token(ctx context.Context, sessionID string) (*sessionstore.Token, error) {
	tok, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, sessionstore.ErrNotFound) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, err
	}
	if tok.Fresh(s.now()) {
		return tok, nil
	}
	return s.refresh(ctx, sessionID, tok)
}

// Refresh forces a refresh-token grant regardless of the current token's
// freshness. Kept as its own operation for the /refresh demonstration.
func (s *Service) Refresh(ctx context.Context, sessionID string) (*sessionstore.Token, error) {
	tok, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, sessionstore.ErrNotFound) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, sessionID, tok)
}

// Logout discards the session's token locally. The provider is not
// contacted; see identity.Resolver for revocation.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

func (s *Service) refresh(ctx context.Context, sessionID string, cur *sessionstore.Token) (*sessionstore.Token, error) {
	if cur.RefreshToken == "" {
		return nil, &RefreshFailedError{Reason: "no refresh token held for session"}
	}
	v, err, _ := s.flight.Do(sessionID, func() (any, error) {
		// A concurrent request may have refreshed while we queued; reread
		// so the second caller adopts the first one's token instead of
		// invalidating it with a second grant.
		if latest, err := s.store.Get(ctx, sessionID); err == nil &&
			latest.Fresh(s.now()) && latest.AccessToken != cur.AccessToken {
			return latest, nil
		}
		src := s.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: cur.RefreshToken})
		tk, err := src.Token()
		if err != nil {
			metrics.RefreshTotal.WithLabelValues("error").Inc()
			return nil, &RefreshFailedError{Reason: "token endpoint rejected refresh", Err: err}
		}
		next := fromOAuth2(tk, s.now())
		// The provider may omit fields it is not reissuing; carry them over.
		if next.RefreshToken == "" {
			next.RefreshToken = cur.RefreshToken
		}
		if len(next.Scope) == 0 {
			next.Scope = cur.Scope
		}
		if next.IDToken == "" {
			next.IDToken = cur.IDToken
		}
		if err := s.store.Set(ctx, sessionID, next); err != nil {
			return nil, err
		}
		metrics.RefreshTotal.WithLabelValues("ok").Inc()
		s.log.Infow("token refreshed", "session", sessionID, "expiry", next.Expiry)
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sessionstore.Token), nil
}

// fromOAuth2 converts the library token, pulling scope and id_token out of
// the extra response fields.
func fromOAuth2(tk *oauth2.Token, now time.Time) *sessionstore.Token {
	tok := &sessionstore.Token{
		AccessToken:  tk.AccessToken,
		RefreshToken: tk.RefreshToken,
		TokenType:    tk.TokenType,
		Expiry:       tk.Expiry,
		ObtainedAt:   now,
	}
	if sc, ok := tk.Extra("scope").(string); ok && sc != "" {
		tok.Scope = strings.Fields(sc)
	}
	if idt, ok := tk.Extra("id_token").(string); ok {
		tok.IDToken = idt
	}
	return tok
}

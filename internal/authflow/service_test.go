package authflow_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ledgerdemo/internal/authflow"
	"ledgerdemo/internal/sessionstore"
	"ledgerdemo/pkg/config"
)

// fakeProvider is a token endpoint that answers authorization_code and
// refresh_token grants with canned responses.
type fakeProvider struct {
	mu           sync.Mutex
	exchanges    int
	refreshes    int32
	exchangeBody map[string]any
	refreshBody  map[string]any
}

func (p *fakeProvider) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		var body map[string]any
		switch r.Form.Get("grant_type") {
		case "authorization_code":
			p.mu.Lock()
			p.exchanges++
			body = p.exchangeBody
			p.mu.Unlock()
		case "refresh_token":
			atomic.AddInt32(&p.refreshes, 1)
			p.mu.Lock()
			body = p.refreshBody
			p.mu.Unlock()
		default:
			http.Error(w, `{"error":"unsupported_grant_type"}`, http.StatusBadRequest)
			return
		}
		if body == nil {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
}

func newService(t *testing.T, p *fakeProvider) (*authflow.Service, sessionstore.Store) {
	t.Helper()
	srv := httptest.NewServer(p.handler())
	t.Cleanup(srv.Close)
	store := sessionstore.NewMemoryStore(0)
	cfg := config.Config{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		AuthURL:      srv.URL + "/authorize",
		TokenURL:     srv.URL + "/token",
		RedirectURL:  "http://localhost:8080/callback",
	}
	return authflow.New(cfg, store, zap.NewNop().Sugar()), store
}

func TestCompletePersistsToken(t *testing.T) {
	p := &fakeProvider{exchangeBody: map[string]any{
		"access_token":  "abc",
		"refresh_token": "r1",
		"token_type":    "Bearer",
		"expires_in":    1800,
		"scope":         "openid accounting.transactions",
		"id_token":      "idtok",
	}}
	svc, store := newService(t, p)
	ctx := context.Background()

	tok, err := svc.Complete(ctx, "s1", "code-1")
	require.NoError(t, err)
	require.Equal(t, "abc", tok.AccessToken)
	require.Equal(t, "r1", tok.RefreshToken)
	require.Equal(t, []string{"openid", "accounting.transactions"}, tok.Scope)
	require.Equal(t, "idtok", tok.IDToken)

	// The store holds exactly that token and Token() returns it unchanged.
	stored, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "abc", stored.AccessToken)

	again, err := svc.Token(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "abc", again.AccessToken)
	require.EqualValues(t, 0, atomic.LoadInt32(&p.refreshes), "fresh token must not trigger a refresh")
}

func TestCompleteDeniedLeavesStoreUntouched(t *testing.T) {
	cases := []struct {
		name string
		body map[string]any
		code string
	}{
		{"missing code", map[string]any{"access_token": "abc"}, ""},
		{"response without access token", map[string]any{"token_type": "Bearer", "expires_in": 1800}, "code-1"},
		{"endpoint rejects grant", nil, "code-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &fakeProvider{exchangeBody: tc.body}
			svc, store := newService(t, p)
			ctx := context.Background()

			_, err := svc.Complete(ctx, "s1", tc.code)
			var denied *authflow.AuthDeniedError
			require.ErrorAs(t, err, &denied)

			_, err = store.Get(ctx, "s1")
			require.ErrorIs(t, err, sessionstore.ErrNotFound)
		})
	}
}

func TestRefreshReplacesAccessTokenAtomically(t *testing.T) {
	p := &fakeProvider{refreshBody: map[string]any{
		"access_token": "new-token",
		"token_type":   "Bearer",
		"expires_in":   1800,
	}}
	svc, store := newService(t, p)
	ctx := context.Background()

	prior := &sessionstore.Token{
		AccessToken:  "old-token",
		RefreshToken: "r1",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(30 * time.Minute),
		Scope:        []string{"openid"},
		IDToken:      "idtok",
	}
	require.NoError(t, store.Set(ctx, "s1", prior))

	tok, err := svc.Refresh(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "new-token", tok.AccessToken)
	require.NotEqual(t, prior.AccessToken, tok.AccessToken)
	// Fields the provider did not reissue carry over.
	require.Equal(t, "r1", tok.RefreshToken)
	require.Equal(t, []string{"openid"}, tok.Scope)
	require.Equal(t, "idtok", tok.IDToken)

	stored, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "new-token", stored.AccessToken)
}

func TestRefreshAdoptsReissuedRefreshToken(t *testing.T) {
	p := &fakeProvider{refreshBody: map[string]any{
		"access_token":  "new-token",
		"refresh_token": "r2",
		"token_type":    "Bearer",
		"expires_in":    1800,
	}}
	svc, store := newService(t, p)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "s1", &sessionstore.Token{AccessToken: "old", RefreshToken: "r1"}))
	tok, err := svc.Refresh(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "r2", tok.RefreshToken)
}

func TestTokenTransparentlyRefreshesExpired(t *testing.T) {
	p := &fakeProvider{refreshBody: map[string]any{
		"access_token": "fresh",
		"token_type":   "Bearer",
		"expires_in":   1800,
	}}
	svc, store := newService(t, p)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "s1", &sessionstore.Token{
		AccessToken:  "stale",
		RefreshToken: "r1",
		Expiry:       time.Now().Add(-time.Minute),
	}))

	tok, err := svc.Token(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "fresh", tok.AccessToken)
	require.EqualValues(t, 1, atomic.LoadInt32(&p.refreshes))
}

func TestConcurrentRefreshCollapses(t *testing.T) {
	p := &fakeProvider{refreshBody: map[string]any{
		"access_token": "fresh",
		"token_type":   "Bearer",
		"expires_in":   1800,
	}}
	svc, store := newService(t, p)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "s1", &sessionstore.Token{
		AccessToken:  "stale",
		RefreshToken: "r1",
		Expiry:       time.Now().Add(-time.Minute),
	}))

	var wg sync.WaitGroup
	results := make([]string, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := svc.Token(ctx, "s1")
			require.NoError(t, err)
			results[i] = tok.AccessToken
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		require.Equal(t, "fresh", got)
	}
	require.EqualValues(t, 1, atomic.LoadInt32(&p.refreshes), "two tabs share one refresh round trip")
}

func TestRefreshFailure(t *testing.T) {
	p := &fakeProvider{} // nil refreshBody → invalid_grant
	svc, store := newService(t, p)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "s1", &sessionstore.Token{AccessToken: "old", RefreshToken: "revoked"}))

	_, err := svc.Refresh(ctx, "s1")
	var rf *authflow.RefreshFailedError
	require.ErrorAs(t, err, &rf)
}

func TestRefreshWithoutRefreshToken(t *testing.T) {
	p := &fakeProvider{}
	svc, store := newService(t, p)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "s1", &sessionstore.Token{AccessToken: "old"}))
	_, err := svc.Refresh(ctx, "s1")
	var rf *authflow.RefreshFailedError
	require.ErrorAs(t, err, &rf)
}

func TestLogoutClearsToken(t *testing.T) {
	p := &fakeProvider{exchangeBody: map[string]any{"access_token": "abc", "token_type": "Bearer"}}
	svc, _ := newService(t, p)
	ctx := context.Background()

	_, err := svc.Complete(ctx, "s1", "code-1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, "s1"))
	_, err = svc.Token(ctx, "s1")
	require.ErrorIs(t, err, authflow.ErrNoToken)
}

func TestTokenWithoutSession(t *testing.T) {
	svc, _ := newService(t, &fakeProvider{})
	_, err := svc.Token(context.Background(), "never-seen")
	require.ErrorIs(t, err, authflow.ErrNoToken)
}

func TestAuthCodeURL(t *testing.T) {
	svc, _ := newService(t, &fakeProvider{})
	u := svc.AuthCodeURL("state-123")
	require.Contains(t, u, "client_id=client-1")
	require.Contains(t, u, "state=state-123")
	require.Contains(t, u, "access_type=offline")
	require.Contains(t, u, "offline_access")
}

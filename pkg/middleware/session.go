// pkg/middleware/session.go
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"ledgerdemo/internal/sessionstore"
)

type sessionCtxKey struct{}

// SessionCookie carries the opaque session id; the token itself never
// leaves the server side.
const SessionCookie = "ledger_session"

// SessionID assigns a session id cookie on first contact and stores the id
// in the request context for downstream handlers.
func SessionID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sid string
			if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
				sid = c.Value
			} else {
				sid = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := context.WithValue(r.Context(), sessionCtxKey{}, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom returns the session id placed in the context by SessionID.
func SessionFrom(ctx context.Context) string {
	if v, ok := ctx.Value(sessionCtxKey{}).(string); ok {
		return v
	}
	return ""
}

// RequireToken is the access guard for tenant-scoped routes. It checks only
// that a token exists for the session; an expired token passes the gate and
// fails downstream at the provider, which is where freshness is enforced.
func RequireToken(store sessionstore.Store, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := SessionFrom(r.Context())
			if sid == "" {
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}
			if _, err := store.Get(r.Context(), sid); err != nil {
				if errors.Is(err, sessionstore.ErrNotFound) {
					http.Redirect(w, r, loginPath, http.StatusFound)
					return
				}
				http.Error(w, "session store unavailable", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// internal/webapp/handlers.go
package webapp

import (
	"net/http"

	"github.com/google/uuid"

	"ledgerdemo/internal/authflow"
	"ledgerdemo/pkg/middleware"
)

// stateCookie binds the anti-forgery state to the browser that started the
// flow. Checked and burned on callback.
const stateCookie = "ledger_auth_state"

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, a.flow.AuthCodeURL(state), http.StatusFound)
}

func (a *App) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errCode := q.Get("error"); errCode != "" {
		a.renderProblem(w, r, &authflow.AuthDeniedError{Reason: "provider reported " + errCode})
		return
	}
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != q.Get("state") {
		a.renderProblem(w, r, &authflow.AuthDeniedError{Reason: "state parameter mismatch"})
		return
	}
	clearCookie(w, stateCookie)

	sid := middleware.SessionFrom(r.Context())
	if _, err := a.flow.Complete(r.Context(), sid, q.Get("code")); err != nil {
		a.renderProblem(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionFrom(r.Context())
	if err := a.flow.Logout(r.Context(), sid); err != nil {
		a.renderProblem(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionFrom(r.Context())
	tok, err := a.flow.Refresh(r.Context(), sid)
	if err != nil {
		a.renderProblem(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"refreshed": true,
		"expiry":    tok.Expiry,
	}, http.StatusOK)
}

// handleDisconnect revokes the active connection at the provider, then
// drops the local token: after a successful revocation it could no longer
// reach any tenant anyway.
func (a *App) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionFrom(r.Context())
	tok, err := a.flow.Token(r.Context(), sid)
	if err != nil {
		a.renderProblem(w, r, err)
		return
	}
	if err := a.resolver.Disconnect(r.Context(), tok); err != nil {
		a.renderProblem(w, r, err)
		return
	}
	if err := a.flow.Logout(r.Context(), sid); err != nil {
		a.renderProblem(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}

// internal/webapp/problems.go
package webapp

import (
	"encoding/json"
	"errors"
	"net/http"

	"ledgerdemo/internal/accounting"
	"ledgerdemo/internal/authflow"
	"ledgerdemo/internal/identity"
	"ledgerdemo/pkg/middleware"
	"ledgerdemo/pkg/problems"
)

// renderProblem maps the error taxonomy onto problem+json responses so
// callers can branch on the tagged kind instead of parsing a message.
func (a *App) renderProblem(w http.ResponseWriter, r *http.Request, err error) {
	var (
		denied   *authflow.AuthDeniedError
		refresh  *authflow.RefreshFailedError
		external *accounting.ExternalAPIError
	)
	status := http.StatusBadGateway
	slug := "internal"
	title := "request failed"
	switch {
	case errors.Is(err, authflow.ErrNoToken):
		// Guarded routes never get here; unguarded ones send the user to login.
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	case errors.As(err, &denied):
		status, slug, title = http.StatusUnauthorized, problems.SlugAuthDenied, "authorization denied"
	case errors.As(err, &refresh):
		status, slug, title = http.StatusUnauthorized, problems.SlugRefreshFailed, "token refresh failed"
	case errors.Is(err, identity.ErrNoActiveTenant):
		status, slug, title = http.StatusNotFound, problems.SlugNoActiveTenant, "no active tenant"
	case errors.As(err, &external):
		status, slug, title = external.Status, problems.SlugExternalAPI, "accounting api error"
	}
	reqID := middleware.RequestIDFrom(r.Context())
	a.log.Warnw("request problem", "path", r.URL.Path, "kind", slug, "req", reqID, "err", err)
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":       problems.Type(slug),
		"title":      title,
		"status":     status,
		"detail":     err.Error(),
		"request_id": reqID,
	})
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// internal/webapp/demo.go
package webapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ledgerdemo/pkg/metrics"
	"ledgerdemo/pkg/middleware"
)

// handleDemo runs one registered operation: valid token → tenant id →
// resource call → summary. The tenant is re-derived on every call rather
// than cached, so access changes at the provider take effect immediately.
func (a *App) handleDemo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "operation")
	op, ok := a.registry.Find(name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	sid := middleware.SessionFrom(r.Context())
	tok, err := a.flow.Token(r.Context(), sid)
	if err != nil {
		metrics.APICallsTotal.WithLabelValues(op.Name, "auth_error").Inc()
		a.renderProblem(w, r, err)
		return
	}
	tenantID, err := a.resolver.ResolveTenantID(r.Context(), tok)
	if err != nil {
		metrics.APICallsTotal.WithLabelValues(op.Name, "tenant_error").Inc()
		a.renderProblem(w, r, err)
		return
	}

	var body any
	if op.Body != nil {
		body = op.Body
	}
	raw, err := a.api.Do(r.Context(), tok.AccessToken, tenantID, op.Method, op.APIPath, body)
	if err != nil {
		metrics.APICallsTotal.WithLabelValues(op.Name, "api_error").Inc()
		a.renderProblem(w, r, err)
		return
	}
	summary, err := Summarize(op, raw)
	if err != nil {
		a.log.Warnw("summary extraction", "operation", op.Name, "err", err)
	}
	metrics.APICallsTotal.WithLabelValues(op.Name, "ok").Inc()
	writeJSON(w, map[string]any{
		"operation": op.Name,
		"summary":   op.Summary,
		"tenant_id": tenantID,
		"extract":   summary,
		"response":  raw,
	}, http.StatusOK)
}

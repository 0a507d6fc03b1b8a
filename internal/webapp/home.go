// internal/webapp/home.go
package webapp

import (
	"errors"
	"html/template"
	"net/http"

	"ledgerdemo/internal/authflow"
	"ledgerdemo/internal/identity"
	"ledgerdemo/pkg/middleware"
)

var homeTmpl = template.Must(template.New("home").Parse(`<!doctype html>
<html>
<head><title>Ledger demo app</title></head>
<body>
<h1>Ledger demo app</h1>
{{if .Authenticated}}
  <p>Signed in{{if .Claims.Email}} as <b>{{.Claims.Email}}</b>{{end}}{{if .Claims.Name}} ({{.Claims.Name}}){{end}}.</p>
  {{if .TenantName}}<p>Active organisation: <b>{{.TenantName}}</b> ({{.TenantID}})</p>{{else}}<p>No active organisation for this token.</p>{{end}}
  <p><a href="/refresh">Refresh token</a> | <a href="/logout">Log out</a> | <a href="/disconnect">Disconnect</a></p>
  <h2>Demonstrations</h2>
  <table border="1" cellpadding="4">
    <tr><th>Operation</th><th>Method</th><th>Resource</th><th></th></tr>
    {{range .Ops}}
    <tr><td>{{.Name}}</td><td>{{.Method}}</td><td>{{.APIPath}}</td><td><a href="/demo/{{.Name}}">run</a></td></tr>
    {{end}}
  </table>
{{else}}
  <p>Not connected. <a href="/login">Connect to your accounting provider</a>.</p>
{{end}}
</body>
</html>
`))

type homeView struct {
	Authenticated bool
	Claims        identity.Claims
	TenantID      string
	TenantName    string
	Ops           []Operation
}

func (a *App) handleHome(w http.ResponseWriter, r *http.Request) {
	view := homeView{Ops: a.registry.Ops}

	sid := middleware.SessionFrom(r.Context())
	tok, err := a.flow.Token(r.Context(), sid)
	switch {
	case err == nil:
		view.Authenticated = true
		if tok.IDToken != "" {
			if claims, cerr := a.verifier.Verify(r.Context(), tok.IDToken); cerr == nil {
				view.Claims = claims
			} else {
				a.log.Warnw("id_token verify", "err", cerr)
			}
		}
		if conns, cerr := a.resolver.Connections(r.Context(), tok); cerr == nil {
			for _, c := range conns {
				if c.TenantType == identity.TenantTypeOrganisation {
					view.TenantID = c.TenantID
					view.TenantName = c.TenantName
					break
				}
			}
		} else {
			a.log.Warnw("connections fetch for home view", "err", cerr)
		}
	case errors.Is(err, authflow.ErrNoToken):
		// anonymous view
	default:
		// An unusable token renders the signed-out view rather than a 500;
		// the next /login replaces it.
		a.log.Warnw("token lookup for home view", "err", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTmpl.Execute(w, view); err != nil {
		a.log.Errorw("home render", "err", err)
	}
}

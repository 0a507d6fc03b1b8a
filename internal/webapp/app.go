// Package webapp assembles the demo application's HTTP surface: the auth
// routes owned by the token-lifecycle core and the registry-driven resource
// demonstrations built on top of it.
package webapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ledgerdemo/internal/accounting"
	"ledgerdemo/internal/authflow"
	"ledgerdemo/internal/identity"
	"ledgerdemo/internal/sessionstore"
	"ledgerdemo/pkg/config"
	"ledgerdemo/pkg/middleware"
)

type App struct {
	log      *zap.SugaredLogger
	cfg      config.Config
	store    sessionstore.Store
	flow     *authflow.Service
	resolver *identity.Resolver
	verifier *identity.IDTokenVerifier
	api      *accounting.Client
	registry *Registry
}

func NewApp(cfg config.Config, store sessionstore.Store, flow *authflow.Service, resolver *identity.Resolver, verifier *identity.IDTokenVerifier, api *accounting.Client, registry *Registry, log *zap.SugaredLogger) *App {
	return &App{
		log:      log,
		cfg:      cfg,
		store:    store,
		flow:     flow,
		resolver: resolver,
		verifier: verifier,
		api:      api,
		registry: registry,
	}
}

// Router wires the middleware chain and routes. The guard sits on the demo
// subtree only; the auth routes themselves must stay reachable without a
// token or nobody could ever obtain one.
func (a *App) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(a.log))
	r.Use(middleware.Tracing("ledger-demo-app"))
	r.Use(middleware.SessionID())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Get("/", a.handleHome)
	r.Get("/login", a.handleLogin)
	r.Get("/callback", a.handleCallback)
	r.Get("/logout", a.handleLogout)
	r.Get("/refresh", a.handleRefresh)
	r.Get("/disconnect", a.handleDisconnect)

	r.Route("/demo", func(dr chi.Router) {
		dr.Use(middleware.RequireToken(a.store, "/login"))
		dr.Get("/{operation}", a.handleDemo)
	})
	return r
}

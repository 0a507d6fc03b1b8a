// cmd/demo-app/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledgerdemo/internal/accounting"
	"ledgerdemo/internal/authflow"
	"ledgerdemo/internal/identity"
	"ledgerdemo/internal/sessionstore"
	"ledgerdemo/internal/webapp"
	"ledgerdemo/pkg/config"
	"ledgerdemo/pkg/db"
	"ledgerdemo/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	var store sessionstore.Store
	switch {
	case cfg.RedisURL != "":
		store = sessionstore.NewRedisStore(db.MustRedis(cfg, log), cfg.SessionTTL, log)
	case cfg.DatabaseURL != "":
		pool := db.MustConnect(cfg, log)
		if err := sessionstore.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("schema", "err", err)
		}
		store = sessionstore.NewPostgresStore(pool, cfg.SessionTTL, log)
	default:
		store = sessionstore.NewMemoryStore(cfg.SessionTTL)
	}

	registry, err := webapp.LoadRegistry(cfg.RegistryDir)
	if err != nil {
		log.Fatalw("registry", "dir", cfg.RegistryDir, "err", err)
	}

	flow := authflow.New(cfg, store, log)
	resolver := identity.NewResolver(cfg, log)
	verifier := identity.NewIDTokenVerifier(cfg)
	api := accounting.NewClient(cfg)

	app := webapp.NewApp(cfg, store, flow, resolver, verifier, api, registry, log)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: app.Router()}
	go func() {
		log.Infow("demo-app listening", "addr", cfg.HTTPAddr, "ops", len(registry.Ops))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("demo-app stopped")
}

// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	// OAuth2 client credentials and provider endpoints
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string

	// Identity endpoints (connections list + revocation, id_token verification)
	ConnectionsURL string
	JWKSURL        string
	IDTokenIssuer  string

	// Accounting API
	APIBaseURL   string
	TenantHeader string

	// Session persistence (redis preferred, postgres next, memory fallback)
	RedisURL    string
	DatabaseURL string
	SessionTTL  time.Duration

	// Demo route registry (optional directory of yaml specs)
	RegistryDir string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:            env("LEDGER_ENV", "dev"),
		HTTPAddr:       env("LEDGER_HTTP_ADDR", ":8080"),
		ClientID:       env("OAUTH_CLIENT_ID", ""),
		ClientSecret:   env("OAUTH_CLIENT_SECRET", ""),
		AuthURL:        env("OAUTH_AUTH_URL", "https://login.ledger.example/identity/connect/authorize"),
		TokenURL:       env("OAUTH_TOKEN_URL", "https://identity.ledger.example/connect/token"),
		RedirectURL:    env("OAUTH_REDIRECT_URL", "http://localhost:8080/callback"),
		ConnectionsURL: env("IDENTITY_CONNECTIONS_URL", "https://api.ledger.example/connections"),
		JWKSURL:        env("IDENTITY_JWKS_URL", ""),
		IDTokenIssuer:  env("IDENTITY_ISSUER", ""),
		APIBaseURL:     env("API_BASE_URL", "https://api.ledger.example/accounting/2.0"),
		TenantHeader:   env("API_TENANT_HEADER", "X-Tenant-Id"),
		RedisURL:       env("REDIS_URL", ""),
		DatabaseURL:    env("DATABASE_URL", ""),
		SessionTTL:     envDur("SESSION_TTL_HOURS", 24) * time.Hour,
		RegistryDir:    env("DEMO_REGISTRY_DIR", ""),
	}
	if cfg.ClientID == "" {
		log.Println("[WARN] OAUTH_CLIENT_ID not set — the provider will reject authorization redirects")
	}
	if cfg.RedisURL == "" && cfg.DatabaseURL == "" {
		log.Println("[WARN] neither REDIS_URL nor DATABASE_URL set — using in-memory session store for dev")
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}

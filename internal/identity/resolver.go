// Package identity talks to the provider's identity surface: the
// connections list that scopes a token to tenants, and connection
// revocation for disconnect.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"ledgerdemo/internal/sessionstore"
	"ledgerdemo/pkg/config"
)

// ErrNoActiveTenant means the token grants access to zero ORGANISATION
// connections. Not retried.
var ErrNoActiveTenant = errors.New("identity: no organisation connection for token")

type TenantType string

const (
	TenantTypeOrganisation TenantType = "ORGANISATION"
	TenantTypePractice     TenantType = "PRACTICE"
)

// Connection is one grant linking this OAuth2 client to a tenant. Fetched
// fresh on every resolution; never cached, so a revocation at the provider
// is visible on the next request.
type Connection struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenantId"`
	TenantType TenantType `json:"tenantType"`
	TenantName string     `json:"tenantName"`
}

type Resolver struct {
	connectionsURL string
	httpClient     *http.Client
	log            *zap.SugaredLogger
}

func NewResolver(cfg config.Config, log *zap.SugaredLogger) *Resolver {
	return &Resolver{
		connectionsURL: strings.TrimRight(cfg.ConnectionsURL, "/"),
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		log:            log,
	}
}

// Connections lists the grants for the token, in provider order.
func (r *Resolver) Connections(ctx context.Context, tok *sessionstore.Token) ([]Connection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.connectionsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Accept", "application/json")
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connections endpoint: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("connections endpoint: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var conns []Connection
	if err := json.NewDecoder(resp.Body).Decode(&conns); err != nil {
		return nil, fmt.Errorf("connections decode: %w", err)
	}
	return conns, nil
}

// ResolveTenantID picks the tenant for privileged calls: the first
// ORGANISATION connection in provider order. The ordering is the
// provider's, not ours; accounts connected to several organisations get
// whichever the provider lists first (there is no selection UI).
func (r *Resolver) ResolveTenantID(ctx context.Context, tok *sessionstore.Token) (string, error) {
	conn, err := r.activeConnection(ctx, tok)
	if err != nil {
		return "", err
	}
	return conn.TenantID, nil
}

// ResolveConnectionID returns the active connection's own id, which is what
// the revocation endpoint keys on (distinct from the tenant id).
func (r *Resolver) ResolveConnectionID(ctx context.Context, tok *sessionstore.Token) (string, error) {
	conn, err := r.activeConnection(ctx, tok)
	if err != nil {
		return "", err
	}
	return conn.ID, nil
}

// Disconnect revokes the active connection at the provider. Callers clear
// the session token after a successful revocation; the old token no longer
// reaches any tenant.
func (r *Resolver) Disconnect(ctx context.Context, tok *sessionstore.Token) error {
	id, err := r.ResolveConnectionID(ctx, tok)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.connectionsURL+"/"+id, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revocation endpoint: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("revocation endpoint: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	r.log.Infow("connection revoked", "connection", id)
	return nil
}

func (r *Resolver) activeConnection(ctx context.Context, tok *sessionstore.Token) (Connection, error) {
	conns, err := r.Connections(ctx, tok)
	if err != nil {
		return Connection{}, err
	}
	for _, c := range conns {
		if c.TenantType == TenantTypeOrganisation {
			return c, nil
		}
	}
	return Connection{}, ErrNoActiveTenant
}

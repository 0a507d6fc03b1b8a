// internal/sessionstore/postgres.go
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type pgStore struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
	ttl    time.Duration
}

// NewPostgresStore returns a postgres-backed store.
func NewPostgresStore(dbPool *pgxpool.Pool, ttl time.Duration, log *zap.SugaredLogger) Store {
	return &pgStore{dbPool: dbPool, log: log, ttl: ttl}
}

// EnsureSchema creates the session token table if it does not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS session_tokens (
  session_id text PRIMARY KEY,
  token jsonb NOT NULL,
  expires_at timestamptz,
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS session_tokens_expires_idx ON session_tokens(expires_at);
`)
	return err
}

func (s *pgStore) Get(ctx context.Context, sessionID string) (*Token, error) {
	var b []byte
	err := s.dbPool.QueryRow(ctx,
		`SELECT token FROM session_tokens WHERE session_id=$1 AND (expires_at IS NULL OR expires_at > NOW())`,
		sessionID).Scan(&b)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var tok Token
	if err := json.Unmarshal(b, &tok); err != nil {
		s.log.Warnw("session token unmarshal, discarding", "err", err)
		_, _ = s.dbPool.Exec(ctx, `DELETE FROM session_tokens WHERE session_id=$1`, sessionID)
		return nil, ErrNotFound
	}
	return &tok, nil
}

func (s *pgStore) Set(ctx context.Context, sessionID string, tok *Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	var expires *time.Time
	if s.ttl > 0 {
		t := time.Now().Add(s.ttl)
		expires = &t
	}
	// Upsert is the atomic replacement: readers see the old row or the new
	// one, never a half-written token.
	_, err = s.dbPool.Exec(ctx, `
INSERT INTO session_tokens(session_id, token, expires_at, updated_at) VALUES ($1,$2,$3,NOW())
ON CONFLICT (session_id) DO UPDATE SET token=EXCLUDED.token, expires_at=EXCLUDED.expires_at, updated_at=NOW()`,
		sessionID, b, expires)
	return err
}

func (s *pgStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.dbPool.Exec(ctx, `DELETE FROM session_tokens WHERE session_id=$1`, sessionID)
	return err
}

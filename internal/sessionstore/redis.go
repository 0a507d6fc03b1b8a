// internal/sessionstore/redis.go
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisStore struct {
	cli *redis.Client
	log *zap.SugaredLogger
	ttl time.Duration
}

const redisKeyPrefix = "session:token:"

// NewRedisStore returns a redis-backed store. Tokens are JSON values under
// session:token:<id> and expire with the session TTL.
func NewRedisStore(cli *redis.Client, ttl time.Duration, log *zap.SugaredLogger) Store {
	return &redisStore{cli: cli, log: log, ttl: ttl}
}

func (s *redisStore) Get(ctx context.Context, sessionID string) (*Token, error) {
	b, err := s.cli.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var tok Token
	if err := json.Unmarshal(b, &tok); err != nil {
		// An unreadable value is as good as absent; drop it.
		s.log.Warnw("session token unmarshal, discarding", "err", err)
		_ = s.cli.Del(ctx, redisKeyPrefix+sessionID).Err()
		return nil, ErrNotFound
	}
	return &tok, nil
}

func (s *redisStore) Set(ctx context.Context, sessionID string, tok *Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	// Single SET keeps the replacement atomic.
	return s.cli.Set(ctx, redisKeyPrefix+sessionID, b, s.ttl).Err()
}

func (s *redisStore) Delete(ctx context.Context, sessionID string) error {
	return s.cli.Del(ctx, redisKeyPrefix+sessionID).Err()
}

// Package cache memoizes search results in Redis. Only candidate links are
// stored, never fetched documents.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/verisearch/tools/web_search/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Searcher matches web_search.WebSearcher.
type Searcher interface {
	Discover(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Store struct {
	client    *redis.Client
	next      Searcher
	namespace string
	prefix    string
	ttl       time.Duration
	logger    *zap.Logger
}

// New wraps next. namespace distinguishes providers sharing one Redis.
func New(client *redis.Client, next Searcher, namespace, prefix string, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, next: next, namespace: namespace, prefix: prefix, ttl: ttl, logger: logger}
}

func (s *Store) key(q string, k int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", s.namespace, q, k)))
	return s.prefix + hex.EncodeToString(sum[:])
}

// Discover serves from cache when possible. Cache failures fall through to the
// wrapped searcher; provider errors are never cached.
func (s *Store) Discover(ctx context.Context, q string, k int) ([]models.Result, error) {
	key := s.key(q, k)
	val, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out []models.Result
		if jerr := json.Unmarshal(val, &out); jerr == nil {
			return out, nil
		}
		s.logger.Warn("discarding corrupt cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("search cache read failed", zap.Error(err))
	}

	out, err := s.next.Discover(ctx, q, k)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return out, nil
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("search cache write failed", zap.Error(err))
	}
	return out, nil
}

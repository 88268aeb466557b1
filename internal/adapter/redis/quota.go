// Package redis implements the daily quota counter store on Redis.
// Each identity and UTC day maps to one integer key that expires two days
// after it is first written.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/heartmarshall/whosright-backend/internal/config"
)

// keyTTL outlives the day window so a late read never sees a reset counter.
const keyTTL = 48 * time.Hour

// incrScript increments the counter and sets its TTL on first write, atomically.
// KEYS[1] = counter key
// ARGV[1] = ttl in seconds
var incrScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
    redis.call("EXPIRE", KEYS[1], tonumber(ARGV[1]))
end
return n
`)

// QuotaStore counts verdicts per identity per day.
type QuotaStore struct {
	client  redis.UniversalClient
	prefix  string
	timeout time.Duration
	log     *slog.Logger
}

// NewClient parses cfg.URL and pings the server.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewQuotaStore creates a store on an existing client.
func NewQuotaStore(client redis.UniversalClient, cfg config.RedisConfig, log *slog.Logger) *QuotaStore {
	return &QuotaStore{
		client:  client,
		prefix:  cfg.KeyPrefix,
		timeout: cfg.Timeout,
		log:     log.With("adapter", "redis_quota"),
	}
}

func (s *QuotaStore) key(identityKey string, day time.Time) string {
	return fmt.Sprintf("%s:quota:%s:%s", s.prefix, identityKey, day.UTC().Format(time.DateOnly))
}

// Used returns the counter for identityKey on day; a missing key counts as zero.
func (s *QuotaStore) Used(ctx context.Context, identityKey string, day time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.client.Get(ctx, s.key(identityKey, day)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get quota %s: %w", identityKey, err)
	}
	return n, nil
}

// Increment adds one to the counter and returns the new value.
func (s *QuotaStore) Increment(ctx context.Context, identityKey string, day time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	k := s.key(identityKey, day)
	n, err := incrScript.Run(ctx, s.client, []string{k}, int(keyTTL.Seconds())).Int()
	if err != nil {
		return 0, fmt.Errorf("redis incr quota %s: %w", identityKey, err)
	}
	s.log.DebugContext(ctx, "quota incremented", slog.String("key", k), slog.Int("used", n))
	return n, nil
}

// Ping reports whether Redis is reachable; used by readiness checks.
func (s *QuotaStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ledgerbridge/asset-gateway/internal/core/domain"
)

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// Store is the Redis-backed storage.PendingStore. Each transaction lives in
// a hash keyed by id; a sorted set scored by submission timestamp provides
// the oldest-first index. Record and index are always written and removed
// inside one MULTI/EXEC block so no reader sees them out of sync.
type Store struct {
	rdb *redis.Client
}

const indexKey = "pendingtx:index"

func recordKey(id string) string {
	return fmt.Sprintf("pendingtx:%s", id)
}

// incrementRetryScript bumps the retry counter only while the record still
// exists; a plain HINCRBY would resurrect a hash that a concurrent Clear
// just deleted, leaving a record without an index entry.
var incrementRetryScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return redis.call("HINCRBY", KEYS[1], "retries", 1)
end
return 0
`)

// NewStore connects to Redis and verifies the connection.
func NewStore(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Store{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Health checks the connection.
func (s *Store) Health(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Store(ctx context.Context, id string, state []byte, args string, timestamp int64) error {
	if id == "" {
		return nil
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, recordKey(id),
			"state", state,
			"args", args,
			"timestamp", timestamp,
			"retries", 0,
		)
		pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(timestamp), Member: id})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store pending transaction: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id string) (*domain.PendingTransaction, error) {
	fields, err := s.rdb.HGetAll(ctx, recordKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load pending transaction: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	timestamp, err := strconv.ParseInt(fields["timestamp"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt timestamp for %s: %w", id, err)
	}
	retries, err := strconv.Atoi(fields["retries"])
	if err != nil {
		return nil, fmt.Errorf("corrupt retry count for %s: %w", id, err)
	}

	return &domain.PendingTransaction{
		ID:        id,
		State:     []byte(fields["state"]),
		Args:      fields["args"],
		Timestamp: timestamp,
		Retries:   retries,
	}, nil
}

func (s *Store) IncrementRetry(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := incrementRetryScript.Run(ctx, s.rdb, []string{recordKey(id)}).Err(); err != nil {
		return fmt.Errorf("failed to increment retry count: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, id string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, indexKey, id)
		pipe.Del(ctx, recordKey(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear pending transaction: %w", err)
	}
	return nil
}

func (s *Store) OldestPending(ctx context.Context) (string, error) {
	ids, err := s.rdb.ZRange(ctx, indexKey, 0, 0).Result()
	if err != nil {
		return "", fmt.Errorf("zrange failed: %w", err)
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

func (s *Store) PendingCount(ctx context.Context) (int64, error) {
	count, err := s.rdb.ZCard(ctx, indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return count, nil
}

package genstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGenStore shares per-name generations across processes and survives
// restarts, so an invalidation in one replica makes the asset stale in all.
// Optionally, a TTL can be applied to generation keys to prevent unbounded
// growth. If a generation key expires, readers observe gen=0 and cached
// assets reload once.
type RedisGenStore struct {
	rdb         redis.UniversalClient
	ns          string        // logical namespace, e.g. "game:prod"
	ttl         time.Duration // optional TTL for generation keys; 0 disables expiry
	closeClient bool
}

var _ GenStore = (*RedisGenStore)(nil)

// RedisOptions configure a RedisGenStore.
type RedisOptions struct {
	Namespace   string
	TTL         time.Duration // <= 0 => keys do not expire
	CloseClient bool          // set true only if this store exclusively owns the client
}

// NewRedisGenStore creates a Redis-backed generation store.
func NewRedisGenStore(client redis.UniversalClient, opts RedisOptions) *RedisGenStore {
	return &RedisGenStore{rdb: client, ns: opts.Namespace, ttl: opts.TTL, closeClient: opts.CloseClient}
}

func (s *RedisGenStore) key(name string) string { return "gen:" + s.ns + ":" + name }

// Snapshot returns the current generation.
// Missing keys are treated as generation 0.
func (s *RedisGenStore) Snapshot(ctx context.Context, name string) (uint64, error) {
	res, err := s.rdb.Get(ctx, s.key(name)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(res, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis gen parse: %w", err)
	}
	return u, nil
}

// SnapshotMany returns generations for multiple names in one MGET.
// Missing names map to 0.
func (s *RedisGenStore) SnapshotMany(ctx context.Context, names []string) (map[string]uint64, error) {
	if len(names) == 0 {
		return map[string]uint64{}, nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = s.key(n)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]uint64, len(names))
	for i, v := range vals {
		var raw string
		switch vv := v.(type) {
		case nil:
			out[names[i]] = 0
			continue
		case string:
			raw = vv
		case []byte:
			raw = string(vv)
		default:
			raw = fmt.Sprint(vv)
		}
		u, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redis gen parse at %s: %w", names[i], err)
		}
		out[names[i]] = u
	}
	return out, nil
}

// Bump atomically increments the generation and (optionally) refreshes TTL.
// When ttl > 0, INCR + EXPIRE are pipelined in a single round-trip.
func (s *RedisGenStore) Bump(ctx context.Context, name string) (uint64, error) {
	k := s.key(name)

	if s.ttl <= 0 {
		v, err := s.rdb.Incr(ctx, k).Result()
		if err != nil {
			return 0, err
		}
		return uint64(v), nil
	}

	var incr *redis.IntCmd
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return uint64(incr.Val()), nil
}

// Cleanup is not applicable for RedisGenStore (Redis handles expiry if TTL is set).
func (s *RedisGenStore) Cleanup(time.Duration) {}

// Close releases the client only when this store owns it.
func (s *RedisGenStore) Close(context.Context) error {
	if !s.closeClient {
		return nil
	}
	if err := s.rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}

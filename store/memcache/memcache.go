// Package memcache is a shared blob store backed by bradfitz/gomemcache.
// Memcached limits keys to 250 bytes and values to its item size (1MB by
// default); source/blob hashes long keys when MaxKeyLen is set.
package memcache

import (
	"context"
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/unkn0wn-root/assetcache/store"
)

// MaxKeyLen is memcached's key length limit.
const MaxKeyLen = 250

type Memcache struct {
	c *memcache.Client
}

var _ store.Store = (*Memcache)(nil)

// New connects to the given servers ("host:port").
func New(servers ...string) *Memcache {
	return &Memcache{c: memcache.New(servers...)}
}

// NewWithClient wraps an existing client.
func NewWithClient(c *memcache.Client) *Memcache { return &Memcache{c: c} }

func (s *Memcache) Get(_ context.Context, key string) ([]byte, bool, error) {
	item, err := s.c.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return item.Value, true, nil
}

func (s *Memcache) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	err := s.c.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: expiration(ttl),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Memcache) Del(_ context.Context, key string) error {
	if err := s.c.Delete(key); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return err
	}
	return nil
}

// Close is a no-op; gomemcache keeps idle connections in a pool.
func (s *Memcache) Close(context.Context) error { return nil }

// expiration converts ttl to memcached's seconds; 0 means no expiry.
// Sub-second TTLs round up so they never turn into "forever".
func expiration(ttl time.Duration) int32 {
	if ttl <= 0 {
		return 0
	}
	secs := int64((ttl + time.Second - 1) / time.Second)
	// memcached treats values above 30 days as absolute unix timestamps
	const relativeMax = 30 * 24 * 60 * 60
	if secs > relativeMax {
		return int32(time.Now().Unix() + secs)
	}
	return int32(secs)
}

// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/assetcache"
//	"github.com/unkn0wn-root/assetcache/hooks/async"
//	"github.com/unkn0wn-root/assetcache/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    ProducedEvery: 100, // sample logs: ~every 100th miss
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	coord, _ := assetcache.New(assetcache.Options{
//	    Source: src,
//	    Hooks:  hooks, // or `raw` if you don't want async
//	})
//
// Hooks fire while the cache lock is held; the async wrapper keeps slow sinks
// off that path. Events are dropped when the queue is full.
package asynchook

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/assetcache"
)

type Hooks struct {
	inner   assetcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ assetcache.Hooks = (*Hooks)(nil)

func New(inner assetcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events fired after
// Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded on a full queue.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	defer func() {
		// send on closed queue
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) ProviderConflict(k string, owners []string) {
	owners = slices.Clone(owners)
	h.try(func() { h.inner.ProviderConflict(k, owners) })
}
func (h *Hooks) ProviderFaulted(k, o string, err error) {
	h.try(func() { h.inner.ProviderFaulted(k, o, err) })
}
func (h *Hooks) EditorFaulted(k, o string, err error) {
	h.try(func() { h.inner.EditorFaulted(k, o, err) })
}
func (h *Hooks) EditRejected(k, o, r string) { h.try(func() { h.inner.EditRejected(k, o, r) }) }
func (h *Hooks) ReentrancyBroken(k string, chain []string) {
	chain = slices.Clone(chain)
	h.try(func() { h.inner.ReentrancyBroken(k, chain) })
}
func (h *Hooks) ReloadFailed(n string) { h.try(func() { h.inner.ReloadFailed(n) }) }
func (h *Hooks) StaleEntry(k string)   { h.try(func() { h.inner.StaleEntry(k) }) }
func (h *Hooks) AssetProduced(k, origin string, took time.Duration) {
	h.try(func() { h.inner.AssetProduced(k, origin, took) })
}

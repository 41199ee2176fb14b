package assetcache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	gen "github.com/unkn0wn-root/assetcache/genstore"
)

const (
	defaultGenRetention = 30 * 24 * time.Hour
	defaultSweep        = time.Hour
	defaultPreload      = 4
)

// Coordinator owns the shared asset cache, the interceptor registry and the
// views that load through them. Construct one with New and share it.
//
// All cache mutations run under one exclusive section. Interceptors run
// inside that section; there is no timeout, so an interceptor that blocks
// forever blocks every other cache access.
type Coordinator struct {
	mu      sync.RWMutex
	entries entryTable

	keys     *KeyNormalizer
	locales  *LocaleResolver
	registry *Registry
	source   Source
	gen      gen.GenStore
	reload   ReloadHook
	log      Logger
	hooks    Hooks
	preload  int

	viewSeq atomic.Uint64
	viewsMu sync.Mutex
	views   map[uint64]*View
	closed  atomic.Bool
}

func newCoordinator(opts Options) (*Coordinator, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("assetcache: source is required")
	}

	locales := opts.Locales
	if locales == nil {
		locales = DefaultLocales
	}
	lr, err := NewLocaleResolver(coalesce(opts.DefaultLanguage, "en"), locales...)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		entries:  make(entryTable),
		keys:     NewKeyNormalizer(coalesce(opts.ForbiddenChars, DefaultForbiddenChars)),
		locales:  lr,
		registry: NewRegistry(),
		source:   opts.Source,
		reload:   opts.ReloadHook,
		views:    make(map[uint64]*View),
	}

	// defaults
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.preload = coalesce(opts.PreloadConcurrency, defaultPreload)

	if opts.GenStore != nil {
		c.gen = opts.GenStore
	} else {
		c.gen = gen.NewLocal(gen.LocalOptions{
			CleanupInterval: coalesce(opts.CleanupInterval, defaultSweep),
			Retention:       coalesce(opts.GenRetention, defaultGenRetention),
			InUse:           c.cached,
		})
	}
	return c, nil
}

// Interceptors exposes the extension API.
func (c *Coordinator) Interceptors() *Registry { return c.registry }

// Locales exposes the locale resolver.
func (c *Coordinator) Locales() *LocaleResolver { return c.locales }

// Declare records up front that the asset raw has localized forms.
func (c *Coordinator) Declare(raw string, locales ...string) error {
	name, err := c.keys.Normalize(raw)
	if err != nil {
		return err
	}
	return c.locales.Declare(name, locales...)
}

// MatchNames returns a predicate matching any of the given asset names,
// regardless of locale. Invalid names are ignored.
func (c *Coordinator) MatchNames(raw ...string) Predicate {
	set := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		if n, err := c.keys.Normalize(r); err == nil {
			set[n] = struct{}{}
		}
	}
	return func(info AssetInfo) bool {
		_, ok := set[info.Name]
		return ok
	}
}

// Generation returns the current generation of the asset raw.
func (c *Coordinator) Generation(ctx context.Context, raw string) (uint64, error) {
	name, err := c.keys.Normalize(raw)
	if err != nil {
		return 0, err
	}
	return c.gen.Snapshot(ctx, name)
}

// Generations returns the current generations of several assets, keyed by
// canonical name.
func (c *Coordinator) Generations(ctx context.Context, raw ...string) (map[string]uint64, error) {
	names := make([]string, 0, len(raw))
	for _, r := range raw {
		n, err := c.keys.Normalize(r)
		if err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return c.gen.SnapshotMany(ctx, names)
}

// NewView registers a new logical consumer.
func (c *Coordinator) NewView(name string) (*View, error) {
	v := &View{
		c:    c,
		id:   c.viewSeq.Add(1),
		name: name,
	}
	// closed and views change together under viewsMu.
	c.viewsMu.Lock()
	if c.closed.Load() {
		c.viewsMu.Unlock()
		return nil, ErrClosed
	}
	c.views[v.id] = v
	c.viewsMu.Unlock()
	c.log.Debug("view registered", Fields{"view": name, "id": v.id})
	return v, nil
}

// Views returns the number of live views.
func (c *Coordinator) Views() int {
	c.viewsMu.Lock()
	defer c.viewsMu.Unlock()
	return len(c.views)
}

// Len returns the number of cached variant slots.
func (c *Coordinator) Len(ctx context.Context) int {
	unlock := c.shared(ctx)
	defer unlock()
	return len(c.entries)
}

// Close disposes every view and releases the generation store. Later
// operations fail with ErrClosed.
func (c *Coordinator) Close(ctx context.Context) error {
	c.viewsMu.Lock()
	if c.closed.Swap(true) {
		c.viewsMu.Unlock()
		return nil
	}
	views := make([]*View, 0, len(c.views))
	for _, v := range c.views {
		views = append(views, v)
	}
	c.viewsMu.Unlock()
	for _, v := range views {
		v.Dispose(ctx)
	}
	if c.gen != nil {
		return c.gen.Close(ctx)
	}
	return nil
}

// onViewDisposed removes v from every owner set and drops the entries it
// was the last owner of, all in one exclusive section.
func (c *Coordinator) onViewDisposed(ctx context.Context, v *View) {
	c.viewsMu.Lock()
	delete(c.views, v.id)
	c.viewsMu.Unlock()

	_, unlock := c.exclusive(ctx)
	var purge []string
	for k, e := range c.entries {
		if e.dropOwner(v.id) {
			purge = append(purge, k)
		}
	}
	for _, k := range purge {
		delete(c.entries, k)
	}
	unlock()

	c.log.Debug("view disposed", Fields{"view": v.name, "id": v.id, "purged": len(purge)})
}

// cached reports whether any variant of name is in the cache. It runs on
// the generation store's sweep goroutine, outside any load chain.
func (c *Coordinator) cached(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.name == name {
			return true
		}
	}
	return false
}

// snapshotGen returns the generation of name; ok is false when the store
// failed, in which case generation checks are skipped.
func (c *Coordinator) snapshotGen(ctx context.Context, name string) (uint64, bool) {
	g, err := c.gen.Snapshot(ctx, name)
	if err != nil {
		c.log.Warn("gen snapshot error", Fields{"name": name, "err": err})
		return 0, false
	}
	return g, true
}

package assetcache

import (
	"context"
	"iter"
	"reflect"
	"sync"
	"sync/atomic"
)

// View is one logical consumer of the shared cache. Entries it loads or
// injects stay cached until every view that touched them is disposed.
// A View is safe for concurrent use.
type View struct {
	c    *Coordinator
	id   uint64
	name string

	langMu   sync.RWMutex
	lang     string
	disposed atomic.Bool
}

func (v *View) ID() uint64     { return v.id }
func (v *View) Name() string   { return v.name }
func (v *View) Disposed() bool { return v.disposed.Load() }

// Language returns the view's canonical language; "" means the default.
func (v *View) Language() string {
	v.langMu.RLock()
	defer v.langMu.RUnlock()
	return v.lang
}

// SetLanguage switches the language used for later loads. Already cached
// variants are kept.
func (v *View) SetLanguage(lang string) error {
	l, err := v.c.locales.Register(lang)
	if err != nil {
		return err
	}
	v.langMu.Lock()
	v.lang = l
	v.langMu.Unlock()
	return nil
}

// LoadAs loads key as typ. A nil typ accepts any non-nil value.
func (v *View) LoadAs(ctx context.Context, key string, typ reflect.Type) (any, error) {
	return v.c.load(ctx, v, key, typ)
}

// InjectAs stores value under key, bypassing interception. The entry is
// owned by v like any loaded entry.
func (v *View) InjectAs(ctx context.Context, key string, value any, typ reflect.Type) error {
	return v.c.inject(ctx, v, key, value, typ)
}

// IsLoaded reports whether key is cached for the view's language.
func (v *View) IsLoaded(ctx context.Context, key string) bool {
	return v.c.isLoaded(ctx, v, key)
}

// Keys yields the canonical names cached at the time of the call, sorted.
// The sequence is a snapshot: it does not observe later mutations and can
// be ranged over only once.
func (v *View) Keys(ctx context.Context) iter.Seq[string] {
	unlock := v.c.shared(ctx)
	names := v.c.entries.names()
	unlock()

	var used atomic.Bool
	return func(yield func(string) bool) {
		if used.Swap(true) {
			return
		}
		for _, n := range names {
			if !yield(n) {
				return
			}
		}
	}
}

// Dispose releases the view's ownership of every entry. It is idempotent
// and never fails.
func (v *View) Dispose(ctx context.Context) {
	if v.disposed.Swap(true) {
		return
	}
	v.c.onViewDisposed(ctx, v)
}

// Load loads key through v as a T.
func Load[T any](ctx context.Context, v *View, key string) (T, error) {
	var zero T
	val, err := v.LoadAs(ctx, key, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	t, ok := val.(T)
	if !ok {
		return zero, &LoadError{Key: key, Err: &TypeMismatchError{Key: key, Want: reflect.TypeFor[T](), Got: reflect.TypeOf(val)}}
	}
	return t, nil
}

// Inject stores value under key through v.
func Inject[T any](ctx context.Context, v *View, key string, value T) error {
	return v.InjectAs(ctx, key, value, reflect.TypeFor[T]())
}

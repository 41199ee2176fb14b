package assetcache

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sync"
	"sync/atomic"
)

// Kind distinguishes the two interceptor collections.
type Kind uint8

const (
	KindProvider Kind = iota + 1 // supplies the initial value
	KindEditor                   // mutates an already produced value
)

func (k Kind) String() string {
	switch k {
	case KindProvider:
		return "provider"
	case KindEditor:
		return "editor"
	default:
		return "unknown"
	}
}

// AssetInfo describes the asset an interceptor is asked about.
type AssetInfo struct {
	Name   string       // canonical name
	Locale string       // BCP 47 tag, empty for the bare asset
	Key    string       // variant key (cache slot)
	Type   reflect.Type // type requested by the caller
}

// Predicate decides whether an interceptor applies to an asset.
type Predicate func(AssetInfo) bool

// Handler is implemented by ProviderFunc and EditorFunc.
type Handler interface {
	Kind() Kind
}

// ProviderFunc supplies the initial value for an asset. The context carries
// the active load chain; pass it to any cache call made from inside.
type ProviderFunc func(ctx context.Context, info AssetInfo) (any, error)

// EditorFunc returns the edited value. It may mutate value in place and
// return it, or return a replacement.
type EditorFunc func(ctx context.Context, info AssetInfo, value any) (any, error)

func (ProviderFunc) Kind() Kind { return KindProvider }
func (EditorFunc) Kind() Kind   { return KindEditor }

// Registration identifies one registered interceptor.
type Registration struct {
	ID    uint64
	Owner string
	Kind  Kind
}

type interceptor struct {
	Registration
	when    Predicate
	provide ProviderFunc
	edit    EditorFunc
}

// owner identities follow extension ID rules: alphanumeric start, then
// alphanumerics, '.', '-' or '_', 255 characters at most.
var ownerPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,254}$`)

// Registry holds providers and editors in registration order.
// It is safe for concurrent use; resolutions work on immutable snapshots, so
// changes only affect loads that have not reached the registry yet.
type Registry struct {
	mu        sync.Mutex // serializes writers
	seq       uint64
	providers atomic.Pointer[[]*interceptor]
	editors   atomic.Pointer[[]*interceptor]
}

func NewRegistry() *Registry {
	r := &Registry{}
	r.providers.Store(&[]*interceptor{})
	r.editors.Store(&[]*interceptor{})
	return r
}

// Register adds an interceptor owned by owner. A nil predicate matches every asset.
func (r *Registry) Register(owner string, when Predicate, h Handler) (Registration, error) {
	if !ownerPattern.MatchString(owner) {
		return Registration{}, fmt.Errorf("%w: %q", ErrInvalidOwner, owner)
	}
	if when == nil {
		when = func(AssetInfo) bool { return true }
	}
	it := &interceptor{when: when}
	switch fn := h.(type) {
	case ProviderFunc:
		if fn == nil {
			return Registration{}, fmt.Errorf("assetcache: nil provider")
		}
		it.provide = fn
	case EditorFunc:
		if fn == nil {
			return Registration{}, fmt.Errorf("assetcache: nil editor")
		}
		it.edit = fn
	default:
		return Registration{}, fmt.Errorf("assetcache: unsupported handler %T", h)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	it.Registration = Registration{ID: r.seq, Owner: owner, Kind: h.Kind()}
	list := r.list(it.Kind)
	cur := *list.Load()
	next := make([]*interceptor, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, it)
	list.Store(&next)
	return it.Registration, nil
}

// AddProvider is shorthand for Register with a ProviderFunc.
func (r *Registry) AddProvider(owner string, when Predicate, fn ProviderFunc) (Registration, error) {
	return r.Register(owner, when, fn)
}

// AddEditor is shorthand for Register with an EditorFunc.
func (r *Registry) AddEditor(owner string, when Predicate, fn EditorFunc) (Registration, error) {
	return r.Register(owner, when, fn)
}

// Unregister removes the registration id. Only its owner may remove it.
func (r *Registry) Unregister(owner string, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, list := range []*atomic.Pointer[[]*interceptor]{&r.providers, &r.editors} {
		cur := *list.Load()
		for i, it := range cur {
			if it.ID != id {
				continue
			}
			if it.Owner != owner {
				return fmt.Errorf("%w: %d", ErrNotOwner, id)
			}
			next := make([]*interceptor, 0, len(cur)-1)
			next = append(next, cur[:i]...)
			next = append(next, cur[i+1:]...)
			list.Store(&next)
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrUnknownRegistration, id)
}

// UnregisterOwner removes every interceptor owned by owner and returns how
// many were removed.
func (r *Registry) UnregisterOwner(owner string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for _, list := range []*atomic.Pointer[[]*interceptor]{&r.providers, &r.editors} {
		cur := *list.Load()
		next := make([]*interceptor, 0, len(cur))
		for _, it := range cur {
			if it.Owner == owner {
				removed++
				continue
			}
			next = append(next, it)
		}
		list.Store(&next)
	}
	return removed
}

// Registrations lists providers then editors, each in registration order.
func (r *Registry) Registrations() []Registration {
	ps, es := r.snapshot(KindProvider), r.snapshot(KindEditor)
	out := make([]Registration, 0, len(ps)+len(es))
	for _, it := range ps {
		out = append(out, it.Registration)
	}
	for _, it := range es {
		out = append(out, it.Registration)
	}
	return out
}

func (r *Registry) list(k Kind) *atomic.Pointer[[]*interceptor] {
	if k == KindProvider {
		return &r.providers
	}
	return &r.editors
}

func (r *Registry) snapshot(k Kind) []*interceptor { return *r.list(k).Load() }

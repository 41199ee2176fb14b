package assetcache

import (
	"reflect"
	"sort"
	"sync"
)

// entry is one cache slot. Fields other than owners are immutable once the
// entry is published. owners is guarded by mu because readers add owners
// while holding only the shared lock.
type entry struct {
	name   string
	locale string
	value  any
	typ    reflect.Type // requested type, or the value's own type for untyped loads
	gen    uint64
	genOK  bool         // gen came from a successful snapshot

	mu     sync.Mutex
	owners map[uint64]struct{}
}

func newEntry(v Variant, value any, typ reflect.Type, gen uint64, genOK bool) *entry {
	if typ == nil {
		typ = reflect.TypeOf(value)
	}
	return &entry{
		name:   v.Name,
		locale: v.Locale,
		value:  value,
		typ:    typ,
		gen:    gen,
		genOK:  genOK,
		owners: make(map[uint64]struct{}, 1),
	}
}

func (e *entry) addOwner(id uint64) {
	e.mu.Lock()
	e.owners[id] = struct{}{}
	e.mu.Unlock()
}

// dropOwner removes id and reports whether the entry became ownerless.
func (e *entry) dropOwner(id uint64) bool {
	e.mu.Lock()
	delete(e.owners, id)
	empty := len(e.owners) == 0
	e.mu.Unlock()
	return empty
}

func (e *entry) adopt(from *entry) {
	from.mu.Lock()
	ids := make([]uint64, 0, len(from.owners))
	for id := range from.owners {
		ids = append(ids, id)
	}
	from.mu.Unlock()

	e.mu.Lock()
	for _, id := range ids {
		e.owners[id] = struct{}{}
	}
	e.mu.Unlock()
}

// entryTable maps variant keys to entries. It relies on the coordinator's
// RWMutex for map access.
type entryTable map[string]*entry

// names returns the distinct canonical names, sorted.
func (t entryTable) names() []string {
	seen := make(map[string]struct{}, len(t))
	out := make([]string, 0, len(t))
	for _, e := range t {
		if _, ok := seen[e.name]; ok {
			continue
		}
		seen[e.name] = struct{}{}
		out = append(out, e.name)
	}
	sort.Strings(out)
	return out
}

// byName groups variant keys under their canonical name.
func (t entryTable) byName() map[string][]string {
	out := make(map[string][]string)
	for k, e := range t {
		out[e.name] = append(out[e.name], k)
	}
	for _, ks := range out {
		sort.Strings(ks)
	}
	return out
}

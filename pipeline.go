package assetcache

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// load runs one request: normalize, resolve the variant, then load it. A
// probe for an unknown localized form falls back to the bare asset when the
// source has no localized one.
func (c *Coordinator) load(ctx context.Context, v *View, raw string, typ reflect.Type) (any, error) {
	if c.closed.Load() {
		return nil, &LoadError{Key: raw, Err: ErrClosed}
	}
	if v.disposed.Load() {
		return nil, &LoadError{Key: raw, Err: ErrViewDisposed}
	}
	vr, err := c.variant(raw, v.Language())
	if err != nil {
		return nil, &LoadError{Key: raw, Err: err}
	}

	diag := &diagnostics{}
	defer diag.flush()

	val, err := c.loadVariant(ctx, v, vr, typ, diag)
	if vr.Probe {
		switch {
		case err == nil:
			c.locales.Learn(vr.Name, vr.Locale, true)
		case errors.Is(err, ErrNotFound):
			c.locales.Learn(vr.Name, vr.Locale, false)
			c.log.Debug("no localized form, using bare asset", Fields{"name": vr.Name, "locale": vr.Locale})
			val, err = c.loadVariant(ctx, v, Variant{Key: vr.Name, Name: vr.Name}, typ, diag)
		}
	}
	if err != nil {
		return nil, &LoadError{Key: raw, Err: err}
	}
	return val, nil
}

// variant normalizes raw and picks its slot. Keys that already carry a known
// locale suffix address that variant explicitly.
func (c *Coordinator) variant(raw, lang string) (Variant, error) {
	name, err := c.keys.Normalize(raw)
	if err != nil {
		return Variant{}, err
	}
	if base, loc, ok := c.locales.ParseVariant(name); ok {
		return Variant{Key: name, Name: base, Locale: loc}, nil
	}
	return c.locales.Resolve(name, lang), nil
}

func (c *Coordinator) loadVariant(ctx context.Context, v *View, vr Variant, typ reflect.Type, diag *diagnostics) (any, error) {
	unlock := c.shared(ctx)
	val, hit, _, err := c.lookup(ctx, v, vr.Key, typ)
	unlock()
	if hit || err != nil {
		return val, err
	}

	ctx, unlock = c.exclusive(ctx)
	defer unlock()

	val, hit, stale, err := c.lookup(ctx, v, vr.Key, typ)
	if hit || err != nil {
		return val, err
	}
	if stale != nil {
		delete(c.entries, vr.Key)
		c.log.Debug("dropped stale entry", Fields{"key": vr.Key, "gen": stale.gen})
		c.hooks.StaleEntry(vr.Key)
	}

	info := AssetInfo{Name: vr.Name, Locale: vr.Locale, Key: vr.Key, Type: typ}
	ch := c.chain(ctx)
	if ch.producing(vr.Key) {
		trace := ch.trace(vr.Key)
		c.log.Warn("reentrant load, bypassing interceptors", Fields{
			"key": vr.Key, "chain": trace, "err": ErrReentrancy,
		})
		c.hooks.ReentrancyBroken(vr.Key, trace)
		return c.fromSource(ctx, info)
	}
	leave := ch.enter(vr.Key)
	defer leave()

	obs, obsOK := c.snapshotGen(ctx, vr.Name)
	val, err = c.produce(ctx, info, diag)
	if err != nil {
		return nil, err
	}

	if v.disposed.Load() {
		c.log.Debug("view disposed during load, not caching", Fields{"key": vr.Key, "view": v.name})
		return val, nil
	}
	if cur, ok := c.snapshotGen(ctx, vr.Name); obsOK && ok && cur != obs {
		// invalidated while producing
		c.log.Debug("load skipped caching (gen moved)", Fields{"key": vr.Key, "obs": obs, "cur": cur})
		return val, nil
	}

	e := newEntry(vr, val, typ, obs, obsOK)
	if stale != nil {
		e.adopt(stale)
	}
	if prev := c.entries[vr.Key]; prev != nil {
		// stored by a nested load of the same slot
		e.adopt(prev)
	}
	e.addOwner(v.id)
	c.entries[vr.Key] = e
	return val, nil
}

// lookup must run inside the shared or exclusive section. stale is set when
// the slot holds an entry whose generation moved.
func (c *Coordinator) lookup(ctx context.Context, v *View, key string, typ reflect.Type) (val any, hit bool, stale *entry, err error) {
	e := c.entries[key]
	if e == nil {
		return nil, false, nil, nil
	}
	if e.genOK {
		if g, ok := c.snapshotGen(ctx, e.name); ok && g != e.gen {
			return nil, false, e, nil
		}
	}
	if !compatible(e.value, typ) {
		return nil, false, nil, &TypeMismatchError{Key: key, Want: typ, Got: reflect.TypeOf(e.value)}
	}
	if !v.disposed.Load() {
		e.addOwner(v.id)
	}
	return e.value, true, nil, nil
}

// produce resolves the base value and runs the editor chain.
func (c *Coordinator) produce(ctx context.Context, info AssetInfo, diag *diagnostics) (any, error) {
	start := time.Now()
	val, origin, err := c.provide(ctx, info, diag)
	if err != nil {
		return nil, err
	}
	val = c.edit(ctx, info, val)
	c.hooks.AssetProduced(info.Key, origin, time.Since(start))
	return val, nil
}

// provide asks the providers first. Exactly one match may supply the value;
// a fault or a conflict falls through to the default source.
func (c *Coordinator) provide(ctx context.Context, info AssetInfo, diag *diagnostics) (any, string, error) {
	var matched []*interceptor
	for _, it := range c.registry.snapshot(KindProvider) {
		if c.matches(it, info, diag) {
			matched = append(matched, it)
		}
	}

	switch len(matched) {
	case 0:
	case 1:
		it := matched[0]
		var val any
		err := safely(func() (err error) {
			val, err = it.provide(ctx, info)
			return err
		})
		switch {
		case err != nil:
			c.providerFault(info, it, err, diag)
		case isNil(val):
			c.providerFault(info, it, errors.New("no value produced"), diag)
		case !compatible(val, info.Type):
			c.providerFault(info, it, &TypeMismatchError{Key: info.Key, Want: info.Type, Got: reflect.TypeOf(val)}, diag)
		default:
			return val, "provider", nil
		}
	default:
		owners := make([]string, len(matched))
		for i, it := range matched {
			owners[i] = it.Owner
		}
		diag.add("conflict:"+strings.Join(owners, ","), func() {
			c.log.Warn("multiple providers claim asset, using default source", Fields{
				"key": info.Key, "owners": owners, "err": ErrProviderConflict,
			})
			c.hooks.ProviderConflict(info.Key, owners)
		})
	}

	val, err := c.fromSource(ctx, info)
	return val, "source", err
}

// edit applies every matching editor in registration order. A failing
// editor is rolled back individually; the chain always completes.
func (c *Coordinator) edit(ctx context.Context, info AssetInfo, val any) any {
	for _, it := range c.registry.snapshot(KindEditor) {
		if !c.matches(it, info, nil) {
			continue
		}
		prev := val
		var next any
		err := safely(func() (err error) {
			next, err = it.edit(ctx, info, prev)
			return err
		})
		switch {
		case err != nil:
			c.log.Warn("editor failed, keeping previous value", Fields{"key": info.Key, "owner": it.Owner, "err": err})
			c.hooks.EditorFaulted(info.Key, it.Owner, fmt.Errorf("%w: %w", ErrEditorFaulted, err))
		case isNil(next):
			c.rejectEdit(info, it, "nil_value")
		case !compatible(next, info.Type):
			c.rejectEdit(info, it, "type_mismatch")
		default:
			val = next
		}
	}
	return val
}

// fromSource reads the raw value from the default source. A wrong-typed
// value here is a hard failure.
func (c *Coordinator) fromSource(ctx context.Context, info AssetInfo) (any, error) {
	val, err := c.source.Provide(ctx, SourceRequest{Key: info.Key, Name: info.Name, Locale: info.Locale, Type: info.Type})
	if err != nil {
		return nil, err
	}
	if isNil(val) {
		return nil, ErrNotFound
	}
	if !compatible(val, info.Type) {
		return nil, &TypeMismatchError{Key: info.Key, Want: info.Type, Got: reflect.TypeOf(val)}
	}
	return val, nil
}

// matches evaluates the predicate; a panicking predicate does not match.
func (c *Coordinator) matches(it *interceptor, info AssetInfo, diag *diagnostics) bool {
	var ok bool
	err := safely(func() error {
		ok = it.when(info)
		return nil
	})
	if err == nil {
		return ok
	}
	if it.Kind == KindProvider {
		c.providerFault(info, it, err, diag)
	} else {
		c.log.Warn("editor predicate failed", Fields{"key": info.Key, "owner": it.Owner, "err": err})
		c.hooks.EditorFaulted(info.Key, it.Owner, fmt.Errorf("%w: %w", ErrEditorFaulted, err))
	}
	return false
}

func (c *Coordinator) providerFault(info AssetInfo, it *interceptor, err error, diag *diagnostics) {
	diag.add("fault:"+it.Owner, func() {
		c.log.Warn("provider failed, falling through", Fields{"key": info.Key, "owner": it.Owner, "err": err})
		c.hooks.ProviderFaulted(info.Key, it.Owner, fmt.Errorf("%w: %w", ErrProviderFaulted, err))
	})
}

// diagnostics collects the provider faults and conflicts of one request.
// A probe and its bare fallback resolve providers twice; each distinct
// diagnostic is reported once, after the request finishes. A nil
// *diagnostics reports immediately.
type diagnostics struct {
	seen    map[string]struct{}
	pending []func()
}

func (d *diagnostics) add(id string, report func()) {
	if d == nil {
		report()
		return
	}
	if _, ok := d.seen[id]; ok {
		return
	}
	if d.seen == nil {
		d.seen = make(map[string]struct{})
	}
	d.seen[id] = struct{}{}
	d.pending = append(d.pending, report)
}

func (d *diagnostics) flush() {
	for _, report := range d.pending {
		report()
	}
	d.pending = nil
}

func (c *Coordinator) rejectEdit(info AssetInfo, it *interceptor, reason string) {
	c.log.Warn("editor result rejected, reverting", Fields{"key": info.Key, "owner": it.Owner, "reason": reason})
	c.hooks.EditRejected(info.Key, it.Owner, reason)
}

// inject stores value directly, bypassing interception.
func (c *Coordinator) inject(ctx context.Context, v *View, raw string, value any, typ reflect.Type) error {
	if c.closed.Load() {
		return &LoadError{Key: raw, Err: ErrClosed}
	}
	vr, err := c.variant(raw, v.Language())
	if err != nil {
		return &LoadError{Key: raw, Err: err}
	}
	if vr.Probe {
		vr = Variant{Key: vr.Name, Name: vr.Name}
	}
	if !compatible(value, typ) {
		return &LoadError{Key: raw, Err: &TypeMismatchError{Key: vr.Key, Want: typ, Got: reflect.TypeOf(value)}}
	}

	ctx, unlock := c.exclusive(ctx)
	defer unlock()
	if v.disposed.Load() {
		return &LoadError{Key: raw, Err: ErrViewDisposed}
	}
	g, ok := c.snapshotGen(ctx, vr.Name)
	e := newEntry(vr, value, typ, g, ok)
	if prev := c.entries[vr.Key]; prev != nil {
		e.adopt(prev)
	}
	e.addOwner(v.id)
	c.entries[vr.Key] = e
	c.log.Debug("asset injected", Fields{"key": vr.Key, "view": v.name})
	return nil
}

func (c *Coordinator) isLoaded(ctx context.Context, v *View, raw string) bool {
	vr, err := c.variant(raw, v.Language())
	if err != nil {
		return false
	}
	unlock := c.shared(ctx)
	defer unlock()
	if _, ok := c.entries[vr.Key]; ok {
		return true
	}
	if vr.Probe {
		_, ok := c.entries[vr.Name]
		return ok
	}
	return false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// compatible reports whether v is usable as typ. A nil typ accepts any
// non-nil value.
func compatible(v any, typ reflect.Type) bool {
	if isNil(v) {
		return false
	}
	return typ == nil || reflect.TypeOf(v).AssignableTo(typ)
}

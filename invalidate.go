package assetcache

import (
	"context"
	"errors"
	"reflect"
	"sort"
)

// InvalidateResult summarizes one invalidation.
type InvalidateResult struct {
	Names    []string // distinct canonical names removed, sorted
	Reloaded int      // reload hook invocations that reported success
}

// InvalidateWhere removes every cached asset whose canonical name and type
// satisfy match. All locale variants of a matching name go together and a
// name is evaluated only until its first match. The reload hook then runs
// once per removed name.
func (c *Coordinator) InvalidateWhere(ctx context.Context, match func(name string, typ reflect.Type) bool) (InvalidateResult, error) {
	return c.invalidate(ctx, match, nil)
}

// Invalidate removes the given assets. Their generations are bumped even
// when they are not cached here, so other replicas sharing the GenStore
// drop their copies on next read.
func (c *Coordinator) Invalidate(ctx context.Context, raw ...string) (InvalidateResult, error) {
	set := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		n, err := c.keys.Normalize(r)
		if err != nil {
			return InvalidateResult{}, &LoadError{Key: r, Err: err}
		}
		set[n] = struct{}{}
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return c.invalidate(ctx, func(name string, _ reflect.Type) bool {
		_, ok := set[name]
		return ok
	}, names)
}

func (c *Coordinator) invalidate(ctx context.Context, match func(string, reflect.Type) bool, bump []string) (InvalidateResult, error) {
	if c.closed.Load() {
		return InvalidateResult{}, ErrClosed
	}

	ctx, unlock := c.exclusive(ctx)
	removed := c.removeWhere(match)

	targets := make(map[string]struct{}, len(removed)+len(bump))
	for _, n := range removed {
		targets[n] = struct{}{}
		c.locales.Forget(n)
	}
	for _, n := range bump {
		targets[n] = struct{}{}
	}
	var errs []error
	for n := range targets {
		if g, err := c.gen.Bump(ctx, n); err != nil {
			c.log.Error("gen bump error", Fields{"name": n, "err": err})
			errs = append(errs, &InvalidateError{Name: n, BumpErr: err})
		} else {
			c.log.Debug("invalidated asset (bumped gen)", Fields{"name": n, "newGen": g})
		}
	}
	unlock()

	res := InvalidateResult{Names: removed}
	if c.reload != nil {
		for _, n := range removed {
			if c.runReload(ctx, n) {
				res.Reloaded++
			} else {
				c.hooks.ReloadFailed(n)
			}
		}
	}
	return res, errors.Join(errs...)
}

// removeWhere deletes matching names with all their variants. Caller holds
// the exclusive section.
func (c *Coordinator) removeWhere(match func(string, reflect.Type) bool) []string {
	groups := c.entries.byName()
	names := make([]string, 0, len(groups))
	for n := range groups {
		names = append(names, n)
	}
	sort.Strings(names)

	var removed []string
	for _, name := range names {
		keys := groups[name]
		hit := false
		for _, k := range keys {
			typ := c.entries[k].typ
			var ok bool
			err := safely(func() error {
				ok = match(name, typ)
				return nil
			})
			if err != nil {
				c.log.Warn("invalidation predicate failed", Fields{"name": name, "err": err})
				continue
			}
			if ok {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}
		for _, k := range keys {
			delete(c.entries, k)
		}
		removed = append(removed, name)
	}
	return removed
}

func (c *Coordinator) runReload(ctx context.Context, name string) bool {
	var ok bool
	err := safely(func() error {
		ok = c.reload(ctx, name)
		return nil
	})
	if err != nil {
		c.log.Warn("reload hook failed", Fields{"name": name, "err": err})
		return false
	}
	return ok
}

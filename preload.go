package assetcache

import (
	"context"
	"reflect"

	"golang.org/x/sync/errgroup"
)

// Preload loads keys as typ with bounded concurrency and returns the first
// error. Inside a load chain the keys are loaded one by one on the calling
// goroutine, since the chain's context must not cross goroutines.
func (v *View) Preload(ctx context.Context, typ reflect.Type, keys ...string) error {
	if v.c.chain(ctx) != nil {
		for _, k := range keys {
			if _, err := v.LoadAs(ctx, k, typ); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.c.preload)
	for _, k := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := v.LoadAs(gctx, k, typ)
			return err
		})
	}
	return g.Wait()
}

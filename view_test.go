package assetcache

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"testing"
)

// TestTwoViewsOwnership verifies an entry survives until the last view that
// touched it is disposed.
func TestTwoViewsOwnership(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(map[string]any{"shared": "s", "solo": "x"})
	c := newTestCoordinator(t, src, nil)
	a := mustView(t, c, "a")
	b := mustView(t, c, "b")

	mustLoad[string](t, a, "shared")
	mustLoad[string](t, b, "shared")
	mustLoad[string](t, a, "solo")

	a.Dispose(ctx)
	a.Dispose(ctx) // idempotent
	if !b.IsLoaded(ctx, "shared") {
		t.Fatalf("shared entry dropped while b still owns it")
	}
	if b.IsLoaded(ctx, "solo") {
		t.Fatalf("solo entry should go with a")
	}
	if c.Views() != 1 {
		t.Fatalf("expected 1 live view, got %d", c.Views())
	}

	b.Dispose(ctx)
	if c.Len(ctx) != 0 {
		t.Fatalf("expected empty cache, got %d", c.Len(ctx))
	}
	if src.count("shared") != 1 {
		t.Fatalf("shared asset should be produced once")
	}
}

func TestDisposedViewFails(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(t, newFakeSource(map[string]any{"a": "x"}), nil)
	v := mustView(t, c, "a")
	v.Dispose(ctx)
	if _, err := Load[string](ctx, v, "a"); !errors.Is(err, ErrViewDisposed) {
		t.Fatalf("expected ErrViewDisposed, got %v", err)
	}
	if err := Inject(ctx, v, "a", "y"); !errors.Is(err, ErrViewDisposed) {
		t.Fatalf("expected ErrViewDisposed, got %v", err)
	}
}

// TestDisposeDuringLoadDoesNotCache verifies a view disposed while its load
// is in flight leaves nothing behind.
func TestDisposeDuringLoadDoesNotCache(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(t, newFakeSource(map[string]any{"a": "x"}), nil)
	v := mustView(t, c, "a")
	if _, err := c.Interceptors().AddEditor("mod.dispose", nil, func(ctx context.Context, _ AssetInfo, val any) (any, error) {
		v.Dispose(ctx)
		return val, nil
	}); err != nil {
		t.Fatal(err)
	}
	if got := mustLoad[string](t, v, "a"); got != "x" {
		t.Fatalf("got %q", got)
	}
	if c.Len(ctx) != 0 {
		t.Fatalf("disposed view's load must not be cached")
	}
}

func TestInject(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(nil)
	c := newTestCoordinator(t, src, nil)
	a := mustView(t, c, "a")
	b := mustView(t, c, "b")

	if err := Inject(ctx, a, "Generated/Map", []int{1, 2}); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	got := mustLoad[[]int](t, b, "generated/map")
	if !slices.Equal(got, []int{1, 2}) {
		t.Fatalf("got %v", got)
	}
	if src.count("generated/map") != 0 {
		t.Fatalf("injected asset must not reach the source")
	}
	if err := a.InjectAs(ctx, "x", "str", reflect.TypeFor[int]()); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if err := Inject[[]int](ctx, a, "x", nil); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected nil value to be rejected, got %v", err)
	}

	// b loaded it, so it survives a
	a.Dispose(ctx)
	if !b.IsLoaded(ctx, "generated/map") {
		t.Fatalf("injected entry dropped while b owns it")
	}
}

func TestInjectReplacesKeepingOwners(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(t, newFakeSource(map[string]any{"a": "src"}), nil)
	a := mustView(t, c, "a")
	b := mustView(t, c, "b")
	mustLoad[string](t, a, "a")
	if err := Inject(ctx, b, "a", "injected"); err != nil {
		t.Fatal(err)
	}
	if got := mustLoad[string](t, a, "a"); got != "injected" {
		t.Fatalf("got %q", got)
	}
	b.Dispose(ctx)
	if !a.IsLoaded(ctx, "a") {
		t.Fatalf("a's ownership lost on replace")
	}
}

func TestKeysSnapshot(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(t, newFakeSource(map[string]any{
		"b": "x", "a": "y", "a.fr-fr": "z",
	}), nil)
	v := mustView(t, c, "w")
	mustLoad[string](t, v, "b")
	mustLoad[string](t, v, "a")
	mustLoad[string](t, v, "A.FR-FR")

	seq := v.Keys(ctx)
	mustLoad[string](t, v, "b") // no mutation observed
	if _, err := Load[string](ctx, v, "c"); err == nil {
		t.Fatalf("expected miss")
	}

	var got []string
	for k := range seq {
		got = append(got, k)
	}
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("got %v", got)
	}
	n := 0
	for range seq {
		n++
	}
	if n != 0 {
		t.Fatalf("sequence must be single-use, got %d more", n)
	}
}

func TestPreload(t *testing.T) {
	ctx := context.Background()
	assets := map[string]any{}
	keys := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		k := fmt.Sprintf("tiles/%02d", i)
		assets[k] = k
		keys = append(keys, k)
	}
	src := newFakeSource(assets)
	c := newTestCoordinator(t, src, func(o *Options) { o.PreloadConcurrency = 3 })
	v := mustView(t, c, "w")

	if err := v.Preload(ctx, reflect.TypeFor[string](), keys...); err != nil {
		t.Fatalf("Preload: %v", err)
	}
	for _, k := range keys {
		if !v.IsLoaded(ctx, k) {
			t.Fatalf("%s not loaded", k)
		}
	}
	if err := v.Preload(ctx, reflect.TypeFor[string](), "tiles/00", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestConcurrentLoadsProduceOnce verifies concurrent views share one
// production per asset.
func TestConcurrentLoadsProduceOnce(t *testing.T) {
	ctx := context.Background()
	assets := map[string]any{}
	for i := 0; i < 8; i++ {
		assets[fmt.Sprintf("a%d", i)] = i
	}
	src := newFakeSource(assets)
	c := newTestCoordinator(t, src, nil)
	if _, err := c.Interceptors().AddEditor("mod.inc", nil, func(_ context.Context, _ AssetInfo, v any) (any, error) {
		return v.(int) + 100, nil
	}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for w := 0; w < 8; w++ {
		v := mustView(t, c, fmt.Sprintf("v%d", w))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < 50; r++ {
				i := r % 8
				got, err := Load[int](ctx, v, fmt.Sprintf("a%d", i))
				if err != nil {
					errs <- err
					return
				}
				if got != i+100 {
					errs <- fmt.Errorf("a%d: got %d", i, got)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
	for i := 0; i < 8; i++ {
		if n := src.count(fmt.Sprintf("a%d", i)); n != 1 {
			t.Fatalf("a%d produced %d times", i, n)
		}
	}
}

package assetcache

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
)

type chainKey struct{}

// loadChain is the exclusive section of one top-level load. It travels in the
// context handed to interceptors so cache calls made from inside them reuse
// the held lock instead of deadlocking on it. stack holds the variant keys
// currently being produced, outermost first.
//
// A chain is owned by the goroutine running the top-level load; interceptors
// must not hand its context to other goroutines.
type loadChain struct {
	c        *Coordinator
	stack    []string
	released atomic.Bool
}

// chain returns the live chain of this coordinator carried by ctx, if any.
func (c *Coordinator) chain(ctx context.Context) *loadChain {
	ch, _ := ctx.Value(chainKey{}).(*loadChain)
	if ch == nil || ch.c != c || ch.released.Load() {
		return nil
	}
	return ch
}

// exclusive enters the write section. Inside a chain it is a no-op; otherwise
// it takes the write lock and returns a context carrying a fresh chain.
func (c *Coordinator) exclusive(ctx context.Context) (context.Context, func()) {
	if c.chain(ctx) != nil {
		return ctx, func() {}
	}
	c.mu.Lock()
	ch := &loadChain{c: c}
	return context.WithValue(ctx, chainKey{}, ch), func() {
		ch.released.Store(true)
		c.mu.Unlock()
	}
}

// shared enters the read section; a no-op inside a chain.
func (c *Coordinator) shared(ctx context.Context) func() {
	if c.chain(ctx) != nil {
		return func() {}
	}
	c.mu.RLock()
	return c.mu.RUnlock
}

func (ch *loadChain) producing(key string) bool {
	return slices.Contains(ch.stack, key)
}

// enter marks key as being produced. The returned func must run on every
// exit path.
func (ch *loadChain) enter(key string) func() {
	ch.stack = append(ch.stack, key)
	n := len(ch.stack)
	return func() {
		ch.stack = ch.stack[:n-1]
	}
}

// trace returns the stack plus the repeated key.
func (ch *loadChain) trace(key string) []string {
	out := make([]string, 0, len(ch.stack)+1)
	out = append(out, ch.stack...)
	return append(out, key)
}

// safely runs fn, turning a panic into an error wrapping ErrPanicked.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	return fn()
}

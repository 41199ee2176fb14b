package assetcache

import (
	"context"
	"reflect"
	"time"

	gen "github.com/unkn0wn-root/assetcache/genstore"
)

// SourceRequest is what the default source is asked to produce.
type SourceRequest struct {
	Key    string       // variant key
	Name   string       // canonical name
	Locale string       // BCP 47 tag, empty for the bare asset
	Type   reflect.Type // requested type
}

// Source is the host's built-in asset loader, consulted when no provider
// supplies a value. A missing asset must be reported with an error matching
// ErrNotFound. Implementations must be safe for concurrent use.
type Source interface {
	Provide(ctx context.Context, req SourceRequest) (any, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, req SourceRequest) (any, error)

func (f SourceFunc) Provide(ctx context.Context, req SourceRequest) (any, error) { return f(ctx, req) }

// ReloadHook lets host-derived state re-derive itself after an asset was
// invalidated. It is called once per invalidated canonical name and reports
// whether the reload succeeded.
type ReloadHook func(ctx context.Context, name string) bool

// Options tune the coordinator. Only Source is required; others have
// sensible defaults.
type Options struct {
	// Required
	Source Source

	Logger     Logger       // if nil, NopLogger is used
	Hooks      Hooks        // if nil, NopHooks is used
	GenStore   gen.GenStore // nil => LocalGenStore (in-process)
	ReloadHook ReloadHook   // nil => invalidation reports no reloads

	CleanupInterval time.Duration // LocalGenStore sweep; 0 => 1h
	GenRetention    time.Duration // LocalGenStore retention; 0 => 30d

	DefaultLanguage    string   // maps to bare keys; "" => "en"
	Locales            []string // recognized variant suffixes; nil => DefaultLocales
	ForbiddenChars     string   // rejected in raw keys; "" => DefaultForbiddenChars
	PreloadConcurrency int      // 0 => 4
}

// New builds a coordinator. The caller owns it and shares it with every view.
func New(opts Options) (*Coordinator, error) {
	return newCoordinator(opts)
}

// Package sloghooks reports assetcache events through log/slog.
package sloghooks

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/assetcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	ProducedEvery uint64
	StaleEvery    uint64
	// Optional key rewriter, e.g. to shorten deep asset paths.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	producedCtr atomic.Uint64
	staleCtr    atomic.Uint64
}

var _ assetcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	return k
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) ProviderConflict(key string, owners []string) {
	if h.l == nil {
		return
	}
	h.l.Warn("assetcache.provider_conflict",
		"key", h.redact(key),
		"owners", owners)
}

func (h *Hooks) ProviderFaulted(key, owner string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("assetcache.provider_faulted",
		"key", h.redact(key),
		"owner", owner,
		"err", err)
}

func (h *Hooks) EditorFaulted(key, owner string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("assetcache.editor_faulted",
		"key", h.redact(key),
		"owner", owner,
		"err", err)
}

func (h *Hooks) EditRejected(key, owner, reason string) {
	if h.l == nil {
		return
	}
	h.l.Warn("assetcache.edit_rejected",
		"key", h.redact(key),
		"owner", owner,
		"reason", reason)
}

func (h *Hooks) ReentrancyBroken(key string, chain []string) {
	if h.l == nil {
		return
	}
	h.l.Warn("assetcache.reentrancy_broken",
		"key", h.redact(key),
		"chain", chain)
}

func (h *Hooks) ReloadFailed(name string) {
	if h.l == nil {
		return
	}
	h.l.Error("assetcache.reload_failed", "name", h.redact(name))
}

func (h *Hooks) StaleEntry(key string) {
	if h.l == nil || !sample(h.opts.StaleEvery, &h.staleCtr) {
		return
	}
	h.l.Debug("assetcache.stale_entry", "key", h.redact(key))
}

func (h *Hooks) AssetProduced(key, origin string, took time.Duration) {
	if h.l == nil || !sample(h.opts.ProducedEvery, &h.producedCtr) {
		return
	}
	h.l.Debug("assetcache.asset_produced",
		"key", h.redact(key),
		"origin", origin,
		"took", took)
}

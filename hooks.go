package assetcache

import "time"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The coordinator calls them on hot paths, sometimes while holding the cache lock.
type Hooks interface {
	// More than one provider claimed the asset; all were rejected.
	ProviderConflict(key string, owners []string)

	// A provider predicate or handler failed (error, panic, nil or wrong-typed value).
	ProviderFaulted(key, owner string, err error)

	// An editor predicate or mutation failed; the previous value was kept.
	EditorFaulted(key, owner string, err error)

	// An editor returned a value that failed validation and was reverted.
	// reason ∈ {"nil_value", "type_mismatch"}
	EditRejected(key, owner, reason string)

	// A load chain requested a key it was already producing.
	// chain lists the variant keys in production order, outermost first.
	ReentrancyBroken(key string, chain []string)

	// The reload hook reported failure for an invalidated asset.
	ReloadFailed(name string)

	// A cached entry was dropped on read because its generation moved.
	StaleEntry(key string)

	// An asset went through the miss path.
	// origin ∈ {"provider", "source"}
	AssetProduced(key, origin string, took time.Duration)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) ProviderConflict(string, []string)           {}
func (NopHooks) ProviderFaulted(string, string, error)       {}
func (NopHooks) EditorFaulted(string, string, error)         {}
func (NopHooks) EditRejected(string, string, string)         {}
func (NopHooks) ReentrancyBroken(string, []string)           {}
func (NopHooks) ReloadFailed(string)                         {}
func (NopHooks) StaleEntry(string)                           {}
func (NopHooks) AssetProduced(string, string, time.Duration) {}

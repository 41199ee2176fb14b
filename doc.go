// Package assetcache implements a shared, concurrency-safe asset cache with
// extensible interception. Many views load named, typed assets through one
// Coordinator; extensions register providers (supply an asset's initial
// value) and editors (rewrite it after it is produced).
//
// Components:
//   - KeyNormalizer: canonical, case-insensitive asset names.
//   - LocaleResolver: maps (name, language) to a variant slot and learns which
//     assets have localized forms.
//   - Registry: ordered, owner-attributed providers and editors. At most one
//     provider may claim an asset, otherwise the default Source is used.
//     Editors chain in registration order with per-editor rollback.
//   - Source: the host's loader, consulted when no provider wins.
//   - GenStore: per-name generations. Local (in-process) by default, optional
//     Redis implementation so invalidations reach other replicas.
//
// Ownership:
//
//	v, _ := coord.NewView("ui")
//	tex, err := assetcache.Load[image.Image](ctx, v, "sprites/tree")
//	v.Dispose(ctx) // entries no other view owns are dropped
//
// Reentrancy:
//
// Interceptors run inside the cache's exclusive section. The context they
// receive carries the active load chain; cache calls made with it reuse the
// section. A chain that requests a key it is already producing gets the raw
// default-source value instead of recursing. Interceptors must pass the
// context they were given and must not block: there is no timeout, and a
// blocked interceptor stalls every other cache access.
package assetcache

// Package blob is a default asset Source backed by any store.Store.
//
// Assets are published as framed blobs: the frame carries the tag of the
// codec that encoded the payload. A load asks for a Go type; the codec
// registered for that type decodes the payload. Frames that fail validation
// are deleted and reported as not found, so a bad write heals on the next
// Publish.
//
//	src, _ := blob.New(blob.Options{Store: rs, Prefix: "assets"})
//	_ = blob.Register[Stats](src, "json", codec.JSON[Stats]{})
//	_ = blob.Publish(ctx, src, "units/orc", "", Stats{HP: 10})
//	coord, _ := assetcache.New(assetcache.Options{Source: src})
package blob

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/unkn0wn-root/assetcache"
	"github.com/unkn0wn-root/assetcache/codec"
	"github.com/unkn0wn-root/assetcache/internal/util"
	"github.com/unkn0wn-root/assetcache/internal/wire"
	"github.com/unkn0wn-root/assetcache/store"
)

var (
	ErrNoCodec   = errors.New("blob: no codec registered for type")
	ErrDuplicate = errors.New("blob: codec already registered")
	ErrRejected  = errors.New("blob: store rejected the write")
)

type Options struct {
	// Required
	Store store.Store

	Prefix    string        // storage key namespace; "" => "asset"
	MaxKeyLen int           // hash storage keys longer than this; 0 => no limit
	TTL       time.Duration // published blob TTL; 0 => no expiry
	Logger    assetcache.Logger

	// Must match the coordinator's settings so published variants land on
	// the slots it reads.
	DefaultLanguage string // "" => "en"
	ForbiddenChars  string // "" => assetcache.DefaultForbiddenChars
}

type binding struct {
	tag    string
	typ    reflect.Type
	codec  any // codec.Codec[typ]
	decode func([]byte) (any, error)
}

// Source reads assets from a store. Safe for concurrent use.
type Source struct {
	st     store.Store
	prefix string
	maxKey int
	ttl    time.Duration
	log    assetcache.Logger
	keys   *assetcache.KeyNormalizer
	locs   *assetcache.LocaleResolver

	mu     sync.RWMutex
	byType map[reflect.Type]*binding
	byTag  map[string]*binding
}

var _ assetcache.Source = (*Source)(nil)

func New(opts Options) (*Source, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("blob: store is required")
	}
	def := opts.DefaultLanguage
	if def == "" {
		def = "en"
	}
	locs, err := assetcache.NewLocaleResolver(def)
	if err != nil {
		return nil, err
	}
	forbidden := opts.ForbiddenChars
	if forbidden == "" {
		forbidden = assetcache.DefaultForbiddenChars
	}
	return &Source{
		st:     opts.Store,
		keys:   assetcache.NewKeyNormalizer(forbidden),
		locs:   locs,
		prefix: opts.Prefix,
		maxKey: opts.MaxKeyLen,
		ttl:    opts.TTL,
		log:    opts.Logger,
		byType: make(map[reflect.Type]*binding),
		byTag:  make(map[string]*binding),
	}, nil
}

func (s *Source) logger() assetcache.Logger {
	if s.log == nil {
		return assetcache.NopLogger{}
	}
	return s.log
}

// Register binds a codec to V under tag. Each type and each tag may be
// registered once.
func Register[V any](s *Source, tag string, c codec.Codec[V]) error {
	if tag == "" || len(tag) > wire.MaxTagLen {
		return wire.ErrTag
	}
	typ := reflect.TypeFor[V]()
	b := &binding{
		tag:   tag,
		typ:   typ,
		codec: c,
		decode: func(p []byte) (any, error) {
			return c.Decode(p)
		},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byType[typ]; ok {
		return fmt.Errorf("%w: type %v", ErrDuplicate, typ)
	}
	if _, ok := s.byTag[tag]; ok {
		return fmt.Errorf("%w: tag %q", ErrDuplicate, tag)
	}
	s.byType[typ] = b
	s.byTag[tag] = b
	return nil
}

// Publish encodes v with the codec registered for V and stores it under the
// variant of raw for locale. "" and the default language, in any regional
// form, address the bare asset.
func Publish[V any](ctx context.Context, s *Source, raw, locale string, v V) error {
	key, err := s.variantKey(raw, locale)
	if err != nil {
		return err
	}
	b, err := s.binding(reflect.TypeFor[V]())
	if err != nil {
		return err
	}
	payload, err := b.codec.(codec.Codec[V]).Encode(v)
	if err != nil {
		return fmt.Errorf("blob: encode %q: %w", key, err)
	}
	frame, err := wire.EncodeAsset(b.tag, payload)
	if err != nil {
		return err
	}
	ok, err := s.st.Set(ctx, s.storageKey(key), frame, int64(len(frame)), s.ttl)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrRejected, key)
	}
	return nil
}

// Remove deletes the stored variant of raw for locale.
func (s *Source) Remove(ctx context.Context, raw, locale string) error {
	key, err := s.variantKey(raw, locale)
	if err != nil {
		return err
	}
	return s.st.Del(ctx, s.storageKey(key))
}

// Provide implements assetcache.Source.
func (s *Source) Provide(ctx context.Context, req assetcache.SourceRequest) (any, error) {
	b, err := s.binding(req.Type)
	if err != nil {
		return nil, err
	}

	sk := s.storageKey(req.Key)
	raw, ok, err := s.st.Get(ctx, sk)
	if err != nil {
		return nil, fmt.Errorf("blob: get %q: %w", req.Key, err)
	}
	if !ok {
		return nil, assetcache.ErrNotFound
	}

	tag, payload, err := wire.DecodeAsset(raw)
	if err != nil {
		s.selfHeal(ctx, sk, req.Key, err)
		return nil, assetcache.ErrNotFound
	}
	if tag != b.tag {
		mm := &assetcache.TypeMismatchError{Key: req.Key, Want: req.Type}
		s.mu.RLock()
		if other, ok := s.byTag[tag]; ok {
			mm.Got = other.typ
		}
		s.mu.RUnlock()
		return nil, mm
	}

	v, err := b.decode(payload)
	if err != nil {
		s.selfHeal(ctx, sk, req.Key, err)
		return nil, assetcache.ErrNotFound
	}
	return v, nil
}

// Close releases the underlying store.
func (s *Source) Close(ctx context.Context) error { return s.st.Close(ctx) }

func (s *Source) selfHeal(ctx context.Context, sk, key string, cause error) {
	if err := s.st.Del(ctx, sk); err != nil {
		s.logger().Warn("blob self-heal delete failed", assetcache.Fields{"key": key, "err": err})
		return
	}
	s.logger().Warn("blob self-heal: dropped undecodable asset", assetcache.Fields{"key": key, "err": cause})
}

func (s *Source) binding(typ reflect.Type) (*binding, error) {
	s.mu.RLock()
	b, ok := s.byType[typ]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoCodec, typ)
	}
	return b, nil
}

func (s *Source) variantKey(raw, locale string) (string, error) {
	name, err := s.keys.Normalize(raw)
	if err != nil {
		return "", err
	}
	l, err := s.locs.Register(locale)
	if err != nil {
		return "", err
	}
	return assetcache.VariantKey(name, l), nil
}

func (s *Source) storageKey(key string) string {
	prefix := s.prefix
	if prefix == "" {
		prefix = "asset"
	}
	return util.StorageKey(prefix, key, s.maxKey)
}

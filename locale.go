package assetcache

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// DefaultLocales are the locale codes recognized as variant suffixes out of
// the box. Any language set on a view or declared for an asset is added.
var DefaultLocales = []string{
	"de-DE", "es-ES", "fr-FR", "hu-HU", "it-IT", "ja-JP",
	"ko-KR", "pt-BR", "ru-RU", "tr-TR", "zh-CN",
}

// Variant is a concrete cache slot for a canonical name.
type Variant struct {
	Key    string // slot identifier: Name, or Name + "." + lower(Locale)
	Name   string // canonical name
	Locale string // BCP 47 tag; empty for the bare slot
	Probe  bool   // the localized form is not known yet; fall back to Name on miss
}

type form uint8

const (
	formUnknown form = iota
	formBare
	formLocalized
)

type formKey struct {
	name   string
	locale string
}

// LocaleResolver maps (canonical name, language) to a variant key and
// remembers which assets have localized forms.
type LocaleResolver struct {
	def     string        // canonical default language
	defBase language.Base // regional forms of def share the bare slot
	hasDef  bool

	mu       sync.RWMutex
	known    map[string]string // lower(code) -> canonical tag
	learned  map[formKey]form
	declared map[formKey]struct{}
}

// NewLocaleResolver builds a resolver. def maps to bare keys; locales seed
// the set of suffixes ParseVariant recognizes.
func NewLocaleResolver(def string, locales ...string) (*LocaleResolver, error) {
	d, err := CanonicalLocale(def)
	if err != nil {
		return nil, err
	}
	r := &LocaleResolver{
		def:      d,
		defBase:  baseOf(d),
		hasDef:   d != "",
		known:    make(map[string]string, len(locales)),
		learned:  make(map[formKey]form),
		declared: make(map[formKey]struct{}),
	}
	for _, l := range locales {
		if _, err := r.Register(l); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// CanonicalLocale returns the BCP 47 form of lang ("pt-br" -> "pt-BR").
// Blank input yields "".
func CanonicalLocale(lang string) (string, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "", nil
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidLanguage, lang, err)
	}
	return tag.String(), nil
}

func baseOf(l string) language.Base {
	tag, err := language.Parse(l)
	if err != nil {
		return language.Base{}
	}
	b, _ := tag.Base()
	return b
}

// isDefault reports whether the canonical tag l reads the bare slot: the
// default language itself or any regional form of it ("en-US" under "en").
func (r *LocaleResolver) isDefault(l string) bool {
	if l == "" || l == r.def {
		return true
	}
	return r.hasDef && baseOf(l) == r.defBase
}

// Default returns the canonical default language.
func (r *LocaleResolver) Default() string { return r.def }

// Register canonicalizes lang and adds it to the known suffixes. The default
// language, in any regional form, yields "".
func (r *LocaleResolver) Register(lang string) (string, error) {
	l, err := CanonicalLocale(lang)
	if err != nil {
		return "", err
	}
	if r.isDefault(l) {
		return "", nil
	}
	lower := strings.ToLower(l)
	r.mu.RLock()
	_, ok := r.known[lower]
	r.mu.RUnlock()
	if !ok {
		r.mu.Lock()
		r.known[lower] = l
		r.mu.Unlock()
	}
	return l, nil
}

// VariantKey joins a canonical name and a locale into a slot identifier.
func VariantKey(name, locale string) string {
	if locale == "" {
		return name
	}
	return name + "." + strings.ToLower(locale)
}

// Resolve picks the slot for name under lang. lang must already be canonical
// (see Register).
func (r *LocaleResolver) Resolve(name, lang string) Variant {
	if r.isDefault(lang) {
		return Variant{Key: name, Name: name}
	}
	k := formKey{name, lang}
	r.mu.RLock()
	f := r.learned[k]
	_, declared := r.declared[k]
	r.mu.RUnlock()

	switch {
	case declared || f == formLocalized:
		return Variant{Key: VariantKey(name, lang), Name: name, Locale: lang}
	case f == formBare:
		return Variant{Key: name, Name: name}
	default:
		return Variant{Key: VariantKey(name, lang), Name: name, Locale: lang, Probe: true}
	}
}

// ParseVariant splits a slot identifier into its canonical name and locale.
// ok is false when key carries no known locale suffix.
func (r *LocaleResolver) ParseVariant(key string) (name, locale string, ok bool) {
	i := strings.LastIndexByte(key, '.')
	if i <= 0 || i == len(key)-1 {
		return key, "", false
	}
	// a dot inside the last path segment only
	if strings.IndexByte(key[i:], Separator) >= 0 {
		return key, "", false
	}
	r.mu.RLock()
	l, found := r.known[key[i+1:]]
	r.mu.RUnlock()
	if !found {
		return key, "", false
	}
	return key[:i], l, true
}

// Learn records whether name has a localized form for locale.
func (r *LocaleResolver) Learn(name, locale string, localized bool) {
	if locale == "" {
		return
	}
	f := formBare
	if localized {
		f = formLocalized
	}
	r.mu.Lock()
	r.learned[formKey{name, locale}] = f
	r.mu.Unlock()
}

// Declare marks name as having localized forms for locales. Declarations
// survive invalidation.
func (r *LocaleResolver) Declare(name string, locales ...string) error {
	for _, lang := range locales {
		l, err := r.Register(lang)
		if err != nil {
			return err
		}
		if l == "" {
			continue
		}
		r.mu.Lock()
		r.declared[formKey{name, l}] = struct{}{}
		r.mu.Unlock()
	}
	return nil
}

// Forget drops everything learned about name.
func (r *LocaleResolver) Forget(name string) {
	r.mu.Lock()
	for k := range r.learned {
		if k.name == name {
			delete(r.learned, k)
		}
	}
	r.mu.Unlock()
}

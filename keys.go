package assetcache

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	// Separator is the canonical path separator inside asset keys.
	Separator = '/'

	// DefaultForbiddenChars are rejected anywhere in a raw key.
	DefaultForbiddenChars = `<>:"|?*`
)

var defaultNormalizer = NewKeyNormalizer(DefaultForbiddenChars)

// KeyNormalizer canonicalizes raw asset names. Canonical keys are
// case-folded, NFC-normalized, use '/' as the only separator and carry no
// empty segments. Normalize is idempotent and safe for concurrent use.
type KeyNormalizer struct {
	forbidden string
}

func NewKeyNormalizer(forbidden string) *KeyNormalizer {
	return &KeyNormalizer{forbidden: forbidden}
}

// Normalize canonicalizes raw with the default rules.
func Normalize(raw string) (string, error) { return defaultNormalizer.Normalize(raw) }

// Normalize returns the canonical key for raw or an error wrapping ErrInvalidKey.
func (n *KeyNormalizer) Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if i := strings.IndexAny(s, n.forbidden); i >= 0 {
		return "", fmt.Errorf("%w: forbidden character %q", ErrInvalidKey, s[i])
	}
	if strings.IndexFunc(s, unicode.IsControl) >= 0 {
		return "", fmt.Errorf("%w: control character", ErrInvalidKey)
	}

	// cases.Caser is stateful; one per call keeps Normalize goroutine-safe.
	s = cases.Fold().String(norm.NFC.String(s))
	s = norm.NFC.String(s)

	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '\\' })
	segs := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		switch p {
		case "", ".":
			continue
		case "..":
			return "", fmt.Errorf("%w: parent segment", ErrInvalidKey)
		}
		segs = append(segs, p)
	}
	if len(segs) == 0 {
		return "", fmt.Errorf("%w: no path segments", ErrInvalidKey)
	}
	return strings.Join(segs, string(Separator)), nil
}

// Equal reports whether a and b name the same asset. Invalid keys are never equal.
func (n *KeyNormalizer) Equal(a, b string) bool {
	na, err := n.Normalize(a)
	if err != nil {
		return false
	}
	nb, err := n.Normalize(b)
	return err == nil && na == nb
}

package assetcache

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// Surfaced to callers.
	ErrInvalidKey      = errors.New("assetcache: invalid asset key")
	ErrNotFound        = errors.New("assetcache: asset not found")
	ErrTypeMismatch    = errors.New("assetcache: type mismatch")
	ErrViewDisposed    = errors.New("assetcache: view disposed")
	ErrClosed          = errors.New("assetcache: coordinator closed")
	ErrInvalidLanguage = errors.New("assetcache: invalid language")

	// Recovered inside the pipeline; reported through Logger and Hooks only.
	ErrProviderConflict = errors.New("assetcache: provider conflict")
	ErrProviderFaulted  = errors.New("assetcache: provider faulted")
	ErrEditorFaulted    = errors.New("assetcache: editor faulted")
	ErrReentrancy       = errors.New("assetcache: reentrant load")
	ErrPanicked         = errors.New("assetcache: interceptor panicked")

	// Registry.
	ErrInvalidOwner        = errors.New("assetcache: invalid owner identity")
	ErrNotOwner            = errors.New("assetcache: registration belongs to another owner")
	ErrUnknownRegistration = errors.New("assetcache: unknown registration")
)

// LoadError is returned by every failed load. Err carries the cause and
// matches the sentinels above through errors.Is.
type LoadError struct {
	Key string // raw key as requested
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("assetcache: load %q: %v", e.Key, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// TypeMismatchError reports a value whose runtime type cannot be used as the
// requested type.
type TypeMismatchError struct {
	Key  string
	Want reflect.Type
	Got  reflect.Type // nil when the value itself was nil
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%q: want %v, got %v", e.Key, typeName(e.Want), typeName(e.Got))
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// InvalidateError reports a generation bump that failed while invalidating
// name. The local entries were removed regardless.
type InvalidateError struct {
	Name    string
	BumpErr error
}

func (e *InvalidateError) Error() string {
	return fmt.Sprintf("invalidate %q: gen bump failed: %v", e.Name, e.BumpErr)
}

func (e *InvalidateError) Unwrap() error { return e.BumpErr }

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

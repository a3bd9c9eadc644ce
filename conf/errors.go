package conf

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, matched with errors.Is. The typed errors below carry
// the path context and report themselves as the matching sentinel.
var (
	ErrKeyNotFound  = errors.New("config key not found")
	ErrTypeMismatch = errors.New("config type mismatch")
	ErrBinding      = errors.New("config binding failed")
	ErrSource       = errors.New("config source failed")
)

var (
	_ error = KeyNotFoundError{}
	_ error = TypeMismatchError{}
	_ error = BindingError{}
	_ error = SourceError{}
)

// KeyNotFoundError indicates an absent dot-path. Recoverable: the caller
// decides between a default and propagation.
type KeyNotFoundError struct {
	Path string
}

func (e KeyNotFoundError) Error() string {
	return fmt.Sprintf("config key %q not found", e.Path)
}

func (e KeyNotFoundError) Is(target error) bool {
	return target == ErrKeyNotFound
}

// TypeMismatchError indicates a leaf that could not be coerced into the
// requested type.
type TypeMismatchError struct {
	Path     string
	Expected string
	Found    string
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("config key %q: cannot coerce %s into %s", e.Path, e.Found, e.Expected)
}

func (e TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// BindingError indicates a section bind that left required fields (fields
// with no declared default) unset. Unknown extra keys never cause this;
// they are ignored for forward compatibility.
type BindingError struct {
	Path          string
	MissingFields []string
}

func (e BindingError) Error() string {
	return fmt.Sprintf("config section %q: missing required fields: %s",
		e.Path, strings.Join(e.MissingFields, ", "))
}

func (e BindingError) Is(target error) bool {
	return target == ErrBinding
}

// SourceError indicates a malformed required layer. Fatal: startup aborts.
type SourceError struct {
	Source string
	Cause  error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("config source %q: %v", e.Source, e.Cause)
}

func (e SourceError) Unwrap() error {
	return e.Cause
}

func (e SourceError) Is(target error) bool {
	return target == ErrSource
}

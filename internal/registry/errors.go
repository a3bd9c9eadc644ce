package registry

import (
	"errors"
	"fmt"
)

// Sentinel errors. These are wrapped into typed errors where more context
// is available; callers match them with errors.Is.
var (
	ErrNilDescriptor  = errors.New("descriptor cannot be nil")
	ErrIdentityNil    = errors.New("component identity cannot be empty")
	ErrFactoryNil     = errors.New("component factory cannot be nil")
	ErrRegistryClosed = errors.New("registry is closed to registration")
)

var (
	_ error = ScopeError{}
	_ error = AlreadyRegisteredError{}
	_ error = ComponentNotFoundError{}
	_ error = ComponentInitError{}
)

// ScopeError indicates an invalid component scope value.
type ScopeError struct {
	Value any
}

func (e ScopeError) Error() string {
	return fmt.Sprintf("invalid component scope: %v", e.Value)
}

// AlreadyRegisteredError indicates a second registration for an identity
// whose existing descriptor is not replaceable.
type AlreadyRegisteredError struct {
	Identity Identity
	Origin   string // auto-configuration unit owning the existing descriptor
}

func (e AlreadyRegisteredError) Error() string {
	if e.Origin != "" {
		return fmt.Sprintf("component %s already registered by %q", e.Identity, e.Origin)
	}
	return fmt.Sprintf("component %s already registered", e.Identity)
}

// ComponentNotFoundError indicates a component whose declared dependency
// had no resolved instance when it was needed. Seen during the
// instantiation pass this means the registry was corrupted between ordering
// and instantiation; it is fatal to bootstrap.
type ComponentNotFoundError struct {
	Identity Identity
	Missing  Identity
}

func (e ComponentNotFoundError) Error() string {
	if e.Missing.Zero() {
		return fmt.Sprintf("component not found: %s", e.Identity)
	}
	return fmt.Sprintf("component %s: required dependency %s not found", e.Identity, e.Missing)
}

// ComponentInitError wraps a factory failure. During bootstrap it aborts
// the remaining instantiation pass; on a prototype request it is returned
// to that caller only.
type ComponentInitError struct {
	Identity Identity
	Cause    error
}

func (e ComponentInitError) Error() string {
	return fmt.Sprintf("component %s failed to initialize: %v", e.Identity, e.Cause)
}

func (e ComponentInitError) Unwrap() error {
	return e.Cause
}

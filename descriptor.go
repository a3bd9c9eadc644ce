package cog

import (
	"github.com/cogfab/cog/internal/registry"
)

// Re-exported registration types. A Descriptor is the full registration-time
// description of a component; Deps is the handle a Factory receives to reach
// its resolved dependencies.
type (
	Descriptor = registry.Descriptor
	Deps       = registry.Deps
	Factory    = registry.Factory
	Scope      = registry.Scope
)

const (
	// ScopeSingleton components are built once during bootstrap and shared
	// by reference.
	ScopeSingleton = registry.Singleton

	// ScopePrototype components are built fresh on every lookup; the caller
	// owns the instance.
	ScopePrototype = registry.Prototype
)

// ComponentOption customizes a descriptor built by Singleton, Prototype,
// or Instance.
type ComponentOption func(*Descriptor)

// DependsOn declares the identities the factory consumes. Dependencies are
// always explicit; a factory reading an undeclared identity through Deps
// gets an absence result, never an implicit edge.
func DependsOn(ids ...Identity) ComponentOption {
	return func(d *Descriptor) {
		d.Dependencies = append(d.Dependencies, ids...)
	}
}

// WithOrder sets the construction priority. Among components whose
// dependencies are all satisfied, lower order builds first; equal orders
// fall back to registration order.
func WithOrder(order int) ComponentOption {
	return func(d *Descriptor) {
		d.Order = order
	}
}

// WithName registers the component under a name, letting one type serve
// several identities.
func WithName(name string) ComponentOption {
	return func(d *Descriptor) {
		d.Identity.Name = name
	}
}

// AsReplaceable marks the registration as a default that a later
// registration of the same identity may supersede instead of failing.
// Auto-configuration units use this for overridable defaults.
func AsReplaceable() ComponentOption {
	return func(d *Descriptor) {
		d.Replaceable = true
	}
}

// Singleton describes a shared component of type T built by factory during
// the bootstrap instantiation pass.
func Singleton[T any](factory func(Deps) (T, error), opts ...ComponentOption) *Descriptor {
	return describe[T](registry.Singleton, factory, opts)
}

// Prototype describes a component of type T whose factory runs on every
// lookup, yielding an instance owned by that caller alone.
func Prototype[T any](factory func(Deps) (T, error), opts ...ComponentOption) *Descriptor {
	return describe[T](registry.Prototype, factory, opts)
}

// Instance registers an already-built value as a singleton. It takes part
// in identity lookup and duplicate detection but skips the dependency
// graph entirely.
func Instance[T any](value T, opts ...ComponentOption) *Descriptor {
	d := &Descriptor{
		Identity:   TypeOf[T](),
		Scope:      registry.Singleton,
		IsInstance: true,
		Instance:   value,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func describe[T any](scope Scope, factory func(Deps) (T, error), opts []ComponentOption) *Descriptor {
	d := &Descriptor{
		Identity: TypeOf[T](),
		Scope:    scope,
	}
	if factory != nil {
		d.Factory = func(deps Deps) (any, error) {
			return factory(deps)
		}
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

package cog

import (
	"reflect"

	"github.com/cogfab/cog/internal/registry"
)

// Identity is the stable token identifying a component within a context.
// It pairs a Go type with an optional name, so the same type can be
// registered more than once under different names.
type Identity = registry.Identity

// TypeOf returns the identity for T with no name.
func TypeOf[T any]() Identity {
	return Identity{Type: reflect.TypeFor[T]()}
}

// NamedType returns the identity for T under the given name.
func NamedType[T any](name string) Identity {
	return Identity{Type: reflect.TypeFor[T](), Name: name}
}

package cog

import (
	"fmt"
)

// Factory-side helpers, used inside component factories against the Deps
// handle. A factory may only reach identities it declared with DependsOn;
// anything else comes back as ComponentNotFoundError.

// Use returns the shared instance of singleton dependency T.
func Use[T any](deps Deps) (T, error) {
	return useID[T](deps, TypeOf[T]())
}

// UseNamed returns the shared instance of the singleton dependency
// registered as T under name.
func UseNamed[T any](deps Deps, name string) (T, error) {
	return useID[T](deps, NamedType[T](name))
}

func useID[T any](deps Deps, id Identity) (T, error) {
	var zero T

	v, ok := deps.Instance(id)
	if !ok {
		return zero, ComponentNotFoundError{Identity: id}
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("component %s: instance is %T, not %s", id, v, id.Type)
	}
	return typed, nil
}

// ProviderOf returns a closure building a fresh instance of prototype
// dependency T per call. The dependent holds the provider, never a
// captured instance, so each use gets its own value.
func ProviderOf[T any](deps Deps) (func() (T, error), error) {
	return providerID[T](deps, TypeOf[T]())
}

// ProviderOfNamed is ProviderOf for a named prototype registration.
func ProviderOfNamed[T any](deps Deps, name string) (func() (T, error), error) {
	return providerID[T](deps, NamedType[T](name))
}

func providerID[T any](deps Deps, id Identity) (func() (T, error), error) {
	build, ok := deps.Provider(id)
	if !ok {
		return nil, ComponentNotFoundError{Identity: id}
	}

	return func() (T, error) {
		var zero T

		v, err := build()
		if err != nil {
			return zero, err
		}
		typed, ok := v.(T)
		if !ok {
			return zero, fmt.Errorf("component %s: instance is %T, not %s", id, v, id.Type)
		}
		return typed, nil
	}, nil
}

// RegisterSingleton registers a pre-built instance, shorthand for
// Register(Instance(value)). The value bypasses the dependency graph.
func RegisterSingleton[T any](ctx *ApplicationContext, value T) error {
	return ctx.Register(Instance(value))
}

// Context-side lookups, valid only after Bootstrap.

// Get returns the component registered as T: the shared instance for a
// singleton, a freshly built one for a prototype. Absence surfaces as
// ErrComponentNotFound.
func Get[T any](ctx *ApplicationContext) (T, error) {
	return getID[T](ctx, TypeOf[T]())
}

// GetNamed returns the component registered as T under name.
func GetNamed[T any](ctx *ApplicationContext, name string) (T, error) {
	return getID[T](ctx, NamedType[T](name))
}

// GetSingleton returns the shared instance registered as T. Unlike Get it
// never builds anything: a prototype identity answers with
// ErrComponentNotFound.
func GetSingleton[T any](ctx *ApplicationContext) (T, error) {
	var zero T

	v, err := ctx.singleton(TypeOf[T]())
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		id := TypeOf[T]()
		return zero, fmt.Errorf("component %s: instance is %T, not %s", id, v, id.Type)
	}
	return typed, nil
}

// MustGet is Get but panics on error; for composition roots where a
// missing component is a programming error.
func MustGet[T any](ctx *ApplicationContext) T {
	v, err := Get[T](ctx)
	if err != nil {
		panic(err)
	}
	return v
}

func getID[T any](ctx *ApplicationContext, id Identity) (T, error) {
	var zero T

	v, err := ctx.instance(id)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("component %s: instance is %T, not %s", id, v, id.Type)
	}
	return typed, nil
}

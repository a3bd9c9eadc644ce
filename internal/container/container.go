package container

import (
	"errors"
	"sync"

	"github.com/cogfab/cog/internal/registry"
)

// ErrNotFound signals an identity that has no resolved instance and no
// retained prototype factory. Post-bootstrap lookups surface this as an
// absence signal, not a fatal error, since callers may probe optional
// components.
var ErrNotFound = errors.New("component not found")

// Container holds resolved singleton instances and retained prototype
// descriptors behind a read-mostly façade. Singletons are created exactly
// once, during the resolver's single pass, and shared by reference;
// prototype factories are invoked on every Get, on the calling goroutine,
// and the result is owned exclusively by that caller.
//
// All methods are safe for concurrent use. Writes happen only during
// bootstrap and inside the exclusive dynamic-registration path.
type Container struct {
	mu         sync.RWMutex
	singletons map[registry.Identity]any
	prototypes map[registry.Identity]*registry.Descriptor
}

func New() *Container {
	return &Container{
		singletons: make(map[registry.Identity]any),
		prototypes: make(map[registry.Identity]*registry.Descriptor),
	}
}

// StoreSingleton records the shared instance for an identity.
func (c *Container) StoreSingleton(id registry.Identity, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.singletons[id] = instance
}

// StorePrototype retains a prototype descriptor so its factory can be
// invoked on demand.
func (c *Container) StorePrototype(d *registry.Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prototypes[d.Identity] = d
}

// Has reports whether the identity is served by this container, either as
// a resolved singleton or as a retained prototype factory.
func (c *Container) Has(id registry.Identity) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.singletons[id]; ok {
		return true
	}
	_, ok := c.prototypes[id]
	return ok
}

// Singleton returns the shared instance for an identity.
func (c *Container) Singleton(id registry.Identity) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.singletons[id]
	return v, ok
}

// Get serves an identity: the shared instance for singletons, a freshly
// built instance for prototypes. A prototype factory error is recoverable
// and affects only this caller; prior singleton state is untouched.
func (c *Container) Get(id registry.Identity) (any, error) {
	c.mu.RLock()
	if v, ok := c.singletons[id]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	d, ok := c.prototypes[id]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return c.build(d)
}

// build invokes a prototype factory outside the container lock; factories
// may themselves call back into the container through the Deps handle.
func (c *Container) build(d *registry.Descriptor) (any, error) {
	instance, err := d.Factory(c.Deps())
	if err != nil {
		return nil, registry.ComponentInitError{Identity: d.Identity, Cause: err}
	}
	return instance, nil
}

// Deps returns the dependency handle passed to factories.
func (c *Container) Deps() registry.Deps {
	return depView{c: c}
}

// SingletonCount returns the number of resolved singletons.
func (c *Container) SingletonCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.singletons)
}

// depView adapts the container to the registry.Deps handle. Singleton
// dependencies resolve to shared instances; prototype dependencies resolve
// to build closures so dependents construct per-use instances, never a
// captured one.
type depView struct {
	c *Container
}

func (d depView) Instance(id registry.Identity) (any, bool) {
	return d.c.Singleton(id)
}

func (d depView) Provider(id registry.Identity) (func() (any, error), bool) {
	d.c.mu.RLock()
	desc, ok := d.c.prototypes[id]
	d.c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	return func() (any, error) {
		return d.c.build(desc)
	}, true
}

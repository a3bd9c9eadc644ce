package cog

import (
	"github.com/cogfab/cog/internal/registry"
)

// Collection receives component registrations from modules and
// auto-configuration units.
type Collection interface {
	// Register inserts a descriptor, failing with AlreadyRegisteredError
	// on a non-replaceable duplicate.
	Register(d *Descriptor) error

	// Contains reports whether the identity is already registered.
	Contains(id Identity) bool
}

// ModuleOption is a deferred registration step applied to a Collection.
type ModuleOption func(Collection) error

// NewModule groups registrations under a name. Options run in order and
// the first failure aborts, wrapped in a ModuleError so nested modules
// produce a readable chain:
//
//	module "app": module "storage": component *sql.DB already registered
func NewModule(name string, opts ...ModuleOption) ModuleOption {
	return func(c Collection) error {
		for _, opt := range opts {
			if opt == nil {
				continue
			}
			if err := opt(c); err != nil {
				return ModuleError{Module: name, Cause: err}
			}
		}
		return nil
	}
}

// Provide registers descriptors as a module option.
func Provide(descs ...*Descriptor) ModuleOption {
	return func(c Collection) error {
		for _, d := range descs {
			if err := c.Register(d); err != nil {
				return err
			}
		}
		return nil
	}
}

// registryCollection adapts the internal registry to the Collection
// surface handed to module options.
type registryCollection struct {
	reg *registry.Registry
}

func (c registryCollection) Register(d *Descriptor) error {
	return c.reg.Register(d)
}

func (c registryCollection) Contains(id Identity) bool {
	return c.reg.Contains(id)
}

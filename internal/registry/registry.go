package registry

import (
	"fmt"
	"reflect"
	"sync"
)

// Scope determines how instances of a component are created and shared.
type Scope int

const (
	// Singleton - one instance built during bootstrap and shared by reference
	Singleton Scope = iota

	// Prototype - a fresh instance built on every request, owned by the caller
	Prototype
)

func (s Scope) String() string {
	switch s {
	case Singleton:
		return "singleton"
	case Prototype:
		return "prototype"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Identity is the stable token identifying a component type within a
// registry. Two identities are equal when both the type and the optional
// name match, so the same Go type can be registered more than once under
// different names.
type Identity struct {
	Type reflect.Type
	Name string
}

// Zero reports whether the identity carries no type.
func (id Identity) Zero() bool {
	return id.Type == nil
}

func (id Identity) String() string {
	if id.Type == nil {
		return "<nil>"
	}
	if id.Name != "" {
		return fmt.Sprintf("%s[%s]", id.Type.String(), id.Name)
	}
	return id.Type.String()
}

// Deps is the handle a factory receives to reach its resolved dependencies.
// Singleton dependencies are available as instances; Prototype dependencies
// are available as provider closures that build a fresh instance per call.
type Deps interface {
	// Instance returns the shared instance for a Singleton identity.
	Instance(id Identity) (any, bool)

	// Provider returns a build closure for a Prototype identity.
	Provider(id Identity) (func() (any, error), bool)
}

// Factory builds a component instance from its resolved dependencies.
type Factory func(deps Deps) (any, error)

// Descriptor is the registration-time description of a component: what it
// is, how it is scoped, what it needs, and how to build it. Descriptors are
// immutable once registered.
type Descriptor struct {
	// Identity uniquely identifies the component within a registry.
	Identity Identity

	// Scope determines instance sharing behavior.
	Scope Scope

	// Dependencies are the identities this component's factory consumes,
	// declared explicitly at registration time.
	Dependencies []Identity

	// Factory builds the instance. Unused when IsInstance is set.
	Factory Factory

	// Order is the tie-break priority: among components whose dependencies
	// are all satisfied, lower Order is built first.
	Order int

	// Origin names the auto-configuration unit that produced this
	// descriptor, empty for direct registrations. Diagnostics only.
	Origin string

	// Replaceable permits a later registration of the same identity to
	// supersede this one instead of failing.
	Replaceable bool

	// IsInstance marks a pre-built component registered directly; Instance
	// holds the value and the dependency graph is bypassed.
	IsInstance bool
	Instance   any

	// sequence is the insertion position assigned by the registry, used as
	// the final tie-break so resolution order is reproducible.
	sequence int
}

// Sequence returns the registration position assigned by the registry.
func (d *Descriptor) Sequence() int {
	return d.sequence
}

// Validate checks that the descriptor is well formed.
func (d *Descriptor) Validate() error {
	if d == nil {
		return ErrNilDescriptor
	}
	if d.Identity.Zero() {
		return ErrIdentityNil
	}
	switch d.Scope {
	case Singleton, Prototype:
	default:
		return ScopeError{Value: d.Scope}
	}
	if !d.IsInstance && d.Factory == nil {
		return fmt.Errorf("%s: %w", d.Identity, ErrFactoryNil)
	}
	for _, dep := range d.Dependencies {
		if dep.Zero() {
			return fmt.Errorf("%s: dependency identity cannot be empty", d.Identity)
		}
	}
	return nil
}

// Registry is the catalog of component descriptors, keyed by identity and
// insertion-ordered for deterministic tie-breaking. It is mutated only
// during bootstrap and closed once the auto-configuration fixed point is
// reached; Admit is the single escape hatch for the post-bootstrap dynamic
// registration path.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[Identity]*Descriptor
	order       []Identity
	closed      bool
	nextSeq     int
}

func New() *Registry {
	return &Registry{
		descriptors: make(map[Identity]*Descriptor),
	}
}

// Register inserts a descriptor. It fails with AlreadyRegisteredError if
// the identity exists and the previous registration is not replaceable,
// and with ErrRegistryClosed once the registry has been closed.
func (r *Registry) Register(d *Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}
	return r.insert(d)
}

// Admit inserts a descriptor into a closed registry. Callers must hold
// exclusive access over the registry/container pair; this exists solely for
// dynamic registration after bootstrap.
func (r *Registry) Admit(d *Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insert(d)
}

func (r *Registry) insert(d *Descriptor) error {
	if existing, ok := r.descriptors[d.Identity]; ok {
		if !existing.Replaceable {
			return AlreadyRegisteredError{Identity: d.Identity, Origin: existing.Origin}
		}
		// Supersede in place: the slot keeps its position in the insertion
		// order so tie-breaking stays stable across replacement.
		d.sequence = existing.sequence
		r.descriptors[d.Identity] = d
		return nil
	}

	d.sequence = r.nextSeq
	r.nextSeq++
	r.descriptors[d.Identity] = d
	r.order = append(r.order, d.Identity)
	return nil
}

// Get returns the descriptor for an identity.
func (r *Registry) Get(id Identity) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.descriptors[id]
	return d, ok
}

// Contains reports whether an identity is registered.
func (r *Registry) Contains(id Identity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.descriptors[id]
	return ok
}

// Identities returns all registered identities in insertion order.
func (r *Registry) Identities() []Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Identity, len(r.order))
	copy(out, r.order)
	return out
}

// Descriptors returns all descriptors in insertion order.
func (r *Registry) Descriptors() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.descriptors[id])
	}
	return out
}

// Pending returns, in insertion order, the descriptors whose identities the
// supplied predicate does not yet account for (typically: not present in
// the container's instance store).
func (r *Registry) Pending(instantiated func(Identity) bool) []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Descriptor, 0, len(r.order))
	for _, id := range r.order {
		if !instantiated(id) {
			out = append(out, r.descriptors[id])
		}
	}
	return out
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Close marks the registry read-only. Registration after Close fails with
// ErrRegistryClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
}

// Closed reports whether the registry has been closed.
func (r *Registry) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.closed
}

package cog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cogfab/cog/internal/container"
	"github.com/cogfab/cog/internal/graph"
	"github.com/cogfab/cog/internal/registry"
)

// Typed errors surfaced from the internal packages. Each carries the
// identities involved; match the category with errors.As.
type (
	// AlreadyRegisteredError indicates a second registration for an
	// identity whose existing descriptor is not replaceable.
	AlreadyRegisteredError = registry.AlreadyRegisteredError

	// ComponentNotFoundError indicates a declared dependency with no
	// registration behind it.
	ComponentNotFoundError = registry.ComponentNotFoundError

	// ComponentInitError wraps a component factory failure.
	ComponentInitError = registry.ComponentInitError

	// CircularDependencyError names the full dependency cycle that makes
	// a registration set unresolvable.
	CircularDependencyError = graph.CircularDependencyError
)

// Sentinel errors, matched with errors.Is.
var (
	// ErrComponentNotFound is returned by post-bootstrap lookups for an
	// identity the container does not serve. Recoverable: callers may
	// probe for optional components.
	ErrComponentNotFound = container.ErrNotFound

	// ErrContextBootstrapped rejects registration on a context that has
	// already completed Bootstrap; use RegisterDynamic instead.
	ErrContextBootstrapped = errors.New("application context already bootstrapped")

	// ErrContextNotBootstrapped rejects component lookups before
	// Bootstrap has completed.
	ErrContextNotBootstrapped = errors.New("application context not bootstrapped")
)

var (
	_ error = ConvergenceError{}
	_ error = UnitError{}
	_ error = ModuleError{}
)

// ConvergenceError indicates the auto-configuration loop exhausted its
// pass bound with units still making progress. Each unit applies at most
// once, so this points at a unit set larger than the pass budget admits.
type ConvergenceError struct {
	Passes    int
	Remaining []string
}

func (e ConvergenceError) Error() string {
	if len(e.Remaining) == 0 {
		return fmt.Sprintf("auto-configuration did not converge after %d passes", e.Passes)
	}
	return fmt.Sprintf("auto-configuration did not converge after %d passes, pending units: %s",
		e.Passes, strings.Join(e.Remaining, ", "))
}

// UnitError wraps a failure inside an auto-configuration unit's Configure
// step. Fatal to bootstrap.
type UnitError struct {
	Unit  string
	Cause error
}

func (e UnitError) Error() string {
	return fmt.Sprintf("auto-configuration unit %q: %v", e.Unit, e.Cause)
}

func (e UnitError) Unwrap() error {
	return e.Cause
}

// ModuleError wraps a registration failure inside a named module so the
// failing module chain reads off the error message.
type ModuleError struct {
	Module string
	Cause  error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Cause)
}

func (e ModuleError) Unwrap() error {
	return e.Cause
}

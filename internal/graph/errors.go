package graph

import (
	"strings"

	"github.com/cogfab/cog/internal/registry"
)

// CircularDependencyError reports a dependency cycle. Path lists the
// identities in dependency order; the last element depends on the first.
// The cycle is fatal to bootstrap and is never retried.
type CircularDependencyError struct {
	Path []registry.Identity
}

func (e CircularDependencyError) Error() string {
	if len(e.Path) == 0 {
		return "circular dependency detected"
	}

	var b strings.Builder
	b.WriteString("circular dependency detected: ")
	for _, id := range e.Path {
		b.WriteString(id.String())
		b.WriteString(" -> ")
	}
	b.WriteString(e.Path[0].String())
	return b.String()
}

// Includes reports whether the cycle path contains the given identity.
// Cycle paths are rotation-dependent; tests and diagnostics should match
// membership, not position.
func (e CircularDependencyError) Includes(id registry.Identity) bool {
	for _, p := range e.Path {
		if p == id {
			return true
		}
	}
	return false
}

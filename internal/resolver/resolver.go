// Package resolver drives the single instantiation pass that turns a
// closed registry into a populated container.
package resolver

import (
	"log/slog"

	"github.com/cogfab/cog/internal/container"
	"github.com/cogfab/cog/internal/graph"
	"github.com/cogfab/cog/internal/registry"
)

// Resolver converts a registry into a safe construction order and builds
// every pending component into the container. Bootstrap is all-or-nothing:
// the first failure aborts the pass and no partial graph is handed to the
// application.
type Resolver struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// Resolve validates dependency completeness, orders the full descriptor
// set topologically, and walks the order once. Singletons are built by
// invoking their factories sequentially - never concurrently, so build
// order stays deterministic and failures attribute cleanly. Prototype
// descriptors are retained for on-demand construction. Identities already
// present in the container (pre-built instances, earlier dynamic
// registrations) are skipped.
func (r *Resolver) Resolve(reg *registry.Registry, c *container.Container) error {
	descs := reg.Descriptors()

	// Every declared dependency must be described before ordering begins;
	// failing here beats failing halfway through an instantiation pass.
	for _, d := range descs {
		for _, dep := range d.Dependencies {
			if !reg.Contains(dep) && !c.Has(dep) {
				return registry.ComponentNotFoundError{Identity: d.Identity, Missing: dep}
			}
		}
	}

	g, err := graph.Build(descs)
	if err != nil {
		return err
	}
	if err := g.DetectCycles(); err != nil {
		return err
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		return err
	}

	built := 0
	for _, d := range order {
		if c.Has(d.Identity) {
			continue
		}

		switch {
		case d.IsInstance:
			c.StoreSingleton(d.Identity, d.Instance)

		case d.Scope == registry.Prototype:
			c.StorePrototype(d)
			r.logger.Debug("retained prototype factory", "component", d.Identity.String())

		default:
			if err := r.buildSingleton(d, c); err != nil {
				return err
			}
			built++
		}
	}

	r.logger.Info("instantiation pass complete",
		"components", len(order), "singletons_built", built)
	return nil
}

func (r *Resolver) buildSingleton(d *registry.Descriptor, c *container.Container) error {
	// Topological order guarantees singleton dependencies are already
	// resolved; a miss here means the registry changed under us.
	for _, dep := range d.Dependencies {
		if !c.Has(dep) {
			return registry.ComponentNotFoundError{Identity: d.Identity, Missing: dep}
		}
	}

	instance, err := d.Factory(c.Deps())
	if err != nil {
		return registry.ComponentInitError{Identity: d.Identity, Cause: err}
	}

	c.StoreSingleton(d.Identity, instance)
	r.logger.Debug("built singleton",
		"component", d.Identity.String(), "origin", d.Origin)
	return nil
}

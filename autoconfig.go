package cog

import (
	"log/slog"
	"sort"

	"github.com/cogfab/cog/conf"
	"github.com/cogfab/cog/internal/registry"
)

// RegistryView is the read-only registry surface conditions evaluate
// against.
type RegistryView interface {
	Contains(id Identity) bool
	Identities() []Identity
}

// ConditionContext is what a unit condition sees: the merged configuration
// tree and the registry as of this evaluation. Conditions must be pure
// functions of these two inputs; the loop may evaluate them any number of
// times.
type ConditionContext struct {
	Config   *conf.Tree
	Registry RegistryView
}

// Condition gates an auto-configuration unit.
type Condition func(ConditionContext) bool

// Unit is one auto-configuration step: an optional condition and a
// Configure function contributing registrations. Each unit applies at most
// once per bootstrap, the first time its condition holds.
type Unit struct {
	Name  string
	Order int

	// Condition gates Configure; nil means always eligible.
	Condition Condition

	// Configure contributes registrations. Registering an identity that a
	// direct registration already claims fails the bootstrap unless the
	// existing descriptor is replaceable.
	Configure func(Collection) error
}

// OnProperty holds when the config path coerces to the wanted string.
func OnProperty(path, want string) Condition {
	return func(cc ConditionContext) bool {
		return conf.GetOr(cc.Config, path, "") == want
	}
}

// OnPropertyPresent holds when the config path resolves at all.
func OnPropertyPresent(path string) Condition {
	return func(cc ConditionContext) bool {
		return cc.Config.Has(path)
	}
}

// OnComponent holds when T is already registered.
func OnComponent[T any]() Condition {
	id := TypeOf[T]()
	return func(cc ConditionContext) bool {
		return cc.Registry.Contains(id)
	}
}

// OnMissingComponent holds when T is not registered, the usual gate for
// contributing a default.
func OnMissingComponent[T any]() Condition {
	id := TypeOf[T]()
	return func(cc ConditionContext) bool {
		return !cc.Registry.Contains(id)
	}
}

// AllOf holds when every condition holds.
func AllOf(conds ...Condition) Condition {
	return func(cc ConditionContext) bool {
		for _, c := range conds {
			if !c(cc) {
				return false
			}
		}
		return true
	}
}

// AnyOf holds when at least one condition holds.
func AnyOf(conds ...Condition) Condition {
	return func(cc ConditionContext) bool {
		for _, c := range conds {
			if c(cc) {
				return true
			}
		}
		return false
	}
}

// Not inverts a condition.
func Not(c Condition) Condition {
	return func(cc ConditionContext) bool {
		return !c(cc)
	}
}

// originCollection stamps registrations with the contributing unit's name
// and counts them, for diagnostics and progress tracking.
type originCollection struct {
	reg    *registry.Registry
	origin string
	added  int
}

func (c *originCollection) Register(d *Descriptor) error {
	if d != nil {
		d.Origin = c.origin
	}
	if err := c.reg.Register(d); err != nil {
		return err
	}
	c.added++
	return nil
}

func (c *originCollection) Contains(id Identity) bool {
	return c.reg.Contains(id)
}

// runAutoConfiguration drives the fixed-point loop. Units are ordered by
// Order (ties keep submission order) and re-visited each pass; a unit
// whose condition holds applies exactly once. The loop ends when a pass
// applies nothing or every unit has applied. Conditions only ever observe
// a growing registry, so with the pass bound of one pass per unit a
// conforming unit set always converges; the bound exists to turn a
// non-conforming set into an error instead of an endless loop.
func runAutoConfiguration(units []Unit, reg *registry.Registry, tree *conf.Tree, logger *slog.Logger) error {
	if len(units) == 0 {
		return nil
	}

	ordered := make([]Unit, len(units))
	copy(ordered, units)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	cc := ConditionContext{Config: tree, Registry: reg}
	applied := make([]bool, len(ordered))
	appliedTotal := 0
	maxPasses := len(ordered)

	for pass := 1; ; pass++ {
		if pass > maxPasses {
			var remaining []string
			for i, u := range ordered {
				if !applied[i] {
					remaining = append(remaining, u.Name)
				}
			}
			return ConvergenceError{Passes: maxPasses, Remaining: remaining}
		}

		progress := false
		for i, u := range ordered {
			if applied[i] {
				continue
			}
			if u.Condition != nil && !u.Condition(cc) {
				continue
			}

			col := &originCollection{reg: reg, origin: u.Name}
			if u.Configure != nil {
				if err := u.Configure(col); err != nil {
					return UnitError{Unit: u.Name, Cause: err}
				}
			}

			applied[i] = true
			appliedTotal++
			progress = true
			logger.Debug("auto-configuration unit applied",
				"unit", u.Name, "pass", pass, "components", col.added)
		}

		if !progress || appliedTotal == len(ordered) {
			logger.Info("auto-configuration converged",
				"passes", pass, "applied", appliedTotal, "units", len(ordered))
			return nil
		}
	}
}

package cog

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/cogfab/cog/conf"
	"github.com/cogfab/cog/internal/container"
	"github.com/cogfab/cog/internal/graph"
	"github.com/cogfab/cog/internal/registry"
	"github.com/cogfab/cog/internal/resolver"
)

// ApplicationContext is the composition root: it collects component
// registrations and auto-configuration units, then Bootstrap resolves the
// whole set in one all-or-nothing pass. Before Bootstrap the context only
// accepts registrations; after it, only lookups and the explicit dynamic
// registration path.
//
// Lookups after a successful Bootstrap are safe for unlimited concurrency.
type ApplicationContext struct {
	id     string
	logger *slog.Logger
	config *conf.Manager

	mu        sync.Mutex // serializes Bootstrap and RegisterDynamic
	registry  *registry.Registry
	container *container.Container
	resolver  *resolver.Resolver
	units     []Unit

	bootstrapped atomic.Bool
}

// ContextOption configures an ApplicationContext.
type ContextOption func(*ApplicationContext)

// WithConfig attaches the configuration manager whose merged tree feeds
// unit conditions and component factories.
func WithConfig(m *conf.Manager) ContextOption {
	return func(ctx *ApplicationContext) { ctx.config = m }
}

// WithLogger sets the logger; defaults to slog.Default().
func WithLogger(logger *slog.Logger) ContextOption {
	return func(ctx *ApplicationContext) { ctx.logger = logger }
}

// WithUnits adds auto-configuration units to run during Bootstrap.
func WithUnits(units ...Unit) ContextOption {
	return func(ctx *ApplicationContext) { ctx.units = append(ctx.units, units...) }
}

// New creates an empty, un-bootstrapped context.
func New(opts ...ContextOption) *ApplicationContext {
	ctx := &ApplicationContext{
		id:        uuid.NewString(),
		logger:    slog.Default(),
		registry:  registry.New(),
		container: container.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ctx)
		}
	}
	ctx.resolver = resolver.New(ctx.logger)
	return ctx
}

// ID returns the unique identifier of this context instance.
func (ctx *ApplicationContext) ID() string {
	return ctx.id
}

// ConfigManager returns the attached configuration manager, nil when none
// was provided.
func (ctx *ApplicationContext) ConfigManager() *conf.Manager {
	return ctx.config
}

// Bootstrapped reports whether Bootstrap has completed successfully.
func (ctx *ApplicationContext) Bootstrapped() bool {
	return ctx.bootstrapped.Load()
}

// Register adds a component descriptor. Registration order is significant:
// it is the final tie-break for construction order. Fails with
// ErrContextBootstrapped once Bootstrap has run.
func (ctx *ApplicationContext) Register(d *Descriptor) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.bootstrapped.Load() {
		return ErrContextBootstrapped
	}
	return ctx.registry.Register(d)
}

// Apply runs module options against the context's registry.
func (ctx *ApplicationContext) Apply(opts ...ModuleOption) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.bootstrapped.Load() {
		return ErrContextBootstrapped
	}

	col := registryCollection{reg: ctx.registry}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(col); err != nil {
			return err
		}
	}
	return nil
}

// AddUnits queues auto-configuration units; a no-op alternative to the
// WithUnits option for callers assembling the context incrementally.
func (ctx *ApplicationContext) AddUnits(units ...Unit) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.bootstrapped.Load() {
		return ErrContextBootstrapped
	}
	ctx.units = append(ctx.units, units...)
	return nil
}

// Bootstrap runs auto-configuration to its fixed point, closes the
// registry, and instantiates every component in dependency order. It
// either completes fully or fails without handing out any instance: a
// failed context never reports Bootstrapped and rejects lookups.
func (ctx *ApplicationContext) Bootstrap() error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.bootstrapped.Load() {
		return ErrContextBootstrapped
	}

	if err := runAutoConfiguration(ctx.units, ctx.registry, ctx.tree(), ctx.logger); err != nil {
		return err
	}

	ctx.registry.Close()

	if err := ctx.resolver.Resolve(ctx.registry, ctx.container); err != nil {
		return err
	}

	ctx.bootstrapped.Store(true)
	ctx.logger.Info("application context bootstrapped",
		"context", ctx.id, "components", ctx.registry.Len())
	return nil
}

// RunAutoConfiguration queues the given units and runs Bootstrap. It is
// the single-call bootstrap entry for callers that assemble their unit
// set up front; calling it with no units just bootstraps.
func (ctx *ApplicationContext) RunAutoConfiguration(units ...Unit) error {
	if err := ctx.AddUnits(units...); err != nil {
		return err
	}
	return ctx.Bootstrap()
}

// RegisterDynamic registers and instantiates a component after Bootstrap.
// Its declared dependencies must already be resolvable; the instance is
// built immediately so later lookups behave exactly like bootstrap-time
// registrations. A factory failure leaves the context unchanged.
func (ctx *ApplicationContext) RegisterDynamic(d *Descriptor) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if !ctx.bootstrapped.Load() {
		return ErrContextNotBootstrapped
	}
	if err := d.Validate(); err != nil {
		return err
	}
	if existing, ok := ctx.registry.Get(d.Identity); ok && !existing.Replaceable {
		return AlreadyRegisteredError{Identity: d.Identity, Origin: existing.Origin}
	}
	for _, dep := range d.Dependencies {
		if !ctx.container.Has(dep) {
			return ComponentNotFoundError{Identity: d.Identity, Missing: dep}
		}
	}

	switch {
	case d.IsInstance:
		if err := ctx.registry.Admit(d); err != nil {
			return err
		}
		ctx.container.StoreSingleton(d.Identity, d.Instance)

	case d.Scope == ScopePrototype:
		if err := ctx.registry.Admit(d); err != nil {
			return err
		}
		ctx.container.StorePrototype(d)

	default:
		// Build before admitting so a factory failure leaves neither a
		// registry entry nor a container instance behind.
		instance, err := d.Factory(ctx.container.Deps())
		if err != nil {
			return ComponentInitError{Identity: d.Identity, Cause: err}
		}
		if err := ctx.registry.Admit(d); err != nil {
			return err
		}
		ctx.container.StoreSingleton(d.Identity, instance)
	}

	ctx.logger.Debug("component registered dynamically",
		"component", d.Identity.String(), "scope", d.Scope.String())
	return nil
}

// Has reports whether the identity is served by the bootstrapped context.
func (ctx *ApplicationContext) Has(id Identity) bool {
	if !ctx.bootstrapped.Load() {
		return false
	}
	return ctx.container.Has(id)
}

// Contains reports whether the identity has a registration, resolved or
// not. Unlike Has it answers before Bootstrap.
func (ctx *ApplicationContext) Contains(id Identity) bool {
	return ctx.registry.Contains(id)
}

// Identities returns every registered identity in registration order.
func (ctx *ApplicationContext) Identities() []Identity {
	return ctx.registry.Identities()
}

// DumpGraph writes the current dependency graph in Graphviz DOT format,
// for diagnosing a surprising construction order.
func (ctx *ApplicationContext) DumpGraph(w io.Writer) error {
	g, err := graph.Build(ctx.registry.Descriptors())
	if err != nil {
		return err
	}
	return g.WriteDOT(w)
}

// instance serves a lookup from the container once bootstrapped.
func (ctx *ApplicationContext) instance(id Identity) (any, error) {
	if !ctx.bootstrapped.Load() {
		return nil, ErrContextNotBootstrapped
	}
	return ctx.container.Get(id)
}

// singleton serves a shared-instance-only lookup.
func (ctx *ApplicationContext) singleton(id Identity) (any, error) {
	if !ctx.bootstrapped.Load() {
		return nil, ErrContextNotBootstrapped
	}
	v, ok := ctx.container.Singleton(id)
	if !ok {
		return nil, ErrComponentNotFound
	}
	return v, nil
}

func (ctx *ApplicationContext) tree() *conf.Tree {
	if ctx.config == nil {
		return conf.Empty()
	}
	return ctx.config.Tree()
}

// Package cog is a dependency-injection runtime with layered configuration
// and conditional auto-assembly.
//
// Components are registered against an ApplicationContext as descriptors:
// an identity (type plus optional name), a scope, an explicit dependency
// list, and a factory. Bootstrap runs auto-configuration units to a fixed
// point, orders the full component set topologically, and instantiates it
// in a single all-or-nothing pass. After Bootstrap the context serves
// concurrent lookups: singletons by shared reference, prototypes built
// fresh per call.
//
//	ctx := cog.New(cog.WithConfig(mgr))
//
//	err := ctx.Apply(cog.NewModule("app",
//		cog.Provide(
//			cog.Singleton(func(deps cog.Deps) (*Store, error) {
//				return OpenStore()
//			}),
//			cog.Singleton(func(deps cog.Deps) (*Service, error) {
//				store, err := cog.Use[*Store](deps)
//				if err != nil {
//					return nil, err
//				}
//				return NewService(store), nil
//			}, cog.DependsOn(cog.TypeOf[*Store]())),
//		),
//	))
//
//	if err := ctx.Bootstrap(); err != nil { ... }
//	svc, err := cog.Get[*Service](ctx)
//
// Dependencies are always declared explicitly; the runtime performs no
// struct-tag scanning or parameter discovery. Construction order is
// deterministic: dependencies first, then lower Order, then registration
// order.
//
// Auto-configuration units contribute conditional registrations, gated on
// configuration values or on the presence or absence of other components,
// and may mark their defaults replaceable so direct registrations win.
//
// Package conf supplies the layered configuration tree consumed by unit
// conditions and factories.
package cog

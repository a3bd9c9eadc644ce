package cog_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogfab/cog"
	"github.com/cogfab/cog/conf"
)

type cacheComponent struct{ backend string }
type metricsComponent struct{ cache *cacheComponent }

func configManager(t *testing.T, values map[string]any) *conf.Manager {
	t.Helper()
	mgr, err := conf.New(
		conf.WithPrefix("ACT"),
		conf.WithoutEnv(),
		conf.WithDefaults(values),
	)
	require.NoError(t, err)
	return mgr
}

func TestAutoConfigurationOnProperty(t *testing.T) {
	t.Parallel()

	unit := cog.Unit{
		Name:      "cache",
		Condition: cog.OnProperty("cache.backend", "memory"),
		Configure: func(c cog.Collection) error {
			return c.Register(cog.Singleton(func(cog.Deps) (*cacheComponent, error) {
				return &cacheComponent{backend: "memory"}, nil
			}))
		},
	}

	t.Run("condition holds", func(t *testing.T) {
		t.Parallel()
		mgr := configManager(t, map[string]any{
			"cache": map[string]any{"backend": "memory"},
		})

		ctx := cog.New(cog.WithConfig(mgr), cog.WithUnits(unit))
		require.NoError(t, ctx.Bootstrap())

		cache, err := cog.Get[*cacheComponent](ctx)
		require.NoError(t, err)
		assert.Equal(t, "memory", cache.backend)
	})

	t.Run("condition fails", func(t *testing.T) {
		t.Parallel()
		mgr := configManager(t, map[string]any{
			"cache": map[string]any{"backend": "redis"},
		})

		ctx := cog.New(cog.WithConfig(mgr), cog.WithUnits(unit))
		require.NoError(t, ctx.Bootstrap())

		_, err := cog.Get[*cacheComponent](ctx)
		assert.ErrorIs(t, err, cog.ErrComponentNotFound,
			"a unit whose condition never held contributes nothing")
	})
}

func TestAutoConfigurationFixedPoint(t *testing.T) {
	t.Parallel()

	// The metrics unit sorts first but depends on the cache unit having
	// registered its component, so it must wait for a later pass. The
	// never unit stays unapplied without blocking termination.
	neverRan := false
	units := []cog.Unit{
		{
			Name:      "never",
			Condition: func(cog.ConditionContext) bool { return false },
			Configure: func(cog.Collection) error {
				neverRan = true
				return nil
			},
		},
		{
			Name:      "metrics",
			Order:     -10,
			Condition: cog.OnComponent[*cacheComponent](),
			Configure: func(c cog.Collection) error {
				return c.Register(cog.Singleton(func(deps cog.Deps) (*metricsComponent, error) {
					cache, err := cog.Use[*cacheComponent](deps)
					if err != nil {
						return nil, err
					}
					return &metricsComponent{cache: cache}, nil
				}, cog.DependsOn(cog.TypeOf[*cacheComponent]())))
			},
		},
		{
			Name:  "cache",
			Order: 10,
			Configure: func(c cog.Collection) error {
				return c.Register(cog.Singleton(func(cog.Deps) (*cacheComponent, error) {
					return &cacheComponent{backend: "memory"}, nil
				}))
			},
		},
	}

	ctx := cog.New(cog.WithUnits(units...))
	require.NoError(t, ctx.Bootstrap())

	metrics, err := cog.Get[*metricsComponent](ctx)
	require.NoError(t, err)
	assert.NotNil(t, metrics.cache)
	assert.False(t, neverRan, "a unit whose condition never holds never applies")
}

func TestAutoConfigurationAppliesEachUnitOnce(t *testing.T) {
	t.Parallel()

	type marker struct{ hits int }

	applied := 0
	units := []cog.Unit{
		{
			Name: "once",
			Configure: func(c cog.Collection) error {
				applied++
				return c.Register(cog.Singleton(func(cog.Deps) (*marker, error) {
					return &marker{hits: applied}, nil
				}))
			},
		},
		{
			// A second unit forces a multi-unit pass budget; it waits for
			// the first unit's component, so at least two passes run.
			Name:      "late",
			Condition: cog.OnComponent[*marker](),
			Configure: func(cog.Collection) error { return nil },
		},
	}

	ctx := cog.New(cog.WithUnits(units...))
	require.NoError(t, ctx.Bootstrap())
	assert.Equal(t, 1, applied)
}

func TestAutoConfigurationDefaultOverridden(t *testing.T) {
	t.Parallel()

	unit := cog.Unit{
		Name:      "default-cache",
		Condition: cog.OnMissingComponent[*cacheComponent](),
		Configure: func(c cog.Collection) error {
			return c.Register(cog.Singleton(func(cog.Deps) (*cacheComponent, error) {
				return &cacheComponent{backend: "default"}, nil
			}, cog.AsReplaceable()))
		},
	}

	t.Run("direct registration wins via condition", func(t *testing.T) {
		t.Parallel()
		ctx := cog.New(cog.WithUnits(unit))
		require.NoError(t, ctx.Register(cog.Singleton(func(cog.Deps) (*cacheComponent, error) {
			return &cacheComponent{backend: "custom"}, nil
		})))
		require.NoError(t, ctx.Bootstrap())

		cache, err := cog.Get[*cacheComponent](ctx)
		require.NoError(t, err)
		assert.Equal(t, "custom", cache.backend)
	})

	t.Run("default applies when nothing is registered", func(t *testing.T) {
		t.Parallel()
		ctx := cog.New(cog.WithUnits(unit))
		require.NoError(t, ctx.Bootstrap())

		cache, err := cog.Get[*cacheComponent](ctx)
		require.NoError(t, err)
		assert.Equal(t, "default", cache.backend)
	})
}

func TestAutoConfigurationDuplicateFailsBootstrap(t *testing.T) {
	t.Parallel()

	unit := cog.Unit{
		Name: "cache",
		Configure: func(c cog.Collection) error {
			return c.Register(cog.Singleton(func(cog.Deps) (*cacheComponent, error) {
				return &cacheComponent{}, nil
			}))
		},
	}

	ctx := cog.New(cog.WithUnits(unit))
	require.NoError(t, ctx.Register(cog.Singleton(func(cog.Deps) (*cacheComponent, error) {
		return &cacheComponent{}, nil
	})))

	err := ctx.Bootstrap()
	require.Error(t, err)

	var unitErr cog.UnitError
	require.ErrorAs(t, err, &unitErr)
	assert.Equal(t, "cache", unitErr.Unit)
	var dup cog.AlreadyRegisteredError
	assert.ErrorAs(t, err, &dup)
}

func TestAutoConfigurationUnitError(t *testing.T) {
	t.Parallel()

	boom := errors.New("bad wiring")
	unit := cog.Unit{
		Name:      "broken",
		Configure: func(cog.Collection) error { return boom },
	}

	ctx := cog.New(cog.WithUnits(unit))
	err := ctx.Bootstrap()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, ctx.Bootstrapped())
}

func TestConditionCombinators(t *testing.T) {
	t.Parallel()

	mgr := configManager(t, map[string]any{
		"cache": map[string]any{"backend": "memory"},
		"flags": map[string]any{"metrics": true},
	})

	yes := cog.OnPropertyPresent("cache.backend")
	no := cog.OnPropertyPresent("cache.absent")

	cc := cog.ConditionContext{Config: mgr.Tree(), Registry: cog.New()}

	assert.True(t, yes(cc))
	assert.False(t, no(cc))
	assert.True(t, cog.AllOf(yes, yes)(cc))
	assert.False(t, cog.AllOf(yes, no)(cc))
	assert.True(t, cog.AnyOf(no, yes)(cc))
	assert.False(t, cog.AnyOf(no, no)(cc))
	assert.True(t, cog.Not(no)(cc))
	assert.False(t, cog.Not(yes)(cc))
	assert.True(t, cog.OnProperty("cache.backend", "memory")(cc))
	assert.False(t, cog.OnProperty("cache.backend", "redis")(cc))
	assert.True(t, cog.OnProperty("flags.metrics", "true")(cc),
		"non-string scalars compare through string coercion")
}

func TestAddUnitsAfterBootstrapFails(t *testing.T) {
	t.Parallel()

	ctx := cog.New()
	require.NoError(t, ctx.Bootstrap())
	assert.ErrorIs(t, ctx.AddUnits(cog.Unit{Name: "late"}), cog.ErrContextBootstrapped)
}

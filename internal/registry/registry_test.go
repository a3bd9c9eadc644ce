package registry

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceA struct{}
type serviceB struct{}

func identityOf(v any) Identity {
	return Identity{Type: reflect.TypeOf(v)}
}

func descriptorFor(v any) *Descriptor {
	return &Descriptor{
		Identity: identityOf(v),
		Scope:    Singleton,
		Factory:  func(Deps) (any, error) { return v, nil },
	}
}

func TestRegisterAndGet(t *testing.T) {
	t.Parallel()

	r := New()
	d := descriptorFor(&serviceA{})
	require.NoError(t, r.Register(d))

	got, ok := r.Get(d.Identity)
	require.True(t, ok)
	assert.Same(t, d, got)
	assert.True(t, r.Contains(d.Identity))
	assert.Equal(t, 1, r.Len())
}

func TestRegisterDuplicateFails(t *testing.T) {
	t.Parallel()

	r := New()
	require.NoError(t, r.Register(descriptorFor(&serviceA{})))

	err := r.Register(descriptorFor(&serviceA{}))
	require.Error(t, err)

	var dup AlreadyRegisteredError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, identityOf(&serviceA{}), dup.Identity)
}

func TestRegisterSameTypeDifferentNames(t *testing.T) {
	t.Parallel()

	r := New()

	primary := descriptorFor(&serviceA{})
	primary.Identity.Name = "primary"
	replica := descriptorFor(&serviceA{})
	replica.Identity.Name = "replica"

	require.NoError(t, r.Register(primary))
	require.NoError(t, r.Register(replica))
	assert.Equal(t, 2, r.Len())
}

func TestReplaceableKeepsSequence(t *testing.T) {
	t.Parallel()

	r := New()

	def := descriptorFor(&serviceA{})
	def.Replaceable = true
	require.NoError(t, r.Register(def))
	require.NoError(t, r.Register(descriptorFor(&serviceB{})))

	override := descriptorFor(&serviceA{})
	require.NoError(t, r.Register(override))

	got, ok := r.Get(identityOf(&serviceA{}))
	require.True(t, ok)
	assert.Same(t, override, got)
	assert.Equal(t, def.Sequence(), got.Sequence(),
		"replacement keeps the original slot in registration order")
	assert.Equal(t, 2, r.Len())

	// The replacement itself was not marked replaceable.
	err := r.Register(descriptorFor(&serviceA{}))
	var dup AlreadyRegisteredError
	require.ErrorAs(t, err, &dup)
}

func TestInsertionOrderPreserved(t *testing.T) {
	t.Parallel()

	r := New()
	b := descriptorFor(&serviceB{})
	a := descriptorFor(&serviceA{})
	require.NoError(t, r.Register(b))
	require.NoError(t, r.Register(a))

	ids := r.Identities()
	require.Len(t, ids, 2)
	assert.Equal(t, b.Identity, ids[0])
	assert.Equal(t, a.Identity, ids[1])

	descs := r.Descriptors()
	assert.Less(t, descs[0].Sequence(), descs[1].Sequence())
}

func TestClosedRegistryRejectsRegisterButAdmits(t *testing.T) {
	t.Parallel()

	r := New()
	r.Close()
	assert.True(t, r.Closed())

	err := r.Register(descriptorFor(&serviceA{}))
	assert.ErrorIs(t, err, ErrRegistryClosed)

	require.NoError(t, r.Admit(descriptorFor(&serviceA{})))
	assert.True(t, r.Contains(identityOf(&serviceA{})))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		desc *Descriptor
		want error
	}{
		{"nil descriptor", nil, ErrNilDescriptor},
		{"empty identity", &Descriptor{}, ErrIdentityNil},
		{
			"missing factory",
			&Descriptor{Identity: identityOf(&serviceA{})},
			ErrFactoryNil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, tt.desc.Validate(), tt.want)
		})
	}

	t.Run("invalid scope", func(t *testing.T) {
		t.Parallel()
		d := descriptorFor(&serviceA{})
		d.Scope = Scope(42)
		var serr ScopeError
		assert.ErrorAs(t, d.Validate(), &serr)
	})

	t.Run("instance needs no factory", func(t *testing.T) {
		t.Parallel()
		d := &Descriptor{
			Identity:   identityOf(&serviceA{}),
			Scope:      Singleton,
			IsInstance: true,
			Instance:   &serviceA{},
		}
		assert.NoError(t, d.Validate())
	})
}

func TestPending(t *testing.T) {
	t.Parallel()

	r := New()
	a := descriptorFor(&serviceA{})
	b := descriptorFor(&serviceB{})
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))

	pending := r.Pending(func(id Identity) bool { return id == a.Identity })
	require.Len(t, pending, 1)
	assert.Same(t, b, pending[0])
}

package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	store, err := NewStore()
	require.NoError(t, err)
	return store
}

func TestNewStoreEmptyByDefault(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetCurrentContext()
	assert.ErrorIs(t, err, ErrNoCurrentContext)
}

func TestSetContextPersistsAndReloads(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	store, err := NewStore()
	require.NoError(t, err)

	require.NoError(t, store.SetContext("default", &Context{ServerURL: "http://fshd:9090", Token: "tok"}))

	reloaded, err := NewStore()
	require.NoError(t, err)
	ctx, err := reloaded.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, "http://fshd:9090", ctx.ServerURL)
	assert.Equal(t, "tok", ctx.Token)
}

func TestClearCurrentContextKeepsServerURL(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetContext("default", &Context{ServerURL: "http://fshd:9090", Token: "tok"}))
	require.NoError(t, store.ClearCurrentContext())

	ctx, err := store.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, "http://fshd:9090", ctx.ServerURL)
	assert.Empty(t, ctx.Token)
}

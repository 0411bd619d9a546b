package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/mmk-routeguard/internal/domain/auth"
	"github.com/target/mmk-routeguard/internal/ports"
)

func TestMemoryKVStore_FailSetLeavesValues(t *testing.T) {
	store := NewMemoryKVStore(map[string]string{domainauth.KeyToken: "old"})
	store.FailSet = ErrStorage

	err := store.SetMany(context.Background(), map[string]string{domainauth.KeyToken: "new"})
	require.ErrorIs(t, err, ErrStorage)

	v, ok := store.Value(domainauth.KeyToken)
	assert.True(t, ok)
	assert.Equal(t, "old", v)
	assert.Equal(t, 1, store.Sets)
}

func TestMemoryKVStore_GetAndDelete(t *testing.T) {
	store := NewMemoryKVStore(nil)
	store.Put("a", "1")
	ctx := context.Background()

	got, err := store.GetMany(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1"}, got)

	require.NoError(t, store.DeleteMany(ctx, "a"))
	_, ok := store.Value("a")
	assert.False(t, ok)

	store.FailGet = ErrStorage
	_, err = store.GetMany(ctx, "a")
	require.ErrorIs(t, err, ErrStorage)
}

func TestStaticAuthenticator_Defaults(t *testing.T) {
	a := &StaticAuthenticator{}
	grant, err := a.Authenticate(context.Background(), ports.Credentials{Username: "ann@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "static-token", grant.Token)
	assert.Equal(t, domainauth.RoleUser, grant.Role)
	assert.Equal(t, "ann@example.com", a.Last.Username)
}

func TestStaticAuthenticator_Error(t *testing.T) {
	a := &StaticAuthenticator{Err: errors.New("denied")}
	_, err := a.Authenticate(context.Background(), ports.Credentials{})
	require.EqualError(t, err, "denied")
}

func TestStaticStateSource(t *testing.T) {
	src := &StaticStateSource{State: domainauth.Snapshot{Token: "t", IsAuthenticated: true}}
	snap, err := src.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.IsAuthenticated)

	tok, err := StaticTokenSource("abc").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
}

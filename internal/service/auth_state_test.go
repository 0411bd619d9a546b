package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/mmk-routeguard/internal/adapters/filestore"
	redisstore "github.com/target/mmk-routeguard/internal/adapters/redis"
	domainauth "github.com/target/mmk-routeguard/internal/domain/auth"
	apperrors "github.com/target/mmk-routeguard/internal/errors"
	"github.com/target/mmk-routeguard/internal/mocks"
	mockauth "github.com/target/mmk-routeguard/internal/mocks/auth"
	"github.com/target/mmk-routeguard/internal/ports"
	"github.com/target/mmk-routeguard/internal/testutil"
)

func newTestAuthState(t *testing.T, store ports.KeyValueStore) *AuthState {
	t.Helper()
	s, err := NewAuthState(context.Background(), AuthStateOptions{Store: store})
	require.NoError(t, err)
	return s
}

func TestNewAuthState_RequiresStore(t *testing.T) {
	_, err := NewAuthState(context.Background(), AuthStateOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestNewAuthState_EmptyStorage(t *testing.T) {
	s := newTestAuthState(t, mockauth.NewMemoryKVStore(nil))

	snap := s.Read()
	assert.False(t, snap.IsAuthenticated)
	assert.Empty(t, snap.Token)
	assert.Empty(t, snap.Role)
	assert.Nil(t, snap.Profile)
}

func TestNewAuthState_Hydrates(t *testing.T) {
	store := mockauth.NewMemoryKVStore(map[string]string{
		domainauth.KeyToken:   "tok-1",
		domainauth.KeyRole:    "admin",
		domainauth.KeyProfile: `{"id":"7","name":"Ann"}`,
	})
	s := newTestAuthState(t, store)

	snap := s.Read()
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, "tok-1", snap.Token)
	assert.Equal(t, domainauth.RoleAdmin, snap.Role)
	assert.Equal(t, domainauth.Profile{"id": "7", "name": "Ann"}, snap.Profile)
}

func TestNewAuthState_MalformedProfileIsAbsent(t *testing.T) {
	store := mockauth.NewMemoryKVStore(map[string]string{
		domainauth.KeyToken:   "tok-1",
		domainauth.KeyRole:    "user",
		domainauth.KeyProfile: `{not json`,
	})
	s := newTestAuthState(t, store)

	snap := s.Read()
	assert.True(t, snap.IsAuthenticated, "session stays valid when the token is present")
	assert.Equal(t, domainauth.RoleUser, snap.Role)
	assert.Nil(t, snap.Profile)
}

func TestNewAuthState_UnknownRoleIsAbsent(t *testing.T) {
	store := mockauth.NewMemoryKVStore(map[string]string{
		domainauth.KeyToken: "tok-1",
		domainauth.KeyRole:  "root",
	})
	s := newTestAuthState(t, store)

	snap := s.Read()
	assert.True(t, snap.IsAuthenticated)
	assert.False(t, snap.HasRole())
}

func TestNewAuthState_StrayKeysWithoutToken(t *testing.T) {
	store := mockauth.NewMemoryKVStore(map[string]string{
		domainauth.KeyRole:    "admin",
		domainauth.KeyProfile: `{"name":"Ann"}`,
	})
	s := newTestAuthState(t, store)

	assert.Equal(t, domainauth.Snapshot{}, s.Read())
}

func TestNewAuthState_StorageFailurePropagates(t *testing.T) {
	store := mockauth.NewMemoryKVStore(nil)
	store.FailGet = mockauth.ErrStorage

	_, err := NewAuthState(context.Background(), AuthStateOptions{Store: store})
	require.ErrorIs(t, err, mockauth.ErrStorage)
}

func TestAuthState_EstablishSession(t *testing.T) {
	store := mockauth.NewMemoryKVStore(nil)
	s := newTestAuthState(t, store)
	ctx := context.Background()

	profile := domainauth.Profile{"id": "1", "name": "Ann"}
	require.NoError(t, s.EstablishSession(ctx, "tok", domainauth.RoleSuperAdmin, profile))

	snap := s.Read()
	assert.Equal(t, domainauth.Snapshot{
		Token:           "tok",
		Role:            domainauth.RoleSuperAdmin,
		Profile:         profile,
		IsAuthenticated: true,
	}, snap)

	v, ok := store.Value(domainauth.KeyToken)
	require.True(t, ok)
	assert.Equal(t, "tok", v)
	v, ok = store.Value(domainauth.KeyRole)
	require.True(t, ok)
	assert.Equal(t, "super_admin", v)
	v, ok = store.Value(domainauth.KeyProfile)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"1","name":"Ann"}`, v)
}

func TestAuthState_EstablishSession_NilProfile(t *testing.T) {
	store := mockauth.NewMemoryKVStore(nil)
	s := newTestAuthState(t, store)

	require.NoError(t, s.EstablishSession(context.Background(), "tok", domainauth.RoleUser, nil))

	assert.Nil(t, s.Read().Profile)
	v, ok := store.Value(domainauth.KeyProfile)
	require.True(t, ok)
	assert.Equal(t, "null", v)

	reloaded := newTestAuthState(t, store)
	assert.Nil(t, reloaded.Read().Profile)
	assert.True(t, reloaded.Read().IsAuthenticated)
}

func TestAuthState_ReadDoesNotAliasNestedProfile(t *testing.T) {
	store := mockauth.NewMemoryKVStore(nil)
	s := newTestAuthState(t, store)

	profile := domainauth.Profile{"prefs": map[string]any{"theme": "dark"}}
	require.NoError(t, s.EstablishSession(context.Background(), "tok", domainauth.RoleUser, profile))

	profile["prefs"].(map[string]any)["theme"] = "light"
	got := s.Read().Profile
	got["prefs"].(map[string]any)["theme"] = "blue"

	assert.Equal(t, "dark", s.Read().Profile["prefs"].(map[string]any)["theme"])
}

func TestAuthState_EstablishSession_RejectsInvalidArgs(t *testing.T) {
	tests := []struct {
		name  string
		token string
		role  domainauth.Role
		field string
	}{
		{name: "empty token", token: "", role: domainauth.RoleUser, field: "token"},
		{name: "blank token", token: "   ", role: domainauth.RoleUser, field: "token"},
		{name: "unknown role", token: "tok", role: "root", field: "role"},
		{name: "empty role", token: "tok", role: "", field: "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mockauth.NewMemoryKVStore(nil)
			s := newTestAuthState(t, store)

			err := s.EstablishSession(context.Background(), tt.token, tt.role, nil)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.field, apperrors.GetField(err))
			assert.Equal(t, 0, store.Sets, "nothing may be written")
			assert.False(t, s.Read().IsAuthenticated)
		})
	}
}

func TestAuthState_EstablishSession_StorageFailureLeavesState(t *testing.T) {
	store := mockauth.NewMemoryKVStore(nil)
	s := newTestAuthState(t, store)
	ctx := context.Background()
	require.NoError(t, s.EstablishSession(ctx, "old", domainauth.RoleUser, domainauth.Profile{"name": "Ann"}))

	store.FailSet = mockauth.ErrStorage
	err := s.EstablishSession(ctx, "new", domainauth.RoleAdmin, nil)
	require.ErrorIs(t, err, mockauth.ErrStorage)

	snap := s.Read()
	assert.Equal(t, "old", snap.Token)
	assert.Equal(t, domainauth.RoleUser, snap.Role)
}

func TestAuthState_ClearSession(t *testing.T) {
	store := mockauth.NewMemoryKVStore(nil)
	s := newTestAuthState(t, store)
	ctx := context.Background()
	require.NoError(t, s.EstablishSession(ctx, "tok", domainauth.RoleAdmin, domainauth.Profile{"name": "Ann"}))

	require.NoError(t, s.ClearSession(ctx))
	assert.Equal(t, domainauth.Snapshot{}, s.Read())
	for _, k := range domainauth.StorageKeys() {
		_, ok := store.Value(k)
		assert.False(t, ok, k)
	}

	// Idempotent.
	require.NoError(t, s.ClearSession(ctx))
	assert.Equal(t, domainauth.Snapshot{}, s.Read())
}

func TestAuthState_ClearSession_StorageFailure(t *testing.T) {
	store := mockauth.NewMemoryKVStore(nil)
	s := newTestAuthState(t, store)
	ctx := context.Background()
	require.NoError(t, s.EstablishSession(ctx, "tok", domainauth.RoleAdmin, nil))

	store.FailDelete = mockauth.ErrStorage
	require.ErrorIs(t, s.ClearSession(ctx), mockauth.ErrStorage)
	assert.True(t, s.Read().IsAuthenticated)
}

func TestAuthState_ReadReturnsCopy(t *testing.T) {
	s := newTestAuthState(t, mockauth.NewMemoryKVStore(nil))
	require.NoError(t, s.EstablishSession(context.Background(), "tok", domainauth.RoleUser, domainauth.Profile{"name": "Ann"}))

	snap := s.Read()
	snap.Profile["name"] = "Mallory"

	assert.Equal(t, "Ann", s.Read().Profile["name"])
}

func TestAuthState_RoundTrip_FileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	store, err := filestore.NewKVStore(path)
	require.NoError(t, err)
	ctx := context.Background()

	s := newTestAuthState(t, store)
	profile := domainauth.Profile{"id": "42", "name": "Ann", "tags": []any{"a", "b"}}
	require.NoError(t, s.EstablishSession(ctx, "tok", domainauth.RoleAdmin, profile))

	reopenedStore, err := filestore.NewKVStore(path)
	require.NoError(t, err)
	reopened := newTestAuthState(t, reopenedStore)

	assert.Equal(t, s.Read(), reopened.Read())
}

func TestAuthState_RoundTrip_Redis(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store := redisstore.NewKVStoreWithPrefix(client, "routeguard:test:")
	ctx := context.Background()

	s := newTestAuthState(t, store)
	require.NoError(t, s.EstablishSession(ctx, "tok", domainauth.RoleUser, domainauth.Profile{"name": "Ann"}))

	reopened := newTestAuthState(t, store)
	assert.Equal(t, s.Read(), reopened.Read())

	require.NoError(t, reopened.ClearSession(ctx))
	again := newTestAuthState(t, store)
	assert.False(t, again.Read().IsAuthenticated)
}

func TestAuthState_SnapshotRefreshOnRead(t *testing.T) {
	store := mockauth.NewMemoryKVStore(nil)
	s, err := NewAuthState(context.Background(), AuthStateOptions{Store: store, RefreshOnRead: true})
	require.NoError(t, err)

	// Another process writes the triple directly.
	store.Put(domainauth.KeyToken, "external")
	store.Put(domainauth.KeyRole, "admin")

	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "external", snap.Token)
	assert.Equal(t, domainauth.RoleAdmin, snap.Role)

	store.FailGet = mockauth.ErrStorage
	_, err = s.Snapshot(context.Background())
	require.ErrorIs(t, err, mockauth.ErrStorage)

	_, err = s.Token(context.Background())
	require.ErrorIs(t, err, mockauth.ErrStorage)
}

func TestAuthState_SnapshotWithoutRefreshUsesMemory(t *testing.T) {
	store := mockauth.NewMemoryKVStore(nil)
	s := newTestAuthState(t, store)

	store.FailGet = mockauth.ErrStorage
	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.IsAuthenticated)

	tok, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestAuthState_WritesTripleInOneCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockKeyValueStore(ctrl)
	ctx := context.Background()

	store.EXPECT().
		GetMany(gomock.Any(), domainauth.KeyToken, domainauth.KeyRole, domainauth.KeyProfile).
		Return(map[string]string{}, nil)
	store.EXPECT().
		SetMany(gomock.Any(), map[string]string{
			domainauth.KeyToken:   "tok",
			domainauth.KeyRole:    "admin",
			domainauth.KeyProfile: `{"name":"Ann"}`,
		}).
		Return(nil)
	store.EXPECT().
		DeleteMany(gomock.Any(), domainauth.KeyToken, domainauth.KeyRole, domainauth.KeyProfile).
		Return(errors.New("disk full"))

	s, err := NewAuthState(ctx, AuthStateOptions{Store: store})
	require.NoError(t, err)
	require.NoError(t, s.EstablishSession(ctx, "tok", domainauth.RoleAdmin, domainauth.Profile{"name": "Ann"}))

	err = s.ClearSession(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, s.Read().IsAuthenticated)
}

func TestAuthState_ConcurrentMutationsKeepTripleConsistent(t *testing.T) {
	store := mockauth.NewMemoryKVStore(nil)
	s := newTestAuthState(t, store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.EstablishSession(ctx, "tok", domainauth.RoleAdmin, domainauth.Profile{"name": "Ann"})
		}()
		go func() {
			defer wg.Done()
			_ = s.ClearSession(ctx)
		}()
	}
	wg.Wait()

	snap := s.Read()
	if snap.IsAuthenticated {
		assert.Equal(t, domainauth.RoleAdmin, snap.Role)
		assert.NotNil(t, snap.Profile)
	} else {
		assert.Empty(t, snap.Role)
		assert.Nil(t, snap.Profile)
	}

	// Memory and storage agree.
	reopened := newTestAuthState(t, store)
	assert.Equal(t, snap, reopened.Read())
}

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"errors"
	"sync"

	domainauth "github.com/target/mmk-routeguard/internal/domain/auth"
	"github.com/target/mmk-routeguard/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.KeyValueStore = (*MemoryKVStore)(nil)
	_ ports.Authenticator = (*StaticAuthenticator)(nil)
	_ ports.TokenSource   = StaticTokenSource("")
	_ ports.StateSource   = (*StaticStateSource)(nil)
)

// ErrStorage is the default failure injected by MemoryKVStore.
var ErrStorage = errors.New("storage unavailable")

// MemoryKVStore is an in-memory KeyValueStore with per-operation failure injection.
// Failed writes leave the stored values untouched.
type MemoryKVStore struct {
	mu     sync.Mutex
	values map[string]string

	FailGet    error
	FailSet    error
	FailDelete error

	// Call counters for assertions
	Gets    int
	Sets    int
	Deletes int
}

// NewMemoryKVStore creates a store pre-populated with seed (which may be nil).
func NewMemoryKVStore(seed map[string]string) *MemoryKVStore {
	values := make(map[string]string, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &MemoryKVStore{values: values}
}

func (m *MemoryKVStore) GetMany(_ context.Context, keys ...string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Gets++
	if m.FailGet != nil {
		return nil, m.FailGet
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MemoryKVStore) SetMany(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Sets++
	if m.FailSet != nil {
		return m.FailSet
	}
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *MemoryKVStore) DeleteMany(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Deletes++
	if m.FailDelete != nil {
		return m.FailDelete
	}
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Value returns the stored value for key.
func (m *MemoryKVStore) Value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// Put writes key directly, bypassing failure injection.
func (m *MemoryKVStore) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// StaticAuthenticator returns Grant for every credential unless Err or AuthenticateFunc is set.
type StaticAuthenticator struct {
	AuthenticateFunc func(ctx context.Context, creds ports.Credentials) (ports.Grant, error)

	Grant ports.Grant
	Err   error

	// Last holds the most recent credentials seen.
	Last ports.Credentials
}

func (a *StaticAuthenticator) Authenticate(ctx context.Context, creds ports.Credentials) (ports.Grant, error) {
	a.Last = creds
	if a.AuthenticateFunc != nil {
		return a.AuthenticateFunc(ctx, creds)
	}
	if a.Err != nil {
		return ports.Grant{}, a.Err
	}
	grant := a.Grant
	if grant.Token == "" {
		grant.Token = "static-token"
	}
	if grant.Role == "" {
		grant.Role = domainauth.RoleUser
	}
	return grant, nil
}

// StaticTokenSource always yields the same token.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error) { return string(s), nil }

// StaticStateSource yields a fixed snapshot, or Err when set.
type StaticStateSource struct {
	State domainauth.Snapshot
	Err   error
}

func (s *StaticStateSource) Snapshot(context.Context) (domainauth.Snapshot, error) {
	if s.Err != nil {
		return domainauth.Snapshot{}, s.Err
	}
	return s.State, nil
}

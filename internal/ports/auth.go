// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"

	domainauth "github.com/target/mmk-routeguard/internal/domain/auth"
)

// KeyValueStore is the durable string-keyed, string-valued storage backing the auth state.
// SetMany and DeleteMany must apply all keys or none.
type KeyValueStore interface {
	// GetMany returns the values present for keys; absent keys are omitted from the map.
	GetMany(ctx context.Context, keys ...string) (map[string]string, error)
	SetMany(ctx context.Context, values map[string]string) error
	DeleteMany(ctx context.Context, keys ...string) error
}

// StateSource yields the auth snapshot a navigation decision is made against.
type StateSource interface {
	Snapshot(ctx context.Context) (domainauth.Snapshot, error)
}

// TokenSource yields the bearer token for outgoing requests; "" means none.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Credentials carries a validated login form.
type Credentials struct {
	Username   string
	Password   string
	RememberMe bool
}

// Grant is what a successful authentication hands to the auth state.
type Grant struct {
	Token   string
	Role    domainauth.Role
	Profile domainauth.Profile
}

// Authenticator exchanges credentials for a session grant.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (Grant, error)
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	domainauth "github.com/target/mmk-routeguard/internal/domain/auth"
	apperrors "github.com/target/mmk-routeguard/internal/errors"
	"github.com/target/mmk-routeguard/internal/ports"
)

var (
	_ ports.StateSource = (*AuthState)(nil)
	_ ports.TokenSource = (*AuthState)(nil)
)

// AuthStateOptions groups dependencies for AuthState.
type AuthStateOptions struct {
	Store  ports.KeyValueStore
	Logger *slog.Logger
	// RefreshOnRead re-hydrates from the store before every Snapshot call.
	// Enable it when several processes share one backend.
	RefreshOnRead bool
}

// AuthState is the process-wide holder of the current session triple
// (token, role, profile). It is hydrated from durable storage once at
// construction and rewrites all three keys on every mutation.
type AuthState struct {
	store         ports.KeyValueStore
	logger        *slog.Logger
	refreshOnRead bool

	mu    sync.RWMutex
	state domainauth.Snapshot
}

// NewAuthState constructs an AuthState and hydrates it from opts.Store.
// A storage read failure is returned; malformed stored values are not.
func NewAuthState(ctx context.Context, opts AuthStateOptions) (*AuthState, error) {
	if opts.Store == nil {
		return nil, apperrors.Validation("auth state store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &AuthState{
		store:         opts.Store,
		logger:        logger.With("component", "auth_state"),
		refreshOnRead: opts.RefreshOnRead,
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Read returns the current snapshot. It never fails and never touches storage.
func (s *AuthState) Read() domainauth.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSnapshot(s.state)
}

// Snapshot implements ports.StateSource. With RefreshOnRead set, storage is
// consulted first and its failure is returned to the caller.
func (s *AuthState) Snapshot(ctx context.Context) (domainauth.Snapshot, error) {
	if s.refreshOnRead {
		if err := s.Refresh(ctx); err != nil {
			return domainauth.Snapshot{}, err
		}
	}
	return s.Read(), nil
}

// Token implements ports.TokenSource. An empty token means no credential.
func (s *AuthState) Token(ctx context.Context) (string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return snap.Token, nil
}

// EstablishSession validates its arguments, persists the triple, and only then
// updates memory. A rejected or failed call leaves both untouched.
func (s *AuthState) EstablishSession(
	ctx context.Context,
	token string,
	role domainauth.Role,
	profile domainauth.Profile,
) error {
	if strings.TrimSpace(token) == "" {
		return apperrors.ValidationField("token", "token is required")
	}
	if !role.IsValid() {
		return apperrors.ValidationField("role", fmt.Sprintf("unknown role %q", role))
	}
	encoded, err := json.Marshal(profile)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "profile is not serializable")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SetMany(ctx, map[string]string{
		domainauth.KeyToken:   token,
		domainauth.KeyRole:    role.String(),
		domainauth.KeyProfile: string(encoded),
	}); err != nil {
		s.logger.ErrorContext(ctx, "persist auth state failed", "error", err)
		return fmt.Errorf("persist auth state: %w", err)
	}

	s.state = domainauth.Snapshot{
		Token:           token,
		Role:            role,
		Profile:         profile.Clone(),
		IsAuthenticated: true,
	}
	s.logger.InfoContext(ctx, "session established", "role", role)
	return nil
}

// ClearSession removes the three durable keys and resets memory.
// Clearing an already-cleared state is a no-op from the caller's view.
func (s *AuthState) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteMany(ctx, domainauth.StorageKeys()...); err != nil {
		s.logger.ErrorContext(ctx, "clear auth state failed", "error", err)
		return fmt.Errorf("clear auth state: %w", err)
	}

	wasAuthenticated := s.state.IsAuthenticated
	s.state = domainauth.Snapshot{}
	if wasAuthenticated {
		s.logger.InfoContext(ctx, "session cleared")
	}
	return nil
}

// Refresh re-reads the three durable keys and replaces the in-memory state.
func (s *AuthState) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.store.GetMany(ctx, domainauth.StorageKeys()...)
	if err != nil {
		s.logger.ErrorContext(ctx, "load auth state failed", "error", err)
		return fmt.Errorf("load auth state: %w", err)
	}
	s.state = s.decode(ctx, values)
	return nil
}

// decode builds a snapshot from stored values. Role and profile are only
// considered when a token is present.
func (s *AuthState) decode(ctx context.Context, values map[string]string) domainauth.Snapshot {
	token := values[domainauth.KeyToken]
	if token == "" {
		return domainauth.Snapshot{}
	}

	snap := domainauth.Snapshot{Token: token, IsAuthenticated: true}

	if raw, ok := values[domainauth.KeyRole]; ok {
		if role, valid := domainauth.ParseRole(raw); valid {
			snap.Role = role
		} else {
			s.logger.WarnContext(ctx, "ignoring unknown stored role", "role", raw)
		}
	}

	if raw, ok := values[domainauth.KeyProfile]; ok && raw != "" {
		var profile domainauth.Profile
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			s.logger.WarnContext(ctx, "ignoring malformed stored profile", "error", err)
		} else {
			snap.Profile = profile
		}
	}
	return snap
}

func cloneSnapshot(in domainauth.Snapshot) domainauth.Snapshot {
	out := in
	out.Profile = in.Profile.Clone()
	return out
}

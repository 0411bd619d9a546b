package service

import (
	"context"
	"fmt"
	"log/slog"

	domainauth "github.com/target/mmk-routeguard/internal/domain/auth"
	apperrors "github.com/target/mmk-routeguard/internal/errors"
	"github.com/target/mmk-routeguard/internal/http/validation"
	"github.com/target/mmk-routeguard/internal/observability/metrics"
	"github.com/target/mmk-routeguard/internal/ports"
)

// LoginServiceOptions groups dependencies for LoginService.
type LoginServiceOptions struct {
	Authenticator ports.Authenticator
	State         *AuthState
	Metrics       *metrics.NavigationMetrics
	Logger        *slog.Logger
}

// LoginService orchestrates login and logout by coordinating the
// authenticator and the persisted auth state.
type LoginService struct {
	auth    ports.Authenticator
	state   *AuthState
	metrics *metrics.NavigationMetrics
	logger  *slog.Logger
}

// NewLoginService constructs a new LoginService.
func NewLoginService(opts LoginServiceOptions) *LoginService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginService{
		auth:    opts.Authenticator,
		state:   opts.State,
		metrics: opts.Metrics,
		logger:  logger.With("component", "login_service"),
	}
}

// FormError carries per-field validation failures of a login form.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	return fmt.Sprintf("login form invalid: %d field(s)", len(e.Fields))
}

var errInvalidForm = apperrors.Validation("login form is invalid")

// Unwrap lets apperrors.IsValidation recognize a FormError.
func (e *FormError) Unwrap() error { return errInvalidForm }

// Login validates the form, authenticates, and establishes the session.
// Nothing is persisted unless every step succeeds.
func (s *LoginService) Login(ctx context.Context, form validation.LoginForm) (domainauth.Snapshot, error) {
	form = form.Normalize()
	if fields := form.Errors(); len(fields) > 0 {
		return domainauth.Snapshot{}, &FormError{Fields: fields}
	}

	grant, err := s.auth.Authenticate(ctx, form.Credentials())
	if err != nil {
		s.logger.WarnContext(ctx, "login rejected", "username", form.Username, "error", err)
		return domainauth.Snapshot{}, err
	}

	if err := s.state.EstablishSession(ctx, grant.Token, grant.Role, grant.Profile); err != nil {
		return domainauth.Snapshot{}, err
	}
	s.metrics.RecordSession(true)
	s.logger.InfoContext(ctx, "login succeeded", "username", form.Username, "role", grant.Role)
	return s.state.Read(), nil
}

// Logout clears the session. Logging out twice is not an error.
func (s *LoginService) Logout(ctx context.Context) error {
	if err := s.state.ClearSession(ctx); err != nil {
		return err
	}
	s.metrics.RecordSession(false)
	return nil
}

// Session returns the current snapshot without touching storage.
func (s *LoginService) Session() domainauth.Snapshot {
	return s.state.Read()
}

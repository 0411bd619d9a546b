// Package remoteauth authenticates against the backend API's login endpoint.
package remoteauth

import (
	"context"
	"net/http"
	"strings"

	"github.com/target/mmk-routeguard/internal/apiclient"
	domainauth "github.com/target/mmk-routeguard/internal/domain/auth"
	apperrors "github.com/target/mmk-routeguard/internal/errors"
	"github.com/target/mmk-routeguard/internal/ports"
)

// DefaultLoginPath is used when Config.LoginPath is empty.
const DefaultLoginPath = "/auth/login"

// Poster is the subset of *apiclient.Client used here.
type Poster interface {
	PostJSON(ctx context.Context, path string, in, out any) error
}

// Config controls the remote authenticator.
type Config struct {
	Client    Poster
	LoginPath string
}

// Authenticator implements ports.Authenticator over HTTP.
type Authenticator struct {
	client    Poster
	loginPath string
}

var _ ports.Authenticator = (*Authenticator)(nil)

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe,omitempty"`
}

type loginResponse struct {
	Token string             `json:"token"`
	Role  string             `json:"role"`
	User  domainauth.Profile `json:"user"`
}

// NewAuthenticator constructs a remote authenticator.
func NewAuthenticator(cfg Config) (*Authenticator, error) {
	if cfg.Client == nil {
		return nil, apperrors.Validation("remote auth: api client is required")
	}
	path := strings.TrimSpace(cfg.LoginPath)
	if path == "" {
		path = DefaultLoginPath
	}
	return &Authenticator{client: cfg.Client, loginPath: path}, nil
}

// Authenticate posts the credentials and converts the response into a grant.
// 400/401/403 responses are reported as unauthenticated; other failures as unavailable.
func (a *Authenticator) Authenticate(ctx context.Context, creds ports.Credentials) (ports.Grant, error) {
	var resp loginResponse
	err := a.client.PostJSON(ctx, a.loginPath, loginRequest{
		Username:   creds.Username,
		Password:   creds.Password,
		RememberMe: creds.RememberMe,
	}, &resp)
	if err != nil {
		switch apiclient.StatusCode(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return ports.Grant{}, apperrors.Wrap(err, apperrors.ErrCodeUnauthenticated, "invalid username or password")
		default:
			return ports.Grant{}, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "login service unavailable")
		}
	}

	if strings.TrimSpace(resp.Token) == "" {
		return ports.Grant{}, apperrors.Internal("login response carried no token")
	}
	role, ok := domainauth.ParseRole(resp.Role)
	if !ok {
		return ports.Grant{}, apperrors.Internal("login response carried unknown role " + resp.Role)
	}

	return ports.Grant{Token: resp.Token, Role: role, Profile: resp.User}, nil
}

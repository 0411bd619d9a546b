// Package devauth provides a simple, config-driven Authenticator for local development.
// It accepts any well-formed credentials and mints a locally signed session token.
package devauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainauth "github.com/target/mmk-routeguard/internal/domain/auth"
	apperrors "github.com/target/mmk-routeguard/internal/errors"
	"github.com/target/mmk-routeguard/internal/ports"
)

const (
	defaultTTL    = 8 * time.Hour
	defaultIssuer = "routeguard-dev"
)

// Config controls the dev authenticator behavior.
// Secret is required; everything else has a default.
type Config struct {
	Secret string
	Role   domainauth.Role // default user
	UserID string          // default: the submitted username
	Name   string
	Issuer string
	TTL    time.Duration // default 8h when zero
	Now    func() time.Time
}

// Claims is the payload of a dev session token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator implements ports.Authenticator for local development.
type Authenticator struct {
	secret []byte
	role   domainauth.Role
	userID string
	name   string
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

var _ ports.Authenticator = (*Authenticator)(nil)

// NewAuthenticator constructs a dev authenticator from Config.
func NewAuthenticator(cfg Config) (*Authenticator, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("dev auth: Secret is required")
	}
	role := cfg.Role
	if role == "" {
		role = domainauth.RoleUser
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("dev auth: unknown role %q", role)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = defaultIssuer
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Authenticator{
		secret: []byte(cfg.Secret),
		role:   role,
		userID: cfg.UserID,
		name:   cfg.Name,
		issuer: issuer,
		ttl:    ttl,
		now:    now,
	}, nil
}

// Authenticate ignores the password and returns a grant for the configured role.
func (a *Authenticator) Authenticate(_ context.Context, creds ports.Credentials) (ports.Grant, error) {
	username := strings.TrimSpace(creds.Username)
	if username == "" {
		return ports.Grant{}, apperrors.Unauthenticated("username is required")
	}

	id := a.userID
	if id == "" {
		id = username
	}
	name := a.name
	if name == "" {
		name = strings.SplitN(username, "@", 2)[0]
	}

	token, err := a.mint(username)
	if err != nil {
		return ports.Grant{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "sign dev token")
	}

	return ports.Grant{
		Token: token,
		Role:  a.role,
		Profile: domainauth.Profile{
			"id":    id,
			"name":  name,
			"email": username,
		},
	}, nil
}

func (a *Authenticator) mint(subject string) (string, error) {
	issuedAt := a.now()
	claims := Claims{
		Role: a.role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    a.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify parses a token minted by this authenticator and checks its signature and expiry.
func (a *Authenticator) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnauthenticated, "invalid dev token")
	}
	return claims, nil
}

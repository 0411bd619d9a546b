package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	domainauth "github.com/target/mmk-routeguard/internal/domain/auth"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeDev mints local session tokens (for development only).
	AuthModeDev AuthMode = "dev"
	// AuthModeRemote posts credentials to the backend API.
	AuthModeRemote AuthMode = "remote"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "dev", "remote":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: dev, remote)", v)
	}
}

// DevAuthConfig controls the dev authenticator identity.
// Used when AUTH_MODE=dev for development and testing.
type DevAuthConfig struct {
	Secret string        `env:"SECRET"`
	Role   string        `env:"ROLE"   envDefault:"user"`
	UserID string        `env:"USER_ID"`
	Name   string        `env:"NAME"`
	Issuer string        `env:"ISSUER" envDefault:"routeguard-dev"`
	TTL    time.Duration `env:"TTL"    envDefault:"8h"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authenticator to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"dev"`

	// DevAuth configuration (used when Mode=dev).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}

// devSecretFallback signs dev tokens when DEV_AUTH_SECRET is unset in dev mode.
const devSecretFallback = "routeguard-dev-secret"

// Sanitize normalises auth settings. In dev mode a missing dev secret is
// replaced by a fixed local value.
func (c *AuthConfig) Sanitize(isDev bool) {
	c.DevAuth.Secret = strings.TrimSpace(c.DevAuth.Secret)
	c.DevAuth.Role = strings.TrimSpace(c.DevAuth.Role)
	if c.DevAuth.Secret == "" && isDev {
		c.DevAuth.Secret = devSecretFallback
	}
	if c.DevAuth.TTL <= 0 {
		c.DevAuth.TTL = 8 * time.Hour
	}
}

// Validate reports auth settings that cannot work.
func (c *AuthConfig) Validate(api APIConfig) error {
	switch c.Mode {
	case AuthModeRemote:
		if !api.IsConfigured() {
			return errors.New("API_BASE_URL is required when AUTH_MODE=remote")
		}
	case AuthModeDev, "":
		if c.DevAuth.Secret == "" {
			return errors.New("DEV_AUTH_SECRET is required when AUTH_MODE=dev outside dev mode")
		}
		if _, ok := domainauth.ParseRole(c.DevAuth.Role); !ok {
			return fmt.Errorf("DEV_AUTH_ROLE %q is not a known role", c.DevAuth.Role)
		}
	}
	return nil
}

// DevRole returns the configured dev role, or user when it does not parse.
func (c *AuthConfig) DevRole() domainauth.Role {
	if r, ok := domainauth.ParseRole(c.DevAuth.Role); ok {
		return r
	}
	return domainauth.RoleUser
}

package devauth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/mmk-routeguard/internal/domain/auth"
	apperrors "github.com/target/mmk-routeguard/internal/errors"
	"github.com/target/mmk-routeguard/internal/ports"
	"github.com/target/mmk-routeguard/internal/testutil"
)

func TestNewAuthenticator_Validation(t *testing.T) {
	_, err := NewAuthenticator(Config{})
	require.Error(t, err)

	_, err = NewAuthenticator(Config{Secret: "s", Role: "root"})
	require.Error(t, err)

	a, err := NewAuthenticator(Config{Secret: "s"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleUser, a.role)
	assert.Equal(t, defaultTTL, a.ttl)
}

func TestAuthenticate_MintsVerifiableToken(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	a, err := NewAuthenticator(Config{
		Secret: "dev-secret",
		Role:   domainauth.RoleAdmin,
		TTL:    time.Hour,
		Now:    testutil.FixedTimeFunc(now),
	})
	require.NoError(t, err)

	grant, err := a.Authenticate(context.Background(), ports.Credentials{
		Username: "ann@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, grant.Token)
	assert.Equal(t, domainauth.RoleAdmin, grant.Role)
	assert.Equal(t, domainauth.Profile{
		"id":    "ann@example.com",
		"name":  "ann",
		"email": "ann@example.com",
	}, grant.Profile)

	claims, err := a.Verify(grant.Token)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, defaultIssuer, claims.Issuer)
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	_, err = uuid.Parse(claims.ID)
	assert.NoError(t, err)
}

func TestAuthenticate_ConfiguredIdentity(t *testing.T) {
	a, err := NewAuthenticator(Config{Secret: "s", UserID: "dev-1", Name: "Dev User"})
	require.NoError(t, err)

	grant, err := a.Authenticate(context.Background(), ports.Credentials{Username: "dev@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "dev-1", grant.Profile["id"])
	assert.Equal(t, "Dev User", grant.Profile["name"])
}

func TestAuthenticate_RequiresUsername(t *testing.T) {
	a, err := NewAuthenticator(Config{Secret: "s"})
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background(), ports.Credentials{Username: "  "})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))
}

func TestVerify_RejectsExpiredAndForeignTokens(t *testing.T) {
	issued := testutil.TestTime()
	a, err := NewAuthenticator(Config{Secret: "s", TTL: time.Minute, Now: testutil.FixedTimeFunc(issued)})
	require.NoError(t, err)

	grant, err := a.Authenticate(context.Background(), ports.Credentials{Username: "ann@example.com"})
	require.NoError(t, err)

	later, err := NewAuthenticator(Config{Secret: "s", TTL: time.Minute, Now: testutil.FixedTimeFunc(issued.Add(time.Hour))})
	require.NoError(t, err)
	_, err = later.Verify(grant.Token)
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))

	other, err := NewAuthenticator(Config{Secret: "other", Now: testutil.FixedTimeFunc(issued)})
	require.NoError(t, err)
	_, err = other.Verify(grant.Token)
	require.Error(t, err)
}

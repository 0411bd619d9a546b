package httpx

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/mmk-routeguard/internal/domain/auth"
	apperrors "github.com/target/mmk-routeguard/internal/errors"
	mockauth "github.com/target/mmk-routeguard/internal/mocks/auth"
	"github.com/target/mmk-routeguard/internal/ports"
)

const validLogin = `{"username":"pat@example.com","password":"secret1","rememberMe":true}`

func TestLoginAPI_Success(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		redirect string
	}{
		{name: "default redirect", redirect: "/dashboard"},
		{name: "local redirect honored", query: "?redirect=%2Fadmin-area", redirect: "/admin-area"},
		{name: "external redirect dropped", query: "?redirect=https%3A%2F%2Fevil.example", redirect: "/dashboard"},
		{name: "protocol relative dropped", query: "?redirect=%2F%2Fevil.example", redirect: "/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack := newTestStack(t, stackOptions{})
			stack.Auth.Grant = ports.Grant{
				Token:   "tok-1",
				Role:    domainauth.RoleAdmin,
				Profile: domainauth.Profile{"name": "Pat"},
			}

			rec := stack.do(jsonRequest(http.MethodPost, "/api/auth/login"+tt.query, validLogin))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, true, body["authenticated"])
			assert.Equal(t, "admin", body["role"])
			assert.Equal(t, tt.redirect, body["redirect_to"])
			assert.NotContains(t, rec.Body.String(), "tok-1")

			tok, ok := stack.Store.Value(domainauth.KeyToken)
			assert.True(t, ok)
			assert.Equal(t, "tok-1", tok)
			assert.Equal(t, "pat@example.com", stack.Auth.Last.Username)
			assert.True(t, stack.Auth.Last.RememberMe)
		})
	}
}

func TestLoginAPI_Failures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		authErr error
		setErr  error
		status  int
		code    string
	}{
		{
			name:   "malformed json",
			body:   `{"username":`,
			status: http.StatusBadRequest,
			code:   "invalid_json",
		},
		{
			name:   "invalid form",
			body:   `{"username":"nope","password":"123"}`,
			status: http.StatusUnprocessableEntity,
			code:   "validation_failed",
		},
		{
			name:    "bad credentials",
			body:    validLogin,
			authErr: apperrors.Unauthenticated("invalid credentials"),
			status:  http.StatusUnauthorized,
			code:    "authentication_failed",
		},
		{
			name:   "storage unavailable",
			body:   validLogin,
			setErr: apperrors.Wrap(mockauth.ErrStorage, apperrors.ErrCodeUnavailable, "redis"),
			status: http.StatusServiceUnavailable,
			code:   "storage_unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack := newTestStack(t, stackOptions{})
			stack.Auth.Err = tt.authErr
			stack.Store.FailSet = tt.setErr

			rec := stack.do(jsonRequest(http.MethodPost, "/api/auth/login", tt.body))

			assert.Equal(t, tt.status, rec.Code)
			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error)
			assert.False(t, stack.State.Read().IsAuthenticated)
			_, ok := stack.Store.Value(domainauth.KeyToken)
			assert.False(t, ok)
		})
	}
}

func TestLoginAPI_InvalidFormReportsFields(t *testing.T) {
	stack := newTestStack(t, stackOptions{})

	rec := stack.do(jsonRequest(http.MethodPost, "/api/auth/login", `{"username":"nope","password":"123"}`))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Username must be a valid email address.", body.Fields["username"])
	assert.Equal(t, "Password must be at least 6 characters.", body.Fields["password"])
	assert.Equal(t, 0, stack.Store.Sets)
}

func TestSessionAndLogoutAPI(t *testing.T) {
	stack := newTestStack(t, stackOptions{Seed: seedSession(domainauth.RoleSuperAdmin)})

	rec := stack.do(jsonRequest(http.MethodGet, "/api/auth/session", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"authenticated":true,"role":"super_admin","profile":{"name":"Pat"}}`,
		rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "seeded-token")

	rec = stack.do(jsonRequest(http.MethodPost, "/api/auth/logout", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())

	for _, key := range domainauth.StorageKeys() {
		_, ok := stack.Store.Value(key)
		assert.False(t, ok, key)
	}

	rec = stack.do(jsonRequest(http.MethodGet, "/api/auth/session", ""))
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())
}

func TestLogoutAPI_StorageFailureKeepsSession(t *testing.T) {
	stack := newTestStack(t, stackOptions{Seed: seedSession(domainauth.RoleUser)})
	stack.Store.FailDelete = apperrors.Wrap(mockauth.ErrStorage, apperrors.ErrCodeUnavailable, "redis")

	rec := stack.do(jsonRequest(http.MethodPost, "/api/auth/logout", ""))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.True(t, stack.State.Read().IsAuthenticated)
}

func TestLoginForm_Browser(t *testing.T) {
	t.Run("success redirects to target", func(t *testing.T) {
		stack := newTestStack(t, stackOptions{})

		rec := stack.do(formPost("/login?redirect=%2Fpublic-page", map[string]string{
			"username": "pat%40example.com",
			"password": "secret1",
		}))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/public-page", rec.Header().Get("Location"))
		assert.True(t, stack.State.Read().IsAuthenticated)
	})

	t.Run("invalid form re-renders with errors", func(t *testing.T) {
		stack := newTestStack(t, stackOptions{})

		rec := stack.do(formPost("/login", map[string]string{"username": "nope", "password": "x"}))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Username must be a valid email address.")
		assert.Contains(t, rec.Body.String(), `value="nope"`)
		assert.False(t, stack.State.Read().IsAuthenticated)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		stack := newTestStack(t, stackOptions{})
		stack.Auth.Err = apperrors.Unauthenticated("invalid credentials")

		rec := stack.do(formPost("/login", map[string]string{
			"username": "pat%40example.com",
			"password": "secret1",
		}))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid username or password.")
	})

	t.Run("signed in user is sent to dashboard", func(t *testing.T) {
		stack := newTestStack(t, stackOptions{Seed: seedSession(domainauth.RoleUser)})

		rec := stack.do(formPost("/login", map[string]string{
			"username": "pat%40example.com",
			"password": "secret1",
		}))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
		assert.Equal(t, 0, stack.Store.Sets)
	})
}

func TestLogoutForm_Browser(t *testing.T) {
	stack := newTestStack(t, stackOptions{Seed: seedSession(domainauth.RoleAdmin)})

	rec := stack.do(formPost("/logout", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, stack.State.Read().IsAuthenticated)

	rec = stack.do(browserGet("/admin-area"))
	assert.Equal(t, "/login?redirect=%2Fadmin-area", rec.Header().Get("Location"))
}

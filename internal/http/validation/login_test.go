package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginForm_Valid(t *testing.T) {
	f := LoginForm{Username: "ann@example.com", Password: "secret1", RememberMe: true}
	require.NoError(t, f.Validate())
	assert.Nil(t, f.Errors())

	creds := f.Credentials()
	assert.Equal(t, "ann@example.com", creds.Username)
	assert.Equal(t, "secret1", creds.Password)
	assert.True(t, creds.RememberMe)
}

func TestLoginForm_Invalid(t *testing.T) {
	tests := []struct {
		name string
		form LoginForm
		want map[string]string
	}{
		{
			name: "empty",
			form: LoginForm{},
			want: map[string]string{
				"username": "Username is required.",
				"password": "Password is required.",
			},
		},
		{
			name: "short username",
			form: LoginForm{Username: "ab", Password: "secret1"},
			want: map[string]string{"username": "Username must be at least 3 characters."},
		},
		{
			name: "not an email",
			form: LoginForm{Username: "annie", Password: "secret1"},
			want: map[string]string{"username": "Username must be a valid email address."},
		},
		{
			name: "short password",
			form: LoginForm{Username: "ann@example.com", Password: "12345"},
			want: map[string]string{"password": "Password must be at least 6 characters."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.form.Errors())
		})
	}
}

func TestLoginForm_NormalizeTrimsUsername(t *testing.T) {
	f := LoginForm{Username: "  ann@example.com ", Password: " pass word "}.Normalize()
	assert.Equal(t, "ann@example.com", f.Username)
	assert.Equal(t, " pass word ", f.Password)
}

func TestFieldErrors_NonValidationError(t *testing.T) {
	assert.Equal(t, map[string]string{"form": "boom"}, FieldErrors(errors.New("boom")))
	assert.Nil(t, FieldErrors(nil))
}

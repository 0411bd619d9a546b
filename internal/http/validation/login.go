// Package validation checks user-submitted forms before they reach the services.
package validation

import (
	"errors"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/target/mmk-routeguard/internal/ports"
)

// Login form limits.
const (
	UsernameMinLen = 3
	PasswordMinLen = 6
	fieldMaxLen    = 256
)

// LoginForm is the body of a login submission.
type LoginForm struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// Normalize trims the username. The password is taken verbatim.
func (f LoginForm) Normalize() LoginForm {
	f.Username = strings.TrimSpace(f.Username)
	return f
}

// Validate runs the field rules. The returned error, when non-nil, is an
// ozzo-validation Errors map keyed by JSON field name.
func (f LoginForm) Validate() error {
	return ozzo.ValidateStruct(&f,
		ozzo.Field(&f.Username,
			ozzo.Required.Error("Username is required."),
			ozzo.Length(UsernameMinLen, fieldMaxLen).Error("Username must be at least 3 characters."),
			is.Email.Error("Username must be a valid email address."),
		),
		ozzo.Field(&f.Password,
			ozzo.Required.Error("Password is required."),
			ozzo.Length(PasswordMinLen, fieldMaxLen).Error("Password must be at least 6 characters."),
		),
	)
}

// Errors validates the form and flattens failures into field -> message.
// It returns nil when the form is valid.
func (f LoginForm) Errors() map[string]string {
	return FieldErrors(f.Validate())
}

// Credentials converts a validated form into port credentials.
func (f LoginForm) Credentials() ports.Credentials {
	n := f.Normalize()
	return ports.Credentials{
		Username:   n.Username,
		Password:   n.Password,
		RememberMe: n.RememberMe,
	}
}

// FieldErrors flattens an ozzo-validation error. A non-field error is
// reported under the "form" key.
func FieldErrors(err error) map[string]string {
	if err == nil {
		return nil
	}
	var errs ozzo.Errors
	if !errors.As(err, &errs) {
		return map[string]string{"form": err.Error()}
	}
	out := make(map[string]string, len(errs))
	for field, fe := range errs {
		if fe != nil {
			out[field] = fe.Error()
		}
	}
	return out
}

// Package auth implements the demo user directory: credential checks,
// account signup with field validation, and user profiles.
package auth

import (
	"sort"
	"strings"

	"github.com/go-faster/errors"
)

var (
	// ErrMissingCredentials is returned when email or password is empty.
	ErrMissingCredentials = errors.New("please fill in all fields")
	// ErrInvalidCredentials is returned when no user matches the email and
	// password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailExists is returned on signup with an already registered email.
	ErrEmailExists = errors.New("email already exists")
	// ErrPhoneExists is returned on signup with an already registered phone.
	ErrPhoneExists = errors.New("phone number already registered")
	// ErrPasswordMismatch is returned when the password confirmation differs.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// User is a registered account. PasswordHash holds the hex encoded
// HMAC-SHA256 of the password.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
}

// SignupRequest holds the fields of the signup form.
type SignupRequest struct {
	Name            string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// ValidationError lists signup fields that failed validation, keyed by
// field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("please fix the errors in the form")
	for _, name := range names {
		b.WriteString("; ")
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(e.Fields[name])
	}
	return b.String()
}

package auth

import (
	"regexp"
	"unicode/utf8"
)

var (
	nameRe  = regexp.MustCompile(`^[a-zA-Z\s]*$`)
	phoneRe = regexp.MustCompile(`^\+?[\d\s-]{10,}$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Validate checks the signup form fields. It returns a *ValidationError
// listing every invalid field, or nil.
func (r SignupRequest) Validate() error {
	fields := make(map[string]string)
	if msg := validateName(r.Name); msg != "" {
		fields["name"] = msg
	}
	if !phoneRe.MatchString(r.Phone) {
		fields["phone"] = "Please enter a valid phone number"
	}
	if !emailRe.MatchString(r.Email) {
		fields["email"] = "Please enter a valid email address"
	}
	if msg := validatePassword(r.Password); msg != "" {
		fields["password"] = msg
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validateName(name string) string {
	if utf8.RuneCountInString(name) < 2 {
		return "Name must be at least 2 characters long"
	}
	if !nameRe.MatchString(name) {
		return "Name should only contain letters and spaces"
	}
	return ""
}

func validatePassword(password string) string {
	if utf8.RuneCountInString(password) < 8 {
		return "Password must be at least 8 characters long"
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return "Password must contain at least one uppercase letter, one lowercase letter, and one number"
	}
	return ""
}

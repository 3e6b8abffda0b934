package authapi

import (
	"strings"

	"vitalis/cmd/identity"
)

// FieldError describes one failed validation rule on a named request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Request validation is an explicit, pure step executed before any store is
// touched. Each function returns the full list of field errors rather than
// stopping at the first, so clients can render every problem at once.

func (r signupRequest) validate() []FieldError {
	var errs []FieldError

	if len(strings.TrimSpace(r.Name)) < 4 {
		errs = append(errs, FieldError{Field: "name", Message: "name is required (min 4 chars)"})
	}
	if !emailShapeOK(r.Email) {
		errs = append(errs, FieldError{Field: "email", Message: "invalid email"})
	}
	if len(strings.TrimSpace(r.Password)) < 8 {
		errs = append(errs, FieldError{Field: "password", Message: "password is required (min 8 chars)"})
	}
	if _, ok := identity.ParseRole(r.Role); !ok {
		errs = append(errs, FieldError{Field: "role", Message: "role must be patient or doctor"})
	}

	return errs
}

func (r loginRequest) validate() []FieldError {
	var errs []FieldError

	if !emailShapeOK(r.Email) {
		errs = append(errs, FieldError{Field: "email", Message: "invalid email"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}

	return errs
}

func (r refreshRequest) validate() []FieldError {
	if strings.TrimSpace(r.RefreshToken) == "" {
		return []FieldError{{Field: "refresh_token", Message: "refresh_token is required"}}
	}
	return nil
}

func emailShapeOK(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 254 {
		return false
	}
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1 && strings.Contains(s[at+1:], ".")
}

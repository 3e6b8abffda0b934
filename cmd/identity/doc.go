// Package identity implements the vitalis user/credential foundation.
//
// It owns the User record and the credential store boundary consumed by the
// auth gateway and the session manager. Password hashing lives in
// cmd/security/password.
//
// This package is intentionally dependency-light and security-first.
package identity

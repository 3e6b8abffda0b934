// Package password provides password hashing and verification for Vitalis.
//
// It wraps bcrypt with:
// - Configurable cost (via environment variables)
// - Password policy validation
// - Strict handling of malformed stored hashes during Verify
package password

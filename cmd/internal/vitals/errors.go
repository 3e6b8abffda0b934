package vitals

import "errors"

var (
	// ErrNotFound reports that no reading matched the query.
	ErrNotFound = errors.New("vitals: reading not found")

	// ErrForbidden reports that the caller may not read the requested user's
	// vitals.
	ErrForbidden = errors.New("vitals: access denied")
)

package engagement

import (
	"errors"
)

var (
	// ErrNotFound indicates the referenced post, comment or user does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidID indicates a missing or malformed identifier or argument
	ErrInvalidID = errors.New("invalid identifier")

	// ErrForbidden indicates the caller does not own the referenced resource
	ErrForbidden = errors.New("operation not permitted")

	// ErrConflict indicates a toggle lost its race twice and gave up
	ErrConflict = errors.New("conflicting concurrent update")
)

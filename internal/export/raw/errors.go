package raw

import "errors"

// Domain errors.
var (
	// ErrNoGrammar is returned when no registered grammar satisfies a
	// version constraint.
	ErrNoGrammar = errors.New("raw: no grammar satisfies constraint")

	// ErrInvalidConstraint is returned for a malformed version constraint.
	ErrInvalidConstraint = errors.New("raw: invalid grammar constraint")

	// ErrDuplicateGrammar is returned when a grammar with the same name and
	// version is already registered.
	ErrDuplicateGrammar = errors.New("raw: grammar already registered")

	// ErrInvalidGrammar is returned when a grammar lacks a name or version.
	ErrInvalidGrammar = errors.New("raw: invalid grammar")
)

package equipment

import "errors"

// Domain errors.
var (
	// ErrInvalidBrandTable is returned when a brand table has an empty
	// brand, an empty keyword or a pattern that does not compile.
	ErrInvalidBrandTable = errors.New("equipment: invalid brand table")

	// ErrBrandTableRead is returned when a brand table file cannot be read
	// or decoded.
	ErrBrandTableRead = errors.New("equipment: reading brand table")
)

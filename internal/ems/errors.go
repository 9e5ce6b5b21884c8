package ems

import (
	"errors"
	"fmt"
)

// Domain errors for the ems package.
//
// Record-level problems are reported as *MalformedRecordError, which wraps
// one of these sentinels:
//
//	var mre *ems.MalformedRecordError
//	if errors.As(err, &mre) && errors.Is(err, ems.ErrUnterminatedQuote) {
//	    // skip the record
//	}
var (
	// ErrUnterminatedQuote is returned when a quoted field has no closing quote.
	ErrUnterminatedQuote = errors.New("ems: unterminated quote")

	// ErrControlCharacter is returned when a line contains a control character other than TAB.
	ErrControlCharacter = errors.New("ems: illegal control character")

	// ErrMissingField is returned when a required field is absent or empty.
	ErrMissingField = errors.New("ems: missing required field")

	// ErrInvalidField is returned when a required field cannot be coerced.
	ErrInvalidField = errors.New("ems: invalid field value")

	// ErrIncompleteRecord is returned when a multi-line record ends before
	// all of its lines were read.
	ErrIncompleteRecord = errors.New("ems: incomplete multi-line record")

	// ErrUnsupportedRecord is returned when a classified record cannot be built.
	ErrUnsupportedRecord = errors.New("ems: unsupported record")

	// ErrUnknownEncoding is returned for an unrecognised input encoding name.
	ErrUnknownEncoding = errors.New("ems: unknown encoding")
)

// MalformedRecordError reports a single unreadable or uncoercible record.
// It never aborts reading; the record is skipped and counted.
type MalformedRecordError struct {
	Line  int
	Raw   string
	Field string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("line %d: field %s: %v: %q", e.Line, e.Field, e.Err, e.Raw)
	}
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Raw)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

package report

import "errors"

var (
	// ErrUnknownFormat is returned for a format other than xlsx or sqlite.
	ErrUnknownFormat = errors.New("report: unknown format")

	// ErrRowWidth is returned when a row does not match its table's columns.
	ErrRowWidth = errors.New("report: row width does not match columns")
)

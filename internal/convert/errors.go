package convert

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrNothingParsed is returned when a non-empty input yields no entity at
// all. The outputs are still written.
var ErrNothingParsed = errors.New("convert: no entities parsed from non-empty input")

// I/O operations named in an IOFailure.
const (
	OpRead   = "read input"
	OpMkdir  = "create output directory"
	OpCreate = "create output"
	OpWrite  = "write output"
)

// IOFailure is a file system error that aborted a run.
type IOFailure struct {
	Op   string
	Path string
	Err  error
}

func (e *IOFailure) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOFailure) Unwrap() error {
	return e.Err
}

// ioFailure wraps err in an IOFailure carrying a user-facing hint.
func ioFailure(op, path string, err error) error {
	return errors.WithHint(&IOFailure{Op: op, Path: path, Err: err}, ioHint(op))
}

func ioHint(op string) string {
	switch op {
	case OpRead:
		return "check that the input file exists and is readable"
	case OpMkdir:
		return "check that the output directory can be created, or pass --output-dir"
	default:
		return "check free disk space and write permission on the output directory"
	}
}

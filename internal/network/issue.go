package network

import "fmt"

// Severity classifies a diagnostic.
type Severity string

// Severities.
const (
	// SeverityWarning marks a finding that leaves the entity in the model.
	SeverityWarning Severity = "warning"

	// SeverityError marks a structural problem; the entity or record is
	// excluded from the model and every export.
	SeverityError Severity = "error"
)

// Issue codes.
const (
	CodeMalformedRecord    = "MALFORMED_RECORD"
	CodeUnclassifiedRecord = "UNCLASSIFIED_RECORD"
	CodeDanglingReference  = "DANGLING_REFERENCE"
	CodeDuplicateEntity    = "DUPLICATE_ENTITY"
	CodeInvalidValue       = "INVALID_VALUE"
	CodeOutOfRange         = "OUT_OF_RANGE"
	CodeVoltageMismatch    = "VOLTAGE_MISMATCH"
	CodeUnknownCode        = "UNKNOWN_CODE"
)

// EntityRef identifies the entity or record an issue is about.
type EntityRef struct {
	Kind Kind   `json:"kind" yaml:"kind"`
	Key  string `json:"key" yaml:"key"`
	Line int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// String returns "kind key", e.g. "transformer 1-9/1".
func (r EntityRef) String() string {
	if r.Key == "" {
		return fmt.Sprintf("%s at line %d", r.Kind, r.Line)
	}
	return fmt.Sprintf("%s %s", r.Kind, r.Key)
}

// RecordRef refers to a source line that did not produce an entity.
func RecordRef(line int) EntityRef {
	return EntityRef{Kind: KindRecord, Key: fmt.Sprintf("line %d", line), Line: line}
}

// Issue is one validation or parsing finding.
type Issue struct {
	Severity Severity  `json:"severity" yaml:"severity"`
	Code     string    `json:"code" yaml:"code"`
	Entity   EntityRef `json:"entity" yaml:"entity"`
	Reason   string    `json:"reason" yaml:"reason"`
}

// Error returns a structural issue.
func Error(code string, ref EntityRef, format string, args ...any) Issue {
	return Issue{Severity: SeverityError, Code: code, Entity: ref, Reason: fmt.Sprintf(format, args...)}
}

// Warning returns a warning issue.
func Warning(code string, ref EntityRef, format string, args ...any) Issue {
	return Issue{Severity: SeverityWarning, Code: code, Entity: ref, Reason: fmt.Sprintf(format, args...)}
}

// IsError reports whether the issue is structural.
func (i Issue) IsError() bool {
	return i.Severity == SeverityError
}

// String formats the issue for logs.
func (i Issue) String() string {
	return fmt.Sprintf("%s %s %s: %s", i.Severity, i.Code, i.Entity, i.Reason)
}

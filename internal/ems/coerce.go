package ems

import (
	"math"
	"strconv"
	"strings"
)

// parseNumber coerces a numeric field. Both '.' and ',' are accepted as the
// decimal separator; when both appear, the last one is the separator and
// the other is a thousands separator. NaN and infinities are rejected.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	dot, comma := strings.LastIndexByte(s, '.'), strings.LastIndexByte(s, ',')
	switch {
	case comma >= 0 && dot < 0:
		s = strings.Replace(s, ",", ".", 1)
	case comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseInteger coerces a field holding a whole number, accepting "12" and "12.0".
func parseInteger(s string) (int, bool) {
	f, ok := parseNumber(s)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// isNumeric reports whether an unquoted field coerces to a number.
func isNumeric(f Field) bool {
	if f.Quoted {
		return false
	}
	_, ok := parseNumber(f.Text)
	return ok
}

package raw

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Column renders one field of a RAW record.
type Column[T any] struct {
	Name   string
	render func(T) string
}

// Render formats the column for v.
func (c Column[T]) Render(v T) string {
	return c.render(v)
}

// Int is an integer column.
func Int[T any](name string, value func(T) int) Column[T] {
	return Column[T]{Name: name, render: func(v T) string {
		return strconv.Itoa(value(v))
	}}
}

// Fixed is a decimal column with a fixed number of places.
func Fixed[T any](name string, places int32, value func(T) float64) Column[T] {
	return Column[T]{Name: name, render: func(v T) string {
		return fixed(value(v), places)
	}}
}

// Quoted is a single-quoted text column. A positive width pads or cuts
// the text to exactly width characters.
func Quoted[T any](name string, width int, value func(T) string) Column[T] {
	return Column[T]{Name: name, render: func(v T) string {
		return quote(value(v), width)
	}}
}

// Const is a column that always renders the same text.
func Const[T any](name, text string) Column[T] {
	return Column[T]{Name: name, render: func(T) string { return text }}
}

// fixed formats f with exactly places decimals, rounding half away from
// zero. Non-finite values render as zero.
func fixed(f float64, places int32) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		f = 0
	}
	return decimal.NewFromFloat(f).StringFixed(places)
}

// quote wraps s in single quotes. Embedded single quotes cannot be
// escaped in RAW files and become double quotes.
func quote(s string, width int) string {
	s = strings.ReplaceAll(s, "'", `"`)
	if width > 0 {
		if n := utf8.RuneCountInString(s); n > width {
			s = string([]rune(s)[:width])
		} else {
			s += strings.Repeat(" ", width-n)
		}
	}
	return fmt.Sprintf("'%s'", s)
}

package ems

import (
	"regexp"
	"strconv"
	"strings"
)

// Header defaults, used when the input has no case identification record.
const (
	DefaultSystemBaseMVA = 100.0
	DefaultBaseFrequency = 50.0

	// baseFreqSearchLines bounds the search for a BASEFREQ annotation.
	baseFreqSearchLines = 10

	// titleLines follow the case identification record.
	titleLines = 2
)

// Header is the case identification data at the top of an EMS file:
//
//	0, 100.00, 33, 0, 1, 50.00 / Northern grid, summer peak
//	TITLE LINE ONE
//	TITLE LINE TWO
type Header struct {
	Present       bool
	Change        int
	SystemBaseMVA float64
	Revision      int
	BaseFrequency float64
	Description   string
	Titles        []string
}

var baseFreqPattern = regexp.MustCompile(`(?i)BASEFREQ\s*[=:]?\s*(\d+(?:[.,]\d+)?)`)

// scanHeader detects the case identification record and returns it with
// the line numbers that belong to it (record plus title lines).
func scanHeader(text string, opts ReaderOptions) (Header, map[int]bool) {
	h := Header{SystemBaseMVA: DefaultSystemBaseMVA, BaseFrequency: DefaultBaseFrequency}
	skip := make(map[int]bool)

	r := &Reader{opts: opts}
	seenData := false
	titlesLeft := 0
	freqFromAnnotation := false

	for ln := range lines(text) {
		if ln.number > baseFreqSearchLines && seenData && titlesLeft == 0 {
			break
		}

		if ln.number <= baseFreqSearchLines {
			if m := baseFreqPattern.FindStringSubmatch(ln.text); m != nil {
				if f, ok := parseNumber(m[1]); ok && f > 0 {
					h.BaseFrequency = f
					freqFromAnnotation = true
				}
			}
		}

		if titlesLeft > 0 {
			h.Titles = append(h.Titles, trimTitle(ln.text))
			skip[ln.number] = true
			titlesLeft--
			continue
		}
		if seenData || r.isIgnorable(ln.text) {
			continue
		}

		seenData = true
		fields, comment, err := tokenize(ln.text, opts.Delimiters)
		if err != nil || !isCaseRecord(fields, comment) {
			continue
		}

		h.Present = true
		h.Description = comment
		h.Change, _ = parseInt(fieldAt(fields, 0))
		if v, ok := parseNumber(fieldAt(fields, 1)); ok && v > 0 {
			h.SystemBaseMVA = v
		}
		h.Revision, _ = parseInt(fieldAt(fields, 2))
		if v, ok := parseNumber(fieldAt(fields, 5)); ok && v > 0 && !freqFromAnnotation {
			h.BaseFrequency = v
		}
		skip[ln.number] = true
		titlesLeft = titleLines
	}

	return h, skip
}

// isCaseRecord reports whether the first data record is a case
// identification line. A leading "0" with further fields is never an
// entity; a leading "1" needs the trailing "/" comment to count.
func isCaseRecord(fields []Field, comment string) bool {
	const maxCaseFields = 6
	if len(fields) < 2 || len(fields) > maxCaseFields {
		return false
	}
	for _, f := range fields {
		if f.Quoted {
			return false
		}
		if _, ok := parseNumber(f.Text); !ok && f.Text != "" {
			return false
		}
	}
	switch fields[0].Text {
	case "0":
		return true
	case "1":
		return comment != ""
	default:
		return false
	}
}

func fieldAt(fields []Field, i int) string {
	if i >= len(fields) {
		return ""
	}
	return fields[i].Text
}

func trimTitle(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if isControl(r) {
			return -1
		}
		return r
	}, s))
}

func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

package ems

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
	"unicode"
)

// Default reader settings.
const (
	// DefaultDelimiters are the hard field delimiters. Whitespace always
	// separates fields as well.
	DefaultDelimiters = ","

	// DefaultCommentMarkers are the characters that start a comment line.
	DefaultCommentMarkers = "#@"

	// inlineCommentMarker starts an inline comment at the beginning of a field.
	inlineCommentMarker = '/'
)

// ReaderOptions configures tokenisation.
type ReaderOptions struct {
	// Delimiters lists the hard delimiter characters. Use ";" for exports
	// that write decimal commas.
	Delimiters string

	// CommentMarkers lists the characters that mark a whole-line comment
	// when they are the first non-blank character.
	CommentMarkers string
}

// DefaultReaderOptions returns the options for comma/whitespace files.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		Delimiters:     DefaultDelimiters,
		CommentMarkers: DefaultCommentMarkers,
	}
}

// Field is one token of a record.
type Field struct {
	Text   string
	Quoted bool
}

// Record is one logical line of the input.
type Record struct {
	// Line is the 1-based physical line number.
	Line    int
	Fields  []Field
	Comment string
	Raw     string

	// Section is the section the record appeared in, derived from the
	// preceding "0 / END OF ... DATA" terminators.
	Section Section

	// Continuation holds the lines that follow the first line of a
	// multi-line record, such as the impedance and winding lines of a
	// four-line transformer. It is nil for single-line records.
	Continuation []Record
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.Fields)
}

// Text returns the text of field i, or "" when out of range.
func (r Record) Text(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i].Text
}

// Reader splits EMS text into records. It holds the decoded text, so
// Records can be iterated any number of times.
type Reader struct {
	text   string
	opts   ReaderOptions
	header Header
	skip   map[int]bool
}

// NewReader creates a reader over decoded text. The case header, when
// present, is detected immediately.
func NewReader(text string, opts ReaderOptions) *Reader {
	if opts.CommentMarkers == "" {
		opts.CommentMarkers = DefaultCommentMarkers
	}
	r := &Reader{text: text, opts: opts}
	r.header, r.skip = scanHeader(text, opts)
	return r
}

// Header returns the case identification data found at the top of the input.
func (r *Reader) Header() Header {
	return r.header
}

// Records returns a lazy sequence of records. Malformed lines are yielded
// as a zero Record with a *MalformedRecordError; iteration continues with
// the next line. Section terminators and the case header are consumed and
// never yielded.
//
// Inside the transformer section a record followed by continuation lines
// (lines that do not start with a bus number) is assembled with them into
// one record, see groupSize.
func (r *Reader) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		section := SectionUnknown
		var head *Record

		// flush yields the pending group, if any.
		flush := func() bool {
			if head == nil {
				return true
			}
			rec := *head
			head = nil
			if n, want := len(rec.Continuation), groupSize(rec); n > 0 && n < want {
				mre := &MalformedRecordError{
					Line: rec.Line,
					Raw:  rec.Raw,
					Err:  fmt.Errorf("%w: %d of %d lines", ErrIncompleteRecord, n+1, want+1),
				}
				return yield(Record{}, mre)
			}
			return yield(rec, nil)
		}

		for ln := range lines(r.text) {
			if r.skip[ln.number] || r.isIgnorable(ln.text) {
				continue
			}

			fields, comment, err := tokenize(ln.text, r.opts.Delimiters)
			if err != nil {
				mre := &MalformedRecordError{Line: ln.number, Raw: ln.text, Err: err}
				if !flush() || !yield(Record{}, mre) {
					return
				}
				continue
			}
			if len(fields) == 0 {
				continue
			}

			if len(fields) == 1 && !fields[0].Quoted {
				switch strings.ToUpper(fields[0].Text) {
				case "0":
					if !flush() {
						return
					}
					section = nextSection(section, comment)
					continue
				case "Q":
					flush()
					return
				}
			}

			rec := Record{
				Line:    ln.number,
				Fields:  fields,
				Comment: comment,
				Raw:     ln.text,
				Section: section,
			}

			if head != nil && isContinuation(rec) && len(head.Continuation) < groupSize(*head) {
				head.Continuation = append(head.Continuation, rec)
				continue
			}
			if !flush() {
				return
			}
			if section == SectionTransformer && !isContinuation(rec) {
				head = &rec
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
		flush()
	}
}

// groupSize is the number of continuation lines a transformer group takes:
// the impedance line and one line per winding. A non-zero tertiary bus in
// the third field makes it a three-winding group.
func groupSize(head Record) int {
	if head.Len() > 2 && head.Fields[2].Quoted {
		return 3
	}
	if k, ok := parseInteger(head.Text(2)); ok && k > 0 {
		return 4
	}
	return 3
}

// isContinuation reports whether rec continues a multi-line record. Such
// lines start with a number that cannot be a bus number, e.g. "0.005" or
// "1.0250".
func isContinuation(rec Record) bool {
	if rec.Len() == 0 || rec.Fields[0].Quoted {
		return false
	}
	text := strings.TrimSpace(rec.Fields[0].Text)
	if _, ok := parseNumber(text); !ok {
		return false
	}
	n, err := strconv.Atoi(text)
	return err != nil || n <= 0
}

func (r *Reader) isIgnorable(text string) bool {
	trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
	if trimmed == "" {
		return true
	}
	return strings.ContainsRune(r.opts.CommentMarkers, rune(trimmed[0]))
}

type line struct {
	number int
	text   string
}

// lines yields physical lines, accepting LF, CRLF and CR endings.
func lines(text string) iter.Seq[line] {
	return func(yield func(line) bool) {
		n := 0
		for len(text) > 0 {
			n++
			i := strings.IndexAny(text, "\r\n")
			if i < 0 {
				yield(line{number: n, text: text})
				return
			}
			cur := text[:i]
			if text[i] == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				text = text[i+2:]
			} else {
				text = text[i+1:]
			}
			if !yield(line{number: n, text: cur}) {
				return
			}
		}
	}
}

// tokenize splits one line into fields. Whitespace runs separate fields; a
// hard delimiter always ends a field, so two in a row produce an empty
// field. A quote at the start of a field runs to the matching quote. A '/'
// at the start of a field begins the inline comment.
func tokenize(text, hard string) ([]Field, string, error) {
	var (
		fields    []Field
		cur       strings.Builder
		inField   bool
		quoted    bool
		afterHard bool
	)

	emit := func() {
		fields = append(fields, Field{Text: cur.String(), Quoted: quoted})
		cur.Reset()
		inField, quoted, afterHard = false, false, false
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if isControl(c) {
			return nil, "", ErrControlCharacter
		}

		switch {
		case !inField && (c == '\'' || c == '"'):
			end := indexRune(runes[i+1:], c)
			if end < 0 {
				return nil, "", ErrUnterminatedQuote
			}
			cur.WriteString(string(runes[i+1 : i+1+end]))
			inField, quoted = true, true
			i += end + 1

		case !inField && c == inlineCommentMarker:
			return fields, strings.TrimSpace(string(runes[i+1:])), nil

		case strings.ContainsRune(hard, c):
			if inField || afterHard || len(fields) == 0 {
				emit()
			}
			afterHard = true

		case c == ' ' || c == '\t':
			if inField {
				emit()
			}

		default:
			cur.WriteRune(c)
			inField = true
		}
	}

	if inField {
		emit()
	}
	return fields, "", nil
}

func isControl(c rune) bool {
	return (c < 0x20 && c != '\t') || c == 0x7f
}

func indexRune(rs []rune, c rune) int {
	for i, r := range rs {
		if r == c {
			return i
		}
	}
	return -1
}

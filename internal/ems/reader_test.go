package ems

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect drains a reader, separating records from per-line errors.
func collect(t *testing.T, r *Reader) ([]Record, []error) {
	t.Helper()
	var (
		recs []Record
		errs []error
	)
	for rec, err := range r.Records() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		recs = append(recs, rec)
	}
	return recs, errs
}

func texts(rec Record) []string {
	out := make([]string, len(rec.Fields))
	for i, f := range rec.Fields {
		out[i] = f.Text
	}
	return out
}

// ============================================================================
// Tokenising
// ============================================================================

func TestReader_MixedLineEndings(t *testing.T) {
	r := NewReader("1 'A' 132 1\r\n2 'B' 132 1\r3 'C' 33 1\n", DefaultReaderOptions())

	recs, errs := collect(t, r)

	require.Empty(t, errs)
	require.Len(t, recs, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{recs[0].Line, recs[1].Line, recs[2].Line})
	assert.Equal(t, []string{"3", "C", "33", "1"}, texts(recs[2]))
}

func TestReader_QuotedFieldKeepsDelimiters(t *testing.T) {
	r := NewReader(`1, 'NORTH, MAIN' , 132.0, 1`, DefaultReaderOptions())

	recs, errs := collect(t, r)

	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"1", "NORTH, MAIN", "132.0", "1"}, texts(recs[0]))
	assert.True(t, recs[0].Fields[1].Quoted)
	assert.False(t, recs[0].Fields[0].Quoted)
}

func TestReader_DoubleQuotes(t *testing.T) {
	r := NewReader(`7 "O'NEIL ROAD" 11 1`, DefaultReaderOptions())

	recs, _ := collect(t, r)

	require.Len(t, recs, 1)
	assert.Equal(t, "O'NEIL ROAD", recs[0].Fields[1].Text)
}

func TestReader_EmptyFieldsBetweenCommas(t *testing.T) {
	r := NewReader("1,,2, ,3,", DefaultReaderOptions())

	recs, _ := collect(t, r)

	require.Len(t, recs, 1)
	assert.Equal(t, []string{"1", "", "2", "", "3"}, texts(recs[0]))
}

func TestReader_SkipsCommentsAndBlankLines(t *testing.T) {
	input := "# exported by EMS\n\n   \n@! another comment\n1 'A' 132 1 / inline note\n"
	r := NewReader(input, DefaultReaderOptions())

	recs, errs := collect(t, r)

	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, 5, recs[0].Line)
	assert.Equal(t, "inline note", recs[0].Comment)
	assert.Equal(t, []string{"1", "A", "132", "1"}, texts(recs[0]))
}

func TestReader_SlashInsideFieldIsNotComment(t *testing.T) {
	r := NewReader("1 A/B 132 1", DefaultReaderOptions())

	recs, _ := collect(t, r)

	require.Len(t, recs, 1)
	assert.Equal(t, "A/B", recs[0].Fields[1].Text)
}

func TestReader_SemicolonDelimiterWithDecimalComma(t *testing.T) {
	opts := ReaderOptions{Delimiters: ";"}
	r := NewReader("1; 'A'; 132,5; 1", opts)

	recs, _ := collect(t, r)

	require.Len(t, recs, 1)
	assert.Equal(t, []string{"1", "A", "132,5", "1"}, texts(recs[0]))
}

// ============================================================================
// Per-record failures
// ============================================================================

func TestReader_UnterminatedQuoteSkipsOnlyThatLine(t *testing.T) {
	r := NewReader("1 'A 132 1\n2 'B' 132 1\n", DefaultReaderOptions())

	recs, errs := collect(t, r)

	require.Len(t, errs, 1)
	var mre *MalformedRecordError
	require.True(t, errors.As(errs[0], &mre))
	assert.Equal(t, 1, mre.Line)
	assert.True(t, errors.Is(errs[0], ErrUnterminatedQuote))

	require.Len(t, recs, 1)
	assert.Equal(t, 2, recs[0].Line)
}

func TestReader_ControlCharacter(t *testing.T) {
	r := NewReader("1 'A' 132\x01 1\n2 'B' 132 1", DefaultReaderOptions())

	recs, errs := collect(t, r)

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrControlCharacter)
	assert.Len(t, recs, 1)
}

func TestReader_TabIsWhitespace(t *testing.T) {
	r := NewReader("1\t'A'\t132\t1", DefaultReaderOptions())

	recs, errs := collect(t, r)

	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Len(t, recs[0].Fields, 4)
}

// ============================================================================
// Sections, header, restart
// ============================================================================

func TestReader_SectionTerminators(t *testing.T) {
	input := `1 'A' 132 1
0 / END OF BUS DATA, BEGIN LOAD DATA
1 '1' 10 5
0 / END OF LOAD DATA
1 '1' 50 10 30 -20 1.02 100
0 / END OF GENERATOR DATA, BEGIN FIXED SHUNT DATA
1 '1' 0 25
Q
2 'B' 132 1
`
	r := NewReader(input, DefaultReaderOptions())

	recs, errs := collect(t, r)

	require.Empty(t, errs)
	require.Len(t, recs, 4)
	assert.Equal(t, SectionUnknown, recs[0].Section)
	assert.Equal(t, SectionLoad, recs[1].Section)
	assert.Equal(t, SectionGenerator, recs[2].Section)
	assert.Equal(t, SectionFixedShunt, recs[3].Section)
}

func TestReader_FixedShuntTerminatorLeadsToGenerators(t *testing.T) {
	input := `1 'A' 132 1
0 / END OF BUS DATA
1 '1' 10 5
0 / END OF LOAD DATA
0 / END OF FIXED SHUNT DATA
1 '1' 50 10 30 -20 1.02 100
0 / END OF GENERATOR DATA
`
	r := NewReader(input, DefaultReaderOptions())

	recs, errs := collect(t, r)

	require.Empty(t, errs)
	require.Len(t, recs, 3)
	assert.Equal(t, SectionLoad, recs[1].Section)
	assert.Equal(t, SectionGenerator, recs[2].Section)
}

func TestReader_UnknownSectionNames(t *testing.T) {
	assert.Equal(t, SectionGenerator, nextSection(SectionLoad, "END OF SHUNT DATA"))
	assert.Equal(t, SectionFixedShunt, nextSection(SectionLoad, "END OF LOAD DATA, BEGIN FIXED SHUNT DATA"))
	assert.Equal(t, SectionOther, nextSection(SectionTransformer, "END OF TRANSFORMER DATA"))
	assert.Equal(t, SectionOther, nextSection(SectionOther, "END OF AREA DATA"))
}

func TestReader_BareTerminatorsAdvance(t *testing.T) {
	r := NewReader("1 'A' 132 1\n0\n1 '1' 10 5\n0\n", DefaultReaderOptions())

	recs, _ := collect(t, r)

	require.Len(t, recs, 2)
	assert.Equal(t, SectionLoad, recs[1].Section)
}

func TestReader_CaseHeader(t *testing.T) {
	input := "0, 100.00, 33, 0, 1, 60.00 / Test case\nTITLE ONE\n\n1 'A' 132 1\n"
	r := NewReader(input, DefaultReaderOptions())

	h := r.Header()
	assert.True(t, h.Present)
	assert.Equal(t, 100.0, h.SystemBaseMVA)
	assert.Equal(t, 33, h.Revision)
	assert.Equal(t, 60.0, h.BaseFrequency)
	assert.Equal(t, "Test case", h.Description)
	assert.Equal(t, []string{"TITLE ONE", ""}, h.Titles)

	recs, errs := collect(t, r)
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, 4, recs[0].Line)
}

func TestReader_NoHeaderDefaults(t *testing.T) {
	r := NewReader("1 'A' 132 1\n", DefaultReaderOptions())

	h := r.Header()
	assert.False(t, h.Present)
	assert.Equal(t, DefaultBaseFrequency, h.BaseFrequency)
	assert.Equal(t, DefaultSystemBaseMVA, h.SystemBaseMVA)
}

func TestReader_BaseFreqAnnotation(t *testing.T) {
	r := NewReader("# BASEFREQ = 60\n1 'A' 132 1\n", DefaultReaderOptions())

	assert.Equal(t, 60.0, r.Header().BaseFrequency)
	recs, _ := collect(t, r)
	assert.Len(t, recs, 1)
}

func TestReader_RecordsIsRestartable(t *testing.T) {
	r := NewReader("1 'A' 132 1\n2 'B' 132 1\n", DefaultReaderOptions())

	first, _ := collect(t, r)
	second, _ := collect(t, r)

	assert.Equal(t, first, second)
	assert.Len(t, second, 2)
}

func TestReader_EmptyInput(t *testing.T) {
	recs, errs := collect(t, NewReader("", DefaultReaderOptions()))

	assert.Empty(t, recs)
	assert.Empty(t, errs)
}

// ============================================================================
// Multi-line transformers
// ============================================================================

const fourLineTransformer = `0 / END OF BRANCH DATA
1 2 0 '1' 1 1 1 0 0 2 'T1' 1
0.005 0.1 100
1.0 132.0 0 90 90 90 0 0 1.1 0.9 1.1 0.9 17
1.0 33.0
0 / END OF TRANSFORMER DATA
`

func TestReader_AssemblesFourLineTransformer(t *testing.T) {
	recs, errs := collect(t, NewReader(fourLineTransformer, DefaultReaderOptions()))

	require.Empty(t, errs)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, 2, rec.Line)
	assert.Equal(t, SectionTransformer, rec.Section)
	require.Len(t, rec.Continuation, 3)
	assert.Equal(t, []string{"0.005", "0.1", "100"}, texts(rec.Continuation[0]))
	assert.Equal(t, 4, rec.Continuation[1].Line)
	assert.Equal(t, []string{"1.0", "33.0"}, texts(rec.Continuation[2]))
}

func TestReader_ThreeWindingGroupTakesFiveLines(t *testing.T) {
	input := `0 / END OF BRANCH DATA
1 2 3 '1'
0.01 0.1 100 0.02 0.2 100 0.015 0.15 100
1.0 132.0
1.0 33.0
1.0 11.0
4 5 0 '1' 2 0.005 0.1 100
`
	recs, errs := collect(t, NewReader(input, DefaultReaderOptions()))

	require.Empty(t, errs)
	require.Len(t, recs, 2)
	assert.Len(t, recs[0].Continuation, 4)
	assert.Empty(t, recs[1].Continuation, "a single-line record after a full group stands alone")
}

func TestReader_SingleLineTransformersAreNotGrouped(t *testing.T) {
	input := `0 / END OF BRANCH DATA
1 2 0 '1' 2 0.005 0.1 100
2 3 0 '1' 2 0.005 0.1 100
`
	recs, errs := collect(t, NewReader(input, DefaultReaderOptions()))

	require.Empty(t, errs)
	require.Len(t, recs, 2)
	assert.Nil(t, recs[0].Continuation)
	assert.Equal(t, 3, recs[1].Line)
}

func TestReader_IncompleteGroupIsMalformed(t *testing.T) {
	input := `0 / END OF BRANCH DATA
1 2 0 '1'
0.005 0.1 100
1.0 132.0
0 / END OF TRANSFORMER DATA
1 '1' 50 10 30 -20 1.02 100
`
	recs, errs := collect(t, NewReader(input, DefaultReaderOptions()))

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrIncompleteRecord)
	var mre *MalformedRecordError
	require.True(t, errors.As(errs[0], &mre))
	assert.Equal(t, 2, mre.Line)

	require.Len(t, recs, 1, "reading continues after the terminator")
	assert.Equal(t, 6, recs[0].Line)
}

func TestReader_GroupingOnlyInTransformerSection(t *testing.T) {
	input := "1 2 '1' 0.01 0.05 0.02 100\n1.0 132.0\n"
	recs, _ := collect(t, NewReader(input, DefaultReaderOptions()))

	require.Len(t, recs, 2)
	assert.Nil(t, recs[0].Continuation)
}

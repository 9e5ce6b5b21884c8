package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/emsconvert/internal/ems"
	"github.com/nerrad567/emsconvert/internal/export/metadata"
	"github.com/nerrad567/emsconvert/internal/export/raw"
	"github.com/nerrad567/emsconvert/internal/model"
	"github.com/nerrad567/emsconvert/internal/network"
)

const threeBusInput = `1 'NORTH' 132 3
2 'SOUTH' 132 1
3 'EAST' 33 1
1 2 0 '1' 2 0.005 0.1 100
`

const mixedInput = `1 'NORTH' 132 3
2 'SOUTH' 132 1
3 'EAST' 33 1
0 / END OF BUS DATA, BEGIN LOAD DATA
2 '1' 40 12 3 1 'Steelworks'
0 / END OF LOAD DATA, BEGIN GENERATOR DATA
1 '1' 50 10 30 -20 1.02 100
0 / END OF GENERATOR DATA, BEGIN BRANCH DATA
1 2 '1' 0.01 0.05 0.02 100
0 / END OF BRANCH DATA, BEGIN TRANSFORMER DATA
2 3 0 '1' 2 0.005 0.1 100
0 / END OF TRANSFORMER DATA
`

var (
	fixedNow          = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	terminatorPattern = regexp.MustCompile(`^0 / END OF (.+) DATA$`)
)

func newConverter(t *testing.T, opts Options) *Converter {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	if opts.Version == "" {
		opts.Version = "test"
	}
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func parse(t *testing.T, c *Converter, input string) *model.SystemModel {
	t.Helper()
	m, err := c.Parse("grid.ems", []byte(input))
	require.NoError(t, err)
	return m
}

func renderRAW(t *testing.T, c *Converter, m *model.SystemModel) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, raw.Write(&buf, m, c.Grammar()))
	return buf.String()
}

// rawSections returns the record lines of every terminated section.
// Header lines, titles, blanks and the trailer are dropped.
func rawSections(out string, headerLines int) map[string][]string {
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	got := make(map[string][]string)
	var current []string
	for _, line := range lines[headerLines:] {
		if m := terminatorPattern.FindStringSubmatch(line); m != nil {
			got[m[1]] = current
			current = nil
			continue
		}
		if line == "" || line == "Q" || strings.HasPrefix(line, "/") {
			continue
		}
		current = append(current, line)
	}
	return got
}

// ============================================================================
// New
// ============================================================================

func TestNew_Defaults(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)

	assert.Equal(t, "psse 33.0.0", c.Grammar().String())
	assert.Equal(t, DefaultOutputDir, c.opts.OutputDir)
	assert.Equal(t, metadata.FormatJSON, c.opts.MetadataFormat)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Options{Grammar: ">=99"})
	assert.ErrorIs(t, err, raw.ErrNoGrammar)

	_, err = New(Options{Encoding: "ebcdic"})
	assert.ErrorIs(t, err, ems.ErrUnknownEncoding)
}

// ============================================================================
// Parse
// ============================================================================

func TestParse_ThreeBusExample(t *testing.T) {
	c := newConverter(t, Options{})
	m := parse(t, c, threeBusInput)

	stats := m.Stats()
	assert.Equal(t, 3, stats.TotalBuses)
	assert.Equal(t, 1, stats.TotalTransformers)
	assert.Empty(t, m.Issues())

	secs := rawSections(renderRAW(t, c, m), 3)
	assert.Len(t, secs["BUS"], 3)
	require.Len(t, secs["TRANSFORMER"], 4, "one two-winding transformer record")
	assert.True(t, strings.HasPrefix(secs["TRANSFORMER"][0], "1,2,0,"), secs["TRANSFORMER"][0])

	doc := metadata.Build(m)
	assert.Equal(t, 3, doc.Statistics.TotalBuses)
	assert.Equal(t, 1, doc.Statistics.TotalTransformers)
	assert.Empty(t, doc.ValidationIssues)
}

func TestParse_DanglingTransformer(t *testing.T) {
	c := newConverter(t, Options{})
	m := parse(t, c, strings.Replace(threeBusInput, "1 2 0 '1'", "1 9 0 '1'", 1))

	stats := m.Stats()
	assert.Equal(t, 3, stats.TotalBuses, "unrelated entities are unaffected")
	assert.Equal(t, 0, stats.TotalTransformers)

	issues := m.Issues()
	require.Len(t, issues, 1)
	assert.True(t, issues[0].IsError())
	assert.Equal(t, network.CodeDanglingReference, issues[0].Code)
	assert.Equal(t, network.KindTransformer, issues[0].Entity.Kind)
	assert.Contains(t, issues[0].Reason, "9")

	secs := rawSections(renderRAW(t, c, m), 3)
	assert.Empty(t, secs["TRANSFORMER"])
	assert.Len(t, secs["BUS"], 3)
}

func TestParse_UnterminatedQuote(t *testing.T) {
	c := newConverter(t, Options{})
	m := parse(t, c, "1 'NORTH' 132 1\n2 'BROKEN 132 1\n3 'EAST' 33 1\n")

	stats := m.Stats()
	assert.Equal(t, 2, stats.TotalBuses, "the record after the bad one still parses")
	assert.Equal(t, model.RecordCounters{Read: 3, Malformed: 1}, stats.Records)

	issues := m.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, network.CodeMalformedRecord, issues[0].Code)
	assert.Equal(t, network.RecordRef(2), issues[0].Entity)
	assert.True(t, issues[0].IsError())

	_, ok := m.Bus(3)
	assert.True(t, ok)
}

func TestParse_UnclassifiedRecord(t *testing.T) {
	c := newConverter(t, Options{})
	m := parse(t, c, "1 'NORTH' 132 1\nhello world\n")

	issues := m.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, network.CodeUnclassifiedRecord, issues[0].Code)
	assert.False(t, issues[0].IsError())
	assert.Equal(t, 1, m.Stats().Records.Unclassified)
}

func TestParse_GeneratorsAfterFixedShuntSection(t *testing.T) {
	input := `1 'NORTH' 132 3
2 'SOUTH' 132 1
0 / END OF BUS DATA
2 '1' 40 12
0 / END OF LOAD DATA
0 / END OF FIXED SHUNT DATA
1 '1' 50 10 30 -20 1.02 100
0 / END OF GENERATOR DATA
`
	c := newConverter(t, Options{})
	m := parse(t, c, input)

	stats := m.Stats()
	assert.Equal(t, 1, stats.TotalLoads)
	assert.Equal(t, 1, stats.TotalGenerators)
	assert.Zero(t, stats.Records.Unclassified)
}

func TestParse_FourLineTransformer(t *testing.T) {
	input := `1 'NORTH' 132 3
2 'SOUTH' 33 1
0 / End of Bus Data
0 / End of Load Data
0 / End of Generator Data
0 / End of Branch Data
1 2 0 '1' 1 1 1 0 0 2 'T1' 1
0.005 0.1 100
1.0 132.0 0 100 100 100 0 0 1.1 0.9 1.1 0.9 33
1.0 33.0
0 / End of Transformer Data
`
	c := newConverter(t, Options{})
	m := parse(t, c, input)

	stats := m.Stats()
	assert.Equal(t, 2, stats.TotalBuses)
	assert.Equal(t, 1, stats.TotalTransformers)
	assert.Zero(t, stats.Records.Unclassified)
	assert.Zero(t, stats.Records.Malformed)
	for _, issue := range m.Issues() {
		assert.False(t, issue.IsError(), "%+v", issue)
	}

	secs := rawSections(renderRAW(t, c, m), 3)
	require.Len(t, secs["TRANSFORMER"], 4)
	assert.True(t, strings.HasPrefix(secs["TRANSFORMER"][0], "1,2,0,"), secs["TRANSFORMER"][0])
}

func TestParse_EmptyInput(t *testing.T) {
	c := newConverter(t, Options{})
	m := parse(t, c, "")

	stats := m.Stats()
	for _, k := range network.AllKinds() {
		assert.Zero(t, stats.Total(k), k)
	}
	assert.False(t, nothingParsed(m))

	out := renderRAW(t, c, m)
	for _, section := range []string{"BUS", "LOAD", "GENERATOR", "BRANCH", "TRANSFORMER"} {
		assert.Contains(t, out, raw.Terminator(section))
	}
}

func TestParse_NothingParsed(t *testing.T) {
	c := newConverter(t, Options{})
	m := parse(t, c, "hello world\n")

	assert.True(t, nothingParsed(m))
}

func TestParse_TotalsMatchRAW(t *testing.T) {
	c := newConverter(t, Options{Grammar: "~30"})
	m := parse(t, c, mixedInput)

	stats := m.Stats()
	secs := rawSections(renderRAW(t, c, m), 3)

	assert.Equal(t, 3, stats.TotalBuses)
	assert.Len(t, secs["BUS"], stats.TotalBuses)
	assert.Len(t, secs["LOAD"], stats.TotalLoads)
	assert.Len(t, secs["GENERATOR"], stats.TotalGenerators)
	assert.Len(t, secs["BRANCH"], stats.TotalBranches)
	assert.Len(t, secs["TRANSFORMER"], stats.TotalTransformers)
	assert.Equal(t, 1, stats.TotalLoads)
	assert.Equal(t, 1, stats.TotalGenerators)
	assert.Equal(t, 1, stats.TotalBranches)
	assert.Equal(t, 1, stats.TotalTransformers)
}

func TestParse_Deterministic(t *testing.T) {
	c := newConverter(t, Options{})
	input := mixedInput + "9 9 0 '1' 2 0.005 0.1 100\nhello world\n7 'BAD\n"

	first := parse(t, c, input)
	second := parse(t, c, input)

	assert.Equal(t, first.Stats(), second.Stats())
	assert.Equal(t, first.Issues(), second.Issues())
	assert.NotEqual(t, first.Info().RunID, second.Info().RunID)
}

func TestParse_Latin1(t *testing.T) {
	c := newConverter(t, Options{})
	input := []byte("1 'M\xdcNCHEN' 132 1\n")

	m, err := c.Parse("de.ems", input)
	require.NoError(t, err)

	b, ok := m.Bus(1)
	require.True(t, ok)
	assert.Equal(t, "MÜNCHEN", b.Name)
	assert.Equal(t, ems.EncodingLatin1, m.Info().Encoding)
}

func TestParse_ConversionInfo(t *testing.T) {
	c := newConverter(t, Options{Version: "2.1.0"})
	m, err := c.Parse("/data/grid.ems", []byte("0, 100.00, 33, 0, 1, 60.00 / Summer peak\nTITLE ONE\nTITLE TWO\n1 'NORTH' 132 1\n"))
	require.NoError(t, err)

	info := m.Info()
	assert.Equal(t, "grid.ems", info.SourceName)
	assert.Equal(t, fixedNow, info.ConvertedAt)
	assert.Equal(t, "2.1.0", info.ConverterVersion)
	assert.Equal(t, "psse 33.0.0", info.Grammar)
	assert.Equal(t, 60.0, info.BaseFrequency)
	assert.Equal(t, "Summer peak", info.Description)
	assert.Equal(t, []string{"TITLE ONE", "TITLE TWO"}, info.Titles)
	assert.NotEmpty(t, info.RunID)
	assert.Equal(t, 1, m.Stats().TotalBuses)
}

func TestParse_EnrichesEquipment(t *testing.T) {
	c := newConverter(t, Options{})
	m := parse(t, c, mixedInput)

	gens := m.Generators()
	require.Len(t, gens, 1)
	assert.True(t, gens[0].Estimated.Capacity, "capacity falls back to MBASE without PMAX")
	assert.Equal(t, 100.0, gens[0].CapacityMW)

	loads := m.Loads()
	require.Len(t, loads, 1)
	assert.Equal(t, network.LoadIndustrial, loads[0].Type)
	assert.False(t, loads[0].TypeEstimated)
}

// ============================================================================
// ConvertFile
// ============================================================================

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConvertFile_DefaultOutputs(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	input := writeInput(t, dir, "grid.txt", threeBusInput)

	c := newConverter(t, Options{OutputDir: out})
	res, err := c.ConvertFile(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, "grid_powerfactory.raw"), res.Outputs.RAW)
	assert.Equal(t, filepath.Join(out, "grid_metadata.json"), res.Outputs.Metadata)
	assert.Equal(t, filepath.Join(out, "grid_report.xlsx"), res.Outputs.Report)
	for _, p := range res.Outputs.Map() {
		assert.FileExists(t, p)
	}
	assert.Equal(t, res.Model.Info().RunID, res.RunID)
	assert.False(t, res.Failed())

	body, err := os.ReadFile(res.Outputs.Metadata)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	stats := doc["statistics"].(map[string]any)
	assert.EqualValues(t, 3, stats["total_buses"])
	assert.EqualValues(t, 1, stats["total_transformers"])
	assert.Empty(t, doc["validation_issues"])
}

func TestConvertFile_ExplicitNamesAndFormats(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "grid.ems", threeBusInput)
	absRAW := filepath.Join(dir, "elsewhere.raw")

	c := newConverter(t, Options{
		OutputDir:      filepath.Join(dir, "out"),
		RawFile:        absRAW,
		MetadataFile:   "meta/custom.yaml",
		MetadataFormat: metadata.FormatYAML,
		ReportFormat:   "sqlite",
	})
	res, err := c.ConvertFile(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, absRAW, res.Outputs.RAW)
	assert.Equal(t, filepath.Join(dir, "out", "meta", "custom.yaml"), res.Outputs.Metadata)
	assert.Equal(t, filepath.Join(dir, "out", "grid_report.sqlite"), res.Outputs.Report)
	assert.FileExists(t, absRAW)
	assert.FileExists(t, res.Outputs.Metadata)
	assert.FileExists(t, res.Outputs.Report)
}

func TestConvertFile_SkipArtifacts(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "grid.ems", threeBusInput)

	c := newConverter(t, Options{OutputDir: dir, SkipMetadata: true, SkipReport: true})
	res, err := c.ConvertFile(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"raw": filepath.Join(dir, "grid_powerfactory.raw")}, res.Outputs.Map())
	assert.NoFileExists(t, filepath.Join(dir, "grid_metadata.json"))
	assert.NoFileExists(t, filepath.Join(dir, "grid_report.xlsx"))
}

func TestConvertFile_EmptyInputSucceeds(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "empty.ems", "")

	c := newConverter(t, Options{OutputDir: dir})
	res, err := c.ConvertFile(context.Background(), input)
	require.NoError(t, err)

	body, err := os.ReadFile(res.Outputs.RAW)
	require.NoError(t, err)
	assert.Contains(t, string(body), raw.Terminator("TRANSFORMER"))
}

func TestConvertFile_NothingParsed(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "junk.ems", "hello world\n")

	c := newConverter(t, Options{OutputDir: dir})
	res, err := c.ConvertFile(context.Background(), input)

	require.ErrorIs(t, err, ErrNothingParsed)
	assert.False(t, res.Failed())
	assert.FileExists(t, res.Outputs.RAW, "outputs are still written")
}

func TestConvertFile_MissingInput(t *testing.T) {
	dir := t.TempDir()
	c := newConverter(t, Options{OutputDir: dir})

	res, err := c.ConvertFile(context.Background(), filepath.Join(dir, "missing.ems"))
	require.Error(t, err)

	var iof *IOFailure
	require.True(t, errors.As(err, &iof))
	assert.Equal(t, OpRead, iof.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotEmpty(t, errors.GetAllHints(err))

	assert.Nil(t, res.Model)
	assert.True(t, res.Failed())
	assert.NotEmpty(t, res.RunID)
}

func TestConvertFile_OutputDirIsFile(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "grid.ems", threeBusInput)
	blocker := writeInput(t, dir, "blocker", "")

	c := newConverter(t, Options{OutputDir: blocker})
	_, err := c.ConvertFile(context.Background(), input)

	var iof *IOFailure
	require.True(t, errors.As(err, &iof))
	assert.Equal(t, OpMkdir, iof.Op)
}

func TestConvertFile_UnwritableOutputRemovesNothingElse(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "grid.ems", threeBusInput)
	rawDir := filepath.Join(dir, "taken.raw")
	require.NoError(t, os.Mkdir(rawDir, 0o755))

	c := newConverter(t, Options{OutputDir: dir, RawFile: rawDir, SkipReport: true, SkipMetadata: true})
	res, err := c.ConvertFile(context.Background(), input)

	var iof *IOFailure
	require.True(t, errors.As(err, &iof))
	assert.Equal(t, OpCreate, iof.Op)
	assert.Empty(t, res.Outputs.Map(), "no outputs are reported for a failed run")
	assert.DirExists(t, rawDir)
}

func TestConvertFile_FailedRunRemovesFinishedArtifacts(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "grid.ems", threeBusInput)
	rawDir := filepath.Join(dir, "taken.raw")
	require.NoError(t, os.Mkdir(rawDir, 0o755))

	c := newConverter(t, Options{OutputDir: dir, RawFile: rawDir, SkipReport: true})
	want := c.OutputPaths(input)
	require.NotEmpty(t, want.Metadata)

	res, err := c.ConvertFile(context.Background(), input)

	require.Error(t, err)
	assert.Empty(t, res.Outputs.Map())
	assert.NoFileExists(t, want.Metadata, "a sibling that finished is removed with the failed run")
	assert.DirExists(t, rawDir)
}

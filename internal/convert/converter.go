package convert

import (
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/nerrad567/emsconvert/internal/ems"
	"github.com/nerrad567/emsconvert/internal/equipment"
	"github.com/nerrad567/emsconvert/internal/export/metadata"
	"github.com/nerrad567/emsconvert/internal/export/raw"
	"github.com/nerrad567/emsconvert/internal/export/report"
	"github.com/nerrad567/emsconvert/internal/model"
	"github.com/nerrad567/emsconvert/internal/network"
	"github.com/nerrad567/emsconvert/internal/validation"
)

// Logger defines the logging interface used by Converter.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Converter. The zero value converts with the
// default grammar into ./output and writes every artifact.
type Options struct {
	// OutputDir receives the artifacts. Defaults to "output".
	OutputDir string

	// RawFile, MetadataFile and ReportFile override the default names.
	// Relative names are resolved against OutputDir.
	RawFile      string
	MetadataFile string
	ReportFile   string

	// SkipMetadata and SkipReport suppress those artifacts.
	SkipMetadata bool
	SkipReport   bool

	MetadataFormat metadata.Format
	ReportFormat   report.Format

	// Grammar is a RAW grammar constraint for raw.Lookup.
	Grammar string

	// Encoding is passed to ems.DecodeInput. Defaults to auto.
	Encoding string

	Reader     ems.ReaderOptions
	Thresholds ems.Thresholds

	VoltageTolerance float64

	// Brands is the manufacturer table. Nil uses the built-in table.
	Brands *equipment.BrandTable

	// Version is recorded as the converter version in every output.
	Version string

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOutputDir is used when Options.OutputDir is empty.
const DefaultOutputDir = "output"

// Converter runs conversions. After construction it holds only immutable
// state and may be used for any number of runs.
type Converter struct {
	opts       Options
	grammar    *raw.Grammar
	classifier *ems.Classifier
	builder    *ems.Builder
	intel      *equipment.Intelligence
	engine     *validation.Engine
	hooks      []Hook
	logger     Logger
}

// New validates opts and creates a Converter.
func New(opts Options) (*Converter, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}
	if opts.Encoding == "" {
		opts.Encoding = ems.EncodingAuto
	}
	if opts.Reader.Delimiters == "" && opts.Reader.CommentMarkers == "" {
		opts.Reader = ems.DefaultReaderOptions()
	}
	if opts.Thresholds == (ems.Thresholds{}) {
		opts.Thresholds = ems.DefaultThresholds()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MetadataFormat == "" {
		opts.MetadataFormat = metadata.FormatJSON
	}
	if opts.ReportFormat == "" {
		opts.ReportFormat = report.FormatXLSX
	}

	if _, _, err := ems.DecodeInput(nil, opts.Encoding); err != nil {
		return nil, err
	}
	g, err := raw.Lookup(opts.Grammar)
	if err != nil {
		return nil, err
	}

	return &Converter{
		opts:       opts,
		grammar:    g,
		classifier: ems.NewClassifier(opts.Thresholds),
		builder:    ems.NewBuilder(),
		intel:      equipment.New(opts.Brands, equipment.Options{Now: opts.Now}),
		engine:     validation.New(validation.Options{VoltageTolerance: opts.VoltageTolerance}),
		logger:     noopLogger{},
	}, nil
}

// SetLogger sets the logger for the converter and its equipment layer.
// Call it before the first run.
func (c *Converter) SetLogger(logger Logger) {
	c.logger = logger
	c.intel.SetLogger(logger)
}

// AddHook registers a hook run after every ConvertFile. Call it before
// the first run.
func (c *Converter) AddHook(h Hook) {
	c.hooks = append(c.hooks, h)
}

// Grammar returns the RAW grammar selected at construction.
func (c *Converter) Grammar() *raw.Grammar {
	return c.grammar
}

// Parse runs the pipeline over input bytes and returns the frozen model.
// name is recorded as the source file. Data-quality problems are issues
// in the model, never errors.
func (c *Converter) Parse(name string, data []byte) (*model.SystemModel, error) {
	text, encoding, err := ems.DecodeInput(data, c.opts.Encoding)
	if err != nil {
		return nil, err
	}

	reader := ems.NewReader(text, c.opts.Reader)
	header := reader.Header()

	var (
		counters    model.RecordCounters
		diagnostics []network.Issue
		candidates  validation.Candidates
	)
	for rec, err := range reader.Records() {
		counters.Read++
		if err != nil {
			counters.Malformed++
			diagnostics = append(diagnostics, c.malformed(err))
			continue
		}

		cls := c.classifier.Classify(rec)
		if cls.Kind == ems.KindUnclassified {
			counters.Unclassified++
			c.logger.Debug("unclassified record", "line", rec.Line, "section", rec.Section.String())
			diagnostics = append(diagnostics, network.Warning(network.CodeUnclassifiedRecord,
				network.RecordRef(rec.Line), "record matches no entity shape: %q", rec.Raw))
			continue
		}

		entity, warnings, err := c.builder.Build(cls)
		if err != nil {
			counters.Malformed++
			diagnostics = append(diagnostics, c.malformed(err))
			continue
		}
		diagnostics = append(diagnostics, warnings...)

		switch e := entity.(type) {
		case network.Bus:
			candidates.Buses = append(candidates.Buses, e)
		case network.Transformer:
			candidates.Transformers = append(candidates.Transformers, c.intel.EnrichTransformer(e))
		case network.Generator:
			candidates.Generators = append(candidates.Generators, c.intel.EnrichGenerator(e))
		case network.Load:
			candidates.Loads = append(candidates.Loads, c.intel.EnrichLoad(e))
		case network.Branch:
			candidates.Branches = append(candidates.Branches, e)
		}
	}

	outcome := c.engine.Validate(candidates)

	info := model.ConversionInfo{
		SourceName:       filepath.Base(name),
		ConvertedAt:      c.opts.Now().UTC(),
		ConverterVersion: c.opts.Version,
		RunID:            uuid.NewString(),
		Grammar:          c.grammar.String(),
		Encoding:         encoding,
		BaseFrequency:    header.BaseFrequency,
		SystemBaseMVA:    header.SystemBaseMVA,
		Description:      header.Description,
		Titles:           header.Titles,
	}
	m := model.Freeze(info, outcome, diagnostics, counters)

	stats := m.Stats()
	c.logger.Info("input parsed",
		"source", info.SourceName,
		"encoding", encoding,
		"records", counters.Read,
		"malformed", counters.Malformed,
		"unclassified", counters.Unclassified,
		"buses", stats.TotalBuses,
		"transformers", stats.TotalTransformers,
		"generators", stats.TotalGenerators,
		"loads", stats.TotalLoads,
		"branches", stats.TotalBranches,
		"errors", stats.Errors,
		"warnings", stats.Warnings,
	)
	return m, nil
}

// malformed turns a record error into a MALFORMED_RECORD issue.
func (c *Converter) malformed(err error) network.Issue {
	var mre *ems.MalformedRecordError
	if !errors.As(err, &mre) {
		return network.Error(network.CodeMalformedRecord, network.EntityRef{Kind: network.KindRecord}, "%v", err)
	}
	c.logger.Debug("malformed record skipped", "line", mre.Line, "error", mre.Err)
	if mre.Field != "" {
		return network.Error(network.CodeMalformedRecord, network.RecordRef(mre.Line), "field %s: %v", mre.Field, mre.Err)
	}
	return network.Error(network.CodeMalformedRecord, network.RecordRef(mre.Line), "%v", mre.Err)
}

// nothingParsed reports whether a run read records but kept no entity.
func nothingParsed(m *model.SystemModel) bool {
	return m.Stats().Records.Read > 0 && m.Empty()
}

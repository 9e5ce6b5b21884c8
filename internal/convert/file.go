package convert

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/emsconvert/internal/export/metadata"
	"github.com/nerrad567/emsconvert/internal/export/raw"
	"github.com/nerrad567/emsconvert/internal/export/report"
	"github.com/nerrad567/emsconvert/internal/model"
)

// Outputs are the paths of the artifacts of a run. Empty paths were not
// written.
type Outputs struct {
	RAW      string
	Metadata string
	Report   string
}

// Map returns the written paths keyed by artifact kind.
func (o Outputs) Map() map[string]string {
	out := make(map[string]string, 3)
	for kind, path := range map[string]string{"raw": o.RAW, "metadata": o.Metadata, "report": o.Report} {
		if path != "" {
			out[kind] = path
		}
	}
	return out
}

// Result describes one ConvertFile run.
type Result struct {
	RunID   string
	Source  string
	Grammar string

	StartedAt time.Time
	Duration  time.Duration

	// Model is nil when the input could not be read.
	Model *model.SystemModel

	Outputs Outputs

	// Err is the error ConvertFile returned, if any.
	Err error
}

// Failed reports whether the run produced no usable outputs.
func (r *Result) Failed() bool {
	return r.Err != nil && !errors.Is(r.Err, ErrNothingParsed)
}

// OutputPaths returns where a run of source would write its artifacts.
func (c *Converter) OutputPaths(source string) Outputs {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	out := Outputs{
		RAW: c.resolve(c.opts.RawFile, stem+"_powerfactory.raw"),
	}
	if !c.opts.SkipMetadata {
		out.Metadata = c.resolve(c.opts.MetadataFile, stem+"_metadata"+c.opts.MetadataFormat.Extension())
	}
	if !c.opts.SkipReport {
		out.Report = c.resolve(c.opts.ReportFile, stem+"_report"+c.opts.ReportFormat.Extension())
	}
	return out
}

func (c *Converter) resolve(name, fallback string) string {
	if name == "" {
		name = fallback
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.opts.OutputDir, name)
}

// ConvertFile converts the file at path and writes its artifacts. The
// returned Result is never nil. The error is an *IOFailure (wrapped with a
// hint) when reading or writing failed, or ErrNothingParsed when records
// were read but no entity survived; in the latter case every artifact has
// been written.
func (c *Converter) ConvertFile(ctx context.Context, path string) (*Result, error) {
	res := &Result{
		Source:    path,
		Grammar:   c.grammar.String(),
		StartedAt: c.opts.Now().UTC(),
	}
	started := time.Now()

	res.Err = c.convert(ctx, res)
	res.Duration = time.Since(started)
	if res.RunID == "" {
		res.RunID = uuid.NewString()
	}

	if res.Err != nil && !errors.Is(res.Err, ErrNothingParsed) {
		c.logger.Error("conversion failed", "source", path, "error", res.Err)
	} else {
		c.logger.Info("conversion finished",
			"source", path,
			"run_id", res.RunID,
			"duration", res.Duration,
			"raw", res.Outputs.RAW,
		)
	}

	c.runHooks(ctx, res)
	return res, res.Err
}

func (c *Converter) convert(ctx context.Context, res *Result) error {
	c.logger.Info("conversion started", "source", res.Source, "grammar", res.Grammar)

	data, err := os.ReadFile(res.Source)
	if err != nil {
		return ioFailure(OpRead, res.Source, err)
	}

	m, err := c.Parse(res.Source, data)
	if err != nil {
		return err
	}
	res.Model = m
	res.RunID = m.Info().RunID

	outputs := c.OutputPaths(res.Source)
	if err := c.mkdirs(outputs); err != nil {
		return err
	}
	if err := c.export(ctx, m, outputs); err != nil {
		return err
	}
	res.Outputs = outputs

	if nothingParsed(m) {
		return ErrNothingParsed
	}
	return nil
}

// mkdirs creates the directory of every output.
func (c *Converter) mkdirs(o Outputs) error {
	seen := make(map[string]bool)
	for _, path := range []string{o.RAW, o.Metadata, o.Report} {
		if path == "" {
			continue
		}
		dir := filepath.Dir(path)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ioFailure(OpMkdir, dir, err)
		}
	}
	return nil
}

// export writes the selected artifacts concurrently. The first failure
// cancels the others. A failed artifact removes its partial file, and once
// the group has failed every artifact that did finish is removed as well.
func (c *Converter) export(ctx context.Context, m *model.SystemModel, o Outputs) error {
	g, ctx := errgroup.WithContext(ctx)

	var (
		mu       sync.Mutex
		finished []string
	)
	track := func(path string, write func() error) func() error {
		return func() error {
			if err := write(); err != nil {
				return err
			}
			mu.Lock()
			finished = append(finished, path)
			mu.Unlock()
			return nil
		}
	}

	g.Go(track(o.RAW, func() error {
		return writeFile(ctx, o.RAW, func(w io.Writer) error {
			return raw.Write(w, m, c.grammar)
		})
	}))

	if o.Metadata != "" {
		g.Go(track(o.Metadata, func() error {
			return writeFile(ctx, o.Metadata, func(w io.Writer) error {
				return metadata.Write(w, m, c.opts.MetadataFormat)
			})
		}))
	}

	if o.Report != "" {
		g.Go(track(o.Report, func() error {
			tables := report.Build(m)
			if c.opts.ReportFormat == report.FormatSQLite {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := report.WriteSQLite(ctx, o.Report, tables); err != nil {
					_ = os.Remove(o.Report)
					return ioFailure(OpWrite, o.Report, err)
				}
				return nil
			}
			return writeFile(ctx, o.Report, func(w io.Writer) error {
				return report.WriteXLSX(w, tables)
			})
		}))
	}

	if err := g.Wait(); err != nil {
		for _, path := range finished {
			if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
				c.logger.Warn("could not remove artifact of failed run", "path", path, "error", rerr)
			}
		}
		return err
	}
	return nil
}

// writeFile creates path and renders into it. On failure the partial
// file is removed.
func writeFile(ctx context.Context, path string, render func(io.Writer) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return ioFailure(OpCreate, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = ioFailure(OpWrite, path, cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if err := render(f); err != nil {
		return ioFailure(OpWrite, path, err)
	}
	return nil
}

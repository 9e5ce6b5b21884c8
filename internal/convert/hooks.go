package convert

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/nerrad567/emsconvert/internal/history"
	"github.com/nerrad567/emsconvert/internal/infrastructure/influxdb"
	"github.com/nerrad567/emsconvert/internal/infrastructure/mqtt"
)

// Hook is notified after every ConvertFile, successful or not. Hook
// errors are logged and never change the outcome of the run.
type Hook interface {
	Name() string
	AfterConversion(ctx context.Context, res *Result) error
}

func (c *Converter) runHooks(ctx context.Context, res *Result) {
	for _, h := range c.hooks {
		if err := h.AfterConversion(ctx, res); err != nil {
			c.logger.Warn("conversion hook failed", "hook", h.Name(), "run_id", res.RunID, "error", err)
		}
	}
}

// =============================================================================
// History
// =============================================================================

type historyHook struct {
	repo history.Repository
}

// HistoryHook records every run in repo.
func HistoryHook(repo history.Repository) Hook {
	return historyHook{repo: repo}
}

func (historyHook) Name() string { return "history" }

func (h historyHook) AfterConversion(ctx context.Context, res *Result) error {
	return h.repo.Create(ctx, HistoryRun(res))
}

// HistoryRun converts a Result into a history record.
func HistoryRun(res *Result) *history.Run {
	run := &history.Run{
		ID:        res.RunID,
		Source:    res.Source,
		Grammar:   res.Grammar,
		Status:    history.StatusSucceeded,
		StartedAt: res.StartedAt,
		Duration:  res.Duration,
		Outputs:   res.Outputs.Map(),
	}
	switch {
	case errors.Is(res.Err, ErrNothingParsed):
		run.Status = history.StatusEmpty
	case res.Err != nil:
		run.Status = history.StatusFailed
		run.Failure = res.Err.Error()
	}

	if m := res.Model; m != nil {
		s := m.Stats()
		run.RecordsRead = s.Records.Read
		run.RecordsMalformed = s.Records.Malformed
		run.RecordsUnclassified = s.Records.Unclassified
		run.Buses = s.TotalBuses
		run.Transformers = s.TotalTransformers
		run.Generators = s.TotalGenerators
		run.Loads = s.TotalLoads
		run.Branches = s.TotalBranches
		run.Errors = s.Errors
		run.Warnings = s.Warnings
		run.Issues = m.Issues()
	}
	return run
}

// =============================================================================
// Telemetry
// =============================================================================

// TelemetryWriter receives one point per run.
type TelemetryWriter interface {
	WriteConversion(conv influxdb.Conversion)
}

type telemetryHook struct {
	w TelemetryWriter
}

// TelemetryHook writes a telemetry point for every run that produced a model.
func TelemetryHook(w TelemetryWriter) Hook {
	return telemetryHook{w: w}
}

func (telemetryHook) Name() string { return "telemetry" }

func (h telemetryHook) AfterConversion(_ context.Context, res *Result) error {
	if res.Model == nil {
		return nil
	}
	s := res.Model.Stats()
	h.w.WriteConversion(influxdb.Conversion{
		RunID:        res.RunID,
		Source:       res.Source,
		Grammar:      res.Grammar,
		Time:         res.StartedAt.Add(res.Duration),
		Duration:     res.Duration,
		Buses:        s.TotalBuses,
		Transformers: s.TotalTransformers,
		Generators:   s.TotalGenerators,
		Loads:        s.TotalLoads,
		Branches:     s.TotalBranches,
		GenerationMW: s.TotalGenerationMW,
		LoadMW:       s.TotalLoadMW,
		RecordsRead:  s.Records.Read,
		Malformed:    s.Records.Malformed,
		Unclassified: s.Records.Unclassified,
		Errors:       s.Errors,
		Warnings:     s.Warnings,
	})
	return nil
}

// =============================================================================
// Events
// =============================================================================

// EventPublisher announces finished conversions.
type EventPublisher interface {
	PublishConversion(ev mqtt.ConversionEvent) error
}

type eventHook struct {
	p EventPublisher
}

// EventHook publishes a conversion-completed event for every run whose
// artifacts were written.
func EventHook(p EventPublisher) Hook {
	return eventHook{p: p}
}

func (eventHook) Name() string { return "event" }

func (h eventHook) AfterConversion(_ context.Context, res *Result) error {
	if res.Model == nil || res.Failed() {
		return nil
	}
	s := res.Model.Stats()
	return h.p.PublishConversion(mqtt.ConversionEvent{
		RunID:        res.RunID,
		Source:       res.Source,
		Grammar:      res.Grammar,
		FinishedAt:   res.StartedAt.Add(res.Duration),
		DurationMS:   res.Duration.Milliseconds(),
		Outputs:      res.Outputs.Map(),
		Buses:        s.TotalBuses,
		Transformers: s.TotalTransformers,
		Generators:   s.TotalGenerators,
		Loads:        s.TotalLoads,
		Branches:     s.TotalBranches,
		Errors:       s.Errors,
		Warnings:     s.Warnings,
	})
}

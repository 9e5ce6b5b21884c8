package model

import (
	"slices"
	"time"

	"github.com/nerrad567/emsconvert/internal/network"
	"github.com/nerrad567/emsconvert/internal/validation"
)

// ConversionInfo describes the conversion run that produced a model.
type ConversionInfo struct {
	SourceName       string    `json:"source_file" yaml:"source_file"`
	ConvertedAt      time.Time `json:"conversion_time" yaml:"conversion_time"`
	ConverterVersion string    `json:"converter_version" yaml:"converter_version"`
	RunID            string    `json:"run_id" yaml:"run_id"`
	Grammar          string    `json:"raw_grammar" yaml:"raw_grammar"`
	Encoding         string    `json:"encoding" yaml:"encoding"`
	BaseFrequency    float64   `json:"base_frequency" yaml:"base_frequency"`
	SystemBaseMVA    float64   `json:"system_base_mva" yaml:"system_base_mva"`
	Description      string    `json:"description,omitempty" yaml:"description,omitempty"`
	Titles           []string  `json:"titles,omitempty" yaml:"titles,omitempty"`
}

// RecordCounters count source records by what became of them.
type RecordCounters struct {
	Read         int `json:"read" yaml:"read"`
	Malformed    int `json:"malformed" yaml:"malformed"`
	Unclassified int `json:"unclassified" yaml:"unclassified"`
}

// SystemModel is the immutable aggregate of a conversion run.
type SystemModel struct {
	info         ConversionInfo
	buses        []network.Bus
	transformers []network.Transformer
	generators   []network.Generator
	loads        []network.Load
	branches     []network.Branch
	issues       []network.Issue
	stats        Statistics
	busIndex     map[int]int
}

// Freeze builds a SystemModel. diagnostics are the record-level issues
// raised before validation; they come first in Issues, followed by the
// validation issues.
func Freeze(info ConversionInfo, outcome validation.Outcome, diagnostics []network.Issue, counters RecordCounters) *SystemModel {
	m := &SystemModel{
		info:     info,
		buses:    slices.Clone(outcome.Buses),
		branches: slices.Clone(outcome.Branches),
		busIndex: make(map[int]int, len(outcome.Buses)),
	}
	m.info.Titles = slices.Clone(info.Titles)

	for _, t := range outcome.Transformers {
		m.transformers = append(m.transformers, t.Clone())
	}
	for _, g := range outcome.Generators {
		g.Notes = slices.Clone(g.Notes)
		m.generators = append(m.generators, g)
	}
	for _, l := range outcome.Loads {
		l.Notes = slices.Clone(l.Notes)
		m.loads = append(m.loads, l)
	}
	for i, b := range m.buses {
		m.busIndex[b.Number] = i
	}

	m.issues = make([]network.Issue, 0, len(diagnostics)+len(outcome.Issues))
	m.issues = append(m.issues, diagnostics...)
	m.issues = append(m.issues, outcome.Issues...)

	m.stats = computeStatistics(m, outcome.Counts, counters)
	return m
}

// Info returns the conversion information.
func (m *SystemModel) Info() ConversionInfo {
	info := m.info
	info.Titles = slices.Clone(m.info.Titles)
	return info
}

// Buses returns the buses in input order.
func (m *SystemModel) Buses() []network.Bus {
	return slices.Clone(m.buses)
}

// Bus returns the bus with the given number.
func (m *SystemModel) Bus(number int) (network.Bus, bool) {
	i, ok := m.busIndex[number]
	if !ok {
		return network.Bus{}, false
	}
	return m.buses[i], true
}

// Transformers returns the transformers in input order.
func (m *SystemModel) Transformers() []network.Transformer {
	out := make([]network.Transformer, len(m.transformers))
	for i, t := range m.transformers {
		out[i] = t.Clone()
	}
	return out
}

// Generators returns the generators in input order.
func (m *SystemModel) Generators() []network.Generator {
	out := make([]network.Generator, len(m.generators))
	for i, g := range m.generators {
		g.Notes = slices.Clone(g.Notes)
		out[i] = g
	}
	return out
}

// Loads returns the loads in input order.
func (m *SystemModel) Loads() []network.Load {
	out := make([]network.Load, len(m.loads))
	for i, l := range m.loads {
		l.Notes = slices.Clone(l.Notes)
		out[i] = l
	}
	return out
}

// Branches returns the branches in input order.
func (m *SystemModel) Branches() []network.Branch {
	return slices.Clone(m.branches)
}

// Issues returns every diagnostic of the run.
func (m *SystemModel) Issues() []network.Issue {
	return slices.Clone(m.issues)
}

// Stats returns the derived statistics.
func (m *SystemModel) Stats() Statistics {
	return m.stats.clone()
}

// Empty reports whether the model holds no entities at all.
func (m *SystemModel) Empty() bool {
	return len(m.buses)+len(m.transformers)+len(m.generators)+len(m.loads)+len(m.branches) == 0
}

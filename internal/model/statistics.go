package model

import (
	"maps"
	"slices"

	"github.com/nerrad567/emsconvert/internal/network"
	"github.com/nerrad567/emsconvert/internal/validation"
)

// KindStats counts the fate of one entity kind.
type KindStats struct {
	// Parsed is the number of entities built from records.
	Parsed int `json:"parsed" yaml:"parsed"`

	// Excluded entities failed validation and are absent from every export.
	Excluded int `json:"excluded" yaml:"excluded"`

	// Warned entities are in the model with at least one warning.
	Warned int `json:"warned" yaml:"warned"`
}

// VoltageLevel is one bar of the voltage-level histogram.
type VoltageLevel struct {
	KV         float64 `json:"kv" yaml:"kv"`
	BusCount   int     `json:"bus_count" yaml:"bus_count"`
	BusNumbers []int   `json:"bus_numbers" yaml:"bus_numbers"`
}

// Statistics are aggregate figures derived from a SystemModel.
type Statistics struct {
	TotalBuses        int `json:"total_buses" yaml:"total_buses"`
	TotalTransformers int `json:"total_transformers" yaml:"total_transformers"`
	TotalGenerators   int `json:"total_generators" yaml:"total_generators"`
	TotalLoads        int `json:"total_loads" yaml:"total_loads"`
	TotalBranches     int `json:"total_branches" yaml:"total_branches"`

	TotalGenerationMW float64 `json:"total_generation_capacity_mw" yaml:"total_generation_capacity_mw"`
	TotalLoadMW       float64 `json:"total_load_mw" yaml:"total_load_mw"`
	TotalLoadMvar     float64 `json:"total_load_mvar" yaml:"total_load_mvar"`

	// VoltageLevels lists the distinct nominal voltages in ascending order.
	VoltageLevels []float64 `json:"voltage_levels" yaml:"voltage_levels"`

	// VoltageHistogram has one entry per voltage level, in the same order.
	VoltageHistogram []VoltageLevel `json:"voltage_histogram" yaml:"voltage_histogram"`

	Areas []int `json:"areas" yaml:"areas"`
	Zones []int `json:"zones" yaml:"zones"`

	Kinds   map[network.Kind]KindStats `json:"per_kind" yaml:"per_kind"`
	Records RecordCounters             `json:"records" yaml:"records"`

	Errors   int `json:"errors" yaml:"errors"`
	Warnings int `json:"warnings" yaml:"warnings"`
}

// Total returns the entity count for a kind.
func (s Statistics) Total(k network.Kind) int {
	switch k {
	case network.KindBus:
		return s.TotalBuses
	case network.KindTransformer:
		return s.TotalTransformers
	case network.KindGenerator:
		return s.TotalGenerators
	case network.KindLoad:
		return s.TotalLoads
	case network.KindBranch:
		return s.TotalBranches
	default:
		return 0
	}
}

func (s Statistics) clone() Statistics {
	cpy := s
	cpy.VoltageLevels = slices.Clone(s.VoltageLevels)
	cpy.VoltageHistogram = make([]VoltageLevel, len(s.VoltageHistogram))
	for i, v := range s.VoltageHistogram {
		v.BusNumbers = slices.Clone(v.BusNumbers)
		cpy.VoltageHistogram[i] = v
	}
	cpy.Areas = slices.Clone(s.Areas)
	cpy.Zones = slices.Clone(s.Zones)
	cpy.Kinds = maps.Clone(s.Kinds)
	return cpy
}

func computeStatistics(m *SystemModel, counts map[network.Kind]validation.Counts, records RecordCounters) Statistics {
	s := Statistics{
		TotalBuses:        len(m.buses),
		TotalTransformers: len(m.transformers),
		TotalGenerators:   len(m.generators),
		TotalLoads:        len(m.loads),
		TotalBranches:     len(m.branches),
		VoltageLevels:     []float64{},
		VoltageHistogram:  []VoltageLevel{},
		Areas:             []int{},
		Zones:             []int{},
		Kinds:             make(map[network.Kind]KindStats, len(network.AllKinds())),
		Records:           records,
	}

	for _, g := range m.generators {
		s.TotalGenerationMW += g.CapacityMW
	}
	for _, l := range m.loads {
		s.TotalLoadMW += l.PL
		s.TotalLoadMvar += l.QL
	}

	byLevel := make(map[float64][]int)
	areas := make(map[int]bool)
	zones := make(map[int]bool)
	for _, b := range m.buses {
		byLevel[b.BaseKV] = append(byLevel[b.BaseKV], b.Number)
		areas[b.Area] = true
		zones[b.Zone] = true
	}
	s.VoltageLevels = append(s.VoltageLevels, slices.Sorted(maps.Keys(byLevel))...)
	for _, kv := range s.VoltageLevels {
		numbers := slices.Clone(byLevel[kv])
		slices.Sort(numbers)
		s.VoltageHistogram = append(s.VoltageHistogram, VoltageLevel{KV: kv, BusCount: len(numbers), BusNumbers: numbers})
	}
	s.Areas = append(s.Areas, slices.Sorted(maps.Keys(areas))...)
	s.Zones = append(s.Zones, slices.Sorted(maps.Keys(zones))...)

	retained := m.retainedRefs()
	warned := make(map[network.EntityRef]bool)
	for _, issue := range m.issues {
		if issue.IsError() {
			s.Errors++
			continue
		}
		s.Warnings++
		key := network.EntityRef{Kind: issue.Entity.Kind, Key: issue.Entity.Key}
		if retained[key] {
			warned[key] = true
		}
	}

	for _, k := range network.AllKinds() {
		c := counts[k]
		ks := KindStats{Parsed: c.Candidates, Excluded: c.Excluded}
		for ref := range warned {
			if ref.Kind == k {
				ks.Warned++
			}
		}
		s.Kinds[k] = ks
	}
	return s
}

// retainedRefs returns the line-free references of every entity in the model.
func (m *SystemModel) retainedRefs() map[network.EntityRef]bool {
	refs := make(map[network.EntityRef]bool)
	add := func(r network.EntityRef) {
		refs[network.EntityRef{Kind: r.Kind, Key: r.Key}] = true
	}
	for _, b := range m.buses {
		add(b.Ref())
	}
	for _, t := range m.transformers {
		add(t.Ref())
	}
	for _, g := range m.generators {
		add(g.Ref())
	}
	for _, l := range m.loads {
		add(l.Ref())
	}
	for _, b := range m.branches {
		add(b.Ref())
	}
	return refs
}

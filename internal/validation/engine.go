package validation

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/nerrad567/emsconvert/internal/network"
)

// Physical plausibility bounds.
const (
	DefaultVoltageTolerance = 0.10

	MinVoltageMagnitude = 0.5
	MaxVoltageMagnitude = 1.5
)

// Options configures an Engine.
type Options struct {
	// VoltageTolerance is the largest relative difference between a
	// transformer winding voltage and its bus nominal voltage that passes
	// without a warning. Zero uses DefaultVoltageTolerance.
	VoltageTolerance float64
}

// Candidates are the entities produced by the builder, in input order.
type Candidates struct {
	Buses        []network.Bus
	Transformers []network.Transformer
	Generators   []network.Generator
	Loads        []network.Load
	Branches     []network.Branch
}

// Counts summarises validation of one entity kind.
type Counts struct {
	Candidates int `json:"candidates" yaml:"candidates"`
	Excluded   int `json:"excluded" yaml:"excluded"`
	Warned     int `json:"warned" yaml:"warned"`
}

// Outcome holds the entities that passed and every issue found.
type Outcome struct {
	Buses        []network.Bus
	Transformers []network.Transformer
	Generators   []network.Generator
	Loads        []network.Load
	Branches     []network.Branch

	Issues []network.Issue
	Counts map[network.Kind]Counts
}

// Engine validates candidate entities. It holds no mutable state.
type Engine struct {
	opts Options
}

// New creates an Engine.
func New(opts Options) *Engine {
	if opts.VoltageTolerance <= 0 {
		opts.VoltageTolerance = DefaultVoltageTolerance
	}
	return &Engine{opts: opts}
}

// Validate checks buses first, then transformers, generators, loads and
// branches, each in input order.
func (e *Engine) Validate(in Candidates) Outcome {
	r := &run{
		opts:   e.opts,
		buses:  make(map[int]network.Bus, len(in.Buses)),
		seen:   make(map[network.Kind]map[string]bool),
		counts: make(map[network.Kind]Counts),
	}
	out := Outcome{}

	for _, b := range in.Buses {
		if r.bus(b) {
			out.Buses = append(out.Buses, b)
		}
	}
	for _, t := range in.Transformers {
		if r.transformer(t) {
			out.Transformers = append(out.Transformers, t)
		}
	}
	for _, g := range in.Generators {
		if r.generator(g) {
			out.Generators = append(out.Generators, g)
		}
	}
	for _, l := range in.Loads {
		if r.load(l) {
			out.Loads = append(out.Loads, l)
		}
	}
	for _, br := range in.Branches {
		if r.branch(br) {
			out.Branches = append(out.Branches, br)
		}
	}

	out.Issues = r.issues
	out.Counts = r.counts
	return out
}

// run carries the state of a single Validate call.
type run struct {
	opts   Options
	buses  map[int]network.Bus
	seen   map[network.Kind]map[string]bool
	counts map[network.Kind]Counts
	issues []network.Issue
}

// check collects the warnings of one retained entity.
type check struct {
	ref      network.EntityRef
	warnings []network.Issue
}

func (c *check) warn(code, format string, args ...any) {
	c.warnings = append(c.warnings, network.Warning(code, c.ref, format, args...))
}

func (c *check) notes(notes []network.Note) {
	for _, n := range notes {
		c.warn(n.Code, "%s", n.Text)
	}
}

// reject records the single structural error of an excluded entity.
func (r *run) reject(ref network.EntityRef, code, format string, args ...any) bool {
	r.issues = append(r.issues, network.Error(code, ref, format, args...))
	c := r.counts[ref.Kind]
	c.Candidates++
	c.Excluded++
	r.counts[ref.Kind] = c
	return false
}

// accept records a retained entity and its warnings.
func (r *run) accept(c *check) bool {
	r.issues = append(r.issues, c.warnings...)
	cnt := r.counts[c.ref.Kind]
	cnt.Candidates++
	if len(c.warnings) > 0 {
		cnt.Warned++
	}
	r.counts[c.ref.Kind] = cnt
	return true
}

// duplicate reports whether ref was already accepted, and marks it otherwise.
func (r *run) duplicate(ref network.EntityRef) bool {
	keys, ok := r.seen[ref.Kind]
	if !ok {
		keys = make(map[string]bool)
		r.seen[ref.Kind] = keys
	}
	if keys[ref.Key] {
		return true
	}
	keys[ref.Key] = true
	return false
}

// missing returns the bus numbers that are not in the model.
func (r *run) missing(numbers ...int) []int {
	var out []int
	for _, n := range numbers {
		if _, ok := r.buses[n]; !ok && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

func (r *run) bus(b network.Bus) bool {
	ref := b.Ref()
	switch {
	case b.Number <= 0:
		return r.reject(ref, network.CodeInvalidValue, "bus number %d must be positive", b.Number)
	case b.BaseKV <= 0 || math.IsNaN(b.BaseKV):
		return r.reject(ref, network.CodeInvalidValue, "nominal voltage %g kV must be positive", b.BaseKV)
	case r.duplicate(ref):
		return r.reject(ref, network.CodeDuplicateEntity, "bus %d defined more than once", b.Number)
	}
	r.buses[b.Number] = b

	c := &check{ref: ref}
	if b.VoltageMagnitude < MinVoltageMagnitude || b.VoltageMagnitude > MaxVoltageMagnitude {
		c.warn(network.CodeOutOfRange, "voltage magnitude %g pu outside [%g, %g]",
			b.VoltageMagnitude, MinVoltageMagnitude, MaxVoltageMagnitude)
	}
	if b.MaxVoltage < b.MinVoltage {
		c.warn(network.CodeOutOfRange, "upper voltage limit %g pu below lower limit %g pu",
			b.MaxVoltage, b.MinVoltage)
	}
	return r.accept(c)
}

func (r *run) transformer(t network.Transformer) bool {
	ref := t.Ref()
	numbers := t.BusNumbers()
	if missing := r.missing(numbers...); len(missing) > 0 {
		return r.reject(ref, network.CodeDanglingReference, "references missing bus %s", joinInts(missing))
	}
	if hasRepeat(numbers) {
		return r.reject(ref, network.CodeInvalidValue, "connects bus %d to itself", firstRepeat(numbers))
	}
	if r.duplicate(ref) {
		return r.reject(ref, network.CodeDuplicateEntity, "transformer %s defined more than once", ref.Key)
	}

	c := &check{ref: ref}
	pairs := []string{"1-2", "2-3", "3-1"}
	for i, z := range t.Impedances {
		if z.R < 0 || z.X < 0 {
			c.warn(network.CodeOutOfRange, "negative impedance R=%g X=%g on windings %s", z.R, z.X, pairs[i%len(pairs)])
		}
		if z.R == 0 && z.X == 0 {
			c.warn(network.CodeOutOfRange, "zero impedance on windings %s", pairs[i%len(pairs)])
		}
	}
	for i, s := range t.RatedMVA {
		if s < 0 {
			c.warn(network.CodeOutOfRange, "negative rating %g MVA on winding %d", s, i+1)
		}
	}
	if tap := t.Tap; tap != nil {
		if tap.Min > tap.Max {
			c.warn(network.CodeOutOfRange, "tap range [%g, %g] is inverted", tap.Min, tap.Max)
		} else if tap.Ratio < tap.Min || tap.Ratio > tap.Max {
			c.warn(network.CodeOutOfRange, "tap ratio %g outside [%g, %g]", tap.Ratio, tap.Min, tap.Max)
		}
	}
	for i, kv := range t.WindingKV {
		if kv <= 0 || i >= len(numbers) {
			continue
		}
		base := r.buses[numbers[i]].BaseKV
		if math.Abs(kv-base)/base > r.opts.VoltageTolerance {
			c.warn(network.CodeVoltageMismatch, "winding %d rated %g kV but bus %d is %g kV",
				i+1, kv, numbers[i], base)
		}
	}
	c.notes(t.Notes)
	return r.accept(c)
}

func (r *run) generator(g network.Generator) bool {
	ref := g.Ref()
	if missing := r.missing(g.Bus); len(missing) > 0 {
		return r.reject(ref, network.CodeDanglingReference, "references missing bus %d", g.Bus)
	}
	if r.duplicate(ref) {
		return r.reject(ref, network.CodeDuplicateEntity, "generator %s defined more than once", ref.Key)
	}

	c := &check{ref: ref}
	if g.CapacityMW < 0 {
		c.warn(network.CodeOutOfRange, "negative capacity %g MW", g.CapacityMW)
	} else if g.PG > g.CapacityMW {
		c.warn(network.CodeOutOfRange, "output %g MW exceeds capacity %g MW", g.PG, g.CapacityMW)
	}
	if g.ParsedEfficiency != 0 {
		eff := g.ParsedEfficiency
		if eff > 1 {
			eff /= 100
		}
		if eff < 0 || eff > 1 {
			c.warn(network.CodeOutOfRange, "efficiency %g outside [0, 1]", g.ParsedEfficiency)
		}
	}
	c.notes(g.Notes)
	return r.accept(c)
}

func (r *run) load(l network.Load) bool {
	ref := l.Ref()
	if missing := r.missing(l.Bus); len(missing) > 0 {
		return r.reject(ref, network.CodeDanglingReference, "references missing bus %d", l.Bus)
	}
	if r.duplicate(ref) {
		return r.reject(ref, network.CodeDuplicateEntity, "load %s defined more than once", ref.Key)
	}

	c := &check{ref: ref}
	if l.PL < 0 {
		c.warn(network.CodeOutOfRange, "negative active demand %g MW", l.PL)
	}
	c.notes(l.Notes)
	return r.accept(c)
}

func (r *run) branch(b network.Branch) bool {
	ref := b.Ref()
	if missing := r.missing(b.FromBus, b.ToBus); len(missing) > 0 {
		return r.reject(ref, network.CodeDanglingReference, "references missing bus %s", joinInts(missing))
	}
	if b.FromBus == b.ToBus {
		return r.reject(ref, network.CodeInvalidValue, "connects bus %d to itself", b.FromBus)
	}
	if r.duplicate(ref) {
		return r.reject(ref, network.CodeDuplicateEntity, "branch %s defined more than once", ref.Key)
	}

	c := &check{ref: ref}
	if b.R < 0 || b.X < 0 || b.B < 0 {
		c.warn(network.CodeOutOfRange, "negative parameter R=%g X=%g B=%g", b.R, b.X, b.B)
	}
	if b.R == 0 && b.X == 0 {
		c.warn(network.CodeOutOfRange, "zero impedance")
	}
	if b.RateA < 0 || b.RateB < 0 || b.RateC < 0 {
		c.warn(network.CodeOutOfRange, "negative rating A=%g B=%g C=%g MVA", b.RateA, b.RateB, b.RateC)
	}
	return r.accept(c)
}

func hasRepeat(s []int) bool {
	return firstRepeat(s) != 0
}

func firstRepeat(s []int) int {
	for i, a := range s {
		for _, b := range s[i+1:] {
			if a == b {
				return a
			}
		}
	}
	return 0
}

func joinInts(s []int) string {
	parts := make([]string, len(s))
	for i, n := range s {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}

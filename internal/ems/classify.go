package ems

import (
	"math"
	"strings"
)

// Kind is the record type assigned by the classifier. The numeric order of
// the entity kinds is the tie-break priority: Bus beats Branch beats
// Transformer beats Generator beats Load.
type Kind int

// Record kinds.
const (
	KindUnclassified Kind = iota
	KindBus
	KindBranch
	KindTransformer
	KindGenerator
	KindLoad
)

func (k Kind) String() string {
	switch k {
	case KindBus:
		return "bus"
	case KindBranch:
		return "branch"
	case KindTransformer:
		return "transformer"
	case KindGenerator:
		return "generator"
	case KindLoad:
		return "load"
	default:
		return "unclassified"
	}
}

// Classification thresholds.
const (
	DefaultMaxBusNumber         = 999997
	DefaultMaxIDLength          = 2
	DefaultMaxImpedance         = 100.0
	DefaultMinGeneratorNumerics = 6
	DefaultMaxLoadNumerics      = 6

	minBusFields         = 4
	maxBusFields         = 13
	minBranchFields      = 6
	minTransformerFields = 8
	minGroupHeaderFields = 3
	minLoadNumerics      = 2
	maxBusTypeCode       = 4
)

// Thresholds tune the shape tests. They are injected at construction and
// never change afterwards.
type Thresholds struct {
	// MaxBusNumber is the largest value accepted as a bus number.
	MaxBusNumber int `yaml:"max_bus_number"`

	// MaxIDLength is the longest machine, load or circuit identifier.
	MaxIDLength int `yaml:"max_id_length"`

	// MaxImpedance is the largest per-unit magnitude accepted as an
	// impedance-shaped field.
	MaxImpedance float64 `yaml:"max_impedance"`

	// MinGeneratorNumerics is the shortest numeric run (after the machine
	// id) that makes a record generator-shaped.
	MinGeneratorNumerics int `yaml:"min_generator_numerics"`

	// MaxLoadNumerics is the longest numeric run for a load-shaped record.
	MaxLoadNumerics int `yaml:"max_load_numerics"`
}

// DefaultThresholds returns the thresholds used when none are configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxBusNumber:         DefaultMaxBusNumber,
		MaxIDLength:          DefaultMaxIDLength,
		MaxImpedance:         DefaultMaxImpedance,
		MinGeneratorNumerics: DefaultMinGeneratorNumerics,
		MaxLoadNumerics:      DefaultMaxLoadNumerics,
	}
}

// Classification is a record tagged with its kind.
type Classification struct {
	Kind   Kind
	Record Record
}

// Classifier assigns record kinds from field count and position. It holds
// no mutable state and may be shared between goroutines.
type Classifier struct {
	t Thresholds
}

// NewClassifier creates a classifier. Zero threshold values take their defaults.
func NewClassifier(t Thresholds) *Classifier {
	def := DefaultThresholds()
	if t.MaxBusNumber <= 0 {
		t.MaxBusNumber = def.MaxBusNumber
	}
	if t.MaxIDLength <= 0 {
		t.MaxIDLength = def.MaxIDLength
	}
	if t.MaxImpedance <= 0 {
		t.MaxImpedance = def.MaxImpedance
	}
	if t.MinGeneratorNumerics <= 0 {
		t.MinGeneratorNumerics = def.MinGeneratorNumerics
	}
	if t.MaxLoadNumerics <= 0 {
		t.MaxLoadNumerics = def.MaxLoadNumerics
	}
	return &Classifier{t: t}
}

// Classify returns the kind of rec.
//
// Every shape test is applied. When more than one matches, the kind named
// by the record's section wins if it is among the matches; otherwise the
// highest priority match wins. Fixed shunt records are never imported and
// come back unclassified. Records in any other unnamed section are judged by
// shape alone. A record assembled from several lines is either a
// transformer or unclassified.
func (c *Classifier) Classify(rec Record) Classification {
	if rec.Section == SectionFixedShunt {
		return Classification{Kind: KindUnclassified, Record: rec}
	}
	if len(rec.Continuation) > 0 {
		if c.isMultiLineTransformer(rec) {
			return Classification{Kind: KindTransformer, Record: rec}
		}
		return Classification{Kind: KindUnclassified, Record: rec}
	}

	candidates := c.candidates(rec)
	if len(candidates) == 0 {
		return Classification{Kind: KindUnclassified, Record: rec}
	}

	if hinted := kindForSection(rec.Section); hinted != KindUnclassified {
		for _, k := range candidates {
			if k == hinted {
				return Classification{Kind: k, Record: rec}
			}
		}
	}

	best := candidates[0]
	for _, k := range candidates[1:] {
		if k < best {
			best = k
		}
	}
	return Classification{Kind: best, Record: rec}
}

func (c *Classifier) candidates(rec Record) []Kind {
	var out []Kind
	if c.isBus(rec) {
		out = append(out, KindBus)
	}
	transformer := c.isTransformer(rec)
	if c.isBranch(rec) && !transformer {
		out = append(out, KindBranch)
	}
	if transformer {
		out = append(out, KindTransformer)
	}
	if c.isGenerator(rec) {
		out = append(out, KindGenerator)
	}
	if c.isLoad(rec) {
		out = append(out, KindLoad)
	}
	return out
}

// isBus: I 'NAME' BASKV IDE ...
func (c *Classifier) isBus(rec Record) bool {
	if rec.Len() < minBusFields || rec.Len() > maxBusFields {
		return false
	}
	if !c.busShaped(rec.Fields[0]) || !c.nameShaped(rec.Fields[1]) {
		return false
	}
	kv, ok := numberOf(rec.Fields[2])
	if !ok || kv <= 0 {
		return false
	}
	ide, ok := integerOf(rec.Fields[3])
	return ok && ide >= 1 && ide <= maxBusTypeCode
}

// isBranch: I J 'CKT' R X ...
func (c *Classifier) isBranch(rec Record) bool {
	if rec.Len() < minBranchFields {
		return false
	}
	return c.busShaped(rec.Fields[0]) && c.busShaped(rec.Fields[1]) &&
		c.circuitShaped(rec.Fields[2]) &&
		c.impedanceShaped(rec.Fields[3]) && c.impedanceShaped(rec.Fields[4])
}

// isTransformer: I J K 'CKT' NW R X ...
func (c *Classifier) isTransformer(rec Record) bool {
	if rec.Len() < minTransformerFields {
		return false
	}
	if !c.busShaped(rec.Fields[0]) || !c.busShaped(rec.Fields[1]) {
		return false
	}
	k, ok := integerOf(rec.Fields[2])
	if !ok || k < 0 || k > c.t.MaxBusNumber {
		return false
	}
	nw, ok := integerOf(rec.Fields[4])
	if !ok || (nw != 2 && nw != 3) {
		return false
	}
	return c.circuitShaped(rec.Fields[3]) &&
		c.impedanceShaped(rec.Fields[5]) && c.impedanceShaped(rec.Fields[6])
}

// isMultiLineTransformer: I J K ['CKT' ...], then R X SBASE ..., then one
// WINDV NOMV ... line per winding.
func (c *Classifier) isMultiLineTransformer(rec Record) bool {
	if rec.Len() < minGroupHeaderFields || len(rec.Continuation) != groupSize(rec) {
		return false
	}
	if !c.busShaped(rec.Fields[0]) || !c.busShaped(rec.Fields[1]) {
		return false
	}
	k, ok := integerOf(rec.Fields[2])
	if !ok || k < 0 || k > c.t.MaxBusNumber {
		return false
	}
	if rec.Len() > 3 && !c.circuitShaped(rec.Fields[3]) {
		return false
	}

	impedance := rec.Continuation[0]
	pairs := []int{0}
	if k > 0 {
		pairs = []int{0, 3, 6}
	}
	for _, i := range pairs {
		if impedance.Len() < i+2 || !c.impedanceShaped(impedance.Fields[i]) || !c.impedanceShaped(impedance.Fields[i+1]) {
			return false
		}
	}

	for _, winding := range rec.Continuation[1:] {
		if !isNumeric(winding.Fields[0]) {
			return false
		}
	}
	return true
}

// isGenerator: I 'ID' PG QG QT QB VS MBASE ...
func (c *Classifier) isGenerator(rec Record) bool {
	if rec.Len() < 2+c.t.MinGeneratorNumerics {
		return false
	}
	return c.busShaped(rec.Fields[0]) && c.idShaped(rec.Fields[1]) &&
		numericRun(rec, 2) >= c.t.MinGeneratorNumerics
}

// isLoad: I 'ID' PL QL ...
func (c *Classifier) isLoad(rec Record) bool {
	if rec.Len() < 2+minLoadNumerics {
		return false
	}
	run := numericRun(rec, 2)
	return c.busShaped(rec.Fields[0]) && c.idShaped(rec.Fields[1]) &&
		run >= minLoadNumerics && run <= c.t.MaxLoadNumerics
}

func (c *Classifier) busShaped(f Field) bool {
	n, ok := integerOf(f)
	return ok && n > 0 && n <= c.t.MaxBusNumber
}

// nameShaped accepts free text, excluding short numeric identifiers such as '1'.
func (c *Classifier) nameShaped(f Field) bool {
	if !f.Quoted && isNumeric(f) {
		return false
	}
	text := strings.TrimSpace(f.Text)
	if text == "" {
		return false
	}
	_, numeric := parseNumber(text)
	return !numeric || len(text) > c.t.MaxIDLength
}

func (c *Classifier) idShaped(f Field) bool {
	n := len(strings.TrimSpace(f.Text))
	return n >= 1 && n <= c.t.MaxIDLength
}

func (c *Classifier) circuitShaped(f Field) bool {
	if !c.idShaped(f) {
		return false
	}
	return f.Quoted || !strings.ContainsAny(f.Text, ".,")
}

func (c *Classifier) impedanceShaped(f Field) bool {
	v, ok := numberOf(f)
	return ok && math.Abs(v) <= c.t.MaxImpedance
}

func numberOf(f Field) (float64, bool) {
	if f.Quoted {
		return 0, false
	}
	return parseNumber(f.Text)
}

func integerOf(f Field) (int, bool) {
	if f.Quoted {
		return 0, false
	}
	return parseInteger(f.Text)
}

func numericRun(rec Record, from int) int {
	n := 0
	for i := from; i < rec.Len() && isNumeric(rec.Fields[i]); i++ {
		n++
	}
	return n
}

func kindForSection(s Section) Kind {
	switch s {
	case SectionBus:
		return KindBus
	case SectionLoad:
		return KindLoad
	case SectionGenerator:
		return KindGenerator
	case SectionBranch:
		return KindBranch
	case SectionTransformer:
		return KindTransformer
	default:
		return KindUnclassified
	}
}

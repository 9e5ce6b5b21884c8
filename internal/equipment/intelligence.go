package equipment

import (
	"fmt"
	"slices"
	"time"

	"github.com/nerrad567/emsconvert/internal/network"
)

// Logger defines the logging interface used by Intelligence.
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

// Options configures an Intelligence.
type Options struct {
	// Now returns the current time. It bounds the commissioning-year
	// clamp. Defaults to time.Now.
	Now func() time.Time
}

// Intelligence enriches network entities with inferred equipment data.
// It holds only immutable state.
type Intelligence struct {
	brands *BrandTable
	now    func() time.Time
	logger Logger
}

// New creates an Intelligence. A nil table uses DefaultBrandTable.
func New(table *BrandTable, opts Options) *Intelligence {
	if table == nil {
		table = DefaultBrandTable()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Intelligence{
		brands: table,
		now:    opts.Now,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the intelligence layer. Call it before
// sharing the Intelligence between goroutines.
func (in *Intelligence) SetLogger(logger Logger) {
	in.logger = logger
}

// Brands returns the brand table in use.
func (in *Intelligence) Brands() *BrandTable {
	return in.brands
}

// EnrichTransformer returns a copy of t with manufacturer, model, vector
// group and cooling label filled in where they can be inferred.
func (in *Intelligence) EnrichTransformer(t network.Transformer) network.Transformer {
	t = t.Clone()
	ref := t.Ref()

	if m, ok := in.brands.Match(t.Name, t.Description); ok {
		t.Manufacturer = m.Brand
		if t.Model == "" {
			t.Model = m.Model
		}
	}

	if !t.Winding.IsZero() {
		if label, ok := VectorGroup(t.Winding); ok {
			t.VectorGroup = label
		} else {
			t.VectorGroup = ""
			in.logger.Warn("unrecognised vector group",
				"transformer", ref.Key,
				"line", ref.Line,
				"winding", t.Winding.Raw,
			)
			t.Notes = addNote(t.Notes, network.CodeUnknownCode,
				fmt.Sprintf("unrecognised vector group %q", t.Winding.Raw))
		}
	}

	if t.CoolingCode != "" {
		if label, ok := Cooling(t.CoolingCode); ok {
			t.Cooling = label
		} else {
			t.Cooling = t.CoolingCode
			in.logger.Warn("unknown cooling code",
				"transformer", ref.Key,
				"line", ref.Line,
				"code", t.CoolingCode,
			)
			t.Notes = addNote(t.Notes, network.CodeUnknownCode,
				fmt.Sprintf("unknown cooling code %q kept verbatim", t.CoolingCode))
		}
	}

	return t
}

// EnrichGenerator returns a copy of g with manufacturer, model, capacity,
// fuel, efficiency and commissioning year filled in. Values not read from
// the record are flagged in g.Estimated.
func (in *Intelligence) EnrichGenerator(g network.Generator) network.Generator {
	g.Notes = slices.Clone(g.Notes)
	ref := g.Ref()

	if m, ok := in.brands.Match(g.Description); ok {
		g.Manufacturer = m.Brand
		if g.Model == "" {
			g.Model = m.Model
		}
	}

	if g.HasPMax {
		g.CapacityMW = g.PMax
		g.Estimated.Capacity = false
	} else {
		g.CapacityMW = g.MBase
		g.Estimated.Capacity = true
	}

	g.Fuel, g.Estimated.Fuel = in.generatorFuel(&g)

	if g.ParsedEfficiency > 0 {
		g.Efficiency = clampFloat(normaliseEfficiency(g.ParsedEfficiency), MinEfficiency, MaxEfficiency)
		g.Estimated.Efficiency = false
	} else {
		g.Efficiency = clampFloat(TypicalEfficiency(g.Fuel), MinEfficiency, MaxEfficiency)
		g.Estimated.Efficiency = true
	}

	in.commissioningYear(&g)

	in.logger.Debug("generator enriched",
		"generator", ref.Key,
		"fuel", g.Fuel,
		"efficiency", g.Efficiency,
		"year", g.CommissioningYear,
	)
	return g
}

// generatorFuel resolves the fuel from the FUEL code, then the
// description. The second result reports whether the fuel is estimated.
func (in *Intelligence) generatorFuel(g *network.Generator) (network.FuelType, bool) {
	if g.FuelCode != "" {
		if f, ok := FuelFromCode(g.FuelCode); ok {
			return f, false
		}
		in.logger.Warn("unknown fuel code", "generator", g.Ref().Key, "code", g.FuelCode)
		g.Notes = addNote(g.Notes, network.CodeUnknownCode,
			fmt.Sprintf("unknown fuel code %q", g.FuelCode))
	}
	if f, ok := FuelFromDescription(g.Description); ok {
		return f, true
	}
	return network.FuelUnknown, true
}

func (in *Intelligence) commissioningYear(g *network.Generator) {
	current := in.now().Year()

	year := 0
	if !g.Estimated.CommissioningYear && g.CommissioningYear > 0 {
		year = g.CommissioningYear
	} else if y, ok := yearFromDescription(g.Description); ok {
		year = y
	}

	if year == 0 {
		g.CommissioningYear = clampInt(TypicalYear(g.Fuel), MinCommissioningYear, current)
		g.Estimated.CommissioningYear = true
		return
	}

	g.Estimated.CommissioningYear = false
	clamped := clampInt(year, MinCommissioningYear, current)
	if clamped != year {
		g.Notes = addNote(g.Notes, network.CodeOutOfRange,
			fmt.Sprintf("commissioning year %d clamped to %d", year, clamped))
	}
	g.CommissioningYear = clamped
}

// EnrichLoad returns a copy of l with its consumer class resolved from
// the TYPE code, the description, or failing both, its size.
func (in *Intelligence) EnrichLoad(l network.Load) network.Load {
	l.Notes = slices.Clone(l.Notes)

	if l.TypeCode != "" {
		if t, ok := LoadTypeFromCode(l.TypeCode); ok {
			l.Type, l.TypeEstimated = t, false
			return l
		}
		in.logger.Warn("unknown load type code", "load", l.Ref().Key, "code", l.TypeCode)
		l.Notes = addNote(l.Notes, network.CodeUnknownCode,
			fmt.Sprintf("unknown load type code %q", l.TypeCode))
	}

	if t, ok := LoadTypeFromDescription(l.Description); ok {
		l.Type, l.TypeEstimated = t, false
		return l
	}

	l.Type, l.TypeEstimated = LoadTypeFromSize(l.PL), true
	return l
}

// addNote appends a note unless an identical one is already present, so
// enriching twice gives the same result as enriching once.
func addNote(notes []network.Note, code, text string) []network.Note {
	n := network.Note{Code: code, Text: text}
	if slices.Contains(notes, n) {
		return notes
	}
	return append(notes, n)
}

package metadata

import (
	"fmt"
	"strings"

	"github.com/nerrad567/emsconvert/internal/model"
	"github.com/nerrad567/emsconvert/internal/network"
)

// Equipment summarises what was read or inferred about the equipment.
type Equipment struct {
	TransformerBrands map[string]int     `json:"transformer_brands" yaml:"transformer_brands"`
	GeneratorBrands   map[string]int     `json:"generator_brands" yaml:"generator_brands"`
	VectorGroups      map[string]int     `json:"vector_groups" yaml:"vector_groups"`
	Cooling           map[string]int     `json:"cooling_types" yaml:"cooling_types"`
	Fuels             map[string]int     `json:"fuel_types" yaml:"fuel_types"`
	FuelCapacityMW    map[string]float64 `json:"fuel_capacity_mw" yaml:"fuel_capacity_mw"`
	LoadTypes         map[string]int     `json:"load_types" yaml:"load_types"`

	Transformers []TransformerDetail `json:"transformers" yaml:"transformers"`
	Generators   []GeneratorDetail   `json:"generators" yaml:"generators"`
	Loads        []LoadDetail        `json:"loads" yaml:"loads"`
}

// TransformerDetail is the per-unit transformer entry.
type TransformerDetail struct {
	ID           string         `json:"id" yaml:"id"`
	FromBus      int            `json:"from_bus" yaml:"from_bus"`
	ToBus        int            `json:"to_bus" yaml:"to_bus"`
	TertiaryBus  int            `json:"tertiary_bus,omitempty" yaml:"tertiary_bus,omitempty"`
	Windings     int            `json:"windings" yaml:"windings"`
	VoltageRatio string         `json:"voltage_ratio" yaml:"voltage_ratio"`
	RatedMVA     []float64      `json:"rated_mva" yaml:"rated_mva"`
	Manufacturer string         `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	Model        string         `json:"model,omitempty" yaml:"model,omitempty"`
	VectorGroup  string         `json:"vector_group,omitempty" yaml:"vector_group,omitempty"`
	Cooling      string         `json:"cooling_type,omitempty" yaml:"cooling_type,omitempty"`
	Notes        []network.Note `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// GeneratorDetail is the per-unit generator entry. Estimated marks the
// values that were not read from the source record.
type GeneratorDetail struct {
	ID                string            `json:"id" yaml:"id"`
	Bus               int               `json:"bus" yaml:"bus"`
	Manufacturer      string            `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	Model             string            `json:"model,omitempty" yaml:"model,omitempty"`
	CapacityMW        float64           `json:"capacity_mw" yaml:"capacity_mw"`
	Fuel              network.FuelType  `json:"fuel_type" yaml:"fuel_type"`
	Efficiency        float64           `json:"efficiency" yaml:"efficiency"`
	CommissioningYear int               `json:"commissioning_year" yaml:"commissioning_year"`
	Estimated         network.Estimates `json:"estimated" yaml:"estimated"`
	Notes             []network.Note    `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// LoadDetail is the per-load entry.
type LoadDetail struct {
	ID            string                    `json:"id" yaml:"id"`
	Bus           int                       `json:"bus" yaml:"bus"`
	Type          network.LoadType          `json:"load_type" yaml:"load_type"`
	TypeEstimated bool                      `json:"load_type_estimated" yaml:"load_type_estimated"`
	Dependence    network.VoltageDependence `json:"voltage_dependence" yaml:"voltage_dependence"`
}

func buildEquipment(m *model.SystemModel) Equipment {
	eq := Equipment{
		TransformerBrands: map[string]int{},
		GeneratorBrands:   map[string]int{},
		VectorGroups:      map[string]int{},
		Cooling:           map[string]int{},
		Fuels:             map[string]int{},
		FuelCapacityMW:    map[string]float64{},
		LoadTypes:         map[string]int{},
		Transformers:      []TransformerDetail{},
		Generators:        []GeneratorDetail{},
		Loads:             []LoadDetail{},
	}

	for _, t := range m.Transformers() {
		countNonEmpty(eq.TransformerBrands, t.Manufacturer)
		countNonEmpty(eq.VectorGroups, t.VectorGroup)
		countNonEmpty(eq.Cooling, t.Cooling)
		eq.Transformers = append(eq.Transformers, TransformerDetail{
			ID:           transformerID(t),
			FromBus:      t.FromBus,
			ToBus:        t.ToBus,
			TertiaryBus:  t.TertiaryBus,
			Windings:     t.Windings,
			VoltageRatio: voltageRatio(m, t),
			RatedMVA:     t.RatedMVA,
			Manufacturer: t.Manufacturer,
			Model:        t.Model,
			VectorGroup:  t.VectorGroup,
			Cooling:      t.Cooling,
			Notes:        t.Notes,
		})
	}

	for _, g := range m.Generators() {
		countNonEmpty(eq.GeneratorBrands, g.Manufacturer)
		eq.Fuels[string(g.Fuel)]++
		eq.FuelCapacityMW[string(g.Fuel)] += g.CapacityMW
		eq.Generators = append(eq.Generators, GeneratorDetail{
			ID:                fmt.Sprintf("GEN_%d_%s", g.Bus, g.ID),
			Bus:               g.Bus,
			Manufacturer:      g.Manufacturer,
			Model:             g.Model,
			CapacityMW:        g.CapacityMW,
			Fuel:              g.Fuel,
			Efficiency:        g.Efficiency,
			CommissioningYear: g.CommissioningYear,
			Estimated:         g.Estimated,
			Notes:             g.Notes,
		})
	}

	for _, l := range m.Loads() {
		countNonEmpty(eq.LoadTypes, string(l.Type))
		eq.Loads = append(eq.Loads, LoadDetail{
			ID:            fmt.Sprintf("LOAD_%d_%s", l.Bus, l.ID),
			Bus:           l.Bus,
			Type:          l.Type,
			TypeEstimated: l.TypeEstimated,
			Dependence:    l.Dependence,
		})
	}
	return eq
}

func countNonEmpty(m map[string]int, key string) {
	if key != "" {
		m[key]++
	}
}

func transformerID(t network.Transformer) string {
	if t.Windings == 3 {
		return fmt.Sprintf("TX_%d_%d_%d_%s", t.FromBus, t.ToBus, t.TertiaryBus, t.Circuit)
	}
	return fmt.Sprintf("TX_%d_%d_%s", t.FromBus, t.ToBus, t.Circuit)
}

// voltageRatio renders the winding voltages, e.g. "132/33kV". A winding
// without a rated voltage uses its bus nominal.
func voltageRatio(m *model.SystemModel, t network.Transformer) string {
	parts := make([]string, 0, t.Windings)
	for i, n := range t.BusNumbers() {
		kv := 0.0
		if i < len(t.WindingKV) {
			kv = t.WindingKV[i]
		}
		if kv <= 0 {
			if b, ok := m.Bus(n); ok {
				kv = b.BaseKV
			}
		}
		parts = append(parts, fmt.Sprintf("%g", kv))
	}
	return strings.Join(parts, "/") + "kV"
}

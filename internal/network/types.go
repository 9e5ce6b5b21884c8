package network

import (
	"fmt"
	"slices"
)

// Entity is implemented by every typed power-system element.
type Entity interface {
	// Ref returns the reference used in diagnostics and duplicate detection.
	Ref() EntityRef
}

// Note is a remark attached to an entity while it is enriched. Notes
// become warnings during validation.
type Note struct {
	Code string `json:"code" yaml:"code"`
	Text string `json:"text" yaml:"text"`
}

// Provenance records where an entity came from in the source file.
type Provenance struct {
	Line int    `json:"-" yaml:"-"`
	Raw  string `json:"-" yaml:"-"`
}

// BusType is the load-flow role of a bus.
type BusType int

// Bus types, numbered as in the source record IDE field.
const (
	BusPQ    BusType = 1
	BusPV    BusType = 2
	BusSlack BusType = 3
)

// String returns the conventional label for the bus type.
func (t BusType) String() string {
	switch t {
	case BusPQ:
		return "PQ"
	case BusPV:
		return "PV"
	case BusSlack:
		return "Slack"
	default:
		return fmt.Sprintf("BusType(%d)", int(t))
	}
}

// Bus is an electrical node.
type Bus struct {
	Number           int     `json:"number"`
	Name             string  `json:"name"`
	BaseKV           float64 `json:"base_kv"`
	Type             BusType `json:"type"`
	Area             int     `json:"area"`
	Zone             int     `json:"zone"`
	Owner            int     `json:"owner"`
	VoltageMagnitude float64 `json:"voltage_magnitude"`
	VoltageAngle     float64 `json:"voltage_angle"`
	MaxVoltage       float64 `json:"max_voltage"`
	MinVoltage       float64 `json:"min_voltage"`

	Source Provenance `json:"-"`
}

// Ref implements Entity.
func (b Bus) Ref() EntityRef {
	return EntityRef{Kind: KindBus, Key: fmt.Sprintf("%d", b.Number), Line: b.Source.Line}
}

// Impedance is a series impedance in per unit on the equipment base.
type Impedance struct {
	R float64 `json:"r"`
	X float64 `json:"x"`
}

// TapChanger holds off-nominal ratio and tap range data.
type TapChanger struct {
	Ratio float64 `json:"ratio"`
	Max   float64 `json:"max"`
	Min   float64 `json:"min"`
	Steps int     `json:"steps"`
}

// WindingConfig is the parsed winding connection of a transformer, e.g.
// HV "YN", LV "d", Clock 11 for a YNd11 unit. TV and TVClock describe the
// tertiary winding of a three-winding unit (YNyn0d1).
type WindingConfig struct {
	HV      string `json:"hv,omitempty"`
	LV      string `json:"lv,omitempty"`
	TV      string `json:"tv,omitempty"`
	Clock   int    `json:"clock"`
	TVClock int    `json:"tv_clock,omitempty"`
	Raw     string `json:"raw,omitempty"`
}

// IsZero reports whether no winding configuration was given.
func (w WindingConfig) IsZero() bool {
	return w.Raw == "" && w.HV == "" && w.LV == ""
}

// Transformer is a two- or three-winding transformer.
type Transformer struct {
	Circuit     string `json:"circuit"`
	FromBus     int    `json:"from_bus"`
	ToBus       int    `json:"to_bus"`
	TertiaryBus int    `json:"tertiary_bus,omitempty"`
	Windings    int    `json:"windings"`

	// Impedances holds one pair (1-2) for two windings, or three pairs
	// (1-2, 2-3, 3-1) for three windings.
	Impedances []Impedance `json:"impedances"`
	RatedMVA   []float64   `json:"rated_mva"`
	Tap        *TapChanger `json:"tap,omitempty"`

	// WindingKV holds the rated voltage of each winding; zero means the
	// nominal voltage of the connected bus.
	WindingKV []float64 `json:"winding_kv"`

	Winding     WindingConfig `json:"winding"`
	VectorGroup string        `json:"vector_group,omitempty"`
	CoolingCode string        `json:"cooling_code,omitempty"`
	Cooling     string        `json:"cooling,omitempty"`

	Name         string `json:"name,omitempty"`
	Description  string `json:"description,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`

	// Notes are remarks added by equipment intelligence, such as an
	// unrecognised cooling code.
	Notes []Note `json:"notes,omitempty"`

	Source Provenance `json:"-"`
}

// Ref implements Entity.
func (t Transformer) Ref() EntityRef {
	key := fmt.Sprintf("%d-%d/%s", t.FromBus, t.ToBus, t.Circuit)
	if t.Windings == 3 {
		key = fmt.Sprintf("%d-%d-%d/%s", t.FromBus, t.ToBus, t.TertiaryBus, t.Circuit)
	}
	return EntityRef{Kind: KindTransformer, Key: key, Line: t.Source.Line}
}

// BusNumbers returns every bus the transformer connects.
func (t Transformer) BusNumbers() []int {
	if t.Windings == 3 {
		return []int{t.FromBus, t.ToBus, t.TertiaryBus}
	}
	return []int{t.FromBus, t.ToBus}
}

// PrimaryImpedance returns the 1-2 impedance.
func (t Transformer) PrimaryImpedance() Impedance {
	if len(t.Impedances) == 0 {
		return Impedance{}
	}
	return t.Impedances[0]
}

// Clone returns a copy that shares no slices with t.
func (t Transformer) Clone() Transformer {
	cpy := t
	cpy.Impedances = slices.Clone(t.Impedances)
	cpy.RatedMVA = slices.Clone(t.RatedMVA)
	cpy.WindingKV = slices.Clone(t.WindingKV)
	cpy.Notes = slices.Clone(t.Notes)
	if t.Tap != nil {
		tap := *t.Tap
		cpy.Tap = &tap
	}
	return cpy
}

// FuelType is the primary energy source of a generator.
type FuelType string

// Fuel types.
const (
	FuelUnknown    FuelType = "unknown"
	FuelCoal       FuelType = "coal"
	FuelGas        FuelType = "gas"
	FuelCCGT       FuelType = "combined_cycle_gas"
	FuelOil        FuelType = "oil"
	FuelDiesel     FuelType = "diesel"
	FuelNuclear    FuelType = "nuclear"
	FuelHydro      FuelType = "hydro"
	FuelWind       FuelType = "wind"
	FuelSolar      FuelType = "solar"
	FuelBiomass    FuelType = "biomass"
	FuelGeothermal FuelType = "geothermal"
)

// Estimates flags generator attributes that were estimated rather than
// read from the source record.
type Estimates struct {
	Capacity          bool `json:"capacity" yaml:"capacity"`
	Fuel              bool `json:"fuel" yaml:"fuel"`
	Efficiency        bool `json:"efficiency" yaml:"efficiency"`
	CommissioningYear bool `json:"commissioning_year" yaml:"commissioning_year"`
}

// Generator is a machine connected to a bus.
type Generator struct {
	Bus             int     `json:"bus"`
	ID              string  `json:"id"`
	PG              float64 `json:"pg"`
	QG              float64 `json:"qg"`
	QMax            float64 `json:"qmax"`
	QMin            float64 `json:"qmin"`
	VoltageSetpoint float64 `json:"voltage_setpoint"`
	MBase           float64 `json:"mbase"`

	// PMax and PMin are zero when absent from the source record.
	PMax    float64 `json:"pmax"`
	PMin    float64 `json:"pmin"`
	HasPMax bool    `json:"-"`

	CapacityMW        float64  `json:"capacity_mw"`
	Fuel              FuelType `json:"fuel"`
	FuelCode          string   `json:"fuel_code,omitempty"`
	Efficiency        float64  `json:"efficiency"`
	CommissioningYear int      `json:"commissioning_year"`

	// ParsedEfficiency is the efficiency given in the record before
	// clamping; zero when the record had none.
	ParsedEfficiency float64 `json:"-"`

	Manufacturer string    `json:"manufacturer,omitempty"`
	Model        string    `json:"model,omitempty"`
	Description  string    `json:"description,omitempty"`
	Estimated    Estimates `json:"estimated"`
	Notes        []Note    `json:"notes,omitempty"`

	Source Provenance `json:"-"`
}

// Ref implements Entity.
func (g Generator) Ref() EntityRef {
	return EntityRef{Kind: KindGenerator, Key: fmt.Sprintf("%d/%s", g.Bus, g.ID), Line: g.Source.Line}
}

// LoadType is the consumer class of a load.
type LoadType string

// Load types.
const (
	LoadResidential LoadType = "residential"
	LoadCommercial  LoadType = "commercial"
	LoadIndustrial  LoadType = "industrial"
)

// VoltageDependence tags how a load varies with bus voltage.
type VoltageDependence string

// Voltage dependence models, numbered 1-4 in the source record.
const (
	ConstantPower     VoltageDependence = "constant_power"
	ConstantCurrent   VoltageDependence = "constant_current"
	ConstantImpedance VoltageDependence = "constant_impedance"
	ZIP               VoltageDependence = "zip"
)

// Load is a demand connected to a bus.
type Load struct {
	Bus           int               `json:"bus"`
	ID            string            `json:"id"`
	PL            float64           `json:"pl"`
	QL            float64           `json:"ql"`
	Type          LoadType          `json:"type"`
	TypeCode      string            `json:"type_code,omitempty"`
	TypeEstimated bool              `json:"type_estimated"`
	Dependence    VoltageDependence `json:"voltage_dependence"`
	Area          int               `json:"area"`
	Zone          int               `json:"zone"`
	Description   string            `json:"description,omitempty"`
	Notes         []Note            `json:"notes,omitempty"`

	Source Provenance `json:"-"`
}

// Ref implements Entity.
func (l Load) Ref() EntityRef {
	return EntityRef{Kind: KindLoad, Key: fmt.Sprintf("%d/%s", l.Bus, l.ID), Line: l.Source.Line}
}

// Branch is a line or cable between two buses.
type Branch struct {
	FromBus     int     `json:"from_bus"`
	ToBus       int     `json:"to_bus"`
	Circuit     string  `json:"circuit"`
	R           float64 `json:"r"`
	X           float64 `json:"x"`
	B           float64 `json:"b"`
	RateA       float64 `json:"rate_a"`
	RateB       float64 `json:"rate_b"`
	RateC       float64 `json:"rate_c"`
	LengthKM    float64 `json:"length_km"`
	Description string  `json:"description,omitempty"`

	Source Provenance `json:"-"`
}

// Ref implements Entity.
func (b Branch) Ref() EntityRef {
	return EntityRef{Kind: KindBranch, Key: fmt.Sprintf("%d-%d/%s", b.FromBus, b.ToBus, b.Circuit), Line: b.Source.Line}
}

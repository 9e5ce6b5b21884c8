package ems

import (
	"fmt"
	"strings"

	"github.com/nerrad567/emsconvert/internal/network"
)

// Defaults applied to optional fields that are missing or uncoercible.
const (
	DefaultArea             = 1
	DefaultZone             = 1
	DefaultOwner            = 1
	DefaultVoltageMagnitude = 1.0
	DefaultVoltageAngle     = 0.0
	DefaultMaxVoltage       = 1.1
	DefaultMinVoltage       = 0.9

	DefaultQMax            = 9999.0
	DefaultQMin            = -9999.0
	DefaultVoltageSetpoint = 1.0
	DefaultMachineBase     = 100.0

	DefaultRatedMVA = 100.0
	DefaultTapRatio = 1.0
	DefaultTapMax   = 1.1
	DefaultTapMin   = 0.9
	DefaultTapSteps = 33

	DefaultIdentifier = "1"
)

// Builder converts classified records into network entities. It holds no
// state.
type Builder struct{}

// NewBuilder creates a Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build converts c into an entity. Data-quality problems never panic or
// abort: an entity that cannot be built is returned as nil with a
// *MalformedRecordError, and recoverable problems come back as warnings
// alongside the entity.
func (b *Builder) Build(c Classification) (network.Entity, []network.Issue, error) {
	f := newFieldSet(c.Record)

	var (
		entity network.Entity
		err    error
	)
	switch c.Kind {
	case KindBus:
		entity, err = f.bus()
	case KindLoad:
		entity, err = f.load()
	case KindGenerator:
		entity, err = f.generator()
	case KindBranch:
		entity, err = f.branch()
	case KindTransformer:
		if len(c.Record.Continuation) > 0 {
			entity, err = f.groupedTransformer()
		} else {
			entity, err = f.transformer()
		}
	default:
		err = f.malformed("", ErrUnsupportedRecord)
	}
	if err != nil {
		return nil, nil, err
	}
	return entity, f.warnings(entity.Ref()), nil
}

// fieldSet reads positional fields of one record and remembers optional
// fields that had to fall back to defaults.
type fieldSet struct {
	rec        Record
	positional []Field
	trailing   []string
	defaulted  []string
	unknown    []string

	// root is set on continuation lines.
	root *fieldSet
}

func newFieldSet(rec Record) *fieldSet {
	return &fieldSet{rec: rec, positional: rec.Fields}
}

// splitTrailing moves quoted fields at the end of the record (from index
// from onwards) into trailing text, e.g. names and descriptions.
func (f *fieldSet) splitTrailing(from int) {
	end := len(f.positional)
	for end > from && f.positional[end-1].Quoted {
		end--
	}
	for _, fld := range f.positional[end:] {
		f.trailing = append(f.trailing, strings.TrimSpace(fld.Text))
	}
	f.positional = f.positional[:end]
}

func (f *fieldSet) trailingText(i int) string {
	if i >= len(f.trailing) {
		return ""
	}
	return f.trailing[i]
}

func (f *fieldSet) raw(i int) (string, bool) {
	if i >= len(f.positional) {
		return "", false
	}
	text := strings.TrimSpace(f.positional[i].Text)
	return text, text != ""
}

func (f *fieldSet) text(i int) string {
	s, _ := f.raw(i)
	return s
}

func (f *fieldSet) number(i int, name string) (float64, error) {
	s, ok := f.raw(i)
	if !ok {
		return 0, f.malformed(name, ErrMissingField)
	}
	v, ok := parseNumber(s)
	if !ok {
		return 0, f.malformed(name, ErrInvalidField)
	}
	return v, nil
}

func (f *fieldSet) integer(i int, name string) (int, error) {
	s, ok := f.raw(i)
	if !ok {
		return 0, f.malformed(name, ErrMissingField)
	}
	v, ok := parseInteger(s)
	if !ok {
		return 0, f.malformed(name, ErrInvalidField)
	}
	return v, nil
}

func (f *fieldSet) optNumber(i int, name string, def float64) float64 {
	v, ok := f.optNumberOK(i, name)
	if !ok {
		return def
	}
	return v
}

// optNumberOK returns the field value and whether it was present and valid.
func (f *fieldSet) optNumberOK(i int, name string) (float64, bool) {
	s, ok := f.raw(i)
	if !ok {
		return 0, false
	}
	v, ok := parseNumber(s)
	if !ok {
		f.noteDefaulted(name, s)
		return 0, false
	}
	return v, true
}

func (f *fieldSet) optInteger(i int, name string, def int) int {
	s, ok := f.raw(i)
	if !ok {
		return def
	}
	v, ok := parseInteger(s)
	if !ok {
		f.noteDefaulted(name, s)
		return def
	}
	return v
}

func (f *fieldSet) noteDefaulted(name, text string) {
	if f.root != nil {
		f = f.root
	}
	f.defaulted = append(f.defaulted, fmt.Sprintf("%s=%q", name, text))
}

func (f *fieldSet) malformed(field string, err error) error {
	return &MalformedRecordError{Line: f.rec.Line, Raw: f.rec.Raw, Field: field, Err: err}
}

// continuation returns a field set over continuation line i. Defaulted fields are
// reported through f.
func (f *fieldSet) continuation(i int) *fieldSet {
	return &fieldSet{rec: f.rec.Continuation[i], positional: f.rec.Continuation[i].Fields, root: f}
}

func (f *fieldSet) warnings(ref network.EntityRef) []network.Issue {
	var out []network.Issue
	for _, d := range f.defaulted {
		out = append(out, network.Warning(network.CodeInvalidValue, ref, "uncoercible optional field %s replaced by default", d))
	}
	for _, u := range f.unknown {
		out = append(out, network.Warning(network.CodeUnknownCode, ref, "%s", u))
	}
	return out
}

func (f *fieldSet) provenance() network.Provenance {
	return network.Provenance{Line: f.rec.Line, Raw: f.rec.Raw}
}

func identifier(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return DefaultIdentifier
	}
	return s
}

// I 'NAME' BASKV IDE [AREA ZONE OWNER VM VA NVHI NVLO EVHI EVLO]
func (f *fieldSet) bus() (network.Bus, error) {
	number, err := f.integer(0, "I")
	if err != nil {
		return network.Bus{}, err
	}
	baseKV, err := f.number(2, "BASKV")
	if err != nil {
		return network.Bus{}, err
	}

	busType := network.BusType(f.optInteger(3, "IDE", int(network.BusPQ)))
	if busType < network.BusPQ || busType > network.BusSlack {
		f.unknown = append(f.unknown, fmt.Sprintf("bus type code %d treated as PQ", int(busType)))
		busType = network.BusPQ
	}

	name := f.text(1)
	if name == "" {
		name = fmt.Sprintf("BUS_%d", number)
	}

	return network.Bus{
		Number:           number,
		Name:             name,
		BaseKV:           baseKV,
		Type:             busType,
		Area:             f.optInteger(4, "AREA", DefaultArea),
		Zone:             f.optInteger(5, "ZONE", DefaultZone),
		Owner:            f.optInteger(6, "OWNER", DefaultOwner),
		VoltageMagnitude: f.optNumber(7, "VM", DefaultVoltageMagnitude),
		VoltageAngle:     f.optNumber(8, "VA", DefaultVoltageAngle),
		MaxVoltage:       f.optNumber(9, "NVHI", DefaultMaxVoltage),
		MinVoltage:       f.optNumber(10, "NVLO", DefaultMinVoltage),
		Source:           f.provenance(),
	}, nil
}

// I 'ID' PL QL [TYPE VDEP AREA ZONE] ['DESCRIPTION']
func (f *fieldSet) load() (network.Load, error) {
	f.splitTrailing(2)

	bus, err := f.integer(0, "I")
	if err != nil {
		return network.Load{}, err
	}
	pl, err := f.number(2, "PL")
	if err != nil {
		return network.Load{}, err
	}

	dep, known := voltageDependence(f.optInteger(5, "VDEP", 1))
	if !known {
		f.unknown = append(f.unknown, fmt.Sprintf("voltage dependence code %q treated as constant power", f.text(5)))
	}

	return network.Load{
		Bus:         bus,
		ID:          identifier(f.text(1)),
		PL:          pl,
		QL:          f.optNumber(3, "QL", 0),
		TypeCode:    f.text(4),
		Dependence:  dep,
		Area:        f.optInteger(6, "AREA", DefaultArea),
		Zone:        f.optInteger(7, "ZONE", DefaultZone),
		Description: f.trailingText(0),
		Source:      f.provenance(),
	}, nil
}

func voltageDependence(code int) (network.VoltageDependence, bool) {
	switch code {
	case 1:
		return network.ConstantPower, true
	case 2:
		return network.ConstantCurrent, true
	case 3:
		return network.ConstantImpedance, true
	case 4:
		return network.ZIP, true
	default:
		return network.ConstantPower, false
	}
}

// I 'ID' PG QG QT QB VS MBASE [PMAX PMIN FUEL EFF YEAR] ['DESCRIPTION']
func (f *fieldSet) generator() (network.Generator, error) {
	f.splitTrailing(2)

	bus, err := f.integer(0, "I")
	if err != nil {
		return network.Generator{}, err
	}
	pg, err := f.number(2, "PG")
	if err != nil {
		return network.Generator{}, err
	}

	g := network.Generator{
		Bus:             bus,
		ID:              identifier(f.text(1)),
		PG:              pg,
		QG:              f.optNumber(3, "QG", 0),
		QMax:            f.optNumber(4, "QT", DefaultQMax),
		QMin:            f.optNumber(5, "QB", DefaultQMin),
		VoltageSetpoint: f.optNumber(6, "VS", DefaultVoltageSetpoint),
		MBase:           f.optNumber(7, "MBASE", DefaultMachineBase),
		PMin:            f.optNumber(9, "PMIN", 0),
		FuelCode:        f.text(10),
		Description:     f.trailingText(0),
		Source:          f.provenance(),
	}
	g.PMax, g.HasPMax = f.optNumberOK(8, "PMAX")
	g.ParsedEfficiency = f.optNumber(11, "EFF", 0)
	g.CommissioningYear = f.optInteger(12, "YEAR", 0)
	return g, nil
}

// I J 'CKT' R X [B RATEA RATEB RATEC LEN] ['DESCRIPTION']
func (f *fieldSet) branch() (network.Branch, error) {
	f.splitTrailing(3)

	from, err := f.integer(0, "I")
	if err != nil {
		return network.Branch{}, err
	}
	to, err := f.integer(1, "J")
	if err != nil {
		return network.Branch{}, err
	}
	r, err := f.number(3, "R")
	if err != nil {
		return network.Branch{}, err
	}
	x, err := f.number(4, "X")
	if err != nil {
		return network.Branch{}, err
	}

	return network.Branch{
		FromBus:     from,
		ToBus:       to,
		Circuit:     identifier(f.text(2)),
		R:           r,
		X:           x,
		B:           f.optNumber(5, "B", 0),
		RateA:       f.optNumber(6, "RATEA", 0),
		RateB:       f.optNumber(7, "RATEB", 0),
		RateC:       f.optNumber(8, "RATEC", 0),
		LengthKM:    f.optNumber(9, "LEN", 0),
		Description: f.trailingText(0),
		Source:      f.provenance(),
	}, nil
}

// I J K 'CKT' NW <impedances> <ratings> [TAP RMAX RMIN NTP V1 V2 (V3) VECTOR COOLING] ['NAME' ['DESCRIPTION']]
//
// Two windings: impedances R X, ratings S. Three windings: impedances
// R12 X12 R23 X23 R31 X31, ratings S1 S2 S3, and V3 after V2.
func (f *fieldSet) transformer() (network.Transformer, error) {
	f.splitTrailing(4)

	from, err := f.integer(0, "I")
	if err != nil {
		return network.Transformer{}, err
	}
	to, err := f.integer(1, "J")
	if err != nil {
		return network.Transformer{}, err
	}
	tertiary := f.optInteger(2, "K", 0)
	windings, err := f.integer(4, "NW")
	if err != nil {
		return network.Transformer{}, err
	}

	switch {
	case windings != 2 && windings != 3:
		return network.Transformer{}, f.malformed("NW", ErrInvalidField)
	case windings == 3 && tertiary <= 0:
		return network.Transformer{}, f.malformed("K", ErrMissingField)
	case windings == 2 && tertiary != 0:
		return network.Transformer{}, f.malformed("K", ErrInvalidField)
	}

	t := network.Transformer{
		Circuit:     identifier(f.text(3)),
		FromBus:     from,
		ToBus:       to,
		TertiaryBus: tertiary,
		Windings:    windings,
		Name:        f.trailingText(0),
		Description: f.trailingText(1),
		Source:      f.provenance(),
	}

	pairs := 1
	if windings == 3 {
		pairs = 3
	}
	i := 5
	for p := 0; p < pairs; p++ {
		r, err := f.number(i, fmt.Sprintf("R%d", p+1))
		if err != nil {
			return network.Transformer{}, err
		}
		x, err := f.number(i+1, fmt.Sprintf("X%d", p+1))
		if err != nil {
			return network.Transformer{}, err
		}
		t.Impedances = append(t.Impedances, network.Impedance{R: r, X: x})
		i += 2
	}

	for w := 0; w < windings; w++ {
		t.RatedMVA = append(t.RatedMVA, f.optNumber(i, fmt.Sprintf("S%d", w+1), DefaultRatedMVA))
		i++
	}

	if _, present := f.raw(i); present {
		t.Tap = &network.TapChanger{
			Ratio: f.optNumber(i, "TAP", DefaultTapRatio),
			Max:   f.optNumber(i+1, "RMAX", DefaultTapMax),
			Min:   f.optNumber(i+2, "RMIN", DefaultTapMin),
			Steps: f.optInteger(i+3, "NTP", DefaultTapSteps),
		}
	}
	i += 4

	for w := 0; w < windings; w++ {
		t.WindingKV = append(t.WindingKV, f.optNumber(i, fmt.Sprintf("V%d", w+1), 0))
		i++
	}

	if vector := f.text(i); vector != "" {
		t.Winding = network.ParseWindingConfig(vector)
	}
	t.CoolingCode = f.text(i + 1)

	return t, nil
}

// Four-line layout, five lines for three windings:
//
//	I J K ['CKT' CW CZ CM MAG1 MAG2 NMETR 'NAME' STAT ...]
//	R1-2 X1-2 [SBASE1-2 R2-3 X2-3 SBASE2-3 R3-1 X3-1 SBASE3-1]
//	WINDV1 [NOMV1 ANG1 RATA1 RATB1 RATC1 COD1 CONT1 RMA1 RMI1 VMA1 VMI1 NTP1]
//	WINDV2 [NOMV2] ['NAME']
//	WINDV3 [NOMV3 ...]
//
// WINDV1 with RMA1, RMI1 and NTP1 form the tap changer. A winding is rated
// at its RATA when given, otherwise at SBASE1-2.
func (f *fieldSet) groupedTransformer() (network.Transformer, error) {
	from, err := f.integer(0, "I")
	if err != nil {
		return network.Transformer{}, err
	}
	to, err := f.integer(1, "J")
	if err != nil {
		return network.Transformer{}, err
	}
	tertiary := f.optInteger(2, "K", 0)

	windings := 2
	if tertiary > 0 {
		windings = 3
	}
	if len(f.rec.Continuation) != windings+1 {
		return network.Transformer{}, f.malformed("", ErrIncompleteRecord)
	}

	t := network.Transformer{
		Circuit:     identifier(f.text(3)),
		FromBus:     from,
		ToBus:       to,
		TertiaryBus: tertiary,
		Windings:    windings,
		Name:        f.nameAfter(4),
		Source:      f.provenance(),
	}

	imp := f.continuation(0)
	pairs := []int{0}
	if windings == 3 {
		pairs = []int{0, 3, 6}
	}
	for p, i := range pairs {
		r, err := imp.number(i, fmt.Sprintf("R%d", p+1))
		if err != nil {
			return network.Transformer{}, err
		}
		x, err := imp.number(i+1, fmt.Sprintf("X%d", p+1))
		if err != nil {
			return network.Transformer{}, err
		}
		t.Impedances = append(t.Impedances, network.Impedance{R: r, X: x})
	}
	sbase := imp.optNumber(2, "SBASE1-2", DefaultRatedMVA)

	for w := 0; w < windings; w++ {
		wl := f.continuation(w + 1)
		n := w + 1
		if w == 0 {
			ratio, err := wl.number(0, "WINDV1")
			if err != nil {
				return network.Transformer{}, err
			}
			t.Tap = &network.TapChanger{
				Ratio: ratio,
				Max:   wl.optNumber(8, "RMA1", DefaultTapMax),
				Min:   wl.optNumber(9, "RMI1", DefaultTapMin),
				Steps: wl.optInteger(12, "NTP1", DefaultTapSteps),
			}
		}
		t.WindingKV = append(t.WindingKV, wl.optNumber(1, fmt.Sprintf("NOMV%d", n), 0))

		rating := sbase
		if rata, ok := wl.optNumberOK(3, fmt.Sprintf("RATA%d", n)); ok && rata > 0 {
			rating = rata
		}
		t.RatedMVA = append(t.RatedMVA, rating)

		if t.Name == "" && w == 1 {
			t.Name = wl.nameAfter(2)
		}
	}

	return t, nil
}

// nameAfter returns the first text field at index from or later: a quoted
// field, or an unquoted one that is not a number.
func (f *fieldSet) nameAfter(from int) string {
	for i := from; i < len(f.positional); i++ {
		fld := f.positional[i]
		if fld.Quoted || !isNumeric(fld) {
			if name := strings.TrimSpace(fld.Text); name != "" {
				return name
			}
		}
	}
	return ""
}

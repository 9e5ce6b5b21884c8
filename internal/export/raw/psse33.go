package raw

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/nerrad567/emsconvert/internal/model"
	"github.com/nerrad567/emsconvert/internal/network"
)

// PSS/E v33 values for fields the source format does not carry.
const (
	psseNameWidth       = 12
	psseVectorWidth     = 12
	psseMaxVoltage      = 1.1
	psseMinVoltage      = 0.9
	psseFullScale       = 100.0
	psseInService       = 1
	psseDefaultOwner    = 1
	psseDefaultTapSteps = 33

	// CW, CZ and CM: turns ratio in pu of bus base, impedance on system
	// base, magnetising admittance in pu.
	psseWindingUnits    = 1
	psseImpedanceBase   = 1
	psseAdmittanceUnits = 1
)

// psse33 is the PSS/E version 33 layout.
func psse33() *Grammar {
	return &Grammar{
		Name:      "psse",
		Version:   semver.MustParse("33.0.0"),
		Separator: ",",
		Header:    psse33Header,

		Bus: Section[network.Bus]{
			Name: "BUS",
			Layouts: []Layout[network.Bus]{{
				Lines: [][]Column[network.Bus]{{
					Int("I", func(b network.Bus) int { return b.Number }),
					Quoted("NAME", psseNameWidth, func(b network.Bus) string { return b.Name }),
					Fixed("BASKV", 4, func(b network.Bus) float64 { return b.BaseKV }),
					Int("IDE", func(b network.Bus) int { return int(b.Type) }),
					Int("AREA", func(b network.Bus) int { return b.Area }),
					Int("ZONE", func(b network.Bus) int { return b.Zone }),
					Int("OWNER", func(b network.Bus) int { return b.Owner }),
					Fixed("VM", 5, func(b network.Bus) float64 { return b.VoltageMagnitude }),
					Fixed("VA", 4, func(b network.Bus) float64 { return b.VoltageAngle }),
					Fixed("NVHI", 5, func(b network.Bus) float64 { return b.MaxVoltage }),
					Fixed("NVLO", 5, func(b network.Bus) float64 { return b.MinVoltage }),
					Fixed("EVHI", 5, func(b network.Bus) float64 { return b.MaxVoltage }),
					Fixed("EVLO", 5, func(b network.Bus) float64 { return b.MinVoltage }),
				}},
			}},
		},

		Load: Section[network.Load]{
			Name: "LOAD",
			Layouts: []Layout[network.Load]{{
				Lines: [][]Column[network.Load]{{
					Int("I", func(l network.Load) int { return l.Bus }),
					Quoted("ID", 2, func(l network.Load) string { return l.ID }),
					Const[network.Load]("STATUS", "1"),
					Int("AREA", func(l network.Load) int { return l.Area }),
					Int("ZONE", func(l network.Load) int { return l.Zone }),
					Fixed("PL", 3, func(l network.Load) float64 { return loadPart(l, network.ConstantPower, l.PL) }),
					Fixed("QL", 3, func(l network.Load) float64 { return loadPart(l, network.ConstantPower, l.QL) }),
					Fixed("IP", 3, func(l network.Load) float64 { return loadPart(l, network.ConstantCurrent, l.PL) }),
					Fixed("IQ", 3, func(l network.Load) float64 { return loadPart(l, network.ConstantCurrent, l.QL) }),
					Fixed("YP", 3, func(l network.Load) float64 { return loadPart(l, network.ConstantImpedance, l.PL) }),
					Fixed("YQ", 3, func(l network.Load) float64 { return loadPart(l, network.ConstantImpedance, l.QL) }),
					Int("OWNER", func(network.Load) int { return psseDefaultOwner }),
					Const[network.Load]("SCALE", "1"),
					Const[network.Load]("INTRPT", "0"),
				}},
			}},
		},

		Generator: Section[network.Generator]{
			Name: "GENERATOR",
			Layouts: []Layout[network.Generator]{{
				Lines: [][]Column[network.Generator]{{
					Int("I", func(g network.Generator) int { return g.Bus }),
					Quoted("ID", 2, func(g network.Generator) string { return g.ID }),
					Fixed("PG", 3, func(g network.Generator) float64 { return g.PG }),
					Fixed("QG", 3, func(g network.Generator) float64 { return g.QG }),
					Fixed("QT", 3, func(g network.Generator) float64 { return g.QMax }),
					Fixed("QB", 3, func(g network.Generator) float64 { return g.QMin }),
					Fixed("VS", 5, func(g network.Generator) float64 { return g.VoltageSetpoint }),
					Const[network.Generator]("IREG", "0"),
					Fixed("MBASE", 3, func(g network.Generator) float64 { return g.MBase }),
					Fixed("ZR", 5, func(network.Generator) float64 { return 0 }),
					Fixed("ZX", 5, func(network.Generator) float64 { return 1 }),
					Fixed("RT", 5, func(network.Generator) float64 { return 0 }),
					Fixed("XT", 5, func(network.Generator) float64 { return 0 }),
					Fixed("GTAP", 5, func(network.Generator) float64 { return 1 }),
					Int("STAT", func(network.Generator) int { return psseInService }),
					Fixed("RMPCT", 1, func(network.Generator) float64 { return psseFullScale }),
					Fixed("PT", 3, func(g network.Generator) float64 { return g.CapacityMW }),
					Fixed("PB", 3, func(g network.Generator) float64 { return g.PMin }),
					Int("O1", func(network.Generator) int { return psseDefaultOwner }),
					Fixed("F1", 4, func(network.Generator) float64 { return 1 }),
				}},
			}},
		},

		Branch: Section[network.Branch]{
			Name: "BRANCH",
			Layouts: []Layout[network.Branch]{{
				Lines: [][]Column[network.Branch]{{
					Int("I", func(b network.Branch) int { return b.FromBus }),
					Int("J", func(b network.Branch) int { return b.ToBus }),
					Quoted("CKT", 2, func(b network.Branch) string { return b.Circuit }),
					Fixed("R", 6, func(b network.Branch) float64 { return b.R }),
					Fixed("X", 6, func(b network.Branch) float64 { return b.X }),
					Fixed("B", 6, func(b network.Branch) float64 { return b.B }),
					Fixed("RATEA", 2, func(b network.Branch) float64 { return b.RateA }),
					Fixed("RATEB", 2, func(b network.Branch) float64 { return b.RateB }),
					Fixed("RATEC", 2, func(b network.Branch) float64 { return b.RateC }),
					Fixed("GI", 5, func(network.Branch) float64 { return 0 }),
					Fixed("BI", 5, func(network.Branch) float64 { return 0 }),
					Fixed("GJ", 5, func(network.Branch) float64 { return 0 }),
					Fixed("BJ", 5, func(network.Branch) float64 { return 0 }),
					Int("ST", func(network.Branch) int { return psseInService }),
					Const[network.Branch]("MET", "1"),
					Fixed("LEN", 3, func(b network.Branch) float64 { return b.LengthKM }),
					Int("O1", func(network.Branch) int { return psseDefaultOwner }),
					Fixed("F1", 4, func(network.Branch) float64 { return 1 }),
				}},
			}},
		},

		Transformer: Section[network.Transformer]{
			Name: "TRANSFORMER",
			Layouts: []Layout[network.Transformer]{
				{
					When: func(t network.Transformer) bool { return t.Windings == 3 },
					Lines: [][]Column[network.Transformer]{
						psse33TransformerID(),
						{
							Fixed("R1-2", 6, impedanceR(0)),
							Fixed("X1-2", 6, impedanceX(0)),
							Fixed("SBASE1-2", 2, rating(0)),
							Fixed("R2-3", 6, impedanceR(1)),
							Fixed("X2-3", 6, impedanceX(1)),
							Fixed("SBASE2-3", 2, rating(1)),
							Fixed("R3-1", 6, impedanceR(2)),
							Fixed("X3-1", 6, impedanceX(2)),
							Fixed("SBASE3-1", 2, rating(2)),
							Fixed("VMSTAR", 5, func(network.Transformer) float64 { return 1 }),
							Fixed("ANSTAR", 4, func(network.Transformer) float64 { return 0 }),
						},
						psse33Winding(0),
						psse33Winding(1),
						psse33Winding(2),
					},
				},
				{
					Lines: [][]Column[network.Transformer]{
						psse33TransformerID(),
						{
							Fixed("R1-2", 6, impedanceR(0)),
							Fixed("X1-2", 6, impedanceX(0)),
							Fixed("SBASE1-2", 2, rating(0)),
						},
						psse33Winding(0),
						{
							Fixed("WINDV2", 5, func(network.Transformer) float64 { return 1 }),
							Fixed("NOMV2", 3, windingKV(1)),
						},
					},
				},
			},
		},

		EmptyAfter: map[network.Kind][]string{
			network.KindLoad: {"FIXED SHUNT"},
			network.KindTransformer: {
				"AREA", "TWO-TERMINAL DC", "VSC DC LINE", "IMPEDANCE CORRECTION",
				"MULTI-TERMINAL DC", "MULTI-SECTION LINE", "ZONE", "INTER-AREA TRANSFER",
				"OWNER", "FACTS DEVICE", "SWITCHED SHUNT", "GNE DEVICE", "INDUCTION MACHINE",
			},
		},
		Trailer: []string{"Q"},
	}
}

func psse33Header(info model.ConversionInfo) []string {
	stamp := ""
	if !info.ConvertedAt.IsZero() {
		stamp = info.ConvertedAt.UTC().Format("Mon, Jan 02 2006 15:04")
	}
	first := fmt.Sprintf("0,%s,33,0,1,%s / PSS(R)E-33 RAW created by emsconvert %s %s",
		fixed(info.SystemBaseMVA, 2), fixed(info.BaseFrequency, 2), info.ConverterVersion, stamp)

	titles := []string{
		"Converted from " + info.SourceName,
		"Run " + info.RunID,
	}
	for i := 0; i < len(titles) && i < len(info.Titles); i++ {
		if info.Titles[i] != "" {
			titles[i] = info.Titles[i]
		}
	}
	return []string{trimRight(first), titles[0], titles[1]}
}

// psse33TransformerID is record line 1: I,J,K,'CKT',CW,CZ,CM,MAG1,MAG2,NMETR,'NAME',STAT,O1,F1,VECGRP.
func psse33TransformerID() []Column[network.Transformer] {
	return []Column[network.Transformer]{
		Int("I", func(t network.Transformer) int { return t.FromBus }),
		Int("J", func(t network.Transformer) int { return t.ToBus }),
		Int("K", func(t network.Transformer) int { return t.TertiaryBus }),
		Quoted("CKT", 2, func(t network.Transformer) string { return t.Circuit }),
		Int("CW", func(network.Transformer) int { return psseWindingUnits }),
		Int("CZ", func(network.Transformer) int { return psseImpedanceBase }),
		Int("CM", func(network.Transformer) int { return psseAdmittanceUnits }),
		Fixed("MAG1", 5, func(network.Transformer) float64 { return 0 }),
		Fixed("MAG2", 5, func(network.Transformer) float64 { return 0 }),
		Const[network.Transformer]("NMETR", "2"),
		Quoted("NAME", psseNameWidth, func(t network.Transformer) string { return t.Name }),
		Int("STAT", func(network.Transformer) int { return psseInService }),
		Int("O1", func(network.Transformer) int { return psseDefaultOwner }),
		Fixed("F1", 4, func(network.Transformer) float64 { return 1 }),
		Quoted("VECGRP", psseVectorWidth, func(t network.Transformer) string { return t.VectorGroup }),
	}
}

// psse33Winding is a full winding line:
// WINDV,NOMV,ANG,RATA,RATB,RATC,COD,CONT,RMA,RMI,VMA,VMI,NTP,TAB,CR,CX,CNXA.
// Only winding 1 carries the tap changer.
func psse33Winding(w int) []Column[network.Transformer] {
	n := w + 1
	name := func(s string) string { return fmt.Sprintf("%s%d", s, n) }
	tap := func(t network.Transformer) *network.TapChanger {
		if w != 0 {
			return nil
		}
		return t.Tap
	}
	return []Column[network.Transformer]{
		Fixed(name("WINDV"), 5, func(t network.Transformer) float64 {
			if tc := tap(t); tc != nil {
				return tc.Ratio
			}
			return 1
		}),
		Fixed(name("NOMV"), 3, windingKV(w)),
		Fixed(name("ANG"), 3, func(network.Transformer) float64 { return 0 }),
		Fixed(name("RATA"), 2, rating(w)),
		Fixed(name("RATB"), 2, rating(w)),
		Fixed(name("RATC"), 2, rating(w)),
		Int(name("COD"), func(t network.Transformer) int {
			if tap(t) != nil {
				return 1
			}
			return 0
		}),
		Const[network.Transformer](name("CONT"), "0"),
		Fixed(name("RMA"), 5, func(t network.Transformer) float64 {
			if tc := tap(t); tc != nil {
				return tc.Max
			}
			return psseMaxVoltage
		}),
		Fixed(name("RMI"), 5, func(t network.Transformer) float64 {
			if tc := tap(t); tc != nil {
				return tc.Min
			}
			return psseMinVoltage
		}),
		Fixed(name("VMA"), 5, func(network.Transformer) float64 { return psseMaxVoltage }),
		Fixed(name("VMI"), 5, func(network.Transformer) float64 { return psseMinVoltage }),
		Int(name("NTP"), func(t network.Transformer) int {
			if tc := tap(t); tc != nil {
				return tc.Steps
			}
			return psseDefaultTapSteps
		}),
		Const[network.Transformer](name("TAB"), "0"),
		Fixed(name("CR"), 5, func(network.Transformer) float64 { return 0 }),
		Fixed(name("CX"), 5, func(network.Transformer) float64 { return 0 }),
		Fixed(name("CNXA"), 3, func(network.Transformer) float64 { return 0 }),
	}
}

// loadPart returns value when the load uses model dep, zero otherwise.
// ZIP loads are written as constant power.
func loadPart(l network.Load, dep network.VoltageDependence, value float64) float64 {
	actual := l.Dependence
	if actual == network.ZIP || actual == "" {
		actual = network.ConstantPower
	}
	if actual != dep {
		return 0
	}
	return value
}

func impedanceR(i int) func(network.Transformer) float64 {
	return func(t network.Transformer) float64 {
		if i >= len(t.Impedances) {
			return 0
		}
		return t.Impedances[i].R
	}
}

func impedanceX(i int) func(network.Transformer) float64 {
	return func(t network.Transformer) float64 {
		if i >= len(t.Impedances) {
			return 0
		}
		return t.Impedances[i].X
	}
}

func rating(i int) func(network.Transformer) float64 {
	return func(t network.Transformer) float64 {
		if i >= len(t.RatedMVA) {
			return 0
		}
		return t.RatedMVA[i]
	}
}

func windingKV(i int) func(network.Transformer) float64 {
	return func(t network.Transformer) float64 {
		if i >= len(t.WindingKV) {
			return 0
		}
		return t.WindingKV[i]
	}
}

package raw

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/nerrad567/emsconvert/internal/model"
	"github.com/nerrad567/emsconvert/internal/network"
)

// psse30 is the compact layout written by earlier converter releases:
// one line per record, titled sections and a blank line between them.
func psse30() *Grammar {
	return &Grammar{
		Name:      "psse",
		Version:   semver.MustParse("30.0.0"),
		Separator: ", ",
		Header:    psse30Header,

		Bus: Section[network.Bus]{
			Name:  "BUS",
			Title: "/BUS DATA",
			Layouts: []Layout[network.Bus]{{
				Lines: [][]Column[network.Bus]{{
					Int("I", func(b network.Bus) int { return b.Number }),
					Quoted("NAME", 0, func(b network.Bus) string { return b.Name }),
					Fixed("BASKV", 2, func(b network.Bus) float64 { return b.BaseKV }),
					Int("IDE", func(b network.Bus) int { return int(b.Type) }),
					Fixed("VM", 4, func(b network.Bus) float64 { return b.VoltageMagnitude }),
					Fixed("VA", 3, func(b network.Bus) float64 { return b.VoltageAngle }),
					Int("AREA", func(b network.Bus) int { return b.Area }),
					Int("ZONE", func(b network.Bus) int { return b.Zone }),
					Fixed("VMAX", 3, func(b network.Bus) float64 { return b.MaxVoltage }),
					Fixed("VMIN", 3, func(b network.Bus) float64 { return b.MinVoltage }),
				}},
			}},
		},

		Load: Section[network.Load]{
			Name:  "LOAD",
			Title: "/LOAD DATA",
			Layouts: []Layout[network.Load]{{
				Lines: [][]Column[network.Load]{{
					Int("I", func(l network.Load) int { return l.Bus }),
					Quoted("ID", 0, func(l network.Load) string { return l.ID }),
					Fixed("PL", 2, func(l network.Load) float64 { return l.PL }),
					Fixed("QL", 2, func(l network.Load) float64 { return l.QL }),
					Int("TYPE", func(l network.Load) int { return loadTypeCode(l.Type) }),
					Int("VDEP", func(l network.Load) int { return dependenceCode(l.Dependence) }),
					Int("AREA", func(l network.Load) int { return l.Area }),
					Int("ZONE", func(l network.Load) int { return l.Zone }),
				}},
			}},
		},

		Generator: Section[network.Generator]{
			Name:  "GENERATOR",
			Title: "/GENERATOR DATA",
			Layouts: []Layout[network.Generator]{{
				Lines: [][]Column[network.Generator]{{
					Int("I", func(g network.Generator) int { return g.Bus }),
					Quoted("ID", 0, func(g network.Generator) string { return g.ID }),
					Fixed("PG", 2, func(g network.Generator) float64 { return g.PG }),
					Fixed("QG", 2, func(g network.Generator) float64 { return g.QG }),
					Fixed("QT", 2, func(g network.Generator) float64 { return g.QMax }),
					Fixed("QB", 2, func(g network.Generator) float64 { return g.QMin }),
					Fixed("VS", 4, func(g network.Generator) float64 { return g.VoltageSetpoint }),
					Fixed("MBASE", 2, func(g network.Generator) float64 { return g.MBase }),
				}},
			}},
		},

		Branch: Section[network.Branch]{
			Name:  "BRANCH",
			Title: "/BRANCH DATA",
			Layouts: []Layout[network.Branch]{{
				Lines: [][]Column[network.Branch]{{
					Int("I", func(b network.Branch) int { return b.FromBus }),
					Int("J", func(b network.Branch) int { return b.ToBus }),
					Quoted("CKT", 0, func(b network.Branch) string { return b.Circuit }),
					Fixed("R", 6, func(b network.Branch) float64 { return b.R }),
					Fixed("X", 6, func(b network.Branch) float64 { return b.X }),
					Fixed("B", 6, func(b network.Branch) float64 { return b.B }),
					Fixed("RATE", 2, func(b network.Branch) float64 { return b.RateA }),
				}},
			}},
		},

		Transformer: Section[network.Transformer]{
			Name:  "TRANSFORMER",
			Title: "/TRANSFORMER DATA",
			Layouts: []Layout[network.Transformer]{{
				Lines: [][]Column[network.Transformer]{{
					Int("I", func(t network.Transformer) int { return t.FromBus }),
					Int("J", func(t network.Transformer) int { return t.ToBus }),
					Quoted("CKT", 0, func(t network.Transformer) string { return t.Circuit }),
					Int("NW", func(t network.Transformer) int { return t.Windings }),
					Int("CONTROL", func(t network.Transformer) int {
						if t.Tap != nil {
							return 1
						}
						return 0
					}),
					Fixed("R", 6, impedanceR(0)),
					Fixed("X", 6, impedanceX(0)),
					Fixed("SBASE", 2, rating(0)),
				}},
			}},
		},

		BlankLineAfterSection: true,
	}
}

func psse30Header(info model.ConversionInfo) []string {
	return []string{
		fmt.Sprintf("0, %s, 30 / PowerFactory RAW File", fixed(info.BaseFrequency, 1)),
		fmt.Sprintf("Converted from %s on %s", info.SourceName, info.ConvertedAt.Format("2006-01-02 15:04:05")),
		fmt.Sprintf("Base frequency: %s Hz", fixed(info.BaseFrequency, 3)),
		"",
	}
}

func loadTypeCode(t network.LoadType) int {
	switch t {
	case network.LoadCommercial:
		return 2
	case network.LoadIndustrial:
		return 3
	default:
		return 1
	}
}

func dependenceCode(d network.VoltageDependence) int {
	switch d {
	case network.ConstantCurrent:
		return 2
	case network.ConstantImpedance:
		return 3
	case network.ZIP:
		return 4
	default:
		return 1
	}
}

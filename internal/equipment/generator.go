package equipment

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nerrad567/emsconvert/internal/network"
)

// Plausible ranges for generator estimates.
const (
	MinEfficiency = 0.2
	MaxEfficiency = 0.99

	MinCommissioningYear = 1950
)

// fuelCodes maps FUEL field codes to fuel types.
var fuelCodes = map[string]network.FuelType{
	"COAL":       network.FuelCoal,
	"LIGNITE":    network.FuelCoal,
	"GAS":        network.FuelGas,
	"NG":         network.FuelGas,
	"OCGT":       network.FuelGas,
	"GT":         network.FuelGas,
	"CCGT":       network.FuelCCGT,
	"CC":         network.FuelCCGT,
	"OIL":        network.FuelOil,
	"HFO":        network.FuelOil,
	"DIESEL":     network.FuelDiesel,
	"NUCLEAR":    network.FuelNuclear,
	"HYDRO":      network.FuelHydro,
	"WIND":       network.FuelWind,
	"SOLAR":      network.FuelSolar,
	"PV":         network.FuelSolar,
	"BIOMASS":    network.FuelBiomass,
	"GEOTHERMAL": network.FuelGeothermal,
}

// fuelKeyword ties a description keyword to a fuel. Order matters:
// combined cycle must be tested before plain gas.
type fuelKeyword struct {
	pattern *regexp.Regexp
	fuel    network.FuelType
}

var fuelKeywords = []fuelKeyword{
	{regexp.MustCompile(`(?i)\b(ccgt|combined[\s-]+cycle)\b`), network.FuelCCGT},
	{regexp.MustCompile(`(?i)\b(nuclear|reactor|pwr|bwr)\b`), network.FuelNuclear},
	{regexp.MustCompile(`(?i)\b(coal|lignite)\b`), network.FuelCoal},
	{regexp.MustCompile(`(?i)\b(gas|ocgt|gas[\s-]+turbine)\b`), network.FuelGas},
	{regexp.MustCompile(`(?i)\bdiesel\b`), network.FuelDiesel},
	{regexp.MustCompile(`(?i)\b(oil|hfo)\b`), network.FuelOil},
	{regexp.MustCompile(`(?i)\b(hydro|pumped[\s-]+storage|dam)\b`), network.FuelHydro},
	{regexp.MustCompile(`(?i)\b(wind|wtg|turbine[\s-]+farm)\b`), network.FuelWind},
	{regexp.MustCompile(`(?i)\b(solar|pv|photovoltaic)\b`), network.FuelSolar},
	{regexp.MustCompile(`(?i)\b(biomass|biogas|wood)\b`), network.FuelBiomass},
	{regexp.MustCompile(`(?i)\bgeothermal\b`), network.FuelGeothermal},
}

// typicalEfficiency is the fleet-average efficiency per fuel.
var typicalEfficiency = map[network.FuelType]float64{
	network.FuelCoal:       0.38,
	network.FuelGas:        0.35,
	network.FuelCCGT:       0.55,
	network.FuelOil:        0.33,
	network.FuelDiesel:     0.40,
	network.FuelNuclear:    0.33,
	network.FuelHydro:      0.90,
	network.FuelWind:       0.45,
	network.FuelSolar:      0.20,
	network.FuelBiomass:    0.30,
	network.FuelGeothermal: 0.20,
	network.FuelUnknown:    0.35,
}

// typicalYear is a representative commissioning year per fuel.
var typicalYear = map[network.FuelType]int{
	network.FuelCoal:       1980,
	network.FuelGas:        1995,
	network.FuelCCGT:       2005,
	network.FuelOil:        1975,
	network.FuelDiesel:     1995,
	network.FuelNuclear:    1985,
	network.FuelHydro:      1970,
	network.FuelWind:       2012,
	network.FuelSolar:      2016,
	network.FuelBiomass:    2008,
	network.FuelGeothermal: 1995,
	network.FuelUnknown:    2000,
}

var yearPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// FuelFromCode returns the fuel for a FUEL field code.
func FuelFromCode(code string) (network.FuelType, bool) {
	f, ok := fuelCodes[strings.ToUpper(strings.TrimSpace(code))]
	return f, ok
}

// FuelFromDescription infers the fuel from description keywords.
func FuelFromDescription(desc string) (network.FuelType, bool) {
	for _, k := range fuelKeywords {
		if k.pattern.MatchString(desc) {
			return k.fuel, true
		}
	}
	return network.FuelUnknown, false
}

// TypicalEfficiency returns the table efficiency for a fuel.
func TypicalEfficiency(f network.FuelType) float64 {
	if e, ok := typicalEfficiency[f]; ok {
		return e
	}
	return typicalEfficiency[network.FuelUnknown]
}

// TypicalYear returns the table commissioning year for a fuel.
func TypicalYear(f network.FuelType) int {
	if y, ok := typicalYear[f]; ok {
		return y
	}
	return typicalYear[network.FuelUnknown]
}

// yearFromDescription returns the first plausible four-digit year in desc.
func yearFromDescription(desc string) (int, bool) {
	m := yearPattern.FindString(desc)
	if m == "" {
		return 0, false
	}
	y, err := strconv.Atoi(m)
	return y, err == nil
}

// normaliseEfficiency turns a percentage into a fraction.
func normaliseEfficiency(e float64) float64 {
	if e > 1 {
		return e / 100
	}
	return e
}

func clampFloat(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

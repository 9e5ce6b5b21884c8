package equipment

import (
	"regexp"
	"strings"

	"github.com/nerrad567/emsconvert/internal/network"
)

// Demand thresholds for size-based load classification, in MW.
const (
	IndustrialLoadMW = 20.0
	CommercialLoadMW = 5.0
)

var loadTypeCodes = map[string]network.LoadType{
	"1":           network.LoadResidential,
	"R":           network.LoadResidential,
	"RES":         network.LoadResidential,
	"RESIDENTIAL": network.LoadResidential,
	"2":           network.LoadCommercial,
	"C":           network.LoadCommercial,
	"COM":         network.LoadCommercial,
	"COMMERCIAL":  network.LoadCommercial,
	"3":           network.LoadIndustrial,
	"I":           network.LoadIndustrial,
	"IND":         network.LoadIndustrial,
	"INDUSTRIAL":  network.LoadIndustrial,
}

var loadKeywords = []struct {
	pattern *regexp.Regexp
	kind    network.LoadType
}{
	{regexp.MustCompile(`(?i)\b(industr\w*|factory|plant|mill|smelter|refinery|mine|works)\b`), network.LoadIndustrial},
	{regexp.MustCompile(`(?i)\b(commercial|office|mall|retail|shop\w*|hospital|school|campus|data\s*cent(er|re))\b`), network.LoadCommercial},
	{regexp.MustCompile(`(?i)\b(residential|domestic|housing|homes?|village|suburb\w*|town)\b`), network.LoadResidential},
}

// LoadTypeFromCode maps a TYPE field code to a load type.
func LoadTypeFromCode(code string) (network.LoadType, bool) {
	t, ok := loadTypeCodes[strings.ToUpper(strings.TrimSpace(code))]
	return t, ok
}

// LoadTypeFromDescription infers a load type from description keywords.
func LoadTypeFromDescription(desc string) (network.LoadType, bool) {
	for _, k := range loadKeywords {
		if k.pattern.MatchString(desc) {
			return k.kind, true
		}
	}
	return "", false
}

// LoadTypeFromSize classifies a load by its active demand.
func LoadTypeFromSize(pl float64) network.LoadType {
	switch {
	case pl >= IndustrialLoadMW:
		return network.LoadIndustrial
	case pl >= CommercialLoadMW:
		return network.LoadCommercial
	default:
		return network.LoadResidential
	}
}

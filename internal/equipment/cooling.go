package equipment

import "strings"

// Canonical cooling labels.
const (
	CoolingONAN = "ONAN"
	CoolingONAF = "ONAF"
	CoolingOFAF = "OFAF"
	CoolingODAF = "ODAF"
	CoolingOFWF = "OFWF"
	CoolingODWF = "ODWF"
	CoolingKNAN = "KNAN"
	CoolingKNAF = "KNAF"
	CoolingAN   = "AN"
	CoolingAF   = "AF"
)

// coolingCodes maps numeric EMS codes, IEC labels and ANSI/IEEE aliases to
// the canonical IEC label.
var coolingCodes = map[string]string{
	"1": CoolingONAN,
	"2": CoolingONAF,
	"3": CoolingOFAF,
	"4": CoolingODAF,
	"5": CoolingOFWF,
	"6": CoolingODWF,

	CoolingONAN: CoolingONAN,
	CoolingONAF: CoolingONAF,
	CoolingOFAF: CoolingOFAF,
	CoolingODAF: CoolingODAF,
	CoolingOFWF: CoolingOFWF,
	CoolingODWF: CoolingODWF,
	CoolingKNAN: CoolingKNAN,
	CoolingKNAF: CoolingKNAF,
	CoolingAN:   CoolingAN,
	CoolingAF:   CoolingAF,

	// ANSI/IEEE C57.12
	"OA":  CoolingONAN,
	"FA":  CoolingONAF,
	"FOA": CoolingOFAF,
	"FOW": CoolingOFWF,
	"OW":  CoolingOFWF,
	"AA":  CoolingAN,
	"AFA": CoolingAF,
}

// Cooling normalises a cooling code. Dual or triple ratings such as
// "ONAN/ONAF" or "OA/FA/FA" are normalised part by part. ok is false when
// any part is unknown; the caller keeps the raw code in that case.
func Cooling(code string) (label string, ok bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}

	parts := strings.Split(code, "/")
	for i, p := range parts {
		canonical, known := coolingCodes[strings.ToUpper(strings.TrimSpace(p))]
		if !known {
			return "", false
		}
		parts[i] = canonical
	}
	return strings.Join(parts, "/"), true
}

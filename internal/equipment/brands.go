package equipment

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// regexPrefix marks a keyword that is a regular expression.
const regexPrefix = "re:"

// BrandTable maps manufacturer keywords to canonical brand names. It is
// immutable once built and safe for concurrent use.
type BrandTable struct {
	entries []brandEntry
	brands  []string
}

type brandEntry struct {
	brand   string
	keyword string
	pattern *regexp.Regexp
}

// BrandMatch is the result of a successful brand search.
type BrandMatch struct {
	Brand   string
	Keyword string

	// Model is the text that follows the matched keyword, trimmed.
	Model string
}

// brandFile is the YAML layout of a brand table file.
type brandFile struct {
	Brands map[string][]string `yaml:"brands"`
}

// NewBrandTable builds a table from brand name to keywords.
func NewBrandTable(brands map[string][]string) (*BrandTable, error) {
	t := &BrandTable{}
	for brand, keywords := range brands {
		brand = strings.TrimSpace(brand)
		if brand == "" {
			return nil, fmt.Errorf("%w: empty brand name", ErrInvalidBrandTable)
		}
		if len(keywords) == 0 {
			return nil, fmt.Errorf("%w: brand %q has no keywords", ErrInvalidBrandTable, brand)
		}
		for _, kw := range keywords {
			pattern, err := compileKeyword(kw)
			if err != nil {
				return nil, fmt.Errorf("%w: brand %q: %w", ErrInvalidBrandTable, brand, err)
			}
			t.entries = append(t.entries, brandEntry{brand: brand, keyword: strings.TrimSpace(kw), pattern: pattern})
		}
		t.brands = append(t.brands, brand)
	}

	sort.Strings(t.brands)
	sort.Slice(t.entries, func(i, j int) bool {
		if t.entries[i].brand != t.entries[j].brand {
			return t.entries[i].brand < t.entries[j].brand
		}
		return t.entries[i].keyword < t.entries[j].keyword
	})
	return t, nil
}

// LoadBrandTable reads a YAML brand table file.
func LoadBrandTable(path string) (*BrandTable, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator's config
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBrandTableRead, err)
	}

	var f brandFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrBrandTableRead, path, err)
	}
	if len(f.Brands) == 0 {
		return nil, fmt.Errorf("%w: %s defines no brands", ErrInvalidBrandTable, path)
	}
	return NewBrandTable(f.Brands)
}

// compileKeyword turns a keyword into a case-insensitive pattern whose
// first group is the keyword itself. Plain keywords only match on word
// boundaries, and inner spaces match any run of spaces, dashes or
// underscores.
func compileKeyword(kw string) (*regexp.Regexp, error) {
	kw = strings.TrimSpace(kw)
	if kw == "" {
		return nil, errors.New("empty keyword")
	}

	if expr, ok := strings.CutPrefix(kw, regexPrefix); ok {
		if strings.TrimSpace(expr) == "" {
			return nil, errors.New("empty pattern")
		}
		re, err := regexp.Compile(`(?i)(` + expr + `)`)
		if err != nil {
			return nil, fmt.Errorf("keyword %q: %w", kw, err)
		}
		return re, nil
	}

	parts := strings.Fields(kw)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	expr := `(?i)(?:^|[^\pL\pN])(` + strings.Join(parts, `[\s_-]+`) + `)(?:$|[^\pL\pN])`
	return regexp.MustCompile(expr), nil
}

// Brands returns the canonical brand names in sorted order.
func (t *BrandTable) Brands() []string {
	return append([]string(nil), t.brands...)
}

// Len returns the number of brands in the table.
func (t *BrandTable) Len() int {
	return len(t.brands)
}

// Match searches each text in turn and returns the longest keyword match
// across all of them. Equal lengths keep the earliest text, then the first
// brand in name order.
func (t *BrandTable) Match(texts ...string) (BrandMatch, bool) {
	var (
		best    BrandMatch
		bestLen int
	)
	if t == nil {
		return best, false
	}

	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, e := range t.entries {
			loc := e.pattern.FindStringSubmatchIndex(text)
			if loc == nil {
				continue
			}
			start, end := loc[2], loc[3]
			if end-start <= bestLen {
				continue
			}
			bestLen = end - start
			best = BrandMatch{
				Brand:   e.brand,
				Keyword: text[start:end],
				Model:   trimModel(text[end:]),
			}
		}
	}
	return best, bestLen > 0
}

func trimModel(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "-:,;/()"))
}

// DefaultBrandTable returns the built-in table of common transformer and
// generator manufacturers.
func DefaultBrandTable() *BrandTable {
	t, err := NewBrandTable(defaultBrands)
	if err != nil {
		panic(fmt.Sprintf("equipment: default brand table: %v", err))
	}
	return t
}

var defaultBrands = map[string][]string{
	"ABB":                 {"ABB", "Asea Brown Boveri", "ASEA"},
	"Siemens":             {"Siemens", "Siemens Energy"},
	"GE":                  {"GE", "General Electric", "GE Vernova"},
	"Hitachi Energy":      {"Hitachi Energy", "Hitachi ABB", "Hitachi"},
	"Schneider Electric":  {"Schneider Electric", "Schneider"},
	"Toshiba":             {"Toshiba"},
	"Mitsubishi Electric": {"Mitsubishi Electric", "Mitsubishi"},
	"Hyundai":             {"Hyundai", "Hyundai Electric"},
	"Alstom":              {"Alstom", "Areva"},
	"Vestas":              {"Vestas"},
	"Andritz":             {"Andritz"},
	"Voith":               {"Voith"},
	"Wärtsilä":            {"Wärtsilä", "Wartsila"},
	"Caterpillar":         {"Caterpillar", "CAT"},
	"Cummins":             {"Cummins"},
	"Crompton Greaves":    {"Crompton Greaves", "CG Power"},
	"Ansaldo":             {"Ansaldo", "Ansaldo Energia"},
	"Doosan":              {"Doosan"},
	"Enercon":             {"Enercon"},
	"Nordex":              {"Nordex"},
	"SMA":                 {"SMA", "SMA Solar"},
	"Huawei":              {"Huawei"},
	"SGB-SMIT":            {"SGB-SMIT", "SGB", "SMIT"},
	"Elsewedy":            {"Elsewedy", "El Sewedy"},
	"Efacec":              {"Efacec"},
	"Westinghouse":        {"Westinghouse"},
}

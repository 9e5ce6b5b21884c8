package equipment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrandTable_Match(t *testing.T) {
	table := DefaultBrandTable()

	tests := []struct {
		name      string
		texts     []string
		wantOK    bool
		wantBrand string
		wantModel string
	}{
		{"simple keyword", []string{"ABB TrafoStar 500"}, true, "ABB", "TrafoStar 500"},
		{"case insensitive", []string{"siemens GEAFOL"}, true, "Siemens", "GEAFOL"},
		{"longest match wins", []string{"Hitachi Energy XT-40"}, true, "Hitachi Energy", "XT-40"},
		{"multi word with dash", []string{"General-Electric 7HA.02"}, true, "GE", "7HA.02"},
		{"word boundary", []string{"GEARBOX unit"}, false, "", ""},
		{"unicode keyword", []string{"Wärtsilä 50DF engine"}, true, "Wärtsilä", "50DF engine"},
		{"ascii alias", []string{"WARTSILA 34SG"}, true, "Wärtsilä", "34SG"},
		{"searches later texts", []string{"T1", "step-up unit by Toshiba"}, true, "Toshiba", ""},
		{"no match", []string{"unknown maker"}, false, "", ""},
		{"empty", nil, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := table.Match(tt.texts...)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantBrand, m.Brand)
			assert.Equal(t, tt.wantModel, m.Model)
		})
	}
}

func TestBrandTable_LongestAcrossTexts(t *testing.T) {
	table := DefaultBrandTable()

	m, ok := table.Match("Hitachi", "Hitachi Energy TXpert")

	require.True(t, ok)
	assert.Equal(t, "Hitachi Energy", m.Brand)
	assert.Equal(t, "TXpert", m.Model)
}

func TestNewBrandTable_RegexKeyword(t *testing.T) {
	table, err := NewBrandTable(map[string][]string{
		"Acme": {`re:ac+me\d`},
	})
	require.NoError(t, err)

	m, ok := table.Match("unit ACCCME7 rev B")

	require.True(t, ok)
	assert.Equal(t, "Acme", m.Brand)
	assert.Equal(t, "ACCCME7", m.Keyword)
	assert.Equal(t, "rev B", m.Model)
}

func TestNewBrandTable_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		brands map[string][]string
	}{
		{"empty brand", map[string][]string{"": {"x"}}},
		{"no keywords", map[string][]string{"Acme": nil}},
		{"empty keyword", map[string][]string{"Acme": {"  "}}},
		{"bad regex", map[string][]string{"Acme": {"re:(unclosed"}}},
		{"empty regex", map[string][]string{"Acme": {"re:"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBrandTable(tt.brands)
			assert.ErrorIs(t, err, ErrInvalidBrandTable)
		})
	}
}

func TestLoadBrandTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brands.yaml")
	content := `
brands:
  Acme Power: [Acme, "Acme Power"]
  Globex: [Globex]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	table, err := LoadBrandTable(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Acme Power", "Globex"}, table.Brands())
	assert.Equal(t, 2, table.Len())

	m, ok := table.Match("ACME POWER 40MVA")
	require.True(t, ok)
	assert.Equal(t, "Acme Power", m.Brand)
	assert.Equal(t, "40MVA", m.Model)
}

func TestLoadBrandTable_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadBrandTable(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrBrandTableRead)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("brands: [unclosed"), 0o600))
	_, err = LoadBrandTable(bad)
	assert.ErrorIs(t, err, ErrBrandTableRead)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("other: 1\n"), 0o600))
	_, err = LoadBrandTable(empty)
	assert.ErrorIs(t, err, ErrInvalidBrandTable)
}

func TestDefaultBrandTable(t *testing.T) {
	table := DefaultBrandTable()

	assert.Contains(t, table.Brands(), "ABB")
	assert.Contains(t, table.Brands(), "Caterpillar")
	assert.GreaterOrEqual(t, table.Len(), 25)
}

package metadata

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nerrad567/emsconvert/internal/model"
	"github.com/nerrad567/emsconvert/internal/network"
	"github.com/nerrad567/emsconvert/internal/validation"
)

func testModel(t *testing.T, toBus int) *model.SystemModel {
	t.Helper()
	bus := func(n int, kv float64) network.Bus {
		return network.Bus{Number: n, BaseKV: kv, VoltageMagnitude: 1, MaxVoltage: 1.1, MinVoltage: 0.9, Area: 1, Zone: 1}
	}
	out := validation.New(validation.Options{}).Validate(validation.Candidates{
		Buses: []network.Bus{bus(1, 132), bus(2, 132), bus(3, 33)},
		Transformers: []network.Transformer{{
			FromBus: 1, ToBus: toBus, Circuit: "1", Windings: 2,
			Impedances:   []network.Impedance{{R: 0.01, X: 0.1}},
			RatedMVA:     []float64{60},
			WindingKV:    []float64{0, 0},
			Manufacturer: "ABB", VectorGroup: "YNd11", Cooling: "ONAN",
		}},
		Generators: []network.Generator{{
			Bus: 3, ID: "1", PG: 10, CapacityMW: 20, Fuel: network.FuelWind,
			Efficiency: 0.45, CommissioningYear: 2012,
			Estimated: network.Estimates{Efficiency: true, CommissioningYear: true},
		}},
		Loads: []network.Load{{Bus: 2, ID: "1", PL: 12, Type: network.LoadCommercial, Dependence: network.ConstantPower}},
	})
	info := model.ConversionInfo{SourceName: "grid.ems", ConvertedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), ConverterVersion: "2.1.0"}
	return model.Freeze(info, out, nil, model.RecordCounters{Read: 6})
}

func TestWrite_JSONTopLevelKeys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testModel(t, 2), FormatJSON))

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	for _, key := range []string{"conversion_info", "statistics", "equipment", "voltage_levels", "validation_issues"} {
		assert.Contains(t, doc, key)
	}
	assert.JSONEq(t, "[]", string(doc["validation_issues"]))
}

func TestWrite_JSONStatistics(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testModel(t, 2), FormatJSON))

	var doc struct {
		Statistics struct {
			TotalBuses        int `json:"total_buses"`
			TotalTransformers int `json:"total_transformers"`
			TotalGenerators   int `json:"total_generators"`
		} `json:"statistics"`
		ConversionInfo struct {
			SourceFile string `json:"source_file"`
			Version    string `json:"converter_version"`
		} `json:"conversion_info"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, 3, doc.Statistics.TotalBuses)
	assert.Equal(t, 1, doc.Statistics.TotalTransformers)
	assert.Equal(t, 1, doc.Statistics.TotalGenerators)
	assert.Equal(t, "grid.ems", doc.ConversionInfo.SourceFile)
	assert.Equal(t, "2.1.0", doc.ConversionInfo.Version)
}

func TestWrite_DanglingTransformerIssue(t *testing.T) {
	doc := Build(testModel(t, 9))

	assert.Equal(t, 0, doc.Statistics.TotalTransformers)
	require.Len(t, doc.ValidationIssues, 1)
	assert.Equal(t, network.SeverityError, doc.ValidationIssues[0].Severity)
	assert.Equal(t, network.CodeDanglingReference, doc.ValidationIssues[0].Code)
	assert.Empty(t, doc.Equipment.Transformers)
}

func TestBuild_Equipment(t *testing.T) {
	eq := Build(testModel(t, 2)).Equipment

	assert.Equal(t, map[string]int{"ABB": 1}, eq.TransformerBrands)
	assert.Equal(t, map[string]int{"YNd11": 1}, eq.VectorGroups)
	assert.Equal(t, map[string]int{"ONAN": 1}, eq.Cooling)
	assert.Equal(t, map[string]int{"wind": 1}, eq.Fuels)
	assert.Equal(t, map[string]float64{"wind": 20}, eq.FuelCapacityMW)
	assert.Equal(t, map[string]int{"commercial": 1}, eq.LoadTypes)

	require.Len(t, eq.Transformers, 1)
	assert.Equal(t, "TX_1_2_1", eq.Transformers[0].ID)
	assert.Equal(t, "132/132kV", eq.Transformers[0].VoltageRatio)

	require.Len(t, eq.Generators, 1)
	assert.Equal(t, "GEN_3_1", eq.Generators[0].ID)
	assert.True(t, eq.Generators[0].Estimated.Efficiency, "estimated values are flagged")
	assert.False(t, eq.Generators[0].Estimated.Fuel)
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testModel(t, 2), FormatYAML))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))

	stats, ok := doc["statistics"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3, stats["total_buses"])

	eq, ok := doc["equipment"].(map[string]any)
	require.True(t, ok)
	gens, ok := eq["generators"].([]any)
	require.True(t, ok)
	gen := gens[0].(map[string]any)
	estimated := gen["estimated"].(map[string]any)
	assert.Equal(t, true, estimated["commissioning_year"])
}

func TestWrite_EmptyModel(t *testing.T) {
	m := model.Freeze(model.ConversionInfo{}, validation.Outcome{}, nil, model.RecordCounters{})
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, m, FormatJSON))

	var doc struct {
		Statistics       map[string]any  `json:"statistics"`
		ValidationIssues []network.Issue `json:"validation_issues"`
		VoltageLevels    []any           `json:"voltage_levels"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	for _, key := range []string{"total_buses", "total_transformers", "total_generators", "total_loads", "total_branches"} {
		assert.EqualValues(t, 0, doc.Statistics[key], key)
	}
	assert.NotNil(t, doc.ValidationIssues)
	assert.Empty(t, doc.ValidationIssues)
	assert.NotNil(t, doc.VoltageLevels)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, ".yaml", FormatYAML.Extension())
	assert.Equal(t, ".json", FormatJSON.Extension())
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, testModel(t, 2), Format("xml"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

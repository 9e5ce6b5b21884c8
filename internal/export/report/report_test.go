package report

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nerrad567/emsconvert/internal/infrastructure/database"
	"github.com/nerrad567/emsconvert/internal/model"
	"github.com/nerrad567/emsconvert/internal/network"
	"github.com/nerrad567/emsconvert/internal/validation"
)

func testModel() *model.SystemModel {
	bus := func(n int, name string, kv float64) network.Bus {
		return network.Bus{Number: n, Name: name, BaseKV: kv, Type: network.BusPQ, VoltageMagnitude: 1, MaxVoltage: 1.1, MinVoltage: 0.9, Area: 1, Zone: 1}
	}
	out := validation.New(validation.Options{}).Validate(validation.Candidates{
		Buses: []network.Bus{bus(1, "NORTH", 132), bus(2, "SOUTH", 132), bus(3, "EAST", 33)},
		Transformers: []network.Transformer{{
			FromBus: 1, ToBus: 3, Circuit: "1", Windings: 2,
			Impedances: []network.Impedance{{R: 0.01, X: 0.1}},
			RatedMVA:   []float64{60},
		}},
		Generators: []network.Generator{{
			Bus: 3, ID: "1", PG: 10, CapacityMW: 20, Fuel: network.FuelWind,
			Estimated: network.Estimates{Fuel: true, CommissioningYear: true},
		}},
		Loads:    []network.Load{{Bus: 2, ID: "1", PL: 12, Type: network.LoadCommercial, TypeEstimated: true}},
		Branches: []network.Branch{{FromBus: 1, ToBus: 2, Circuit: "1", R: 0.01, X: 0.05, RateA: 100}},
	})
	info := model.ConversionInfo{SourceName: "grid.ems", ConvertedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	return model.Freeze(info, out, nil, model.RecordCounters{Read: 7})
}

func emptyModel() *model.SystemModel {
	return model.Freeze(model.ConversionInfo{}, validation.Outcome{}, nil, model.RecordCounters{})
}

func tableByName(t *testing.T, tables []Table, name string) Table {
	t.Helper()
	for _, tbl := range tables {
		if tbl.Name == name {
			return tbl
		}
	}
	t.Fatalf("table %s not found", name)
	return Table{}
}

// ============================================================================
// Build
// ============================================================================

func TestBuild_TableOrder(t *testing.T) {
	tables := Build(testModel())

	names := make([]string, len(tables))
	for i, tbl := range tables {
		names[i] = tbl.Name
	}
	assert.Equal(t, []string{"Buses", "Transformers", "Generators", "Loads", "Branches", "Summary"}, names)
}

func TestBuild_RowsMatchModel(t *testing.T) {
	m := testModel()
	tables := Build(m)

	assert.Len(t, tableByName(t, tables, "Buses").Rows, 3)
	assert.Len(t, tableByName(t, tables, "Transformers").Rows, 1)
	assert.Len(t, tableByName(t, tables, "Generators").Rows, 1)
	assert.Len(t, tableByName(t, tables, "Loads").Rows, 1)
	assert.Len(t, tableByName(t, tables, "Branches").Rows, 1)

	for _, tbl := range tables {
		for i, row := range tbl.Rows {
			assert.Len(t, row, len(tbl.Columns), "%s row %d", tbl.Name, i)
		}
	}

	buses := tableByName(t, tables, "Buses")
	assert.Equal(t, []any{1, "NORTH", 132.0, "PQ", 1, 1, 1.0, 0.0, 1.1, 0.9}, buses.Rows[0])

	gens := tableByName(t, tables, "Generators")
	assert.Equal(t, "fuel,commissioning_year", gens.Rows[0][10])
}

func TestBuild_Summary(t *testing.T) {
	summary := tableByName(t, Build(testModel()), "Summary")

	values := make(map[string]any)
	for _, row := range summary.Rows {
		values[row[0].(string)] = row[1]
	}
	assert.Equal(t, "grid.ems", values["Source File"])
	assert.Equal(t, "2026-01-02 03:04:05", values["Conversion Time"])
	assert.Equal(t, "3", values["Total Buses"])
	assert.Equal(t, "20.00", values["Total Generation Capacity (MW)"])
	assert.Equal(t, "33, 132", values["Voltage Levels (kV)"])
}

func TestBuild_EmptyModel(t *testing.T) {
	tables := Build(emptyModel())

	require.Len(t, tables, 6)
	for _, tbl := range tables[:5] {
		assert.NotNil(t, tbl.Rows, tbl.Name)
		assert.Empty(t, tbl.Rows, tbl.Name)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatXLSX, false},
		{"xlsx", FormatXLSX, false},
		{"SQLite", FormatSQLite, false},
		{"csv", "", true},
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
	assert.Equal(t, ".sqlite", FormatSQLite.Extension())
	assert.Equal(t, ".xlsx", FormatXLSX.Extension())
}

// ============================================================================
// XLSX
// ============================================================================

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, Build(testModel())))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Buses", "Transformers", "Generators", "Loads", "Branches", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Buses")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Bus Number", rows[0][0])
	assert.Equal(t, "Voltage (kV)", rows[0][2])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "NORTH", rows[1][1])
	assert.Equal(t, "EAST", rows[3][1])
}

func TestWriteXLSX_EmptyModelKeepsHeaders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, Build(emptyModel())))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Generators")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Fuel Type", rows[0][5])
}

func TestWriteXLSX_RowWidthMismatch(t *testing.T) {
	tables := []Table{{
		Name:    "Broken",
		Columns: []Column{{Name: "a", Header: "A"}},
		Rows:    [][]any{{1, 2}},
	}}
	err := WriteXLSX(&bytes.Buffer{}, tables)
	assert.ErrorIs(t, err, ErrRowWidth)
}

// ============================================================================
// SQLite
// ============================================================================

func TestWriteSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "grid_report.sqlite")

	require.NoError(t, WriteSQLite(ctx, path, Build(testModel())))
	// Writing again replaces the file rather than failing on existing tables.
	require.NoError(t, WriteSQLite(ctx, path, Build(testModel())))

	db, err := database.Open(database.Config{Path: path})
	require.NoError(t, err)
	defer db.Close()

	counts := map[string]int{"buses": 3, "transformers": 1, "generators": 1, "loads": 1, "branches": 1}
	for table, want := range counts {
		var got int
		require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "`+table+`"`).Scan(&got))
		assert.Equal(t, want, got, table)
	}

	var name string
	var kv float64
	require.NoError(t, db.QueryRowContext(ctx, "SELECT name, base_kv FROM buses WHERE number = 3").Scan(&name, &kv))
	assert.Equal(t, "EAST", name)
	assert.InDelta(t, 33.0, kv, 1e-9)

	var value string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT value FROM summary WHERE metric = 'Total Branches'").Scan(&value))
	assert.Equal(t, "1", value)
}

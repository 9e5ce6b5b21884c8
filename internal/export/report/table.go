package report

import (
	"fmt"
	"strings"

	"github.com/nerrad567/emsconvert/internal/model"
	"github.com/nerrad567/emsconvert/internal/network"
)

// Format selects the report renderer.
type Format string

// Supported formats.
const (
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "sqlite"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx", "excel":
		return FormatXLSX, nil
	case "sqlite", "sqlite3", "db":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Extension returns the file extension for the format, with the dot.
func (f Format) Extension() string {
	if f == FormatSQLite {
		return ".sqlite"
	}
	return ".xlsx"
}

// ColumnType is the storage class of a column.
type ColumnType int

// Column types.
const (
	Text ColumnType = iota
	Integer
	Real
)

// SQL returns the SQLite type name.
func (t ColumnType) SQL() string {
	switch t {
	case Integer:
		return "INTEGER"
	case Real:
		return "REAL"
	default:
		return "TEXT"
	}
}

// Column describes one report column.
type Column struct {
	// Name is the machine name, used as the SQL column name.
	Name string

	// Header is the worksheet heading.
	Header string

	Type ColumnType
}

// Table is one report table. Every row has one value per column.
type Table struct {
	// Name is the worksheet name; its lower-case form is the SQL table name.
	Name    string
	Columns []Column
	Rows    [][]any
}

// SQLName returns the SQL table name.
func (t Table) SQLName() string {
	return strings.ToLower(t.Name)
}

// Build derives the report tables from m: Buses, Transformers, Generators,
// Loads, Branches and Summary, in that order.
func Build(m *model.SystemModel) []Table {
	return []Table{
		busTable(m),
		transformerTable(m),
		generatorTable(m),
		loadTable(m),
		branchTable(m),
		summaryTable(m),
	}
}

func busTable(m *model.SystemModel) Table {
	t := Table{
		Name: "Buses",
		Columns: []Column{
			{"number", "Bus Number", Integer},
			{"name", "Name", Text},
			{"base_kv", "Voltage (kV)", Real},
			{"type", "Type", Text},
			{"area", "Area", Integer},
			{"zone", "Zone", Integer},
			{"vm", "VM (pu)", Real},
			{"va", "VA (deg)", Real},
			{"vmax", "VMax (pu)", Real},
			{"vmin", "VMin (pu)", Real},
		},
		Rows: [][]any{},
	}
	for _, b := range m.Buses() {
		t.Rows = append(t.Rows, []any{
			b.Number, b.Name, b.BaseKV, b.Type.String(), b.Area, b.Zone,
			b.VoltageMagnitude, b.VoltageAngle, b.MaxVoltage, b.MinVoltage,
		})
	}
	return t
}

func transformerTable(m *model.SystemModel) Table {
	t := Table{
		Name: "Transformers",
		Columns: []Column{
			{"from_bus", "From Bus", Integer},
			{"to_bus", "To Bus", Integer},
			{"tertiary_bus", "Tertiary Bus", Integer},
			{"circuit", "Circuit", Text},
			{"windings", "Windings", Integer},
			{"r", "R (pu)", Real},
			{"x", "X (pu)", Real},
			{"rated_mva", "Rating (MVA)", Real},
			{"manufacturer", "Manufacturer", Text},
			{"model", "Model", Text},
			{"vector_group", "Vector Group", Text},
			{"cooling", "Cooling", Text},
		},
		Rows: [][]any{},
	}
	for _, tx := range m.Transformers() {
		z := tx.PrimaryImpedance()
		rating := 0.0
		if len(tx.RatedMVA) > 0 {
			rating = tx.RatedMVA[0]
		}
		t.Rows = append(t.Rows, []any{
			tx.FromBus, tx.ToBus, tx.TertiaryBus, tx.Circuit, tx.Windings,
			z.R, z.X, rating, tx.Manufacturer, tx.Model, tx.VectorGroup, tx.Cooling,
		})
	}
	return t
}

func generatorTable(m *model.SystemModel) Table {
	t := Table{
		Name: "Generators",
		Columns: []Column{
			{"bus", "Bus", Integer},
			{"id", "ID", Text},
			{"pg", "PG (MW)", Real},
			{"qg", "QG (Mvar)", Real},
			{"capacity_mw", "Capacity (MW)", Real},
			{"fuel", "Fuel Type", Text},
			{"efficiency", "Efficiency", Real},
			{"commissioning_year", "Commissioning Year", Integer},
			{"manufacturer", "Manufacturer", Text},
			{"model", "Model", Text},
			{"estimated", "Estimated", Text},
		},
		Rows: [][]any{},
	}
	for _, g := range m.Generators() {
		t.Rows = append(t.Rows, []any{
			g.Bus, g.ID, g.PG, g.QG, g.CapacityMW, string(g.Fuel), g.Efficiency,
			g.CommissioningYear, g.Manufacturer, g.Model, estimatedFields(g.Estimated),
		})
	}
	return t
}

// estimatedFields lists the estimated attributes, e.g. "fuel,efficiency".
func estimatedFields(e network.Estimates) string {
	var fields []string
	if e.Capacity {
		fields = append(fields, "capacity")
	}
	if e.Fuel {
		fields = append(fields, "fuel")
	}
	if e.Efficiency {
		fields = append(fields, "efficiency")
	}
	if e.CommissioningYear {
		fields = append(fields, "commissioning_year")
	}
	return strings.Join(fields, ",")
}

func loadTable(m *model.SystemModel) Table {
	t := Table{
		Name: "Loads",
		Columns: []Column{
			{"bus", "Bus", Integer},
			{"id", "ID", Text},
			{"pl", "PL (MW)", Real},
			{"ql", "QL (Mvar)", Real},
			{"type", "Load Type", Text},
			{"type_estimated", "Type Estimated", Integer},
			{"dependence", "Voltage Dependence", Text},
			{"area", "Area", Integer},
			{"zone", "Zone", Integer},
		},
		Rows: [][]any{},
	}
	for _, l := range m.Loads() {
		estimated := 0
		if l.TypeEstimated {
			estimated = 1
		}
		t.Rows = append(t.Rows, []any{
			l.Bus, l.ID, l.PL, l.QL, string(l.Type), estimated, string(l.Dependence), l.Area, l.Zone,
		})
	}
	return t
}

func branchTable(m *model.SystemModel) Table {
	t := Table{
		Name: "Branches",
		Columns: []Column{
			{"from_bus", "From Bus", Integer},
			{"to_bus", "To Bus", Integer},
			{"circuit", "Circuit", Text},
			{"r", "R (pu)", Real},
			{"x", "X (pu)", Real},
			{"b", "B (pu)", Real},
			{"rate_a", "Rate A (MVA)", Real},
			{"rate_b", "Rate B (MVA)", Real},
			{"rate_c", "Rate C (MVA)", Real},
			{"length_km", "Length (km)", Real},
		},
		Rows: [][]any{},
	}
	for _, b := range m.Branches() {
		t.Rows = append(t.Rows, []any{
			b.FromBus, b.ToBus, b.Circuit, b.R, b.X, b.B, b.RateA, b.RateB, b.RateC, b.LengthKM,
		})
	}
	return t
}

func summaryTable(m *model.SystemModel) Table {
	info := m.Info()
	s := m.Stats()

	levels := make([]string, 0, len(s.VoltageLevels))
	for _, kv := range s.VoltageLevels {
		levels = append(levels, fmt.Sprintf("%g", kv))
	}

	rows := [][]any{
		{"Source File", info.SourceName},
		{"Conversion Time", info.ConvertedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Converter Version", info.ConverterVersion},
		{"Run ID", info.RunID},
		{"RAW Grammar", info.Grammar},
		{"Total Buses", fmt.Sprintf("%d", s.TotalBuses)},
		{"Total Transformers", fmt.Sprintf("%d", s.TotalTransformers)},
		{"Total Generators", fmt.Sprintf("%d", s.TotalGenerators)},
		{"Total Loads", fmt.Sprintf("%d", s.TotalLoads)},
		{"Total Branches", fmt.Sprintf("%d", s.TotalBranches)},
		{"Total Generation Capacity (MW)", fmt.Sprintf("%.2f", s.TotalGenerationMW)},
		{"Total Load (MW)", fmt.Sprintf("%.2f", s.TotalLoadMW)},
		{"Voltage Levels (kV)", strings.Join(levels, ", ")},
		{"Errors", fmt.Sprintf("%d", s.Errors)},
		{"Warnings", fmt.Sprintf("%d", s.Warnings)},
	}
	return Table{
		Name: "Summary",
		Columns: []Column{
			{"metric", "Metric", Text},
			{"value", "Value", Text},
		},
		Rows: rows,
	}
}

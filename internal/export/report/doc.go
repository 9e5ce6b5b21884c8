// Package report derives the tabular conversion report from a frozen
// SystemModel and renders it as an Excel workbook or a SQLite file.
//
// Build produces one Table per entity kind plus a Summary table. Each
// renderer writes every table: a worksheet per table for XLSX, an SQL table
// per entity kind plus summary for SQLite. Rows follow model order, so the
// same model always gives the same report.
//
// # Usage
//
//	tables := report.Build(m)
//	if err := report.WriteXLSX(f, tables); err != nil {
//	    return err
//	}
package report

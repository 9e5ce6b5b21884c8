package report

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/nerrad567/emsconvert/internal/infrastructure/database"
)

// busyTimeoutSeconds is the lock wait for the report file.
const busyTimeoutSeconds = 5

// WriteSQLite renders tables into a new SQLite file at path, one SQL table
// per report table. An existing file at path is replaced.
func WriteSQLite(ctx context.Context, path string, tables []Table) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	db, err := database.Open(database.Config{Path: path, BusyTimeout: busyTimeoutSeconds})
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Close error surfaces through WithTx

	return db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tables {
			if err := writeTable(ctx, tx, t); err != nil {
				return fmt.Errorf("writing table %s: %w", t.SQLName(), err)
			}
		}
		return nil
	})
}

func writeTable(ctx context.Context, tx *sql.Tx, t Table) error {
	defs := make([]string, len(t.Columns))
	names := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(c.Name), c.Type.SQL())
		names[i] = quoteIdent(c.Name)
		marks[i] = "?"
	}

	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(t.SQLName()), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(t.SQLName()), strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrRowWidth, i+1, len(row), len(t.Columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("inserting row %d: %w", i+1, err)
		}
	}
	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

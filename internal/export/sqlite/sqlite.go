package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/robalyx/antiraid/internal/export/types"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Exporter handles exporting ledger entries to SQLite databases.
type Exporter struct {
	outDir string
}

// New creates a new SQLite exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes sting and punishment records to separate SQLite databases.
func (e *Exporter) Export(stingRecords, punishmentRecords []*types.ExportRecord) error {
	// Remove existing files if they exist
	files := []string{"stings.db", "punishments.db"}
	for _, file := range files {
		path := filepath.Join(e.outDir, file)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove existing file %s: %w", file, err)
		}
	}

	if err := e.createDB("stings.db", "stings", stingRecords); err != nil {
		return fmt.Errorf("failed to export stings: %w", err)
	}

	if err := e.createDB("punishments.db", "punishments", punishmentRecords); err != nil {
		return fmt.Errorf("failed to export punishments: %w", err)
	}

	return nil
}

// createDB creates a SQLite database with a single table containing records.
func (e *Exporter) createDB(filename, table string, records []*types.ExportRecord) error {
	conn, err := sqlite.OpenConn(filepath.Join(e.outDir, filename), sqlite.OpenCreate|sqlite.OpenReadWrite)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	defer conn.Close()

	err = sqlitex.ExecuteScript(conn, fmt.Sprintf(`
		CREATE TABLE %[1]s (
			id TEXT PRIMARY KEY,
			src TEXT NOT NULL,
			kind TEXT NOT NULL,
			stings INTEGER NOT NULL,
			target TEXT NOT NULL,
			creator TEXT NOT NULL,
			state TEXT NOT NULL,
			reason TEXT NOT NULL,
			duration INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX %[1]s_target_idx ON %[1]s (target);
	`, table), nil)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		table, strings.Join(types.Columns, ", "))

	// Insert records in batches
	const batchSize = 1000
	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))

		if err := insertBatch(conn, insert, records[i:end]); err != nil {
			return err
		}
	}

	return nil
}

// insertBatch inserts records inside a single transaction.
func insertBatch(conn *sqlite.Conn, insert string, records []*types.ExportRecord) (err error) {
	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer endFn(&err)

	for _, record := range records {
		err = sqlitex.Execute(conn, insert, &sqlitex.ExecOptions{
			Args: []any{
				record.ID, record.Src, record.Kind, record.Stings, record.Target,
				record.Creator, record.State, record.Reason, record.Duration, record.CreatedAt,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to insert record %s: %w", record.ID, err)
		}
	}

	return nil
}

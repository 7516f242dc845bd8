package sqlite_test

import (
	"os"
	"path/filepath"
	"testing"

	exportSQLite "github.com/robalyx/antiraid/internal/export/sqlite"
	"github.com/robalyx/antiraid/internal/export/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// readRecords loads every record of a table ordered by id.
func readRecords(t *testing.T, path, table string) []*types.ExportRecord {
	t.Helper()

	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly)
	require.NoError(t, err)
	defer conn.Close()

	var records []*types.ExportRecord
	err = sqlitex.ExecuteTransient(conn,
		"SELECT id, src, kind, stings, target, creator, state, reason, duration, created_at FROM "+table+" ORDER BY id",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				records = append(records, &types.ExportRecord{
					ID:        stmt.ColumnText(0),
					Src:       stmt.ColumnText(1),
					Kind:      stmt.ColumnText(2),
					Stings:    stmt.ColumnInt32(3),
					Target:    stmt.ColumnText(4),
					Creator:   stmt.ColumnText(5),
					State:     stmt.ColumnText(6),
					Reason:    stmt.ColumnText(7),
					Duration:  stmt.ColumnInt64(8),
					CreatedAt: stmt.ColumnInt64(9),
				})
				return nil
			},
		})
	require.NoError(t, err)

	return records
}

func stingRecords() []*types.ExportRecord {
	return []*types.ExportRecord{
		{
			ID: "a1", Src: "automod", Kind: "sting", Stings: 2, Target: "0123abcd", Creator: "system",
			State: "active", Reason: "reason with ' single quote", Duration: 3600, CreatedAt: 1740830400,
		},
		{
			ID: "b2", Kind: "sting", Stings: 1, Target: "system", Creator: "fedc9876",
			State: "voided", Reason: "reason with \" double quote", CreatedAt: 1740830460,
		},
	}
}

func TestExporter_Export(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	stings := stingRecords()
	punishments := []*types.ExportRecord{
		{
			ID: "c3", Kind: "ban", Target: "0123abcd", Creator: "fedc9876",
			State: "active", Reason: "raid", CreatedAt: 1740830400,
		},
	}

	require.NoError(t, exportSQLite.New(tempDir).Export(stings, punishments))

	assert.Equal(t, stings, readRecords(t, filepath.Join(tempDir, "stings.db"), "stings"))
	assert.Equal(t, punishments, readRecords(t, filepath.Join(tempDir, "punishments.db"), "punishments"))
}

func TestExporter_EmptyRecords(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	require.NoError(t, exportSQLite.New(tempDir).Export(nil, nil))

	assert.Empty(t, readRecords(t, filepath.Join(tempDir, "stings.db"), "stings"))
	assert.Empty(t, readRecords(t, filepath.Join(tempDir, "punishments.db"), "punishments"))
}

func TestExporter_DuplicateID(t *testing.T) {
	t.Parallel()

	records := stingRecords()
	records[1].ID = records[0].ID

	err := exportSQLite.New(t.TempDir()).Export(records, nil)
	require.Error(t, err)
}

func TestExporter_ExistingFiles(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()

	for _, file := range []string{"stings.db", "punishments.db"} {
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, file), []byte("invalid sqlite db"), 0o600))
	}

	records := stingRecords()
	require.NoError(t, exportSQLite.New(tempDir).Export(records, nil))

	assert.Equal(t, records, readRecords(t, filepath.Join(tempDir, "stings.db"), "stings"))
}

func TestExporter_DatabaseSchema(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	require.NoError(t, exportSQLite.New(tempDir).Export(stingRecords(), nil))

	conn, err := sqlite.OpenConn(filepath.Join(tempDir, "stings.db"), sqlite.OpenReadOnly)
	require.NoError(t, err)
	defer conn.Close()

	var columns []string
	err = sqlitex.ExecuteTransient(conn, "PRAGMA table_info(stings)", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			columns = append(columns, stmt.ColumnText(1)) // Column name is at index 1
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, types.Columns, columns)

	var pkColumn string
	err = sqlitex.ExecuteTransient(conn, "SELECT name FROM pragma_table_info('stings') WHERE pk = 1", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			pkColumn = stmt.ColumnText(0)
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "id", pkColumn)
}

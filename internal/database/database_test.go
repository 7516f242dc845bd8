package database_test

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/robalyx/antiraid/internal/database"
	"github.com/robalyx/antiraid/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func openSQLite(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func TestNewFromDB_MigratesAndWiresServices(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	client, err := database.NewFromDB(t.Context(), openSQLite(t), zap.New(core), true)
	require.NoError(t, err)

	ctx := t.Context()

	sting, err := client.Service().Ledger().CreateSting(ctx, &types.StingCreate{
		Stings:  1,
		GuildID: 5,
		Creator: types.SystemTarget(),
		Target:  types.UserTarget(6),
	})
	require.NoError(t, err)

	stored, err := client.Model().Sting().Get(ctx, sting.ID)
	require.NoError(t, err)
	assert.Equal(t, sting.ID, stored.ID)

	assert.NotZero(t, logs.FilterMessage("Automatically ran migrations").Len())

	pending, err := client.PendingMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.NotZero(t, logs.FilterMessage("Query executed").Len())
}

func TestHook_LogsFailedQueries(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	client, err := database.NewFromDB(t.Context(), openSQLite(t), zap.New(core), false)
	require.NoError(t, err)

	_, err = client.DB().NewSelect().Table("missing_table").Exec(t.Context())
	require.Error(t, err)

	failed := logs.FilterMessage("Query failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
}

func TestPendingMigrations_FreshDatabase(t *testing.T) {
	t.Parallel()

	client, err := database.NewFromDB(t.Context(), openSQLite(t), zap.NewNop(), false)
	require.NoError(t, err)

	pending, err := client.PendingMigrations(t.Context())
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

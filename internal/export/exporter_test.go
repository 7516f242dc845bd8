package export_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/robalyx/antiraid/internal/database"
	"github.com/robalyx/antiraid/internal/database/databasetest"
	dbTypes "github.com/robalyx/antiraid/internal/database/types"
	"github.com/robalyx/antiraid/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const guildID = snowflake.ID(500)

var createdAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *export.Config {
	return &export.Config{
		ExportVersion: "test",
		Salt:          "test_salt",
		Description:   "ledger export",
		HashType:      string(export.HashTypeSHA256),
		Iterations:    1,
		Concurrency:   2,
	}
}

func seedLedger(t *testing.T) *database.Repository {
	t.Helper()

	repo := database.NewRepository(databasetest.NewDB(t), zap.NewNop())
	ctx := t.Context()

	hour := time.Hour
	stings := []*dbTypes.StingCreate{
		{Stings: 2, GuildID: guildID, Creator: dbTypes.SystemTarget(), Target: dbTypes.UserTarget(12345), Duration: &hour},
		{Stings: 1, GuildID: guildID, Creator: dbTypes.UserTarget(54321), Target: dbTypes.SystemTarget()},
		{Stings: 9, GuildID: guildID + 1, Creator: dbTypes.SystemTarget(), Target: dbTypes.UserTarget(1)},
	}

	for i, req := range stings {
		require.NoError(t, repo.Sting().Create(ctx, req.ToSting(uuid.New(), createdAt.Add(time.Duration(i)*time.Minute))))
	}

	punishment := (&dbTypes.PunishmentCreate{
		GuildID:    guildID,
		Punishment: dbTypes.PunishmentBan,
		Creator:    dbTypes.UserTarget(54321),
		Target:     dbTypes.UserTarget(12345),
		Reason:     "raid",
	}).ToPunishment(uuid.New(), createdAt)
	require.NoError(t, repo.Punishment().Create(ctx, punishment))

	return repo
}

func TestExporter_Export(t *testing.T) {
	t.Parallel()

	repo := seedLedger(t)
	outDir := filepath.Join(t.TempDir(), "out")

	summary, err := export.New(repo, outDir, testConfig(), zap.NewNop()).Export(t.Context(), guildID)
	require.NoError(t, err)
	assert.Equal(t, &export.Summary{Stings: 2, Punishments: 1, Targets: 2}, summary)

	hash12345 := export.HashID(12345, "test_salt", export.HashTypeSHA256, 1, 0)
	hash54321 := export.HashID(54321, "test_salt", export.HashTypeSHA256, 1, 0)

	conn, err := sqlite.OpenConn(filepath.Join(outDir, "stings.db"), sqlite.OpenReadOnly)
	require.NoError(t, err)
	defer conn.Close()

	var rows [][]string
	err = sqlitex.ExecuteTransient(conn, "SELECT kind, target, creator, duration FROM stings ORDER BY created_at",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				rows = append(rows, []string{
					stmt.ColumnText(0), stmt.ColumnText(1), stmt.ColumnText(2), stmt.ColumnText(3),
				})
				return nil
			},
		})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"sting", hash12345, "system", "3600"},
		{"sting", "system", hash54321, "0"},
	}, rows)

	for _, file := range []string{"punishments.db", "stings.csv", "punishments.csv"} {
		assert.FileExists(t, filepath.Join(outDir, file))
	}

	data, err := os.ReadFile(filepath.Join(outDir, "export_config.json"))
	require.NoError(t, err)

	var written map[string]any
	require.NoError(t, sonic.Unmarshal(data, &written))
	assert.Equal(t, export.EngineVersion, written["engineVersion"])
	assert.Equal(t, "sha256", written["hashType"])
	assert.NotContains(t, written, "memory")
}

func TestExporter_UnknownHashType(t *testing.T) {
	t.Parallel()

	config := testConfig()
	config.HashType = "md5"

	_, err := export.New(seedLedger(t), t.TempDir(), config, zap.NewNop()).Export(t.Context(), guildID)
	require.ErrorIs(t, err, export.ErrUnsupportedFormat)
}

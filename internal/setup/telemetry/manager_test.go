package telemetry_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robalyx/antiraid/internal/setup/config"
	"github.com/robalyx/antiraid/internal/setup/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_GetLoggers(t *testing.T) {
	t.Parallel()

	logDir := filepath.Join(t.TempDir(), "logs")
	manager := telemetry.NewManager(telemetry.ServiceRelay, logDir, &config.Debug{LogLevel: "info", MaxLogsToKeep: 3}, false)

	logger, dbLogger, err := manager.GetLoggers()
	require.NoError(t, err)

	logger.Info("Relay started")
	dbLogger.Warn("Slow query")
	require.NoError(t, logger.Sync())
	require.NoError(t, dbLogger.Sync())

	sessionDir := manager.GetCurrentSessionDir()
	assert.Contains(t, filepath.Base(sessionDir), "_relay")
	assert.NotEmpty(t, manager.GetInstanceID())

	data, err := os.ReadFile(filepath.Join(sessionDir, "main.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Relay started")
	assert.Contains(t, string(data), manager.GetInstanceID())

	data, err = os.ReadFile(filepath.Join(sessionDir, "database.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Slow query")
}

func TestManager_RotatesOldSessions(t *testing.T) {
	t.Parallel()

	logDir := t.TempDir()
	base := time.Now().Add(-time.Hour)

	for i, name := range []string{"old-1", "old-2", "old-3", "old-4"} {
		dir := filepath.Join(logDir, name)
		require.NoError(t, os.Mkdir(dir, 0o750))

		modTime := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(dir, modTime, modTime))
	}

	manager := telemetry.NewManager(telemetry.ServiceCLI, logDir, &config.Debug{LogLevel: "debug", MaxLogsToKeep: 3}, false)

	_, _, err := manager.GetLoggers()
	require.NoError(t, err)

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	assert.Len(t, names, 3)
	assert.Contains(t, names, "old-3")
	assert.Contains(t, names, "old-4")
	assert.Contains(t, names, filepath.Base(manager.GetCurrentSessionDir()))
}

func TestManager_InvalidLevel(t *testing.T) {
	t.Parallel()

	manager := telemetry.NewManager(telemetry.ServiceExport, t.TempDir(), &config.Debug{LogLevel: "loud", MaxLogsToKeep: 1}, false)

	_, _, err := manager.GetLoggers()
	require.Error(t, err)
}

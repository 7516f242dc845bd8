package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/antiraid/internal/database"
	dbTypes "github.com/robalyx/antiraid/internal/database/types"
	"github.com/robalyx/antiraid/internal/export/csv"
	"github.com/robalyx/antiraid/internal/export/sqlite"
	"github.com/robalyx/antiraid/internal/export/types"
	"go.uber.org/zap"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format represents a supported export format.
type Format string

const (
	FormatSQLite Format = "sqlite"
	FormatCSV    Format = "csv"
)

const (
	// EngineVersion represents the version of the export engine.
	// This should be updated when making breaking changes to the export format.
	EngineVersion = "1.0.0"

	// pageSize is the number of ledger entries loaded per query.
	pageSize = 1000

	stingKind = "sting"
)

// Config holds the configuration for exports.
type Config struct {
	ExportVersion string `json:"exportVersion"`
	Salt          string `json:"salt"`
	Description   string `json:"description"`
	HashType      string `json:"hashType"`
	Iterations    uint32 `json:"iterations"`
	Memory        uint32 `json:"memory,omitempty"`
	Concurrency   int64  `json:"-"`
}

// Summary describes a finished export.
type Summary struct {
	Stings      int
	Punishments int
	Targets     int
}

// Exporter handles exporting the ledger of a guild.
type Exporter struct {
	repo    *database.Repository
	outDir  string
	config  *Config
	formats []Format
	logger  *zap.Logger
}

// New creates a new exporter instance.
func New(repo *database.Repository, outDir string, config *Config, logger *zap.Logger) *Exporter {
	return &Exporter{
		repo:   repo,
		outDir: outDir,
		config: config,
		formats: []Format{
			FormatSQLite,
			FormatCSV,
		},
		logger: logger.Named("exporter"),
	}
}

// Export writes the stings and punishments of a guild in all supported formats.
func (e *Exporter) Export(ctx context.Context, guildID snowflake.ID) (*Summary, error) {
	logger := e.logger.With(
		zap.Uint64("guild_id", uint64(guildID)),
		zap.String("hash_type", e.config.HashType),
		zap.Uint32("iterations", e.config.Iterations),
		zap.String("out_dir", e.outDir))

	switch HashType(e.config.HashType) {
	case HashTypeArgon2id, HashTypeSHA256:
	default:
		return nil, fmt.Errorf("%w: hash type %q", ErrUnsupportedFormat, e.config.HashType)
	}

	logger.Info("Starting ledger export")

	stings, err := collect(ctx, func(ctx context.Context, cursor *dbTypes.LedgerCursor) (
		[]*dbTypes.Sting, *dbTypes.LedgerCursor, error,
	) {
		return e.repo.Sting().ListByGuild(ctx, guildID, dbTypes.LedgerFilter{}, cursor, pageSize)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get stings: %w", err)
	}

	punishments, err := collect(ctx, func(ctx context.Context, cursor *dbTypes.LedgerCursor) (
		[]*dbTypes.Punishment, *dbTypes.LedgerCursor, error,
	) {
		return e.repo.Punishment().ListByGuild(ctx, guildID, dbTypes.LedgerFilter{}, cursor, pageSize)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get punishments: %w", err)
	}

	// Hash every user that appears as a creator or target
	var ids []snowflake.ID
	for _, sting := range stings {
		ids = appendUserIDs(ids, sting.Creator, sting.Target)
	}

	for _, punishment := range punishments {
		ids = appendUserIDs(ids, punishment.Creator, punishment.Target)
	}

	start := time.Now()
	hashes := NewHasher(e.config).HashIDs(ids)

	logger.Info("Hashed ledger targets",
		zap.Int("targets", len(hashes)),
		zap.Duration("elapsed", time.Since(start)))

	stingRecords := make([]*types.ExportRecord, len(stings))
	for i, sting := range stings {
		stingRecords[i] = stingRecord(sting, hashes)
	}

	punishmentRecords := make([]*types.ExportRecord, len(punishments))
	for i, punishment := range punishments {
		punishmentRecords[i] = punishmentRecord(punishment, hashes)
	}

	if err := os.MkdirAll(e.outDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := e.writeConfig(); err != nil {
		return nil, err
	}

	for _, format := range e.formats {
		if err := e.export(format, stingRecords, punishmentRecords); err != nil {
			return nil, fmt.Errorf("failed to export %s format: %w", format, err)
		}
	}

	summary := &Summary{
		Stings:      len(stingRecords),
		Punishments: len(punishmentRecords),
		Targets:     len(hashes),
	}

	logger.Info("Ledger export completed",
		zap.Int("stings", summary.Stings),
		zap.Int("punishments", summary.Punishments))

	return summary, nil
}

// writeConfig saves the export configuration next to the exported files.
func (e *Exporter) writeConfig() error {
	jsonConfig := struct {
		*Config

		EngineVersion string `json:"engineVersion"`
	}{
		Config:        e.config,
		EngineVersion: EngineVersion,
	}

	configData, err := sonic.MarshalIndent(jsonConfig, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal export config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(e.outDir, "export_config.json"), configData, 0o600); err != nil {
		return fmt.Errorf("failed to write export config: %w", err)
	}

	return nil
}

// export handles exporting data in the specified format.
func (e *Exporter) export(format Format, stingRecords, punishmentRecords []*types.ExportRecord) error {
	var exporter interface {
		Export(stingRecords, punishmentRecords []*types.ExportRecord) error
	}

	switch format {
	case FormatSQLite:
		exporter = sqlite.New(e.outDir)
	case FormatCSV:
		exporter = csv.New(e.outDir)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return exporter.Export(stingRecords, punishmentRecords)
}

// collect walks every page of a cursor-paginated listing.
func collect[T any](
	ctx context.Context, list func(context.Context, *dbTypes.LedgerCursor) ([]T, *dbTypes.LedgerCursor, error),
) ([]T, error) {
	var (
		all    []T
		cursor *dbTypes.LedgerCursor
	)

	for {
		page, next, err := list(ctx, cursor)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)

		if next == nil {
			return all, nil
		}

		cursor = next
	}
}

func appendUserIDs(ids []snowflake.ID, targets ...dbTypes.Target) []snowflake.ID {
	for _, target := range targets {
		if id, ok := target.UserID(); ok {
			ids = append(ids, id)
		}
	}

	return ids
}

func stingRecord(sting *dbTypes.Sting, hashes map[snowflake.ID]string) *types.ExportRecord {
	return &types.ExportRecord{
		ID:        sting.ID.String(),
		Src:       deref(sting.Src),
		Kind:      stingKind,
		Stings:    sting.Stings,
		Target:    Target(sting.Target, hashes),
		Creator:   Target(sting.Creator, hashes),
		State:     sting.State.String(),
		Reason:    deref(sting.Reason),
		Duration:  seconds(sting.Duration),
		CreatedAt: sting.CreatedAt.Unix(),
	}
}

func punishmentRecord(punishment *dbTypes.Punishment, hashes map[snowflake.ID]string) *types.ExportRecord {
	return &types.ExportRecord{
		ID:        punishment.ID.String(),
		Src:       deref(punishment.Src),
		Kind:      punishment.Punishment,
		Target:    Target(punishment.Target, hashes),
		Creator:   Target(punishment.Creator, hashes),
		State:     punishment.State.String(),
		Reason:    punishment.Reason,
		Duration:  seconds(punishment.Duration),
		CreatedAt: punishment.CreatedAt.Unix(),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func seconds(d *time.Duration) int64 {
	if d == nil {
		return 0
	}

	return int64(d.Seconds())
}

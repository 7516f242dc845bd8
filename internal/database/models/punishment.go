package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/robalyx/antiraid/internal/database/dbretry"
	"github.com/robalyx/antiraid/internal/database/types"
	"github.com/robalyx/antiraid/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// PunishmentModel handles database operations for punishments.
type PunishmentModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewPunishment creates a new PunishmentModel instance.
func NewPunishment(db *bun.DB, logger *zap.Logger) *PunishmentModel {
	return &PunishmentModel{
		db:     db,
		logger: logger.Named("db_punishment"),
	}
}

// Create stores a new punishment.
func (m *PunishmentModel) Create(ctx context.Context, punishment *types.Punishment) error {
	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().Model(punishment).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create punishment: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Created punishment",
		zap.String("id", punishment.ID.String()),
		zap.Uint64("guildID", uint64(punishment.GuildID)),
		zap.String("target", punishment.Target.String()),
		zap.String("punishment", punishment.Punishment))

	return nil
}

// Get retrieves a punishment by its ID.
func (m *PunishmentModel) Get(ctx context.Context, id uuid.UUID) (*types.Punishment, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Punishment, error) {
		var punishment types.Punishment

		err := m.db.NewSelect().
			Model(&punishment).
			Where("id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", types.ErrPunishmentNotFound, id)
			}

			return nil, fmt.Errorf("failed to get punishment: %w", err)
		}

		return &punishment, nil
	})
}

// ListByGuild retrieves punishments of a guild with cursor pagination, newest first.
func (m *PunishmentModel) ListByGuild(
	ctx context.Context, guildID snowflake.ID, filter types.LedgerFilter, cursor *types.LedgerCursor, limit int,
) ([]*types.Punishment, *types.LedgerCursor, error) {
	var (
		punishments []*types.Punishment
		nextCursor  *types.LedgerCursor
	)

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		punishments = nil
		nextCursor = nil

		query := m.db.NewSelect().
			Model(&punishments).
			Where("guild_id = ?", guildID).
			Limit(limit + 1)

		if filter.Target != nil {
			query = query.Where("target = ?", *filter.Target)
		}

		if filter.State != nil {
			query = query.Where("state = ?", *filter.State)
		}

		if cursor != nil {
			query = query.Where("(created_at, id) <= (?, ?)", cursor.CreatedAt, cursor.ID)
		}

		err := query.Order("created_at DESC", "id DESC").Scan(ctx)
		if err != nil {
			return fmt.Errorf("failed to list punishments: %w", err)
		}

		if len(punishments) > limit {
			last := punishments[limit]
			nextCursor = &types.LedgerCursor{CreatedAt: last.CreatedAt, ID: last.ID}
			punishments = punishments[:limit]
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return punishments, nextCursor, nil
}

// Transition moves an active punishment into a terminal state and appends
// the entry to its handle log.
func (m *PunishmentModel) Transition(
	ctx context.Context, id uuid.UUID, to enum.LedgerState, entry types.HandleLogEntry,
) (*types.Punishment, error) {
	if !to.IsTerminal() {
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidEndState, to)
	}

	var punishment types.Punishment

	err := dbretry.Transaction(ctx, m.db, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().
			Model(&punishment).
			Where("id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", types.ErrPunishmentNotFound, id)
			}

			return fmt.Errorf("failed to get punishment: %w", err)
		}

		if punishment.State != enum.LedgerStateActive {
			return fmt.Errorf("%w: punishment %s is %s", types.ErrEntryNotActive, id, punishment.State)
		}

		handleLog, err := types.AppendHandleLog(punishment.HandleLog, entry)
		if err != nil {
			return err
		}

		result, err := tx.NewUpdate().
			Model((*types.Punishment)(nil)).
			Set("state = ?", to).
			Set("handle_log = ?", string(handleLog)).
			Where("id = ?", id).
			Where("state = ?", enum.LedgerStateActive).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update punishment state: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to update punishment state: %w", err)
		}

		if affected == 0 {
			return fmt.Errorf("%w: punishment %s", types.ErrEntryNotActive, id)
		}

		punishment.State = to
		punishment.HandleLog = handleLog

		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("Transitioned punishment",
		zap.String("id", id.String()),
		zap.String("state", to.String()))

	return &punishment, nil
}

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/robalyx/antiraid/internal/database/dbretry"
	"github.com/robalyx/antiraid/internal/database/types"
	"github.com/robalyx/antiraid/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// StingModel handles database operations for stings.
type StingModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewSting creates a new StingModel instance.
func NewSting(db *bun.DB, logger *zap.Logger) *StingModel {
	return &StingModel{
		db:     db,
		logger: logger.Named("db_sting"),
	}
}

// Create stores a new sting.
func (m *StingModel) Create(ctx context.Context, sting *types.Sting) error {
	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().Model(sting).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create sting: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Created sting",
		zap.String("id", sting.ID.String()),
		zap.Uint64("guildID", uint64(sting.GuildID)),
		zap.String("target", sting.Target.String()),
		zap.Int32("stings", sting.Stings))

	return nil
}

// Get retrieves a sting by its ID.
func (m *StingModel) Get(ctx context.Context, id uuid.UUID) (*types.Sting, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Sting, error) {
		var sting types.Sting

		err := m.db.NewSelect().
			Model(&sting).
			Where("id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", types.ErrStingNotFound, id)
			}

			return nil, fmt.Errorf("failed to get sting: %w", err)
		}

		return &sting, nil
	})
}

// ListByGuild retrieves stings of a guild with cursor pagination, newest first.
func (m *StingModel) ListByGuild(
	ctx context.Context, guildID snowflake.ID, filter types.LedgerFilter, cursor *types.LedgerCursor, limit int,
) ([]*types.Sting, *types.LedgerCursor, error) {
	var (
		stings     []*types.Sting
		nextCursor *types.LedgerCursor
	)

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		stings = nil
		nextCursor = nil

		query := m.db.NewSelect().
			Model(&stings).
			Where("guild_id = ?", guildID).
			Limit(limit + 1) // Get one extra to determine if there's a next page

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
			return fmt.Errorf("failed to list stings: %w", err)
		}

		if len(stings) > limit {
			last := stings[limit]
			nextCursor = &types.LedgerCursor{CreatedAt: last.CreatedAt, ID: last.ID}
			stings = stings[:limit]
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return stings, nextCursor, nil
}

// Aggregate returns the active sting totals of a guild grouped by (src, target).
func (m *StingModel) Aggregate(ctx context.Context, guildID snowflake.ID) ([]types.StingAggregate, error) {
	return m.aggregate(ctx, guildID, nil)
}

// AggregateForUser returns the active sting totals of a guild that apply to
// the given user: rows targeting the user and rows targeting the system.
func (m *StingModel) AggregateForUser(
	ctx context.Context, guildID snowflake.ID, userID snowflake.ID,
) ([]types.StingAggregate, error) {
	return m.aggregate(ctx, guildID, []types.Target{types.UserTarget(userID), types.SystemTarget()})
}

func (m *StingModel) aggregate(
	ctx context.Context, guildID snowflake.ID, targets []types.Target,
) ([]types.StingAggregate, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]types.StingAggregate, error) {
		var rows []types.StingAggregate

		query := m.db.NewSelect().
			Model((*types.Sting)(nil)).
			ColumnExpr("src, target, SUM(stings) AS total_stings").
			Where("guild_id = ?", guildID).
			Where("state = ?", enum.LedgerStateActive)

		if len(targets) > 0 {
			query = query.Where("target IN (?)", bun.In(targets))
		}

		err := query.
			Group("src", "target").
			OrderExpr("target ASC").
			Scan(ctx, &rows)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate stings: %w", err)
		}

		return rows, nil
	})
}

// ExpiryCandidates returns up to limit active stings whose expiry is at or
// before now, soonest expiry first.
func (m *StingModel) ExpiryCandidates(ctx context.Context, now time.Time, limit int) ([]*types.Sting, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Sting, error) {
		var stings []*types.Sting

		err := m.db.NewSelect().
			Model(&stings).
			Where("state = ?", enum.LedgerStateActive).
			Where("expires_at IS NOT NULL").
			Where("expires_at <= ?", now.UTC()).
			Order("expires_at ASC", "id ASC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get expiry candidates: %w", err)
		}

		return stings, nil
	})
}

// Transition moves an active sting into a terminal state and appends the
// entry to its handle log. Returns types.ErrEntryNotActive if the sting
// already left the active state.
func (m *StingModel) Transition(
	ctx context.Context, id uuid.UUID, to enum.LedgerState, voidReason *string, entry types.HandleLogEntry,
) (*types.Sting, error) {
	if !to.IsTerminal() {
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidEndState, to)
	}

	var sting types.Sting

	err := dbretry.Transaction(ctx, m.db, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().
			Model(&sting).
			Where("id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", types.ErrStingNotFound, id)
			}

			return fmt.Errorf("failed to get sting: %w", err)
		}

		if sting.State != enum.LedgerStateActive {
			return fmt.Errorf("%w: sting %s is %s", types.ErrEntryNotActive, id, sting.State)
		}

		handleLog, err := types.AppendHandleLog(sting.HandleLog, entry)
		if err != nil {
			return err
		}

		query := tx.NewUpdate().
			Model((*types.Sting)(nil)).
			Set("state = ?", to).
			Set("handle_log = ?", string(handleLog)).
			Where("id = ?", id).
			Where("state = ?", enum.LedgerStateActive)

		if voidReason != nil {
			query = query.Set("void_reason = ?", *voidReason)
		}

		result, err := query.Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update sting state: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to update sting state: %w", err)
		}

		if affected == 0 {
			return fmt.Errorf("%w: sting %s", types.ErrEntryNotActive, id)
		}

		sting.State = to
		sting.HandleLog = handleLog

		if voidReason != nil {
			sting.VoidReason = voidReason
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("Transitioned sting",
		zap.String("id", id.String()),
		zap.String("state", to.String()))

	return &sting, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/robalyx/antiraid/internal/database/models"
	"github.com/robalyx/antiraid/internal/database/types"
	"github.com/robalyx/antiraid/internal/database/types/enum"
	"go.uber.org/zap"
)

// Handle log actions written by the ledger service.
const (
	HandleActionVoided  = "voided"
	HandleActionHandled = "handled"
	HandleActionExpired = "expired"
)

// DefaultExpiryBatchSize is the number of candidates loaded per expiry pass.
const DefaultExpiryBatchSize = 500

// GuildTotals is the folded sting totals of a guild.
type GuildTotals struct {
	PerUser map[snowflake.ID]int64 // Direct user totals with system stings added
	System  int64                  // Total of system-targeted stings
	Total   int64                  // Sum of every active sting regardless of target
}

// LedgerOption configures a LedgerService.
type LedgerOption func(*LedgerService)

// WithIDGenerator overrides the generator used for new ledger entry IDs.
func WithIDGenerator(fn func() uuid.UUID) LedgerOption {
	return func(s *LedgerService) {
		s.newID = fn
	}
}

// WithClock overrides the clock used for creation and expiry timestamps.
func WithClock(fn func() time.Time) LedgerOption {
	return func(s *LedgerService) {
		s.now = fn
	}
}

// LedgerService handles sting and punishment business logic.
type LedgerService struct {
	stings      *models.StingModel
	punishments *models.PunishmentModel
	newID       func() uuid.UUID
	now         func() time.Time
	logger      *zap.Logger
}

// NewLedger creates a new ledger service.
func NewLedger(
	stings *models.StingModel, punishments *models.PunishmentModel, logger *zap.Logger, opts ...LedgerOption,
) *LedgerService {
	s := &LedgerService{
		stings:      stings,
		punishments: punishments,
		newID:       uuid.New,
		now:         time.Now,
		logger:      logger.Named("ledger_service"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateSting assigns an ID and creation time to the request and stores it.
func (s *LedgerService) CreateSting(ctx context.Context, req *types.StingCreate) (*types.Sting, error) {
	sting := req.ToSting(s.newID(), s.now())

	if err := s.stings.Create(ctx, sting); err != nil {
		return nil, err
	}

	return sting, nil
}

// CreatePunishment assigns an ID and creation time to the request and stores it.
func (s *LedgerService) CreatePunishment(ctx context.Context, req *types.PunishmentCreate) (*types.Punishment, error) {
	punishment := req.ToPunishment(s.newID(), s.now())

	if err := s.punishments.Create(ctx, punishment); err != nil {
		return nil, err
	}

	return punishment, nil
}

// VoidSting nullifies an active sting.
func (s *LedgerService) VoidSting(
	ctx context.Context, id uuid.UUID, actor types.Target, reason *string,
) (*types.Sting, error) {
	return s.stings.Transition(ctx, id, enum.LedgerStateVoided, reason, s.entry(HandleActionVoided, actor, reason))
}

// HandleSting marks an active sting as processed.
func (s *LedgerService) HandleSting(
	ctx context.Context, id uuid.UUID, actor types.Target, note *string,
) (*types.Sting, error) {
	return s.stings.Transition(ctx, id, enum.LedgerStateHandled, nil, s.entry(HandleActionHandled, actor, note))
}

// VoidPunishment nullifies an active punishment.
func (s *LedgerService) VoidPunishment(
	ctx context.Context, id uuid.UUID, actor types.Target, note *string,
) (*types.Punishment, error) {
	return s.punishments.Transition(ctx, id, enum.LedgerStateVoided, s.entry(HandleActionVoided, actor, note))
}

// HandlePunishment marks an active punishment as processed.
func (s *LedgerService) HandlePunishment(
	ctx context.Context, id uuid.UUID, actor types.Target, note *string,
) (*types.Punishment, error) {
	return s.punishments.Transition(ctx, id, enum.LedgerStateHandled, s.entry(HandleActionHandled, actor, note))
}

// GuildStingTotals folds the active stings of a guild into per-user totals.
func (s *LedgerService) GuildStingTotals(ctx context.Context, guildID snowflake.ID) (*GuildTotals, error) {
	rows, err := s.stings.Aggregate(ctx, guildID)
	if err != nil {
		return nil, err
	}

	perUser, system := types.TotalStingsPerUser(rows)

	return &GuildTotals{
		PerUser: perUser,
		System:  system,
		Total:   types.TotalStings(rows),
	}, nil
}

// UserStings returns the active sting total that applies to a user,
// including system-wide stings.
func (s *LedgerService) UserStings(ctx context.Context, guildID, userID snowflake.ID) (int64, error) {
	rows, err := s.stings.AggregateForUser(ctx, guildID, userID)
	if err != nil {
		return 0, err
	}

	return types.TotalStings(rows), nil
}

// ExpireStings marks every active sting whose duration elapsed as handled.
// Candidates are loaded batchSize at a time until none are left. Returns the
// number of stings that were expired.
func (s *LedgerService) ExpireStings(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultExpiryBatchSize
	}

	now := s.now().UTC()
	expired := 0

	for {
		candidates, err := s.stings.ExpiryCandidates(ctx, now, batchSize)
		if err != nil {
			return expired, fmt.Errorf("failed to load expiry candidates: %w", err)
		}

		count, err := s.expireBatch(ctx, candidates, now)
		expired += count

		if err != nil {
			return expired, err
		}

		// A short batch is the last one. A batch without progress would repeat forever.
		if len(candidates) < batchSize || count == 0 {
			break
		}
	}

	if expired > 0 {
		s.logger.Info("Expired stings", zap.Int("count", expired))
	}

	return expired, nil
}

func (s *LedgerService) expireBatch(ctx context.Context, candidates []*types.Sting, now time.Time) (int, error) {
	expired := 0

	for _, sting := range candidates {
		if !sting.IsExpired(now) {
			continue
		}

		entry := types.HandleLogEntry{Action: HandleActionExpired, Actor: types.SystemTarget(), At: now}

		_, err := s.stings.Transition(ctx, sting.ID, enum.LedgerStateHandled, nil, entry)
		if err != nil {
			// Another worker already moved the sting out of the active state
			if errors.Is(err, types.ErrEntryNotActive) {
				continue
			}

			return expired, fmt.Errorf("failed to expire sting %s: %w", sting.ID, err)
		}

		expired++
	}

	return expired, nil
}

func (s *LedgerService) entry(action string, actor types.Target, note *string) types.HandleLogEntry {
	return types.HandleLogEntry{
		Action: action,
		Actor:  actor,
		At:     s.now().UTC(),
		Note:   note,
	}
}

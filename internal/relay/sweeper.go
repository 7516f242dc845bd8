package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	"github.com/robalyx/antiraid/pkg/utils"
	"go.uber.org/zap"
)

// ExpiryLockKey is the Redis key guarding expiry sweeps across relay instances.
const ExpiryLockKey = "antiraid:expiry_lock"

// Expirer expires stings whose duration elapsed.
type Expirer interface {
	ExpireStings(ctx context.Context, batchSize int) (int, error)
}

// Sweeper periodically expires stings. Only the instance holding the sweep
// lock for the current interval performs the sweep.
type Sweeper struct {
	expirer    Expirer
	lock       rueidis.Client
	instanceID string
	interval   time.Duration
	batchSize  int
	logger     *zap.Logger
}

// NewSweeper creates a sweeper. The lock client should use a database
// separate from cached data.
func NewSweeper(
	expirer Expirer, lock rueidis.Client, instanceID string, interval time.Duration, batchSize int, logger *zap.Logger,
) *Sweeper {
	return &Sweeper{
		expirer:    expirer,
		lock:       lock,
		instanceID: instanceID,
		interval:   interval,
		batchSize:  batchSize,
		logger:     logger.Named("expiry_sweeper"),
	}
}

// Run sweeps once per interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.Info("Starting expiry sweeper", zap.Duration("interval", s.interval))

	for {
		if utils.ContextGuard(ctx) {
			return nil
		}

		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("Expiry sweep failed", zap.Error(err))
		}

		if !utils.IntervalSleep(ctx, s.interval, s.logger, "expiry sweeper") {
			return nil
		}
	}
}

// Sweep expires stings when this instance wins the lock for the interval.
// Returns the number of expired stings.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	acquired, err := s.acquire(ctx)
	if err != nil {
		return 0, err
	}

	if !acquired {
		s.logger.Debug("Another instance holds the expiry lock")
		return 0, nil
	}

	return s.expirer.ExpireStings(ctx, s.batchSize)
}

// acquire takes the lock until the end of the interval. The lock is never
// released early so that at most one sweep runs per interval.
func (s *Sweeper) acquire(ctx context.Context) (bool, error) {
	cmd := s.lock.B().Set().
		Key(ExpiryLockKey).
		Value(s.instanceID).
		Nx().
		PxMilliseconds(max(s.interval.Milliseconds(), 1)).
		Build()

	err := s.lock.Do(ctx, cmd).Error()
	if rueidis.IsRedisNil(err) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to acquire expiry lock: %w", err)
	}

	return true, nil
}

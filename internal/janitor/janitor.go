package janitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"courtside/internal/apperr"
	"courtside/internal/logger"
)

const (
	OverdueLockKey = "courtside:janitor:overdue"

	DefaultInterval = 5 * time.Minute
)

var ErrSweepInProgress = fmt.Errorf("%w: another instance is sweeping", apperr.ErrConflict)

// Sweeper cancels sessions that never started. gamesession.Service
// satisfies it.
type Sweeper interface {
	MarkOverdueSessions(ctx context.Context, now time.Time) (int, error)
}

type Janitor struct {
	sweeper   Sweeper
	locker    Locker
	scheduler gocron.Scheduler
	interval  time.Duration
	lockTTL   time.Duration
	now       func() time.Time
}

// New builds a janitor that sweeps every interval. A nil locker means this is
// the only instance and no lock is taken.
func New(sweeper Sweeper, locker Locker, interval time.Duration) (*Janitor, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Janitor{
		sweeper:   sweeper,
		locker:    locker,
		scheduler: scheduler,
		interval:  interval,
		lockTTL:   interval,
		now:       time.Now,
	}, nil
}

func (j *Janitor) Start() error {
	_, err := j.scheduler.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(j.tick),
		gocron.WithName("mark-overdue-sessions"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}

	j.scheduler.Start()
	logger.Info("janitor started", "interval", j.interval.String())
	return nil
}

func (j *Janitor) Stop() error {
	if err := j.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	logger.Info("janitor stopped")
	return nil
}

func (j *Janitor) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	n, err := j.SweepOnce(ctx)
	switch {
	case errors.Is(err, ErrSweepInProgress):
		logger.Debug("sweep skipped, lock held elsewhere")
	case err != nil:
		logger.Error("overdue sweep failed", "error", err)
	case n > 0:
		logger.Info("overdue sweep done", "cancelled", n)
	}
}

// SweepOnce runs one sweep under the shared lock.
func (j *Janitor) SweepOnce(ctx context.Context) (int, error) {
	if j.locker == nil {
		return j.sweeper.MarkOverdueSessions(ctx, j.now())
	}

	token, ok, err := j.locker.Acquire(ctx, OverdueLockKey, j.lockTTL)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrSweepInProgress
	}
	defer func() {
		if err := j.locker.Release(context.WithoutCancel(ctx), OverdueLockKey, token); err != nil {
			logger.Warn("release janitor lock", "error", err)
		}
	}()

	return j.sweeper.MarkOverdueSessions(ctx, j.now())
}

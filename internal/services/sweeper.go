package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/fastygo/gameday/domain"
)

// SweepTarget is the store the sweeper reclassifies. MarkMissed is the only
// write it performs.
type SweepTarget interface {
	Reminders() []domain.Reminder
	MarkMissed(ctx context.Context, id string, at time.Time) (domain.Reminder, bool, error)
}

// SweeperConfig controls how frequently overdue reminders are swept.
type SweeperConfig struct {
	Interval time.Duration
	Clock    domain.Clock
}

// Sweeper turns reminders that passed their deadline uncompleted into turnovers.
// A reminder whose write-back fails stays open and is retried on the next tick.
type Sweeper struct {
	target SweepTarget
	logger *zap.Logger
	cron   *cron.Cron
	cfg    SweeperConfig

	runMu  sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func NewSweeper(target SweepTarget, logger *zap.Logger, cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Sweeper{
		target: target,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
		ctx:    ctx,
		cancel: cancel,
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(s.ctx, cfg.Interval)
		defer cancel()
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("overdue sweep incomplete", zap.Error(err))
		}
	})

	return s
}

// Start sweeps once right away, catching reminders that went overdue while
// nothing was running, then launches the schedule.
func (s *Sweeper) Start() {
	if s == nil || s.cron == nil {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.Interval)
	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error("initial overdue sweep incomplete", zap.Error(err))
	}
	cancel()

	s.cron.Start()
	s.logger.Info("overdue sweeper started", zap.Duration("interval", s.cfg.Interval))
}

// Stop cancels in-flight sweeps and waits for the scheduler to wind down.
func (s *Sweeper) Stop(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	s.cancel()
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("overdue sweeper stopped")
}

// Sweep marks every open reminder whose deadline is strictly before now as
// missed and returns the reminders it transitioned. Failures are collected and
// returned together; the sweep still visits every reminder.
func (s *Sweeper) Sweep(ctx context.Context) ([]domain.Reminder, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	now := s.cfg.Clock.Now()

	var (
		swept []domain.Reminder
		errs  error
	)
	for _, r := range s.target.Reminders() {
		if !r.IsOverdue(now) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return swept, multierr.Append(errs, err)
		}

		updated, changed, err := s.target.MarkMissed(ctx, r.ID, now)
		if err != nil {
			s.logger.Warn("mark reminder missed failed",
				zap.String("reminder_id", r.ID),
				zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("reminder %s: %w", r.ID, err))
			continue
		}
		if changed {
			swept = append(swept, updated)
		}
	}

	if len(swept) > 0 {
		s.logger.Info("overdue reminders swept", zap.Int("count", len(swept)))
	}
	return swept, errs
}

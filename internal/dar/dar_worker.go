package dar

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const schedulerPollInterval = time.Minute

// Scheduler drives the two wall-clock triggers: the daily marker sweep and
// the evening reminder pass. Last-fired guards keep each trigger to one
// firing per day or per hour even though the poll is much finer.
type Scheduler struct {
	svc    Service
	cfg    Config
	logger *zap.Logger

	lastSweepDay    string
	lastReminderKey string
}

func NewScheduler(svc Service, cfg Config, logger ...*zap.Logger) *Scheduler {
	l := zap.L().Named("dar.scheduler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("dar.scheduler")
	}
	return &Scheduler{svc: svc, cfg: cfg, logger: l}
}

// Tick evaluates both triggers against the given wall-clock instant.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	day := DateKey(now)

	if now.Hour() == s.cfg.SweepHour && s.lastSweepDay != day {
		s.lastSweepDay = day
		// Reports land under the evening's date key, so the morning sweep
		// settles the previous day's markers.
		if _, err := s.svc.Sweep(ctx, now.AddDate(0, 0, -1)); err != nil {
			s.logger.Warn("dar sweep failed", zap.Error(err))
		}
	}

	if now.Weekday() == s.cfg.WeeklyOff {
		return
	}
	hour := now.Hour()
	if hour < s.cfg.ReminderStartHour || hour > s.cfg.ReminderEndHour {
		return
	}
	key := fmt.Sprintf("%s/%02d", day, hour)
	if s.lastReminderKey == key {
		return
	}
	s.lastReminderKey = key
	if _, err := s.svc.RemindPending(ctx, now); err != nil {
		s.logger.Warn("dar reminder pass failed", zap.Error(err))
	}
}

// Run polls every minute until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(schedulerPollInterval)
	defer ticker.Stop()

	s.logger.Info("dar scheduler started",
		zap.Int("sweep_hour", s.cfg.SweepHour),
		zap.Int("reminder_start_hour", s.cfg.ReminderStartHour),
		zap.Int("reminder_end_hour", s.cfg.ReminderEndHour),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("dar scheduler stopped")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

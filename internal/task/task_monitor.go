package task

import (
	"context"
	"time"

	"concord-desk/internal/notify"
	"concord-desk/internal/shared/apperror"
	"concord-desk/internal/shared/storequeue"

	"go.uber.org/zap"
)

const (
	reclaimPollInterval = 5 * time.Second
	feedSweepInterval   = time.Minute
)

// ReclaimIdleSessions closes draft sessions that have been idle past the
// limit and tells the assigner their session was reclaimed.
func (s *service) ReclaimIdleSessions(ctx context.Context) error {
	stale, err := s.repo.FindStaleDrafts(ctx, time.Now().Add(-s.sessionIdleLimit))
	if err != nil {
		return apperror.StorageFault(err)
	}
	for i := range stale {
		t := stale[i]
		_, err := storequeue.Do(ctx, s.queue, func(ctx context.Context) (struct{}, error) {
			tx, err := s.db.BeginTx(ctx, nil)
			if err != nil {
				return struct{}{}, apperror.StorageFault(err)
			}
			defer tx.Rollback()
			qtx := s.repo.WithTx(tx)

			// Re-read: the assigner may have touched it since the scan.
			cur, err := qtx.FindByID(ctx, t.ID.String())
			if err != nil {
				return struct{}{}, apperror.StorageFault(err)
			}
			if cur.Status != StatusDraft || time.Since(cur.LastActivityAt) < s.sessionIdleLimit {
				return struct{}{}, nil
			}

			cur.Status = StatusClosed
			if err := qtx.Update(ctx, cur); err != nil {
				return struct{}{}, apperror.StorageFault(err)
			}

			assigner, err := s.employees.WithTx(tx).FindByID(ctx, cur.AssignerID)
			if err != nil {
				return struct{}{}, apperror.StorageFault(err)
			}
			if err := s.notifier.DM(ctx, tx, assigner.MemberID, notify.Notice{
				Aggregate:   "task",
				AggregateID: cur.ID.String(),
				EventType:   "task.session_reclaimed",
				Subject:     "Task session closed after inactivity",
				Body:        "The session sat idle too long and was reclaimed. Start a new one when ready.",
			}); err != nil {
				return struct{}{}, apperror.NotificationFault(err)
			}

			return struct{}{}, tx.Commit()
		})
		if err != nil {
			s.logger.Warn("task session reclaim failed",
				zap.String("task_id", t.ID.String()), zap.Error(err))
			continue
		}
		s.logger.Info("task session reclaimed", zap.String("task_id", t.ID.String()))
	}
	return nil
}

// CleanupOrphanFeeds removes feed rows whose task already left the open
// states and asks the gateway to delete the matching chat messages.
func (s *service) CleanupOrphanFeeds(ctx context.Context) error {
	orphans, err := s.repo.FindOrphanFeedEntries(ctx)
	if err != nil {
		return apperror.StorageFault(err)
	}
	for i := range orphans {
		e := orphans[i]
		_, err := storequeue.Do(ctx, s.queue, func(ctx context.Context) (struct{}, error) {
			tx, err := s.db.BeginTx(ctx, nil)
			if err != nil {
				return struct{}{}, apperror.StorageFault(err)
			}
			defer tx.Rollback()
			qtx := s.repo.WithTx(tx)

			if e.MessageID != "" {
				if err := s.notifier.Channel(ctx, tx, e.ChannelID, notify.Notice{
					Aggregate:   "task",
					AggregateID: e.TaskID.String(),
					EventType:   "task.feed_prune",
					Fields:      map[string]string{"message_id": e.MessageID},
				}); err != nil {
					return struct{}{}, apperror.NotificationFault(err)
				}
			}
			if err := qtx.DeleteFeedEntry(ctx, e.ID.String()); err != nil {
				return struct{}{}, apperror.StorageFault(err)
			}
			return struct{}{}, tx.Commit()
		})
		if err != nil {
			s.logger.Warn("feed cleanup failed",
				zap.String("entry_id", e.ID.String()), zap.Error(err))
		}
	}
	return nil
}

// RunMonitors drives session reclaim and feed cleanup until the context is
// cancelled. Errors are logged and the loops keep going.
func RunMonitors(ctx context.Context, svc Service, logger *zap.Logger) {
	log := logger.Named("task.monitor")

	reclaim := time.NewTicker(reclaimPollInterval)
	defer reclaim.Stop()
	sweep := time.NewTicker(feedSweepInterval)
	defer sweep.Stop()

	log.Info("task monitors started",
		zap.Duration("reclaim_interval", reclaimPollInterval),
		zap.Duration("feed_sweep_interval", feedSweepInterval),
	)

	for {
		select {
		case <-ctx.Done():
			log.Info("task monitors stopped")
			return
		case <-reclaim.C:
			if err := svc.ReclaimIdleSessions(ctx); err != nil {
				log.Warn("session reclaim pass failed", zap.Error(err))
			}
		case <-sweep.C:
			if err := svc.CleanupOrphanFeeds(ctx); err != nil {
				log.Warn("feed sweep pass failed", zap.Error(err))
			}
		}
	}
}

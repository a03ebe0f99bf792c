package dar

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"concord-desk/internal/employee"
	"concord-desk/internal/notify"
	"concord-desk/internal/shared/apperror"
	"concord-desk/internal/shared/storequeue"

	"go.uber.org/zap"
)

// Config drives the daily-activity-report schedule. Hours are local wall
// clock, matching how the office reads them.
type Config struct {
	// SweepHour is when the previous day's markers are cleared.
	SweepHour int
	// ReminderStartHour and ReminderEndHour bound the evening window in which
	// employees without a marker get nudged, once per hour.
	ReminderStartHour int
	ReminderEndHour   int
	// WeeklyOff suppresses reminders on the weekly off day.
	WeeklyOff time.Weekday
	// ExemptRoles never receive reminders.
	ExemptRoles []string
	// SweepLogPath, when set, appends one line per sweep naming who submitted.
	SweepLogPath string
}

func DefaultConfig() Config {
	return Config{
		SweepHour:         11,
		ReminderStartHour: 19,
		ReminderEndHour:   22,
		WeeklyOff:         time.Sunday,
		ExemptRoles:       []string{"dar_exempt", "on_leave"},
	}
}

//go:generate mockgen -source=dar_service.go -destination=mock/dar_service_mock.go -package=mock
type Service interface {
	// MarkSubmitted records that the actor posted today's report. Idempotent.
	MarkSubmitted(ctx context.Context, actor Actor) (*SubmissionResponse, error)
	// Submitted lists who holds a marker for the given day.
	Submitted(ctx context.Context, day time.Time) (*SweepResponse, error)
	// Sweep clears every marker for the given day and returns the display
	// names of those who had one.
	Sweep(ctx context.Context, day time.Time) ([]string, error)
	// RemindPending DMs every employee without a marker for the given day,
	// skipping exempt roles. Returns how many reminders were queued.
	RemindPending(ctx context.Context, day time.Time) (int, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	employees employee.Repository
	queue     *storequeue.Queue
	notifier  notify.Notifier
	cfg       Config
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	employees employee.Repository,
	queue *storequeue.Queue,
	notifier notify.Notifier,
	cfg Config,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("dar.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("dar.service")
	}
	if cfg.SweepHour == 0 && cfg.ReminderStartHour == 0 {
		cfg = DefaultConfig()
	}
	return &service{
		db:        db,
		repo:      repo,
		employees: employees,
		queue:     queue,
		notifier:  notifier,
		cfg:       cfg,
		logger:    l,
	}
}

func (s *service) MarkSubmitted(ctx context.Context, actor Actor) (*SubmissionResponse, error) {
	return storequeue.Do(ctx, s.queue, func(ctx context.Context) (*SubmissionResponse, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		defer tx.Rollback()

		key := DateKey(time.Now())
		if err := s.repo.WithTx(tx).MarkSubmitted(ctx, actor.EmployeeID, key); err != nil {
			return nil, apperror.StorageFault(err)
		}
		if err := tx.Commit(); err != nil {
			return nil, apperror.StorageFault(err)
		}

		s.logger.Info("dar marked submitted",
			zap.String("employee_id", actor.EmployeeID),
			zap.String("report_date", key),
		)
		return &SubmissionResponse{EmployeeID: actor.EmployeeID, ReportDate: key}, nil
	})
}

func (s *service) Submitted(ctx context.Context, day time.Time) (*SweepResponse, error) {
	key := DateKey(day)
	subs, err := s.repo.FindAllForDate(ctx, key)
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	names, err := s.resolveNames(ctx, s.employees, subs)
	if err != nil {
		return nil, err
	}
	return &SweepResponse{ReportDate: key, Submitted: names}, nil
}

func (s *service) Sweep(ctx context.Context, day time.Time) ([]string, error) {
	key := DateKey(day)
	names, err := storequeue.Do(ctx, s.queue, func(ctx context.Context) ([]string, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		defer tx.Rollback()
		qtx := s.repo.WithTx(tx)

		subs, err := qtx.FindAllForDate(ctx, key)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		names, err := s.resolveNames(ctx, s.employees.WithTx(tx), subs)
		if err != nil {
			return nil, err
		}
		if err := qtx.ClearForDate(ctx, key); err != nil {
			return nil, apperror.StorageFault(err)
		}
		return names, tx.Commit()
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("dar markers swept",
		zap.String("report_date", key),
		zap.Int("submitted", len(names)),
		zap.Strings("names", names),
	)
	s.appendSweepLog(key, names)
	return names, nil
}

func (s *service) RemindPending(ctx context.Context, day time.Time) (int, error) {
	key := DateKey(day)
	members, err := s.employees.FindAll(ctx)
	if err != nil {
		return 0, apperror.StorageFault(err)
	}

	sent := 0
	for i := range members {
		m := members[i]
		if m.Roles.HasAny(s.cfg.ExemptRoles...) {
			continue
		}
		done, err := s.repo.HasSubmitted(ctx, m.ID.String(), key)
		if err != nil {
			s.logger.Warn("dar reminder lookup failed",
				zap.String("employee_id", m.ID.String()), zap.Error(err))
			continue
		}
		if done {
			continue
		}

		// One queue unit per person; a closed DM channel must not stop the
		// rest of the pass.
		_, err = storequeue.Do(ctx, s.queue, func(ctx context.Context) (struct{}, error) {
			tx, err := s.db.BeginTx(ctx, nil)
			if err != nil {
				return struct{}{}, apperror.StorageFault(err)
			}
			defer tx.Rollback()

			if err := s.notifier.DM(ctx, tx, m.MemberID, notify.Notice{
				Aggregate:   "dar",
				AggregateID: m.ID.String(),
				EventType:   "dar.reminder",
				Subject:     "Daily activity report pending",
				Body:        "You have not posted today's activity report yet.",
			}); err != nil {
				return struct{}{}, apperror.NotificationFault(err)
			}
			return struct{}{}, tx.Commit()
		})
		if err != nil {
			s.logger.Warn("dar reminder failed",
				zap.String("employee_id", m.ID.String()), zap.Error(err))
			continue
		}
		sent++
	}

	s.logger.Info("dar reminders queued",
		zap.String("report_date", key), zap.Int("sent", sent))
	return sent, nil
}

func (s *service) resolveNames(ctx context.Context, emps employee.Repository, subs []Submission) ([]string, error) {
	names := make([]string, 0, len(subs))
	for _, sub := range subs {
		m, err := emps.FindByID(ctx, sub.EmployeeID)
		if err != nil {
			// Revoked since submitting; keep the id so the sweep record is
			// still complete.
			names = append(names, sub.EmployeeID)
			continue
		}
		names = append(names, m.DisplayName)
	}
	return names, nil
}

// appendSweepLog keeps the flat daily ledger the office is used to reading.
func (s *service) appendSweepLog(dateKey string, names []string) {
	if s.cfg.SweepLogPath == "" {
		return
	}
	f, err := os.OpenFile(s.cfg.SweepLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		s.logger.Warn("dar sweep log open failed", zap.Error(err))
		return
	}
	defer f.Close()
	line := fmt.Sprintf("%s\t%s\n", dateKey, strings.Join(names, ", "))
	if _, err := f.WriteString(line); err != nil {
		s.logger.Warn("dar sweep log write failed", zap.Error(err))
	}
}

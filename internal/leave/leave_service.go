package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"concord-desk/internal/employee"
	leaveerrors "concord-desk/internal/leave/errors"
	"concord-desk/internal/notify"
	"concord-desk/internal/shared/apperror"
	"concord-desk/internal/shared/storequeue"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reviewers holds the member ids of the standing review chain.
type Reviewers struct {
	FirstMemberID  string
	SecondMemberID string
	ThirdMemberID  string
}

type Config struct {
	Reviewers Reviewers
	// WeeklyOff is the non-working weekday excluded from day counts.
	WeeklyOff time.Weekday
}

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	SubmitFullDay(ctx context.Context, actor Actor, req SubmitFullDayRequest) (*LeaveResponse, error)
	SubmitHalfDay(ctx context.Context, actor Actor, req SubmitHalfDayRequest) (*LeaveResponse, error)
	SubmitOffDuty(ctx context.Context, actor Actor, req SubmitOffDutyRequest) (*LeaveResponse, error)

	Accept(ctx context.Context, actor Actor, leaveID string, req ReviewRequest) (*LeaveResponse, error)
	Decline(ctx context.Context, actor Actor, leaveID string, req DeclineRequest) (*LeaveResponse, error)
	Withdraw(ctx context.Context, actor Actor, leaveID string) (*LeaveResponse, error)
	Cancel(ctx context.Context, actor Actor, leaveID string) (*LeaveResponse, error)

	GetByID(ctx context.Context, id string) (*LeaveResponse, error)
	GetAllByEmployee(ctx context.Context, employeeID string) ([]LeaveResponse, error)
	GetAll(ctx context.Context) ([]LeaveResponse, error)

	BalanceOf(ctx context.Context, employeeID string) (*BalanceResponse, error)
	AllBalances(ctx context.Context) ([]BalanceResponse, error)

	AttachTicketMessage(ctx context.Context, ticketID string, req AttachMessageRequest) error
	OpenTicketsFor(ctx context.Context, approverID string) ([]TicketResponse, error)

	ExportMonth(ctx context.Context, year int, month time.Month) ([]byte, error)

	// BalanceStore side, consumed by employee provisioning.
	EnsureBalance(ctx context.Context, tx *sql.Tx, employeeID string) error
	RemoveBalance(ctx context.Context, tx *sql.Tx, employeeID string) error
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
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	if cfg.WeeklyOff == 0 {
		cfg.WeeklyOff = time.Sunday
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

func parseReason(s string) (LeaveReason, error) {
	switch LeaveReason(s) {
	case ReasonCasual, ReasonSick, ReasonCompOff:
		return LeaveReason(s), nil
	default:
		return "", leaveerrors.ErrInvalidReason
	}
}

// entryStage is where a fresh request enters the pipeline. Members holding a
// fast-track role report directly to the second-stage reviewer.
func entryStage(actor Actor) Stage {
	if hasFastTrackRole(actor.Roles) {
		return StageSecond
	}
	return StageFirst
}

func (s *service) reviewerForStage(ctx context.Context, emps employee.Repository, stage Stage) (*employee.Employee, error) {
	var memberID string
	switch stage {
	case StageFirst:
		memberID = s.cfg.Reviewers.FirstMemberID
	case StageSecond:
		memberID = s.cfg.Reviewers.SecondMemberID
	case StageThird:
		memberID = s.cfg.Reviewers.ThirdMemberID
	}
	reviewer, err := emps.FindByMemberID(ctx, memberID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternalError,
			"reviewer for stage "+string(stage)+" is not provisioned", 500)
	}
	return reviewer, nil
}

func (s *service) SubmitFullDay(ctx context.Context, actor Actor, req SubmitFullDayRequest) (*LeaveResponse, error) {
	reason, err := parseReason(req.Reason)
	if err != nil {
		return nil, err
	}
	from, err := ParseDate(req.DateFrom)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidInput, err.Error(), 400)
	}
	to, err := ParseDate(req.DateTo)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidInput, err.Error(), 400)
	}
	if to.Before(from) {
		return nil, leaveerrors.ErrInvalidDateRange
	}

	days := CountDaysOff(from, to, s.cfg.WeeklyOff)
	if days.IsZero() {
		return nil, leaveerrors.ErrInvalidDateRange
	}
	resume := ResumeDate(to, s.cfg.WeeklyOff)

	l := &Leave{
		ID:             uuid.New(),
		EmployeeID:     actor.EmployeeID,
		LeaveType:      TypeFullDay,
		Reason:         reason,
		DateFrom:       from,
		DateTo:         to,
		DaysOff:        decimal.NewNullDecimal(days),
		ResumeOfficeOn: &resume,
		Description:    req.Description,
	}
	return s.submit(ctx, actor, l)
}

func (s *service) SubmitHalfDay(ctx context.Context, actor Actor, req SubmitHalfDayRequest) (*LeaveResponse, error) {
	reason, err := parseReason(req.Reason)
	if err != nil {
		return nil, err
	}
	if req.Period != PeriodForenoon && req.Period != PeriodAfternoon {
		return nil, leaveerrors.ErrInvalidPeriod
	}
	day, err := ParseDate(req.Date)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidInput, err.Error(), 400)
	}
	resume := ResumeDate(day, s.cfg.WeeklyOff)

	l := &Leave{
		ID:             uuid.New(),
		EmployeeID:     actor.EmployeeID,
		LeaveType:      TypeHalfDay,
		Reason:         reason,
		DateFrom:       day,
		DateTo:         day,
		DaysOff:        decimal.NewNullDecimal(decimal.NewFromFloat(0.5)),
		ResumeOfficeOn: &resume,
		TimePeriod:     req.Period,
		Description:    req.Description,
	}
	return s.submit(ctx, actor, l)
}

func (s *service) SubmitOffDuty(ctx context.Context, actor Actor, req SubmitOffDutyRequest) (*LeaveResponse, error) {
	day, err := ParseDate(req.Date)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidInput, err.Error(), 400)
	}
	hours, err := ParseTimeOff(req.TimeOff)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidInput, err.Error(), 400)
	}

	l := &Leave{
		ID:           uuid.New(),
		EmployeeID:   actor.EmployeeID,
		LeaveType:    TypeOffDuty,
		DateFrom:     day,
		DateTo:       day,
		TimeOff:      req.TimeOff,
		OffDutyHours: decimal.NewNullDecimal(hours),
		Description:  req.Description,
	}
	return s.submit(ctx, actor, l)
}

// submit persists a new request and opens the first approval ticket. The
// whole unit runs on the store queue so seq assignment stays race-free.
func (s *service) submit(ctx context.Context, actor Actor, l *Leave) (*LeaveResponse, error) {
	return storequeue.Do(ctx, s.queue, func(ctx context.Context) (*LeaveResponse, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		defer tx.Rollback()
		qtx := s.repo.WithTx(tx)

		seq, err := qtx.NextSeq(ctx, actor.EmployeeID)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		l.Seq = seq
		l.Status = StatusPending
		l.Stage = entryStage(actor)

		if err := qtx.Create(ctx, l); err != nil {
			return nil, apperror.StorageFault(err)
		}

		reviewer, err := s.reviewerForStage(ctx, s.employees.WithTx(tx), l.Stage)
		if err != nil {
			return nil, err
		}
		if err := s.openTicket(ctx, tx, qtx, l, reviewer, actor.EmployeeID, ""); err != nil {
			return nil, err
		}

		if err := s.notifier.DM(ctx, tx, actor.MemberID, notify.Notice{
			Aggregate:   "leave",
			AggregateID: l.ID.String(),
			EventType:   "leave.submitted",
			Subject:     "Leave request submitted",
			Body:        "Your request was forwarded for review.",
			Fields:      leaveFields(l),
		}); err != nil {
			return nil, apperror.NotificationFault(err)
		}

		if err := tx.Commit(); err != nil {
			return nil, apperror.StorageFault(err)
		}

		s.logger.Info("leave submitted",
			zap.String("leave_id", l.ID.String()),
			zap.String("employee_id", l.EmployeeID),
			zap.Int64("seq", l.Seq),
			zap.String("type", string(l.LeaveType)),
			zap.String("stage", string(l.Stage)),
		)
		return toLeaveResponse(l), nil
	})
}

// openTicket creates the approval ticket for the stage the leave sits at and
// queues the review prompt to the reviewer.
func (s *service) openTicket(ctx context.Context, tx *sql.Tx, qtx Repository, l *Leave, reviewer *employee.Employee, submitterID, forwardReason string) error {
	ticket := &ApprovalTicket{
		ID:            uuid.New(),
		LeaveID:       l.ID,
		Stage:         l.Stage,
		SubmitterID:   submitterID,
		ApproverID:    reviewer.ID.String(),
		ForwardReason: forwardReason,
	}
	if err := qtx.CreateTicket(ctx, ticket); err != nil {
		return apperror.StorageFault(err)
	}

	fields := leaveFields(l)
	fields["ticket_id"] = ticket.ID.String()
	if forwardReason != "" {
		fields["forward_reason"] = forwardReason
	}
	subject := "Leave request awaiting your review"
	if forwardReason != "" {
		subject = "Declined leave request forwarded for a final ruling"
	}
	if err := s.notifier.DM(ctx, tx, reviewer.MemberID, notify.Notice{
		Aggregate:   "leave",
		AggregateID: l.ID.String(),
		EventType:   "leave.review_requested",
		Subject:     subject,
		Fields:      fields,
	}); err != nil {
		return apperror.NotificationFault(err)
	}
	return nil
}

// loadForReview re-reads the persisted record and compares it against the
// state the actor acted on. A mismatch means the prompt they clicked was
// stale: someone else already moved the record, so nothing may change.
func (s *service) loadForReview(ctx context.Context, qtx Repository, leaveID string, actedStage Stage) (*Leave, error) {
	l, err := qtx.FindByID(ctx, leaveID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, leaveerrors.ErrLeaveNotFound
	}
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	if l.Status != StatusPending || l.Stage != actedStage {
		return nil, apperror.StaleRecord("this request was already handled at another stage")
	}
	return l, nil
}

func (s *service) Accept(ctx context.Context, actor Actor, leaveID string, req ReviewRequest) (*LeaveResponse, error) {
	return storequeue.Do(ctx, s.queue, func(ctx context.Context) (*LeaveResponse, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		defer tx.Rollback()
		qtx := s.repo.WithTx(tx)

		l, err := s.loadForReview(ctx, qtx, leaveID, Stage(req.Stage))
		if err != nil {
			return nil, err
		}
		ticket, err := s.claimTicket(ctx, qtx, l, actor)
		if err != nil {
			return nil, err
		}

		next, err := nextState(state{l.Status, l.Stage}, ActionAccept, hasFastTrackRole(actor.Roles))
		if err != nil {
			return nil, err
		}

		emps := s.employees.WithTx(tx)
		owner, err := emps.FindByID(ctx, l.EmployeeID)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}

		if confirmed(next) {
			if err := s.applyBalance(ctx, qtx, l); err != nil {
				return nil, err
			}
			l.ApprovedBy = actor.EmployeeID
			l.Status = next.Status
			l.Stage = next.Stage
			if err := qtx.Update(ctx, l); err != nil {
				return nil, apperror.StorageFault(err)
			}
			if err := s.notifier.DM(ctx, tx, owner.MemberID, notify.Notice{
				Aggregate:   "leave",
				AggregateID: l.ID.String(),
				EventType:   "leave.accepted",
				Subject:     "Leave request accepted",
				Fields:      leaveFields(l),
			}); err != nil {
				return nil, apperror.NotificationFault(err)
			}
		} else {
			l.Status = next.Status
			l.Stage = next.Stage
			if err := qtx.Update(ctx, l); err != nil {
				return nil, apperror.StorageFault(err)
			}
			reviewer, err := s.reviewerForStage(ctx, emps, l.Stage)
			if err != nil {
				return nil, err
			}
			if err := s.openTicket(ctx, tx, qtx, l, reviewer, ticket.SubmitterID, ""); err != nil {
				return nil, err
			}
		}

		if err := tx.Commit(); err != nil {
			return nil, apperror.StorageFault(err)
		}

		s.logger.Info("leave accepted",
			zap.String("leave_id", l.ID.String()),
			zap.String("actor_id", actor.EmployeeID),
			zap.String("status", string(l.Status)),
			zap.String("stage", string(l.Stage)),
		)
		return toLeaveResponse(l), nil
	})
}

func (s *service) Decline(ctx context.Context, actor Actor, leaveID string, req DeclineRequest) (*LeaveResponse, error) {
	return storequeue.Do(ctx, s.queue, func(ctx context.Context) (*LeaveResponse, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		defer tx.Rollback()
		qtx := s.repo.WithTx(tx)

		l, err := s.loadForReview(ctx, qtx, leaveID, Stage(req.Stage))
		if err != nil {
			return nil, err
		}
		ticket, err := s.claimTicket(ctx, qtx, l, actor)
		if err != nil {
			return nil, err
		}

		next, err := nextState(state{l.Status, l.Stage}, ActionDecline, false)
		if err != nil {
			return nil, err
		}

		emps := s.employees.WithTx(tx)
		owner, err := emps.FindByID(ctx, l.EmployeeID)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}

		l.Status = next.Status
		l.Stage = next.Stage
		l.DeclineReason = req.Reason
		if err := qtx.Update(ctx, l); err != nil {
			return nil, apperror.StorageFault(err)
		}

		if next.Status == StatusPending {
			// Second-stage decline: still pending, forwarded for a final ruling.
			reviewer, err := s.reviewerForStage(ctx, emps, l.Stage)
			if err != nil {
				return nil, err
			}
			if err := s.openTicket(ctx, tx, qtx, l, reviewer, ticket.SubmitterID, req.Reason); err != nil {
				return nil, err
			}
		} else {
			if err := s.notifier.DM(ctx, tx, owner.MemberID, notify.Notice{
				Aggregate:   "leave",
				AggregateID: l.ID.String(),
				EventType:   "leave.declined",
				Subject:     "Leave request declined",
				Body:        req.Reason,
				Fields:      leaveFields(l),
			}); err != nil {
				return nil, apperror.NotificationFault(err)
			}
		}

		if err := tx.Commit(); err != nil {
			return nil, apperror.StorageFault(err)
		}

		s.logger.Info("leave declined",
			zap.String("leave_id", l.ID.String()),
			zap.String("actor_id", actor.EmployeeID),
			zap.String("status", string(l.Status)),
			zap.String("stage", string(l.Stage)),
		)
		return toLeaveResponse(l), nil
	})
}

// claimTicket resolves the open ticket for the leave, enforcing that the
// actor is the reviewer it is addressed to.
func (s *service) claimTicket(ctx context.Context, qtx Repository, l *Leave, actor Actor) (*ApprovalTicket, error) {
	ticket, err := qtx.FindOpenTicketByLeave(ctx, l.ID.String())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, leaveerrors.ErrTicketNotFound
	}
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	if ticket.ApproverID != actor.EmployeeID {
		return nil, leaveerrors.ErrNotTicketApprover
	}
	now := time.Now()
	ticket.ResolvedAt = &now
	if err := qtx.UpdateTicket(ctx, ticket); err != nil {
		return nil, apperror.StorageFault(err)
	}
	return ticket, nil
}

func (s *service) Withdraw(ctx context.Context, actor Actor, leaveID string) (*LeaveResponse, error) {
	return storequeue.Do(ctx, s.queue, func(ctx context.Context) (*LeaveResponse, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		defer tx.Rollback()
		qtx := s.repo.WithTx(tx)

		l, err := qtx.FindByID(ctx, leaveID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		if l.EmployeeID != actor.EmployeeID {
			return nil, leaveerrors.ErrNotOwner
		}

		next, err := nextState(state{l.Status, l.Stage}, ActionWithdraw, false)
		if err != nil {
			return nil, err
		}

		if err := s.revertBalance(ctx, qtx, l); err != nil {
			return nil, err
		}

		l.Status = next.Status
		l.Stage = next.Stage
		if err := qtx.Update(ctx, l); err != nil {
			return nil, apperror.StorageFault(err)
		}

		// last_leave_taken tracks the latest accepted leave; with this one
		// gone it has to be recomputed from what remains.
		if err := s.recomputeLastLeave(ctx, qtx, l.EmployeeID); err != nil {
			return nil, err
		}

		if err := s.notifier.DM(ctx, tx, actor.MemberID, notify.Notice{
			Aggregate:   "leave",
			AggregateID: l.ID.String(),
			EventType:   "leave.withdrawn",
			Subject:     "Leave withdrawn",
			Body:        "Your accepted leave was withdrawn and the balance restored.",
			Fields:      leaveFields(l),
		}); err != nil {
			return nil, apperror.NotificationFault(err)
		}

		if err := tx.Commit(); err != nil {
			return nil, apperror.StorageFault(err)
		}

		s.logger.Info("leave withdrawn",
			zap.String("leave_id", l.ID.String()),
			zap.String("employee_id", l.EmployeeID),
		)
		return toLeaveResponse(l), nil
	})
}

func (s *service) Cancel(ctx context.Context, actor Actor, leaveID string) (*LeaveResponse, error) {
	return storequeue.Do(ctx, s.queue, func(ctx context.Context) (*LeaveResponse, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		defer tx.Rollback()
		qtx := s.repo.WithTx(tx)

		l, err := qtx.FindByID(ctx, leaveID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		if l.EmployeeID != actor.EmployeeID {
			return nil, leaveerrors.ErrNotOwner
		}

		next, err := nextState(state{l.Status, l.Stage}, ActionCancel, false)
		if err != nil {
			return nil, err
		}

		l.Status = next.Status
		if err := qtx.Update(ctx, l); err != nil {
			return nil, apperror.StorageFault(err)
		}

		ticket, err := qtx.FindOpenTicketByLeave(ctx, l.ID.String())
		if err == nil {
			now := time.Now()
			ticket.ResolvedAt = &now
			if err := qtx.UpdateTicket(ctx, ticket); err != nil {
				return nil, apperror.StorageFault(err)
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.StorageFault(err)
		}

		if err := tx.Commit(); err != nil {
			return nil, apperror.StorageFault(err)
		}

		s.logger.Info("leave cancelled",
			zap.String("leave_id", l.ID.String()),
			zap.String("employee_id", l.EmployeeID),
		)
		return toLeaveResponse(l), nil
	})
}

// applyBalance credits the confirmed leave to the owner's balance. This is
// the only place totals move forward.
func (s *service) applyBalance(ctx context.Context, qtx Repository, l *Leave) error {
	b, err := qtx.FindBalance(ctx, l.EmployeeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return leaveerrors.ErrBalanceNotFound
	}
	if err != nil {
		return apperror.StorageFault(err)
	}

	switch l.LeaveType {
	case TypeOffDuty:
		b.OffDutyHours = b.OffDutyHours.Add(l.OffDutyHours.Decimal)
	default:
		days := l.DaysOff.Decimal
		switch l.Reason {
		case ReasonCasual:
			b.TotalCasual = b.TotalCasual.Add(days)
		case ReasonSick:
			b.TotalSick = b.TotalSick.Add(days)
		case ReasonCompOff:
			b.TotalCompOff = b.TotalCompOff.Add(days)
		}
		if b.LastLeaveTaken == nil || l.DateTo.After(*b.LastLeaveTaken) {
			to := l.DateTo
			b.LastLeaveTaken = &to
		}
	}

	if err := qtx.UpdateBalance(ctx, b); err != nil {
		return apperror.StorageFault(err)
	}
	return nil
}

func (s *service) revertBalance(ctx context.Context, qtx Repository, l *Leave) error {
	b, err := qtx.FindBalance(ctx, l.EmployeeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return leaveerrors.ErrBalanceNotFound
	}
	if err != nil {
		return apperror.StorageFault(err)
	}

	switch l.LeaveType {
	case TypeOffDuty:
		b.OffDutyHours = b.OffDutyHours.Sub(l.OffDutyHours.Decimal)
	default:
		days := l.DaysOff.Decimal
		switch l.Reason {
		case ReasonCasual:
			b.TotalCasual = b.TotalCasual.Sub(days)
		case ReasonSick:
			b.TotalSick = b.TotalSick.Sub(days)
		case ReasonCompOff:
			b.TotalCompOff = b.TotalCompOff.Sub(days)
		}
	}

	if err := qtx.UpdateBalance(ctx, b); err != nil {
		return apperror.StorageFault(err)
	}
	return nil
}

func (s *service) recomputeLastLeave(ctx context.Context, qtx Repository, employeeID string) error {
	max, err := qtx.MaxAcceptedDateTo(ctx, employeeID)
	if err != nil {
		return apperror.StorageFault(err)
	}
	b, err := qtx.FindBalance(ctx, employeeID)
	if err != nil {
		return apperror.StorageFault(err)
	}
	b.LastLeaveTaken = max
	if err := qtx.UpdateBalance(ctx, b); err != nil {
		return apperror.StorageFault(err)
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id string) (*LeaveResponse, error) {
	l, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, leaveerrors.ErrLeaveNotFound
	}
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	return toLeaveResponse(l), nil
}

func (s *service) GetAllByEmployee(ctx context.Context, employeeID string) ([]LeaveResponse, error) {
	leaves, err := s.repo.FindAllByEmployee(ctx, employeeID)
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	return toLeaveResponses(leaves), nil
}

func (s *service) GetAll(ctx context.Context) ([]LeaveResponse, error) {
	leaves, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	return toLeaveResponses(leaves), nil
}

func (s *service) BalanceOf(ctx context.Context, employeeID string) (*BalanceResponse, error) {
	b, err := s.repo.FindBalance(ctx, employeeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, leaveerrors.ErrBalanceNotFound
	}
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	return toBalanceResponse(b), nil
}

func (s *service) AllBalances(ctx context.Context) ([]BalanceResponse, error) {
	balances, err := s.repo.FindAllBalances(ctx)
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	out := make([]BalanceResponse, 0, len(balances))
	for i := range balances {
		out = append(out, *toBalanceResponse(&balances[i]))
	}
	return out, nil
}

func (s *service) AttachTicketMessage(ctx context.Context, ticketID string, req AttachMessageRequest) error {
	ticket, err := s.repo.FindTicket(ctx, ticketID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return leaveerrors.ErrTicketNotFound
	}
	if err != nil {
		return apperror.StorageFault(err)
	}
	ticket.ChannelID = req.ChannelID
	ticket.MessageID = req.MessageID
	if err := s.repo.UpdateTicket(ctx, ticket); err != nil {
		return apperror.StorageFault(err)
	}
	return nil
}

func (s *service) OpenTicketsFor(ctx context.Context, approverID string) ([]TicketResponse, error) {
	tickets, err := s.repo.FindOpenTicketsByApprover(ctx, approverID)
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, *toTicketResponse(&tickets[i]))
	}
	return out, nil
}

func (s *service) EnsureBalance(ctx context.Context, tx *sql.Tx, employeeID string) error {
	qtx := s.repo.WithTx(tx)
	_, err := qtx.FindBalance(ctx, employeeID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.StorageFault(err)
	}
	if err := qtx.CreateBalance(ctx, zeroBalance(employeeID)); err != nil {
		return apperror.StorageFault(err)
	}
	return nil
}

func (s *service) RemoveBalance(ctx context.Context, tx *sql.Tx, employeeID string) error {
	if err := s.repo.WithTx(tx).DeleteBalance(ctx, employeeID); err != nil {
		return apperror.StorageFault(err)
	}
	return nil
}

func leaveFields(l *Leave) map[string]string {
	fields := map[string]string{
		"leave_type": string(l.LeaveType),
		"date_from":  FormatDate(l.DateFrom),
		"date_to":    FormatDate(l.DateTo),
		"stage":      string(l.Stage),
	}
	if l.Reason != "" {
		fields["reason"] = string(l.Reason)
	}
	if l.DaysOff.Valid {
		fields["days_off"] = l.DaysOff.Decimal.String()
	}
	if l.TimeOff != "" {
		fields["time_off"] = l.TimeOff
	}
	if l.Description != "" {
		fields["description"] = l.Description
	}
	return fields
}

func toLeaveResponse(l *Leave) *LeaveResponse {
	resp := &LeaveResponse{
		ID:            l.ID.String(),
		EmployeeID:    l.EmployeeID,
		Seq:           l.Seq,
		LeaveType:     string(l.LeaveType),
		Reason:        string(l.Reason),
		DateFrom:      FormatDate(l.DateFrom),
		DateTo:        FormatDate(l.DateTo),
		TimePeriod:    l.TimePeriod,
		TimeOff:       l.TimeOff,
		Description:   l.Description,
		Status:        string(l.Status),
		Stage:         string(l.Stage),
		ApprovedBy:    l.ApprovedBy,
		DeclineReason: l.DeclineReason,
	}
	if l.DaysOff.Valid {
		resp.DaysOff = l.DaysOff.Decimal.String()
	}
	if l.OffDutyHours.Valid {
		resp.OffDutyHours = l.OffDutyHours.Decimal.String()
	}
	if l.ResumeOfficeOn != nil {
		resp.ResumeOfficeOn = FormatDate(*l.ResumeOfficeOn)
	}
	return resp
}

func toLeaveResponses(leaves []Leave) []LeaveResponse {
	out := make([]LeaveResponse, 0, len(leaves))
	for i := range leaves {
		out = append(out, *toLeaveResponse(&leaves[i]))
	}
	return out
}

func toBalanceResponse(b *Balance) *BalanceResponse {
	resp := &BalanceResponse{
		EmployeeID:   b.EmployeeID,
		TotalCasual:  b.TotalCasual.String(),
		TotalSick:    b.TotalSick.String(),
		TotalCompOff: b.TotalCompOff.String(),
		OffDutyHours: b.OffDutyHours.String(),
	}
	if b.LastLeaveTaken != nil {
		resp.LastLeaveTaken = FormatDate(*b.LastLeaveTaken)
	}
	return resp
}

func toTicketResponse(t *ApprovalTicket) *TicketResponse {
	return &TicketResponse{
		ID:            t.ID.String(),
		LeaveID:       t.LeaveID.String(),
		Stage:         string(t.Stage),
		SubmitterID:   t.SubmitterID,
		ApproverID:    t.ApproverID,
		ChannelID:     t.ChannelID,
		MessageID:     t.MessageID,
		ForwardReason: t.ForwardReason,
		Resolved:      t.ResolvedAt != nil,
	}
}

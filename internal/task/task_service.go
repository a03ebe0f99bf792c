package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"concord-desk/internal/employee"
	"concord-desk/internal/notify"
	"concord-desk/internal/shared/apperror"
	"concord-desk/internal/shared/storequeue"
	taskerrors "concord-desk/internal/task/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DeadlineLayout is the wire format for task deadlines.
const DeadlineLayout = "02-01-2006 15:04"

//go:generate mockgen -source=task_service.go -destination=mock/task_service_mock.go -package=mock
type Service interface {
	OpenSession(ctx context.Context, actor Actor, req OpenSessionRequest) (*TaskResponse, error)
	SetAssignees(ctx context.Context, actor Actor, taskID string, req SetAssigneesRequest) (*TaskResponse, error)
	SetDetails(ctx context.Context, actor Actor, taskID string, req SetDetailsRequest) (*TaskResponse, error)
	Confirm(ctx context.Context, actor Actor, taskID string) (*TaskResponse, error)
	MarkComplete(ctx context.Context, actor Actor, taskID string) (*TaskResponse, error)
	Close(ctx context.Context, actor Actor, taskID string) (*TaskResponse, error)
	Remind(ctx context.Context, actor Actor, taskID string) error

	GetByID(ctx context.Context, id string) (*TaskResponse, error)
	Feed(ctx context.Context, actor Actor, channelID string) ([]FeedItemResponse, error)
	RegisterFeedDelivery(ctx context.Context, actor Actor, req RegisterFeedRequest) error

	ReclaimIdleSessions(ctx context.Context) error
	CleanupOrphanFeeds(ctx context.Context) error
}

type service struct {
	db        *sql.DB
	repo      Repository
	employees employee.Repository
	queue     *storequeue.Queue
	notifier  notify.Notifier
	logger    *zap.Logger

	// sessionIdleLimit is how long a draft session may sit untouched before
	// it is reclaimed.
	sessionIdleLimit time.Duration
}

func NewService(
	db *sql.DB,
	repo Repository,
	employees employee.Repository,
	queue *storequeue.Queue,
	notifier notify.Notifier,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("task.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("task.service")
	}
	return &service{
		db:               db,
		repo:             repo,
		employees:        employees,
		queue:            queue,
		notifier:         notifier,
		logger:           l,
		sessionIdleLimit: 5 * time.Minute,
	}
}

func (s *service) OpenSession(ctx context.Context, actor Actor, req OpenSessionRequest) (*TaskResponse, error) {
	return storequeue.Do(ctx, s.queue, func(ctx context.Context) (*TaskResponse, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		defer tx.Rollback()
		qtx := s.repo.WithTx(tx)

		t := &Task{
			ID:               uuid.New(),
			AssignerID:       actor.EmployeeID,
			SessionChannelID: req.SessionChannelID,
			Status:           StatusDraft,
			LastActivityAt:   time.Now(),
		}
		if err := qtx.Create(ctx, t); err != nil {
			return nil, apperror.StorageFault(err)
		}
		if err := tx.Commit(); err != nil {
			return nil, apperror.StorageFault(err)
		}

		s.logger.Info("task session opened",
			zap.String("task_id", t.ID.String()),
			zap.String("assigner_id", actor.EmployeeID),
		)
		return toTaskResponse(t, nil, nil), nil
	})
}

// loadEditable fetches a task the assigner may still modify.
func (s *service) loadEditable(ctx context.Context, qtx Repository, actor Actor, taskID string) (*Task, error) {
	t, err := qtx.FindByID(ctx, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, taskerrors.ErrTaskNotFound
	}
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	if t.AssignerID != actor.EmployeeID {
		return nil, taskerrors.ErrNotAssigner
	}
	if t.Status != StatusDraft && t.Status != StatusPending && t.Status != StatusConfirmed {
		return nil, taskerrors.ErrSessionClosed
	}
	return t, nil
}

func (s *service) SetAssignees(ctx context.Context, actor Actor, taskID string, req SetAssigneesRequest) (*TaskResponse, error) {
	return storequeue.Do(ctx, s.queue, func(ctx context.Context) (*TaskResponse, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		defer tx.Rollback()
		qtx := s.repo.WithTx(tx)

		t, err := s.loadEditable(ctx, qtx, actor, taskID)
		if err != nil {
			return nil, err
		}

		members, err := s.employees.WithTx(tx).FindAll(ctx)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		candidates := make([]Candidate, 0, len(members))
		for i := range members {
			candidates = append(candidates, Candidate{
				EmployeeID:  members[i].ID.String(),
				DisplayName: members[i].DisplayName,
			})
		}

		seen := map[string]bool{}
		assignees := make([]Assignee, 0, len(req.Names))
		for _, name := range req.Names {
			match, ok := MatchName(name, candidates)
			if !ok {
				return nil, apperror.Wrap(taskerrors.ErrNoAssigneeMatch,
					apperror.CodeInvalidInput, fmt.Sprintf("no member matches %q", name), 400)
			}
			if seen[match.EmployeeID] {
				continue
			}
			seen[match.EmployeeID] = true
			assignees = append(assignees, Assignee{TaskID: t.ID, EmployeeID: match.EmployeeID})
		}

		if err := qtx.ReplaceAssignees(ctx, t.ID.String(), assignees); err != nil {
			return nil, apperror.StorageFault(err)
		}

		// Changing the lineup voids the handshake.
		if err := s.resetHandshake(ctx, qtx, t); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, apperror.StorageFault(err)
		}
		return s.response(ctx, t)
	})
}

func (s *service) SetDetails(ctx context.Context, actor Actor, taskID string, req SetDetailsRequest) (*TaskResponse, error) {
	deadline, err := time.Parse(DeadlineLayout, req.Deadline)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidInput,
			fmt.Sprintf("invalid deadline %q, expected DD-MM-YYYY HH:MM", req.Deadline), 400)
	}

	return storequeue.Do(ctx, s.queue, func(ctx context.Context) (*TaskResponse, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		defer tx.Rollback()
		qtx := s.repo.WithTx(tx)

		t, err := s.loadEditable(ctx, qtx, actor, taskID)
		if err != nil {
			return nil, err
		}

		t.Details = req.Details
		t.Deadline = &deadline

		if err := s.resetHandshake(ctx, qtx, t); err != nil {
			return nil, err
		}

		assignees, err := qtx.FindAssignees(ctx, t.ID.String())
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		if err := s.requestConfirmations(ctx, tx, t, assignees); err != nil {
			return nil, err
		}

		if err := tx.Commit(); err != nil {
			return nil, apperror.StorageFault(err)
		}
		return s.response(ctx, t)
	})
}

// resetHandshake drops every confirmation after a modification and rolls the
// status back to the pre-confirmed state.
func (s *service) resetHandshake(ctx context.Context, qtx Repository, t *Task) error {
	if err := qtx.ClearConfirmations(ctx, t.ID.String()); err != nil {
		return apperror.StorageFault(err)
	}
	t.AssignerConfirmed = false
	if t.Details != "" && t.Deadline != nil {
		t.Status = StatusPending
	} else {
		t.Status = StatusDraft
	}
	t.LastActivityAt = time.Now()
	if err := qtx.Update(ctx, t); err != nil {
		return apperror.StorageFault(err)
	}
	return nil
}

func (s *service) requestConfirmations(ctx context.Context, tx *sql.Tx, t *Task, assignees []Assignee) error {
	emps := s.employees.WithTx(tx)
	fields := taskFields(t)
	for _, a := range assignees {
		member, err := emps.FindByID(ctx, a.EmployeeID)
		if err != nil {
			return apperror.StorageFault(err)
		}
		if err := s.notifier.DM(ctx, tx, member.MemberID, notify.Notice{
			Aggregate:   "task",
			AggregateID: t.ID.String(),
			EventType:   "task.confirm_requested",
			Subject:     "A task deadline needs your confirmation",
			Fields:      fields,
		}); err != nil {
			return apperror.NotificationFault(err)
		}
	}
	return nil
}

func (s *service) Confirm(ctx context.Context, actor Actor, taskID string) (*TaskResponse, error) {
	return storequeue.Do(ctx, s.queue, func(ctx context.Context) (*TaskResponse, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		defer tx.Rollback()
		qtx := s.repo.WithTx(tx)

		t, err := qtx.FindByID(ctx, taskID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, taskerrors.ErrTaskNotFound
		}
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		if t.Status != StatusPending {
			return nil, taskerrors.ErrNotReady
		}

		assignees, err := qtx.FindAssignees(ctx, t.ID.String())
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		if len(assignees) == 0 || t.Details == "" || t.Deadline == nil {
			return nil, taskerrors.ErrNotReady
		}

		isParticipant := t.AssignerID == actor.EmployeeID
		if t.AssignerID == actor.EmployeeID {
			t.AssignerConfirmed = true
		}
		for i := range assignees {
			if assignees[i].EmployeeID == actor.EmployeeID {
				isParticipant = true
				assignees[i].Confirmed = true
				if err := qtx.UpdateAssignee(ctx, &assignees[i]); err != nil {
					return nil, apperror.StorageFault(err)
				}
			}
		}
		if !isParticipant {
			return nil, taskerrors.ErrNotParticipant
		}

		// The handshake completes when the assigner and every assignee have
		// signed off on the deadline.
		done := t.AssignerConfirmed
		for _, a := range assignees {
			if !a.Confirmed {
				done = false
			}
		}
		if done {
			t.Status = StatusConfirmed
		}
		t.LastActivityAt = time.Now()
		if err := qtx.Update(ctx, t); err != nil {
			return nil, apperror.StorageFault(err)
		}

		if done {
			if err := s.notifyParticipants(ctx, tx, t, assignees, notify.Notice{
				Aggregate:   "task",
				AggregateID: t.ID.String(),
				EventType:   "task.confirmed",
				Subject:     "Task deadline confirmed by everyone",
				Fields:      taskFields(t),
			}); err != nil {
				return nil, err
			}
		}

		if err := tx.Commit(); err != nil {
			return nil, apperror.StorageFault(err)
		}
		return toTaskResponse(t, assignees, nil), nil
	})
}

func (s *service) MarkComplete(ctx context.Context, actor Actor, taskID string) (*TaskResponse, error) {
	return storequeue.Do(ctx, s.queue, func(ctx context.Context) (*TaskResponse, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		defer tx.Rollback()
		qtx := s.repo.WithTx(tx)

		t, err := qtx.FindByID(ctx, taskID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, taskerrors.ErrTaskNotFound
		}
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		if t.Status != StatusConfirmed {
			return nil, taskerrors.ErrNotReady
		}

		assignees, err := qtx.FindAssignees(ctx, t.ID.String())
		if err != nil {
			return nil, apperror.StorageFault(err)
		}

		now := time.Now()
		mine := false
		allDone := true
		for i := range assignees {
			if assignees[i].EmployeeID == actor.EmployeeID {
				mine = true
				assignees[i].CompletedAt = &now
				if err := qtx.UpdateAssignee(ctx, &assignees[i]); err != nil {
					return nil, apperror.StorageFault(err)
				}
			}
			if assignees[i].CompletedAt == nil {
				allDone = false
			}
		}
		if !mine {
			return nil, taskerrors.ErrNotAssignee
		}

		if allDone {
			t.Status = StatusCompleted
		}
		t.LastActivityAt = now
		if err := qtx.Update(ctx, t); err != nil {
			return nil, apperror.StorageFault(err)
		}

		assigner, err := s.employees.WithTx(tx).FindByID(ctx, t.AssignerID)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		eventType := "task.assignee_completed"
		subject := actor.DisplayName + " reported their part done"
		if allDone {
			eventType = "task.completed"
			subject = "All assignees reported done"
		}
		if err := s.notifier.DM(ctx, tx, assigner.MemberID, notify.Notice{
			Aggregate:   "task",
			AggregateID: t.ID.String(),
			EventType:   eventType,
			Subject:     subject,
			Fields:      taskFields(t),
		}); err != nil {
			return nil, apperror.NotificationFault(err)
		}

		if err := tx.Commit(); err != nil {
			return nil, apperror.StorageFault(err)
		}
		return toTaskResponse(t, assignees, nil), nil
	})
}

func (s *service) Close(ctx context.Context, actor Actor, taskID string) (*TaskResponse, error) {
	return storequeue.Do(ctx, s.queue, func(ctx context.Context) (*TaskResponse, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		defer tx.Rollback()
		qtx := s.repo.WithTx(tx)

		t, err := qtx.FindByID(ctx, taskID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, taskerrors.ErrTaskNotFound
		}
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		if t.AssignerID != actor.EmployeeID {
			return nil, taskerrors.ErrNotAssigner
		}

		t.Status = StatusClosed
		t.LastActivityAt = time.Now()
		if err := qtx.Update(ctx, t); err != nil {
			return nil, apperror.StorageFault(err)
		}
		if err := qtx.DeleteFeedEntriesByTask(ctx, t.ID.String()); err != nil {
			return nil, apperror.StorageFault(err)
		}

		if err := tx.Commit(); err != nil {
			return nil, apperror.StorageFault(err)
		}

		s.logger.Info("task closed",
			zap.String("task_id", t.ID.String()),
			zap.String("assigner_id", actor.EmployeeID),
		)
		return toTaskResponse(t, nil, nil), nil
	})
}

func (s *service) Remind(ctx context.Context, actor Actor, taskID string) error {
	_, err := storequeue.Do(ctx, s.queue, func(ctx context.Context) (struct{}, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return struct{}{}, apperror.StorageFault(err)
		}
		defer tx.Rollback()
		qtx := s.repo.WithTx(tx)

		t, err := qtx.FindByID(ctx, taskID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return struct{}{}, taskerrors.ErrTaskNotFound
		}
		if err != nil {
			return struct{}{}, apperror.StorageFault(err)
		}
		if t.AssignerID != actor.EmployeeID {
			return struct{}{}, taskerrors.ErrNotAssigner
		}

		assignees, err := qtx.FindAssignees(ctx, t.ID.String())
		if err != nil {
			return struct{}{}, apperror.StorageFault(err)
		}
		if err := s.notifyParticipants(ctx, tx, t, assignees, notify.Notice{
			Aggregate:   "task",
			AggregateID: t.ID.String(),
			EventType:   "task.reminder",
			Subject:     "Task reminder",
			Fields:      taskFields(t),
		}); err != nil {
			return struct{}{}, err
		}

		if err := tx.Commit(); err != nil {
			return struct{}{}, apperror.StorageFault(err)
		}
		return struct{}{}, nil
	})
	return err
}

func (s *service) notifyParticipants(ctx context.Context, tx *sql.Tx, t *Task, assignees []Assignee, n notify.Notice) error {
	emps := s.employees.WithTx(tx)
	recipients := map[string]bool{t.AssignerID: true}
	for _, a := range assignees {
		recipients[a.EmployeeID] = true
	}
	for employeeID := range recipients {
		member, err := emps.FindByID(ctx, employeeID)
		if err != nil {
			return apperror.StorageFault(err)
		}
		if err := s.notifier.DM(ctx, tx, member.MemberID, n); err != nil {
			return apperror.NotificationFault(err)
		}
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id string) (*TaskResponse, error) {
	t, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, taskerrors.ErrTaskNotFound
	}
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	assignees, err := s.repo.FindAssignees(ctx, id)
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	return s.responseWithNames(ctx, t, assignees)
}

// Feed lists open tasks assigned to the actor that have not been delivered
// into the given channel yet.
func (s *service) Feed(ctx context.Context, actor Actor, channelID string) ([]FeedItemResponse, error) {
	tasks, err := s.repo.FindOpenTasksForAssignee(ctx, actor.EmployeeID)
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	delivered, err := s.repo.FindFeedEntries(ctx, actor.EmployeeID, channelID)
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	seen := make(map[string]bool, len(delivered))
	for _, e := range delivered {
		seen[e.TaskID.String()] = true
	}

	out := make([]FeedItemResponse, 0, len(tasks))
	for i := range tasks {
		if seen[tasks[i].ID.String()] {
			continue
		}
		item := FeedItemResponse{
			TaskID:     tasks[i].ID.String(),
			AssignerID: tasks[i].AssignerID,
			Details:    tasks[i].Details,
			Status:     string(tasks[i].Status),
		}
		if tasks[i].Deadline != nil {
			item.Deadline = tasks[i].Deadline.Format(DeadlineLayout)
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *service) RegisterFeedDelivery(ctx context.Context, actor Actor, req RegisterFeedRequest) error {
	entries := make([]FeedEntry, 0, len(req.Items))
	for _, item := range req.Items {
		taskID, err := uuid.Parse(item.TaskID)
		if err != nil {
			return apperror.Wrap(err, apperror.CodeInvalidInput, "invalid task id", 400)
		}
		entries = append(entries, FeedEntry{
			ID:         uuid.New(),
			EmployeeID: actor.EmployeeID,
			TaskID:     taskID,
			ChannelID:  req.ChannelID,
			MessageID:  item.MessageID,
		})
	}
	if err := s.repo.CreateFeedEntries(ctx, entries); err != nil {
		return apperror.StorageFault(err)
	}
	return nil
}

func (s *service) response(ctx context.Context, t *Task) (*TaskResponse, error) {
	assignees, err := s.repo.FindAssignees(ctx, t.ID.String())
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	return toTaskResponse(t, assignees, nil), nil
}

func (s *service) responseWithNames(ctx context.Context, t *Task, assignees []Assignee) (*TaskResponse, error) {
	names := map[string]string{}
	for _, a := range assignees {
		member, err := s.employees.FindByID(ctx, a.EmployeeID)
		if err == nil {
			names[a.EmployeeID] = member.DisplayName
		}
	}
	return toTaskResponse(t, assignees, names), nil
}

func taskFields(t *Task) map[string]string {
	fields := map[string]string{
		"status": string(t.Status),
	}
	if t.Details != "" {
		fields["details"] = t.Details
	}
	if t.Deadline != nil {
		fields["deadline"] = t.Deadline.Format(DeadlineLayout)
	}
	return fields
}

func toTaskResponse(t *Task, assignees []Assignee, names map[string]string) *TaskResponse {
	resp := &TaskResponse{
		ID:                t.ID.String(),
		AssignerID:        t.AssignerID,
		Details:           t.Details,
		SessionChannelID:  t.SessionChannelID,
		Status:            string(t.Status),
		AssignerConfirmed: t.AssignerConfirmed,
		Assignees:         make([]AssigneeResponse, 0, len(assignees)),
	}
	if t.Deadline != nil {
		resp.Deadline = t.Deadline.Format(DeadlineLayout)
	}
	for _, a := range assignees {
		resp.Assignees = append(resp.Assignees, AssigneeResponse{
			EmployeeID:  a.EmployeeID,
			DisplayName: names[a.EmployeeID],
			Confirmed:   a.Confirmed,
			Completed:   a.CompletedAt != nil,
		})
	}
	return resp
}

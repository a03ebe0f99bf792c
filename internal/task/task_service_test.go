package task_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"concord-desk/internal/employee"
	"concord-desk/internal/notify"
	"concord-desk/internal/shared/storequeue"
	"concord-desk/internal/task"
	taskerrors "concord-desk/internal/task/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeTaskRepository struct {
	tasks     map[string]*task.Task
	assignees map[string][]task.Assignee
	feed      []task.FeedEntry

	staleDrafts []task.Task
	orphans     []task.FeedEntry
}

func newFakeTaskRepository() *fakeTaskRepository {
	return &fakeTaskRepository{
		tasks:     map[string]*task.Task{},
		assignees: map[string][]task.Assignee{},
	}
}

func (f *fakeTaskRepository) WithTx(tx *sql.Tx) task.Repository { return f }

func (f *fakeTaskRepository) Create(ctx context.Context, t *task.Task) error {
	f.tasks[t.ID.String()] = t
	return nil
}

func (f *fakeTaskRepository) FindByID(ctx context.Context, id string) (*task.Task, error) {
	if t, ok := f.tasks[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTaskRepository) FindStaleDrafts(ctx context.Context, idleSince time.Time) ([]task.Task, error) {
	return f.staleDrafts, nil
}

func (f *fakeTaskRepository) Update(ctx context.Context, t *task.Task) error {
	f.tasks[t.ID.String()] = t
	return nil
}

func (f *fakeTaskRepository) ReplaceAssignees(ctx context.Context, taskID string, assignees []task.Assignee) error {
	f.assignees[taskID] = assignees
	return nil
}

func (f *fakeTaskRepository) FindAssignees(ctx context.Context, taskID string) ([]task.Assignee, error) {
	return f.assignees[taskID], nil
}

func (f *fakeTaskRepository) UpdateAssignee(ctx context.Context, a *task.Assignee) error {
	list := f.assignees[a.TaskID.String()]
	for i := range list {
		if list[i].EmployeeID == a.EmployeeID {
			list[i] = *a
		}
	}
	f.assignees[a.TaskID.String()] = list
	return nil
}

func (f *fakeTaskRepository) ClearConfirmations(ctx context.Context, taskID string) error {
	list := f.assignees[taskID]
	for i := range list {
		list[i].Confirmed = false
	}
	f.assignees[taskID] = list
	return nil
}

func (f *fakeTaskRepository) FindOpenTasksForAssignee(ctx context.Context, employeeID string) ([]task.Task, error) {
	var out []task.Task
	for _, t := range f.tasks {
		if t.Status != task.StatusPending && t.Status != task.StatusConfirmed {
			continue
		}
		for _, a := range f.assignees[t.ID.String()] {
			if a.EmployeeID == employeeID {
				out = append(out, *t)
			}
		}
	}
	return out, nil
}

func (f *fakeTaskRepository) CreateFeedEntries(ctx context.Context, entries []task.FeedEntry) error {
	f.feed = append(f.feed, entries...)
	return nil
}

func (f *fakeTaskRepository) FindFeedEntries(ctx context.Context, employeeID, channelID string) ([]task.FeedEntry, error) {
	var out []task.FeedEntry
	for _, e := range f.feed {
		if e.EmployeeID == employeeID && e.ChannelID == channelID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeTaskRepository) FindOrphanFeedEntries(ctx context.Context) ([]task.FeedEntry, error) {
	return f.orphans, nil
}

func (f *fakeTaskRepository) DeleteFeedEntriesByTask(ctx context.Context, taskID string) error {
	var kept []task.FeedEntry
	for _, e := range f.feed {
		if e.TaskID.String() != taskID {
			kept = append(kept, e)
		}
	}
	f.feed = kept
	return nil
}

func (f *fakeTaskRepository) DeleteFeedEntry(ctx context.Context, id string) error {
	var kept []task.FeedEntry
	for _, e := range f.feed {
		if e.ID.String() != id {
			kept = append(kept, e)
		}
	}
	f.feed = kept
	return nil
}

type fakeDirectory struct {
	byID map[string]*employee.Employee
}

func newFakeDirectory(members ...*employee.Employee) *fakeDirectory {
	d := &fakeDirectory{byID: map[string]*employee.Employee{}}
	for _, m := range members {
		d.byID[m.ID.String()] = m
	}
	return d
}

func (f *fakeDirectory) WithTx(tx *sql.Tx) employee.Repository                  { return f }
func (f *fakeDirectory) Create(ctx context.Context, e *employee.Employee) error { return nil }
func (f *fakeDirectory) Update(ctx context.Context, e *employee.Employee) error { return nil }
func (f *fakeDirectory) Restore(ctx context.Context, id string) error           { return nil }
func (f *fakeDirectory) Delete(ctx context.Context, memberID string) error      { return nil }

func (f *fakeDirectory) FindAll(ctx context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range f.byID {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeDirectory) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDirectory) FindByMemberID(ctx context.Context, memberID string) (*employee.Employee, error) {
	for _, e := range f.byID {
		if e.MemberID == memberID {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDirectory) FindByMemberIDIncludingRevoked(ctx context.Context, memberID string) (*employee.Employee, error) {
	return f.FindByMemberID(ctx, memberID)
}

type sentNotice struct {
	recipient string
	notice    notify.Notice
}

type fakeNotifier struct {
	dms      []sentNotice
	channels []sentNotice
}

func (f *fakeNotifier) DM(ctx context.Context, tx *sql.Tx, recipientID string, n notify.Notice) error {
	f.dms = append(f.dms, sentNotice{recipient: recipientID, notice: n})
	return nil
}

func (f *fakeNotifier) Channel(ctx context.Context, tx *sql.Tx, channelID string, n notify.Notice) error {
	f.channels = append(f.channels, sentNotice{recipient: channelID, notice: n})
	return nil
}

type taskServiceDeps struct {
	service  task.Service
	repo     *fakeTaskRepository
	notifier *fakeNotifier

	assigner  *employee.Employee
	assigneeA *employee.Employee
	assigneeB *employee.Employee
}

func setupTaskServiceTest(t *testing.T) *taskServiceDeps {
	t.Helper()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mock.MatchExpectationsInOrder(false)
	// Mutations open transactions freely; this suite asserts on repository
	// state, not transaction counts.
	for i := 0; i < 32; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}

	assigner := &employee.Employee{ID: uuid.New(), MemberID: "m-assigner", DisplayName: "Priya Nair", Roles: employee.RoleList{"heads"}}
	assigneeA := &employee.Employee{ID: uuid.New(), MemberID: "m-a", DisplayName: "Ravi Kumar", Roles: employee.RoleList{"member"}}
	assigneeB := &employee.Employee{ID: uuid.New(), MemberID: "m-b", DisplayName: "Joseph Mathew", Roles: employee.RoleList{"member"}}

	queue := storequeue.New(16)
	ctx, cancel := context.WithCancel(context.Background())
	go queue.Run(ctx)
	t.Cleanup(cancel)

	repo := newFakeTaskRepository()
	notifier := &fakeNotifier{}
	svc := task.NewService(db, repo, newFakeDirectory(assigner, assigneeA, assigneeB), queue, notifier)

	return &taskServiceDeps{
		service:   svc,
		repo:      repo,
		notifier:  notifier,
		assigner:  assigner,
		assigneeA: assigneeA,
		assigneeB: assigneeB,
	}
}

func actorFor(e *employee.Employee) task.Actor {
	return task.Actor{
		EmployeeID:  e.ID.String(),
		MemberID:    e.MemberID,
		DisplayName: e.DisplayName,
		Roles:       e.Roles,
	}
}

func buildSession(t *testing.T, deps *taskServiceDeps) string {
	t.Helper()
	ctx := context.Background()

	resp, err := deps.service.OpenSession(ctx, actorFor(deps.assigner), task.OpenSessionRequest{
		SessionChannelID: "chan-session",
	})
	assert.NoError(t, err)

	_, err = deps.service.SetAssignees(ctx, actorFor(deps.assigner), resp.ID, task.SetAssigneesRequest{
		Names: []string{"ravi", "joseph mathew"},
	})
	assert.NoError(t, err)

	_, err = deps.service.SetDetails(ctx, actorFor(deps.assigner), resp.ID, task.SetDetailsRequest{
		Details:  "Prepare the quarterly deck",
		Deadline: "15-01-2026 18:00",
	})
	assert.NoError(t, err)

	return resp.ID
}

func TestTaskService_Session(t *testing.T) {
	ctx := context.Background()

	t.Run("assignees resolve by fuzzy name", func(t *testing.T) {
		deps := setupTaskServiceTest(t)

		id := buildSession(t, deps)
		resp, err := deps.service.GetByID(ctx, id)
		assert.NoError(t, err)

		assert.Equal(t, "PENDING", resp.Status)
		assert.Len(t, resp.Assignees, 2)
		got := map[string]bool{}
		for _, a := range resp.Assignees {
			got[a.EmployeeID] = true
		}
		assert.True(t, got[deps.assigneeA.ID.String()])
		assert.True(t, got[deps.assigneeB.ID.String()])
	})

	t.Run("unmatched name is rejected", func(t *testing.T) {
		deps := setupTaskServiceTest(t)

		resp, err := deps.service.OpenSession(ctx, actorFor(deps.assigner), task.OpenSessionRequest{
			SessionChannelID: "chan-session",
		})
		assert.NoError(t, err)

		_, err = deps.service.SetAssignees(ctx, actorFor(deps.assigner), resp.ID, task.SetAssigneesRequest{
			Names: []string{"qqqqqqq"},
		})
		assert.Error(t, err)
	})

	t.Run("only the assigner can edit the session", func(t *testing.T) {
		deps := setupTaskServiceTest(t)

		id := buildSession(t, deps)
		_, err := deps.service.SetAssignees(ctx, actorFor(deps.assigneeA), id, task.SetAssigneesRequest{
			Names: []string{"ravi"},
		})
		assert.ErrorIs(t, err, taskerrors.ErrNotAssigner)
	})
}

func TestTaskService_Handshake(t *testing.T) {
	ctx := context.Background()

	t.Run("needs the assigner and every assignee", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		id := buildSession(t, deps)

		resp, err := deps.service.Confirm(ctx, actorFor(deps.assigner), id)
		assert.NoError(t, err)
		assert.Equal(t, "PENDING", resp.Status)

		resp, err = deps.service.Confirm(ctx, actorFor(deps.assigneeA), id)
		assert.NoError(t, err)
		assert.Equal(t, "PENDING", resp.Status)

		resp, err = deps.service.Confirm(ctx, actorFor(deps.assigneeB), id)
		assert.NoError(t, err)
		assert.Equal(t, "CONFIRMED", resp.Status)
	})

	t.Run("a modification voids collected confirmations", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		id := buildSession(t, deps)

		_, err := deps.service.Confirm(ctx, actorFor(deps.assigner), id)
		assert.NoError(t, err)
		_, err = deps.service.Confirm(ctx, actorFor(deps.assigneeA), id)
		assert.NoError(t, err)

		// Deadline moves; everyone has to agree again.
		_, err = deps.service.SetDetails(ctx, actorFor(deps.assigner), id, task.SetDetailsRequest{
			Details:  "Prepare the quarterly deck",
			Deadline: "20-01-2026 18:00",
		})
		assert.NoError(t, err)

		resp, err := deps.service.GetByID(ctx, id)
		assert.NoError(t, err)
		assert.Equal(t, "PENDING", resp.Status)
		assert.False(t, resp.AssignerConfirmed)
		for _, a := range resp.Assignees {
			assert.False(t, a.Confirmed)
		}
	})

	t.Run("an outsider cannot confirm", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		id := buildSession(t, deps)

		outsider := &employee.Employee{ID: uuid.New(), MemberID: "m-x", DisplayName: "Outsider"}
		_, err := deps.service.Confirm(ctx, actorFor(outsider), id)
		assert.ErrorIs(t, err, taskerrors.ErrNotParticipant)
	})
}

func TestTaskService_Completion(t *testing.T) {
	ctx := context.Background()

	confirmAll := func(t *testing.T, deps *taskServiceDeps, id string) {
		t.Helper()
		for _, e := range []*employee.Employee{deps.assigner, deps.assigneeA, deps.assigneeB} {
			_, err := deps.service.Confirm(ctx, actorFor(e), id)
			assert.NoError(t, err)
		}
	}

	t.Run("task completes when the last assignee reports done", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		id := buildSession(t, deps)
		confirmAll(t, deps, id)

		resp, err := deps.service.MarkComplete(ctx, actorFor(deps.assigneeA), id)
		assert.NoError(t, err)
		assert.Equal(t, "CONFIRMED", resp.Status)

		resp, err = deps.service.MarkComplete(ctx, actorFor(deps.assigneeB), id)
		assert.NoError(t, err)
		assert.Equal(t, "COMPLETED", resp.Status)

		last := deps.notifier.dms[len(deps.notifier.dms)-1]
		assert.Equal(t, deps.assigner.MemberID, last.recipient)
		assert.Equal(t, "task.completed", last.notice.EventType)
	})

	t.Run("the assigner cannot report done for assignees", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		id := buildSession(t, deps)
		confirmAll(t, deps, id)

		_, err := deps.service.MarkComplete(ctx, actorFor(deps.assigner), id)
		assert.ErrorIs(t, err, taskerrors.ErrNotAssignee)
	})

	t.Run("closing removes the feed entries", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		id := buildSession(t, deps)
		confirmAll(t, deps, id)

		taskID := uuid.MustParse(id)
		deps.repo.feed = []task.FeedEntry{
			{ID: uuid.New(), EmployeeID: deps.assigneeA.ID.String(), TaskID: taskID, ChannelID: "feed-1"},
		}

		resp, err := deps.service.Close(ctx, actorFor(deps.assigner), id)
		assert.NoError(t, err)
		assert.Equal(t, "CLOSED", resp.Status)
		assert.Empty(t, deps.repo.feed)
	})
}

func TestTaskService_Feed(t *testing.T) {
	ctx := context.Background()

	t.Run("already delivered tasks are not repeated", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		id := buildSession(t, deps)

		feed, err := deps.service.Feed(ctx, actorFor(deps.assigneeA), "feed-1")
		assert.NoError(t, err)
		assert.Len(t, feed, 1)
		assert.Equal(t, id, feed[0].TaskID)

		err = deps.service.RegisterFeedDelivery(ctx, actorFor(deps.assigneeA), task.RegisterFeedRequest{
			ChannelID: "feed-1",
			Items:     []task.FeedDeliveryItem{{TaskID: id, MessageID: "msg-9"}},
		})
		assert.NoError(t, err)

		feed, err = deps.service.Feed(ctx, actorFor(deps.assigneeA), "feed-1")
		assert.NoError(t, err)
		assert.Empty(t, feed)

		// A different feed channel still gets it.
		feed, err = deps.service.Feed(ctx, actorFor(deps.assigneeA), "feed-2")
		assert.NoError(t, err)
		assert.Len(t, feed, 1)
	})
}

func TestTaskService_Reclaim(t *testing.T) {
	ctx := context.Background()

	t.Run("idle drafts are closed and the assigner told", func(t *testing.T) {
		deps := setupTaskServiceTest(t)

		stale := &task.Task{
			ID:             uuid.New(),
			AssignerID:     deps.assigner.ID.String(),
			Status:         task.StatusDraft,
			LastActivityAt: time.Now().Add(-10 * time.Minute),
		}
		deps.repo.tasks[stale.ID.String()] = stale
		deps.repo.staleDrafts = []task.Task{*stale}

		assert.NoError(t, deps.service.ReclaimIdleSessions(ctx))

		assert.Equal(t, task.StatusClosed, deps.repo.tasks[stale.ID.String()].Status)
		last := deps.notifier.dms[len(deps.notifier.dms)-1]
		assert.Equal(t, deps.assigner.MemberID, last.recipient)
		assert.Equal(t, "task.session_reclaimed", last.notice.EventType)
	})

	t.Run("a session touched since the scan survives", func(t *testing.T) {
		deps := setupTaskServiceTest(t)

		fresh := &task.Task{
			ID:             uuid.New(),
			AssignerID:     deps.assigner.ID.String(),
			Status:         task.StatusDraft,
			LastActivityAt: time.Now(),
		}
		deps.repo.tasks[fresh.ID.String()] = fresh
		// The scan raced an edit: the row looked stale then, but is fresh now.
		staleCopy := *fresh
		staleCopy.LastActivityAt = time.Now().Add(-10 * time.Minute)
		deps.repo.staleDrafts = []task.Task{staleCopy}

		assert.NoError(t, deps.service.ReclaimIdleSessions(ctx))
		assert.Equal(t, task.StatusDraft, deps.repo.tasks[fresh.ID.String()].Status)
	})
}

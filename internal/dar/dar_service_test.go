package dar_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"concord-desk/internal/dar"
	"concord-desk/internal/employee"
	"concord-desk/internal/notify"
	"concord-desk/internal/shared/storequeue"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeDarRepository struct {
	// marks maps employeeID -> dateKey set.
	marks map[string]map[string]bool
}

func newFakeDarRepository() *fakeDarRepository {
	return &fakeDarRepository{marks: map[string]map[string]bool{}}
}

func (f *fakeDarRepository) WithTx(tx *sql.Tx) dar.Repository { return f }

func (f *fakeDarRepository) MarkSubmitted(ctx context.Context, employeeID, dateKey string) error {
	if f.marks[employeeID] == nil {
		f.marks[employeeID] = map[string]bool{}
	}
	f.marks[employeeID][dateKey] = true
	return nil
}

func (f *fakeDarRepository) HasSubmitted(ctx context.Context, employeeID, dateKey string) (bool, error) {
	return f.marks[employeeID][dateKey], nil
}

func (f *fakeDarRepository) FindAllForDate(ctx context.Context, dateKey string) ([]dar.Submission, error) {
	var subs []dar.Submission
	for employeeID, days := range f.marks {
		if days[dateKey] {
			subs = append(subs, dar.Submission{EmployeeID: employeeID, ReportDate: dateKey})
		}
	}
	return subs, nil
}

func (f *fakeDarRepository) ClearForDate(ctx context.Context, dateKey string) error {
	for _, days := range f.marks {
		delete(days, dateKey)
	}
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
	dms []sentNotice
	// failFor makes DMs to these recipients fail, like a closed DM channel.
	failFor map[string]bool
}

func (f *fakeNotifier) DM(ctx context.Context, tx *sql.Tx, recipientID string, n notify.Notice) error {
	if f.failFor[recipientID] {
		return errors.New("dm channel closed")
	}
	f.dms = append(f.dms, sentNotice{recipient: recipientID, notice: n})
	return nil
}

func (f *fakeNotifier) Channel(ctx context.Context, tx *sql.Tx, channelID string, n notify.Notice) error {
	return nil
}

type darServiceDeps struct {
	service  dar.Service
	repo     *fakeDarRepository
	notifier *fakeNotifier

	alice *employee.Employee
	bob   *employee.Employee
	pa    *employee.Employee
}

func setupDarServiceTest(t *testing.T) *darServiceDeps {
	t.Helper()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 16; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}

	alice := &employee.Employee{ID: uuid.New(), MemberID: "m-alice", DisplayName: "Alice Thomas", Roles: employee.RoleList{"member"}}
	bob := &employee.Employee{ID: uuid.New(), MemberID: "m-bob", DisplayName: "Bob George", Roles: employee.RoleList{"member"}}
	pa := &employee.Employee{ID: uuid.New(), MemberID: "m-pa", DisplayName: "PA", Roles: employee.RoleList{"member", "dar_exempt"}}

	queue := storequeue.New(16)
	ctx, cancel := context.WithCancel(context.Background())
	go queue.Run(ctx)
	t.Cleanup(cancel)

	repo := newFakeDarRepository()
	notifier := &fakeNotifier{failFor: map[string]bool{}}
	svc := dar.NewService(db, repo, newFakeDirectory(alice, bob, pa), queue, notifier, dar.DefaultConfig())

	return &darServiceDeps{service: svc, repo: repo, notifier: notifier, alice: alice, bob: bob, pa: pa}
}

func TestDarService_MarkSubmitted(t *testing.T) {
	ctx := context.Background()
	deps := setupDarServiceTest(t)

	resp, err := deps.service.MarkSubmitted(ctx, dar.Actor{EmployeeID: deps.alice.ID.String()})
	assert.NoError(t, err)
	assert.Equal(t, dar.DateKey(time.Now()), resp.ReportDate)

	// Marking again is harmless.
	_, err = deps.service.MarkSubmitted(ctx, dar.Actor{EmployeeID: deps.alice.ID.String()})
	assert.NoError(t, err)

	done, err := deps.repo.HasSubmitted(ctx, deps.alice.ID.String(), resp.ReportDate)
	assert.NoError(t, err)
	assert.True(t, done)
}

func TestDarService_Sweep(t *testing.T) {
	ctx := context.Background()
	deps := setupDarServiceTest(t)

	day := time.Now()
	_, err := deps.service.MarkSubmitted(ctx, dar.Actor{EmployeeID: deps.alice.ID.String()})
	assert.NoError(t, err)

	names, err := deps.service.Sweep(ctx, day)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Alice Thomas"}, names)

	// Markers are gone afterwards.
	done, err := deps.repo.HasSubmitted(ctx, deps.alice.ID.String(), dar.DateKey(day))
	assert.NoError(t, err)
	assert.False(t, done)

	// A second sweep finds nothing.
	names, err = deps.service.Sweep(ctx, day)
	assert.NoError(t, err)
	assert.Empty(t, names)
}

func TestDarService_SweepPreviousEvening(t *testing.T) {
	ctx := context.Background()
	deps := setupDarServiceTest(t)

	// A marker written the previous evening is still there the next morning.
	yesterday := time.Now().AddDate(0, 0, -1)
	assert.NoError(t, deps.repo.MarkSubmitted(ctx, deps.bob.ID.String(), dar.DateKey(yesterday)))

	names, err := deps.service.Sweep(ctx, yesterday)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Bob George"}, names)

	done, err := deps.repo.HasSubmitted(ctx, deps.bob.ID.String(), dar.DateKey(yesterday))
	assert.NoError(t, err)
	assert.False(t, done)
}

func TestDarService_RemindPending(t *testing.T) {
	ctx := context.Background()

	t.Run("skips submitters and exempt roles", func(t *testing.T) {
		deps := setupDarServiceTest(t)
		day := time.Now()

		_, err := deps.service.MarkSubmitted(ctx, dar.Actor{EmployeeID: deps.alice.ID.String()})
		assert.NoError(t, err)

		sent, err := deps.service.RemindPending(ctx, day)
		assert.NoError(t, err)
		assert.Equal(t, 1, sent)

		assert.Len(t, deps.notifier.dms, 1)
		assert.Equal(t, deps.bob.MemberID, deps.notifier.dms[0].recipient)
		assert.Equal(t, "dar.reminder", deps.notifier.dms[0].notice.EventType)
	})

	t.Run("one closed DM does not stop the pass", func(t *testing.T) {
		deps := setupDarServiceTest(t)
		deps.notifier.failFor[deps.alice.MemberID] = true

		sent, err := deps.service.RemindPending(ctx, time.Now())
		assert.NoError(t, err)
		assert.Equal(t, 1, sent)
		assert.Len(t, deps.notifier.dms, 1)
		assert.Equal(t, deps.bob.MemberID, deps.notifier.dms[0].recipient)
	})
}

type recordingDarService struct {
	sweeps    []time.Time
	reminders []time.Time
}

func (r *recordingDarService) MarkSubmitted(ctx context.Context, actor dar.Actor) (*dar.SubmissionResponse, error) {
	return &dar.SubmissionResponse{}, nil
}

func (r *recordingDarService) Submitted(ctx context.Context, day time.Time) (*dar.SweepResponse, error) {
	return &dar.SweepResponse{}, nil
}

func (r *recordingDarService) Sweep(ctx context.Context, day time.Time) ([]string, error) {
	r.sweeps = append(r.sweeps, day)
	return nil, nil
}

func (r *recordingDarService) RemindPending(ctx context.Context, day time.Time) (int, error) {
	r.reminders = append(r.reminders, day)
	return 0, nil
}

func TestScheduler_Tick(t *testing.T) {
	ctx := context.Background()
	cfg := dar.DefaultConfig()

	// A Monday.
	monday := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.Local)

	t.Run("sweep fires once per day at the sweep hour", func(t *testing.T) {
		svc := &recordingDarService{}
		sched := dar.NewScheduler(svc, cfg)

		sched.Tick(ctx, monday.Add(10*time.Hour))
		assert.Empty(t, svc.sweeps)

		sched.Tick(ctx, monday.Add(11*time.Hour))
		sched.Tick(ctx, monday.Add(11*time.Hour+30*time.Minute))
		assert.Len(t, svc.sweeps, 1)

		// The morning sweep settles the previous evening's markers.
		assert.Equal(t, dar.DateKey(monday.AddDate(0, 0, -1)), dar.DateKey(svc.sweeps[0]))

		// Next day fires again.
		sched.Tick(ctx, monday.Add(35*time.Hour))
		assert.Len(t, svc.sweeps, 2)
	})

	t.Run("reminders fire once per evening hour", func(t *testing.T) {
		svc := &recordingDarService{}
		sched := dar.NewScheduler(svc, cfg)

		sched.Tick(ctx, monday.Add(18*time.Hour))
		assert.Empty(t, svc.reminders)

		sched.Tick(ctx, monday.Add(19*time.Hour))
		sched.Tick(ctx, monday.Add(19*time.Hour+59*time.Minute))
		assert.Len(t, svc.reminders, 1)

		sched.Tick(ctx, monday.Add(20*time.Hour))
		assert.Len(t, svc.reminders, 2)

		sched.Tick(ctx, monday.Add(23*time.Hour))
		assert.Len(t, svc.reminders, 2)
	})

	t.Run("no reminders on the weekly off day", func(t *testing.T) {
		svc := &recordingDarService{}
		sched := dar.NewScheduler(svc, cfg)

		sunday := time.Date(2026, time.January, 4, 19, 30, 0, 0, time.Local)
		sched.Tick(ctx, sunday)
		assert.Empty(t, svc.reminders)
	})
}

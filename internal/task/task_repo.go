package task

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=task_repo.go -destination=mock/task_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	Create(ctx context.Context, t *Task) error
	FindByID(ctx context.Context, id string) (*Task, error)
	FindStaleDrafts(ctx context.Context, idleSince time.Time) ([]Task, error)
	Update(ctx context.Context, t *Task) error

	ReplaceAssignees(ctx context.Context, taskID string, assignees []Assignee) error
	FindAssignees(ctx context.Context, taskID string) ([]Assignee, error)
	UpdateAssignee(ctx context.Context, a *Assignee) error
	ClearConfirmations(ctx context.Context, taskID string) error

	FindOpenTasksForAssignee(ctx context.Context, employeeID string) ([]Task, error)

	CreateFeedEntries(ctx context.Context, entries []FeedEntry) error
	FindFeedEntries(ctx context.Context, employeeID, channelID string) ([]FeedEntry, error)
	FindOrphanFeedEntries(ctx context.Context) ([]FeedEntry, error)
	DeleteFeedEntriesByTask(ctx context.Context, taskID string) error
	DeleteFeedEntry(ctx context.Context, id string) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// conn routes statements through the open transaction when one is attached.
// SQLite runs on a single pooled connection, so querying the pool while a
// transaction holds it would block forever.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db = db.Session(&gorm.Session{NewDB: true, Context: ctx})
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, t *Task) error {
	return r.conn(ctx).Create(t).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Task, error) {
	var t Task
	err := r.conn(ctx).First(&t, "id = ?", id).Error
	return &t, err
}

func (r *repository) FindStaleDrafts(ctx context.Context, idleSince time.Time) ([]Task, error) {
	var tasks []Task
	err := r.conn(ctx).
		Where("status = ? AND last_activity_at < ?", StatusDraft, idleSince).
		Find(&tasks).Error
	return tasks, err
}

func (r *repository) Update(ctx context.Context, t *Task) error {
	return r.conn(ctx).Save(t).Error
}

func (r *repository) ReplaceAssignees(ctx context.Context, taskID string, assignees []Assignee) error {
	if err := r.conn(ctx).Delete(&Assignee{}, "task_id = ?", taskID).Error; err != nil {
		return err
	}
	if len(assignees) == 0 {
		return nil
	}
	return r.conn(ctx).Create(&assignees).Error
}

func (r *repository) FindAssignees(ctx context.Context, taskID string) ([]Assignee, error) {
	var assignees []Assignee
	err := r.conn(ctx).
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&assignees).Error
	return assignees, err
}

func (r *repository) UpdateAssignee(ctx context.Context, a *Assignee) error {
	return r.conn(ctx).
		Model(&Assignee{}).
		Where("task_id = ? AND employee_id = ?", a.TaskID, a.EmployeeID).
		Updates(map[string]any{
			"confirmed":    a.Confirmed,
			"completed_at": a.CompletedAt,
		}).Error
}

func (r *repository) ClearConfirmations(ctx context.Context, taskID string) error {
	return r.conn(ctx).
		Model(&Assignee{}).
		Where("task_id = ?", taskID).
		Update("confirmed", false).Error
}

func (r *repository) FindOpenTasksForAssignee(ctx context.Context, employeeID string) ([]Task, error) {
	var tasks []Task
	err := r.conn(ctx).
		Joins("JOIN task_assignees ON task_assignees.task_id = tasks.id").
		Where("task_assignees.employee_id = ? AND tasks.status IN ?",
			employeeID, []TaskStatus{StatusPending, StatusConfirmed}).
		Order("tasks.created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *repository) CreateFeedEntries(ctx context.Context, entries []FeedEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.conn(ctx).Create(&entries).Error
}

func (r *repository) FindFeedEntries(ctx context.Context, employeeID, channelID string) ([]FeedEntry, error) {
	var entries []FeedEntry
	err := r.conn(ctx).
		Where("employee_id = ? AND channel_id = ?", employeeID, channelID).
		Find(&entries).Error
	return entries, err
}

// FindOrphanFeedEntries returns feed rows whose task already left the open
// states, so their chat messages can be deleted.
func (r *repository) FindOrphanFeedEntries(ctx context.Context) ([]FeedEntry, error) {
	var entries []FeedEntry
	err := r.conn(ctx).
		Joins("JOIN tasks ON tasks.id = task_feed_entries.task_id").
		Where("tasks.status NOT IN ?", []TaskStatus{StatusPending, StatusConfirmed}).
		Find(&entries).Error
	return entries, err
}

func (r *repository) DeleteFeedEntriesByTask(ctx context.Context, taskID string) error {
	return r.conn(ctx).Delete(&FeedEntry{}, "task_id = ?", taskID).Error
}

func (r *repository) DeleteFeedEntry(ctx context.Context, id string) error {
	return r.conn(ctx).Delete(&FeedEntry{}, "id = ?", id).Error
}

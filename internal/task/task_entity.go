package task

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	// StatusDraft is a task still being put together in its session channel.
	StatusDraft TaskStatus = "DRAFT"
	// StatusPending has assignees and details but the deadline handshake is
	// not complete yet.
	StatusPending TaskStatus = "PENDING"
	// StatusConfirmed means the assigner and every assignee confirmed the
	// deadline.
	StatusConfirmed TaskStatus = "CONFIRMED"
	// StatusCompleted means every assignee reported done; waiting on the
	// assigner to close.
	StatusCompleted TaskStatus = "COMPLETED"
	StatusClosed    TaskStatus = "CLOSED"
)

type Task struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	AssignerID string `gorm:"type:uuid;not null;index"`

	Details  string     `gorm:"type:text"`
	Deadline *time.Time

	// SessionChannelID is the channel the gateway opened to configure this
	// task in.
	SessionChannelID string `gorm:"type:varchar(32)"`

	Status TaskStatus `gorm:"type:varchar(16);not null;index"`

	// AssignerConfirmed is the assigner's half of the deadline handshake.
	AssignerConfirmed bool `gorm:"not null;default:false"`

	// LastActivityAt drives session reclaim; every edit refreshes it.
	LastActivityAt time.Time `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Task) TableName() string {
	return "tasks"
}

type Assignee struct {
	TaskID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID string    `gorm:"type:uuid;primaryKey"`

	Confirmed   bool `gorm:"not null;default:false"`
	CompletedAt *time.Time

	CreatedAt time.Time
}

func (Assignee) TableName() string {
	return "task_assignees"
}

// FeedEntry records one task message delivered into a member's pending-task
// feed, so redelivery can be skipped and stale messages cleaned up.
type FeedEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID string    `gorm:"type:uuid;not null;index"`
	TaskID     uuid.UUID `gorm:"type:uuid;not null;index"`

	ChannelID string `gorm:"type:varchar(32);not null"`
	MessageID string `gorm:"type:varchar(32)"`

	CreatedAt time.Time
}

func (FeedEntry) TableName() string {
	return "task_feed_entries"
}

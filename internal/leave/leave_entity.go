package leave

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LeaveType string

const (
	TypeFullDay LeaveType = "FULL_DAY"
	TypeHalfDay LeaveType = "HALF_DAY"
	TypeOffDuty LeaveType = "OFF_DUTY"
)

type LeaveReason string

const (
	ReasonCasual  LeaveReason = "CASUAL"
	ReasonSick    LeaveReason = "SICK"
	ReasonCompOff LeaveReason = "COMP_OFF"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusDeclined  Status = "DECLINED"
	StatusWithdrawn Status = "WITHDRAWN"
	StatusCancelled Status = "CANCELLED"
)

// Stage is the review stage a pending request currently sits at. FINAL marks
// a record that has left the review pipeline.
type Stage string

const (
	StageFirst  Stage = "FIRST"
	StageSecond Stage = "SECOND"
	StageThird  Stage = "THIRD"
	StageFinal  Stage = "FINAL"
)

// HalfDayPeriod for half-day requests.
const (
	PeriodForenoon  = "FORENOON"
	PeriodAfternoon = "AFTERNOON"
)

type Leave struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EmployeeID string `gorm:"type:uuid;not null;uniqueIndex:idx_leaves_employee_seq,priority:1;index"`
	// Seq is the member-visible request number, monotonic per employee.
	Seq int64 `gorm:"not null;uniqueIndex:idx_leaves_employee_seq,priority:2"`

	LeaveType LeaveType   `gorm:"type:varchar(16);not null"`
	Reason    LeaveReason `gorm:"type:varchar(16)"`

	DateFrom time.Time `gorm:"not null"`
	DateTo   time.Time `gorm:"not null"`

	// DaysOff is null for off-duty requests; those consume hours instead.
	DaysOff        decimal.NullDecimal `gorm:"type:numeric"`
	ResumeOfficeOn *time.Time

	// TimePeriod is set for half-day requests, TimeOff and OffDutyHours for
	// off-duty ones.
	TimePeriod   string              `gorm:"type:varchar(16)"`
	TimeOff      string              `gorm:"type:varchar(32)"`
	OffDutyHours decimal.NullDecimal `gorm:"type:numeric"`

	Description string `gorm:"type:text"`

	Status Status `gorm:"type:varchar(16);not null;index"`
	Stage  Stage  `gorm:"type:varchar(16);not null"`

	ApprovedBy    string `gorm:"type:uuid"`
	DeclineReason string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Leave) TableName() string {
	return "leaves"
}

// Balance is one row per employee. Accepted leave adds to the matching
// reason's total; withdrawal takes it back out.
type Balance struct {
	EmployeeID string `gorm:"type:uuid;primaryKey"`

	TotalCasual  decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	TotalSick    decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	TotalCompOff decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	OffDutyHours decimal.Decimal `gorm:"type:numeric;not null;default:0"`

	LastLeaveTaken *time.Time

	UpdatedAt time.Time
}

func (Balance) TableName() string {
	return "leave_balances"
}

// ApprovalTicket is the persisted link between a review prompt delivered in
// chat and the leave it belongs to. The gateway attaches the channel and
// message ids after delivery; accepting or declining resolves the ticket.
type ApprovalTicket struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	LeaveID uuid.UUID `gorm:"type:uuid;not null;index"`

	Stage       Stage  `gorm:"type:varchar(16);not null"`
	SubmitterID string `gorm:"type:uuid;not null"`
	ApproverID  string `gorm:"type:uuid;not null;index"`

	ChannelID string `gorm:"type:varchar(32)"`
	MessageID string `gorm:"type:varchar(32)"`

	// ForwardReason carries the second-stage decline note when the request is
	// forwarded for a final ruling.
	ForwardReason string `gorm:"type:text"`

	ResolvedAt *time.Time

	CreatedAt time.Time
}

func (ApprovalTicket) TableName() string {
	return "approval_tickets"
}

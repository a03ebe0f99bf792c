package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	Create(ctx context.Context, l *Leave) error
	FindByID(ctx context.Context, id string) (*Leave, error)
	FindAllByEmployee(ctx context.Context, employeeID string) ([]Leave, error)
	FindAll(ctx context.Context) ([]Leave, error)
	FindByMonth(ctx context.Context, from, to time.Time) ([]Leave, error)
	Update(ctx context.Context, l *Leave) error
	NextSeq(ctx context.Context, employeeID string) (int64, error)
	MaxAcceptedDateTo(ctx context.Context, employeeID string) (*time.Time, error)

	CreateBalance(ctx context.Context, b *Balance) error
	FindBalance(ctx context.Context, employeeID string) (*Balance, error)
	FindAllBalances(ctx context.Context) ([]Balance, error)
	UpdateBalance(ctx context.Context, b *Balance) error
	DeleteBalance(ctx context.Context, employeeID string) error

	CreateTicket(ctx context.Context, t *ApprovalTicket) error
	FindTicket(ctx context.Context, id string) (*ApprovalTicket, error)
	FindOpenTicketByLeave(ctx context.Context, leaveID string) (*ApprovalTicket, error)
	FindOpenTicketsByApprover(ctx context.Context, approverID string) ([]ApprovalTicket, error)
	UpdateTicket(ctx context.Context, t *ApprovalTicket) error
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

func (r *repository) Create(ctx context.Context, l *Leave) error {
	return r.conn(ctx).Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Leave, error) {
	var l Leave
	err := r.conn(ctx).First(&l, "id = ?", id).Error
	return &l, err
}

func (r *repository) FindAllByEmployee(ctx context.Context, employeeID string) ([]Leave, error) {
	var leaves []Leave
	err := r.conn(ctx).
		Where("employee_id = ?", employeeID).
		Order("seq DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindAll(ctx context.Context) ([]Leave, error) {
	var leaves []Leave
	err := r.conn(ctx).
		Order("created_at DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindByMonth(ctx context.Context, from, to time.Time) ([]Leave, error) {
	var leaves []Leave
	err := r.conn(ctx).
		Where("date_from < ? AND date_to >= ?", to, from).
		Order("date_from ASC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) Update(ctx context.Context, l *Leave) error {
	return r.conn(ctx).Save(l).Error
}

func (r *repository) NextSeq(ctx context.Context, employeeID string) (int64, error) {
	var max sql.NullInt64
	err := r.conn(ctx).
		Model(&Leave{}).
		Where("employee_id = ?", employeeID).
		Select("MAX(seq)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max.Int64 + 1, nil
}

// MaxAcceptedDateTo is the latest end date across the employee's remaining
// accepted day-consuming leaves, nil when none are left. Fetched as a full
// row rather than MAX(date_to): sqlite only type-converts declared columns,
// so aggregate results come back as strings and fail the time.Time scan.
func (r *repository) MaxAcceptedDateTo(ctx context.Context, employeeID string) (*time.Time, error) {
	var l Leave
	err := r.conn(ctx).
		Where("employee_id = ? AND status = ? AND leave_type IN ?",
			employeeID, StatusAccepted, []LeaveType{TypeFullDay, TypeHalfDay}).
		Order("date_to DESC").
		First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t := l.DateTo
	return &t, nil
}

func (r *repository) CreateBalance(ctx context.Context, b *Balance) error {
	return r.conn(ctx).Create(b).Error
}

func (r *repository) FindBalance(ctx context.Context, employeeID string) (*Balance, error) {
	var b Balance
	err := r.conn(ctx).First(&b, "employee_id = ?", employeeID).Error
	return &b, err
}

func (r *repository) FindAllBalances(ctx context.Context) ([]Balance, error) {
	var balances []Balance
	err := r.conn(ctx).Find(&balances).Error
	return balances, err
}

func (r *repository) UpdateBalance(ctx context.Context, b *Balance) error {
	return r.conn(ctx).Save(b).Error
}

func (r *repository) DeleteBalance(ctx context.Context, employeeID string) error {
	return r.conn(ctx).Delete(&Balance{}, "employee_id = ?", employeeID).Error
}

func (r *repository) CreateTicket(ctx context.Context, t *ApprovalTicket) error {
	return r.conn(ctx).Create(t).Error
}

func (r *repository) FindTicket(ctx context.Context, id string) (*ApprovalTicket, error) {
	var t ApprovalTicket
	err := r.conn(ctx).First(&t, "id = ?", id).Error
	return &t, err
}

func (r *repository) FindOpenTicketByLeave(ctx context.Context, leaveID string) (*ApprovalTicket, error) {
	var t ApprovalTicket
	err := r.conn(ctx).
		Where("leave_id = ? AND resolved_at IS NULL", leaveID).
		Order("created_at DESC").
		First(&t).Error
	return &t, err
}

func (r *repository) FindOpenTicketsByApprover(ctx context.Context, approverID string) ([]ApprovalTicket, error) {
	var tickets []ApprovalTicket
	err := r.conn(ctx).
		Where("approver_id = ? AND resolved_at IS NULL", approverID).
		Order("created_at ASC").
		Find(&tickets).Error
	return tickets, err
}

func (r *repository) UpdateTicket(ctx context.Context, t *ApprovalTicket) error {
	return r.conn(ctx).Save(t).Error
}

// zeroBalance builds a fresh row for a newly provisioned employee.
func zeroBalance(employeeID string) *Balance {
	return &Balance{
		EmployeeID:   employeeID,
		TotalCasual:  decimal.Zero,
		TotalSick:    decimal.Zero,
		TotalCompOff: decimal.Zero,
		OffDutyHours: decimal.Zero,
	}
}

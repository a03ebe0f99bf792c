package dar

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=dar_repo.go -destination=mock/dar_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	MarkSubmitted(ctx context.Context, employeeID, dateKey string) error
	HasSubmitted(ctx context.Context, employeeID, dateKey string) (bool, error)
	FindAllForDate(ctx context.Context, dateKey string) ([]Submission, error)
	ClearForDate(ctx context.Context, dateKey string) error
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

func (r *repository) MarkSubmitted(ctx context.Context, employeeID, dateKey string) error {
	// Marking twice on the same day is a no-op.
	return r.conn(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Submission{EmployeeID: employeeID, ReportDate: dateKey}).Error
}

func (r *repository) HasSubmitted(ctx context.Context, employeeID, dateKey string) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Model(&Submission{}).
		Where("employee_id = ? AND report_date = ?", employeeID, dateKey).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindAllForDate(ctx context.Context, dateKey string) ([]Submission, error) {
	var subs []Submission
	err := r.conn(ctx).
		Where("report_date = ?", dateKey).
		Order("created_at ASC").
		Find(&subs).Error
	return subs, err
}

func (r *repository) ClearForDate(ctx context.Context, dateKey string) error {
	return r.conn(ctx).
		Where("report_date = ?", dateKey).
		Delete(&Submission{}).Error
}

package employee

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, e *Employee) error
	FindAll(ctx context.Context) ([]Employee, error)
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindByMemberID(ctx context.Context, memberID string) (*Employee, error)
	FindByMemberIDIncludingRevoked(ctx context.Context, memberID string) (*Employee, error)
	Update(ctx context.Context, e *Employee) error
	Restore(ctx context.Context, id string) error
	Delete(ctx context.Context, memberID string) error
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

func (r *repository) Create(ctx context.Context, e *Employee) error {
	return r.conn(ctx).Create(e).Error
}

func (r *repository) FindAll(ctx context.Context) ([]Employee, error) {
	var employees []Employee
	err := r.conn(ctx).
		Order("display_name ASC").
		Find(&employees).Error
	return employees, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	var e Employee
	err := r.conn(ctx).First(&e, "id = ?", id).Error
	return &e, err
}

func (r *repository) FindByMemberID(ctx context.Context, memberID string) (*Employee, error) {
	var e Employee
	err := r.conn(ctx).First(&e, "member_id = ?", memberID).Error
	return &e, err
}

func (r *repository) FindByMemberIDIncludingRevoked(ctx context.Context, memberID string) (*Employee, error) {
	var e Employee
	err := r.conn(ctx).Unscoped().First(&e, "member_id = ?", memberID).Error
	return &e, err
}

func (r *repository) Update(ctx context.Context, e *Employee) error {
	return r.conn(ctx).Save(e).Error
}

func (r *repository) Restore(ctx context.Context, id string) error {
	return r.conn(ctx).
		Unscoped().
		Model(&Employee{}).
		Where("id = ?", id).
		Update("deleted_at", nil).Error
}

func (r *repository) Delete(ctx context.Context, memberID string) error {
	return r.conn(ctx).
		Delete(&Employee{}, "member_id = ?", memberID).Error
}

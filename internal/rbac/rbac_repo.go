package rbac

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=rbac_repo.go -destination=mock/rbac_repo_mock.go -package=mock
type Repository interface {
	GetRoleGrants(ctx context.Context) ([]RoleGrantRow, error)
	EnsureDefaultGrants(ctx context.Context) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type RoleGrantRow struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	Role     string `gorm:"type:varchar(50);not null;uniqueIndex:idx_role_grant"`
	Resource string `gorm:"type:varchar(50);not null;uniqueIndex:idx_role_grant"`
	Action   string `gorm:"type:varchar(50);not null;uniqueIndex:idx_role_grant"`
}

func (RoleGrantRow) TableName() string {
	return "role_grants"
}

func (r *repository) GetRoleGrants(ctx context.Context) ([]RoleGrantRow, error) {
	var result []RoleGrantRow
	err := r.db.WithContext(ctx).
		Order("role, resource, action").
		Find(&result).Error
	return result, err
}

// defaultGrants mirrors the workspace's standing role setup. Operators can
// extend the table at runtime; these only seed an empty one.
var defaultGrants = []RoleGrantRow{
	{Role: "member", Resource: "leave", Action: "create"},
	{Role: "member", Resource: "leave", Action: "read"},
	{Role: "member", Resource: "leave", Action: "withdraw"},
	{Role: "member", Resource: "task", Action: "read"},
	{Role: "member", Resource: "task", Action: "create"},
	{Role: "member", Resource: "dar", Action: "submit"},

	{Role: "heads", Resource: "leave", Action: "review"},
	{Role: "heads", Resource: "leave", Action: "export"},
	{Role: "heads", Resource: "task", Action: "manage"},
	{Role: "heads", Resource: "employee", Action: "read"},

	{Role: "project_coordinator", Resource: "leave", Action: "review"},
	{Role: "project_coordinator", Resource: "task", Action: "manage"},
	{Role: "project_coordinator", Resource: "employee", Action: "read"},

	{Role: "personal_assistant", Resource: "leave", Action: "review"},
	{Role: "personal_assistant", Resource: "leave", Action: "export"},
	{Role: "personal_assistant", Resource: "dar", Action: "sweep"},
	{Role: "personal_assistant", Resource: "employee", Action: "read"},

	{Role: "gateway", Resource: "employee", Action: "manage"},
	{Role: "gateway", Resource: "rbac", Action: "manage"},
}

func (r *repository) EnsureDefaultGrants(ctx context.Context) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&RoleGrantRow{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&defaultGrants).Error
}

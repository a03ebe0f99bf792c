package employee

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoleList is stored as a JSON array in a TEXT column.
type RoleList []string

func (r RoleList) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *RoleList) Scan(value any) error {
	if value == nil {
		*r = RoleList{}
		return nil
	}
	switch v := value.(type) {
	case string:
		return json.Unmarshal([]byte(v), r)
	case []byte:
		return json.Unmarshal(v, r)
	default:
		return errors.New("unsupported role list column type")
	}
}

func (r RoleList) Has(role string) bool {
	for _, v := range r {
		if v == role {
			return true
		}
	}
	return false
}

func (r RoleList) HasAny(roles ...string) bool {
	for _, role := range roles {
		if r.Has(role) {
			return true
		}
	}
	return false
}

type Employee struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	// MemberID is the chat-platform identity; the stable key for everything
	// gateway-facing. DisplayName is mutable and never used as a storage key.
	MemberID    string `gorm:"type:varchar(32);not null;uniqueIndex"`
	DisplayName string `gorm:"type:varchar(100);not null"`
	Department  string `gorm:"type:varchar(50)"`
	Roles       RoleList `gorm:"type:text;not null;default:'[]'"`

	// RelayChannelID is the member's DM relay, filled in by the gateway.
	RelayChannelID string `gorm:"type:varchar(32)"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Employee) TableName() string {
	return "employees"
}

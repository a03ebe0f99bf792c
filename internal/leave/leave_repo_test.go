package leave_test

import (
	"context"
	"testing"
	"time"

	"concord-desk/internal/leave"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newLeaveRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	db, err := gormDB.DB()
	assert.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	assert.NoError(t, gormDB.AutoMigrate(&leave.Leave{}))
	return gormDB
}

func acceptedLeave(employeeID string, seq int64, leaveType leave.LeaveType, status leave.Status, dateTo time.Time) *leave.Leave {
	return &leave.Leave{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		Seq:        seq,
		LeaveType:  leaveType,
		Reason:     leave.ReasonCasual,
		DateFrom:   dateTo.AddDate(0, 0, -1),
		DateTo:     dateTo,
		Status:     status,
		Stage:      leave.StageFinal,
	}
}

func TestLeaveRepository_MaxAcceptedDateTo(t *testing.T) {
	ctx := context.Background()
	repo := leave.NewRepository(newLeaveRepoDB(t))
	employeeID := uuid.NewString()

	t.Run("no accepted leaves", func(t *testing.T) {
		got, err := repo.MaxAcceptedDateTo(ctx, employeeID)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	jan10 := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	jan20 := time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC)
	feb1 := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	mar1 := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, repo.Create(ctx, acceptedLeave(employeeID, 1, leave.TypeFullDay, leave.StatusAccepted, jan10)))
	assert.NoError(t, repo.Create(ctx, acceptedLeave(employeeID, 2, leave.TypeHalfDay, leave.StatusAccepted, jan20)))
	// Withdrawn and hour-consuming records never count.
	assert.NoError(t, repo.Create(ctx, acceptedLeave(employeeID, 3, leave.TypeFullDay, leave.StatusWithdrawn, feb1)))
	assert.NoError(t, repo.Create(ctx, acceptedLeave(employeeID, 4, leave.TypeOffDuty, leave.StatusAccepted, mar1)))

	t.Run("latest accepted day-consuming end date", func(t *testing.T) {
		got, err := repo.MaxAcceptedDateTo(ctx, employeeID)
		assert.NoError(t, err)
		assert.NotNil(t, got)
		assert.Equal(t, "20-01-2026", leave.FormatDate(*got))
	})

	t.Run("other employees are not considered", func(t *testing.T) {
		got, err := repo.MaxAcceptedDateTo(ctx, uuid.NewString())
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}

package app

import (
	"context"
	"database/sql"
	"log"
	"os"

	"concord-desk/internal/dar"
	"concord-desk/internal/employee"
	"concord-desk/internal/leave"
	"concord-desk/internal/middleware"
	"concord-desk/internal/rbac"
	"concord-desk/internal/shared/connection"
	"concord-desk/internal/shared/storequeue"
	"concord-desk/internal/task"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func BuildApp(router *gin.Engine) error {
	// 1. Setup Infrastructure
	gormDB, err := connection.ConnectGORMWithRetry(dbPath(), 5)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("✅ Database connection established")

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}
	log.Println("✅ Redis connection established")

	if err := runMigrations(gormDB, sqlDB); err != nil {
		return err
	}

	// 2. Store queue — the single consumer serializing every mutation.
	queue := storequeue.New(128)
	go queue.Run(context.Background())

	// 3. Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimitByIP(rate.Limit(50), 100))
	router.Use(middleware.Idempotency(redisClient))

	// 4. Register Modules & Routes
	return registerModules(router, sqlDB, gormDB, queue)
}

func dbPath() string {
	if path := os.Getenv("DB_PATH"); path != "" {
		return path
	}
	return "concord.db"
}

func leaveConfigFromEnv() leave.Config {
	return leave.Config{
		Reviewers: leave.Reviewers{
			FirstMemberID:  os.Getenv("LEAVE_FIRST_REVIEWER_ID"),
			SecondMemberID: os.Getenv("LEAVE_SECOND_REVIEWER_ID"),
			ThirdMemberID:  os.Getenv("LEAVE_THIRD_REVIEWER_ID"),
		},
	}
}

func darConfigFromEnv() dar.Config {
	cfg := dar.DefaultConfig()
	cfg.SweepLogPath = os.Getenv("DAR_SWEEP_LOG")
	return cfg
}

func runMigrations(gormDB *gorm.DB, sqlDB *sql.DB) error {
	if err := gormDB.AutoMigrate(
		&employee.Employee{},
		&leave.Leave{},
		&leave.Balance{},
		&leave.ApprovalTicket{},
		&task.Task{},
		&task.Assignee{},
		&task.FeedEntry{},
		&dar.Submission{},
		&rbac.RoleGrantRow{},
	); err != nil {
		return err
	}

	// The outbox is plain database/sql, outside gorm's model set.
	_, err := sqlDB.Exec(`
CREATE TABLE IF NOT EXISTS outbox_events (
    id            TEXT PRIMARY KEY,
    request_id    TEXT,
    aggregate_type TEXT NOT NULL,
    aggregate_id  TEXT NOT NULL,
    event_type    TEXT NOT NULL,
    topic         TEXT NOT NULL,
    payload       BLOB NOT NULL,
    status        TEXT NOT NULL DEFAULT 'pending',
    retry_count   INTEGER NOT NULL DEFAULT 0,
    error_message TEXT,
    next_retry_at DATETIME,
    processed_at  DATETIME,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME
);
CREATE INDEX IF NOT EXISTS idx_outbox_status_retry ON outbox_events (status, next_retry_at);
`)
	return err
}

package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"concord-desk/internal/employee"
	"concord-desk/internal/events"
	"concord-desk/internal/leave"
	"concord-desk/internal/messaging/kafka"
	"concord-desk/internal/messaging/kafka/consumer"
	"concord-desk/internal/notify"
	"concord-desk/internal/shared/connection"
	"concord-desk/internal/shared/storequeue"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer applies membership change events from the gateway: eligibility
// gained provisions an employee, eligibility lost revokes one.
func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

	gormDB, err := connection.ConnectGORMWithRetry(dbPath(), 5)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := runMigrations(gormDB, sqlDB); err != nil {
		return err
	}

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := storequeue.New(64)
	go queue.Run(ctx)

	outboxRepo := kafka.NewOutboxRepository(sqlDB)
	notifier := notify.NewOutboxNotifier(outboxRepo)
	employeeRepo := employee.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)

	// Provisioning seeds a zero balance, so the employee service rides on the
	// leave service's balance store.
	leaveService := leave.NewService(sqlDB, leaveRepo, employeeRepo, queue, notifier, leaveConfigFromEnv())
	employeeService := employee.NewService(sqlDB, employeeRepo, leaveService, queue)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.MembershipTopic,
		GroupID:        "concord-desk-membership",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	go consumer.ConsumeMembershipChanges(ctx, reader, employeeService, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}

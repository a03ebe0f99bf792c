package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"concord-desk/internal/dar"
	"concord-desk/internal/employee"
	"concord-desk/internal/messaging/kafka"
	"concord-desk/internal/messaging/kafka/producer"
	"concord-desk/internal/notify"
	"concord-desk/internal/shared/connection"
	"concord-desk/internal/shared/storequeue"
	"concord-desk/internal/task"

	"go.uber.org/zap"
)

// RunWorker hosts the background loops: outbox relay to Kafka, the DAR
// scheduler, task-session reclaim and feed cleanup.
func RunWorker() error {
	logger := zap.L().Named("app.worker")

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

	kafkaWriter, err := connection.ConnectKafkaWithRetry(kafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := storequeue.New(128)
	go queue.Run(ctx)

	outboxRepo := kafka.NewOutboxRepository(sqlDB)
	notifier := notify.NewOutboxNotifier(outboxRepo)
	employeeRepo := employee.NewRepository(gormDB)
	taskRepo := task.NewRepository(gormDB)
	darRepo := dar.NewRepository(gormDB)

	taskService := task.NewService(sqlDB, taskRepo, employeeRepo, queue, notifier)
	darService := dar.NewService(sqlDB, darRepo, employeeRepo, queue, notifier, darConfigFromEnv())
	darScheduler := dar.NewScheduler(darService, darConfigFromEnv())

	go producer.ProcessOutboxEvents(
		ctx,
		outboxRepo,
		kafkaWriter,
		logger,
		3*time.Second,
	)
	go task.RunMonitors(ctx, taskService, logger)
	go darScheduler.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()

	return nil
}

package consumer

import (
	"context"
	"encoding/json"

	"concord-desk/internal/employee"
	"concord-desk/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeMembershipChanges provisions and revokes employees from gateway
// role-membership events. Provisioning is idempotent, so replays are safe.
func ConsumeMembershipChanges(
	ctx context.Context,
	reader *kafkago.Reader,
	employeeService employee.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.membership")
	log.Info("membership consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("membership consumer stopped")
				return
			}
			log.Error("fetch membership message failed", zap.Error(err))
			continue
		}

		var event events.MembershipChangedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode membership event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		switch event.EventType {
		case events.MembershipGained:
			_, err = employeeService.Provision(ctx, employee.ProvisionRequest{
				MemberID:    event.MemberID,
				DisplayName: event.DisplayName,
				Department:  event.Department,
				Roles:       event.Roles,
			})
		case events.MembershipLost:
			err = employeeService.Revoke(ctx, event.MemberID)
		default:
			log.Warn("unknown membership event type", zap.String("event_type", event.EventType))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err != nil {
			log.Error("apply membership event failed",
				zap.String("event_type", event.EventType),
				zap.String("member_id", event.MemberID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit membership message failed", zap.Error(err))
			continue
		}

		log.Info("membership event applied",
			zap.String("event_type", event.EventType),
			zap.String("member_id", event.MemberID),
		)
	}
}

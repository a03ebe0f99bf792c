// Package notify is the outbound side of the chat-platform boundary. Services
// describe what should reach a person or a channel; delivery itself is the
// gateway's job, fed through the transactional outbox.
package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"concord-desk/internal/events"
	"concord-desk/internal/messaging/kafka"
	"concord-desk/internal/shared/contextutil"

	"github.com/google/uuid"
)

// Notice is one outbound message. Aggregate and AggregateID tie it back to the
// record that triggered it, which also keys Kafka partitioning.
type Notice struct {
	Aggregate   string
	AggregateID string
	EventType   string
	Subject     string
	Body        string
	Fields      map[string]string
}

//go:generate mockgen -source=notifier.go -destination=mock/notifier_mock.go -package=mock
type Notifier interface {
	// DM queues a direct message to a member. When tx is non-nil the notice is
	// written in the same transaction as the mutation that caused it.
	DM(ctx context.Context, tx *sql.Tx, recipientID string, n Notice) error
	// Channel queues a message to a relay channel.
	Channel(ctx context.Context, tx *sql.Tx, channelID string, n Notice) error
}

type outboxNotifier struct {
	outbox kafka.OutboxRepository
}

func NewOutboxNotifier(outbox kafka.OutboxRepository) Notifier {
	return &outboxNotifier{outbox: outbox}
}

func (o *outboxNotifier) DM(ctx context.Context, tx *sql.Tx, recipientID string, n Notice) error {
	event := events.NotificationEvent{
		EventType:   n.EventType,
		RecipientID: recipientID,
		Subject:     n.Subject,
		Body:        n.Body,
		Fields:      n.Fields,
		OccurredAt:  time.Now().UTC(),
	}
	return o.enqueue(ctx, tx, events.NotifyDMTopic, n, event)
}

func (o *outboxNotifier) Channel(ctx context.Context, tx *sql.Tx, channelID string, n Notice) error {
	event := events.NotificationEvent{
		EventType:  n.EventType,
		ChannelID:  channelID,
		Subject:    n.Subject,
		Body:       n.Body,
		Fields:     n.Fields,
		OccurredAt: time.Now().UTC(),
	}
	return o.enqueue(ctx, tx, events.NotifyChannelTopic, n, event)
}

func (o *outboxNotifier) enqueue(ctx context.Context, tx *sql.Tx, topic string, n Notice, event events.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	repo := o.outbox
	if tx != nil {
		repo = o.outbox.WithTx(tx)
	}

	return repo.Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: n.Aggregate,
		AggregateID:   n.AggregateID,
		EventType:     n.EventType,
		Topic:         topic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

package events

import "time"

const (
	NotifyDMTopic      = "concord.notify.dm.v1"
	NotifyChannelTopic = "concord.notify.channel.v1"
)

// NotificationEvent is consumed by the chat gateway, which renders it as a DM
// or a channel message. Fields preserve insertion order on the gateway side.
type NotificationEvent struct {
	EventType   string            `json:"event_type"`
	RecipientID string            `json:"recipient_id,omitempty"`
	ChannelID   string            `json:"channel_id,omitempty"`
	Subject     string            `json:"subject"`
	Body        string            `json:"body,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

package events

import "time"

const MembershipTopic = "concord.membership.v1"

const (
	MembershipGained = "eligibility_gained"
	MembershipLost   = "eligibility_lost"
)

// MembershipChangedEvent is published by the chat gateway when a member gains
// or loses the employee role.
type MembershipChangedEvent struct {
	EventType   string    `json:"event_type"`
	MemberID    string    `json:"member_id"`
	DisplayName string    `json:"display_name"`
	Department  string    `json:"department"`
	Roles       []string  `json:"roles"`
	OccurredAt  time.Time `json:"occurred_at"`
}

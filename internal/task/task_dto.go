package task

// Actor mirrors the identity resolved by the gateway middleware.
type Actor struct {
	EmployeeID  string
	MemberID    string
	DisplayName string
	Roles       []string
}

type OpenSessionRequest struct {
	SessionChannelID string `json:"session_channel_id" binding:"required"`
}

type SetAssigneesRequest struct {
	Names []string `json:"names" binding:"required,min=1"`
}

type SetDetailsRequest struct {
	Details  string `json:"details" binding:"required"`
	Deadline string `json:"deadline" binding:"required"`
}

type FeedDeliveryItem struct {
	TaskID    string `json:"task_id" binding:"required"`
	MessageID string `json:"message_id" binding:"required"`
}

type RegisterFeedRequest struct {
	ChannelID string             `json:"channel_id" binding:"required"`
	Items     []FeedDeliveryItem `json:"items" binding:"required"`
}

type AssigneeResponse struct {
	EmployeeID  string `json:"employee_id"`
	DisplayName string `json:"display_name,omitempty"`
	Confirmed   bool   `json:"confirmed"`
	Completed   bool   `json:"completed"`
}

type TaskResponse struct {
	ID                string             `json:"id"`
	AssignerID        string             `json:"assigner_id"`
	Details           string             `json:"details,omitempty"`
	Deadline          string             `json:"deadline,omitempty"`
	SessionChannelID  string             `json:"session_channel_id,omitempty"`
	Status            string             `json:"status"`
	AssignerConfirmed bool               `json:"assigner_confirmed"`
	Assignees         []AssigneeResponse `json:"assignees"`
}

type FeedItemResponse struct {
	TaskID     string `json:"task_id"`
	AssignerID string `json:"assigner_id"`
	Details    string `json:"details"`
	Deadline   string `json:"deadline,omitempty"`
	Status     string `json:"status"`
}

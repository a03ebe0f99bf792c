package employee

type ProvisionRequest struct {
	MemberID    string   `json:"member_id" binding:"required"`
	DisplayName string   `json:"display_name" binding:"required"`
	Department  string   `json:"department"`
	Roles       []string `json:"roles"`
}

type UpdateRolesRequest struct {
	Department string   `json:"department"`
	Roles      []string `json:"roles" binding:"required"`
}

type SetRelayChannelRequest struct {
	RelayChannelID string `json:"relay_channel_id" binding:"required"`
}

type EmployeeResponse struct {
	ID             string   `json:"id"`
	MemberID       string   `json:"member_id"`
	DisplayName    string   `json:"display_name"`
	Department     string   `json:"department"`
	Roles          []string `json:"roles"`
	RelayChannelID string   `json:"relay_channel_id,omitempty"`
}

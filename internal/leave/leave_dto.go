package leave

// Actor is the resolved identity performing a leave operation.
type Actor struct {
	EmployeeID  string
	MemberID    string
	DisplayName string
	Roles       []string
}

type SubmitFullDayRequest struct {
	Reason      string `json:"reason" binding:"required"`
	DateFrom    string `json:"date_from" binding:"required"`
	DateTo      string `json:"date_to" binding:"required"`
	Description string `json:"description"`
}

type SubmitHalfDayRequest struct {
	Reason      string `json:"reason" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Period      string `json:"period" binding:"required"`
	Description string `json:"description"`
}

type SubmitOffDutyRequest struct {
	Date        string `json:"date" binding:"required"`
	TimeOff     string `json:"time_off" binding:"required"`
	Description string `json:"description"`
}

// ReviewRequest carries the stage the reviewer believes they are acting on.
// The engine re-reads the persisted record and rejects the action when the
// stored state no longer matches, so a stale prompt can never mutate twice.
type ReviewRequest struct {
	Stage string `json:"stage" binding:"required"`
}

type DeclineRequest struct {
	Stage  string `json:"stage" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

type AttachMessageRequest struct {
	ChannelID string `json:"channel_id" binding:"required"`
	MessageID string `json:"message_id" binding:"required"`
}

type LeaveResponse struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee_id"`
	Seq            int64  `json:"seq"`
	LeaveType      string `json:"leave_type"`
	Reason         string `json:"reason,omitempty"`
	DateFrom       string `json:"date_from"`
	DateTo         string `json:"date_to"`
	DaysOff        string `json:"days_off,omitempty"`
	ResumeOfficeOn string `json:"resume_office_on,omitempty"`
	TimePeriod     string `json:"time_period,omitempty"`
	TimeOff        string `json:"time_off,omitempty"`
	OffDutyHours   string `json:"off_duty_hours,omitempty"`
	Description    string `json:"description,omitempty"`
	Status         string `json:"status"`
	Stage          string `json:"stage"`
	ApprovedBy     string `json:"approved_by,omitempty"`
	DeclineReason  string `json:"decline_reason,omitempty"`
}

type BalanceResponse struct {
	EmployeeID     string `json:"employee_id"`
	TotalCasual    string `json:"total_casual"`
	TotalSick      string `json:"total_sick"`
	TotalCompOff   string `json:"total_comp_off"`
	OffDutyHours   string `json:"off_duty_hours"`
	LastLeaveTaken string `json:"last_leave_taken,omitempty"`
}

type TicketResponse struct {
	ID            string `json:"id"`
	LeaveID       string `json:"leave_id"`
	Stage         string `json:"stage"`
	SubmitterID   string `json:"submitter_id"`
	ApproverID    string `json:"approver_id"`
	ChannelID     string `json:"channel_id,omitempty"`
	MessageID     string `json:"message_id,omitempty"`
	ForwardReason string `json:"forward_reason,omitempty"`
	Resolved      bool   `json:"resolved"`
}

package dar

// Actor mirrors the identity resolved by the gateway middleware.
type Actor struct {
	EmployeeID  string
	MemberID    string
	DisplayName string
	Roles       []string
}

type SubmissionResponse struct {
	EmployeeID string `json:"employee_id"`
	ReportDate string `json:"report_date"`
}

type SweepResponse struct {
	ReportDate string   `json:"report_date"`
	Submitted  []string `json:"submitted"`
}

package dar

import "time"

// dateKeyLayout keys submissions by calendar day, matching the wire format
// used elsewhere for dates.
const dateKeyLayout = "02-01-2006"

// Submission marks that an employee posted their daily activity report for a
// given day. The sweep clears the whole day's markers at once.
type Submission struct {
	EmployeeID string    `gorm:"column:employee_id;type:varchar(36);primaryKey"`
	ReportDate string    `gorm:"column:report_date;type:varchar(10);primaryKey"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Submission) TableName() string {
	return "dar_submissions"
}

// DateKey renders the calendar day a submission belongs to.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

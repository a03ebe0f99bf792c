package leave

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for all leave dates: DD-MM-YYYY.
const DateLayout = "02-01-2006"

// timeOffPattern matches an off-duty window, e.g. "09-30 AM TO 01-15 PM".
var timeOffPattern = regexp.MustCompile(`^\d{2}-\d{2} (AM|PM) TO \d{2}-\d{2} (AM|PM)$`)

const clockLayout = "03-04 PM"

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected DD-MM-YYYY: %w", s, err)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// CountDaysOff counts calendar days in [from, to] inclusive, skipping the
// weekly off day. Both bounds falling on the weekly off yields zero.
func CountDaysOff(from, to time.Time, weeklyOff time.Weekday) decimal.Decimal {
	days := int64(0)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != weeklyOff {
			days++
		}
	}
	return decimal.NewFromInt(days)
}

// ResumeDate is the first working day after the leave ends.
func ResumeDate(to time.Time, weeklyOff time.Weekday) time.Time {
	resume := to.AddDate(0, 0, 1)
	if resume.Weekday() == weeklyOff {
		resume = resume.AddDate(0, 0, 1)
	}
	return resume
}

// ParseTimeOff validates an off-duty window and returns its length in hours.
// Windows never span midnight; an end at or before the start is rejected.
func ParseTimeOff(s string) (decimal.Decimal, error) {
	if !timeOffPattern.MatchString(s) {
		return decimal.Zero, fmt.Errorf("invalid time window %q, expected HH-MM AM TO HH-MM PM", s)
	}

	// The pattern guarantees the shape "HH-MM XM TO HH-MM XM".
	startRaw := s[:8]
	endRaw := s[12:]

	start, err := time.Parse(clockLayout, startRaw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid start time %q: %w", startRaw, err)
	}
	end, err := time.Parse(clockLayout, endRaw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid end time %q: %w", endRaw, err)
	}

	if !end.After(start) {
		return decimal.Zero, fmt.Errorf("time window %q ends before it starts", s)
	}

	hours := decimal.NewFromFloat(end.Sub(start).Hours()).Round(2)
	return hours, nil
}

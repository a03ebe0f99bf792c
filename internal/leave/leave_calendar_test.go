package leave_test

import (
	"testing"
	"time"

	"concord-desk/internal/leave"

	"github.com/stretchr/testify/assert"
)

func TestCountDaysOff(t *testing.T) {
	mustDate := func(s string) time.Time {
		t.Helper()
		d, err := leave.ParseDate(s)
		assert.NoError(t, err)
		return d
	}

	t.Run("inclusive range without a Sunday", func(t *testing.T) {
		// 01-01-2026 is a Thursday, 03-01-2026 a Saturday.
		days := leave.CountDaysOff(mustDate("01-01-2026"), mustDate("03-01-2026"), time.Sunday)
		assert.Equal(t, "3", days.String())
	})

	t.Run("sundays inside the range are skipped", func(t *testing.T) {
		// 02-01-2026 Friday through 06-01-2026 Tuesday spans Sunday the 4th.
		days := leave.CountDaysOff(mustDate("02-01-2026"), mustDate("06-01-2026"), time.Sunday)
		assert.Equal(t, "4", days.String())
	})

	t.Run("single day", func(t *testing.T) {
		days := leave.CountDaysOff(mustDate("05-01-2026"), mustDate("05-01-2026"), time.Sunday)
		assert.Equal(t, "1", days.String())
	})

	t.Run("range entirely on the weekly off", func(t *testing.T) {
		days := leave.CountDaysOff(mustDate("04-01-2026"), mustDate("04-01-2026"), time.Sunday)
		assert.True(t, days.IsZero())
	})
}

func TestResumeDate(t *testing.T) {
	mustDate := func(s string) time.Time {
		t.Helper()
		d, err := leave.ParseDate(s)
		assert.NoError(t, err)
		return d
	}

	t.Run("next calendar day", func(t *testing.T) {
		resume := leave.ResumeDate(mustDate("01-01-2026"), time.Sunday)
		assert.Equal(t, "02-01-2026", leave.FormatDate(resume))
	})

	t.Run("skips the weekly off", func(t *testing.T) {
		// Leave ends Saturday 03-01-2026; Sunday is skipped.
		resume := leave.ResumeDate(mustDate("03-01-2026"), time.Sunday)
		assert.Equal(t, "05-01-2026", leave.FormatDate(resume))
	})
}

func TestParseDate(t *testing.T) {
	t.Run("rejects ISO dates", func(t *testing.T) {
		_, err := leave.ParseDate("2026-01-03")
		assert.Error(t, err)
	})

	t.Run("round trips", func(t *testing.T) {
		d, err := leave.ParseDate("28-02-2026")
		assert.NoError(t, err)
		assert.Equal(t, "28-02-2026", leave.FormatDate(d))
	})
}

func TestParseTimeOff(t *testing.T) {
	t.Run("morning window", func(t *testing.T) {
		hours, err := leave.ParseTimeOff("09-30 AM TO 11-30 AM")
		assert.NoError(t, err)
		assert.Equal(t, "2", hours.String())
	})

	t.Run("window across noon", func(t *testing.T) {
		hours, err := leave.ParseTimeOff("10-00 AM TO 01-15 PM")
		assert.NoError(t, err)
		assert.Equal(t, "3.25", hours.String())
	})

	t.Run("rejects a malformed window", func(t *testing.T) {
		_, err := leave.ParseTimeOff("9:30 AM TO 11:30 AM")
		assert.Error(t, err)
	})

	t.Run("rejects an inverted window", func(t *testing.T) {
		_, err := leave.ParseTimeOff("02-00 PM TO 10-00 AM")
		assert.Error(t, err)
	})
}

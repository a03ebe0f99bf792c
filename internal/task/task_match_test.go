package task_test

import (
	"testing"

	"concord-desk/internal/task"

	"github.com/stretchr/testify/assert"
)

func TestMatchName(t *testing.T) {
	candidates := []task.Candidate{
		{EmployeeID: "1", DisplayName: "Ravi Kumar"},
		{EmployeeID: "2", DisplayName: "Ravina Shah"},
		{EmployeeID: "3", DisplayName: "Joseph Mathew"},
	}

	t.Run("exact match ignores case", func(t *testing.T) {
		m, ok := task.MatchName("ravi kumar", candidates)
		assert.True(t, ok)
		assert.Equal(t, "1", m.EmployeeID)
	})

	t.Run("close misspelling resolves", func(t *testing.T) {
		m, ok := task.MatchName("josef mathew", candidates)
		assert.True(t, ok)
		assert.Equal(t, "3", m.EmployeeID)
	})

	t.Run("substring fragment resolves", func(t *testing.T) {
		m, ok := task.MatchName("mathew", candidates)
		assert.True(t, ok)
		assert.Equal(t, "3", m.EmployeeID)
	})

	t.Run("garbage stays unmatched", func(t *testing.T) {
		_, ok := task.MatchName("zzzzzzzz", candidates)
		assert.False(t, ok)
	})

	t.Run("empty query stays unmatched", func(t *testing.T) {
		_, ok := task.MatchName("   ", candidates)
		assert.False(t, ok)
	})
}

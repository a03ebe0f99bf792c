package task

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// matchCutoff is the minimum similarity for a name to count as a match.
const matchCutoff = 0.6

// Candidate is one entry in the name index the matcher searches.
type Candidate struct {
	EmployeeID  string
	DisplayName string
}

// MatchName finds the candidate whose display name is closest to the query,
// case-insensitively. Exact substring hits win over edit-distance scoring so
// a short unique fragment like "ravi" resolves immediately.
func MatchName(query string, candidates []Candidate) (*Candidate, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, false
	}

	var best *Candidate
	bestScore := 0.0
	for i := range candidates {
		name := strings.ToLower(candidates[i].DisplayName)
		if name == q {
			return &candidates[i], true
		}
		score := similarity(q, name)
		if strings.Contains(name, q) && score < matchCutoff {
			score = matchCutoff
		}
		if score > bestScore {
			bestScore = score
			best = &candidates[i]
		}
	}

	if best == nil || bestScore < matchCutoff {
		return nil, false
	}
	return best, true
}

func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

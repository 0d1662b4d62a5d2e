package service

import "docflow/internal/domain"

// SelectReviewer picks the reviewer with the fewest open reviews among the
// given candidates, which must already be filtered to active, role-eligible
// users and ordered by account creation time (the deterministic tiebreak).
// Returns nil when no candidate exists.
func SelectReviewer(candidates []domain.User, openCounts map[string]int64) *domain.User {
	var best *domain.User
	var bestCount int64
	for i := range candidates {
		u := &candidates[i]
		count := openCounts[u.ID]
		if best == nil || count < bestCount {
			best = u
			bestCount = count
		}
	}
	return best
}

// Package stats folds review records into per-user statistics.
package stats

import (
	"sort"
	"strings"

	"github.com/platebook/platebook-backend/internal/firebase/structs"
)

// UserStats derived statistics of one user.
type UserStats struct {
	ReviewCount      int
	PhotoReviewCount int
	StatesVisited    map[string]struct{}
	ReviewsByState   map[string]int
	FirstReviews     int
}

func newUserStats() *UserStats {
	return &UserStats{
		StatesVisited:  map[string]struct{}{},
		ReviewsByState: map[string]int{},
	}
}

// HasVisited reports whether the user reviewed a restaurant in the state.
func (s UserStats) HasVisited(state string) bool {
	_, ok := s.StatesVisited[strings.ToUpper(state)]
	return ok
}

// States sorted list of visited states.
func (s UserStats) States() []string {
	states := make([]string, 0, len(s.StatesVisited))
	for st := range s.StatesVisited {
		states = append(states, st)
	}
	sort.Strings(states)
	return states
}

// Fields converts the stats to their stored shape.
func (s UserStats) Fields() structs.StatsFields {
	byState := make(map[string]int, len(s.ReviewsByState))
	for k, v := range s.ReviewsByState {
		byState[k] = v
	}

	return structs.StatsFields{
		ReviewCount:      s.ReviewCount,
		PhotoReviewCount: s.PhotoReviewCount,
		StatesVisited:    s.States(),
		ReviewsByState:   byState,
		FirstReviews:     s.FirstReviews,
	}
}

// FromFields rebuilds stats from their stored shape.
func FromFields(f structs.StatsFields) UserStats {
	s := newUserStats()
	s.ReviewCount = f.ReviewCount
	s.PhotoReviewCount = f.PhotoReviewCount
	s.FirstReviews = f.FirstReviews
	for _, st := range f.StatesVisited {
		if st = normalizeState(st); st != "" {
			s.StatesVisited[st] = struct{}{}
		}
	}
	for k, v := range f.ReviewsByState {
		if k = normalizeState(k); k != "" {
			s.ReviewsByState[k] += v
		}
	}
	return *s
}

// Aggregate computes stats of every user having at least one review. Reviews without a user are skipped.
func Aggregate(reviews []structs.Review) map[string]UserStats {
	acc := map[string]*UserStats{}

	for _, r := range reviews {
		if r.UserID == "" {
			continue
		}

		s, ok := acc[r.UserID]
		if !ok {
			s = newUserStats()
			acc[r.UserID] = s
		}

		s.ReviewCount++

		if strings.TrimSpace(r.PhotoURL) != "" {
			s.PhotoReviewCount++
		}

		if state := normalizeState(r.RestaurantState); state != "" {
			s.StatesVisited[state] = struct{}{}
			s.ReviewsByState[state]++
		}
	}

	for userID, n := range ResolveFirstReviewers(reviews) {
		if s, ok := acc[userID]; ok {
			s.FirstReviews = n
		}
	}

	out := make(map[string]UserStats, len(acc))
	for userID, s := range acc {
		out[userID] = *s
	}

	return out
}

func normalizeState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

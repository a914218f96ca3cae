package badges

import (
	"strings"

	"github.com/platebook/platebook-backend/internal/stats"
)

// USStates two-letter codes of the 50 US states.
var USStates = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
}

// MinReviews reviewCount >= n.
func MinReviews(n int) Predicate {
	return func(s stats.UserStats) bool {
		return s.ReviewCount >= n
	}
}

// MinPhotoReviews photoReviewCount >= n.
func MinPhotoReviews(n int) Predicate {
	return func(s stats.UserStats) bool {
		return s.PhotoReviewCount >= n
	}
}

// MinFirstReviews firstReviews >= n.
func MinFirstReviews(n int) Predicate {
	return func(s stats.UserStats) bool {
		return s.FirstReviews >= n
	}
}

// MinReviewsInState reviewsByState[state] >= n.
func MinReviewsInState(state string, n int) Predicate {
	state = strings.ToUpper(state)
	return func(s stats.UserStats) bool {
		return s.ReviewsByState[state] >= n
	}
}

// VisitedAll every listed state has at least one review.
func VisitedAll(states []string) Predicate {
	return VisitedAtLeast(states, len(states))
}

// VisitedAtLeast at least min of the listed states have at least one review.
func VisitedAtLeast(states []string, min int) Predicate {
	list := make([]string, len(states))
	for i, st := range states {
		list[i] = strings.ToUpper(st)
	}

	return func(s stats.UserStats) bool {
		covered := 0
		for _, st := range list {
			if s.HasVisited(st) || s.ReviewsByState[st] > 0 {
				covered++
			}
		}
		return covered >= min
	}
}

package stats

import (
	"time"

	"github.com/platebook/platebook-backend/internal/firebase/structs"
)

var epoch = time.Unix(0, 0)

// ResolveFirstReviewers counts, per user, the restaurants where the user wrote the earliest review.
//
// Reviews are ordered by createdAt, missing timestamps counting as the Unix epoch. Equal timestamps are broken
// by review ID and then by user ID, so the winner does not depend on input order. Reviews without a restaurant
// or a user take no part.
func ResolveFirstReviewers(reviews []structs.Review) map[string]int {
	first := map[string]structs.Review{}

	for _, r := range reviews {
		if r.RestaurantID == "" || r.UserID == "" {
			continue
		}

		current, ok := first[r.RestaurantID]
		if !ok || earlier(r, current) {
			first[r.RestaurantID] = r
		}
	}

	counts := map[string]int{}
	for _, r := range first {
		counts[r.UserID]++
	}

	return counts
}

func earlier(a, b structs.Review) bool {
	ta, tb := timestampOf(a), timestampOf(b)
	if !ta.Equal(tb) {
		return ta.Before(tb)
	}
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	return a.UserID < b.UserID
}

func timestampOf(r structs.Review) time.Time {
	if r.CreatedAt.IsZero() {
		return epoch
	}
	return r.CreatedAt
}

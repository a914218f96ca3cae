package structs

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/platebook/platebook-backend/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestReviewFromDocument(t *testing.T) {
	created := time.Date(2021, 3, 4, 12, 0, 0, 0, time.UTC)

	tables := []struct {
		name string
		doc  store.Document
		want Review
	}{
		{
			name: "complete",
			doc: store.Document{ID: "rv1", Ref: "reviews/rv1", Data: map[string]interface{}{
				"restaurantId":    "r1",
				"userId":          "u1",
				"rating":          int64(4),
				"text":            "great tacos",
				"photoURL":        "https://img/1.jpg",
				"restaurantState": "il",
				"createdAt":       created,
			}},
			want: Review{ID: "rv1", RestaurantID: "r1", UserID: "u1", Rating: 4, Text: "great tacos",
				PhotoURL: "https://img/1.jpg", RestaurantState: "il", CreatedAt: created},
		},
		{
			name: "string timestamp",
			doc: store.Document{ID: "rv2", Data: map[string]interface{}{
				"restaurantId": "r1",
				"createdAt":    "2021-03-04T12:00:00Z",
			}},
			want: Review{ID: "rv2", RestaurantID: "r1", CreatedAt: created},
		},
		{
			name: "millisecond timestamp",
			doc: store.Document{ID: "rv3", Data: map[string]interface{}{
				"createdAt": float64(created.UnixNano() / int64(time.Millisecond)),
			}},
			want: Review{ID: "rv3", CreatedAt: created.Local()},
		},
		{
			name: "padded user id",
			doc: store.Document{ID: "rv5", Data: map[string]interface{}{
				"restaurantId": "r1",
				"userId":       " alice ",
			}},
			want: Review{ID: "rv5", RestaurantID: "r1", UserID: "alice"},
		},
		{
			name: "blank user id is anonymous",
			doc: store.Document{ID: "rv6", Data: map[string]interface{}{
				"restaurantId": "r1",
				"userId":       "   ",
			}},
			want: Review{ID: "rv6", RestaurantID: "r1"},
		},
		{
			name: "garbage",
			doc: store.Document{ID: "rv4", Data: map[string]interface{}{
				"userId":    42,
				"rating":    "five",
				"createdAt": "yesterday",
			}},
			want: Review{ID: "rv4"},
		},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			got := ReviewFromDocument(table.doc)
			if diff := cmp.Diff(table.want, got); diff != "" {
				t.Fatalf("ReviewFromDocument mismatch (-want +got):\n%v", diff)
			}
		})
	}
}

func TestUserFromDocument(t *testing.T) {
	tables := []struct {
		doc  store.Document
		want User
	}{
		{store.Document{ID: "doc1", Ref: "users/doc1", Data: map[string]interface{}{"uid": "u1"}}, User{UID: "u1", Ref: "users/doc1"}},
		{store.Document{ID: "doc2", Ref: "users/doc2", Data: map[string]interface{}{"uid": "  "}}, User{UID: "doc2", Ref: "users/doc2"}},
		{store.Document{ID: "doc3", Ref: "users/doc3", Data: map[string]interface{}{}}, User{UID: "doc3", Ref: "users/doc3"}},
		{store.Document{ID: "", Ref: "users/", Data: map[string]interface{}{"uid": 7}}, User{UID: "", Ref: "users/"}},
	}

	for _, table := range tables {
		if diff := cmp.Diff(table.want, UserFromDocument(table.doc)); diff != "" {
			t.Fatalf("UserFromDocument mismatch (-want +got):\n%v", diff)
		}
	}
}

func TestStatsRoundTripThroughDocument(t *testing.T) {
	fields := StatsFields{
		ReviewCount:      12,
		PhotoReviewCount: 3,
		StatesVisited:    []string{"IL", "OH"},
		ReviewsByState:   map[string]int{"IL": 10, "OH": 2},
		FirstReviews:     1,
	}

	got := StatsFromDocument(store.Document{ID: "u1", Data: fields.ToUpdate()})

	assert.Equal(t, fields, got)
}

func TestToUpdateNeverWritesNilStates(t *testing.T) {
	update := StatsFields{}.ToUpdate()

	assert.Equal(t, []string{}, update["statesVisited"])
	assert.Equal(t, map[string]interface{}{}, update["reviewsByState"])
}

package stats

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/platebook/platebook-backend/internal/firebase/structs"
	"github.com/stretchr/testify/assert"
)

func at(sec int64) time.Time {
	return time.Unix(sec, 0)
}

func TestAggregate(t *testing.T) {
	reviews := []structs.Review{
		{ID: "a", RestaurantID: "r1", UserID: "u1", PhotoURL: "https://img/a.jpg", RestaurantState: "il", CreatedAt: at(100)},
		{ID: "b", RestaurantID: "r2", UserID: "u1", PhotoURL: "   ", RestaurantState: "IL", CreatedAt: at(300)},
		{ID: "c", RestaurantID: "r3", UserID: "u1", CreatedAt: at(50)},
		{ID: "d", RestaurantID: "r2", UserID: "u2", RestaurantState: " oh ", CreatedAt: at(200)},
		{ID: "e", RestaurantID: "r1", RestaurantState: "CA", PhotoURL: "https://img/e.jpg", CreatedAt: at(1)},
	}

	want := map[string]UserStats{
		"u1": {
			ReviewCount:      3,
			PhotoReviewCount: 1,
			StatesVisited:    map[string]struct{}{"IL": {}},
			ReviewsByState:   map[string]int{"IL": 2},
			FirstReviews:     2,
		},
		"u2": {
			ReviewCount:      1,
			PhotoReviewCount: 0,
			StatesVisited:    map[string]struct{}{"OH": {}},
			ReviewsByState:   map[string]int{"OH": 1},
			FirstReviews:     1,
		},
	}

	got := Aggregate(reviews)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Aggregate mismatch (-want +got):\n%v", diff)
	}
}

func TestAggregateEmpty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
	assert.Empty(t, Aggregate([]structs.Review{{ID: "x", RestaurantID: "r1"}}))
}

func TestResolveFirstReviewers(t *testing.T) {
	tables := []struct {
		name    string
		reviews []structs.Review
		want    map[string]int
	}{
		{
			name: "earliest wins",
			reviews: []structs.Review{
				{ID: "1", UserID: "u1", RestaurantID: "r1", CreatedAt: at(100)},
				{ID: "2", UserID: "u2", RestaurantID: "r1", CreatedAt: at(200)},
			},
			want: map[string]int{"u1": 1},
		},
		{
			name: "missing timestamp sorts as epoch",
			reviews: []structs.Review{
				{ID: "1", UserID: "u1", RestaurantID: "r1", CreatedAt: at(100)},
				{ID: "2", UserID: "u2", RestaurantID: "r1"},
			},
			want: map[string]int{"u2": 1},
		},
		{
			name: "tie broken by review id",
			reviews: []structs.Review{
				{ID: "zz", UserID: "u1", RestaurantID: "r1", CreatedAt: at(100)},
				{ID: "aa", UserID: "u2", RestaurantID: "r1", CreatedAt: at(100)},
			},
			want: map[string]int{"u2": 1},
		},
		{
			name: "one first per restaurant for repeat reviewer",
			reviews: []structs.Review{
				{ID: "1", UserID: "u1", RestaurantID: "r1", CreatedAt: at(100)},
				{ID: "2", UserID: "u1", RestaurantID: "r1", CreatedAt: at(200)},
				{ID: "3", UserID: "u1", RestaurantID: "r2", CreatedAt: at(300)},
			},
			want: map[string]int{"u1": 2},
		},
		{
			name: "anonymous reviews do not take the first",
			reviews: []structs.Review{
				{ID: "1", RestaurantID: "r1", CreatedAt: at(1)},
				{ID: "2", UserID: "u2", RestaurantID: "r1", CreatedAt: at(200)},
			},
			want: map[string]int{"u2": 1},
		},
		{
			name:    "nothing",
			reviews: nil,
			want:    map[string]int{},
		},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			got := ResolveFirstReviewers(table.reviews)
			if diff := cmp.Diff(table.want, got); diff != "" {
				t.Fatalf("ResolveFirstReviewers mismatch (-want +got):\n%v", diff)
			}
		})
	}
}

func TestFieldsRoundTrip(t *testing.T) {
	s := UserStats{
		ReviewCount:      4,
		PhotoReviewCount: 2,
		StatesVisited:    map[string]struct{}{"OH": {}, "IL": {}},
		ReviewsByState:   map[string]int{"IL": 3, "OH": 1},
		FirstReviews:     1,
	}

	fields := s.Fields()
	assert.Equal(t, []string{"IL", "OH"}, fields.StatesVisited)

	if diff := cmp.Diff(s, FromFields(fields)); diff != "" {
		t.Fatalf("FromFields mismatch (-want +got):\n%v", diff)
	}
}

func reviewsGen() gopter.Gen {
	createdAt := gen.Int64Range(0, 5).Map(func(v int64) time.Time {
		if v == 0 {
			return time.Time{}
		}
		return at(v)
	})

	review := gen.Struct(reflect.TypeOf(structs.Review{}), map[string]gopter.Gen{
		"ID":              gen.OneConstOf("rv1", "rv2", "rv3", "rv4", "rv5", "rv6"),
		"RestaurantID":    gen.OneConstOf("", "r1", "r2", "r3"),
		"UserID":          gen.OneConstOf("", "u1", "u2", "u3"),
		"PhotoURL":        gen.OneConstOf("", " ", "https://img/1.jpg"),
		"RestaurantState": gen.OneConstOf("", "il", "IL", "oh", "CA", " ny"),
		"CreatedAt":       createdAt,
	})

	return gen.SliceOf(review)
}

func TestAggregateProps(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("reviewsByState sums to reviews with a state", prop.ForAll(
		func(reviews []structs.Review) bool {
			withState := map[string]int{}
			for _, r := range reviews {
				if r.UserID != "" && normalizeState(r.RestaurantState) != "" {
					withState[r.UserID]++
				}
			}

			for userID, s := range Aggregate(reviews) {
				sum := 0
				for _, n := range s.ReviewsByState {
					sum += n
				}
				if sum != withState[userID] || len(s.StatesVisited) != len(s.ReviewsByState) {
					return false
				}
			}
			return true
		},
		reviewsGen(),
	))

	properties.Property("photo and first reviews never exceed review count", prop.ForAll(
		func(reviews []structs.Review) bool {
			for _, s := range Aggregate(reviews) {
				if s.PhotoReviewCount > s.ReviewCount || s.FirstReviews > s.ReviewCount {
					return false
				}
			}
			return true
		},
		reviewsGen(),
	))

	properties.Property("input order does not matter", prop.ForAll(
		func(reviews []structs.Review, seed int64) bool {
			shuffled := append([]structs.Review(nil), reviews...)
			rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})

			return cmp.Equal(ResolveFirstReviewers(reviews), ResolveFirstReviewers(shuffled)) &&
				cmp.Equal(Aggregate(reviews), Aggregate(shuffled))
		},
		reviewsGen(),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

package structs

import (
	"strings"
	"time"

	"github.com/platebook/platebook-backend/internal/constants"
	"github.com/platebook/platebook-backend/internal/store"
)

//Review DB entity for a restaurant review. Zero CreatedAt means the timestamp is absent or unparseable.
type Review struct {
	ID              string    `json:"id"`
	RestaurantID    string    `json:"restaurantId"`
	UserID          string    `json:"userId"`
	Rating          float64   `json:"rating"`
	Text            string    `json:"text"`
	PhotoURL        string    `json:"photoURL"`
	RestaurantState string    `json:"restaurantState"`
	CreatedAt       time.Time `json:"createdAt"`
}

//User DB entity for a user. UID is the resolved identity, empty when the record has none.
type User struct {
	UID string `json:"uid"`
	Ref string `json:"-"`
}

//StatsFields Derived stats as written to user documents.
type StatsFields struct {
	ReviewCount      int            `json:"reviewCount"`
	PhotoReviewCount int            `json:"photoReviewCount"`
	StatesVisited    []string       `json:"statesVisited"`
	ReviewsByState   map[string]int `json:"reviewsByState"`
	FirstReviews     int            `json:"firstReviews"`
}

//ToUpdate Field map for a merge update.
func (s StatsFields) ToUpdate() map[string]interface{} {
	byState := make(map[string]interface{}, len(s.ReviewsByState))
	for k, v := range s.ReviewsByState {
		byState[k] = v
	}

	states := s.StatesVisited
	if states == nil {
		states = []string{}
	}

	return map[string]interface{}{
		constants.FieldReviewCount:      s.ReviewCount,
		constants.FieldPhotoReviewCount: s.PhotoReviewCount,
		constants.FieldStatesVisited:    states,
		constants.FieldReviewsByState:   byState,
		constants.FieldFirstReviews:     s.FirstReviews,
	}
}

//ReviewFromDocument Decodes a review document. Missing or mistyped fields are left empty, userId is trimmed like uid.
func ReviewFromDocument(doc store.Document) Review {
	return Review{
		ID:              doc.ID,
		RestaurantID:    stringField(doc.Data, "restaurantId"),
		UserID:          strings.TrimSpace(stringField(doc.Data, "userId")),
		Rating:          numberField(doc.Data, "rating"),
		Text:            stringField(doc.Data, "text"),
		PhotoURL:        stringField(doc.Data, "photoURL"),
		RestaurantState: stringField(doc.Data, "restaurantState"),
		CreatedAt:       timeField(doc.Data, "createdAt"),
	}
}

//UserFromDocument Decodes a user document. The explicit uid field wins over the document ID.
func UserFromDocument(doc store.Document) User {
	uid := strings.TrimSpace(stringField(doc.Data, constants.FieldUID))
	if uid == "" {
		uid = strings.TrimSpace(doc.ID)
	}
	return User{UID: uid, Ref: doc.Ref}
}

//StatsFromDocument Decodes previously written stats of a user document.
func StatsFromDocument(doc store.Document) StatsFields {
	stats := StatsFields{
		ReviewCount:      int(numberField(doc.Data, constants.FieldReviewCount)),
		PhotoReviewCount: int(numberField(doc.Data, constants.FieldPhotoReviewCount)),
		FirstReviews:     int(numberField(doc.Data, constants.FieldFirstReviews)),
		ReviewsByState:   map[string]int{},
	}

	if raw, ok := doc.Data[constants.FieldStatesVisited].([]interface{}); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				stats.StatesVisited = append(stats.StatesVisited, s)
			}
		}
	}
	if raw, ok := doc.Data[constants.FieldStatesVisited].([]string); ok {
		stats.StatesVisited = append(stats.StatesVisited, raw...)
	}

	switch raw := doc.Data[constants.FieldReviewsByState].(type) {
	case map[string]interface{}:
		for k := range raw {
			stats.ReviewsByState[k] = int(numberField(raw, k))
		}
	case map[string]int:
		for k, v := range raw {
			stats.ReviewsByState[k] = v
		}
	}

	return stats
}

func stringField(data map[string]interface{}, key string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}

func numberField(data map[string]interface{}, key string) float64 {
	switch v := data[key].(type) {
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	case float64:
		return v
	}
	return 0
}

// Timestamps come as Firestore timestamps, RFC3339 strings or Unix milliseconds.
func timeField(data map[string]interface{}, key string) time.Time {
	switch v := data[key].(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	case int, int32, int64, float32, float64:
		ms := int64(numberField(data, key))
		return time.Unix(0, ms*int64(time.Millisecond))
	}
	return time.Time{}
}

package functions

import (
	"context"
	"net/http"

	"github.com/platebook/platebook-backend/internal/functions/recomputestats"
	"github.com/platebook/platebook-backend/internal/functions/userbadges"
	"github.com/platebook/platebook-backend/internal/pubsub"
)

// RecomputeUserStats RecomputeUserStats handler.
func RecomputeUserStats(w http.ResponseWriter, r *http.Request) {
	recomputestats.RecomputeUserStats(w, r)
}

// RecomputeUserStatsTrigger RecomputeUserStats Pub/Sub handler.
func RecomputeUserStatsTrigger(ctx context.Context, m pubsub.Message) error {
	return recomputestats.RecomputeUserStatsTrigger(ctx, m)
}

// GetUserBadges GetUserBadges handler.
func GetUserBadges(w http.ResponseWriter, r *http.Request) {
	userbadges.GetUserBadges(w, r)
}

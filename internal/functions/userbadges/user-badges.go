package userbadges

import (
	"context"
	ers "errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/platebook/platebook-backend/internal/badges"
	"github.com/platebook/platebook-backend/internal/config"
	"github.com/platebook/platebook-backend/internal/constants"
	"github.com/platebook/platebook-backend/internal/firebase"
	"github.com/platebook/platebook-backend/internal/firebase/structs"
	"github.com/platebook/platebook-backend/internal/logging"
	"github.com/platebook/platebook-backend/internal/stats"
	"github.com/platebook/platebook-backend/internal/store"
	"github.com/platebook/platebook-backend/internal/utils/errors"
	httputils "github.com/platebook/platebook-backend/internal/utils/http"
)

type request struct {
	UID      string `json:"uid" validate:"required"`
	Category string `json:"category" validate:"omitempty,oneof=milestone engagement geographic regional discovery"`
}

type response struct {
	UID    string         `json:"uid"`
	Badges []badges.Badge `json:"badges"`
}

//Reader Reads stored stats of users.
type Reader struct {
	Store           store.Storer
	UsersCollection string
}

var (
	readerMu sync.Mutex
	reader   *Reader
	engine   = badges.DefaultEngine()
)

func defaultReader(ctx context.Context) (*Reader, error) {
	readerMu.Lock()
	defer readerMu.Unlock()

	if reader != nil {
		return reader, nil
	}

	conf, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	clients, err := firebase.Connect(ctx, conf.Firebase)
	if err != nil {
		return nil, err
	}

	reader = &Reader{Store: clients.Store, UsersCollection: conf.Backfill.UsersCollection}
	return reader, nil
}

//GetUserBadges Handler
func GetUserBadges(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	logger := logging.FromContext(ctx)

	var request request

	if !httputils.DecodeJSONOrReportError(w, r, &request) {
		return
	}

	logger.Debugf("Handling GetUserBadges request: %+v", request)

	reader, err := defaultReader(ctx)
	if err != nil {
		logger.Errorf("Cannot connect to store: %v", err)
		httputils.SendErrorResponse(w, r, err)
		return
	}

	uid := strings.TrimSpace(request.UID)

	earned, err := reader.UserBadges(ctx, uid, badges.Category(request.Category))
	if err != nil {
		logger.Debugf("Cannot get badges of user %v: %v", uid, err)
		httputils.SendErrorResponse(w, r, err)
		return
	}

	httputils.SendResponse(w, r, response{UID: uid, Badges: earned})
}

//UserBadges Badges earned by the stats stored by the last recomputation. Empty category means all.
func (rd *Reader) UserBadges(ctx context.Context, uid string, category badges.Category) ([]badges.Badge, error) {
	doc, err := rd.findUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	userStats := stats.FromFields(structs.StatsFromDocument(*doc))

	candidates := engine.All()
	if category != "" {
		candidates = engine.ListByCategory(category)
	}

	wanted := make(map[string]struct{}, len(candidates))
	for _, b := range candidates {
		wanted[b.ID] = struct{}{}
	}

	earned := []badges.Badge{}
	for _, id := range engine.Evaluate(userStats) {
		if _, ok := wanted[id]; !ok {
			continue
		}
		b, _ := engine.LookupByID(id)
		earned = append(earned, b)
	}

	return earned, nil
}

// The document receiving stats of uid: among documents whose uid field or document ID resolves to uid, the smallest
// ref wins, as in backfill.
func (rd *Reader) findUser(ctx context.Context, uid string) (*store.Document, error) {
	candidates, err := rd.Store.Find(ctx, rd.UsersCollection, constants.FieldUID, uid)
	if err != nil {
		return nil, err
	}

	byID, err := rd.Store.Get(ctx, rd.UsersCollection, uid)
	var nf *errors.NotFoundError
	switch {
	case err == nil:
		candidates = append(candidates, *byID)
	case !ers.As(err, &nf):
		return nil, err
	}

	var found *store.Document
	for i := range candidates {
		doc := &candidates[i]
		if structs.UserFromDocument(*doc).UID != uid {
			continue
		}
		if found == nil || doc.Ref < found.Ref {
			found = doc
		}
	}

	if found == nil {
		return nil, &errors.NotFoundError{Msg: fmt.Sprintf("Could not find user %v", uid)}
	}
	return found, nil
}

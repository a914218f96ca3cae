// Package backfill recomputes derived stats of every user from the full review corpus and writes them back in
// bounded atomic batches.
//
// A run walks Init, ReadReviews, ReadUsers, BuildIndex, Aggregate, BatchWrite and Done. Both reads run
// concurrently. Batches are committed one at a time and a failed commit stops the run; batches committed before
// stay applied. Every run overwrites the same fields, so re-running after a failure converges.
package backfill

import (
	"context"
	"fmt"
	"sort"

	"github.com/platebook/platebook-backend/internal/config"
	"github.com/platebook/platebook-backend/internal/firebase/structs"
	"github.com/platebook/platebook-backend/internal/logging"
	"github.com/platebook/platebook-backend/internal/progress"
	"github.com/platebook/platebook-backend/internal/stats"
	"github.com/platebook/platebook-backend/internal/store"
	"github.com/platebook/platebook-backend/internal/utils/errors"
	"golang.org/x/sync/errgroup"
)

// Phase of a run.
type Phase string

// Run phases in order.
const (
	PhaseInit        Phase = "Init"
	PhaseReadReviews Phase = "ReadReviews"
	PhaseReadUsers   Phase = "ReadUsers"
	PhaseBuildIndex  Phase = "BuildIndex"
	PhaseAggregate   Phase = "Aggregate"
	PhaseBatchWrite  Phase = "BatchWrite"
	PhaseDone        Phase = "Done"
)

// Summary outcome of a finished run.
type Summary struct {
	UsersProcessed       int `json:"usersProcessed"`
	UsersSkipped         int `json:"usersSkipped"`
	ReviewsScanned       int `json:"reviewsScanned"`
	UsersScanned         int `json:"usersScanned"`
	ReviewsWithoutUser   int `json:"reviewsWithoutUser"`
	UsersWithoutIdentity int `json:"usersWithoutIdentity"`
	BatchesCommitted     int `json:"batchesCommitted"`
}

// Orchestrator drives recomputation runs against a store.
type Orchestrator struct {
	store  store.Storer
	config config.BackfillConfig
}

// New creates an orchestrator. Invalid config is a ConfigError.
func New(s store.Storer, conf config.BackfillConfig) (*Orchestrator, error) {
	if s == nil {
		return nil, &errors.ConfigError{Msg: "Backfill needs a store"}
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{store: s, config: conf}, nil
}

// userIndex maps user identity to the document to update.
type userIndex struct {
	refs            map[string]string
	withoutIdentity int
}

// Run recomputes and stores stats of every reviewing user. Progress messages go to sink, which may be nil.
func (o *Orchestrator) Run(ctx context.Context, sink progress.Sink) (*Summary, error) {
	logger := logging.FromContext(ctx).Named("backfill.Run")

	if sink == nil {
		sink = progress.Discard
	}
	sink = progress.Serialized(sink)

	summary := &Summary{}

	logger.Debugf("Phase %v: batch size %v, I/O timeout %v", PhaseInit, o.config.BatchSize, o.config.IOTimeout)

	reviewDocs, userDocs, err := o.read(ctx, sink)
	if err != nil {
		return nil, err
	}

	summary.ReviewsScanned = len(reviewDocs)
	summary.UsersScanned = len(userDocs)

	logger.Debugf("Phase %v", PhaseBuildIndex)
	index := buildIndex(userDocs)
	summary.UsersWithoutIdentity = index.withoutIdentity
	if index.withoutIdentity > 0 {
		logger.Warnf("%v user documents have no identity and cannot be updated", index.withoutIdentity)
	}

	logger.Debugf("Phase %v", PhaseAggregate)
	reviews := make([]structs.Review, 0, len(reviewDocs))
	for _, doc := range reviewDocs {
		r := structs.ReviewFromDocument(doc)
		if r.UserID == "" {
			summary.ReviewsWithoutUser++
		}
		reviews = append(reviews, r)
	}
	perUser := stats.Aggregate(reviews)

	sink.Report(fmt.Sprintf("Aggregated %d reviews into stats of %d users", len(reviews), len(perUser)))

	if err := o.write(ctx, sink, perUser, index, summary); err != nil {
		return nil, err
	}

	logger.Infof("Phase %v: %+v", PhaseDone, *summary)
	sink.Report(fmt.Sprintf("Done: %d users updated, %d users skipped, %d reviews and %d users scanned",
		summary.UsersProcessed, summary.UsersSkipped, summary.ReviewsScanned, summary.UsersScanned))

	return summary, nil
}

func (o *Orchestrator) read(ctx context.Context, sink progress.Sink) ([]store.Document, []store.Document, error) {
	var reviewDocs, userDocs []store.Document

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		docs, err := o.readAll(gctx, sink, PhaseReadReviews, o.config.ReviewsCollection)
		reviewDocs = docs
		return err
	})
	g.Go(func() error {
		docs, err := o.readAll(gctx, sink, PhaseReadUsers, o.config.UsersCollection)
		userDocs = docs
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return reviewDocs, userDocs, nil
}

func (o *Orchestrator) readAll(ctx context.Context, sink progress.Sink, phase Phase, collection string) ([]store.Document, error) {
	sink.Report(fmt.Sprintf("Reading collection %v", collection))

	ctx, cancel := context.WithTimeout(ctx, o.config.IOTimeout)
	defer cancel()

	docs, err := o.store.ReadAll(ctx, collection)
	if err != nil {
		return nil, &errors.PhaseError{Phase: string(phase), Err: err}
	}

	sink.Report(fmt.Sprintf("Read %d documents from %v", len(docs), collection))

	return docs, nil
}

// The lexicographically smallest document ref wins when several documents claim one identity.
func buildIndex(docs []store.Document) userIndex {
	index := userIndex{refs: make(map[string]string, len(docs))}

	for _, doc := range docs {
		user := structs.UserFromDocument(doc)
		if user.UID == "" {
			index.withoutIdentity++
			continue
		}
		if current, ok := index.refs[user.UID]; ok && current <= user.Ref {
			continue
		}
		index.refs[user.UID] = user.Ref
	}

	return index
}

func (o *Orchestrator) write(ctx context.Context, sink progress.Sink, perUser map[string]stats.UserStats, index userIndex, summary *Summary) error {
	logger := logging.FromContext(ctx).Named("backfill.write")

	userIDs := make([]string, 0, len(perUser))
	targetable := 0
	for userID := range perUser {
		userIDs = append(userIDs, userID)
		if _, ok := index.refs[userID]; ok {
			targetable++
		}
	}
	sort.Strings(userIDs)

	total := (targetable + o.config.BatchSize - 1) / o.config.BatchSize
	batch := o.store.NewBatch()

	flush := func() error {
		n := summary.BatchesCommitted + 1

		if err := ctx.Err(); err != nil {
			return &errors.PhaseError{Phase: string(PhaseBatchWrite), Batch: n, Committed: summary.BatchesCommitted, Err: err}
		}

		commitCtx, cancel := context.WithTimeout(ctx, o.config.IOTimeout)
		defer cancel()

		if err := batch.Commit(commitCtx); err != nil {
			logger.Errorf("Batch %d of %d failed: %v", n, total, err)
			return &errors.PhaseError{Phase: string(PhaseBatchWrite), Batch: n, Committed: summary.BatchesCommitted, Err: err}
		}

		summary.BatchesCommitted = n
		summary.UsersProcessed += batch.Len()
		sink.Report(fmt.Sprintf("Batch %d of %d committed (%d users)", n, total, batch.Len()))

		batch = o.store.NewBatch()
		return nil
	}

	for _, userID := range userIDs {
		ref, ok := index.refs[userID]
		if !ok {
			logger.Warnf("User %v has reviews but no user document, skipping", userID)
			summary.UsersSkipped++
			continue
		}

		batch.Update(ref, perUser[userID].Fields().ToUpdate())

		if batch.Len() >= o.config.BatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	if batch.Len() > 0 {
		return flush()
	}

	return nil
}

package recomputestats

import (
	"context"
	ers "errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"firebase.google.com/go/db"
	"github.com/platebook/platebook-backend/internal/backfill"
	"github.com/platebook/platebook-backend/internal/config"
	"github.com/platebook/platebook-backend/internal/constants"
	"github.com/platebook/platebook-backend/internal/firebase"
	"github.com/platebook/platebook-backend/internal/lock"
	"github.com/platebook/platebook-backend/internal/logging"
	"github.com/platebook/platebook-backend/internal/progress"
	"github.com/platebook/platebook-backend/internal/pubsub"
	"github.com/platebook/platebook-backend/internal/realtimedb"
	"github.com/platebook/platebook-backend/internal/store"
	"github.com/platebook/platebook-backend/internal/utils/errors"
	httputils "github.com/platebook/platebook-backend/internal/utils/http"
)

type request struct {
	BatchSize int `json:"batchSize" validate:"omitempty,min=1,max=499"`
}

//Result Outcome of one recomputation, also published on TopicUserStatsRecomputed.
type Result struct {
	RunID string `json:"runId"`
	*backfill.Summary
}

//RunsCounter Count of finished recomputations, kept next to progress in Realtime DB.
type RunsCounter struct {
	RunsCount int    `json:"runsCount"`
	LastRunID string `json:"lastRunId"`
}

//Runner Runs recomputations with its clients.
type Runner struct {
	Store      store.Storer
	RealtimeDB realtimedb.RealtimeDB
	Publisher  pubsub.EventPublisher
	Locker     lock.Locker
	Config     config.BackfillConfig

	now func() time.Time
}

var (
	runnerMu sync.Mutex
	runner   *Runner
)

func defaultRunner(ctx context.Context) (*Runner, error) {
	runnerMu.Lock()
	defer runnerMu.Unlock()

	if runner != nil {
		return runner, nil
	}

	conf, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	clients, err := firebase.Connect(ctx, conf.Firebase)
	if err != nil {
		return nil, err
	}

	publisher, err := pubsub.NewPublisher(ctx, conf.Firebase)
	if err != nil {
		return nil, err
	}

	runner = &Runner{
		Store:      clients.Store,
		RealtimeDB: clients.RealtimeDB,
		Publisher:  publisher,
		Locker:     lock.New(conf.Backfill.Lock),
		Config:     conf.Backfill,
	}

	return runner, nil
}

//RecomputeUserStats Handler
func RecomputeUserStats(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	logger := logging.FromContext(ctx)

	var request request

	if !httputils.DecodeJSONOrReportError(w, r, &request) {
		return
	}

	logger.Debugf("Handling RecomputeUserStats request: %+v", request)

	runner, err := defaultRunner(ctx)
	if err != nil {
		logger.Errorf("Cannot set up recomputation: %v", err)
		httputils.SendErrorResponse(w, r, err)
		return
	}

	result, err := runner.Run(ctx, request.BatchSize)
	if err != nil {
		logger.Warnf("Cannot handle request due to error: %+v", err.Error())
		httputils.SendErrorResponse(w, r, err)
		return
	}

	httputils.SendResponse(w, r, result)
}

//RecomputeUserStatsTrigger Handler of TopicRecomputeUserStats events
func RecomputeUserStatsTrigger(ctx context.Context, m pubsub.Message) error {
	logger := logging.FromContext(ctx)

	var request request
	if err := pubsub.DecodeJSONEvent(m, &request); err != nil {
		return err
	}

	logger.Debugf("Handling %v event: %+v", constants.TopicRecomputeUserStats, request)

	runner, err := defaultRunner(ctx)
	if err != nil {
		return err
	}

	_, err = runner.Run(ctx, request.BatchSize)
	return err
}

//Run Recomputes stats of all users under the run lock. Non-zero batchSize overrides the configured one.
func (r *Runner) Run(ctx context.Context, batchSize int) (*Result, error) {
	logger := logging.FromContext(ctx).Named("recomputestats.Run")

	conf := r.Config
	if batchSize != 0 {
		conf.BatchSize = batchSize
	}

	orchestrator, err := backfill.New(r.Store, conf)
	if err != nil {
		return nil, err
	}

	releaser, err := r.Locker.Lock(ctx, constants.BackfillLockName)
	if err != nil {
		var le *errors.LockedError
		if ers.As(err, &le) {
			return nil, err
		}
		return nil, &errors.PhaseError{Phase: string(backfill.PhaseInit), Err: err}
	}
	defer func() {
		if err := releaser.Release(); err != nil {
			logger.Warnf("Could not release lock %v: %v", constants.BackfillLockName, err)
		}
	}()

	now := time.Now
	if r.now != nil {
		now = r.now
	}
	runID := strconv.FormatInt(now().UnixNano(), 10)

	sink := progress.Tee(
		progress.LoggerSink(logger),
		progress.NewRealtimeDBSink(ctx, r.RealtimeDB, conf.ProgressPath, runID, logger),
	)

	summary, err := orchestrator.Run(ctx, sink)
	if err != nil {
		sink.Report(fmt.Sprintf("Failed: %v", err))
		return nil, err
	}

	if err := r.countRun(ctx, conf.ProgressPath, runID); err != nil {
		logger.Warnf("Could not count run %v: %v", runID, err)
	}

	result := &Result{RunID: runID, Summary: summary}

	if err := r.Publisher.Publish(ctx, constants.TopicUserStatsRecomputed, result); err != nil {
		logger.Warnf("Could not publish summary of run %v: %v", runID, err)
	}

	return result, nil
}

func (r *Runner) countRun(ctx context.Context, progressPath string, runID string) error {
	logger := logging.FromContext(ctx)

	return r.RealtimeDB.RunTransaction(ctx, progressPath+"/runs", func(tn db.TransactionNode) (interface{}, error) {
		var counter RunsCounter

		if err := tn.Unmarshal(&counter); err != nil {
			return nil, err
		}

		counter.RunsCount++
		counter.LastRunID = runID

		logger.Debugf("Saving updated runs counter: %+v", counter)

		return counter, nil
	})
}

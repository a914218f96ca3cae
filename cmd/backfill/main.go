package main

import (
	"context"
	ers "errors"
	"os"

	"github.com/avast/retry-go"
	"github.com/platebook/platebook-backend/internal/backfill"
	"github.com/platebook/platebook-backend/internal/config"
	"github.com/platebook/platebook-backend/internal/constants"
	"github.com/platebook/platebook-backend/internal/firebase"
	"github.com/platebook/platebook-backend/internal/lock"
	"github.com/platebook/platebook-backend/internal/logging"
	"github.com/platebook/platebook-backend/internal/progress"
	"github.com/platebook/platebook-backend/internal/utils/errors"
	"github.com/sethvargo/go-signalcontext"
	rpccode "google.golang.org/genproto/googleapis/rpc/code"
)

func main() {
	ctx, done := signalcontext.OnInterrupt()
	defer done()

	if err := run(ctx); err != nil {
		logging.FromContext(ctx).Errorf("Backfill failed: %v", err)
		done()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	conf, err := config.Load(ctx)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(conf.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	ctx = logging.WithLogger(ctx, logger.Named("backfill"))

	clients, err := firebase.Connect(ctx, conf.Firebase)
	if err != nil {
		return err
	}
	defer clients.Close()

	orchestrator, err := backfill.New(clients.Store, conf.Backfill)
	if err != nil {
		return err
	}

	releaser, err := lock.New(conf.Backfill.Lock).Lock(ctx, constants.BackfillLockName)
	if err != nil {
		var le *errors.LockedError
		if ers.As(err, &le) {
			return err
		}
		return &errors.PhaseError{Phase: string(backfill.PhaseInit), Err: err}
	}
	defer func() {
		if err := releaser.Release(); err != nil {
			logger.Warnf("Could not release lock: %v", err)
		}
	}()

	sink := progress.LoggerSink(logger.Named("progress"))

	var summary *backfill.Summary

	err = retry.Do(
		func() error {
			s, err := orchestrator.Run(ctx, sink)
			if err != nil {
				return err
			}
			summary = s
			return nil
		},
		retry.Attempts(conf.Backfill.MaxAttempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && retryable(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.Warnf("Attempt %d failed, running again: %v", n+1, err)
		}),
	)
	if err != nil {
		return err
	}

	logger.Infof("Backfill finished: %+v", *summary)
	return nil
}

// Runs are idempotent, so any transient I/O failure is worth another run.
func retryable(err error) bool {
	var pe *errors.PhaseError
	if !ers.As(err, &pe) {
		return false
	}
	switch pe.Code() {
	case rpccode.Code_UNAVAILABLE, rpccode.Code_DEADLINE_EXCEEDED:
		return true
	default:
		return false
	}
}

// Package progress carries human readable status messages of long running jobs. Messages are observational only.
package progress

import (
	"context"
	"sync"
	"time"

	"github.com/platebook/platebook-backend/internal/realtimedb"
	"go.uber.org/zap"
)

// Sink receives progress messages.
type Sink interface {
	Report(msg string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(msg string)

// Report calls f.
func (f SinkFunc) Report(msg string) {
	f(msg)
}

// Discard drops every message.
var Discard Sink = SinkFunc(func(string) {})

// LoggerSink logs messages on info level.
func LoggerSink(logger *zap.SugaredLogger) Sink {
	return SinkFunc(func(msg string) {
		logger.Info(msg)
	})
}

// Tee forwards messages to every sink.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(msg string) {
		for _, s := range sinks {
			s.Report(msg)
		}
	})
}

// Serialized guards sink so concurrent reporters never call it at the same time.
func Serialized(sink Sink) Sink {
	var mu sync.Mutex
	return SinkFunc(func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		sink.Report(msg)
	})
}

// Status last progress message of a run as stored in Realtime DB.
type Status struct {
	RunID     string `json:"runId"`
	Seq       int    `json:"seq"`
	Message   string `json:"message"`
	UpdatedAt int64  `json:"updatedAt"`
}

// RealtimeDBSink writes the latest message to path/runID. Write failures are logged and otherwise ignored.
type RealtimeDBSink struct {
	ctx    context.Context
	client realtimedb.RealtimeDB
	path   string
	runID  string
	logger *zap.SugaredLogger
	now    func() time.Time

	mu  sync.Mutex
	seq int
}

// NewRealtimeDBSink creates a sink publishing to Realtime DB.
func NewRealtimeDBSink(ctx context.Context, client realtimedb.RealtimeDB, path string, runID string, logger *zap.SugaredLogger) *RealtimeDBSink {
	return &RealtimeDBSink{
		ctx:    ctx,
		client: client,
		path:   path,
		runID:  runID,
		logger: logger,
		now:    time.Now,
	}
}

// Report stores msg as the current status.
func (s *RealtimeDBSink) Report(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	status := Status{
		RunID:     s.runID,
		Seq:       s.seq,
		Message:   msg,
		UpdatedAt: s.now().Unix(),
	}

	if err := s.client.Set(s.ctx, s.path+"/"+s.runID, status); err != nil {
		s.logger.Warnf("Could not store progress of run %v: %v", s.runID, err)
	}
}

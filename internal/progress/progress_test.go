package progress

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/platebook/platebook-backend/internal/realtimedb"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTee(t *testing.T) {
	var a, b []string

	sink := Tee(
		SinkFunc(func(msg string) { a = append(a, msg) }),
		SinkFunc(func(msg string) { b = append(b, msg) }),
		Discard,
	)
	sink.Report("reading reviews")
	sink.Report("done")

	assert.Equal(t, []string{"reading reviews", "done"}, a)
	assert.Equal(t, a, b)
}

func TestRealtimeDBSink(t *testing.T) {
	client := &realtimedb.MockClient{}

	sink := NewRealtimeDBSink(context.Background(), client, "backfillProgress", "run-1", zap.NewNop().Sugar())
	sink.now = func() time.Time { return time.Unix(1600000000, 0) }

	sink.Report("reading reviews")
	sink.Report("batch 1 of 2 committed")

	want := []interface{}{
		Status{RunID: "run-1", Seq: 1, Message: "reading reviews", UpdatedAt: 1600000000},
		Status{RunID: "run-1", Seq: 2, Message: "batch 1 of 2 committed", UpdatedAt: 1600000000},
	}

	if diff := cmp.Diff(want, client.Values["backfillProgress/run-1"]); diff != "" {
		t.Fatalf("progress mismatch (-want +got):\n%v", diff)
	}
}

func TestSerialized(t *testing.T) {
	var got []string
	sink := Serialized(SinkFunc(func(msg string) { got = append(got, msg) }))

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				sink.Report("tick")
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	assert.Len(t, got, 400)
}

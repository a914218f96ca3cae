package lock

import (
	"context"
	ers "errors"
	"testing"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/platebook/platebook-backend/internal/config"
	"github.com/platebook/platebook-backend/internal/utils/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	rpccode "google.golang.org/genproto/googleapis/rpc/code"
)

func TestNewPicksImplementation(t *testing.T) {
	assert.IsType(t, NoopLocker{}, New(config.LockConfig{}))
	assert.IsType(t, &RedisLocker{}, New(config.LockConfig{RedisAddr: "localhost:6379", TTL: time.Minute}))
}

func TestMockLockerIsExclusive(t *testing.T) {
	ctx := context.Background()
	locker := &MockLocker{}

	held, err := locker.Lock(ctx, "user-stats-backfill")
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "user-stats-backfill")
	assert.ErrorIs(t, err, redsync.ErrFailed)
	assert.Equal(t, rpccode.Code_ABORTED, errors.CodeOf(err))
	assert.EqualError(t, err, "Lock user-stats-backfill is held by another run")

	require.NoError(t, held.Release())

	again, err := locker.Lock(ctx, "user-stats-backfill")
	require.NoError(t, err)
	assert.NoError(t, again.Release())
}

func TestRedisLockerConnectionFailureIsNotLocked(t *testing.T) {
	locker := NewRedisLocker("127.0.0.1:1", time.Minute)

	_, err := locker.Lock(context.Background(), "user-stats-backfill")
	require.Error(t, err)

	var le *errors.LockedError
	assert.False(t, ers.As(err, &le))
}

package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"
	"github.com/platebook/platebook-backend/internal/config"
	"github.com/platebook/platebook-backend/internal/logging"
	"github.com/platebook/platebook-backend/internal/utils/errors"
)

//Releaser Releases a held lock.
type Releaser interface {
	Release() error
}

//Locker Exclusive named locks.
type Locker interface {
	Lock(ctx context.Context, name string) (Releaser, error)
}

//New Redis backed locker when an address is configured, NoopLocker otherwise.
func New(conf config.LockConfig) Locker {
	if conf.RedisAddr == "" {
		return NoopLocker{}
	}
	return NewRedisLocker(conf.RedisAddr, conf.TTL)
}

//RedisLocker Locker over Redis. The connection is opened lazily on first use.
type RedisLocker struct {
	addr string
	ttl  time.Duration

	once sync.Once
	rs   *redsync.Redsync
	err  error
}

//NewRedisLocker Creates locker connecting to addr. Locks expire after ttl if never released.
func NewRedisLocker(addr string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{addr: addr, ttl: ttl}
}

func (l *RedisLocker) connect(ctx context.Context) (*redsync.Redsync, error) {
	l.once.Do(func() {
		logger := logging.FromContext(ctx).Named("lock.connect")

		logger.Debugf("Connecting to lock Redis at %v", l.addr)

		client := redis.NewClient(&redis.Options{
			Addr: l.addr,
			DB:   0,
		})

		if _, err := client.Ping(ctx).Result(); err != nil {
			l.err = fmt.Errorf("Connection to Redis failed: %w", err)
			return
		}

		l.rs = redsync.New(goredis.NewPool(client))
	})

	return l.rs, l.err
}

//Lock Acquires the lock or fails when someone else holds it.
func (l *RedisLocker) Lock(ctx context.Context, name string) (Releaser, error) {
	logger := logging.FromContext(ctx).Named("lock.Lock")

	rs, err := l.connect(ctx)
	if err != nil {
		return nil, err
	}

	mutex := rs.NewMutex(name, redsync.WithExpiry(l.ttl), redsync.WithTries(1))

	logger.Debugf("Trying to acquire '%v' exclusive lock", name)

	if err := mutex.Lock(); err != nil {
		if err == redsync.ErrFailed {
			return nil, lockedError(name, err)
		}
		return nil, fmt.Errorf("could not acquire lock %v: %w", name, err)
	}

	return redisReleaser{name: name, mutex: mutex}, nil
}

// Held by someone else.
func lockedError(name string, err error) error {
	return &errors.LockedError{Msg: fmt.Sprintf("Lock %v is held by another run", name), Err: err}
}

type redisReleaser struct {
	name  string
	mutex *redsync.Mutex
}

func (r redisReleaser) Release() error {
	ok, err := r.mutex.Unlock()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("lock %v already expired", r.name)
	}
	return nil
}

//NoopLocker Always succeeds.
type NoopLocker struct{}

//Lock Does nothing.
func (NoopLocker) Lock(context.Context, string) (Releaser, error) {
	return noopReleaser{}, nil
}

type noopReleaser struct{}

func (noopReleaser) Release() error {
	return nil
}

//MockLocker In-memory locker for tests.
type MockLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

//Lock Fails when name is held.
func (m *MockLocker) Lock(_ context.Context, name string) (Releaser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.held == nil {
		m.held = map[string]bool{}
	}
	if m.held[name] {
		return nil, lockedError(name, redsync.ErrFailed)
	}
	m.held[name] = true

	return releaseFunc(func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, name)
		return nil
	}), nil
}

type releaseFunc func() error

func (f releaseFunc) Release() error {
	return f()
}

//go:build integration

package lock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/testutil/containers"
)

type RedisLockerSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	locker *lock.RedisLocker
}

func TestRedisLockerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLockerSuite))
}

func (s *RedisLockerSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.locker = lock.NewRedisLocker(s.redis.Client, "test:", time.Second, 10*time.Millisecond)
}

func (s *RedisLockerSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLockerSuite) TestTimesOutWhileHeld() {
	ctx := context.Background()

	unlock, err := s.locker.Lock(ctx, "k")
	s.Require().NoError(err)

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = s.locker.Lock(short, "k")
	s.ErrorIs(err, lock.ErrLockTimeout)

	unlock()

	unlock, err = s.locker.Lock(ctx, "k")
	s.Require().NoError(err)
	unlock()
}

func (s *RedisLockerSuite) TestExpiredTokenIsNotReleasedByOldHolder() {
	ctx := context.Background()
	l := lock.NewRedisLocker(s.redis.Client, "test:", 30*time.Millisecond, 5*time.Millisecond)

	stale, err := l.Lock(ctx, "k")
	s.Require().NoError(err)
	time.Sleep(60 * time.Millisecond)

	fresh, err := l.Lock(ctx, "k")
	s.Require().NoError(err)

	// The first holder's release must leave the second holder's key alone.
	stale()
	exists, err := s.redis.Client.Exists(ctx, "test:k").Result()
	s.Require().NoError(err)
	s.Equal(int64(1), exists)
	fresh()
}

func (s *RedisLockerSuite) TestSerialisesAcrossGoroutines() {
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := lock.WithLock(ctx, s.locker, lock.EmployeeKey("emp-1"), func(ctx context.Context) error {
				mu.Lock()
				active++
				maxSeen = max(maxSeen, active)
				mu.Unlock()

				time.Sleep(2 * time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	s.Equal(1, maxSeen)
}

//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"presence/internal/nonce/models"
	"presence/internal/nonce/store"
	"presence/pkg/platform/sentinel"
	"presence/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestCreateAndConsume() {
	ctx := context.Background()

	n, err := s.store.Create(ctx, "site-1", models.DefaultTTL)
	s.Require().NoError(err)
	s.Equal("site-1", n.NodeID)

	got, err := s.store.Consume(ctx, n.ID, time.Now())
	s.Require().NoError(err)
	s.Require().NotNil(got.ConsumedAt)

	_, err = s.store.Consume(ctx, n.ID, time.Now())
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *RedisStoreSuite) TestConsumeUnknown() {
	_, err := s.store.Consume(context.Background(), uuid.NewString(), time.Now())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestExpiredWithinGrace() {
	ctx := context.Background()

	n, err := s.store.Create(ctx, "site-1", models.MinTTL)
	s.Require().NoError(err)

	// Past expiry but inside the grace window: the key is still present and
	// the script must answer expired, not not-found.
	_, err = s.store.Consume(ctx, n.ID, n.ExpiresAt.Add(time.Second))
	s.Require().ErrorIs(err, sentinel.ErrExpired)
}

// TestConsumeExactlyOnce verifies the Lua consume script admits a single
// winner under concurrent redemption.
func (s *RedisStoreSuite) TestConsumeExactlyOnce() {
	ctx := context.Background()
	n, err := s.store.Create(ctx, "site-1", models.DefaultTTL)
	s.Require().NoError(err)

	const callers = 20
	now := time.Now()

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.store.Consume(ctx, n.ID, now)
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
		}
	}
	s.Equal(1, wins)
}

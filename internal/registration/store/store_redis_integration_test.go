//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"registrations/internal/registration/models"
	"registrations/internal/registration/store"
	"registrations/pkg/platform/sentinel"
	"registrations/pkg/testutil/containers"
)

type RedisBackendSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backend *store.RedisBackend
	regs    *store.Registrations
}

func TestRedisBackendSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBackendSuite))
}

func (s *RedisBackendSuite) SetupSuite() {
	s.redis = containers.Redis(s.T())
	s.backend = store.NewRedisBackend(s.redis.Client)
	s.regs = store.NewRegistrations(s.backend)
}

func (s *RedisBackendSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisBackendSuite) TestRoundTrip() {
	ctx := context.Background()
	rec := sampleRecord()

	id, err := s.regs.GenerateAndStore(ctx, rec)
	s.Require().NoError(err)

	got, err := s.regs.Fetch(ctx, id.String())
	s.Require().NoError(err)
	s.Equal(rec, *got)

	raw, err := s.redis.Client.Get(ctx, store.DefaultKeyPrefix+id.String()).Result()
	s.Require().NoError(err)
	s.JSONEq(`{"registrationDate":"2010-01-01T00:00:00.000000+01:00","locale":"en","person":{"firstName":"First1","lastName":"Last1","email":"test1@test.com"}}`, raw)
}

func (s *RedisBackendSuite) TestMissIsNotFound() {
	_, err := s.regs.Fetch(context.Background(), models.NewRegistrationID().String())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisBackendSuite) TestSetIfAbsent() {
	ctx := context.Background()
	ok, err := s.backend.SetIfAbsent(ctx, "k", []byte("first"), store.NoExpiry)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.backend.SetIfAbsent(ctx, "k", []byte("second"), store.NoExpiry)
	s.Require().NoError(err)
	s.False(ok)

	got, err := s.backend.Get(ctx, "k")
	s.Require().NoError(err)
	s.Equal([]byte("first"), got)
}

func (s *RedisBackendSuite) TestTTLApplied() {
	ctx := context.Background()
	regs := store.NewRegistrations(s.backend, store.WithTTL(time.Minute))
	id, err := regs.GenerateAndStore(ctx, sampleRecord())
	s.Require().NoError(err)

	ttl, err := s.redis.Client.TTL(ctx, store.DefaultKeyPrefix+id.String()).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)
}

func (s *RedisBackendSuite) TestConcurrentCommitsOnSameID() {
	ctx := context.Background()
	const writers = 16

	var wg sync.WaitGroup
	wins := make(chan bool, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.backend.SetIfAbsent(ctx, "contested", []byte("x"), store.NoExpiry)
			s.NoError(err)
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for ok := range wins {
		if ok {
			won++
		}
	}
	s.Equal(1, won)
}

func (s *RedisBackendSuite) TestClearLeavesForeignKeys() {
	ctx := context.Background()
	_, err := s.regs.GenerateAndStore(ctx, sampleRecord())
	s.Require().NoError(err)
	s.Require().NoError(s.redis.Client.Set(ctx, "other:key", "keep", 0).Err())

	s.Require().NoError(s.regs.Clear(ctx))

	keys, err := s.redis.Client.Keys(ctx, store.DefaultKeyPrefix+"*").Result()
	s.Require().NoError(err)
	s.Empty(keys)
	s.Equal("keep", s.redis.Client.Get(ctx, "other:key").Val())
}

func (s *RedisBackendSuite) TestCustomPrefix() {
	ctx := context.Background()
	backend := store.NewRedisBackend(s.redis.Client, store.WithKeyPrefix("reg-test:"))
	s.Require().NoError(backend.Set(ctx, "k", []byte("v"), store.NoExpiry))
	s.Equal("v", s.redis.Client.Get(ctx, "reg-test:k").Val())
}

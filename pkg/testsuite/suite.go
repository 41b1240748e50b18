package testsuite

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

type BaseSuite struct {
	suite.Suite
	RedisContainer *redis.RedisContainer
	Redis          *goredis.Client
	Ctx            context.Context
}

// SetupInfrastructure starts a throwaway Redis. The suite is skipped when no container runtime is reachable.
func (s *BaseSuite) SetupInfrastructure() {
	s.Ctx = context.Background()

	testcontainers.SkipIfProviderIsNotHealthy(s.T())

	var err error
	s.RedisContainer, err = redis.Run(
		s.Ctx,
		"redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)

	connStr, err := s.RedisContainer.ConnectionString(s.Ctx)
	s.Require().NoError(err)

	opts, err := goredis.ParseURL(connStr)
	s.Require().NoError(err)

	s.Redis = goredis.NewClient(opts)
	s.Require().NoError(s.Redis.Ping(s.Ctx).Err())
}

func (s *BaseSuite) TearDownInfrastructure() {
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.T().Logf("failed to close redis client: %v", err)
		}
	}
	if s.RedisContainer != nil {
		if err := s.RedisContainer.Terminate(s.Ctx); err != nil {
			s.T().Logf("failed to terminate redis container: %v", err)
		}
	}
}

func (s *BaseSuite) FlushRedis() {
	s.Require().NoError(s.Redis.FlushAll(s.Ctx).Err())
}

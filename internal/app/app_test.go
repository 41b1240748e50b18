package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sakashimaa/etech-storefront/internal/events"
	"github.com/sakashimaa/etech-storefront/internal/mockapi"
	pkgdomain "github.com/sakashimaa/etech-storefront/pkg/domain"
	"github.com/sakashimaa/etech-storefront/pkg/config"
	"github.com/sakashimaa/etech-storefront/pkg/testsuite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Env:     "test",
		Backend: config.Backend{BaseURL: baseURL, Timeout: 2 * time.Second},
		Cache: config.Cache{
			ProductsTTL:   5 * time.Minute,
			CategoriesTTL: 10 * time.Minute,
			BrandsTTL:     10 * time.Minute,
		},
		Sessions: config.Sessions{
			IdleTTL:       30 * time.Minute,
			SweepInterval: 10 * time.Millisecond,
			CredentialTTL: time.Hour,
		},
	}
}

func TestSessionsAreCreatedOnceAndIsolated(t *testing.T) {
	_, baseURL := mockapi.NewTestServer(t)
	recorder := events.NewRecorder()

	a, err := New(testConfig(baseURL), zap.NewNop(), WithPublishers(recorder, nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx := context.Background()
	first := a.Session(ctx, "sid-a")
	assert.Same(t, first, a.Session(ctx, "sid-a"))
	assert.Nil(t, first.Identity.User())

	_, err = first.Identity.Login(ctx, mockapi.DemoUserEmail, mockapi.DemoUserPassword)
	require.NoError(t, err)

	other := a.Session(ctx, "sid-b")
	assert.Nil(t, other.Identity.User())
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 1, recorder.Count(pkgdomain.EventUserLoggedIn))

	assert.Same(t, a.Catalog(), a.Catalog())
	assert.NotEmpty(t, a.Catalog().Products(), "login reloads the shared catalog")
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	_, baseURL := mockapi.NewTestServer(t)
	clk := &clock{now: time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)}

	a, err := New(testConfig(baseURL), zap.NewNop(), WithClock(clk.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx := context.Background()
	a.Session(ctx, "old")
	clk.Advance(20 * time.Minute)
	a.Session(ctx, "fresh")
	clk.Advance(15 * time.Minute)

	assert.Equal(t, 1, a.Sweep(ctx))
	assert.Equal(t, 1, a.Len())

	clk.Advance(time.Hour)
	assert.Equal(t, 1, a.Sweep(ctx))
	assert.Zero(t, a.Len())
}

func TestRunStopsWithContext(t *testing.T) {
	_, baseURL := mockapi.NewTestServer(t)

	a, err := New(testConfig(baseURL), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type RedisSessionSuite struct {
	testsuite.BaseSuite
	BaseURL string
}

func (s *RedisSessionSuite) SetupSuite() {
	s.SetupInfrastructure()
}

func (s *RedisSessionSuite) TearDownSuite() {
	s.TearDownInfrastructure()
}

func (s *RedisSessionSuite) SetupTest() {
	s.FlushRedis()
	_, s.BaseURL = mockapi.NewTestServer(s.T())
}

func (s *RedisSessionSuite) TestEvictedSessionIsRestoredFromRedis() {
	clk := &clock{now: time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)}

	a, err := New(testConfig(s.BaseURL), zap.NewNop(), WithRedis(s.Redis), WithClock(clk.Now))
	s.Require().NoError(err)
	defer func() { s.NoError(a.Close()) }()

	sess := a.Session(s.Ctx, "sid-redis")
	_, err = sess.Identity.Login(s.Ctx, mockapi.DemoAdminEmail, mockapi.DemoAdminPassword)
	s.Require().NoError(err)

	clk.Advance(time.Hour)
	s.Equal(1, a.Sweep(s.Ctx))

	restored := a.Session(s.Ctx, "sid-redis")
	s.NotSame(sess, restored)
	s.Require().NotNil(restored.Identity.User())
	s.Equal(mockapi.DemoAdminEmail, restored.Identity.User().Email)

	stats, err := restored.Admin.FetchStats(s.Ctx)
	s.Require().NoError(err)
	s.Equal(12, stats.TotalProducts)
}

func TestRedisSessionSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	suite.Run(t, new(RedisSessionSuite))
}

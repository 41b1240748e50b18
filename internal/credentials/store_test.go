package credentials

import (
	"context"
	"testing"
	"time"

	"github.com/sakashimaa/etech-storefront/internal/domain"
	"github.com/sakashimaa/etech-storefront/pkg/testsuite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	user, err := store.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	u := domain.User{ID: "u1", Email: "a@etech.co", FirstName: "Anan", Role: domain.RoleUser}
	require.NoError(t, store.Save(ctx, "tkn", u))

	token, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tkn", token)

	user, err = store.User(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, u, *user)

	u.Phone = "0811111111"
	require.NoError(t, store.SaveUser(ctx, u))
	user, err = store.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0811111111", user.Phone)

	require.NoError(t, store.SaveProfile(ctx, u.Email, u.Profile()))

	require.NoError(t, store.Clear(ctx))
	token, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	user, err = store.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	profile, ok, err := store.Profile(ctx, u.Email)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0811111111", profile.Phone)

	_, ok, err = store.Profile(ctx, "nobody@etech.co")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

type RedisStoreSuite struct {
	testsuite.BaseSuite
}

func (s *RedisStoreSuite) SetupSuite() {
	s.SetupInfrastructure()
}

func (s *RedisStoreSuite) TearDownSuite() {
	s.TearDownInfrastructure()
}

func (s *RedisStoreSuite) SetupTest() {
	s.FlushRedis()
}

func (s *RedisStoreSuite) TestRoundTrip() {
	exerciseStore(s.T(), NewRedisStore(s.Redis, "sid-1", time.Hour))
}

func (s *RedisStoreSuite) TestSessionsAreIsolated() {
	a := NewRedisStore(s.Redis, "sid-a", time.Hour)
	b := NewRedisStore(s.Redis, "sid-b", time.Hour)

	s.Require().NoError(a.Save(s.Ctx, "token-a", domain.User{Email: "a@etech.co"}))

	token, err := b.Token(s.Ctx)
	s.Require().NoError(err)
	s.Empty(token)
}

func (s *RedisStoreSuite) TestCredentialsExpire() {
	store := NewRedisStore(s.Redis, "sid-ttl", time.Hour)
	s.Require().NoError(store.Save(s.Ctx, "tkn", domain.User{Email: "a@etech.co"}))

	ttl, err := s.Redis.TTL(s.Ctx, "storefront:session:sid-ttl:"+TokenKey).Result()
	s.Require().NoError(err)
	s.Greater(ttl, 59*time.Minute)
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sakashimaa/etech-storefront/internal/domain"
)

type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore keeps one UI session's credentials under storefront:session:<sessionID>:*.
func NewRedisStore(client *redis.Client, sessionID string, ttl time.Duration) Store {
	return &redisStore{
		client: client,
		prefix: fmt.Sprintf("storefront:session:%s:", sessionID),
		ttl:    ttl,
	}
}

func (s *redisStore) key(name string) string {
	return s.prefix + name
}

func (s *redisStore) Token(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key(TokenKey)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	return token, nil
}

func (s *redisStore) User(ctx context.Context) (*domain.User, error) {
	raw, err := s.client.Get(ctx, s.key(UserKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	return &user, nil
}

func (s *redisStore) Save(ctx context.Context, token string, user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(TokenKey), token, s.ttl)
		pipe.Set(ctx, s.key(UserKey), data, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (s *redisStore) SaveUser(ctx context.Context, user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key(UserKey), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *redisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key(TokenKey), s.key(UserKey)).Err(); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

func (s *redisStore) Profile(ctx context.Context, email string) (domain.Profile, bool, error) {
	raw, err := s.client.HGet(ctx, s.key(ProfilesKey), email).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Profile{}, false, nil
	}
	if err != nil {
		return domain.Profile{}, false, fmt.Errorf("get profile: %w", err)
	}

	var profile domain.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return domain.Profile{}, false, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	return profile, true, nil
}

func (s *redisStore) SaveProfile(ctx context.Context, email string, profile domain.Profile) error {
	if email == "" {
		return nil
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	if err := s.client.HSet(ctx, s.key(ProfilesKey), email, data).Err(); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

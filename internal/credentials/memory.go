package credentials

import (
	"context"
	"sync"

	"github.com/sakashimaa/etech-storefront/internal/domain"
)

type memoryStore struct {
	mu       sync.RWMutex
	token    string
	user     *domain.User
	profiles map[string]domain.Profile
}

func NewMemoryStore() Store {
	return &memoryStore{profiles: make(map[string]domain.Profile)}
}

func (s *memoryStore) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token, nil
}

func (s *memoryStore) User(_ context.Context) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

func (s *memoryStore) Save(_ context.Context, token string, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.user = &user
	return nil
}

func (s *memoryStore) SaveUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = &user
	return nil
}

func (s *memoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.user = nil
	return nil
}

func (s *memoryStore) Profile(_ context.Context, email string) (domain.Profile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[email]
	return p, ok, nil
}

func (s *memoryStore) SaveProfile(_ context.Context, email string, profile domain.Profile) error {
	if email == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[email] = profile
	return nil
}

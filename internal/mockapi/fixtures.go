package mockapi

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sakashimaa/etech-storefront/internal/domain"
	"go.uber.org/zap"
)

var (
	demoCategories = []string{"มือถือ", "แล็ปท็อป", "อุปกรณ์เสริม"}
	demoBrands     = []string{"A-Tech", "B-Plus", "C-Lab"}
	demoImages     = []string{
		"https://images.unsplash.com/photo-1518779578993-ec3579fee39f?q=80&w=800&auto=format&fit=crop",
		"https://images.unsplash.com/photo-1510557880182-3d4d3cba35a5?q=80&w=800&auto=format&fit=crop",
		"https://images.unsplash.com/photo-1511707171634-5f897ff02aa9?q=80&w=800&auto=format&fit=crop",
	}
)

const (
	DemoAdminEmail    = "admin@etech.co"
	DemoAdminPassword = "admin12345"
	DemoUserEmail     = "user@etech.co"
	DemoUserPassword  = "user12345"
)

// SeedDemo loads twelve products and one admin and one customer account.
func (s *Server) SeedDemo() ([]domain.Product, error) {
	products := make([]domain.Product, 0, 12)
	for i := 0; i < 12; i++ {
		products = append(products, s.SeedProduct(domain.Product{
			ID:          fmt.Sprintf("p%d", i+1),
			Name:        fmt.Sprintf("Electronic Product %d", i+1),
			Price:       990 + int64(i)*100,
			Image:       demoImages[i%len(demoImages)],
			Description: "Short product description for project demonstration",
			Category:    demoCategories[i%len(demoCategories)],
			Brand:       demoBrands[i%len(demoBrands)],
			Rating:      float64(i%5 + 1),
			IsNew:       i%4 == 0,
			IsSale:      i%3 == 0,
		}))
	}

	if _, err := s.SeedUser(DemoAdminEmail, DemoAdminPassword, domain.RoleAdmin, "Admin", "Etech"); err != nil {
		return nil, err
	}
	if _, err := s.SeedUser(DemoUserEmail, DemoUserPassword, domain.RoleUser, "Somchai", "Jaidee"); err != nil {
		return nil, err
	}

	return products, nil
}

// NewTestServer starts a seeded backend for tests and returns it with its base URL.
func NewTestServer(t testing.TB, opts ...Option) (*Server, string) {
	t.Helper()

	s := New(zap.NewNop(), opts...)
	if _, err := s.SeedDemo(); err != nil {
		t.Fatalf("seed mock backend: %v", err)
	}

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return s, srv.URL
}

func (s *Server) UserByEmail(email string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return domain.User{}, false
	}
	return s.users[id].user, true
}

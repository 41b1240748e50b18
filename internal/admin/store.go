package admin

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/sakashimaa/etech-storefront/internal/domain"
	"github.com/sakashimaa/etech-storefront/internal/gateway"
	"github.com/sakashimaa/etech-storefront/pkg/mylogger"
	"github.com/sakashimaa/etech-storefront/pkg/utils"
	"go.uber.org/zap"
)

// StatusAll disables the status filter of FilterOrders.
const StatusAll = "all"

// ProductRemover deletes a product and drops it from the cached catalog.
type ProductRemover interface {
	RemoveProduct(ctx context.Context, id string) error
}

type statusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

// Store backs the admin back-office of one session.
// Mutations return their error so the caller can report it right away.
type Store struct {
	api     gateway.Requester
	catalog ProductRemover
	logger  *zap.Logger

	mu       sync.RWMutex
	stats    domain.AdminStats
	orders   []domain.AdminOrder
	users    []domain.AdminUser
	inflight int
	lastErr  string
}

func New(api gateway.Requester, catalog ProductRemover, logger *zap.Logger) *Store {
	return &Store{
		api:     api,
		catalog: catalog,
		logger:  logger,
	}
}

func (s *Store) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight++
	s.lastErr = ""
}

func (s *Store) finish(ctx context.Context, op string, err error, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight--

	if err != nil {
		s.lastErr = gateway.Message(err)
		mylogger.Warn(ctx, s.logger, "admin request failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("admin %s: %w", op, err)
	}

	if apply != nil {
		apply()
	}
	return nil
}

func (s *Store) FetchStats(ctx context.Context) (domain.AdminStats, error) {
	s.begin()

	var stats domain.AdminStats
	err := s.api.Get(ctx, "/admin/dashboard", &stats)

	err = s.finish(ctx, "fetch_stats", err, func() {
		s.stats = stats
	})
	return s.Stats(), err
}

func (s *Store) FetchOrders(ctx context.Context) ([]domain.AdminOrder, error) {
	s.begin()

	var fetched []domain.AdminOrder
	err := s.api.Get(ctx, "/admin/orders", &fetched)

	err = s.finish(ctx, "fetch_orders", err, func() {
		s.orders = fetched
	})
	return s.Orders(), err
}

func (s *Store) FetchUsers(ctx context.Context) ([]domain.AdminUser, error) {
	s.begin()

	var fetched []domain.AdminUser
	err := s.api.Get(ctx, "/admin/users", &fetched)

	err = s.finish(ctx, "fetch_users", err, func() {
		s.users = fetched
	})
	return s.Users(), err
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}

	s.begin()
	err := s.api.Put(ctx, "/orders/"+url.PathEscape(id)+"/status", statusRequest{Status: status}, nil)

	err = s.finish(ctx, "update_order_status", err, func() {
		for i := range s.orders {
			if s.orders[i].ID == id {
				s.orders[i].Status = status
			}
		}
	})
	if err == nil {
		mylogger.Info(ctx, s.logger, "order status changed", zap.String("order_id", id), zap.String("status", string(status)))
	}
	return err
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	s.begin()
	err := s.api.Delete(ctx, "/admin/orders/"+url.PathEscape(id), nil)

	return s.finish(ctx, "delete_order", err, func() {
		kept := s.orders[:0:0]
		for _, o := range s.orders {
			if o.ID != id {
				kept = append(kept, o)
			}
		}
		s.orders = kept
	})
}

func (s *Store) CreateUser(ctx context.Context, input domain.AdminUserInput) (domain.AdminUser, error) {
	if err := utils.Validator().Struct(input); err != nil {
		return domain.AdminUser{}, err
	}

	s.begin()

	var created domain.AdminUser
	err := s.api.Post(ctx, "/admin/users", input, &created)

	err = s.finish(ctx, "create_user", err, func() {
		s.users = append(s.users, created)
	})
	if err != nil {
		return domain.AdminUser{}, err
	}
	return created, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, input domain.AdminUserInput) (domain.AdminUser, error) {
	if err := utils.Validator().Struct(input); err != nil {
		return domain.AdminUser{}, err
	}

	s.begin()

	var updated domain.AdminUser
	err := s.api.Put(ctx, "/admin/users/"+url.PathEscape(id), input, &updated)

	err = s.finish(ctx, "update_user", err, func() {
		for i := range s.users {
			if s.users[i].ID == id {
				s.users[i] = updated
			}
		}
	})
	if err != nil {
		return domain.AdminUser{}, err
	}
	return updated, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.begin()
	err := s.api.Delete(ctx, "/admin/users/"+url.PathEscape(id), nil)

	return s.finish(ctx, "delete_user", err, func() {
		kept := s.users[:0:0]
		for _, u := range s.users {
			if u.ID != id {
				kept = append(kept, u)
			}
		}
		s.users = kept
	})
}

// DeleteProduct goes through the catalog so the shared cache drops the product too.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	s.begin()
	err := s.catalog.RemoveProduct(ctx, id)
	return s.finish(ctx, "delete_product", err, nil)
}

// FilterOrders matches query against order id, order number, customer name and email.
// status compares case-insensitively; empty or "all" keeps every status.
func (s *Store) FilterOrders(query, status string) []domain.AdminOrder {
	return FilterOrders(s.Orders(), query, status)
}

func FilterOrders(orders []domain.AdminOrder, query, status string) []domain.AdminOrder {
	query = strings.ToLower(strings.TrimSpace(query))
	status = strings.TrimSpace(status)

	out := make([]domain.AdminOrder, 0, len(orders))
	for _, o := range orders {
		if status != "" && !strings.EqualFold(status, StatusAll) && !strings.EqualFold(status, string(o.Status)) {
			continue
		}
		if query != "" && !matchesOrder(o, query) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func matchesOrder(o domain.AdminOrder, query string) bool {
	for _, field := range []string{o.ID, o.OrderNumber, o.Customer.Name, o.Customer.Email} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func (s *Store) Stats() domain.AdminStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stats
}

func (s *Store) Orders() []domain.AdminOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.AdminOrder(nil), s.orders...)
}

func (s *Store) Users() []domain.AdminUser {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.AdminUser(nil), s.users...)
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.inflight > 0
}

func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastErr
}

package cart

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/moby/locker"
	"github.com/sakashimaa/etech-storefront/internal/domain"
	"github.com/sakashimaa/etech-storefront/internal/gateway"
	"github.com/sakashimaa/etech-storefront/pkg/mylogger"
	"go.uber.org/zap"
)

// ErrIdentityChanged is returned when the user switched while a request was in flight.
// The response is discarded.
var ErrIdentityChanged = errors.New("identity changed during cart request")

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type Store struct {
	api    gateway.Requester
	logger *zap.Logger
	keys   *locker.Locker

	mu         sync.RWMutex
	items      []domain.CartItem
	owner      string
	generation uint64
	inflight   int
	lastErr    string
}

func New(api gateway.Requester, logger *zap.Logger) *Store {
	return &Store{
		api:    api,
		logger: logger,
		keys:   locker.New(),
	}
}

func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight++
	s.lastErr = ""
	return s.generation
}

// finish ends a request. apply runs under the write lock only when the identity is unchanged.
func (s *Store) finish(ctx context.Context, gen uint64, op string, err error, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight--

	if gen != s.generation {
		mylogger.Debug(ctx, s.logger, "dropping cart response from previous identity", zap.String("op", op))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrIdentityChanged, err)
		}
		return ErrIdentityChanged
	}

	if err != nil {
		s.lastErr = gateway.Message(err)
		mylogger.Warn(ctx, s.logger, "cart request failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("cart %s: %w", op, err)
	}

	if apply != nil {
		apply()
	}
	return nil
}

func (s *Store) Fetch(ctx context.Context) ([]domain.CartItem, error) {
	gen := s.begin()

	var items []domain.CartItem
	err := s.api.Get(ctx, "/cart", &items)

	err = s.finish(ctx, gen, "fetch", err, func() {
		s.items = append([]domain.CartItem{}, items...)
	})
	return s.Items(), err
}

// AddItem posts a quantity delta. The server merges it into an existing row for the product.
func (s *Store) AddItem(ctx context.Context, product domain.Product, qty int) (domain.CartItem, error) {
	if qty <= 0 {
		return domain.CartItem{}, domain.ErrInvalidQuantity
	}

	s.keys.Lock(product.ID)
	defer s.keys.Unlock(product.ID)

	gen := s.begin()

	var row domain.CartItem
	err := s.api.Post(ctx, "/cart", addItemRequest{ProductID: product.ID, Quantity: qty}, &row)

	err = s.finish(ctx, gen, "add", err, func() {
		if row.Product.ID == "" {
			row.Product = product.Clone()
		}

		for i, item := range s.items {
			if item.Product.ID == row.Product.ID {
				s.items[i] = row
				return
			}
		}
		s.items = append([]domain.CartItem{row}, s.items...)
	})
	if err != nil {
		return domain.CartItem{}, err
	}
	return row, nil
}

// RemoveItem deletes the product's row. It makes no request when the product is not in the cart.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	s.keys.Lock(productID)
	defer s.keys.Unlock(productID)

	row, ok := s.find(productID)
	if !ok {
		return nil
	}

	gen := s.begin()
	err := s.api.Delete(ctx, "/cart/"+url.PathEscape(row.ID), nil)

	return s.finish(ctx, gen, "remove", err, func() {
		s.items = removeRow(s.items, row.ID)
	})
}

// SetQuantity replaces the product's quantity. qty must be positive; use RemoveItem to drop a row.
func (s *Store) SetQuantity(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}

	s.keys.Lock(productID)
	defer s.keys.Unlock(productID)

	row, ok := s.find(productID)
	if !ok {
		return nil
	}

	gen := s.begin()

	var updated domain.CartItem
	err := s.api.Put(ctx, "/cart/"+url.PathEscape(row.ID), setQuantityRequest{Quantity: qty}, &updated)

	return s.finish(ctx, gen, "set_quantity", err, func() {
		if updated.ID == "" {
			updated = row
			updated.Quantity = qty
		}

		for i, item := range s.items {
			if item.ID == row.ID {
				s.items[i] = updated
				return
			}
		}
	})
}

func (s *Store) Clear(ctx context.Context) error {
	gen := s.begin()
	err := s.api.Delete(ctx, "/cart", nil)

	return s.finish(ctx, gen, "clear", err, func() {
		s.items = nil
	})
}

// ReloadForUser drops the in-memory cart without touching the network.
func (s *Store) ReloadForUser(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.owner = email
	s.items = nil
	s.lastErr = ""
}

func (s *Store) Items() []domain.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.Snapshot(s.items)
}

// Total is for display only. Orders use server-computed figures.
func (s *Store) Total() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.Subtotal(s.items)
}

func (s *Store) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.owner
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

func (s *Store) find(productID string) (domain.CartItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.Product.ID == productID {
			return item, true
		}
	}
	return domain.CartItem{}, false
}

func removeRow(items []domain.CartItem, rowID string) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		if item.ID != rowID {
			out = append(out, item)
		}
	}
	return out
}

package orders

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/sakashimaa/etech-storefront/internal/domain"
	"github.com/sakashimaa/etech-storefront/internal/events"
	"github.com/sakashimaa/etech-storefront/internal/gateway"
	pkgdomain "github.com/sakashimaa/etech-storefront/pkg/domain"
	"github.com/sakashimaa/etech-storefront/pkg/mylogger"
	"github.com/sakashimaa/etech-storefront/pkg/utils"
	"go.uber.org/zap"
)

// NoOrderID is what AddOrder returns when the order was not created.
const NoOrderID = ""

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrCancelNotAllowed = errors.New("only pending orders can be cancelled")
	ErrIdentityChanged  = errors.New("identity changed during order request")
)

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Items    []orderItemRequest   `json:"items"`
	Subtotal int64                `json:"subtotal"`
	VAT      int64                `json:"vat"`
	Shipping int64                `json:"shipping"`
	Address  domain.Address       `json:"address"`
	Payment  domain.PaymentMethod `json:"payment"`
}

type statusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

type Store struct {
	api       gateway.Requester
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time

	mu         sync.RWMutex
	orders     []domain.Order
	owner      string
	generation uint64
	inflight   int
	lastErr    string
}

func New(api gateway.Requester, publisher events.Publisher, logger *zap.Logger) *Store {
	if publisher == nil {
		publisher = events.NewNop()
	}

	return &Store{
		api:       api,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight++
	s.lastErr = ""
	return s.generation
}

func (s *Store) finish(ctx context.Context, gen uint64, op string, err error, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight--

	if gen != s.generation {
		mylogger.Debug(ctx, s.logger, "dropping order response from previous identity", zap.String("op", op))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrIdentityChanged, err)
		}
		return ErrIdentityChanged
	}

	if err != nil {
		s.lastErr = gateway.Message(err)
		mylogger.Warn(ctx, s.logger, "order request failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("orders %s: %w", op, err)
	}

	if apply != nil {
		apply()
	}
	return nil
}

func (s *Store) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastErr = err.Error()
}

func (s *Store) Fetch(ctx context.Context) ([]domain.Order, error) {
	gen := s.begin()

	var fetched []domain.Order
	err := s.api.Get(ctx, "/orders", &fetched)

	err = s.finish(ctx, gen, "fetch", err, func() {
		s.orders = make([]domain.Order, len(fetched))
		for i, o := range fetched {
			s.orders[i] = normalize(o, s.now)
		}
	})
	return s.Orders(), err
}

// AddOrder places an order. subtotal, vat and shipping are advisory; the stored figures are the server's.
func (s *Store) AddOrder(
	ctx context.Context,
	items []domain.CartItem,
	subtotal int64,
	address domain.Address,
	payment domain.PaymentMethod,
	vat int64,
	shipping int64,
) (string, error) {
	if err := validateOrder(items, address, payment); err != nil {
		s.setError(err)
		return NoOrderID, err
	}

	snapshot := domain.Snapshot(items)
	req := createOrderRequest{
		Items:    make([]orderItemRequest, len(snapshot)),
		Subtotal: subtotal,
		VAT:      vat,
		Shipping: shipping,
		Address:  address,
		Payment:  payment,
	}
	for i, item := range snapshot {
		req.Items[i] = orderItemRequest{ProductID: item.Product.ID, Quantity: item.Quantity}
	}

	gen := s.begin()

	var created domain.Order
	err := s.api.Post(ctx, "/orders", req, &created)

	var owner string
	err = s.finish(ctx, gen, "create", err, func() {
		if len(created.Items) == 0 {
			created.Items = snapshot
		}
		created = normalize(created, s.now)
		s.orders = append([]domain.Order{created}, s.orders...)
		owner = s.owner
	})
	if err != nil {
		return NoOrderID, err
	}

	if created.GrandTotal != subtotal+vat+shipping {
		mylogger.Info(
			ctx,
			s.logger,
			"server totals differ from client estimate",
			zap.String("order_id", created.ID),
			zap.Int64("client_total", subtotal+vat+shipping),
			zap.Int64("server_total", created.GrandTotal),
		)
	}

	s.publisher.Publish(ctx, pkgdomain.EventOrderPlaced, created.ID, pkgdomain.OrderPlacedEvent{
		OrderID:    created.ID,
		Email:      owner,
		Items:      created.ItemCount(),
		GrandTotal: created.GrandTotal,
		Payment:    string(created.Payment),
	})

	mylogger.Info(ctx, s.logger, "order placed", zap.String("order_id", created.ID), zap.Int64("grand_total", created.GrandTotal))
	return created.ID, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}

	gen := s.begin()

	var updated domain.Order
	err := s.api.Put(ctx, "/orders/"+url.PathEscape(id)+"/status", statusRequest{Status: status}, &updated)

	return s.finish(ctx, gen, "update_status", err, func() {
		for i, o := range s.orders {
			if o.ID != id {
				continue
			}
			if updated.ID == "" {
				s.orders[i].Status = status
				return
			}
			if len(updated.Items) == 0 {
				updated.Items = o.Items
			}
			s.orders[i] = normalize(updated, s.now)
			return
		}
	})
}

// Cancel cancels a pending order visible to this user.
func (s *Store) Cancel(ctx context.Context, id string) error {
	order, ok := s.Get(id)
	if !ok {
		return ErrOrderNotFound
	}
	if !order.Status.CanCancel() {
		return ErrCancelNotAllowed
	}

	if err := s.UpdateOrderStatus(ctx, id, domain.OrderStatusCancelled); err != nil {
		return err
	}

	s.publisher.Publish(ctx, pkgdomain.EventOrderCancelled, id, pkgdomain.OrderCancelledEvent{OrderID: id, Email: s.Owner()})
	return nil
}

func (s *Store) ReloadForUser(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.owner = email
	s.orders = nil
	s.lastErr = ""
}

func (s *Store) Get(id string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if o.ID == id {
			return clone(o), true
		}
	}
	return domain.Order{}, false
}

func (s *Store) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Order, len(s.orders))
	for i, o := range s.orders {
		out[i] = clone(o)
	}
	return out
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

func validateOrder(items []domain.CartItem, address domain.Address, payment domain.PaymentMethod) error {
	if len(items) == 0 {
		return domain.ErrEmptyCart
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
	}
	if !payment.Valid() {
		return domain.ErrInvalidPaymentMethod
	}
	return utils.Validator().Struct(address)
}

func normalize(o domain.Order, now func() time.Time) domain.Order {
	if o.Status == "" {
		o.Status = domain.OrderStatusPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now()
	}
	if o.GrandTotal == 0 && o.Subtotal > 0 {
		o.GrandTotal = o.Subtotal + o.VAT + o.Shipping
	}
	o.Items = domain.Snapshot(o.Items)
	return o
}

func clone(o domain.Order) domain.Order {
	o.Items = domain.Snapshot(o.Items)
	return o
}

package mockapi

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sakashimaa/etech-storefront/internal/domain"
)

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type orderRequest struct {
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

func (s *Server) listOrders(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid := userID(c)
	out := make([]domain.Order, 0)
	for _, rec := range s.orders {
		if rec.userID == uid {
			out = append(out, cloneOrder(rec.order))
		}
	}
	return data(c, fiber.StatusOK, out)
}

// createOrder snapshots current catalog prices. Client-sent totals are ignored.
func (s *Server) createOrder(c *fiber.Ctx) error {
	var req orderRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "error parsing body")
	}
	if len(req.Items) == 0 {
		return fail(c, fiber.StatusBadRequest, domain.ErrEmptyCart.Error())
	}
	if !req.Payment.Valid() {
		return fail(c, fiber.StatusBadRequest, domain.ErrInvalidPaymentMethod.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.CartItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return fail(c, fiber.StatusBadRequest, domain.ErrInvalidQuantity.Error())
		}
		product, ok := s.productByIDLocked(it.ProductID)
		if !ok {
			return fail(c, fiber.StatusBadRequest, fmt.Sprintf("product %s not found", it.ProductID))
		}
		items = append(items, domain.CartItem{ID: uuid.NewString(), Product: product, Quantity: it.Quantity})
	}

	totals := domain.ComputeTotals(domain.Subtotal(items))
	now := s.now()
	s.orderSeq++

	rec := &orderRecord{
		order: domain.Order{
			ID:         uuid.NewString(),
			Items:      items,
			Subtotal:   totals.Subtotal,
			VAT:        totals.VAT,
			Shipping:   totals.Shipping,
			GrandTotal: totals.GrandTotal,
			CreatedAt:  now,
			Status:     domain.OrderStatusPending,
			Address:    req.Address,
			Payment:    req.Payment,
		},
		userID:    userID(c),
		number:    fmt.Sprintf("ET%06d", s.orderSeq),
		updatedAt: now,
	}
	s.orders = append([]*orderRecord{rec}, s.orders...)

	return data(c, fiber.StatusCreated, cloneOrder(rec.order))
}

func (s *Server) updateOrderStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "error parsing body")
	}
	if !req.Status.Valid() {
		return fail(c, fiber.StatusBadRequest, domain.ErrInvalidStatus.Error())
	}

	role, _ := c.Locals("role").(domain.Role)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.orderLocked(c.Params("id"))
	if rec == nil || (role != domain.RoleAdmin && rec.userID != userID(c)) {
		return fail(c, fiber.StatusNotFound, "order not found")
	}

	if role != domain.RoleAdmin && req.Status != domain.OrderStatusCancelled {
		return fail(c, fiber.StatusForbidden, "customers may only cancel orders")
	}

	if !rec.order.Status.CanTransitionTo(req.Status) {
		return fail(c, fiber.StatusConflict, fmt.Sprintf("cannot change status from %s to %s", rec.order.Status, req.Status))
	}

	rec.order.Status = req.Status
	rec.updatedAt = s.now()
	return data(c, fiber.StatusOK, cloneOrder(rec.order))
}

func (s *Server) orderLocked(id string) *orderRecord {
	for _, rec := range s.orders {
		if rec.order.ID == id {
			return rec
		}
	}
	return nil
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = domain.Snapshot(o.Items)
	return o
}

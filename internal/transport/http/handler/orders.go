package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/etech-storefront/internal/domain"
	"github.com/sakashimaa/etech-storefront/internal/orders"
	"github.com/sakashimaa/etech-storefront/internal/transport/http/middleware"
	"github.com/sakashimaa/etech-storefront/pkg/mylogger"
	"go.uber.org/zap"
)

const OrdersPath = "/orders"

type OrderHandler struct {
	logger *zap.Logger
}

func NewOrderHandler(logger *zap.Logger) *OrderHandler {
	return &OrderHandler{logger: logger}
}

// CheckoutInput falls back to the user's default address when Address is omitted.
type CheckoutInput struct {
	Address *domain.Address      `json:"address"`
	Payment domain.PaymentMethod `json:"payment"`
}

func (h *OrderHandler) Summary(c *fiber.Ctx) error {
	items := middleware.Session(c).Identity.Cart().Items()

	return reply(c, fiber.StatusOK, fiber.Map{
		"items":  items,
		"totals": domain.ComputeTotals(domain.Subtotal(items)),
	})
}

func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	var input CheckoutInput
	if err := c.BodyParser(&input); err != nil {
		mylogger.Warn(c.UserContext(), h.logger, "failed to parse body in checkout", zap.Error(err))
		return badRequest(c, "error parsing body")
	}

	sess := middleware.Session(c)
	ctx := c.UserContext()

	address, ok := checkoutAddress(input, sess.Identity.User())
	if !ok {
		return badRequest(c, "address is required")
	}

	items := sess.Identity.Cart().Items()
	totals := domain.ComputeTotals(domain.Subtotal(items))

	id, err := sess.Identity.Orders().AddOrder(ctx, items, totals.Subtotal, address, input.Payment, totals.VAT, totals.Shipping)
	if err != nil {
		return replyError(c, h.logger, "checkout", err)
	}

	if err := sess.Identity.Cart().Clear(ctx); err != nil {
		mylogger.Warn(ctx, h.logger, "failed to clear cart after checkout", zap.String("order_id", id), zap.Error(err))
	}

	order, _ := sess.Identity.Orders().Get(id)
	sess.Redirect.Navigate(ctx, OrdersPath)

	return reply(c, fiber.StatusCreated, fiber.Map{
		"orderId": id,
		"order":   order,
	})
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	list, err := middleware.Session(c).Identity.Orders().Fetch(c.UserContext())
	if err != nil {
		return replyError(c, h.logger, "list orders", err)
	}
	if list == nil {
		list = []domain.Order{}
	}

	return reply(c, fiber.StatusOK, fiber.Map{"orders": list})
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	store := middleware.Session(c).Identity.Orders()

	order, err := lookupOrder(c, store, c.Params("id"))
	if err != nil {
		return replyError(c, h.logger, "get order", err)
	}

	return reply(c, fiber.StatusOK, fiber.Map{
		"order":     order,
		"itemCount": order.ItemCount(),
	})
}

func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	store := middleware.Session(c).Identity.Orders()
	id := c.Params("id")

	if _, err := lookupOrder(c, store, id); err != nil {
		return replyError(c, h.logger, "cancel order", err)
	}
	if err := store.Cancel(c.UserContext(), id); err != nil {
		return replyError(c, h.logger, "cancel order", err)
	}

	order, _ := store.Get(id)
	return reply(c, fiber.StatusOK, fiber.Map{"order": order})
}

// lookupOrder reads the session's order list, fetching it once on a miss.
func lookupOrder(c *fiber.Ctx, store *orders.Store, id string) (domain.Order, error) {
	if order, ok := store.Get(id); ok {
		return order, nil
	}
	if _, err := store.Fetch(c.UserContext()); err != nil {
		return domain.Order{}, err
	}
	if order, ok := store.Get(id); ok {
		return order, nil
	}
	return domain.Order{}, orders.ErrOrderNotFound
}

func checkoutAddress(input CheckoutInput, user *domain.User) (domain.Address, bool) {
	if input.Address != nil {
		return *input.Address, true
	}
	if user == nil {
		return domain.Address{}, false
	}
	return user.DefaultAddress()
}

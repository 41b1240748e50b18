package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/etech-storefront/internal/catalog"
	"github.com/sakashimaa/etech-storefront/internal/domain"
	"github.com/sakashimaa/etech-storefront/internal/transport/http/middleware"
	"github.com/sakashimaa/etech-storefront/pkg/mylogger"
	"github.com/sakashimaa/etech-storefront/pkg/utils"
	"go.uber.org/zap"
)

type CartHandler struct {
	catalog *catalog.Cache
	logger  *zap.Logger
}

func NewCartHandler(cache *catalog.Cache, logger *zap.Logger) *CartHandler {
	return &CartHandler{catalog: cache, logger: logger}
}

type AddToCartInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type SetQuantityInput struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

func (h *CartHandler) Get(c *fiber.Ctx) error {
	store := middleware.Session(c).Identity.Cart()

	items, err := store.Fetch(c.UserContext())
	if err != nil {
		return replyError(c, h.logger, "get cart", err)
	}

	return reply(c, fiber.StatusOK, cartBody(items))
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	var input AddToCartInput
	if err := c.BodyParser(&input); err != nil {
		mylogger.Warn(c.UserContext(), h.logger, "failed to parse body in add to cart", zap.Error(err))
		return badRequest(c, "error parsing body")
	}
	if err := utils.Validator().Struct(input); err != nil {
		return replyError(c, h.logger, "add to cart", err)
	}

	if _, err := h.catalog.FetchProducts(c.UserContext()); err != nil && len(h.catalog.Products()) == 0 {
		return replyError(c, h.logger, "add to cart", err)
	}
	product, ok := h.catalog.Product(input.ProductID)
	if !ok {
		return reply(c, fiber.StatusNotFound, fiber.Map{"error": "product not found"})
	}

	store := middleware.Session(c).Identity.Cart()
	row, err := store.AddItem(c.UserContext(), product, input.Quantity)
	if err != nil {
		return replyError(c, h.logger, "add to cart", err)
	}

	body := cartBody(store.Items())
	body["item"] = row
	return reply(c, fiber.StatusOK, body)
}

func (h *CartHandler) SetQuantity(c *fiber.Ctx) error {
	var input SetQuantityInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "error parsing body")
	}
	if err := utils.Validator().Struct(input); err != nil {
		return replyError(c, h.logger, "set quantity", err)
	}

	store := middleware.Session(c).Identity.Cart()
	if err := store.SetQuantity(c.UserContext(), c.Params("productId"), input.Quantity); err != nil {
		return replyError(c, h.logger, "set quantity", err)
	}

	return reply(c, fiber.StatusOK, cartBody(store.Items()))
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	store := middleware.Session(c).Identity.Cart()
	if err := store.RemoveItem(c.UserContext(), c.Params("productId")); err != nil {
		return replyError(c, h.logger, "remove cart item", err)
	}

	return reply(c, fiber.StatusOK, cartBody(store.Items()))
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	store := middleware.Session(c).Identity.Cart()
	if err := store.Clear(c.UserContext()); err != nil {
		return replyError(c, h.logger, "clear cart", err)
	}

	return reply(c, fiber.StatusOK, cartBody(nil))
}

func cartBody(items []domain.CartItem) fiber.Map {
	if items == nil {
		items = []domain.CartItem{}
	}
	return fiber.Map{
		"items": items,
		"total": domain.Subtotal(items),
	}
}

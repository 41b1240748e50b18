package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/etech-storefront/internal/catalog"
	"github.com/sakashimaa/etech-storefront/internal/domain"
	"github.com/sakashimaa/etech-storefront/internal/events"
	"github.com/sakashimaa/etech-storefront/internal/transport/http/middleware"
	"github.com/sakashimaa/etech-storefront/pkg/mylogger"
	pkgdomain "github.com/sakashimaa/etech-storefront/pkg/domain"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalog *catalog.Cache
	events  events.Publisher
	logger  *zap.Logger
}

func NewCatalogHandler(cache *catalog.Cache, productEvents events.Publisher, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: cache,
		events:  productEvents,
		logger:  logger,
	}
}

type categoryView struct {
	domain.Category
	Label string `json:"label"`
}

func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	filters, err := parseFilters(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if _, err := h.catalog.FetchProducts(c.UserContext()); err != nil && len(h.catalog.Products()) == 0 {
		return replyError(c, h.logger, "list products", err)
	}

	products := h.catalog.FilteredProducts(filters, c.Query("q"))
	return reply(c, fiber.StatusOK, fiber.Map{
		"products":  products,
		"total":     len(products),
		"lastError": h.catalog.Err(),
	})
}

func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	if _, err := h.catalog.FetchProducts(c.UserContext()); err != nil && len(h.catalog.Products()) == 0 {
		return replyError(c, h.logger, "get product", err)
	}

	product, ok := h.catalog.Product(c.Params("id"))
	if !ok {
		return reply(c, fiber.StatusNotFound, fiber.Map{"error": "product not found"})
	}
	return reply(c, fiber.StatusOK, fiber.Map{"product": product})
}

func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.FetchCategories(c.UserContext())
	if err != nil && len(categories) == 0 {
		return replyError(c, h.logger, "list categories", err)
	}

	views := make([]categoryView, len(categories))
	for i, cat := range categories {
		views[i] = categoryView{Category: cat, Label: catalog.TranslateCategory(cat.Name)}
	}
	return reply(c, fiber.StatusOK, fiber.Map{"categories": views})
}

func (h *CatalogHandler) ListBrands(c *fiber.Ctx) error {
	brands, err := h.catalog.FetchBrands(c.UserContext())
	if err != nil && len(brands) == 0 {
		return replyError(c, h.logger, "list brands", err)
	}
	return reply(c, fiber.StatusOK, fiber.Map{"brands": brands})
}

func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var input domain.ProductInput
	if err := c.BodyParser(&input); err != nil {
		mylogger.Warn(c.UserContext(), h.logger, "failed to parse body in create product", zap.Error(err))
		return badRequest(c, "error parsing body")
	}

	product, err := h.catalog.AddProduct(c.UserContext(), input)
	if err != nil {
		return replyError(c, h.logger, "create product", err)
	}

	h.publish(c, pkgdomain.EventProductCreated, product.ID)
	return reply(c, fiber.StatusCreated, fiber.Map{"product": product})
}

func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	var patch domain.ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "error parsing body")
	}

	product, err := h.catalog.UpdateProduct(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return replyError(c, h.logger, "update product", err)
	}

	h.publish(c, pkgdomain.EventProductUpdated, product.ID)
	return reply(c, fiber.StatusOK, fiber.Map{"product": product})
}

func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := middleware.Session(c).Admin.DeleteProduct(c.UserContext(), id); err != nil {
		return replyError(c, h.logger, "delete product", err)
	}

	h.publish(c, pkgdomain.EventProductDeleted, id)
	return reply(c, fiber.StatusOK, fiber.Map{"status": "success"})
}

func (h *CatalogHandler) publish(c *fiber.Ctx, event, productID string) {
	h.events.Publish(c.UserContext(), event, productID, pkgdomain.ProductChangedEvent{ProductID: productID})
}

func parseFilters(c *fiber.Ctx) (catalog.Filters, error) {
	filters := catalog.Filters{
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		Sort:     catalog.SortKey(c.Query("sort")),
	}
	if !filters.Sort.Valid() {
		return filters, fiber.NewError(fiber.StatusBadRequest, "sort must be one of new, low, high, best")
	}

	var err error
	if filters.Min, err = priceParam(c, "min"); err != nil {
		return filters, err
	}
	if filters.Max, err = priceParam(c, "max"); err != nil {
		return filters, err
	}
	return filters, nil
}

func priceParam(c *fiber.Ctx, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, name+" must be a non-negative integer")
	}
	return &v, nil
}

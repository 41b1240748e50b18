package mockapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sakashimaa/etech-storefront/internal/domain"
)

type cartAddRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) getCart(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return data(c, fiber.StatusOK, domain.Snapshot(s.carts[userID(c)]))
}

// addToCart merges the quantity into the user's existing row for the product.
func (s *Server) addToCart(c *fiber.Ctx) error {
	var req cartAddRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "error parsing body")
	}
	if req.Quantity <= 0 {
		return fail(c, fiber.StatusBadRequest, domain.ErrInvalidQuantity.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.productByIDLocked(req.ProductID)
	if !ok {
		return fail(c, fiber.StatusNotFound, "product not found")
	}

	uid := userID(c)
	items := s.carts[uid]
	for i, item := range items {
		if item.Product.ID == product.ID {
			items[i].Quantity += req.Quantity
			items[i].Product = product
			return data(c, fiber.StatusOK, items[i])
		}
	}

	row := domain.CartItem{ID: uuid.NewString(), Product: product, Quantity: req.Quantity}
	s.carts[uid] = append([]domain.CartItem{row}, items...)
	return data(c, fiber.StatusCreated, row)
}

func (s *Server) setCartQuantity(c *fiber.Ctx) error {
	var req cartQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "error parsing body")
	}
	if req.Quantity <= 0 {
		return fail(c, fiber.StatusBadRequest, domain.ErrInvalidQuantity.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID(c)]
	for i, item := range items {
		if item.ID == c.Params("id") {
			items[i].Quantity = req.Quantity
			return data(c, fiber.StatusOK, items[i])
		}
	}

	return fail(c, fiber.StatusNotFound, "cart item not found")
}

func (s *Server) removeCartRow(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid := userID(c)
	items := s.carts[uid]
	for i, item := range items {
		if item.ID == c.Params("id") {
			s.carts[uid] = append(items[:i:i], items[i+1:]...)
			return data(c, fiber.StatusOK, nil)
		}
	}

	return fail(c, fiber.StatusNotFound, "cart item not found")
}

func (s *Server) clearCart(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, userID(c))
	return data(c, fiber.StatusOK, nil)
}

// CartQuantity reports the server-side quantity of productID in the user's cart.
func (s *Server) CartQuantity(userID, productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.carts[userID] {
		if item.Product.ID == productID {
			return item.Quantity
		}
	}
	return 0
}

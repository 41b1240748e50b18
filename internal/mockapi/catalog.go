package mockapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sakashimaa/etech-storefront/internal/domain"
)

type productRequest struct {
	Name        string  `json:"name"`
	Price       int64   `json:"price"`
	CategoryID  string  `json:"categoryId"`
	BrandID     string  `json:"brandId"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Rating      float64 `json:"rating"`
	IsNew       bool    `json:"isNew"`
	IsSale      bool    `json:"isSale"`
	Stock       *int64  `json:"stock"`
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) listProducts(c *fiber.Ctx) error {
	s.mu.Lock()
	out := make([]domain.Product, len(s.products))
	for i, p := range s.products {
		out[i] = p.Clone()
	}
	s.mu.Unlock()

	return data(c, fiber.StatusOK, out)
}

func (s *Server) listCategories(c *fiber.Ctx) error {
	s.mu.Lock()
	out := append([]domain.Category{}, s.categories...)
	s.mu.Unlock()

	return data(c, fiber.StatusOK, out)
}

func (s *Server) listBrands(c *fiber.Ctx) error {
	s.mu.Lock()
	out := append([]domain.Brand{}, s.brands...)
	s.mu.Unlock()

	return data(c, fiber.StatusOK, out)
}

func (s *Server) createProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "error parsing body")
	}
	if strings.TrimSpace(req.Name) == "" || req.Price < 0 {
		return fail(c, fiber.StatusBadRequest, "name and non-negative price are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := domain.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Price:       req.Price,
		Image:       req.Image,
		Description: req.Description,
		Rating:      req.Rating,
		IsNew:       req.IsNew,
		IsSale:      req.IsSale,
		Stock:       req.Stock,
	}

	if req.CategoryID != "" {
		cat, ok := s.categoryByIDLocked(req.CategoryID)
		if !ok {
			return fail(c, fiber.StatusBadRequest, "unknown category")
		}
		p.CategoryID, p.Category = cat.ID, cat.Name
	}
	if req.BrandID != "" {
		b, ok := s.brandByIDLocked(req.BrandID)
		if !ok {
			return fail(c, fiber.StatusBadRequest, "unknown brand")
		}
		p.BrandID, p.Brand = b.ID, b.Name
	}

	s.products = append([]domain.Product{p}, s.products...)
	return data(c, fiber.StatusCreated, p)
}

func (s *Server) updateProduct(c *fiber.Ctx) error {
	var patch domain.ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		return fail(c, fiber.StatusBadRequest, "error parsing body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.products {
		if p.ID != c.Params("id") {
			continue
		}

		updated := p.Apply(patch)
		if patch.CategoryID != nil {
			if cat, ok := s.categoryByIDLocked(*patch.CategoryID); ok {
				updated.Category = cat.Name
			}
		}
		if patch.BrandID != nil {
			if b, ok := s.brandByIDLocked(*patch.BrandID); ok {
				updated.Brand = b.Name
			}
		}
		s.products[i] = updated
		return data(c, fiber.StatusOK, updated)
	}

	return fail(c, fiber.StatusNotFound, "product not found")
}

func (s *Server) deleteProduct(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.products {
		if p.ID == c.Params("id") {
			s.products = append(s.products[:i:i], s.products[i+1:]...)
			return data(c, fiber.StatusOK, nil)
		}
	}

	return fail(c, fiber.StatusNotFound, "product not found")
}

func (s *Server) getOrCreateCategory(c *fiber.Ctx) error {
	var req nameRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return fail(c, fiber.StatusBadRequest, "name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return data(c, fiber.StatusOK, s.categoryByNameLocked(req.Name))
}

func (s *Server) getOrCreateBrand(c *fiber.Ctx) error {
	var req nameRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return fail(c, fiber.StatusBadRequest, "name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return data(c, fiber.StatusOK, s.brandByNameLocked(req.Name))
}

func (s *Server) categoryByNameLocked(name string) domain.Category {
	name = strings.TrimSpace(name)
	for _, cat := range s.categories {
		if strings.EqualFold(cat.Name, name) {
			return cat
		}
	}

	cat := domain.Category{ID: uuid.NewString(), Name: name}
	s.categories = append(s.categories, cat)
	return cat
}

func (s *Server) brandByNameLocked(name string) domain.Brand {
	name = strings.TrimSpace(name)
	for _, b := range s.brands {
		if strings.EqualFold(b.Name, name) {
			return b
		}
	}

	b := domain.Brand{ID: uuid.NewString(), Name: name}
	s.brands = append(s.brands, b)
	return b
}

func (s *Server) categoryByIDLocked(id string) (domain.Category, bool) {
	for _, cat := range s.categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return domain.Category{}, false
}

func (s *Server) brandByIDLocked(id string) (domain.Brand, bool) {
	for _, b := range s.brands {
		if b.ID == id {
			return b, true
		}
	}
	return domain.Brand{}, false
}

func (s *Server) productByIDLocked(id string) (domain.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return domain.Product{}, false
}

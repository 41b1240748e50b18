package mockapi

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/etech-storefront/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const recentOrdersLimit = 5

func (s *Server) dashboard(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := domain.AdminStats{
		TotalProducts: len(s.products),
		TotalOrders:   len(s.orders),
		StatusCounts:  make(map[string]int),
	}

	sold := make(map[string]*domain.TopSellingProduct)
	for _, rec := range s.orders {
		o := rec.order
		stats.StatusCounts[string(o.Status)]++
		if o.Status == domain.OrderStatusPending {
			stats.PendingOrders++
		}
		if o.Status == domain.OrderStatusCancelled {
			continue
		}
		stats.TotalRevenue += o.GrandTotal

		for _, item := range o.Items {
			top, ok := sold[item.Product.ID]
			if !ok {
				top = &domain.TopSellingProduct{ID: item.Product.ID, Name: item.Product.Name, Image: item.Product.Image}
				sold[item.Product.ID] = top
			}
			top.TotalSold += item.Quantity
			top.TotalRevenue += item.LineTotal()
		}
	}

	for _, top := range sold {
		stats.TopSellingProducts = append(stats.TopSellingProducts, *top)
	}
	sort.Slice(stats.TopSellingProducts, func(i, j int) bool {
		a, b := stats.TopSellingProducts[i], stats.TopSellingProducts[j]
		if a.TotalSold != b.TotalSold {
			return a.TotalSold > b.TotalSold
		}
		return a.ID < b.ID
	})

	for i, rec := range s.orders {
		if i == recentOrdersLimit {
			break
		}
		customer := s.customerLocked(rec)
		stats.RecentOrders = append(stats.RecentOrders, domain.RecentOrder{
			ID:          rec.order.ID,
			OrderNumber: rec.number,
			Status:      rec.order.Status,
			Total:       rec.order.GrandTotal,
			Customer:    customer.Name,
			Email:       customer.Email,
			CreatedAt:   rec.order.CreatedAt,
		})
	}

	return data(c, fiber.StatusOK, stats)
}

func (s *Server) adminOrders(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.AdminOrder, 0, len(s.orders))
	for _, rec := range s.orders {
		out = append(out, s.adminOrderLocked(rec))
	}
	return data(c, fiber.StatusOK, out)
}

func (s *Server) adminDeleteOrder(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.orders {
		if rec.order.ID == c.Params("id") {
			s.orders = append(s.orders[:i:i], s.orders[i+1:]...)
			return data(c, fiber.StatusOK, nil)
		}
	}
	return fail(c, fiber.StatusNotFound, "order not found")
}

func (s *Server) adminUsers(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.AdminUser, 0, len(s.users))
	for _, rec := range s.users {
		out = append(out, toAdminUser(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Email < out[j].Email
	})
	return data(c, fiber.StatusOK, out)
}

func (s *Server) adminCreateUser(c *fiber.Ctx) error {
	var req domain.AdminUserInput
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "error parsing body")
	}
	if req.Email == "" || len(req.Password) < 8 {
		return fail(c, fiber.StatusBadRequest, "email and a password of at least 8 characters are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to hash password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[strings.ToLower(req.Email)]; exists {
		return fail(c, fiber.StatusConflict, ErrUserAlreadyExists.Error())
	}

	rec := s.insertUserLocked(domain.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      roleOrDefault(req.Role),
	}, hash)
	return data(c, fiber.StatusCreated, toAdminUser(rec))
}

func (s *Server) adminUpdateUser(c *fiber.Ctx) error {
	var req domain.AdminUserInput
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "error parsing body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[c.Params("id")]
	if !ok {
		return fail(c, fiber.StatusNotFound, ErrUserNotFound.Error())
	}

	if req.Email != "" && !strings.EqualFold(req.Email, rec.user.Email) {
		if _, exists := s.emails[strings.ToLower(req.Email)]; exists {
			return fail(c, fiber.StatusConflict, ErrUserAlreadyExists.Error())
		}
		delete(s.emails, strings.ToLower(rec.user.Email))
		s.emails[strings.ToLower(req.Email)] = rec.user.ID
		rec.user.Email = req.Email
	}

	rec.user.FirstName = req.FirstName
	rec.user.LastName = req.LastName
	rec.user.Phone = req.Phone
	rec.user.Role = roleOrDefault(req.Role)
	rec.updatedAt = s.now()

	return data(c, fiber.StatusOK, toAdminUser(rec))
}

func (s *Server) adminDeleteUser(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[c.Params("id")]
	if !ok {
		return fail(c, fiber.StatusNotFound, ErrUserNotFound.Error())
	}

	delete(s.users, rec.user.ID)
	delete(s.emails, strings.ToLower(rec.user.Email))
	delete(s.carts, rec.user.ID)
	return data(c, fiber.StatusOK, nil)
}

func (s *Server) customerLocked(rec *orderRecord) domain.Customer {
	customer := domain.Customer{Name: rec.order.Address.FullName()}
	if u, ok := s.users[rec.userID]; ok {
		customer.Email = u.user.Email
		if customer.Name == "" {
			customer.Name = strings.TrimSpace(u.user.FirstName + " " + u.user.LastName)
		}
	}
	return customer
}

func (s *Server) adminOrderLocked(rec *orderRecord) domain.AdminOrder {
	o := rec.order
	items := make([]domain.AdminOrderItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = domain.AdminOrderItem{
			ID: item.ID,
			Product: domain.AdminOrderProduct{
				ID:    item.Product.ID,
				Name:  item.Product.Name,
				Price: item.Product.Price,
				Image: item.Product.Image,
				Brand: item.Product.Brand,
			},
			Quantity:   item.Quantity,
			TotalPrice: item.LineTotal(),
		}
	}

	return domain.AdminOrder{
		ID:          o.ID,
		OrderNumber: rec.number,
		Status:      o.Status,
		Subtotal:    o.Subtotal,
		VAT:         o.VAT,
		Shipping:    o.Shipping,
		GrandTotal:  o.GrandTotal,
		Payment:     o.Payment,
		Address:     o.Address,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   rec.updatedAt,
		Customer:    s.customerLocked(rec),
		Items:       items,
	}
}

func toAdminUser(rec *userRecord) domain.AdminUser {
	return domain.AdminUser{
		ID:        rec.user.ID,
		Email:     rec.user.Email,
		FirstName: rec.user.FirstName,
		LastName:  rec.user.LastName,
		Phone:     rec.user.Phone,
		AvatarURL: rec.user.AvatarURL,
		Role:      rec.user.Role,
		CreatedAt: rec.createdAt,
		UpdatedAt: rec.updatedAt,
	}
}

func roleOrDefault(role domain.Role) domain.Role {
	if role == domain.RoleAdmin {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}

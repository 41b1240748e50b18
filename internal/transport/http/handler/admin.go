package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/etech-storefront/internal/admin"
	"github.com/sakashimaa/etech-storefront/internal/domain"
	"github.com/sakashimaa/etech-storefront/internal/transport/http/middleware"
	"github.com/sakashimaa/etech-storefront/pkg/mylogger"
	"github.com/sakashimaa/etech-storefront/pkg/utils"
	"go.uber.org/zap"
)

type AdminHandler struct {
	logger *zap.Logger
}

func NewAdminHandler(logger *zap.Logger) *AdminHandler {
	return &AdminHandler{logger: logger}
}

type StatusInput struct {
	Status domain.OrderStatus `json:"status" validate:"required"`
}

func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := middleware.Session(c).Admin.FetchStats(c.UserContext())
	if err != nil {
		return replyError(c, h.logger, "fetch dashboard", err)
	}

	return reply(c, fiber.StatusOK, fiber.Map{"stats": stats})
}

func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	store := middleware.Session(c).Admin
	if _, err := store.FetchOrders(c.UserContext()); err != nil {
		return replyError(c, h.logger, "list admin orders", err)
	}

	status := c.Query("status", admin.StatusAll)
	list := store.FilterOrders(c.Query("q"), status)
	if list == nil {
		list = []domain.AdminOrder{}
	}

	return reply(c, fiber.StatusOK, fiber.Map{
		"orders": list,
		"total":  len(list),
	})
}

func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	var input StatusInput
	if err := c.BodyParser(&input); err != nil {
		mylogger.Warn(c.UserContext(), h.logger, "failed to parse body in update order status", zap.Error(err))
		return badRequest(c, "error parsing body")
	}
	if err := utils.Validator().Struct(input); err != nil {
		return replyError(c, h.logger, "update order status", err)
	}

	if err := middleware.Session(c).Admin.UpdateOrderStatus(c.UserContext(), c.Params("id"), input.Status); err != nil {
		return replyError(c, h.logger, "update order status", err)
	}

	return reply(c, fiber.StatusOK, fiber.Map{"status": input.Status})
}

func (h *AdminHandler) DeleteOrder(c *fiber.Ctx) error {
	if err := middleware.Session(c).Admin.DeleteOrder(c.UserContext(), c.Params("id")); err != nil {
		return replyError(c, h.logger, "delete order", err)
	}

	return reply(c, fiber.StatusOK, fiber.Map{"status": "success"})
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := middleware.Session(c).Admin.FetchUsers(c.UserContext())
	if err != nil {
		return replyError(c, h.logger, "list users", err)
	}
	if users == nil {
		users = []domain.AdminUser{}
	}

	return reply(c, fiber.StatusOK, fiber.Map{"users": users})
}

func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var input domain.AdminUserInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "error parsing body")
	}

	user, err := middleware.Session(c).Admin.CreateUser(c.UserContext(), input)
	if err != nil {
		return replyError(c, h.logger, "create user", err)
	}

	return reply(c, fiber.StatusCreated, fiber.Map{"user": user})
}

func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	var input domain.AdminUserInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "error parsing body")
	}

	user, err := middleware.Session(c).Admin.UpdateUser(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return replyError(c, h.logger, "update user", err)
	}

	return reply(c, fiber.StatusOK, fiber.Map{"user": user})
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	if err := middleware.Session(c).Admin.DeleteUser(c.UserContext(), c.Params("id")); err != nil {
		return replyError(c, h.logger, "delete user", err)
	}

	return reply(c, fiber.StatusOK, fiber.Map{"status": "success"})
}

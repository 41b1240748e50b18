package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/etech-storefront/internal/domain"
	"github.com/sakashimaa/etech-storefront/internal/transport/http/middleware"
	"github.com/sakashimaa/etech-storefront/pkg/mylogger"
	"go.uber.org/zap"
)

type SessionHandler struct {
	logger *zap.Logger
}

func NewSessionHandler(logger *zap.Logger) *SessionHandler {
	return &SessionHandler{logger: logger}
}

func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var input domain.Credentials
	if err := c.BodyParser(&input); err != nil {
		mylogger.Warn(c.UserContext(), h.logger, "failed to parse body in login", zap.Error(err))
		return badRequest(c, "error parsing body")
	}

	user, err := middleware.Session(c).Identity.Login(c.UserContext(), input.Email, input.Password)
	if err != nil {
		return replyError(c, h.logger, "login", err)
	}

	return reply(c, fiber.StatusOK, fiber.Map{"user": user})
}

func (h *SessionHandler) Register(c *fiber.Ctx) error {
	var input domain.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		mylogger.Warn(c.UserContext(), h.logger, "failed to parse body in register", zap.Error(err))
		return badRequest(c, "error parsing body")
	}

	user, err := middleware.Session(c).Identity.Register(c.UserContext(), input)
	if err != nil {
		return replyError(c, h.logger, "register", err)
	}

	return reply(c, fiber.StatusCreated, fiber.Map{"user": user})
}

func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	if err := middleware.Session(c).Identity.Logout(c.UserContext()); err != nil {
		return replyError(c, h.logger, "logout", err)
	}

	return reply(c, fiber.StatusOK, fiber.Map{"status": "success"})
}

func (h *SessionHandler) Me(c *fiber.Ctx) error {
	sess := middleware.Session(c)
	user := sess.Identity.User()

	return reply(c, fiber.StatusOK, fiber.Map{
		"user":          user,
		"authenticated": user != nil,
		"lastError":     sess.Identity.Err(),
	})
}

func (h *SessionHandler) UpdateProfile(c *fiber.Ctx) error {
	var patch domain.UserPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "error parsing body")
	}

	user, err := middleware.Session(c).Identity.UpdateUser(c.UserContext(), patch)
	if err != nil {
		return replyError(c, h.logger, "update profile", err)
	}

	return reply(c, fiber.StatusOK, fiber.Map{"user": user})
}

package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/etech-storefront/internal/cart"
	"github.com/sakashimaa/etech-storefront/internal/domain"
	"github.com/sakashimaa/etech-storefront/internal/gateway"
	"github.com/sakashimaa/etech-storefront/internal/orders"
	"github.com/sakashimaa/etech-storefront/internal/transport/http/middleware"
	"github.com/sakashimaa/etech-storefront/pkg/mylogger"
	"github.com/sakashimaa/etech-storefront/pkg/utils"
	"go.uber.org/zap"
)

// reply writes body and attaches any navigation the session asked for.
func reply(c *fiber.Ctx, status int, body fiber.Map) error {
	if sess := middleware.Session(c); sess != nil {
		if path := sess.Redirect.Take(); path != "" {
			c.Set(middleware.RedirectHeader, path)
			body["redirect"] = path
		}
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return reply(c, fiber.StatusBadRequest, fiber.Map{"error": msg})
}

func replyError(c *fiber.Ctx, logger *zap.Logger, op string, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return reply(c, fiber.StatusBadRequest, fiber.Map{
			"error":  "validation failed",
			"fields": utils.FormatValidationError(err),
		})
	}

	status := StatusFromError(err)
	if status >= fiber.StatusInternalServerError {
		mylogger.Error(c.UserContext(), logger, op+" failed", zap.Int("http_code", status), zap.Error(err))
	} else {
		mylogger.Warn(c.UserContext(), logger, op+" failed", zap.Int("http_code", status), zap.Error(err))
	}

	return reply(c, status, fiber.Map{"error": gateway.Message(err)})
}

// StatusFromError maps store and gateway errors onto the status the UI receives.
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, gateway.ErrUnauthorized), errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, gateway.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, gateway.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, orders.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrCancelNotAllowed),
		errors.Is(err, orders.ErrIdentityChanged),
		errors.Is(err, cart.ErrIdentityChanged):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPaymentMethod),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrEmptyCart):
		return http.StatusBadRequest
	}

	if code := gateway.StatusCode(err); code != 0 {
		if code >= http.StatusInternalServerError {
			return http.StatusBadGateway
		}
		return code
	}

	return http.StatusInternalServerError
}

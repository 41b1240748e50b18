package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sakashimaa/etech-storefront/internal/app"
	"github.com/sakashimaa/etech-storefront/internal/gateway"
	"github.com/sakashimaa/etech-storefront/pkg/mylogger"
)

const (
	SessionHeader  = "X-Session-ID"
	SessionCookie  = "etech_sid"
	RedirectHeader = "X-Redirect"

	sessionLocal = "session"
)

// NewSessionMiddleware resolves the UI session and binds it to the request context as the backend caller.
func NewSessionMiddleware(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(SessionHeader)
		if id == "" {
			id = c.Cookies(SessionCookie)
		}
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(SessionHeader, id)
		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})

		ctx := mylogger.WithSessionID(c.UserContext(), id)
		sess := a.Session(ctx, id)

		c.SetUserContext(gateway.WithAuth(ctx, sess.Identity))
		c.Locals(sessionLocal, sess)

		return c.Next()
	}
}

func Session(c *fiber.Ctx) *app.Session {
	sess, _ := c.Locals(sessionLocal).(*app.Session)
	return sess
}

// NewAuthMiddleware rejects requests from sessions without a signed-in user.
func NewAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := Session(c)
		if sess == nil || sess.Identity.User() == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: login required"})
		}
		return c.Next()
	}
}

func NewAdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := Session(c)
		if sess == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: login required"})
		}

		user := sess.Identity.User()
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: login required"})
		}
		if !user.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin role required"})
		}

		return c.Next()
	}
}

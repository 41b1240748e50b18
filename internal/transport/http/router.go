package http

import (
	"errors"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sakashimaa/etech-storefront/internal/app"
	"github.com/sakashimaa/etech-storefront/internal/transport/http/handler"
	"github.com/sakashimaa/etech-storefront/internal/transport/http/middleware"
	"github.com/sakashimaa/etech-storefront/pkg/config"
	"github.com/sakashimaa/etech-storefront/pkg/mylogger"
	"go.uber.org/zap"
)

type Handlers struct {
	Session *handler.SessionHandler
	Catalog *handler.CatalogHandler
	Cart    *handler.CartHandler
	Order   *handler.OrderHandler
	Admin   *handler.AdminHandler
	Report  *handler.ReportHandler
}

func NewHandlers(a *app.App, cfg *config.Config, logger *zap.Logger) *Handlers {
	return &Handlers{
		Session: handler.NewSessionHandler(logger),
		Catalog: handler.NewCatalogHandler(a.Catalog(), a.ProductEvents(), logger),
		Cart:    handler.NewCartHandler(a.Catalog(), logger),
		Order:   handler.NewOrderHandler(logger),
		Admin:   handler.NewAdminHandler(logger),
		Report:  handler.NewReportHandler(cfg.Reports.Timezone, logger),
	}
}

// NewServer builds the storefront HTTP app with its middleware stack and routes.
func NewServer(a *app.App, cfg *config.Config, logger *zap.Logger) *fiber.App {
	server := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTP.Timeout,
		WriteTimeout: cfg.HTTP.Timeout,
		ErrorHandler: errorHandler(logger),
	})

	server.Use(otelfiber.Middleware())

	if cfg.Limiter.Max > 0 {
		server.Use(limiter.New(limiter.Config{
			Max:        cfg.Limiter.Max,
			Expiration: cfg.Limiter.Expiration,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			Next: func(c *fiber.Ctx) bool {
				return c.Path() == "/health" || c.Path() == "/metrics"
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Too many requests. Try again later.",
				})
			},
		}))
	}

	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "sessions": a.Len()})
	})
	server.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	RegisterRoutes(server, NewHandlers(a, cfg, logger), a)
	return server
}

func RegisterRoutes(server *fiber.App, h *Handlers, a *app.App) {
	api := server.Group("/api", middleware.NewSessionMiddleware(a))

	authGroup := api.Group("/auth")
	authGroup.Post("/login", h.Session.Login)
	authGroup.Post("/register", h.Session.Register)
	authGroup.Post("/logout", h.Session.Logout)
	authGroup.Get("/me", h.Session.Me)
	authGroup.Put("/profile", middleware.NewAuthMiddleware(), h.Session.UpdateProfile)

	api.Get("/products", h.Catalog.ListProducts)
	api.Get("/products/:id", h.Catalog.GetProduct)
	api.Get("/categories", h.Catalog.ListCategories)
	api.Get("/brands", h.Catalog.ListBrands)

	cart := api.Group("/cart", middleware.NewAuthMiddleware())
	cart.Get("", h.Cart.Get)
	cart.Post("", h.Cart.Add)
	cart.Delete("", h.Cart.Clear)
	cart.Put("/:productId", h.Cart.SetQuantity)
	cart.Delete("/:productId", h.Cart.Remove)

	checkout := api.Group("/checkout", middleware.NewAuthMiddleware())
	checkout.Get("/summary", h.Order.Summary)
	checkout.Post("", h.Order.Checkout)

	orders := api.Group("/orders", middleware.NewAuthMiddleware())
	orders.Get("", h.Order.List)
	orders.Get("/:id", h.Order.Get)
	orders.Post("/:id/cancel", h.Order.Cancel)

	adminGroup := api.Group("/admin", middleware.NewAdminMiddleware())
	adminGroup.Get("/dashboard", h.Admin.Dashboard)
	adminGroup.Get("/orders", h.Admin.ListOrders)
	adminGroup.Put("/orders/:id/status", h.Admin.UpdateOrderStatus)
	adminGroup.Delete("/orders/:id", h.Admin.DeleteOrder)
	adminGroup.Get("/users", h.Admin.ListUsers)
	adminGroup.Post("/users", h.Admin.CreateUser)
	adminGroup.Put("/users/:id", h.Admin.UpdateUser)
	adminGroup.Delete("/users/:id", h.Admin.DeleteUser)
	adminGroup.Post("/products", h.Catalog.CreateProduct)
	adminGroup.Put("/products/:id", h.Catalog.UpdateProduct)
	adminGroup.Delete("/products/:id", h.Catalog.DeleteProduct)
	adminGroup.Get("/reports", h.Report.Summary)
	adminGroup.Get("/reports/orders.csv", h.Report.ExportCSV)
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			mylogger.Error(c.UserContext(), logger, "unhandled request error", zap.String("path", c.Path()), zap.Error(err))
		}

		msg := "internal server error"
		if fe != nil {
			msg = fe.Message
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
}

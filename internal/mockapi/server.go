package mockapi

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sakashimaa/etech-storefront/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("email already registered")
	ErrInvalidToken      = errors.New("invalid token")
)

type userRecord struct {
	user         domain.User
	passwordHash []byte
	createdAt    time.Time
	updatedAt    time.Time
}

type orderRecord struct {
	order     domain.Order
	userID    string
	number    string
	updatedAt time.Time
}

type Claims struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Server is an in-memory implementation of the storefront REST backend.
type Server struct {
	app      *fiber.App
	logger   *zap.Logger
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time

	mu         sync.Mutex
	products   []domain.Product
	categories []domain.Category
	brands     []domain.Brand
	users      map[string]*userRecord
	emails     map[string]string
	carts      map[string][]domain.CartItem
	orders     []*orderRecord
	revoked    map[string]bool
	requests   map[string]int
	orderSeq   int
}

type Option func(*Server)

func WithSecret(secret string) Option {
	return func(s *Server) {
		s.secret = []byte(secret)
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func New(logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		logger:   logger,
		secret:   []byte("storefront-dev-secret"),
		tokenTTL: time.Hour,
		now:      time.Now,
		users:    make(map[string]*userRecord),
		emails:   make(map[string]string),
		carts:    make(map[string][]domain.CartItem),
		revoked:  make(map[string]bool),
		requests: make(map[string]int),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"message": err.Error()})
		},
	})
	s.routes()

	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.app)
}

// Requests reports how many times method+path was called.
func (s *Server) Requests(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.requests[method+" "+path]
}

func (s *Server) routes() {
	s.app.Use(s.countRequests)

	products := s.app.Group("/products")
	products.Get("", s.listProducts)
	products.Get("/categories", s.listCategories)
	products.Get("/brands", s.listBrands)
	products.Post("", s.requireAuth, s.requireAdmin, s.createProduct)
	products.Post("/categories", s.requireAuth, s.requireAdmin, s.getOrCreateCategory)
	products.Post("/brands", s.requireAuth, s.requireAdmin, s.getOrCreateBrand)

	auth := s.app.Group("/auth")
	auth.Post("/login", s.login)
	auth.Post("/register", s.register)
	auth.Get("/me", s.requireAuth, s.me)
	auth.Put("/profile", s.requireAuth, s.updateProfile)

	cart := s.app.Group("/cart", s.requireAuth)
	cart.Get("", s.getCart)
	cart.Post("", s.addToCart)
	cart.Delete("", s.clearCart)
	cart.Put("/:id", s.setCartQuantity)
	cart.Delete("/:id", s.removeCartRow)

	orders := s.app.Group("/orders", s.requireAuth)
	orders.Get("", s.listOrders)
	orders.Post("", s.createOrder)
	orders.Put("/:id/status", s.updateOrderStatus)

	admin := s.app.Group("/admin", s.requireAuth, s.requireAdmin)
	admin.Get("/dashboard", s.dashboard)
	admin.Get("/orders", s.adminOrders)
	admin.Delete("/orders/:id", s.adminDeleteOrder)
	admin.Get("/users", s.adminUsers)
	admin.Post("/users", s.adminCreateUser)
	admin.Put("/users/:id", s.adminUpdateUser)
	admin.Delete("/users/:id", s.adminDeleteUser)
	admin.Put("/products/:id", s.updateProduct)
	admin.Delete("/products/:id", s.deleteProduct)
}

func (s *Server) countRequests(c *fiber.Ctx) error {
	key := c.Method() + " " + c.Path()

	s.mu.Lock()
	s.requests[key]++
	s.mu.Unlock()

	return c.Next()
}

func (s *Server) requireAuth(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized: missed header"})
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized: Invalid header format"})
	}

	claims, err := s.validateToken(parts[1])
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized: Invalid token"})
	}

	s.mu.Lock()
	rec, ok := s.users[claims.UserID]
	s.mu.Unlock()
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized: missed user"})
	}

	c.Locals("userId", claims.UserID)
	c.Locals("role", rec.user.Role)
	return c.Next()
}

func (s *Server) requireAdmin(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(domain.Role)
	if role != domain.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "admin role required"})
	}
	return c.Next()
}

func (s *Server) IssueToken(userID string, role domain.Role) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// RevokeToken makes every later request with token fail with 401.
func (s *Server) RevokeToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revoked[token] = true
}

func (s *Server) validateToken(tokenString string) (*Claims, error) {
	s.mu.Lock()
	revoked := s.revoked[tokenString]
	s.mu.Unlock()
	if revoked {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// SeedUser registers a user directly. It is meant for fixtures.
func (s *Server) SeedUser(email, password string, role domain.Role, first, last string) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return domain.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[strings.ToLower(email)]; exists {
		return domain.User{}, ErrUserAlreadyExists
	}

	rec := s.insertUserLocked(domain.User{
		Email:     email,
		FirstName: first,
		LastName:  last,
		Role:      role,
	}, hash)
	return rec.user, nil
}

func (s *Server) insertUserLocked(user domain.User, hash []byte) *userRecord {
	user.ID = uuid.NewString()
	now := s.now()
	rec := &userRecord{user: user, passwordHash: hash, createdAt: now, updatedAt: now}
	s.users[user.ID] = rec
	s.emails[strings.ToLower(user.Email)] = user.ID
	return rec
}

// SeedProduct adds p to the catalog, creating its category and brand by name.
func (s *Server) SeedProduct(p domain.Product) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Category != "" {
		cat := s.categoryByNameLocked(p.Category)
		p.CategoryID = cat.ID
	}
	if p.Brand != "" {
		b := s.brandByNameLocked(p.Brand)
		p.BrandID = b.ID
	}

	s.products = append(s.products, p)
	return p
}

// SetPrice changes a product's price as an admin would between orders.
func (s *Server) SetPrice(productID string, price int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.products {
		if s.products[i].ID == productID {
			s.products[i].Price = price
		}
	}
}

func data(c *fiber.Ctx, status int, payload any) error {
	return c.Status(status).JSON(fiber.Map{"data": payload})
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"message": msg})
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("userId").(string)
	return id
}

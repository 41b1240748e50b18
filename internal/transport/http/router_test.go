package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/etech-storefront/internal/app"
	"github.com/sakashimaa/etech-storefront/internal/domain"
	"github.com/sakashimaa/etech-storefront/internal/events"
	"github.com/sakashimaa/etech-storefront/internal/mockapi"
	"github.com/sakashimaa/etech-storefront/internal/transport/http/middleware"
	"github.com/sakashimaa/etech-storefront/pkg/config"
	pkgdomain "github.com/sakashimaa/etech-storefront/pkg/domain"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type RouterSuite struct {
	suite.Suite

	backend  *mockapi.Server
	app      *app.App
	server   *fiber.App
	products *events.Recorder
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	backend, baseURL := mockapi.NewTestServer(s.T())
	s.backend = backend
	s.products = events.NewRecorder()

	cfg := &config.Config{
		Env:     "test",
		HTTP:    config.HTTP{Timeout: 5 * time.Second},
		Backend: config.Backend{BaseURL: baseURL, Timeout: 2 * time.Second},
		Cache: config.Cache{
			ProductsTTL:   5 * time.Minute,
			CategoriesTTL: 10 * time.Minute,
			BrandsTTL:     10 * time.Minute,
		},
		Sessions: config.Sessions{IdleTTL: time.Hour, SweepInterval: time.Minute, CredentialTTL: time.Hour},
		Reports:  config.Reports{Timezone: "Asia/Bangkok"},
	}

	a, err := app.New(cfg, zap.NewNop(), app.WithPublishers(events.NewRecorder(), s.products))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = a.Close() })

	s.app = a
	s.server = NewServer(a, cfg, zap.NewNop())
}

type response struct {
	status int
	header nethttp.Header
	body   []byte
}

func (r response) json(t *testing.T) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(r.body, &out); err != nil {
		t.Fatalf("decode %q: %v", r.body, err)
	}
	return out
}

func (s *RouterSuite) do(method, path, sid string, body any) response {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if sid != "" {
		req.Header.Set(middleware.SessionHeader, sid)
	}

	res, err := s.server.Test(req, -1)
	s.Require().NoError(err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	s.Require().NoError(err)

	return response{status: res.StatusCode, header: res.Header, body: raw}
}

func (s *RouterSuite) login(email, password string) string {
	res := s.do(fiber.MethodPost, "/api/auth/login", "", domain.Credentials{Email: email, Password: password})
	s.Require().Equal(fiber.StatusOK, res.status, string(res.body))

	sid := res.header.Get(middleware.SessionHeader)
	s.Require().NotEmpty(sid)
	return sid
}

func (s *RouterSuite) firstProductID() string {
	res := s.do(fiber.MethodGet, "/api/products", "", nil)
	s.Require().Equal(fiber.StatusOK, res.status)

	products := res.json(s.T())["products"].([]any)
	s.Require().NotEmpty(products)
	return products[0].(map[string]any)["id"].(string)
}

func address() domain.Address {
	return domain.Address{
		FirstName:   "Somchai",
		LastName:    "Jaidee",
		AddressLine: "99/1 Sukhumvit Rd",
		SubDistrict: "Khlong Toei",
		District:    "Khlong Toei",
		Province:    "Bangkok",
		PostalCode:  "10110",
		Phone:       "0812345678",
	}
}

func (s *RouterSuite) TestHealth() {
	res := s.do(fiber.MethodGet, "/health", "", nil)
	s.Equal(fiber.StatusOK, res.status)
	s.Equal("ok", res.json(s.T())["status"])
}

func (s *RouterSuite) TestLoginIssuesSession() {
	res := s.do(fiber.MethodPost, "/api/auth/login", "", domain.Credentials{
		Email:    mockapi.DemoUserEmail,
		Password: mockapi.DemoUserPassword,
	})
	s.Require().Equal(fiber.StatusOK, res.status)

	sid := res.header.Get(middleware.SessionHeader)
	s.NotEmpty(sid)
	s.Contains(res.header.Get(fiber.HeaderSetCookie), middleware.SessionCookie+"="+sid)

	user := res.json(s.T())["user"].(map[string]any)
	s.Equal(mockapi.DemoUserEmail, user["email"])

	me := s.do(fiber.MethodGet, "/api/auth/me", sid, nil).json(s.T())
	s.Equal(true, me["authenticated"])
	s.Equal(sid, s.do(fiber.MethodGet, "/api/auth/me", sid, nil).header.Get(middleware.SessionHeader))
}

func (s *RouterSuite) TestLoginRejectedWithoutRedirect() {
	res := s.do(fiber.MethodPost, "/api/auth/login", "", domain.Credentials{
		Email:    mockapi.DemoUserEmail,
		Password: "wrong-password",
	})

	s.Equal(fiber.StatusUnauthorized, res.status)
	s.Equal("invalid email or password", res.json(s.T())["error"])
	s.Empty(res.header.Get(middleware.RedirectHeader))
}

func (s *RouterSuite) TestFailedLoginKeepsSignedInSession() {
	sid := s.login(mockapi.DemoUserEmail, mockapi.DemoUserPassword)

	res := s.do(fiber.MethodPost, "/api/auth/login", sid, domain.Credentials{
		Email:    mockapi.DemoUserEmail,
		Password: "wrong-password",
	})
	s.Equal(fiber.StatusUnauthorized, res.status)
	s.Empty(res.header.Get(middleware.RedirectHeader))

	me := s.do(fiber.MethodGet, "/api/auth/me", sid, nil).json(s.T())
	s.Equal(true, me["authenticated"])
	s.Equal(fiber.StatusOK, s.do(fiber.MethodGet, "/api/cart", sid, nil).status)
}

func (s *RouterSuite) TestLoginValidationReportsFields() {
	res := s.do(fiber.MethodPost, "/api/auth/login", "", domain.Credentials{Email: "not-an-email", Password: "x"})

	s.Equal(fiber.StatusBadRequest, res.status)
	body := res.json(s.T())
	s.Equal("validation failed", body["error"])
	s.Contains(body, "fields")
	s.Zero(s.backend.Requests(fiber.MethodPost, "/auth/login"))
}

func (s *RouterSuite) TestProtectedRoutesNeedLogin() {
	for _, path := range []string{"/api/cart", "/api/orders", "/api/checkout/summary"} {
		res := s.do(fiber.MethodGet, path, "", nil)
		s.Equal(fiber.StatusUnauthorized, res.status, path)
	}
}

func (s *RouterSuite) TestRevokedTokenRedirectsToLogin() {
	sid := s.login(mockapi.DemoUserEmail, mockapi.DemoUserPassword)

	token, err := s.app.Session(context.Background(), sid).Identity.Token(context.Background())
	s.Require().NoError(err)
	s.backend.RevokeToken(token)

	res := s.do(fiber.MethodGet, "/api/orders", sid, nil)
	s.Equal(fiber.StatusUnauthorized, res.status)
	s.Equal("/login", res.header.Get(middleware.RedirectHeader))
	s.Equal("/login", res.json(s.T())["redirect"])

	me := s.do(fiber.MethodGet, "/api/auth/me", sid, nil)
	s.Equal(false, me.json(s.T())["authenticated"])
	s.Empty(me.header.Get(middleware.RedirectHeader), "redirect is delivered once")
}

func (s *RouterSuite) TestCheckoutFlow() {
	sid := s.login(mockapi.DemoUserEmail, mockapi.DemoUserPassword)
	productID := s.firstProductID()

	added := s.do(fiber.MethodPost, "/api/cart", sid, map[string]any{"productId": productID, "quantity": 2})
	s.Require().Equal(fiber.StatusOK, added.status, string(added.body))
	s.Len(added.json(s.T())["items"], 1)

	summary := s.do(fiber.MethodGet, "/api/checkout/summary", sid, nil).json(s.T())
	totals := summary["totals"].(map[string]any)
	s.Equal(float64(domain.FlatShipping), totals["shipping"])

	placed := s.do(fiber.MethodPost, "/api/checkout", sid, map[string]any{
		"address": address(),
		"payment": domain.PaymentBank,
	})
	s.Require().Equal(fiber.StatusCreated, placed.status, string(placed.body))
	s.Equal("/orders", placed.header.Get(middleware.RedirectHeader))

	body := placed.json(s.T())
	orderID := body["orderId"].(string)
	s.NotEmpty(orderID)

	cart := s.do(fiber.MethodGet, "/api/cart", sid, nil).json(s.T())
	s.Empty(cart["items"])

	order := s.do(fiber.MethodGet, "/api/orders/"+orderID, sid, nil)
	s.Require().Equal(fiber.StatusOK, order.status)
	s.Equal(float64(2), order.json(s.T())["itemCount"])

	cancelled := s.do(fiber.MethodPost, "/api/orders/"+orderID+"/cancel", sid, nil)
	s.Require().Equal(fiber.StatusOK, cancelled.status, string(cancelled.body))
	s.Equal(string(domain.OrderStatusCancelled), cancelled.json(s.T())["order"].(map[string]any)["status"])

	again := s.do(fiber.MethodPost, "/api/orders/"+orderID+"/cancel", sid, nil)
	s.Equal(fiber.StatusConflict, again.status)
}

func (s *RouterSuite) TestCheckoutRejectsEmptyCart() {
	sid := s.login(mockapi.DemoUserEmail, mockapi.DemoUserPassword)

	res := s.do(fiber.MethodPost, "/api/checkout", sid, map[string]any{
		"address": address(),
		"payment": domain.PaymentBank,
	})
	s.Equal(fiber.StatusBadRequest, res.status)
	s.Equal(domain.ErrEmptyCart.Error(), res.json(s.T())["error"])
	s.Zero(s.backend.Requests(fiber.MethodPost, "/orders"))
}

func (s *RouterSuite) TestUnknownOrderIsNotFound() {
	sid := s.login(mockapi.DemoUserEmail, mockapi.DemoUserPassword)

	res := s.do(fiber.MethodGet, "/api/orders/no-such-order", sid, nil)
	s.Equal(fiber.StatusNotFound, res.status)
}

func (s *RouterSuite) TestAdminRoutesNeedAdminRole() {
	sid := s.login(mockapi.DemoUserEmail, mockapi.DemoUserPassword)

	res := s.do(fiber.MethodGet, "/api/admin/dashboard", sid, nil)
	s.Equal(fiber.StatusForbidden, res.status)
	s.Equal("admin role required", res.json(s.T())["error"])

	anonymous := s.do(fiber.MethodGet, "/api/admin/dashboard", "", nil)
	s.Equal(fiber.StatusUnauthorized, anonymous.status)
}

func (s *RouterSuite) TestAdminReportsAndExport() {
	customer := s.login(mockapi.DemoUserEmail, mockapi.DemoUserPassword)
	productID := s.firstProductID()

	s.Require().Equal(fiber.StatusOK, s.do(fiber.MethodPost, "/api/cart", customer, map[string]any{"productId": productID, "quantity": 1}).status)
	s.Require().Equal(fiber.StatusCreated, s.do(fiber.MethodPost, "/api/checkout", customer, map[string]any{
		"address": address(),
		"payment": domain.PaymentPromptPay,
	}).status)

	admin := s.login(mockapi.DemoAdminEmail, mockapi.DemoAdminPassword)

	dashboard := s.do(fiber.MethodGet, "/api/admin/dashboard", admin, nil)
	s.Equal(fiber.StatusOK, dashboard.status)

	listed := s.do(fiber.MethodGet, "/api/admin/orders?status=pending", admin, nil).json(s.T())
	s.Equal(float64(1), listed["total"])

	summary := s.do(fiber.MethodGet, "/api/admin/reports?limit=3", admin, nil)
	s.Require().Equal(fiber.StatusOK, summary.status, string(summary.body))
	report := summary.json(s.T())
	s.Equal("Asia/Bangkok", report["timezone"])
	s.Len(report["topProducts"], 1)
	s.Len(report["payments"], 1)

	badRange := s.do(fiber.MethodGet, "/api/admin/reports?from=2026-02-10&to=2026-02-01", admin, nil)
	s.Equal(fiber.StatusBadRequest, badRange.status)

	export := s.do(fiber.MethodGet, "/api/admin/reports/orders.csv", admin, nil)
	s.Require().Equal(fiber.StatusOK, export.status)
	s.True(strings.HasPrefix(export.header.Get(fiber.HeaderContentType), "text/csv"))
	s.Contains(export.header.Get(fiber.HeaderContentDisposition), "attachment")

	lines := strings.Split(strings.TrimSuffix(string(export.body), "\r\n"), "\r\n")
	s.Len(lines, 2)
	s.True(strings.HasPrefix(lines[0], `"Date","Order ID"`))
	s.Contains(lines[1], `"Pending"`)
}

func (s *RouterSuite) TestAdminProductChangesArePublished() {
	admin := s.login(mockapi.DemoAdminEmail, mockapi.DemoAdminPassword)
	productID := s.firstProductID()

	res := s.do(fiber.MethodPut, "/api/admin/products/"+productID, admin, map[string]any{"price": 12345})
	s.Require().Equal(fiber.StatusOK, res.status, string(res.body))

	product := s.do(fiber.MethodGet, "/api/products/"+productID, "", nil).json(s.T())["product"].(map[string]any)
	s.Equal(float64(12345), product["price"])
	s.Equal(1, s.products.Count(pkgdomain.EventProductUpdated))

	deleted := s.do(fiber.MethodDelete, "/api/admin/products/"+productID, admin, nil)
	s.Require().Equal(fiber.StatusOK, deleted.status)
	s.Equal(fiber.StatusNotFound, s.do(fiber.MethodGet, "/api/products/"+productID, "", nil).status)
	s.Equal(1, s.products.Count(pkgdomain.EventProductDeleted))
}

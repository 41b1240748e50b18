package admin

import (
	"context"
	"testing"
	"time"

	"github.com/sakashimaa/etech-storefront/internal/catalog"
	"github.com/sakashimaa/etech-storefront/internal/domain"
	"github.com/sakashimaa/etech-storefront/internal/gateway"
	"github.com/sakashimaa/etech-storefront/internal/mockapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type bearer string

func (b bearer) Token(context.Context) (string, error) { return string(b), nil }

func (bearer) HandleUnauthorized(context.Context) {}

type AdminStoreSuite struct {
	suite.Suite
	Ctx     context.Context
	Backend *mockapi.Server
	BaseURL string
	Catalog *catalog.Cache
	Store   *Store
	Shopper *gateway.Client
}

func (s *AdminStoreSuite) clientFor(email string) *gateway.Client {
	user, ok := s.Backend.UserByEmail(email)
	s.Require().True(ok)
	token, err := s.Backend.IssueToken(user.ID, user.Role)
	s.Require().NoError(err)

	return gateway.New(gateway.Config{BaseURL: s.BaseURL, Timeout: 2 * time.Second}, zap.NewNop(), gateway.WithDefaultAuth(bearer(token)))
}

func (s *AdminStoreSuite) SetupTest() {
	s.Ctx = context.Background()
	s.Backend, s.BaseURL = mockapi.NewTestServer(s.T())

	adminClient := s.clientFor(mockapi.DemoAdminEmail)
	s.Catalog = catalog.New(adminClient, zap.NewNop())
	s.Store = New(adminClient, s.Catalog, zap.NewNop())
	s.Shopper = s.clientFor(mockapi.DemoUserEmail)
}

func (s *AdminStoreSuite) placeOrder(productID string, qty int) domain.Order {
	body := map[string]any{
		"items":   []map[string]any{{"productId": productID, "quantity": qty}},
		"payment": domain.PaymentCreditCard,
		"address": domain.Address{
			FirstName:   "Somchai",
			LastName:    "Jaidee",
			AddressLine: "99/1 Sukhumvit Rd",
			SubDistrict: "Khlong Toei Nuea",
			District:    "Watthana",
			Province:    "Bangkok",
			PostalCode:  "10110",
			Phone:       "0812345678",
		},
	}

	var created domain.Order
	s.Require().NoError(s.Shopper.Post(s.Ctx, "/orders", body, &created))
	return created
}

func (s *AdminStoreSuite) TestFetchStats() {
	s.placeOrder("p1", 2)
	s.placeOrder("p2", 1)

	stats, err := s.Store.FetchStats(s.Ctx)
	s.Require().NoError(err)

	s.Equal(12, stats.TotalProducts)
	s.Equal(2, stats.TotalOrders)
	s.Equal(2, stats.PendingOrders)
	s.Len(stats.RecentOrders, 2)
	s.Require().NotEmpty(stats.TopSellingProducts)
	s.Equal("p1", stats.TopSellingProducts[0].ID)
	s.Equal(stats, s.Store.Stats())
}

func (s *AdminStoreSuite) TestOrderStatusLifecycle() {
	order := s.placeOrder("p1", 1)

	_, err := s.Store.FetchOrders(s.Ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.Store.UpdateOrderStatus(s.Ctx, order.ID, domain.OrderStatusPaid))
	s.Equal(domain.OrderStatusPaid, s.Store.Orders()[0].Status)

	err = s.Store.UpdateOrderStatus(s.Ctx, order.ID, domain.OrderStatusPending)
	s.Require().Error(err)
	s.Equal(409, gateway.StatusCode(err))
	s.Equal(domain.OrderStatusPaid, s.Store.Orders()[0].Status)
	s.NotEmpty(s.Store.Err())

	s.Require().NoError(s.Store.DeleteOrder(s.Ctx, order.ID))
	s.Empty(s.Store.Orders())
}

func (s *AdminStoreSuite) TestFilterOrders() {
	first := s.placeOrder("p1", 1)
	s.placeOrder("p2", 1)

	_, err := s.Store.FetchOrders(s.Ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.Store.UpdateOrderStatus(s.Ctx, first.ID, domain.OrderStatusPaid))

	s.Len(s.Store.FilterOrders("", ""), 2)
	s.Len(s.Store.FilterOrders("", "ALL"), 2)
	s.Len(s.Store.FilterOrders("", "pending"), 1)

	byNumber := s.Store.FilterOrders("et000001", "")
	s.Require().Len(byNumber, 1)
	s.Equal(first.ID, byNumber[0].ID)

	s.Len(s.Store.FilterOrders("USER@ETECH", ""), 2)
	s.Len(s.Store.FilterOrders("somchai", "paid"), 1)
	s.Empty(s.Store.FilterOrders("nobody", ""))
}

func (s *AdminStoreSuite) TestUserManagement() {
	users, err := s.Store.FetchUsers(s.Ctx)
	s.Require().NoError(err)
	s.Len(users, 2)

	input := domain.AdminUserInput{
		FirstName: "Pim",
		LastName:  "Chan",
		Email:     "pim@etech.co",
		Password:  "pim-secret-1",
		Role:      domain.RoleUser,
	}
	created, err := s.Store.CreateUser(s.Ctx, input)
	s.Require().NoError(err)
	s.NotEmpty(created.ID)
	s.Len(s.Store.Users(), 3)

	_, err = s.Store.CreateUser(s.Ctx, input)
	s.Require().Error(err)
	s.Equal(mockapi.ErrUserAlreadyExists.Error(), gateway.Message(err))

	input.Role = domain.RoleAdmin
	input.Password = ""
	updated, err := s.Store.UpdateUser(s.Ctx, created.ID, input)
	s.Require().NoError(err)
	s.Equal(domain.RoleAdmin, updated.Role)

	s.Require().NoError(s.Store.DeleteUser(s.Ctx, created.ID))
	s.Len(s.Store.Users(), 2)

	s.Error(s.Store.DeleteUser(s.Ctx, created.ID))
}

func (s *AdminStoreSuite) TestCreateUser_ValidatesBeforeSending() {
	_, err := s.Store.CreateUser(s.Ctx, domain.AdminUserInput{Email: "bad", Role: "root"})
	s.Require().Error(err)
	s.Zero(s.Backend.Requests("POST", "/admin/users"))
}

func (s *AdminStoreSuite) TestDeleteProductPatchesCatalog() {
	_, err := s.Catalog.FetchProducts(s.Ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.Store.DeleteProduct(s.Ctx, "p4"))

	_, ok := s.Catalog.Product("p4")
	s.False(ok)
	s.Len(s.Catalog.Products(), 11)
	s.Equal(1, s.Backend.Requests("GET", "/products"))
}

func (s *AdminStoreSuite) TestNonAdminIsRejected() {
	store := New(s.Shopper, s.Catalog, zap.NewNop())

	_, err := store.FetchStats(s.Ctx)
	s.Require().Error(err)
	s.Equal(403, gateway.StatusCode(err))
	s.Equal("admin role required", store.Err())
}

func TestAdminStoreSuite(t *testing.T) {
	suite.Run(t, new(AdminStoreSuite))
}

func TestFilterOrdersIsPure(t *testing.T) {
	orders := []domain.AdminOrder{
		{ID: "a", OrderNumber: "ET000001", Status: domain.OrderStatusShipped, Customer: domain.Customer{Name: "Anan", Email: "anan@etech.co"}},
		{ID: "b", OrderNumber: "ET000002", Status: domain.OrderStatusCancelled, Customer: domain.Customer{Name: "Bua", Email: "bua@etech.co"}},
	}

	got := FilterOrders(orders, "bua", "cancelled")
	assert.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
	assert.Len(t, orders, 2)
	assert.Empty(t, FilterOrders(orders, "anan", "Pending"))
}

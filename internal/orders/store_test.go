package orders

import (
	"context"
	"testing"
	"time"

	"github.com/sakashimaa/etech-storefront/internal/domain"
	"github.com/sakashimaa/etech-storefront/internal/events"
	"github.com/sakashimaa/etech-storefront/internal/gateway"
	"github.com/sakashimaa/etech-storefront/internal/mockapi"
	pkgdomain "github.com/sakashimaa/etech-storefront/pkg/domain"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type tokenAuth string

func (t tokenAuth) Token(context.Context) (string, error) { return string(t), nil }

func (tokenAuth) HandleUnauthorized(context.Context) {}

type OrderStoreSuite struct {
	suite.Suite
	Ctx      context.Context
	Backend  *mockapi.Server
	BaseURL  string
	Events   *events.Recorder
	Store    *Store
	Admin    *Store
	Products map[string]domain.Product
}

func (s *OrderStoreSuite) clientFor(email string) *gateway.Client {
	user, ok := s.Backend.UserByEmail(email)
	s.Require().True(ok)

	token, err := s.Backend.IssueToken(user.ID, user.Role)
	s.Require().NoError(err)

	return gateway.New(gateway.Config{BaseURL: s.BaseURL, Timeout: 2 * time.Second}, zap.NewNop(), gateway.WithDefaultAuth(tokenAuth(token)))
}

func (s *OrderStoreSuite) SetupTest() {
	s.Ctx = context.Background()
	s.Backend, s.BaseURL = mockapi.NewTestServer(s.T())
	s.Events = events.NewRecorder()

	s.Store = New(s.clientFor(mockapi.DemoUserEmail), s.Events, zap.NewNop())
	s.Store.ReloadForUser(mockapi.DemoUserEmail)
	s.Admin = New(s.clientFor(mockapi.DemoAdminEmail), nil, zap.NewNop())

	var products []domain.Product
	s.Require().NoError(s.clientFor(mockapi.DemoUserEmail).Get(s.Ctx, "/products", &products))
	s.Products = make(map[string]domain.Product)
	for _, p := range products {
		s.Products[p.ID] = p
	}
}

func address() domain.Address {
	return domain.Address{
		FirstName:   "Somchai",
		LastName:    "Jaidee",
		AddressLine: "99/1 Sukhumvit Rd",
		SubDistrict: "Khlong Toei Nuea",
		District:    "Watthana",
		Province:    "Bangkok",
		PostalCode:  "10110",
		Phone:       "0812345678",
	}
}

func (s *OrderStoreSuite) cartOf(quantities map[string]int) []domain.CartItem {
	items := make([]domain.CartItem, 0, len(quantities))
	for id, qty := range quantities {
		items = append(items, domain.CartItem{ID: "row-" + id, Product: s.Products[id], Quantity: qty})
	}
	return items
}

func (s *OrderStoreSuite) place(quantities map[string]int) string {
	items := s.cartOf(quantities)
	totals := domain.ComputeTotals(domain.Subtotal(items))

	id, err := s.Store.AddOrder(s.Ctx, items, totals.Subtotal, address(), domain.PaymentPromptPay, totals.VAT, totals.Shipping)
	s.Require().NoError(err)
	s.Require().NotEqual(NoOrderID, id)
	return id
}

func (s *OrderStoreSuite) TestAddOrder_PrependsWithServerTotals() {
	first := s.place(map[string]int{"p1": 1})
	second := s.place(map[string]int{"p1": 2, "p2": 1})

	orders := s.Store.Orders()
	s.Require().Len(orders, 2)
	s.Equal(second, orders[0].ID)
	s.Equal(first, orders[1].ID)

	o := orders[0]
	want := domain.ComputeTotals(s.Products["p1"].Price*2 + s.Products["p2"].Price)
	s.Equal(want, o.Totals())
	s.Equal(o.Subtotal+o.VAT+o.Shipping, o.GrandTotal)
	s.Equal(domain.OrderStatusPending, o.Status)
	s.Equal(domain.PaymentPromptPay, o.Payment)
	s.Equal(2, s.Events.Count(pkgdomain.EventOrderPlaced))
}

func (s *OrderStoreSuite) TestAddOrder_ClientFiguresAreAdvisory() {
	items := s.cartOf(map[string]int{"p1": 1})

	id, err := s.Store.AddOrder(s.Ctx, items, 1, address(), domain.PaymentBank, 999, 0)
	s.Require().NoError(err)

	o, ok := s.Store.Get(id)
	s.Require().True(ok)
	s.Equal(domain.ComputeTotals(s.Products["p1"].Price), o.Totals())
}

func (s *OrderStoreSuite) TestAddOrder_ItemsAreImmutable() {
	id := s.place(map[string]int{"p3": 2})
	original := s.Products["p3"].Price

	s.Backend.SetPrice("p3", original+5000)

	_, err := s.Store.Fetch(s.Ctx)
	s.Require().NoError(err)

	o, ok := s.Store.Get(id)
	s.Require().True(ok)
	s.Equal(original, o.Items[0].Product.Price)
	s.Equal(domain.ComputeTotals(original*2), o.Totals())

	o.Items[0].Quantity = 99
	again, _ := s.Store.Get(id)
	s.Equal(2, again.Items[0].Quantity)
}

func (s *OrderStoreSuite) TestAddOrder_Failures() {
	cases := []struct {
		name    string
		items   []domain.CartItem
		payment domain.PaymentMethod
		addr    domain.Address
	}{
		{"empty cart", nil, domain.PaymentBank, address()},
		{"unknown payment", s.cartOf(map[string]int{"p1": 1}), domain.PaymentMethod("Cash"), address()},
		{"invalid address", s.cartOf(map[string]int{"p1": 1}), domain.PaymentBank, domain.Address{FirstName: "A"}},
		{"server rejects product", []domain.CartItem{{Product: domain.Product{ID: "ghost", Price: 10}, Quantity: 1}}, domain.PaymentBank, address()},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			id, err := s.Store.AddOrder(s.Ctx, tc.items, 10, tc.addr, tc.payment, 1, 80)
			s.Error(err)
			s.Equal(NoOrderID, id)
			s.NotEmpty(s.Store.Err())
			s.False(s.Store.Loading())
		})
	}

	s.Empty(s.Store.Orders())
	s.Equal(0, s.Events.Count(pkgdomain.EventOrderPlaced))
}

func (s *OrderStoreSuite) TestFetch_IsIdempotent() {
	s.place(map[string]int{"p1": 1})
	s.place(map[string]int{"p2": 3})

	first, err := s.Store.Fetch(s.Ctx)
	s.Require().NoError(err)
	second, err := s.Store.Fetch(s.Ctx)
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Len(second, 2)
}

func (s *OrderStoreSuite) TestCancel_PendingOnly() {
	id := s.place(map[string]int{"p1": 1})

	s.Require().NoError(s.Store.Cancel(s.Ctx, id))
	o, _ := s.Store.Get(id)
	s.Equal(domain.OrderStatusCancelled, o.Status)
	s.Equal(1, s.Events.Count(pkgdomain.EventOrderCancelled))

	path := "/orders/" + id + "/status"
	calls := s.Backend.Requests("PUT", path)
	s.ErrorIs(s.Store.Cancel(s.Ctx, id), ErrCancelNotAllowed)
	s.Equal(calls, s.Backend.Requests("PUT", path))
}

func (s *OrderStoreSuite) TestCancel_AfterPaymentIsRefused() {
	id := s.place(map[string]int{"p1": 1})

	s.Require().NoError(s.Admin.UpdateOrderStatus(s.Ctx, id, domain.OrderStatusPaid))

	_, err := s.Store.Fetch(s.Ctx)
	s.Require().NoError(err)

	s.ErrorIs(s.Store.Cancel(s.Ctx, id), ErrCancelNotAllowed)
	o, _ := s.Store.Get(id)
	s.Equal(domain.OrderStatusPaid, o.Status)
}

func (s *OrderStoreSuite) TestCancel_UnknownOrder() {
	s.ErrorIs(s.Store.Cancel(s.Ctx, "nope"), ErrOrderNotFound)
}

func (s *OrderStoreSuite) TestUpdateOrderStatus_ServerRejectsIllegalTransition() {
	id := s.place(map[string]int{"p1": 1})

	err := s.Store.UpdateOrderStatus(s.Ctx, id, domain.OrderStatusShipped)
	s.Require().Error(err)
	s.Equal(403, gateway.StatusCode(err))

	o, _ := s.Store.Get(id)
	s.Equal(domain.OrderStatusPending, o.Status)
}

func (s *OrderStoreSuite) TestUpdateOrderStatus_AdoptsServerOrder() {
	id := s.place(map[string]int{"p1": 1})
	server, ok := s.Store.Get(id)
	s.Require().True(ok)

	s.Store.mu.Lock()
	s.Store.orders[0].Subtotal = 1
	s.Store.orders[0].GrandTotal = 1
	s.Store.orders[0].Payment = domain.PaymentBank
	s.Store.mu.Unlock()

	s.Require().NoError(s.Store.Cancel(s.Ctx, id))

	o, ok := s.Store.Get(id)
	s.Require().True(ok)
	s.Equal(domain.OrderStatusCancelled, o.Status)
	s.Equal(server.Totals(), o.Totals())
	s.Equal(server.GrandTotal, o.GrandTotal)
	s.Equal(domain.PaymentPromptPay, o.Payment)
	s.Equal(server.Items, o.Items)
}

func (s *OrderStoreSuite) TestReloadForUser_Clears() {
	s.place(map[string]int{"p1": 1})
	s.Store.ReloadForUser("")

	s.Empty(s.Store.Orders())
	s.Empty(s.Store.Owner())
}

func TestOrderStoreSuite(t *testing.T) {
	suite.Run(t, new(OrderStoreSuite))
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusPaid      OrderStatus = "Paid"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusShipped},
	OrderStatusShipped: {OrderStatusCompleted},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanCancel() bool {
	return s == OrderStatusPending
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentBank       PaymentMethod = "Bank"
	PaymentPromptPay  PaymentMethod = "QR PromptPay"
	PaymentCreditCard PaymentMethod = "Credit Card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentBank, PaymentPromptPay, PaymentCreditCard:
		return true
	}
	return false
}

func (m PaymentMethod) Label() string {
	switch m {
	case PaymentBank:
		return "Bank Transfer"
	case PaymentPromptPay:
		return "QR Transfer"
	case PaymentCreditCard:
		return "Credit Card"
	}
	return string(m)
}

type Address struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	AddressLine string `json:"addressLine" validate:"required"`
	SubDistrict string `json:"subDistrict" validate:"required"`
	District    string `json:"district" validate:"required"`
	Province    string `json:"province" validate:"required"`
	PostalCode  string `json:"postalCode" validate:"required,numeric,len=5"`
	Phone       string `json:"phone" validate:"required,min=9"`
}

func (a Address) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

type Order struct {
	ID         string        `json:"id"`
	Items      []CartItem    `json:"items"`
	Subtotal   int64         `json:"subtotal"`
	VAT        int64         `json:"vat"`
	Shipping   int64         `json:"shipping"`
	GrandTotal int64         `json:"grandTotal"`
	CreatedAt  time.Time     `json:"createdAt"`
	Status     OrderStatus   `json:"status"`
	Address    Address       `json:"address"`
	Payment    PaymentMethod `json:"payment"`
}

type Totals struct {
	Subtotal   int64 `json:"subtotal"`
	VAT        int64 `json:"vat"`
	Shipping   int64 `json:"shipping"`
	GrandTotal int64 `json:"grandTotal"`
}

const FlatShipping int64 = 80

var vatRate = decimal.RequireFromString("0.07")

func ComputeTotals(subtotal int64) Totals {
	vat := decimal.NewFromInt(subtotal).Mul(vatRate).Round(0).IntPart()

	var shipping int64
	if subtotal > 0 {
		shipping = FlatShipping
	}

	return Totals{
		Subtotal:   subtotal,
		VAT:        vat,
		Shipping:   shipping,
		GrandTotal: subtotal + vat + shipping,
	}
}

func (o Order) Totals() Totals {
	return Totals{Subtotal: o.Subtotal, VAT: o.VAT, Shipping: o.Shipping, GrandTotal: o.GrandTotal}
}

func (o Order) ItemCount() int {
	var n int
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

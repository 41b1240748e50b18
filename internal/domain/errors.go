package domain

import "errors"

var (
	ErrInvalidQuantity      = errors.New("quantity must be greater than zero")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
	ErrInvalidStatus        = errors.New("unknown order status")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrNotAuthenticated     = errors.New("not authenticated")
)

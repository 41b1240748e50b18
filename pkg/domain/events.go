package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderCancelled = "OrderCancelled"
	EventUserLoggedIn   = "UserLoggedIn"
	EventUserLoggedOut  = "UserLoggedOut"
	EventProductCreated = "ProductCreated"
	EventProductUpdated = "ProductUpdated"
	EventProductDeleted = "ProductDeleted"
)

// Envelope is the wire shape of every message on the storefront topics.
type Envelope struct {
	Event      string          `json:"event"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewEnvelope(event string, payload any, at time.Time) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event, err)
	}

	return Envelope{Event: event, Payload: raw, OccurredAt: at}, nil
}

type OrderPlacedEvent struct {
	OrderID    string `json:"order_id"`
	Email      string `json:"email"`
	Items      int    `json:"items"`
	GrandTotal int64  `json:"grand_total"`
	Payment    string `json:"payment"`
}

type OrderCancelledEvent struct {
	OrderID string `json:"order_id"`
	Email   string `json:"email"`
}

type SessionEvent struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type ProductChangedEvent struct {
	ProductID string `json:"product_id"`
}

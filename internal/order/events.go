package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderCancelled = "OrderCancelled"
)

type Event struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID            string             `json:"id"`
	OrderNumber   string             `json:"order_number"`
	UserID        string             `json:"user_id"`
	Status        string             `json:"status"`
	PaymentStatus string             `json:"payment_status"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	Items         []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID *string `json:"product_id"`
	Size      string  `json:"size"`
	Quantity  int     `json:"quantity"`
}

type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

package dto

type OrderFilters struct {
	Status   string // "all" or empty means any
	Search   string // order number or customer name
	Page     int
	PageSize int
}

// PaymentEvent is a processor notification consumed from the payments topic.
type PaymentEvent struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"` // PaymentCaptured, PaymentRefunded, PaymentFailed
	Payload   struct {
		OrderID   string `json:"order_id"`
		Reference string `json:"reference"`
	} `json:"payload"`
}

const (
	PaymentCaptured = "PaymentCaptured"
	PaymentRefunded = "PaymentRefunded"
	PaymentFailed   = "PaymentFailed"
)

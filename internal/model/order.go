package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Cancellable reports whether a customer may cancel an order in this status.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusProcessing || s == OrderStatusShipped
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodCashOnDelivery
}

// ShippingAddress is a snapshot taken at order time, independent of later profile edits.
type ShippingAddress struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	ZipCode  string `json:"zipCode" validate:"required"`
	Country  string `json:"country"`
}

func (a ShippingAddress) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *ShippingAddress) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = ShippingAddress{}
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return errors.New("ShippingAddress: unsupported source type")
	}
}

type Order struct {
	BaseModel
	UserID           string          `db:"user_id" json:"user_id"`
	OrderNumber      string          `db:"order_number" json:"order_number"`
	Subtotal         decimal.Decimal `db:"subtotal" json:"subtotal"`
	ShippingCost     decimal.Decimal `db:"shipping_cost" json:"shipping_cost"`
	TaxAmount        decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	TotalAmount      decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status           OrderStatus     `db:"status" json:"status"`
	PaymentStatus    PaymentStatus   `db:"payment_status" json:"payment_status"`
	PaymentMethod    PaymentMethod   `db:"payment_method" json:"payment_method"`
	ShippingMethod   string          `db:"shipping_method" json:"shipping_method"`
	ShippingAddress  ShippingAddress `db:"shipping_address" json:"shipping_address"`
	PaymentReference *string         `db:"payment_reference" json:"payment_reference,omitempty"`
	Items            []OrderItem     `db:"-" json:"order_items"`
	Customer         *Customer       `db:"-" json:"user,omitempty"`
}

type OrderItem struct {
	ID          string          `db:"id" json:"id"`
	OrderID     string          `db:"order_id" json:"order_id"`
	ProductID   *string         `db:"product_id" json:"product_id"` // NULL once the product is force-deleted
	ProductName string          `db:"product_name" json:"product_name"`
	Brand       string          `db:"brand" json:"brand"`
	Category    string          `db:"category" json:"category"`
	ImageURL    string          `db:"image_url" json:"image_url"`
	Size        string          `db:"size" json:"size"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"price"`
	TotalPrice  decimal.Decimal `db:"total_price" json:"total_price"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// Customer is the user summary joined onto admin order listings.
type Customer struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
	Phone    string `db:"phone" json:"phone"`
}

type DashboardStats struct {
	TotalOrders      int             `db:"total_orders" json:"totalOrders"`
	TotalProducts    int             `db:"total_products" json:"totalProducts"`
	ActiveCustomers  int             `db:"active_customers" json:"activeCustomers"`
	ProcessingOrders int             `db:"processing_orders" json:"pendingOrders"`
	LowStockProducts int             `db:"low_stock_products" json:"lowStockProducts"`
	Revenue          decimal.Decimal `db:"revenue" json:"revenue"`
}

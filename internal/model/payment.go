package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentRecordStatus string

const (
	PaymentRecordAuthorized PaymentRecordStatus = "authorized"
	PaymentRecordCaptured   PaymentRecordStatus = "captured"
	PaymentRecordVoided     PaymentRecordStatus = "voided"
	PaymentRecordRefunded   PaymentRecordStatus = "refunded"
	PaymentRecordFailed     PaymentRecordStatus = "failed"
)

type Payment struct {
	ID        string              `db:"id" json:"id"`
	OrderID   string              `db:"order_id" json:"order_id"`
	UserID    string              `db:"user_id" json:"user_id"`
	Provider  string              `db:"provider" json:"provider"`
	Reference string              `db:"reference" json:"reference"`
	Amount    decimal.Decimal     `db:"amount" json:"amount"`
	Status    PaymentRecordStatus `db:"status" json:"status"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt time.Time           `db:"updated_at" json:"updated_at"`
}

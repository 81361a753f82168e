package dto

type AdjustInventoryInput struct {
	ProductID      string `json:"product_id" validate:"required"`
	QuantityChange int    `json:"quantity_change" validate:"required"`
	Reason         string `json:"reason"`
	ReferenceID    string `json:"reference_id"`
}

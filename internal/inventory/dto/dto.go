package dto

import "time"

type InventoryFilters struct {
	Threshold int // stock at or below which a product counts as low (0 < stock <= threshold)
	Page      int
	PageSize  int
}

type MovementFilters struct {
	ProductID    string
	MovementType string
	ReferenceID  string
	StartDate    *time.Time
	EndDate      *time.Time
	Page         int
	PageSize     int
}

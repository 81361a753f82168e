package dto

type ProductFilters struct {
	Search         string `json:"search,omitempty"`   // name ILIKE
	Category       string `json:"category,omitempty"` // "all" or empty means any
	Status         string `json:"status,omitempty"`   // "all" or empty means any
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
	SortBy         string `json:"sort_by,omitempty"` // name, price, stock, created_at
	SortOrder      string `json:"sort_order,omitempty"`
	Page           int    `json:"page,omitempty"`
	PageSize       int    `json:"page_size,omitempty"`
}

type DeleteResult struct {
	SoftDeleted bool   `json:"soft_deleted"`
	Message     string `json:"message"`
}

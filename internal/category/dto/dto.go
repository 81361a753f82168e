package dto

type CategoryFilters struct {
	Search string `json:"search,omitempty"`
	// Status narrows the counted products; empty means active only.
	Status string `json:"status,omitempty"`
}

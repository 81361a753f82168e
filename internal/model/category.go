package model

// CategoryCount is one storefront category facet: a category name and how many
// products carry it.
type CategoryCount struct {
	Name     string `db:"category" json:"name"`
	Products int    `db:"products" json:"products"`
	InStock  int    `db:"in_stock" json:"in_stock"`
}

package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-storefront-service/internal/category/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Counts(ctx context.Context, f *dto.CategoryFilters) ([]model.CategoryCount, error) {
	conditions := []string{"category <> ''"}
	args := map[string]interface{}{}

	switch f.Status {
	case "", "active":
		conditions = append(conditions, "status = 'active'", "deleted_at IS NULL")
	case "all":
	case "deleted":
		conditions = append(conditions, "deleted_at IS NOT NULL")
	default:
		conditions = append(conditions, "status = :status", "deleted_at IS NULL")
		args["status"] = f.Status
	}
	if f.Search != "" {
		conditions = append(conditions, "category ILIKE :search")
		args["search"] = "%" + f.Search + "%"
	}

	query := `
        SELECT category,
               count(*) AS products,
               count(*) FILTER (WHERE stock > 0) AS in_stock
        FROM products
        WHERE ` + strings.Join(conditions, " AND ") + `
        GROUP BY category
        ORDER BY category`

	rows, err := r.DB.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []model.CategoryCount{}
	for rows.Next() {
		var c model.CategoryCount
		if err := rows.StructScan(&c); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

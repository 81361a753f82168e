package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/product/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, name, description, category, brand, price, stock, status,
            image_url, sizes, available_sizes, created_at, updated_at
        )
        VALUES (
            :id, :name, :description, :category, :brand, :price, :stock, :status,
            :image_url, :sizes, :available_sizes, :created_at, :updated_at
        )
    `
	_, err := postgres.Ext(ctx, r.DB).NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE id = $1 LIMIT 1`
	err := postgres.Ext(ctx, r.DB).GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var products []model.Product
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Search != "" {
		conditions = append(conditions, "name ILIKE :search")
		args["search"] = "%" + f.Search + "%"
	}
	if f.Category != "" && f.Category != "all" {
		conditions = append(conditions, "category = :category")
		args["category"] = f.Category
	}
	if f.Status != "" && f.Status != "all" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if !f.IncludeDeleted {
		conditions = append(conditions, "deleted_at IS NULL")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Count
	countQuery := "SELECT count(*) FROM products" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, err
		}
	}

	// List
	orderBy := "created_at DESC"
	if f.SortBy != "" {
		// Whitelisted to keep user input out of the SQL text
		switch f.SortBy {
		case "name":
			orderBy = "name"
		case "price":
			orderBy = "price"
		case "stock":
			orderBy = "stock"
		default:
			orderBy = "created_at"
		}
		if strings.ToLower(f.SortOrder) == "asc" {
			orderBy += " ASC"
		} else {
			orderBy += " DESC"
		}
	}

	query := fmt.Sprintf("SELECT * FROM products%s ORDER BY %s, id", whereClause, orderBy)

	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &products, args)
	if err != nil {
		return nil, 0, err
	}

	return products, count, nil
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET name = :name,
            description = :description,
            category = :category,
            brand = :brand,
            price = :price,
            stock = :stock,
            status = :status,
            image_url = :image_url,
            sizes = :sizes,
            available_sizes = :available_sizes,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := postgres.Ext(ctx, r.DB).NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	return err
}

func (r *PGRepository) IsReferenced(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM order_items WHERE product_id = $1)`
	if err := postgres.Ext(ctx, r.DB).GetContext(ctx, &exists, query, id); err != nil {
		return false, err
	}
	return exists, nil
}

// DetachOrderItems clears the product reference on historical order lines. The lines keep
// their name/price snapshot.
func (r *PGRepository) DetachOrderItems(ctx context.Context, id string) (int64, error) {
	res, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, `UPDATE order_items SET product_id = NULL WHERE product_id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PGRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE products SET status = $1, deleted_at = $2, updated_at = $2 WHERE id = $3`
	_, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, query, model.ProductStatusDeleted, at, id)
	return err
}

func (r *PGRepository) UpdateImage(ctx context.Context, id, imageURL string) error {
	_, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, `UPDATE products SET image_url = $1, updated_at = NOW() WHERE id = $2`, imageURL, id)
	return err
}

package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

// ListByUser keeps lines whose product is gone; product columns are NULL for those.
func (r *PGRepository) ListByUser(ctx context.Context, userID string) ([]model.CartLine, error) {
	var lines []model.CartLine
	query := `
        SELECT ci.id, ci.user_id, ci.product_id, ci.size, ci.quantity, ci.created_at, ci.updated_at,
               p.name AS product_name,
               p.description AS product_description,
               p.category AS product_category,
               p.brand AS product_brand,
               p.price AS product_price,
               p.stock AS product_stock,
               p.status AS product_status,
               p.image_url AS product_image_url,
               p.sizes AS product_sizes,
               p.available_sizes AS product_available_sizes
        FROM cart_items ci
        LEFT JOIN products p ON p.id = ci.product_id
        WHERE ci.user_id = $1
        ORDER BY ci.created_at, ci.id
    `
	err := postgres.Ext(ctx, r.DB).SelectContext(ctx, &lines, query, userID)
	return lines, err
}

func (r *PGRepository) Upsert(ctx context.Context, item *model.CartItem) (*model.CartItem, error) {
	var stored model.CartItem
	query := `
        INSERT INTO cart_items (id, user_id, product_id, size, quantity, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $6)
        ON CONFLICT (user_id, product_id, size)
        DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
        RETURNING *
    `
	err := postgres.Ext(ctx, r.DB).GetContext(ctx, &stored, query,
		item.ID, item.UserID, item.ProductID, item.Size, item.Quantity, item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *PGRepository) SetQuantity(ctx context.Context, userID, lineID string, quantity int) (bool, error) {
	res, err := postgres.Ext(ctx, r.DB).ExecContext(ctx,
		`UPDATE cart_items SET quantity = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`,
		quantity, lineID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PGRepository) Remove(ctx context.Context, userID, lineID string) error {
	_, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, lineID, userID)
	return err
}

func (r *PGRepository) Clear(ctx context.Context, userID string) error {
	_, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

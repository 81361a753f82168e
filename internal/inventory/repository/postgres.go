package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-storefront-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Decrement(ctx context.Context, productID string, quantity int) (int, bool, error) {
	query := `
        UPDATE products
        SET stock = stock - $1, updated_at = NOW()
        WHERE id = $2 AND stock >= $1
        RETURNING stock
    `
	return r.updateStock(ctx, query, quantity, productID)
}

func (r *PGRepository) Restore(ctx context.Context, productID string, quantity int) (int, bool, error) {
	query := `
        UPDATE products
        SET stock = stock + $1, updated_at = NOW()
        WHERE id = $2
        RETURNING stock
    `
	return r.updateStock(ctx, query, quantity, productID)
}

func (r *PGRepository) Adjust(ctx context.Context, productID string, delta int) (int, bool, error) {
	query := `
        UPDATE products
        SET stock = stock + $1, updated_at = NOW()
        WHERE id = $2 AND stock + $1 >= 0
        RETURNING stock
    `
	return r.updateStock(ctx, query, delta, productID)
}

func (r *PGRepository) updateStock(ctx context.Context, query string, qty int, productID string) (int, bool, error) {
	db := postgres.Ext(ctx, r.DB)
	var after int
	err := db.QueryRowxContext(ctx, query, qty, productID).Scan(&after)
	if err == nil {
		return after, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, err
	}

	// Out of stock or ID not found
	var current int
	err = db.QueryRowxContext(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return current, false, nil
}

func (r *PGRepository) LogMovement(ctx context.Context, m *model.InventoryMovement) error {
	query := `
        INSERT INTO inventory_movements (
            id, product_id, movement_type, quantity_change, quantity_before, quantity_after,
            reference_type, reference_id, notes, created_by, created_at
        )
        VALUES (
            :id, :product_id, :movement_type, :quantity_change, :quantity_before, :quantity_after,
            :reference_type, :reference_id, :notes, :created_by, :created_at
        )
    `
	_, err := postgres.Ext(ctx, r.DB).NamedExecContext(ctx, query, m)
	return err
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	var items []model.InventoryMovement
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}
	if f.ReferenceID != "" {
		conditions = append(conditions, "reference_id = :reference_id")
		args["reference_id"] = f.ReferenceID
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at < :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM inventory_movements" + whereClause
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

	query := "SELECT * FROM inventory_movements" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) PurgeMovementsBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM inventory_movements WHERE created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PGRepository) ListLowStock(ctx context.Context, f *dto.InventoryFilters) ([]model.Product, int, error) {
	var items []model.Product
	var count int

	where := ` WHERE stock > 0 AND stock <= $1 AND status <> 'deleted'`
	if err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM products`+where, f.Threshold); err != nil {
		return nil, 0, err
	}

	query := `SELECT * FROM products` + where + ` ORDER BY stock ASC, name ASC`
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	err := r.DB.SelectContext(ctx, &items, query, f.Threshold)
	return items, count, err
}

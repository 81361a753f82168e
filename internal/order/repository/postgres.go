package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, o *model.Order) error {
	query := `
        INSERT INTO orders (
            id, user_id, order_number, subtotal, shipping_cost, tax_amount, total_amount,
            status, payment_status, payment_method, shipping_method, shipping_address,
            payment_reference, created_at, updated_at
        )
        VALUES (
            :id, :user_id, :order_number, :subtotal, :shipping_cost, :tax_amount, :total_amount,
            :status, :payment_status, :payment_method, :shipping_method, :shipping_address,
            :payment_reference, :created_at, :updated_at
        )
    `
	_, err := postgres.Ext(ctx, r.DB).NamedExecContext(ctx, query, o)
	return err
}

func (r *PGRepository) CreateItems(ctx context.Context, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `
        INSERT INTO order_items (
            id, order_id, product_id, product_name, brand, category, image_url,
            size, quantity, unit_price, total_price, created_at
        )
        VALUES (
            :id, :order_id, :product_id, :product_name, :brand, :category, :image_url,
            :size, :quantity, :unit_price, :total_price, :created_at
        )
    `
	_, err := postgres.Ext(ctx, r.DB).NamedExecContext(ctx, query, items)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string, forUpdate bool) (*model.Order, error) {
	return r.findOne(ctx, `SELECT * FROM orders WHERE id = $1`, id, forUpdate)
}

func (r *PGRepository) FindByPaymentReference(ctx context.Context, reference string, forUpdate bool) (*model.Order, error) {
	return r.findOne(ctx, `SELECT * FROM orders WHERE payment_reference = $1`, reference, forUpdate)
}

func (r *PGRepository) findOne(ctx context.Context, query, arg string, forUpdate bool) (*model.Order, error) {
	var o model.Order
	if forUpdate {
		query += ` FOR UPDATE`
	}
	err := postgres.Ext(ctx, r.DB).GetContext(ctx, &o, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *PGRepository) ItemsByOrders(ctx context.Context, orderIDs []string) (map[string][]model.OrderItem, error) {
	out := make(map[string][]model.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	ext := postgres.Ext(ctx, r.DB)
	query, args, err := sqlx.In(`SELECT * FROM order_items WHERE order_id IN (?) ORDER BY created_at, id`, orderIDs)
	if err != nil {
		return nil, err
	}

	var items []model.OrderItem
	if err := ext.SelectContext(ctx, &items, ext.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, nil
}

func (r *PGRepository) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	var orders []model.Order
	query := `SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	err := r.DB.SelectContext(ctx, &orders, query, userID)
	return orders, err
}

type orderWithCustomer struct {
	model.Order
	CustomerName  sql.NullString `db:"customer_name"`
	CustomerEmail sql.NullString `db:"customer_email"`
	CustomerPhone sql.NullString `db:"customer_phone"`
}

func (r *PGRepository) ListAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != "" && f.Status != "all" {
		conditions = append(conditions, "o.status = :status")
		args["status"] = f.Status
	}
	if f.Search != "" {
		conditions = append(conditions, "(o.order_number ILIKE :search OR u.full_name ILIKE :search)")
		args["search"] = "%" + f.Search + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}
	from := " FROM orders o LEFT JOIN users u ON u.id = o.user_id"

	// Count
	rows, err := r.DB.NamedQueryContext(ctx, "SELECT count(*)"+from+whereClause, args)
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
	query := `SELECT o.*, u.full_name AS customer_name, u.email AS customer_email, u.phone AS customer_phone` +
		from + whereClause + ` ORDER BY o.created_at DESC`
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var found []orderWithCustomer
	if err := nstmt.SelectContext(ctx, &found, args); err != nil {
		return nil, 0, err
	}

	orders := make([]model.Order, len(found))
	for i, row := range found {
		orders[i] = row.Order
		if row.CustomerEmail.Valid {
			orders[i].Customer = &model.Customer{
				ID:       row.UserID,
				FullName: row.CustomerName.String,
				Email:    row.CustomerEmail.String,
				Phone:    row.CustomerPhone.String,
			}
		}
	}
	return orders, count, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (bool, error) {
	return r.exec(ctx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
}

func (r *PGRepository) UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) (bool, error) {
	return r.exec(ctx, `UPDATE orders SET payment_status = $1, updated_at = NOW() WHERE id = $2`, status, id)
}

func (r *PGRepository) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return false, err
	}
	return r.exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
}

func (r *PGRepository) Stats(ctx context.Context, lowStockThreshold int) (*model.DashboardStats, error) {
	var stats model.DashboardStats
	query := `
        SELECT
            (SELECT count(*) FROM orders) AS total_orders,
            (SELECT count(*) FROM products WHERE deleted_at IS NULL) AS total_products,
            (SELECT count(DISTINCT user_id) FROM orders) AS active_customers,
            (SELECT count(*) FROM orders WHERE status = 'processing') AS processing_orders,
            (SELECT count(*) FROM products WHERE stock > 0 AND stock <= $1 AND deleted_at IS NULL) AS low_stock_products,
            (SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status <> 'cancelled') AS revenue
    `
	if err := r.DB.GetContext(ctx, &stats, query, lowStockThreshold); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *PGRepository) exec(ctx context.Context, query string, args ...interface{}) (bool, error) {
	res, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

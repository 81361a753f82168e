package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

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

func (r *PGRepository) Create(ctx context.Context, p *model.Payment) error {
	query := `
        INSERT INTO payments (id, order_id, user_id, provider, reference, amount, status, created_at, updated_at)
        VALUES (:id, :order_id, :user_id, :provider, :reference, :amount, :status, :created_at, :updated_at)
    `
	_, err := postgres.Ext(ctx, r.DB).NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) FindByOrder(ctx context.Context, orderID string) (*model.Payment, error) {
	var p model.Payment
	query := `SELECT * FROM payments WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1`
	err := postgres.Ext(ctx, r.DB).GetContext(ctx, &p, query, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, reference string, status model.PaymentRecordStatus) error {
	_, err := postgres.Ext(ctx, r.DB).ExecContext(ctx,
		`UPDATE payments SET status = $1, updated_at = $2 WHERE reference = $3`,
		status, time.Now(), reference)
	return err
}

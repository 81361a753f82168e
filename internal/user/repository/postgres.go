package repository

import (
	"context"
	"database/sql"
	"errors"

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

func (r *PGRepository) Create(ctx context.Context, u *model.User) error {
	query := `
        INSERT INTO users (
            id, email, password_hash, full_name, phone, address, city, state,
            zip_code, country, avatar_url, is_admin, created_at, updated_at
        )
        VALUES (
            :id, :email, :password_hash, :full_name, :phone, :address, :city, :state,
            :zip_code, :country, :avatar_url, :is_admin, :created_at, :updated_at
        )
    `
	_, err := postgres.Ext(ctx, r.DB).NamedExecContext(ctx, query, u)
	return err
}

func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, `SELECT * FROM users WHERE email = $1 LIMIT 1`, email)
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, `SELECT * FROM users WHERE id = $1 LIMIT 1`, id)
}

func (r *PGRepository) findOne(ctx context.Context, query string, arg string) (*model.User, error) {
	var u model.User
	if err := postgres.Ext(ctx, r.DB).GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *PGRepository) UpdateProfile(ctx context.Context, u *model.User) error {
	query := `
        UPDATE users
        SET full_name = :full_name, phone = :phone, address = :address, city = :city,
            state = :state, zip_code = :zip_code, country = :country, updated_at = :updated_at
        WHERE id = :id
    `
	_, err := postgres.Ext(ctx, r.DB).NamedExecContext(ctx, query, u)
	return err
}

func (r *PGRepository) UpdateAvatar(ctx context.Context, id, url string) error {
	query := `UPDATE users SET avatar_url = $1, updated_at = NOW() WHERE id = $2`
	_, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, query, url, id)
	return err
}

func (r *PGRepository) SetAdmin(ctx context.Context, email string, isAdmin bool) (bool, error) {
	query := `UPDATE users SET is_admin = $1, updated_at = NOW() WHERE email = $2`
	res, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, query, isAdmin, email)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

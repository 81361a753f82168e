package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/multierr"
)

type txKey struct{}

// Transactor runs fn inside a single database transaction. Repositories called with the
// ctx handed to fn join that transaction through Ext.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DBTX is implemented by both *sqlx.DB and *sqlx.Tx.
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

type TxManager struct {
	db   *sqlx.DB
	opts *sql.TxOptions
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db, opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted}}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	// Nested calls reuse the outer transaction.
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTxx(ctx, m.opts)
	if err != nil {
		return pkgerrors.Wrap(err, "begin tx")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return multierr.Append(err, pkgerrors.Wrap(rbErr, "rollback"))
		}
		return err
	}

	return pkgerrors.Wrap(tx.Commit(), "commit")
}

// Ext returns the transaction carried by ctx, or db when there is none.
func Ext(ctx context.Context, db *sqlx.DB) DBTX {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-storefront-service/internal/pgtest"
)

var (
	decrementSQL = regexp.QuoteMeta(`UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1 RETURNING stock`)
	adjustSQL    = regexp.QuoteMeta(`WHERE id = $2 AND stock + $1 >= 0 RETURNING stock`)
	currentSQL   = regexp.QuoteMeta(`SELECT stock FROM products WHERE id = $1`)
)

func stockRows(values ...int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"stock"})
	for _, v := range values {
		rows.AddRow(v)
	}
	return rows
}

func TestDecrementGuardsStock(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		expect    func(m sqlmock.Sqlmock)
		wantAfter int
		wantOK    bool
		wantErr   bool
	}{
		{
			name:     "enough stock",
			quantity: 2,
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(decrementSQL).WithArgs(2, "p1").WillReturnRows(stockRows(3))
			},
			wantAfter: 3,
			wantOK:    true,
		},
		{
			name:     "short stock reports the current level",
			quantity: 5,
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(decrementSQL).WithArgs(5, "p1").WillReturnRows(stockRows())
				m.ExpectQuery(currentSQL).WithArgs("p1").WillReturnRows(stockRows(1))
			},
			wantAfter: 1,
		},
		{
			name:     "missing product",
			quantity: 1,
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(decrementSQL).WithArgs(1, "p1").WillReturnRows(stockRows())
				m.ExpectQuery(currentSQL).WithArgs("p1").WillReturnRows(stockRows())
			},
		},
		{
			name:     "driver error",
			quantity: 1,
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(decrementSQL).WithArgs(1, "p1").WillReturnError(errors.New("conn reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := pgtest.Mock(t)
			tt.expect(mock)

			after, ok, err := NewPGRepository(db).Decrement(context.Background(), "p1", tt.quantity)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantAfter, after)
		})
	}
}

func TestAdjustRejectsNegativeResult(t *testing.T) {
	db, mock := pgtest.Mock(t)
	mock.ExpectQuery(adjustSQL).WithArgs(-4, "p1").WillReturnRows(stockRows())
	mock.ExpectQuery(currentSQL).WithArgs("p1").WillReturnRows(stockRows(3))

	after, ok, err := NewPGRepository(db).Adjust(context.Background(), "p1", -4)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, after)
}

func TestDecrementAgainstPostgres(t *testing.T) {
	db := pgtest.Open(t)
	ctx := context.Background()
	repo := NewPGRepository(db)
	id := pgtest.SeedProduct(t, db, 3)

	after, ok, err := repo.Decrement(ctx, id, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, after)

	after, ok, err = repo.Decrement(ctx, id, 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, after)

	var stock int
	require.NoError(t, db.Get(&stock, `SELECT stock FROM products WHERE id = $1`, id))
	assert.Equal(t, 1, stock)

	after, ok, err = repo.Decrement(ctx, "00000000-0000-0000-0000-000000000001", 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, after)
}

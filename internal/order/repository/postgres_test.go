package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/pgtest"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
)

const orderNumberKey = "orders_order_number_key"

func newOrder(userID, number, reference string) *model.Order {
	now := time.Now()
	return &model.Order{
		BaseModel:        model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		UserID:           userID,
		OrderNumber:      number,
		Subtotal:         decimal.RequireFromString("20.00"),
		ShippingCost:     decimal.Zero,
		TaxAmount:        decimal.RequireFromString("1.60"),
		TotalAmount:      decimal.RequireFromString("21.60"),
		Status:           model.OrderStatusProcessing,
		PaymentStatus:    model.PaymentStatusPaid,
		PaymentMethod:    model.PaymentMethodCard,
		ShippingMethod:   "free",
		ShippingAddress:  model.ShippingAddress{FullName: "Ada", Email: "ada@example.com"},
		PaymentReference: &reference,
	}
}

func TestFindOneLocksOnRequest(t *testing.T) {
	tests := []struct {
		name      string
		find      func(r *PGRepository, forUpdate bool) (*model.Order, error)
		query     string
		forUpdate bool
	}{
		{
			name:  "by id",
			find:  func(r *PGRepository, fu bool) (*model.Order, error) { return r.FindByID(context.Background(), "o1", fu) },
			query: `^SELECT \* FROM orders WHERE id = \$1$`,
		},
		{
			name:      "by id for update",
			find:      func(r *PGRepository, fu bool) (*model.Order, error) { return r.FindByID(context.Background(), "o1", fu) },
			query:     `^SELECT \* FROM orders WHERE id = \$1 FOR UPDATE$`,
			forUpdate: true,
		},
		{
			name: "by payment reference for update",
			find: func(r *PGRepository, fu bool) (*model.Order, error) {
				return r.FindByPaymentReference(context.Background(), "o1", fu)
			},
			query:     `^SELECT \* FROM orders WHERE payment_reference = \$1 FOR UPDATE$`,
			forUpdate: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := pgtest.Mock(t)
			mock.ExpectQuery(tt.query).WithArgs("o1").
				WillReturnRows(sqlmock.NewRows([]string{"id", "order_number", "status"}).AddRow("o1", "ORD-1", "processing"))

			o, err := tt.find(NewPGRepository(db), tt.forUpdate)
			require.NoError(t, err)
			require.NotNil(t, o)
			assert.Equal(t, "ORD-1", o.OrderNumber)
			assert.Equal(t, model.OrderStatusProcessing, o.Status)
		})
	}
}

func TestFindByIDMissingReturnsNil(t *testing.T) {
	db, mock := pgtest.Mock(t)
	mock.ExpectQuery(`FROM orders WHERE id`).WithArgs("nope").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	o, err := NewPGRepository(db).FindByID(context.Background(), "nope", false)
	require.NoError(t, err)
	assert.Nil(t, o)
}

func TestCreateSurfacesOrderNumberViolation(t *testing.T) {
	db, mock := pgtest.Mock(t)
	mock.ExpectExec(`INSERT INTO orders`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: orderNumberKey})

	err := NewPGRepository(db).Create(context.Background(), newOrder("u1", "ORD-1", "pi_1"))
	require.Error(t, err)
	assert.True(t, postgres.IsUniqueViolation(err))
	assert.Equal(t, orderNumberKey, postgres.ConstraintName(err))
}

func TestOrdersAgainstPostgres(t *testing.T) {
	db := pgtest.Open(t)
	ctx := context.Background()
	repo := NewPGRepository(db)
	userID := pgtest.SeedUser(t, db)

	first := newOrder(userID, "ORD-20261019-0001", "pi_1")
	require.NoError(t, repo.Create(ctx, first))

	t.Run("duplicate order number names the constraint", func(t *testing.T) {
		err := repo.Create(ctx, newOrder(userID, first.OrderNumber, "pi_2"))
		require.Error(t, err)
		assert.True(t, postgres.IsUniqueViolation(err))
		assert.Equal(t, orderNumberKey, postgres.ConstraintName(err))
	})

	t.Run("for update holds the row lock until commit", func(t *testing.T) {
		tx := postgres.NewTxManager(db)
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			o, err := repo.FindByPaymentReference(ctx, "pi_1", true)
			require.NoError(t, err)
			require.NotNil(t, o)
			assert.Equal(t, first.ID, o.ID)

			// A second connection cannot take the same lock.
			_, err = db.ExecContext(context.Background(),
				`SELECT 1 FROM orders WHERE id = $1 FOR UPDATE NOWAIT`, first.ID)
			var pgErr *pgconn.PgError
			require.True(t, errors.As(err, &pgErr))
			assert.Equal(t, "55P03", pgErr.Code)
			return nil
		})
		require.NoError(t, err)

		_, err = db.ExecContext(ctx, `SELECT 1 FROM orders WHERE id = $1 FOR UPDATE NOWAIT`, first.ID)
		assert.NoError(t, err)
	})
}

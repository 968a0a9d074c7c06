package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixhub-dev/fixhub-api/internal/models"
)

func newPaymentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPaymentRepositoryGetByRequestID(t *testing.T) {
	db, mock, cleanup := newPaymentRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "request_id", "total_amount", "advanced_payment", "payment_date", "created_at", "updated_at"}).
		AddRow("p1", "r1", 100.0, 40.0, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM payments WHERE request_id = $1 LIMIT 1")).
		WithArgs("r1").
		WillReturnRows(rows)

	payment, err := repo.GetByRequestID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, payment.TotalAmount)
	assert.Equal(t, 60.0, payment.RemainingBalance())
	assert.False(t, payment.IsPaid())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryGetByRequestIDNotFound(t *testing.T) {
	db, mock, cleanup := newPaymentRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectQuery("FROM payments WHERE request_id =").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByRequestID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestPaymentRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newPaymentRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectExec("INSERT INTO payments").
		WithArgs(sqlmock.AnyArg(), "r1", 100.0, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	payment := &models.Payment{RequestID: "r1", TotalAmount: 100}
	require.NoError(t, repo.Upsert(context.Background(), payment))
	assert.NotEmpty(t, payment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryListByRequestIDs(t *testing.T) {
	db, mock, cleanup := newPaymentRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "request_id", "total_amount", "advanced_payment", "payment_date", "created_at", "updated_at"}).
		AddRow("p1", "r1", 100.0, nil, nil, time.Now(), time.Now()).
		AddRow("p2", "r2", 50.0, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery("FROM payments WHERE request_id IN").
		WithArgs("r1", "r2").
		WillReturnRows(rows)

	result, err := repo.ListByRequestIDs(context.Background(), []string{"r1", "r2"})
	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Equal(t, 50.0, result["r2"].TotalAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryListByRequestIDsEmpty(t *testing.T) {
	db, _, cleanup := newPaymentRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	result, err := repo.ListByRequestIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}

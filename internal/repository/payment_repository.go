package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fixhub-dev/fixhub-api/internal/models"
)

// PaymentRepository provides database access for request payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new instance of PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// GetByRequestID returns the payment attached to a repair request.
func (r *PaymentRepository) GetByRequestID(ctx context.Context, requestID string) (*models.Payment, error) {
	const query = `SELECT id, request_id, total_amount, advanced_payment, payment_date, created_at, updated_at FROM payments WHERE request_id = $1 LIMIT 1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, requestID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment by request: %w", err)
	}
	return &payment, nil
}

// Upsert creates or overwrites the single payment for a request. The
// unique constraint on request_id keeps the relationship 1:1.
func (r *PaymentRepository) Upsert(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now

	const query = `INSERT INTO payments (id, request_id, total_amount, advanced_payment, payment_date, created_at, updated_at)
VALUES (:id, :request_id, :total_amount, :advanced_payment, :payment_date, :created_at, :updated_at)
ON CONFLICT (request_id) DO UPDATE SET total_amount = EXCLUDED.total_amount, advanced_payment = EXCLUDED.advanced_payment, payment_date = EXCLUDED.payment_date, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("upsert payment: %w", err)
	}
	return nil
}

// ListByRequestIDs returns payments for a set of requests keyed by request id.
func (r *PaymentRepository) ListByRequestIDs(ctx context.Context, requestIDs []string) (map[string]*models.Payment, error) {
	if len(requestIDs) == 0 {
		return map[string]*models.Payment{}, nil
	}
	query, args, err := sqlx.In(`SELECT id, request_id, total_amount, advanced_payment, payment_date, created_at, updated_at FROM payments WHERE request_id IN (?)`, requestIDs)
	if err != nil {
		return nil, fmt.Errorf("build payments query: %w", err)
	}
	query = r.db.Rebind(query)

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("list payments by requests: %w", err)
	}

	result := make(map[string]*models.Payment, len(payments))
	for i := range payments {
		result[payments[i].RequestID] = &payments[i]
	}
	return result, nil
}

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fixhub-dev/fixhub-api/internal/dto"
	"github.com/fixhub-dev/fixhub-api/internal/models"
	appErrors "github.com/fixhub-dev/fixhub-api/pkg/errors"
)

type paymentStore interface {
	GetByRequestID(ctx context.Context, requestID string) (*models.Payment, error)
	Upsert(ctx context.Context, payment *models.Payment) error
}

type requestFinder interface {
	GetByID(ctx context.Context, id string) (*models.RepairRequest, error)
}

// PaymentService records the quote/payment attached to a repair
// request. Payments are mutable and correctable: recording twice
// overwrites the single record, it never appends. Status is never
// touched here.
type PaymentService struct {
	repo      paymentStore
	requests  requestFinder
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs the service.
func NewPaymentService(repo paymentStore, requests requestFinder, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PaymentService{repo: repo, requests: requests, audit: audit, validator: validate, logger: logger}
}

// Record upserts the payment for a request after range validation.
// Nothing is written when validation fails.
func (s *PaymentService) Record(ctx context.Context, requestID string, req dto.RecordPaymentRequest, actorID string) (*models.PaymentView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if req.TotalAmount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "total amount must be greater than zero")
	}
	if req.AdvancedPayment != nil {
		if *req.AdvancedPayment < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "advanced payment cannot be negative")
		}
		if *req.AdvancedPayment > req.TotalAmount {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("advanced payment %.2f exceeds total amount %.2f", *req.AdvancedPayment, req.TotalAmount))
		}
	}

	if _, err := s.requests.GetByID(ctx, requestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "repair request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load repair request")
	}

	payment := &models.Payment{
		RequestID:       requestID,
		TotalAmount:     req.TotalAmount,
		AdvancedPayment: req.AdvancedPayment,
		PaymentDate:     req.PaymentDate,
	}
	if existing, err := s.repo.GetByRequestID(ctx, requestID); err == nil {
		payment.ID = existing.ID
		payment.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	if err := s.repo.Upsert(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	s.emitAudit(ctx, actorID, requestID, payment)
	return payment.View(), nil
}

// GetByRequest returns the payment projection for a request.
func (s *PaymentService) GetByRequest(ctx context.Context, requestID string) (*models.PaymentView, error) {
	payment, err := s.repo.GetByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no payment recorded for this request")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment.View(), nil
}

func (s *PaymentService) emitAudit(ctx context.Context, actorID, requestID string, payment *models.Payment) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"total_amount":      payment.TotalAmount,
		"advanced_payment":  payment.AdvancedPayment,
		"remaining_balance": payment.RemainingBalance(),
		"is_paid":           payment.IsPaid(),
	})
	log := &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionPaymentUpsert,
		Resource:   "payment",
		ResourceID: &requestID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "payment-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

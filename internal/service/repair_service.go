package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fixhub-dev/fixhub-api/internal/dto"
	"github.com/fixhub-dev/fixhub-api/internal/lifecycle"
	"github.com/fixhub-dev/fixhub-api/internal/models"
	appErrors "github.com/fixhub-dev/fixhub-api/pkg/errors"
)

type repairStore interface {
	Create(ctx context.Context, req *models.RepairRequest) error
	GetByID(ctx context.Context, id string) (*models.RepairRequest, error)
	GetByReference(ctx context.Context, ref string) (*models.RepairRequest, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.RepairRequest, error)
	ListByTechnician(ctx context.Context, technicianID string) ([]models.RepairRequest, error)
	ListAll(ctx context.Context, filter models.RepairFilter) ([]models.RepairDetail, int, error)
	UpdateStatus(ctx context.Context, id string, from, to models.RepairStatus) error
	AssignTechnician(ctx context.Context, id, technicianID string) error
	SetEstimatedDays(ctx context.Context, id string, days int) error
	AppendHistory(ctx context.Context, entry *models.StatusHistoryEntry) error
	ListHistory(ctx context.Context, requestID string) ([]models.StatusHistoryEntry, error)
}

type userDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type paymentReader interface {
	GetByRequestID(ctx context.Context, requestID string) (*models.Payment, error)
	ListByRequestIDs(ctx context.Context, requestIDs []string) (map[string]*models.Payment, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type summaryInvalidator interface {
	Invalidate(ctx context.Context)
}

type transitionObserver interface {
	ObserveTransition(from, to string)
}

// RepairPolicy captures the configurable lifecycle behaviors.
type RepairPolicy struct {
	ReferencePrefix        string
	AutoStartOnAssign      bool
	RequirePaidForDelivery bool
}

// RepairService orchestrates the repair request lifecycle. All status
// mutation, for every role, goes through Transition so the lifecycle
// table stays the single authority.
type RepairService struct {
	repo      repairStore
	users     userDirectory
	payments  paymentReader
	audit     auditLogger
	summary   summaryInvalidator
	metrics   transitionObserver
	validator *validator.Validate
	logger    *zap.Logger
	policy    RepairPolicy
}

// RepairServiceOption configures optional collaborators.
type RepairServiceOption func(*RepairService)

// WithTransitionObserver attaches a metrics observer for applied edges.
func WithTransitionObserver(observer transitionObserver) RepairServiceOption {
	return func(s *RepairService) {
		s.metrics = observer
	}
}

// NewRepairService constructs the service.
func NewRepairService(repo repairStore, users userDirectory, payments paymentReader, audit auditLogger, summary summaryInvalidator, validate *validator.Validate, logger *zap.Logger, policy RepairPolicy, opts ...RepairServiceOption) *RepairService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if policy.ReferencePrefix == "" {
		policy.ReferencePrefix = "REP"
	}
	svc := &RepairService{
		repo:      repo,
		users:     users,
		payments:  payments,
		audit:     audit,
		summary:   summary,
		validator: validate,
		logger:    logger,
		policy:    policy,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create registers a new repair request for the acting customer.
func (s *RepairService) Create(ctx context.Context, req dto.CreateRepairRequest, customerID string) (*models.RepairRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid repair payload")
	}
	for field, value := range map[string]string{
		"device": req.Device,
		"brand":  req.Brand,
		"model":  req.Model,
		"issue":  req.Issue,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is required", field))
		}
	}

	request := &models.RepairRequest{
		ReferenceNumber: s.newReferenceNumber(),
		CustomerID:      customerID,
		Device:          strings.TrimSpace(req.Device),
		Brand:           strings.TrimSpace(req.Brand),
		Model:           strings.TrimSpace(req.Model),
		Issue:           strings.TrimSpace(req.Issue),
		Description:     optionalString(req.Description),
		Status:          models.StatusReceived,
		SubmittedAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create repair request")
	}

	if err := s.repo.AppendHistory(ctx, &models.StatusHistoryEntry{
		RequestID: request.ID,
		Status:    models.StatusReceived,
		ChangedBy: customerID,
	}); err != nil {
		s.logger.Warn("failed to record initial status history", zap.Error(err))
	}

	s.emitAudit(ctx, customerID, models.AuditActionRepairCreate, request.ID, map[string]string{
		"reference_number": request.ReferenceNumber,
	})
	s.invalidateSummary(ctx)
	return request, nil
}

// ListForCustomer returns the customer's own requests, newest first.
func (s *RepairService) ListForCustomer(ctx context.Context, customerID string) ([]models.RepairRequest, error) {
	requests, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list repair requests")
	}
	return requests, nil
}

// ListForTechnician returns the technician's assigned queue, oldest first.
func (s *RepairService) ListForTechnician(ctx context.Context, technicianID string) ([]models.RepairRequest, error) {
	requests, err := s.repo.ListByTechnician(ctx, technicianID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assigned requests")
	}
	return requests, nil
}

// ListAll returns every request with joined projections for admins.
func (s *RepairService) ListAll(ctx context.Context, query dto.RepairQuery) ([]models.RepairDetail, *models.Pagination, error) {
	filter := models.RepairFilter{
		Status:       query.Status,
		TechnicianID: query.TechnicianID,
		Search:       strings.TrimSpace(query.Search),
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	details, total, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list repair requests")
	}

	if len(details) > 0 && s.payments != nil {
		ids := make([]string, len(details))
		for i, d := range details {
			ids[i] = d.ID
		}
		payments, err := s.payments.ListByRequestIDs(ctx, ids)
		if err != nil {
			s.logger.Warn("failed to join payments onto repair list", zap.Error(err))
		} else {
			for i := range details {
				details[i].Payment = payments[details[i].ID]
			}
		}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return details, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one request enforcing role scope: admins see any request,
// technicians their assignments, customers their own tickets.
func (s *RepairService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.RepairRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleTechnician:
		if request.TechnicianID == nil || *request.TechnicianID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "request is not assigned to you")
		}
	case models.RoleCustomer:
		if request.CustomerID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "request belongs to another customer")
		}
	default:
		return nil, appErrors.ErrForbidden
	}
	return request, nil
}

// GetByReference looks a request up by its reference number.
func (s *RepairService) GetByReference(ctx context.Context, ref string) (*models.RepairRequest, error) {
	request, err := s.repo.GetByReference(ctx, strings.TrimSpace(ref))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "repair request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load repair request")
	}
	return request, nil
}

// History returns the status history for a request.
func (s *RepairService) History(ctx context.Context, id string) ([]models.StatusHistoryEntry, error) {
	if _, err := s.loadRequest(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list status history")
	}
	return entries, nil
}

// Transition applies a status change through the lifecycle table.
// Technicians may only move their own assignments; customers never
// transition. The persisted update is guarded on the expected current
// status so concurrent writers surface as a conflict.
func (s *RepairService) Transition(ctx context.Context, id string, req dto.TransitionRequest, actor *models.JWTClaims) (*models.RepairRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleTechnician:
		if request.TechnicianID == nil || *request.TechnicianID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "request is not assigned to you")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not change repair status")
	}

	target := models.RepairStatus(strings.ToUpper(strings.TrimSpace(string(req.Status))))
	if err := lifecycle.Validate(request.Status, target); err != nil {
		return nil, err
	}

	if target == models.StatusReadyForDelivery && s.policy.RequirePaidForDelivery {
		payment, err := s.payments.GetByRequestID(ctx, request.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
		}
		if !lifecycle.CanMarkReadyForDelivery(payment) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "payment must be settled before marking ready for delivery")
		}
	}

	if err := s.applyTransition(ctx, request, target, req.Note, actor.UserID); err != nil {
		return nil, err
	}
	return request, nil
}

// AssignTechnician binds a technician to the request. Re-assignment is
// allowed. When auto-start is enabled and the request is still
// RECEIVED, the assignment also applies the RECEIVED -> IN_PROGRESS
// edge through the same engine.
func (s *RepairService) AssignTechnician(ctx context.Context, id, technicianID string, actor *models.JWTClaims) (*models.RepairRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	technician, err := s.users.FindByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "technician not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load technician")
	}
	if technician.Role != models.RoleTechnician {
		return nil, appErrors.Clone(appErrors.ErrInvalidRole, fmt.Sprintf("user %s is not a technician", technicianID))
	}
	if !technician.Active {
		return nil, appErrors.Clone(appErrors.ErrInvalidRole, "technician account is inactive")
	}

	if err := s.repo.AssignTechnician(ctx, request.ID, technician.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "repair request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign technician")
	}
	request.TechnicianID = &technician.ID

	s.emitAudit(ctx, actor.UserID, models.AuditActionAssignment, request.ID, map[string]string{
		"technician_id": technician.ID,
	})

	if s.policy.AutoStartOnAssign && request.Status == models.StatusReceived {
		note := fmt.Sprintf("assigned to %s", technician.FullName)
		if err := s.applyTransition(ctx, request, models.StatusInProgress, note, actor.UserID); err != nil {
			// The assignment itself succeeded; report the partial state
			// rather than unwinding it.
			s.logger.Warn("auto-start transition failed after assignment",
				zap.String("request_id", request.ID), zap.Error(err))
		}
	}

	s.invalidateSummary(ctx)
	return request, nil
}

// SetEstimatedDays updates the estimated completion window.
func (s *RepairService) SetEstimatedDays(ctx context.Context, id string, req dto.EstimateRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "days must be between 1 and 365")
	}
	if err := s.repo.SetEstimatedDays(ctx, id, req.Days); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "repair request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set estimated days")
	}
	return nil
}

func (s *RepairService) applyTransition(ctx context.Context, request *models.RepairRequest, target models.RepairStatus, note, actorID string) error {
	if err := s.repo.UpdateStatus(ctx, request.ID, request.Status, target); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "repair status changed concurrently; reload and retry")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update repair status")
	}
	previous := request.Status
	request.Status = target
	request.UpdatedAt = time.Now().UTC()

	if err := s.repo.AppendHistory(ctx, &models.StatusHistoryEntry{
		RequestID: request.ID,
		Status:    target,
		Note:      optionalString(note),
		ChangedBy: actorID,
	}); err != nil {
		s.logger.Warn("failed to record status history", zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.ObserveTransition(string(previous), string(target))
	}
	s.emitAudit(ctx, actorID, models.AuditActionStatusChange, request.ID, map[string]string{
		"from": string(previous),
		"to":   string(target),
	})
	s.invalidateSummary(ctx)
	return nil
}

func (s *RepairService) loadRequest(ctx context.Context, id string) (*models.RepairRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "repair request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load repair request")
	}
	return request, nil
}

// newReferenceNumber builds PREFIX-YYMMDD-XXXX tickets; the suffix is
// drawn from a fresh UUID and the column's unique constraint backstops
// the negligible collision window.
func (s *RepairService) newReferenceNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("%s-%s-%s", s.policy.ReferencePrefix, time.Now().UTC().Format("060102"), suffix)
}

func (s *RepairService) emitAudit(ctx context.Context, actorID string, action models.AuditAction, resourceID string, values map[string]string) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(values)
	log := &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "repair_request",
		ResourceID: &resourceID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "repair-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func (s *RepairService) invalidateSummary(ctx context.Context) {
	if s.summary != nil {
		s.summary.Invalidate(ctx)
	}
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

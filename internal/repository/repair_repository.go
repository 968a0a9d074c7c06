package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fixhub-dev/fixhub-api/internal/models"
)

const repairColumns = `id, reference_number, customer_id, device, brand, model, issue, description, status, estimated_days, technician_id, submitted_at, updated_at`

// RepairRepository provides database access for repair requests.
type RepairRepository struct {
	db *sqlx.DB
}

// NewRepairRepository creates a new instance of RepairRepository.
func NewRepairRepository(db *sqlx.DB) *RepairRepository {
	return &RepairRepository{db: db}
}

// Create inserts a new repair request.
func (r *RepairRepository) Create(ctx context.Context, req *models.RepairRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = now
	}
	req.UpdatedAt = now

	const query = `INSERT INTO repair_requests (id, reference_number, customer_id, device, brand, model, issue, description, status, estimated_days, technician_id, submitted_at, updated_at) VALUES (:id, :reference_number, :customer_id, :device, :brand, :model, :issue, :description, :status, :estimated_days, :technician_id, :submitted_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create repair request: %w", err)
	}
	return nil
}

// GetByID returns a repair request by identifier.
func (r *RepairRepository) GetByID(ctx context.Context, id string) (*models.RepairRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM repair_requests WHERE id = $1 LIMIT 1`, repairColumns)
	var req models.RepairRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find repair request by id: %w", err)
	}
	return &req, nil
}

// GetByReference returns a repair request by its human-facing reference number.
func (r *RepairRepository) GetByReference(ctx context.Context, ref string) (*models.RepairRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM repair_requests WHERE reference_number = $1 LIMIT 1`, repairColumns)
	var req models.RepairRequest
	if err := r.db.GetContext(ctx, &req, query, ref); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find repair request by reference: %w", err)
	}
	return &req, nil
}

// ListByCustomer returns a customer's own requests, newest first.
func (r *RepairRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.RepairRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM repair_requests WHERE customer_id = $1 ORDER BY submitted_at DESC`, repairColumns)
	var requests []models.RepairRequest
	if err := r.db.SelectContext(ctx, &requests, query, customerID); err != nil {
		return nil, fmt.Errorf("list repair requests by customer: %w", err)
	}
	return requests, nil
}

// ListByTechnician returns the technician's assigned requests, oldest
// first, so the queue reads as FIFO.
func (r *RepairRepository) ListByTechnician(ctx context.Context, technicianID string) ([]models.RepairRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM repair_requests WHERE technician_id = $1 ORDER BY submitted_at ASC`, repairColumns)
	var requests []models.RepairRequest
	if err := r.db.SelectContext(ctx, &requests, query, technicianID); err != nil {
		return nil, fmt.Errorf("list repair requests by technician: %w", err)
	}
	return requests, nil
}

// ListAll returns all requests with customer/technician projections and a total count.
func (r *RepairRepository) ListAll(ctx context.Context, filter models.RepairFilter) ([]models.RepairDetail, int, error) {
	baseQuery := `FROM repair_requests rr
JOIN users c ON c.id = rr.customer_id
LEFT JOIN users t ON t.id = rr.technician_id
WHERE 1=1`
	var conditions []string
	var args []interface{}

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, status)
		}
		conditions = append(conditions, fmt.Sprintf("rr.status IN (%s)", strings.Join(placeholders, ", ")))
	}
	if filter.CustomerID != "" {
		conditions = append(conditions, fmt.Sprintf("rr.customer_id = $%d", len(args)+1))
		args = append(args, filter.CustomerID)
	}
	if filter.TechnicianID != "" {
		conditions = append(conditions, fmt.Sprintf("rr.technician_id = $%d", len(args)+1))
		args = append(args, filter.TechnicianID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(rr.reference_number) LIKE $%d OR LOWER(rr.device) LIKE $%d OR LOWER(c.full_name) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT rr.id, rr.reference_number, rr.customer_id, rr.device, rr.brand, rr.model, rr.issue, rr.description, rr.status, rr.estimated_days, rr.technician_id, rr.submitted_at, rr.updated_at, c.full_name AS customer_name, c.email AS customer_email, t.full_name AS technician_name %s ORDER BY rr.submitted_at DESC LIMIT %d OFFSET %d`, baseQuery, pageSize, offset)

	var details []models.RepairDetail
	if err := r.db.SelectContext(ctx, &details, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list repair requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count repair requests: %w", err)
	}

	return details, total, nil
}

// UpdateStatus applies a transition guarded on the expected current
// status. A concurrent writer that already moved the row makes this
// return sql.ErrNoRows instead of overwriting.
func (r *RepairRepository) UpdateStatus(ctx context.Context, id string, from, to models.RepairStatus) error {
	const query = `UPDATE repair_requests SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, from, to, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update repair status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update repair status rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AssignTechnician sets or replaces the assigned technician.
func (r *RepairRepository) AssignTechnician(ctx context.Context, id, technicianID string) error {
	const query = `UPDATE repair_requests SET technician_id = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, technicianID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("assign technician: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign technician rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetEstimatedDays updates the estimated completion days.
func (r *RepairRepository) SetEstimatedDays(ctx context.Context, id string, days int) error {
	const query = `UPDATE repair_requests SET estimated_days = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, days, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set estimated days: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set estimated days rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AppendHistory records an applied status change.
func (r *RepairRepository) AppendHistory(ctx context.Context, entry *models.StatusHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}
	const query = `INSERT INTO repair_status_history (id, request_id, status, note, changed_by, changed_at) VALUES (:id, :request_id, :status, :note, :changed_by, :changed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}

// ListHistory returns the status history for a request, oldest first.
func (r *RepairRepository) ListHistory(ctx context.Context, requestID string) ([]models.StatusHistoryEntry, error) {
	const query = `SELECT id, request_id, status, note, changed_by, changed_at FROM repair_status_history WHERE request_id = $1 ORDER BY changed_at ASC`
	var entries []models.StatusHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, requestID); err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	return entries, nil
}

// CountByStatus aggregates requests per status for the summary view.
func (r *RepairRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM repair_requests GROUP BY status`
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count repairs by status: %w", err)
	}
	return counts, nil
}

// CountUnassignedOpen counts open requests without a technician.
func (r *RepairRepository) CountUnassignedOpen(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM repair_requests WHERE technician_id IS NULL AND status NOT IN ($1, $2)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.StatusCancelled, models.StatusDelivered); err != nil {
		return 0, fmt.Errorf("count unassigned open repairs: %w", err)
	}
	return count, nil
}

package models

import "time"

// RepairStatus captures lifecycle states for repair requests.
type RepairStatus string

const (
	StatusReceived         RepairStatus = "RECEIVED"
	StatusInProgress       RepairStatus = "IN_PROGRESS"
	StatusCompleted        RepairStatus = "COMPLETED"
	StatusCancelled        RepairStatus = "CANCELLED"
	StatusReadyForDelivery RepairStatus = "READY_FOR_DELIVERY"
	StatusDelivered        RepairStatus = "DELIVERED"
)

// RepairRequest is one repair ticket owned by a customer.
type RepairRequest struct {
	ID              string       `db:"id" json:"id"`
	ReferenceNumber string       `db:"reference_number" json:"reference_number"`
	CustomerID      string       `db:"customer_id" json:"customer_id"`
	Device          string       `db:"device" json:"device"`
	Brand           string       `db:"brand" json:"brand"`
	Model           string       `db:"model" json:"model"`
	Issue           string       `db:"issue" json:"issue"`
	Description     *string      `db:"description" json:"description,omitempty"`
	Status          RepairStatus `db:"status" json:"status"`
	EstimatedDays   *int         `db:"estimated_days" json:"estimated_days,omitempty"`
	TechnicianID    *string      `db:"technician_id" json:"technician_id,omitempty"`
	SubmittedAt     time.Time    `db:"submitted_at" json:"submitted_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// StatusHistoryEntry records one applied status change.
type StatusHistoryEntry struct {
	ID        string       `db:"id" json:"id"`
	RequestID string       `db:"request_id" json:"request_id"`
	Status    RepairStatus `db:"status" json:"status"`
	Note      *string      `db:"note" json:"note,omitempty"`
	ChangedBy string       `db:"changed_by" json:"changed_by"`
	ChangedAt time.Time    `db:"changed_at" json:"changed_at"`
}

// RepairDetail joins the request with customer, technician and payment projections.
type RepairDetail struct {
	RepairRequest
	CustomerName   string   `db:"customer_name" json:"customer_name"`
	CustomerEmail  string   `db:"customer_email" json:"customer_email"`
	TechnicianName *string  `db:"technician_name" json:"technician_name,omitempty"`
	Payment        *Payment `db:"-" json:"payment,omitempty"`
}

// RepairFilter constrains admin listing queries.
type RepairFilter struct {
	Status       []RepairStatus
	CustomerID   string
	TechnicianID string
	Search       string
	Page         int
	PageSize     int
}

// StatusCount pairs a status with how many requests currently hold it.
type StatusCount struct {
	Status RepairStatus `db:"status" json:"status"`
	Count  int          `db:"count" json:"count"`
}

// RepairSummary is the cached admin workload snapshot.
type RepairSummary struct {
	Total       int                  `json:"total"`
	Open        int                  `json:"open"`
	Unassigned  int                  `json:"unassigned"`
	ByStatus    map[RepairStatus]int `json:"by_status"`
	GeneratedAt time.Time            `json:"generated_at"`
}

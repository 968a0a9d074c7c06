package dto

import "github.com/fixhub-dev/fixhub-api/internal/models"

// CreateRepairRequest payload for submitting a new repair ticket.
type CreateRepairRequest struct {
	Device      string `json:"device" validate:"required"`
	Brand       string `json:"brand" validate:"required"`
	Model       string `json:"model" validate:"required"`
	Issue       string `json:"issue" validate:"required"`
	Description string `json:"description"`
}

// CreateRepairResponse returns the identifiers of the created ticket.
type CreateRepairResponse struct {
	ID              string `json:"id"`
	ReferenceNumber string `json:"reference_number"`
}

// TransitionRequest asks for a status change with an optional note.
type TransitionRequest struct {
	Status models.RepairStatus `json:"status" validate:"required"`
	Note   string              `json:"note"`
}

// AssignTechnicianRequest binds a technician to a ticket.
type AssignTechnicianRequest struct {
	TechnicianID string `json:"technician_id" validate:"required"`
}

// EstimateRequest sets the estimated completion days.
type EstimateRequest struct {
	Days int `json:"days" validate:"required,min=1,max=365"`
}

// RepairQuery mirrors supported admin listing filters.
type RepairQuery struct {
	Status       []models.RepairStatus
	TechnicianID string
	Search       string
	Page         int
	PageSize     int
}

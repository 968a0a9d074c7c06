package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fixhub-dev/fixhub-api/internal/dto"
	"github.com/fixhub-dev/fixhub-api/internal/models"
	"github.com/fixhub-dev/fixhub-api/internal/service"
	appErrors "github.com/fixhub-dev/fixhub-api/pkg/errors"
	"github.com/fixhub-dev/fixhub-api/pkg/response"
)

// RepairHandler wires HTTP endpoints to the repair service.
type RepairHandler struct {
	service *service.RepairService
	summary *service.SummaryService
}

// NewRepairHandler creates a new handler.
func NewRepairHandler(svc *service.RepairService, summary *service.SummaryService) *RepairHandler {
	return &RepairHandler{service: svc, summary: summary}
}

// Create godoc
// @Summary Submit a repair request
// @Description Customer submits a new repair ticket
// @Tags Repairs
// @Accept json
// @Produce json
// @Param payload body dto.CreateRepairRequest true "Repair payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /repairs [post]
func (h *RepairHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateRepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid repair payload"))
		return
	}

	request, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.CreateRepairResponse{ID: request.ID, ReferenceNumber: request.ReferenceNumber})
}

// ListMine godoc
// @Summary List own repair requests
// @Description Customer lists their tickets, newest first
// @Tags Repairs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /repairs/mine [get]
func (h *RepairHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	requests, err := h.service.ListForCustomer(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, nil)
}

// Queue godoc
// @Summary List assigned repair requests
// @Description Technician lists their queue, oldest first
// @Tags Repairs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /repairs/queue [get]
func (h *RepairHandler) Queue(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	requests, err := h.service.ListForTechnician(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, nil)
}

// List godoc
// @Summary List all repair requests
// @Description Admin listing with filters and pagination
// @Tags Repairs
// @Produce json
// @Param status query string false "Comma-separated status filter"
// @Param technician_id query string false "Technician filter"
// @Param search query string false "Search in reference, device, customer"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /repairs [get]
func (h *RepairHandler) List(c *gin.Context) {
	query := dto.RepairQuery{
		TechnicianID: c.Query("technician_id"),
		Search:       c.Query("search"),
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			query.Status = append(query.Status, models.RepairStatus(strings.ToUpper(strings.TrimSpace(s))))
		}
	}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	details, pagination, err := h.service.ListAll(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, details, pagination)
}

// Get godoc
// @Summary Get a repair request
// @Description Fetch one ticket, scoped to the caller's role
// @Tags Repairs
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /repairs/{id} [get]
func (h *RepairHandler) Get(c *gin.Context) {
	request, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// GetByReference godoc
// @Summary Look up a repair request by reference number
// @Tags Repairs
// @Produce json
// @Param ref path string true "Reference number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /repairs/reference/{ref} [get]
func (h *RepairHandler) GetByReference(c *gin.Context) {
	request, err := h.service.GetByReference(c.Request.Context(), c.Param("ref"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// History godoc
// @Summary Get status history for a repair request
// @Tags Repairs
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /repairs/{id}/history [get]
func (h *RepairHandler) History(c *gin.Context) {
	entries, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Transition godoc
// @Summary Change repair status
// @Description Applies one lifecycle edge; invalid edges return 409
// @Tags Repairs
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.TransitionRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /repairs/{id}/status [post]
func (h *RepairHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transition payload"))
		return
	}

	request, err := h.service.Transition(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// Assign godoc
// @Summary Assign a technician
// @Description Admin binds a technician; re-assignment overwrites
// @Tags Repairs
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.AssignTechnicianRequest true "Technician"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /repairs/{id}/assign [post]
func (h *RepairHandler) Assign(c *gin.Context) {
	var req dto.AssignTechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	request, err := h.service.AssignTechnician(c.Request.Context(), c.Param("id"), req.TechnicianID, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// Estimate godoc
// @Summary Set estimated completion days
// @Tags Repairs
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.EstimateRequest true "Estimate"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /repairs/{id}/estimate [put]
func (h *RepairHandler) Estimate(c *gin.Context) {
	var req dto.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid estimate payload"))
		return
	}

	if err := h.service.SetEstimatedDays(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Summary godoc
// @Summary Workload summary
// @Description Admin snapshot of counts per status
// @Tags Repairs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /repairs/summary [get]
func (h *RepairHandler) Summary(c *gin.Context) {
	snapshot, err := h.summary.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

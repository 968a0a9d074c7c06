package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fixhub-dev/fixhub-api/internal/dto"
	"github.com/fixhub-dev/fixhub-api/internal/service"
	appErrors "github.com/fixhub-dev/fixhub-api/pkg/errors"
	"github.com/fixhub-dev/fixhub-api/pkg/response"
)

// PaymentHandler wires HTTP endpoints to the payment service.
type PaymentHandler struct {
	service *service.PaymentService
}

// NewPaymentHandler creates a new handler.
func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: svc}
}

// Record godoc
// @Summary Record or correct a payment
// @Description Upserts the single payment attached to a repair request
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.RecordPaymentRequest true "Payment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /repairs/{id}/payment [put]
func (h *PaymentHandler) Record(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment payload"))
		return
	}

	view, err := h.service.Record(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// Get godoc
// @Summary Get the payment for a repair request
// @Tags Payments
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /repairs/{id}/payment [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	view, err := h.service.GetByRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

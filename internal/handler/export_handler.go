package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fixhub-dev/fixhub-api/internal/models"
	"github.com/fixhub-dev/fixhub-api/internal/service"
	"github.com/fixhub-dev/fixhub-api/pkg/response"
)

// ExportHandler wires HTTP endpoints to the export service.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Report godoc
// @Summary Export the repair list
// @Description Renders the filtered repair list as CSV or PDF
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param status query string false "Comma-separated status filter"
// @Param technician_id query string false "Technician filter"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /repairs/export [get]
func (h *ExportHandler) Report(c *gin.Context) {
	filter := models.RepairFilter{TechnicianID: c.Query("technician_id")}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Status = append(filter.Status, models.RepairStatus(strings.ToUpper(strings.TrimSpace(s))))
		}
	}

	format := c.DefaultQuery("format", "csv")
	data, contentType, err := h.service.RepairReport(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	ext := "csv"
	if contentType == "application/pdf" {
		ext = "pdf"
	}
	filename := fmt.Sprintf("repairs-%s.%s", time.Now().UTC().Format("20060102"), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// Receipt godoc
// @Summary Download a payment receipt
// @Description Renders the receipt PDF for a paid repair request
// @Tags Exports
// @Produce application/pdf
// @Param id path string true "Request ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /repairs/{id}/receipt [get]
func (h *ExportHandler) Receipt(c *gin.Context) {
	data, err := h.service.Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\"receipt.pdf\"")
	c.Data(http.StatusOK, "application/pdf", data)
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fixhub-dev/fixhub-api/internal/models"
	appErrors "github.com/fixhub-dev/fixhub-api/pkg/errors"
	"github.com/fixhub-dev/fixhub-api/pkg/export"
)

type exportRepairStore interface {
	ListAll(ctx context.Context, filter models.RepairFilter) ([]models.RepairDetail, int, error)
	GetByID(ctx context.Context, id string) (*models.RepairRequest, error)
}

type exportUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type exportPaymentStore interface {
	GetByRequestID(ctx context.Context, requestID string) (*models.Payment, error)
	ListByRequestIDs(ctx context.Context, requestIDs []string) (map[string]*models.Payment, error)
}

// ExportService renders repair reports and payment receipts.
type ExportService struct {
	repairs  exportRepairStore
	users    exportUserStore
	payments exportPaymentStore
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
	shopName string
}

// NewExportService constructs the service.
func NewExportService(repairs exportRepairStore, users exportUserStore, payments exportPaymentStore, logger *zap.Logger, shopName string) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if shopName == "" {
		shopName = "FixHub Repair Shop"
	}
	return &ExportService{
		repairs:  repairs,
		users:    users,
		payments: payments,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
		shopName: shopName,
	}
}

var reportHeaders = []string{
	"Reference", "Customer", "Device", "Brand", "Model", "Issue",
	"Status", "Technician", "Submitted", "Total", "Paid", "Balance",
}

// RepairReport renders the filtered repair list as CSV or PDF bytes
// together with the response content type.
func (s *ExportService) RepairReport(ctx context.Context, filter models.RepairFilter, format string) ([]byte, string, error) {
	filter.Page = 1
	filter.PageSize = 10000

	repairs, _, err := s.repairs.ListAll(ctx, filter)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load repairs for export")
	}

	ids := make([]string, 0, len(repairs))
	for _, r := range repairs {
		ids = append(ids, r.ID)
	}
	payments, err := s.payments.ListByRequestIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("failed to load payments for export", zap.Error(err))
		payments = map[string]*models.Payment{}
	}

	dataset := export.Dataset{Headers: reportHeaders, Rows: make([]map[string]string, 0, len(repairs))}
	for _, r := range repairs {
		row := map[string]string{
			"Reference": r.ReferenceNumber,
			"Customer":  r.CustomerName,
			"Device":    r.Device,
			"Brand":     r.Brand,
			"Model":     r.Model,
			"Issue":     r.Issue,
			"Status":    string(r.Status),
			"Submitted": r.SubmittedAt.Format("2006-01-02"),
		}
		if r.TechnicianName != nil {
			row["Technician"] = *r.TechnicianName
		}
		if p := payments[r.ID]; p != nil {
			advance := 0.0
			if p.AdvancedPayment != nil {
				advance = *p.AdvancedPayment
			}
			row["Total"] = fmt.Sprintf("%.2f", p.TotalAmount)
			row["Paid"] = fmt.Sprintf("%.2f", advance)
			row["Balance"] = fmt.Sprintf("%.2f", p.RemainingBalance())
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	switch strings.ToLower(format) {
	case "", "csv":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return data, "text/csv", nil
	case "pdf":
		data, err := s.pdf.Render(dataset, "Repair Requests Report")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return data, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// Receipt renders a payment receipt PDF for a repair request. Only
// requests with a recorded payment can produce a receipt.
func (s *ExportService) Receipt(ctx context.Context, requestID string) ([]byte, error) {
	request, err := s.repairs.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "repair request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load repair request")
	}

	payment, err := s.payments.GetByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no payment recorded for this request")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	customerName := request.CustomerID
	if customer, err := s.users.FindByID(ctx, request.CustomerID); err == nil {
		customerName = customer.FullName
	}

	advance := 0.0
	if payment.AdvancedPayment != nil {
		advance = *payment.AdvancedPayment
	}

	receipt := export.Receipt{
		ShopName:        s.shopName,
		ReferenceNumber: request.ReferenceNumber,
		CustomerName:    customerName,
		Device:          fmt.Sprintf("%s %s %s", request.Device, request.Brand, request.Model),
		IssuedAt:        time.Now().UTC().Format("2006-01-02 15:04"),
		Lines: []export.ReceiptLine{
			{Label: "Total amount", Value: fmt.Sprintf("%.2f", payment.TotalAmount)},
			{Label: "Advance paid", Value: fmt.Sprintf("%.2f", advance)},
		},
		TotalLabel: "Remaining balance",
		TotalValue: fmt.Sprintf("%.2f", payment.RemainingBalance()),
	}
	if payment.IsPaid() {
		receipt.Footer = "Paid in full. Thank you!"
	} else {
		receipt.Footer = "Balance due on delivery."
	}

	data, err := s.pdf.RenderReceipt(receipt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return data, nil
}

package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fixhub-dev/fixhub-api/internal/models"
	appErrors "github.com/fixhub-dev/fixhub-api/pkg/errors"
)

type mockExportRepairStore struct {
	details []models.RepairDetail
	byID    map[string]*models.RepairRequest
}

func (m *mockExportRepairStore) ListAll(ctx context.Context, filter models.RepairFilter) ([]models.RepairDetail, int, error) {
	return m.details, len(m.details), nil
}

func (m *mockExportRepairStore) GetByID(ctx context.Context, id string) (*models.RepairRequest, error) {
	if req, ok := m.byID[id]; ok {
		cp := *req
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type mockExportUserStore struct {
	users map[string]*models.User
}

func (m *mockExportUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type mockExportPaymentStore struct {
	payments map[string]*models.Payment
}

func (m *mockExportPaymentStore) GetByRequestID(ctx context.Context, requestID string) (*models.Payment, error) {
	if payment, ok := m.payments[requestID]; ok {
		cp := *payment
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockExportPaymentStore) ListByRequestIDs(ctx context.Context, requestIDs []string) (map[string]*models.Payment, error) {
	result := make(map[string]*models.Payment)
	for _, id := range requestIDs {
		if payment, ok := m.payments[id]; ok {
			cp := *payment
			result[id] = &cp
		}
	}
	return result, nil
}

func newTestExportService() (*ExportService, *mockExportRepairStore, *mockExportPaymentStore) {
	advance := 40.0
	repairs := &mockExportRepairStore{
		details: []models.RepairDetail{
			{
				RepairRequest: models.RepairRequest{
					ID:              "r1",
					ReferenceNumber: "REP-260828-AAAA",
					Device:          "Laptop",
					Brand:           "Lenovo",
					Model:           "T14",
					Issue:           "Does not boot",
					Status:          models.StatusInProgress,
					SubmittedAt:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
				},
				CustomerName: "Customer One",
			},
		},
		byID: map[string]*models.RepairRequest{
			"r1": {
				ID:              "r1",
				ReferenceNumber: "REP-260828-AAAA",
				CustomerID:      "cust-1",
				Device:          "Laptop",
				Brand:           "Lenovo",
				Model:           "T14",
			},
		},
	}
	payments := &mockExportPaymentStore{
		payments: map[string]*models.Payment{
			"r1": {ID: "p1", RequestID: "r1", TotalAmount: 100, AdvancedPayment: &advance},
		},
	}
	users := &mockExportUserStore{users: map[string]*models.User{
		"cust-1": {ID: "cust-1", FullName: "Customer One"},
	}}
	svc := NewExportService(repairs, users, payments, zap.NewNop(), "FixHub Repair Shop")
	return svc, repairs, payments
}

func TestExportServiceRepairReportCSV(t *testing.T) {
	svc, _, _ := newTestExportService()

	data, contentType, err := svc.RepairReport(context.Background(), models.RepairFilter{}, "csv")
	require.NoError(t, err)

	assert.Equal(t, "text/csv", contentType)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "Reference,Customer,Device"))
	assert.Contains(t, content, "REP-260828-AAAA")
	assert.Contains(t, content, "60.00")
}

func TestExportServiceRepairReportPDF(t *testing.T) {
	svc, _, _ := newTestExportService()

	data, contentType, err := svc.RepairReport(context.Background(), models.RepairFilter{}, "pdf")
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestExportServiceRepairReportBadFormat(t *testing.T) {
	svc, _, _ := newTestExportService()

	_, _, err := svc.RepairReport(context.Background(), models.RepairFilter{}, "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceReceipt(t *testing.T) {
	svc, _, _ := newTestExportService()

	data, err := svc.Receipt(context.Background(), "r1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestExportServiceReceiptRequiresPayment(t *testing.T) {
	svc, _, payments := newTestExportService()
	delete(payments.payments, "r1")

	_, err := svc.Receipt(context.Background(), "r1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportServiceReceiptUnknownRequest(t *testing.T) {
	svc, _, _ := newTestExportService()

	_, err := svc.Receipt(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

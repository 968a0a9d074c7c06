package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fixhub-dev/fixhub-api/internal/middleware"
	"github.com/fixhub-dev/fixhub-api/internal/models"
	"github.com/fixhub-dev/fixhub-api/internal/service"
)

type stubRepairStore struct {
	items   map[string]*models.RepairRequest
	history []models.StatusHistoryEntry
}

func newStubRepairStore() *stubRepairStore {
	return &stubRepairStore{items: make(map[string]*models.RepairRequest)}
}

func (s *stubRepairStore) Create(ctx context.Context, req *models.RepairRequest) error {
	if req.ID == "" {
		req.ID = "req-1"
	}
	cp := *req
	s.items[req.ID] = &cp
	return nil
}

func (s *stubRepairStore) GetByID(ctx context.Context, id string) (*models.RepairRequest, error) {
	if req, ok := s.items[id]; ok {
		cp := *req
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubRepairStore) GetByReference(ctx context.Context, ref string) (*models.RepairRequest, error) {
	for _, req := range s.items {
		if req.ReferenceNumber == ref {
			cp := *req
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubRepairStore) ListByCustomer(ctx context.Context, customerID string) ([]models.RepairRequest, error) {
	var result []models.RepairRequest
	for _, req := range s.items {
		if req.CustomerID == customerID {
			result = append(result, *req)
		}
	}
	return result, nil
}

func (s *stubRepairStore) ListByTechnician(ctx context.Context, technicianID string) ([]models.RepairRequest, error) {
	return nil, nil
}

func (s *stubRepairStore) ListAll(ctx context.Context, filter models.RepairFilter) ([]models.RepairDetail, int, error) {
	return nil, 0, nil
}

func (s *stubRepairStore) UpdateStatus(ctx context.Context, id string, from, to models.RepairStatus) error {
	req, ok := s.items[id]
	if !ok || req.Status != from {
		return sql.ErrNoRows
	}
	req.Status = to
	return nil
}

func (s *stubRepairStore) AssignTechnician(ctx context.Context, id, technicianID string) error {
	req, ok := s.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	tech := technicianID
	req.TechnicianID = &tech
	return nil
}

func (s *stubRepairStore) SetEstimatedDays(ctx context.Context, id string, days int) error {
	return nil
}

func (s *stubRepairStore) AppendHistory(ctx context.Context, entry *models.StatusHistoryEntry) error {
	s.history = append(s.history, *entry)
	return nil
}

func (s *stubRepairStore) ListHistory(ctx context.Context, requestID string) ([]models.StatusHistoryEntry, error) {
	return s.history, nil
}

type stubUserDirectory struct{}

func (stubUserDirectory) FindByID(ctx context.Context, id string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

type stubPaymentReader struct{}

func (stubPaymentReader) GetByRequestID(ctx context.Context, requestID string) (*models.Payment, error) {
	return nil, sql.ErrNoRows
}

func (stubPaymentReader) ListByRequestIDs(ctx context.Context, requestIDs []string) (map[string]*models.Payment, error) {
	return map[string]*models.Payment{}, nil
}

type stubAuditLogger struct{}

func (stubAuditLogger) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return nil
}

type stubSummary struct{}

func (stubSummary) Invalidate(ctx context.Context) {}

func newRepairTestHandler(store *stubRepairStore) *RepairHandler {
	svc := service.NewRepairService(store, stubUserDirectory{}, stubPaymentReader{}, stubAuditLogger{}, stubSummary{},
		validator.New(), zap.NewNop(), service.RepairPolicy{ReferencePrefix: "REP"})
	return NewRepairHandler(svc, nil)
}

func testContext(t *testing.T, method, target, body string, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func TestRepairHandlerCreate(t *testing.T) {
	store := newStubRepairStore()
	handler := newRepairTestHandler(store)

	c, rec := testContext(t, http.MethodPost, "/repairs",
		`{"device":"Laptop","brand":"Lenovo","model":"T14","issue":"Does not boot"}`,
		&models.JWTClaims{UserID: "cust-1", Role: models.RoleCustomer})

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	var envelope struct {
		Data struct {
			ID              string `json:"id"`
			ReferenceNumber string `json:"reference_number"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.ID)
	assert.True(t, strings.HasPrefix(envelope.Data.ReferenceNumber, "REP-"))
	assert.Equal(t, models.StatusReceived, store.items[envelope.Data.ID].Status)
}

func TestRepairHandlerCreateInvalidPayload(t *testing.T) {
	handler := newRepairTestHandler(newStubRepairStore())

	c, rec := testContext(t, http.MethodPost, "/repairs", `{"device":"Laptop"}`,
		&models.JWTClaims{UserID: "cust-1", Role: models.RoleCustomer})

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRepairHandlerTransitionInvalidEdge(t *testing.T) {
	store := newStubRepairStore()
	store.items["r1"] = &models.RepairRequest{ID: "r1", Status: models.StatusReceived, CustomerID: "cust-1", SubmittedAt: time.Now()}
	handler := newRepairTestHandler(store)

	c, rec := testContext(t, http.MethodPost, "/repairs/r1/status", `{"status":"COMPLETED"}`,
		&models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	handler.Transition(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, models.StatusReceived, store.items["r1"].Status)
}

func TestRepairHandlerTransitionValidEdge(t *testing.T) {
	store := newStubRepairStore()
	store.items["r1"] = &models.RepairRequest{ID: "r1", Status: models.StatusReceived, CustomerID: "cust-1", SubmittedAt: time.Now()}
	handler := newRepairTestHandler(store)

	c, rec := testContext(t, http.MethodPost, "/repairs/r1/status", `{"status":"IN_PROGRESS","note":"bench 3"}`,
		&models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	handler.Transition(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusInProgress, store.items["r1"].Status)
}

func TestRepairHandlerGetForbiddenForOtherCustomer(t *testing.T) {
	store := newStubRepairStore()
	store.items["r1"] = &models.RepairRequest{ID: "r1", Status: models.StatusReceived, CustomerID: "cust-1", SubmittedAt: time.Now()}
	handler := newRepairTestHandler(store)

	c, rec := testContext(t, http.MethodGet, "/repairs/r1", "",
		&models.JWTClaims{UserID: "cust-2", Role: models.RoleCustomer})
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	handler.Get(c)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRepairHandlerGetNotFound(t *testing.T) {
	handler := newRepairTestHandler(newStubRepairStore())

	c, rec := testContext(t, http.MethodGet, "/repairs/missing", "",
		&models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

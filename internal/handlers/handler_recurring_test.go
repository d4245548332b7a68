package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/propops/property_ops_backend/internal/apperrors"
	"github.com/propops/property_ops_backend/internal/core/domain"
	portssvc "github.com/propops/property_ops_backend/internal/core/ports/services"
	"github.com/propops/property_ops_backend/internal/dto"
	"github.com/propops/property_ops_backend/internal/handlers"
	"github.com/propops/property_ops_backend/internal/middleware"
)

// --- Mock RecurringService ---
type MockRecurringService struct {
	mock.Mock
}

func (m *MockRecurringService) CreateRecurringPayment(ctx context.Context, req dto.CreateRecurringPaymentRequest, creatorUserID string) (*dto.CreateRecurringPaymentResponse, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CreateRecurringPaymentResponse), args.Error(1)
}
func (m *MockRecurringService) UpdateRecurringPayment(ctx context.Context, definitionID string, req dto.UpdateRecurringPaymentRequest, updaterUserID string) (*dto.UpdateRecurringPaymentResponse, error) {
	args := m.Called(ctx, definitionID, req, updaterUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UpdateRecurringPaymentResponse), args.Error(1)
}
func (m *MockRecurringService) GetRecurringPayment(ctx context.Context, definitionID string) (*domain.RecurringDefinition, error) {
	args := m.Called(ctx, definitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecurringDefinition), args.Error(1)
}
func (m *MockRecurringService) ListRecurringPayments(ctx context.Context, params dto.ListParams) (*dto.ListRecurringPaymentsResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListRecurringPaymentsResponse), args.Error(1)
}
func (m *MockRecurringService) ListSnapshots(ctx context.Context, definitionID string, params dto.ListParams) (*dto.ListSnapshotsResponse, error) {
	args := m.Called(ctx, definitionID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListSnapshotsResponse), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.RecurringSvcFacade = (*MockRecurringService)(nil)

// --- Test Suite ---
type RecurringHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockService *MockRecurringService
	jwtSecret   string
}

// generateTestToken creates a dummy JWT for testing.
func (suite *RecurringHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "propops-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *RecurringHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockService = new(MockRecurringService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterRecurringRoutes(v1, suite.mockService)
}

func (suite *RecurringHandlerTestSuite) performRequest(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(userID))
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func validCreateBody() map[string]interface{} {
	return map[string]interface{}{
		"id":            "insurance-ho-2024",
		"scope":         "company",
		"vendor":        "Allianz",
		"category":      "insurance",
		"amount":        "220.50",
		"dueDayOfMonth": 15,
		"paymentType":   "bank_account",
		"startMonthKey": "2024-01",
	}
}

// --- Test Cases ---

func (suite *RecurringHandlerTestSuite) TestCreateRecurringPayment_Success() {
	resp := &dto.CreateRecurringPaymentResponse{
		Definition:   dto.RecurringPaymentResponse{ID: "insurance-ho-2024"},
		RowsInserted: 4,
		CurrentMonth: "2024-04",
	}
	suite.mockService.On("CreateRecurringPayment", mock.Anything, mock.AnythingOfType("dto.CreateRecurringPaymentRequest"), "operator").Return(resp, nil).Once()

	w := suite.performRequest(http.MethodPost, "/api/v1/recurring-payments", "operator", validCreateBody())

	suite.Equal(http.StatusCreated, w.Code)
	var got dto.CreateRecurringPaymentResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Equal(4, got.RowsInserted)
	suite.Equal("2024-04", got.CurrentMonth)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *RecurringHandlerTestSuite) TestCreateRecurringPayment_Unauthorized() {
	w := suite.performRequest(http.MethodPost, "/api/v1/recurring-payments", "", validCreateBody())

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockService.AssertNotCalled(suite.T(), "CreateRecurringPayment", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RecurringHandlerTestSuite) TestCreateRecurringPayment_BindRejectsMissingFields() {
	body := validCreateBody()
	delete(body, "startMonthKey")

	w := suite.performRequest(http.MethodPost, "/api/v1/recurring-payments", "operator", body)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockService.AssertNotCalled(suite.T(), "CreateRecurringPayment", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RecurringHandlerTestSuite) TestCreateRecurringPayment_ValidationErrorMapsTo400() {
	suite.mockService.On("CreateRecurringPayment", mock.Anything, mock.Anything, "operator").
		Return(nil, apperrors.ErrValidation).Once()

	w := suite.performRequest(http.MethodPost, "/api/v1/recurring-payments", "operator", validCreateBody())

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *RecurringHandlerTestSuite) TestCreateRecurringPayment_DuplicateMapsTo409() {
	suite.mockService.On("CreateRecurringPayment", mock.Anything, mock.Anything, "operator").
		Return(nil, apperrors.ErrDuplicate).Once()

	w := suite.performRequest(http.MethodPost, "/api/v1/recurring-payments", "operator", validCreateBody())

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *RecurringHandlerTestSuite) TestGetRecurringPayment_NotFoundMapsTo404() {
	suite.mockService.On("GetRecurringPayment", mock.Anything, "missing-definition").
		Return(nil, apperrors.ErrNotFound).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/recurring-payments/missing-definition", "operator", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *RecurringHandlerTestSuite) TestGetRecurringPayment_Success() {
	def := &domain.RecurringDefinition{
		ID:            "insurance-ho-2024",
		Scope:         domain.ScopeCompany,
		Vendor:        "Allianz",
		Category:      "insurance",
		Amount:        decimal.NewFromFloat(220.50),
		StartMonthKey: "2024-01",
		Status:        domain.DefinitionActive,
	}
	suite.mockService.On("GetRecurringPayment", mock.Anything, def.ID).Return(def, nil).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/recurring-payments/insurance-ho-2024", "operator", nil)

	suite.Equal(http.StatusOK, w.Code)
	var got dto.RecurringPaymentResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Equal(def.ID, got.ID)
	suite.Equal("Allianz", got.Vendor)
}

func (suite *RecurringHandlerTestSuite) TestUpdateRecurringPayment_Success() {
	resp := &dto.UpdateRecurringPaymentResponse{
		Definition:        dto.RecurringPaymentResponse{ID: "insurance-ho-2024"},
		UnpaidRowsUpdated: 2,
		CurrentMonth:      "2024-04",
	}
	suite.mockService.On("UpdateRecurringPayment", mock.Anything, "insurance-ho-2024", mock.AnythingOfType("dto.UpdateRecurringPaymentRequest"), "operator").
		Return(resp, nil).Once()

	body := map[string]interface{}{"amount": "310.00"}
	w := suite.performRequest(http.MethodPatch, "/api/v1/recurring-payments/insurance-ho-2024", "operator", body)

	suite.Equal(http.StatusOK, w.Code)
	var got dto.UpdateRecurringPaymentResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Equal(2, got.UnpaidRowsUpdated)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *RecurringHandlerTestSuite) TestUpdateRecurringPayment_ConflictMapsTo409() {
	suite.mockService.On("UpdateRecurringPayment", mock.Anything, "insurance-ho-2024", mock.Anything, "operator").
		Return(nil, apperrors.ErrConflict).Once()

	body := map[string]interface{}{"amount": "310.00"}
	w := suite.performRequest(http.MethodPatch, "/api/v1/recurring-payments/insurance-ho-2024", "operator", body)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *RecurringHandlerTestSuite) TestListSnapshots_Success() {
	resp := &dto.ListSnapshotsResponse{
		Snapshots: []dto.SnapshotResponse{
			{ID: "snap-1", MonthKey: "2024-04", Status: domain.SnapshotUnpaid},
			{ID: "snap-2", MonthKey: "2024-03", Status: domain.SnapshotPaid},
		},
	}
	suite.mockService.On("ListSnapshots", mock.Anything, "insurance-ho-2024", dto.ListParams{Limit: 12}).
		Return(resp, nil).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/recurring-payments/insurance-ho-2024/snapshots?limit=12", "operator", nil)

	suite.Equal(http.StatusOK, w.Code)
	var got dto.ListSnapshotsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Len(got.Snapshots, 2)
}

func TestRecurringHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(RecurringHandlerTestSuite))
}

package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/propops/property_ops_backend/internal/apperrors"
	"github.com/propops/property_ops_backend/internal/core/domain"
	portsrepo "github.com/propops/property_ops_backend/internal/core/ports/repositories"
	portssvc "github.com/propops/property_ops_backend/internal/core/ports/services"
	"github.com/propops/property_ops_backend/internal/core/services"
	"github.com/propops/property_ops_backend/internal/dto"
)

// MockRecurringRepository is a mock type for the RecurringRepositoryWithTx interface
type MockRecurringRepository struct {
	mock.Mock
}

var _ portsrepo.RecurringRepositoryWithTx = (*MockRecurringRepository)(nil)

func (m *MockRecurringRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockRecurringRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockRecurringRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockRecurringRepository) FindDefinitionByID(ctx context.Context, definitionID string) (*domain.RecurringDefinition, error) {
	args := m.Called(ctx, definitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecurringDefinition), args.Error(1)
}

func (m *MockRecurringRepository) FindDefinitionByIDForUpdate(ctx context.Context, tx pgx.Tx, definitionID string) (*domain.RecurringDefinition, error) {
	args := m.Called(ctx, tx, definitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecurringDefinition), args.Error(1)
}

func (m *MockRecurringRepository) ListDefinitions(ctx context.Context, limit int, nextToken *string) ([]domain.RecurringDefinition, *string, error) {
	args := m.Called(ctx, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return args.Get(0).([]domain.RecurringDefinition), token, args.Error(2)
}

func (m *MockRecurringRepository) InsertDefinitionInTx(ctx context.Context, tx pgx.Tx, def domain.RecurringDefinition) error {
	args := m.Called(ctx, tx, def)
	return args.Error(0)
}

func (m *MockRecurringRepository) UpdateDefinitionInTx(ctx context.Context, tx pgx.Tx, def domain.RecurringDefinition) error {
	args := m.Called(ctx, tx, def)
	return args.Error(0)
}

func (m *MockRecurringRepository) FindSnapshotsByDefinitionInTx(ctx context.Context, tx pgx.Tx, def domain.RecurringDefinition) (map[string]domain.ExpenseSnapshot, error) {
	args := m.Called(ctx, tx, def)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.ExpenseSnapshot), args.Error(1)
}

func (m *MockRecurringRepository) InsertSnapshotsInTx(ctx context.Context, tx pgx.Tx, def domain.RecurringDefinition, snapshots []domain.ExpenseSnapshot) error {
	args := m.Called(ctx, tx, def, snapshots)
	return args.Error(0)
}

func (m *MockRecurringRepository) UpdateSnapshotsInTx(ctx context.Context, tx pgx.Tx, def domain.RecurringDefinition, updates []domain.SnapshotUpdate) error {
	args := m.Called(ctx, tx, def, updates)
	return args.Error(0)
}

func (m *MockRecurringRepository) ListSnapshotsByDefinition(ctx context.Context, def domain.RecurringDefinition, limit int, nextToken *string) ([]domain.ExpenseSnapshot, *string, error) {
	args := m.Called(ctx, def, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return args.Get(0).([]domain.ExpenseSnapshot), token, args.Error(2)
}

// MockAuditService is a mock type for the AuditSvcFacade interface
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) RecordAudit(ctx context.Context, entity, entityID, action string, before, after interface{}, actorID string) error {
	args := m.Called(ctx, entity, entityID, action, before, after, actorID)
	return args.Error(0)
}

// --- Test Suite Setup ---

type RecurringServiceTestSuite struct {
	suite.Suite
	mockRepo  *MockRecurringRepository
	mockAudit *MockAuditService
	service   portssvc.RecurringSvcFacade
	now       time.Time
}

func (suite *RecurringServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockRecurringRepository)
	suite.mockAudit = new(MockAuditService)
	suite.now = time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC)
	suite.service = services.NewRecurringServiceAt(suite.mockRepo, suite.mockAudit, func() time.Time { return suite.now })
}

func (suite *RecurringServiceTestSuite) createRequest() dto.CreateRecurringPaymentRequest {
	return dto.CreateRecurringPaymentRequest{
		ID:            "elec-headoffice-01",
		Scope:         domain.ScopeCompany,
		Vendor:        "AGL Energy",
		Category:      "utilities",
		Amount:        decimal.NewFromInt(100),
		DueDayOfMonth: 28,
		PaymentType:   domain.PaymentBankAccount,
		StartMonthKey: "2024-02",
	}
}

func (suite *RecurringServiceTestSuite) existingDefinition() *domain.RecurringDefinition {
	return &domain.RecurringDefinition{
		ID:              "elec-headoffice-01",
		Scope:           domain.ScopeCompany,
		Vendor:          "AGL Energy",
		Category:        "utilities",
		Amount:          decimal.NewFromInt(100),
		DueDayOfMonth:   28,
		FrequencyMonths: 1,
		PaymentType:     domain.PaymentBankAccount,
		StartMonthKey:   "2024-01",
		Status:          domain.DefinitionActive,
	}
}

// --- Create ---

func (suite *RecurringServiceTestSuite) TestCreateRecurringPayment_BackfillsAndCommits() {
	ctx := context.Background()
	req := suite.createRequest()

	suite.mockRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("InsertDefinitionInTx", ctx, mock.Anything, mock.AnythingOfType("domain.RecurringDefinition")).Return(nil).Once()
	suite.mockRepo.On("FindSnapshotsByDefinitionInTx", ctx, mock.Anything, mock.AnythingOfType("domain.RecurringDefinition")).Return(map[string]domain.ExpenseSnapshot{}, nil).Once()
	// 2024-02 and 2024-03 backfilled paid, 2024-04 unpaid
	suite.mockRepo.On("InsertSnapshotsInTx", ctx, mock.Anything, mock.AnythingOfType("domain.RecurringDefinition"), mock.MatchedBy(func(snaps []domain.ExpenseSnapshot) bool {
		return len(snaps) == 3
	})).Return(nil).Once()
	suite.mockRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockAudit.On("RecordAudit", ctx, "RecurringPayment", req.ID, "create", nil, mock.Anything, "operator").Return(nil).Once()

	resp, err := suite.service.CreateRecurringPayment(ctx, req, "operator")

	suite.Require().NoError(err)
	suite.Require().NotNil(resp)
	suite.Equal(3, resp.RowsInserted)
	suite.Equal(0, resp.RowsUpdated)
	suite.Equal("2024-04", resp.CurrentMonth)
	suite.Equal(req.ID, resp.Definition.ID)
	suite.Equal(1, resp.Definition.FrequencyMonths) // defaulted
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockAudit.AssertExpectations(suite.T())
}

func (suite *RecurringServiceTestSuite) TestCreateRecurringPayment_RetryPlansNothingNew() {
	ctx := context.Background()
	req := suite.createRequest()

	// A previous attempt committed every row already.
	def := req.ToDomain()
	existing := map[string]domain.ExpenseSnapshot{}
	for _, month := range []string{"2024-02", "2024-03", "2024-04"} {
		existing[month] = domain.ExpenseSnapshot{ID: "snap-" + month, FixedExpenseID: def.ID, MonthKey: month, Status: domain.SnapshotPaid}
	}

	suite.mockRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("InsertDefinitionInTx", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("FindSnapshotsByDefinitionInTx", ctx, mock.Anything, mock.Anything).Return(existing, nil).Once()
	suite.mockRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockAudit.On("RecordAudit", ctx, "RecurringPayment", req.ID, "create", nil, mock.Anything, "operator").Return(nil).Once()

	resp, err := suite.service.CreateRecurringPayment(ctx, req, "operator")

	suite.Require().NoError(err)
	suite.Equal(0, resp.RowsInserted)
	suite.mockRepo.AssertNotCalled(suite.T(), "InsertSnapshotsInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *RecurringServiceTestSuite) TestCreateRecurringPayment_RejectsShortID() {
	ctx := context.Background()
	req := suite.createRequest()
	req.ID = "short"

	resp, err := suite.service.CreateRecurringPayment(ctx, req, "operator")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(resp)
	suite.mockRepo.AssertNotCalled(suite.T(), "Begin", mock.Anything)
}

func (suite *RecurringServiceTestSuite) TestCreateRecurringPayment_RejectsPropertyScopeWithoutProperty() {
	ctx := context.Background()
	req := suite.createRequest()
	req.Scope = domain.ScopeProperty

	_, err := suite.service.CreateRecurringPayment(ctx, req, "operator")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "Begin", mock.Anything)
}

func (suite *RecurringServiceTestSuite) TestCreateRecurringPayment_RejectsBackfillBeyondCap() {
	ctx := context.Background()
	req := suite.createRequest()
	req.StartMonthKey = "2000-01"

	_, err := suite.service.CreateRecurringPayment(ctx, req, "operator")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "Begin", mock.Anything)
}

func (suite *RecurringServiceTestSuite) TestCreateRecurringPayment_DuplicateRollsBack() {
	ctx := context.Background()
	req := suite.createRequest()

	suite.mockRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("InsertDefinitionInTx", ctx, mock.Anything, mock.Anything).Return(apperrors.ErrDuplicate).Once()

	resp, err := suite.service.CreateRecurringPayment(ctx, req, "operator")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.Nil(resp)
	suite.mockRepo.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
	suite.mockAudit.AssertNotCalled(suite.T(), "RecordAudit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *RecurringServiceTestSuite) TestCreateRecurringPayment_AuditFailureDoesNotFailRequest() {
	ctx := context.Background()
	req := suite.createRequest()
	req.StartMonthKey = "2024-04"

	suite.mockRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("InsertDefinitionInTx", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("FindSnapshotsByDefinitionInTx", ctx, mock.Anything, mock.Anything).Return(map[string]domain.ExpenseSnapshot{}, nil).Once()
	suite.mockRepo.On("InsertSnapshotsInTx", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockAudit.On("RecordAudit", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(apperrors.ErrInternal).Once()

	resp, err := suite.service.CreateRecurringPayment(ctx, req, "operator")

	suite.Require().NoError(err)
	suite.Require().NotNil(resp)
	suite.Equal(1, resp.RowsInserted)
}

// --- Update ---

func (suite *RecurringServiceTestSuite) TestUpdateRecurringPayment_PropagatesAmountForward() {
	ctx := context.Background()
	before := suite.existingDefinition()
	newAmount := decimal.NewFromInt(150)
	req := dto.UpdateRecurringPaymentRequest{Amount: &newAmount}

	paidDate := time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC)
	existing := map[string]domain.ExpenseSnapshot{
		"2024-03": {ID: "snap-mar", MonthKey: "2024-03", Status: domain.SnapshotPaid, PaidDate: &paidDate},
		"2024-04": {ID: "snap-apr", MonthKey: "2024-04", Status: domain.SnapshotUnpaid},
		"2024-05": {ID: "snap-may", MonthKey: "2024-05", Status: domain.SnapshotUnpaid},
	}

	suite.mockRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("FindDefinitionByIDForUpdate", ctx, mock.Anything, before.ID).Return(before, nil).Once()
	suite.mockRepo.On("UpdateDefinitionInTx", ctx, mock.Anything, mock.MatchedBy(func(def domain.RecurringDefinition) bool {
		return def.Amount.Equal(newAmount) && def.LastUpdatedBy == "operator"
	})).Return(nil).Once()
	suite.mockRepo.On("FindSnapshotsByDefinitionInTx", ctx, mock.Anything, mock.Anything).Return(existing, nil).Once()
	suite.mockRepo.On("UpdateSnapshotsInTx", ctx, mock.Anything, mock.Anything, mock.MatchedBy(func(updates []domain.SnapshotUpdate) bool {
		return len(updates) == 2
	})).Return(nil).Once()
	suite.mockRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockAudit.On("RecordAudit", ctx, "RecurringPayment", before.ID, "update", mock.Anything, mock.Anything, "operator").Return(nil).Once()

	resp, err := suite.service.UpdateRecurringPayment(ctx, before.ID, req, "operator")

	suite.Require().NoError(err)
	suite.Require().NotNil(resp)
	suite.Equal(2, resp.UnpaidRowsUpdated)
	suite.Equal(0, resp.AutoMarkedPaid)
	suite.Equal("2024-04", resp.CurrentMonth)
	suite.True(resp.Definition.Amount.Equal(newAmount))
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockAudit.AssertExpectations(suite.T())
}

func (suite *RecurringServiceTestSuite) TestUpdateRecurringPayment_EmptyPatchIsNoOp() {
	ctx := context.Background()
	before := suite.existingDefinition()

	suite.mockRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("FindDefinitionByIDForUpdate", ctx, mock.Anything, before.ID).Return(before, nil).Once()

	resp, err := suite.service.UpdateRecurringPayment(ctx, before.ID, dto.UpdateRecurringPaymentRequest{}, "operator")

	suite.Require().NoError(err)
	suite.Equal(0, resp.UnpaidRowsUpdated)
	suite.Equal(0, resp.AutoMarkedPaid)
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdateDefinitionInTx", mock.Anything, mock.Anything, mock.Anything)
	suite.mockRepo.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
}

func (suite *RecurringServiceTestSuite) TestUpdateRecurringPayment_NotFound() {
	ctx := context.Background()

	suite.mockRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("FindDefinitionByIDForUpdate", ctx, mock.Anything, "missing-definition").Return(nil, apperrors.ErrNotFound).Once()

	resp, err := suite.service.UpdateRecurringPayment(ctx, "missing-definition", dto.UpdateRecurringPaymentRequest{}, "operator")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Nil(resp)
}

func (suite *RecurringServiceTestSuite) TestUpdateRecurringPayment_RetroactiveStartCountsAutoMarked() {
	ctx := context.Background()
	before := suite.existingDefinition()
	newStart := "2023-11"
	req := dto.UpdateRecurringPaymentRequest{StartMonthKey: &newStart}

	existing := map[string]domain.ExpenseSnapshot{
		"2024-01": {ID: "snap-jan", MonthKey: "2024-01", Status: domain.SnapshotPaid},
		"2024-02": {ID: "snap-feb", MonthKey: "2024-02", Status: domain.SnapshotPaid},
		"2024-03": {ID: "snap-mar", MonthKey: "2024-03", Status: domain.SnapshotPaid},
		"2024-04": {ID: "snap-apr", MonthKey: "2024-04", Status: domain.SnapshotUnpaid},
	}

	suite.mockRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("FindDefinitionByIDForUpdate", ctx, mock.Anything, before.ID).Return(before, nil).Once()
	suite.mockRepo.On("UpdateDefinitionInTx", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("FindSnapshotsByDefinitionInTx", ctx, mock.Anything, mock.Anything).Return(existing, nil).Once()
	// 2023-11 and 2023-12 are newly materialized
	suite.mockRepo.On("InsertSnapshotsInTx", ctx, mock.Anything, mock.Anything, mock.MatchedBy(func(snaps []domain.ExpenseSnapshot) bool {
		return len(snaps) == 2
	})).Return(nil).Once()
	suite.mockRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockAudit.On("RecordAudit", ctx, "RecurringPayment", before.ID, "update", mock.Anything, mock.Anything, "operator").Return(nil).Once()

	resp, err := suite.service.UpdateRecurringPayment(ctx, before.ID, req, "operator")

	suite.Require().NoError(err)
	suite.Equal(0, resp.UnpaidRowsUpdated)
	suite.Equal(2, resp.AutoMarkedPaid)
	suite.mockRepo.AssertExpectations(suite.T())
}

// --- Reads ---

func (suite *RecurringServiceTestSuite) TestGetRecurringPayment_Success() {
	ctx := context.Background()
	def := suite.existingDefinition()

	suite.mockRepo.On("FindDefinitionByID", ctx, def.ID).Return(def, nil).Once()

	got, err := suite.service.GetRecurringPayment(ctx, def.ID)

	suite.Require().NoError(err)
	suite.Equal(def, got)
}

func (suite *RecurringServiceTestSuite) TestListSnapshots_RequiresDefinition() {
	ctx := context.Background()

	suite.mockRepo.On("FindDefinitionByID", ctx, "missing-definition").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ListSnapshots(ctx, "missing-definition", dto.ListParams{Limit: 10})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockRepo.AssertNotCalled(suite.T(), "ListSnapshotsByDefinition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RecurringServiceTestSuite) TestListRecurringPayments_Success() {
	ctx := context.Background()
	def := suite.existingDefinition()
	token := "next-page"

	suite.mockRepo.On("ListDefinitions", ctx, 20, (*string)(nil)).Return([]domain.RecurringDefinition{*def}, &token, nil).Once()

	resp, err := suite.service.ListRecurringPayments(ctx, dto.ListParams{Limit: 20})

	suite.Require().NoError(err)
	suite.Require().Len(resp.Payments, 1)
	suite.Equal(def.ID, resp.Payments[0].ID)
	suite.Require().NotNil(resp.NextToken)
	suite.Equal(token, *resp.NextToken)
}

func TestRecurringServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RecurringServiceTestSuite))
}

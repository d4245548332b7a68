package dto

import (
	"time"

	"github.com/propops/property_ops_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateRecurringPaymentRequest is the payload for creating a recurring
// payment definition. startMonthKey format ("YYYY-MM") is validated by the
// service layer.
type CreateRecurringPaymentRequest struct {
	ID              string              `json:"id" binding:"required,min=8"`
	Scope           domain.PaymentScope `json:"scope" binding:"required,oneof=company property"`
	PropertyID      *string             `json:"propertyID,omitempty"`
	Vendor          string              `json:"vendor" binding:"required"`
	Category        string              `json:"category" binding:"required"`
	CategoryDetail  string              `json:"categoryDetail"`
	Amount          decimal.Decimal     `json:"amount"`
	DueDayOfMonth   int                 `json:"dueDayOfMonth" binding:"omitempty,min=1,max=31"`
	FrequencyMonths int                 `json:"frequencyMonths" binding:"omitempty,min=1,max=24"`
	PaymentType     domain.PaymentType  `json:"paymentType" binding:"required,oneof=bank_account bpay payid rent_deduction cash"`

	AccountName      string `json:"accountName"`
	BSB              string `json:"bsb"`
	AccountNumber    string `json:"accountNumber"`
	PaymentReference string `json:"paymentReference"`
	BPAYCode         string `json:"bpayCode"`
	PayIDMobile      string `json:"payidMobile"`

	ReportCategory string `json:"reportCategory"`
	StartMonthKey  string `json:"startMonthKey" binding:"required"`

	// InitialMark decides the status of the current-month row, when one is
	// generated. Defaults to unpaid.
	InitialMark string `json:"initialMark" binding:"omitempty,oneof=paid unpaid"`
}

// ToDomain converts the request into a definition ready for persistence.
func (r CreateRecurringPaymentRequest) ToDomain() domain.RecurringDefinition {
	freq := r.FrequencyMonths
	if freq == 0 {
		freq = 1
	}
	return domain.RecurringDefinition{
		ID:              r.ID,
		Scope:           r.Scope,
		PropertyID:      r.PropertyID,
		Vendor:          r.Vendor,
		Category:        r.Category,
		CategoryDetail:  r.CategoryDetail,
		Amount:          r.Amount,
		DueDayOfMonth:   r.DueDayOfMonth,
		FrequencyMonths: freq,
		PaymentType:     r.PaymentType,
		Banking: domain.BankingDetails{
			AccountName:      r.AccountName,
			BSB:              r.BSB,
			AccountNumber:    r.AccountNumber,
			PaymentReference: r.PaymentReference,
			BPAYCode:         r.BPAYCode,
			PayIDMobile:      r.PayIDMobile,
		},
		ReportCategory: r.ReportCategory,
		StartMonthKey:  r.StartMonthKey,
		Status:         domain.DefinitionActive,
	}
}

// InitialSnapshotStatus returns the caller's initial mark as a snapshot status.
func (r CreateRecurringPaymentRequest) InitialSnapshotStatus() domain.SnapshotStatus {
	if r.InitialMark == string(domain.SnapshotPaid) {
		return domain.SnapshotPaid
	}
	return domain.SnapshotUnpaid
}

// UpdateRecurringPaymentRequest is the patch payload for editing a
// definition. Nil means "leave unchanged"; the service converts it into a
// typed domain patch so propagation decisions are explicit.
type UpdateRecurringPaymentRequest struct {
	Vendor           *string                  `json:"vendor,omitempty"`
	Category         *string                  `json:"category,omitempty"`
	CategoryDetail   *string                  `json:"categoryDetail,omitempty"`
	Amount           *decimal.Decimal         `json:"amount,omitempty"`
	DueDayOfMonth    *int                     `json:"dueDayOfMonth,omitempty" binding:"omitempty,min=1,max=31"`
	FrequencyMonths  *int                     `json:"frequencyMonths,omitempty" binding:"omitempty,min=1,max=24"`
	PaymentType      *domain.PaymentType      `json:"paymentType,omitempty" binding:"omitempty,oneof=bank_account bpay payid rent_deduction cash"`
	AccountName      *string                  `json:"accountName,omitempty"`
	BSB              *string                  `json:"bsb,omitempty"`
	AccountNumber    *string                  `json:"accountNumber,omitempty"`
	PaymentReference *string                  `json:"paymentReference,omitempty"`
	BPAYCode         *string                  `json:"bpayCode,omitempty"`
	PayIDMobile      *string                  `json:"payidMobile,omitempty"`
	ReportCategory   *string                  `json:"reportCategory,omitempty"`
	StartMonthKey    *string                  `json:"startMonthKey,omitempty"`
	Status           *domain.DefinitionStatus `json:"status,omitempty" binding:"omitempty,oneof=active inactive"`
}

// ToPatch converts the request into the typed domain patch.
func (r UpdateRecurringPaymentRequest) ToPatch() domain.DefinitionPatch {
	return domain.DefinitionPatch{
		Vendor:           r.Vendor,
		Category:         r.Category,
		CategoryDetail:   r.CategoryDetail,
		Amount:           r.Amount,
		DueDayOfMonth:    r.DueDayOfMonth,
		FrequencyMonths:  r.FrequencyMonths,
		PaymentType:      r.PaymentType,
		AccountName:      r.AccountName,
		BSB:              r.BSB,
		AccountNumber:    r.AccountNumber,
		PaymentReference: r.PaymentReference,
		BPAYCode:         r.BPAYCode,
		PayIDMobile:      r.PayIDMobile,
		ReportCategory:   r.ReportCategory,
		StartMonthKey:    r.StartMonthKey,
		Status:           r.Status,
	}
}

// RecurringPaymentResponse is the outward shape of a definition.
type RecurringPaymentResponse struct {
	ID              string                  `json:"id"`
	Scope           domain.PaymentScope     `json:"scope"`
	PropertyID      *string                 `json:"propertyID,omitempty"`
	Vendor          string                  `json:"vendor"`
	Category        string                  `json:"category"`
	CategoryDetail  string                  `json:"categoryDetail,omitempty"`
	Amount          decimal.Decimal         `json:"amount"`
	DueDayOfMonth   int                     `json:"dueDayOfMonth"`
	FrequencyMonths int                     `json:"frequencyMonths"`
	PaymentType     domain.PaymentType      `json:"paymentType"`
	ReportCategory  string                  `json:"reportCategory,omitempty"`
	StartMonthKey   string                  `json:"startMonthKey"`
	Status          domain.DefinitionStatus `json:"status"`
	CreatedAt       time.Time               `json:"createdAt"`
	LastUpdatedAt   time.Time               `json:"lastUpdatedAt"`
}

// ToRecurringPaymentResponse converts a domain definition to its response DTO.
func ToRecurringPaymentResponse(def *domain.RecurringDefinition) RecurringPaymentResponse {
	return RecurringPaymentResponse{
		ID:              def.ID,
		Scope:           def.Scope,
		PropertyID:      def.PropertyID,
		Vendor:          def.Vendor,
		Category:        def.Category,
		CategoryDetail:  def.CategoryDetail,
		Amount:          def.Amount,
		DueDayOfMonth:   def.DueDayOfMonth,
		FrequencyMonths: def.FrequencyMonths,
		PaymentType:     def.PaymentType,
		ReportCategory:  def.ReportCategory,
		StartMonthKey:   def.StartMonthKey,
		Status:          def.Status,
		CreatedAt:       def.CreatedAt,
		LastUpdatedAt:   def.LastUpdatedAt,
	}
}

// CreateRecurringPaymentResponse reports what the create reconciliation did.
type CreateRecurringPaymentResponse struct {
	Definition   RecurringPaymentResponse `json:"definition"`
	RowsInserted int                      `json:"rowsInserted"`
	RowsUpdated  int                      `json:"rowsUpdated"`
	CurrentMonth string                   `json:"currentMonth"`
}

// UpdateRecurringPaymentResponse reports what the edit reconciliation did.
type UpdateRecurringPaymentResponse struct {
	Definition        RecurringPaymentResponse `json:"definition"`
	UnpaidRowsUpdated int                      `json:"unpaidRowsUpdated"`
	AutoMarkedPaid    int                      `json:"autoMarkedPaid"`
	CurrentMonth      string                   `json:"currentMonth"`
}

// SnapshotResponse is the outward shape of one monthly ledger row.
type SnapshotResponse struct {
	ID             string                `json:"id"`
	FixedExpenseID string                `json:"fixedExpenseID"`
	MonthKey       string                `json:"monthKey"`
	DueDate        string                `json:"dueDate"`
	PaidDate       *string               `json:"paidDate,omitempty"`
	Status         domain.SnapshotStatus `json:"status"`
	Amount         decimal.Decimal       `json:"amount"`
	Currency       string                `json:"currency"`
	Category       string                `json:"category"`
	CategoryDetail string                `json:"categoryDetail,omitempty"`
	Note           string                `json:"note,omitempty"`
	PropertyID     *string               `json:"propertyID,omitempty"`
}

const dueDateFormat = "2006-01-02"

// ToSnapshotResponse converts a domain snapshot to its response DTO.
func ToSnapshotResponse(s *domain.ExpenseSnapshot) SnapshotResponse {
	resp := SnapshotResponse{
		ID:             s.ID,
		FixedExpenseID: s.FixedExpenseID,
		MonthKey:       s.MonthKey,
		DueDate:        s.DueDate.Format(dueDateFormat),
		Status:         s.Status,
		Amount:         s.Amount,
		Currency:       s.Currency,
		Category:       s.Category,
		CategoryDetail: s.CategoryDetail,
		Note:           s.Note,
		PropertyID:     s.PropertyID,
	}
	if s.PaidDate != nil {
		paid := s.PaidDate.Format(dueDateFormat)
		resp.PaidDate = &paid
	}
	return resp
}

// ToSnapshotResponses converts a slice of snapshots.
func ToSnapshotResponses(snaps []domain.ExpenseSnapshot) []SnapshotResponse {
	responses := make([]SnapshotResponse, len(snaps))
	for i := range snaps {
		responses[i] = ToSnapshotResponse(&snaps[i])
	}
	return responses
}

// ListRecurringPaymentsResponse is a page of definitions.
type ListRecurringPaymentsResponse struct {
	Payments  []RecurringPaymentResponse `json:"payments"`
	NextToken *string                    `json:"nextToken,omitempty"`
}

// ListSnapshotsResponse is a page of ledger rows for one definition.
type ListSnapshotsResponse struct {
	Snapshots []SnapshotResponse `json:"snapshots"`
	NextToken *string            `json:"nextToken,omitempty"`
}

// ListParams carries pagination inputs from the endpoint layer.
type ListParams struct {
	Limit     int     `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

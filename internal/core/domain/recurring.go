package domain

import "github.com/shopspring/decimal"

// PaymentScope decides which expense ledger a definition materializes into.
type PaymentScope string

const (
	ScopeCompany  PaymentScope = "company"
	ScopeProperty PaymentScope = "property"
)

// PaymentType is how the obligation is settled. It does not move money here;
// it only changes due-date semantics (rent_deduction rows are always due on
// the 1st of the month).
type PaymentType string

const (
	PaymentBankAccount   PaymentType = "bank_account"
	PaymentBPAY          PaymentType = "bpay"
	PaymentPayID         PaymentType = "payid"
	PaymentRentDeduction PaymentType = "rent_deduction"
	PaymentCash          PaymentType = "cash"
)

// DefinitionStatus tracks whether a definition still generates ledger rows.
// Definitions are never physically deleted; deactivation is a status change.
type DefinitionStatus string

const (
	DefinitionActive   DefinitionStatus = "active"
	DefinitionInactive DefinitionStatus = "inactive"
)

// BankingDetails carries the settlement coordinates for a definition.
// Informational for this engine; the payment surface reads them.
type BankingDetails struct {
	AccountName      string `json:"accountName"`
	BSB              string `json:"bsb"`
	AccountNumber    string `json:"accountNumber"`
	PaymentReference string `json:"paymentReference"`
	BPAYCode         string `json:"bpayCode"`
	PayIDMobile      string `json:"payidMobile"`
}

// RecurringDefinition is the template for a recurring obligation (rent,
// subscription, utility bill). One definition owns many ExpenseSnapshots,
// at most one per month key.
type RecurringDefinition struct {
	ID              string           `json:"id"` // caller-supplied, stable, >= 8 chars
	Scope           PaymentScope     `json:"scope"`
	PropertyID      *string          `json:"propertyID,omitempty"` // required iff Scope == property
	Vendor          string           `json:"vendor"`
	Category        string           `json:"category"`
	CategoryDetail  string           `json:"categoryDetail"`
	Amount          decimal.Decimal  `json:"amount"`
	DueDayOfMonth   int              `json:"dueDayOfMonth"`   // 1-31; ignored for rent_deduction
	FrequencyMonths int              `json:"frequencyMonths"` // informational; generation is month-by-month
	PaymentType     PaymentType      `json:"paymentType"`
	Banking         BankingDetails   `json:"banking"`
	ReportCategory  string           `json:"reportCategory"`
	StartMonthKey   string           `json:"startMonthKey"` // YYYY-MM, first tracked month
	Status          DefinitionStatus `json:"status"`
	AuditFields
}

// DueDayFor returns the effective due day of month for this definition:
// rent deductions are always due on the 1st, everything else on DueDayOfMonth
// (clamped later to the month length by the calendar helpers).
func (d RecurringDefinition) DueDayFor() int {
	if d.PaymentType == PaymentRentDeduction {
		return 1
	}
	return d.DueDayOfMonth
}

// DefinitionPatch is the typed edit payload for a definition. A nil field
// means "unchanged", so the reconciler branches on explicit presence rather
// than inspecting a loose map.
type DefinitionPatch struct {
	Vendor           *string
	Category         *string
	CategoryDetail   *string
	Amount           *decimal.Decimal
	DueDayOfMonth    *int
	FrequencyMonths  *int
	PaymentType      *PaymentType
	AccountName      *string
	BSB              *string
	AccountNumber    *string
	PaymentReference *string
	BPAYCode         *string
	PayIDMobile      *string
	ReportCategory   *string
	StartMonthKey    *string
	Status           *DefinitionStatus
}

// IsEmpty reports whether the patch changes nothing.
func (p DefinitionPatch) IsEmpty() bool {
	return p.Vendor == nil && p.Category == nil && p.CategoryDetail == nil &&
		p.Amount == nil && p.DueDayOfMonth == nil && p.FrequencyMonths == nil &&
		p.PaymentType == nil && p.AccountName == nil && p.BSB == nil &&
		p.AccountNumber == nil && p.PaymentReference == nil && p.BPAYCode == nil &&
		p.PayIDMobile == nil && p.ReportCategory == nil && p.StartMonthKey == nil &&
		p.Status == nil
}

// ApplyTo returns a copy of def with the patch applied.
func (p DefinitionPatch) ApplyTo(def RecurringDefinition) RecurringDefinition {
	if p.Vendor != nil {
		def.Vendor = *p.Vendor
	}
	if p.Category != nil {
		def.Category = *p.Category
	}
	if p.CategoryDetail != nil {
		def.CategoryDetail = *p.CategoryDetail
	}
	if p.Amount != nil {
		def.Amount = *p.Amount
	}
	if p.DueDayOfMonth != nil {
		def.DueDayOfMonth = *p.DueDayOfMonth
	}
	if p.FrequencyMonths != nil {
		def.FrequencyMonths = *p.FrequencyMonths
	}
	if p.PaymentType != nil {
		def.PaymentType = *p.PaymentType
	}
	if p.AccountName != nil {
		def.Banking.AccountName = *p.AccountName
	}
	if p.BSB != nil {
		def.Banking.BSB = *p.BSB
	}
	if p.AccountNumber != nil {
		def.Banking.AccountNumber = *p.AccountNumber
	}
	if p.PaymentReference != nil {
		def.Banking.PaymentReference = *p.PaymentReference
	}
	if p.BPAYCode != nil {
		def.Banking.BPAYCode = *p.BPAYCode
	}
	if p.PayIDMobile != nil {
		def.Banking.PayIDMobile = *p.PayIDMobile
	}
	if p.ReportCategory != nil {
		def.ReportCategory = *p.ReportCategory
	}
	if p.StartMonthKey != nil {
		def.StartMonthKey = *p.StartMonthKey
	}
	if p.Status != nil {
		def.Status = *p.Status
	}
	return def
}

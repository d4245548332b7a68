package models

import (
	"github.com/shopspring/decimal"
)

// RecurringPayment is the persisted shape of a recurring payment definition,
// stored in the recurring_payments table.
type RecurringPayment struct {
	ID               string          `db:"id"` // caller-supplied, stable
	Scope            string          `db:"scope"`
	PropertyID       *string         `db:"property_id"` // Nullable; set iff scope=property
	Vendor           string          `db:"vendor"`
	Category         string          `db:"category"`
	CategoryDetail   string          `db:"category_detail"`
	Amount           decimal.Decimal `db:"amount"`
	DueDayOfMonth    int             `db:"due_day_of_month"`
	FrequencyMonths  int             `db:"frequency_months"`
	PaymentType      string          `db:"payment_type"`
	AccountName      string          `db:"account_name"`
	BSB              string          `db:"bsb"`
	AccountNumber    string          `db:"account_number"`
	PaymentReference string          `db:"payment_reference"`
	BPAYCode         string          `db:"bpay_code"`
	PayIDMobile      string          `db:"payid_mobile"`
	ReportCategory   string          `db:"report_category"`
	StartMonthKey    string          `db:"start_month_key"`
	Status           string          `db:"status"`
	AuditFields
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SnapshotStatus is the settlement state of a single monthly ledger row.
// Settlement is monotone inside this engine: (absent)eventually becomes
// unpaid or paid, and paid rows are never reopened here.
type SnapshotStatus string

const (
	SnapshotUnpaid SnapshotStatus = "unpaid"
	SnapshotPaid   SnapshotStatus = "paid"
)

// GeneratedFromRecurring marks ledger rows materialized by this engine,
// as opposed to expenses entered by hand.
const GeneratedFromRecurring = "recurring_payment"

// ExpenseSnapshot is one materialized monthly instance of a recurring
// obligation. At most one snapshot exists per (FixedExpenseID, MonthKey);
// the ledger table it lives in is selected by the owning definition's scope.
type ExpenseSnapshot struct {
	ID             string          `json:"id"`
	FixedExpenseID string          `json:"fixedExpenseID"` // -> RecurringDefinition.ID
	MonthKey       string          `json:"monthKey"`       // YYYY-MM
	OccurredAt     time.Time       `json:"occurredAt"`
	DueDate        time.Time       `json:"dueDate"`
	PaidDate       *time.Time      `json:"paidDate,omitempty"`
	Status         SnapshotStatus  `json:"status"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Category       string          `json:"category"`
	CategoryDetail string          `json:"categoryDetail"`
	Note           string          `json:"note"`
	GeneratedFrom  string          `json:"generatedFrom"`
	PropertyID     *string         `json:"propertyID,omitempty"` // present iff property scope
	AuditFields
}

// SnapshotUpdate is a single mutation the reconciler wants applied to an
// existing snapshot. Nil fields are left untouched.
type SnapshotUpdate struct {
	SnapshotID string
	MonthKey   string
	Status     *SnapshotStatus
	Amount     *decimal.Decimal
	DueDate    *time.Time
	PaidDate   *time.Time
}

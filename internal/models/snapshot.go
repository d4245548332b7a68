package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseSnapshot is the persisted shape of one monthly ledger row. The same
// struct serves both company_expenses and property_expenses; property_id is
// only populated for the latter.
type ExpenseSnapshot struct {
	ID             string          `db:"id"`
	OccurredAt     time.Time       `db:"occurred_at"`
	Amount         decimal.Decimal `db:"amount"`
	Currency       string          `db:"currency"`
	Category       string          `db:"category"`
	CategoryDetail string          `db:"category_detail"`
	Note           string          `db:"note"`
	GeneratedFrom  string          `db:"generated_from"`
	FixedExpenseID string          `db:"fixed_expense_id"`
	MonthKey       string          `db:"month_key"`
	DueDate        time.Time       `db:"due_date"`
	PaidDate       *time.Time      `db:"paid_date"` // Nullable
	Status         string          `db:"status"`
	PropertyID     *string         `db:"property_id"` // property_expenses only
	AuditFields
}

package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/propops/property_ops_backend/internal/apperrors"
	"github.com/propops/property_ops_backend/internal/core/domain"
	"github.com/propops/property_ops_backend/internal/utils/calendar"
)

// MaxBackfillMonths caps how far back a definition may materialize history
// in one operation (20 years). Ranges beyond this are rejected before any
// write happens.
const MaxBackfillMonths = 240

// defaultCurrency is stamped onto generated ledger rows. The back office
// operates on Australian properties only.
const defaultCurrency = "AUD"

// ReconcilePlan is the pure output of a reconciliation decision: the rows to
// insert and the mutations to apply, plus counters for the caller's response.
// Nothing in a plan has touched storage yet.
type ReconcilePlan struct {
	Inserts []domain.ExpenseSnapshot
	Updates []domain.SnapshotUpdate

	RowsInserted   int // new snapshots materialized
	RowsUpdated    int // unpaid snapshots rewritten by forward propagation
	AutoMarkedPaid int // historical snapshots settled by backfill
}

// merge folds another plan into this one, summing counters.
func (p *ReconcilePlan) merge(other ReconcilePlan) {
	p.Inserts = append(p.Inserts, other.Inserts...)
	p.Updates = append(p.Updates, other.Updates...)
	p.RowsInserted += other.RowsInserted
	p.RowsUpdated += other.RowsUpdated
	p.AutoMarkedPaid += other.AutoMarkedPaid
}

// newSnapshotForMonth materializes one ledger row for the given month of a
// definition. Rent deductions are due on the 1st regardless of the
// configured due day; every other payment type clamps the due day to the
// month length.
func newSnapshotForMonth(def domain.RecurringDefinition, monthKey string, status domain.SnapshotStatus, now time.Time, actorID string) (domain.ExpenseSnapshot, error) {
	due, err := calendar.ComputeDueDate(monthKey, def.DueDayFor())
	if err != nil {
		return domain.ExpenseSnapshot{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	snap := domain.ExpenseSnapshot{
		ID:             uuid.NewString(),
		FixedExpenseID: def.ID,
		MonthKey:       monthKey,
		OccurredAt:     due,
		DueDate:        due,
		Status:         status,
		Amount:         def.Amount,
		Currency:       defaultCurrency,
		Category:       def.Category,
		CategoryDetail: def.CategoryDetail,
		GeneratedFrom:  domain.GeneratedFromRecurring,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	if def.Scope == domain.ScopeProperty {
		snap.PropertyID = def.PropertyID
	}
	if status == domain.SnapshotPaid {
		paid := due
		snap.PaidDate = &paid
	}
	return snap, nil
}

// planPastBackfill materializes every month from def.StartMonthKey up to the
// month before currentMonth. Missing months are inserted already paid (a
// bygone month is assumed settled); existing unpaid rows are corrected to
// paid, preserving any dates they already carry; existing paid rows are left
// untouched. The whole plan is rejected when the range exceeds
// MaxBackfillMonths.
func planPastBackfill(def domain.RecurringDefinition, currentMonth string, existing map[string]domain.ExpenseSnapshot, now time.Time, actorID string) (ReconcilePlan, error) {
	plan := ReconcilePlan{}

	curIdx := calendar.MonthKeyToIndex(currentMonth)
	if curIdx == calendar.InvalidMonthIndex {
		return plan, fmt.Errorf("%w: invalid current month key %q", apperrors.ErrValidation, currentMonth)
	}
	startIdx := calendar.MonthKeyToIndex(def.StartMonthKey)
	if startIdx == calendar.InvalidMonthIndex {
		return plan, fmt.Errorf("%w: invalid start month key %q", apperrors.ErrValidation, def.StartMonthKey)
	}

	if startIdx >= curIdx {
		return plan, nil
	}

	pastMonths := calendar.MonthKeysBetween(def.StartMonthKey, calendar.IndexToMonthKey(curIdx-1))
	if len(pastMonths) > MaxBackfillMonths {
		return plan, fmt.Errorf("%w: backfill range of %d months exceeds the %d month limit",
			apperrors.ErrValidation, len(pastMonths), MaxBackfillMonths)
	}

	for _, month := range pastMonths {
		row, exists := existing[month]
		if !exists {
			snap, err := newSnapshotForMonth(def, month, domain.SnapshotPaid, now, actorID)
			if err != nil {
				return ReconcilePlan{}, err
			}
			plan.Inserts = append(plan.Inserts, snap)
			plan.RowsInserted++
			continue
		}
		if row.Status == domain.SnapshotPaid {
			continue
		}

		// Stray unpaid row for a bygone month: settle it, keeping whatever
		// dates it already has.
		paid := domain.SnapshotPaid
		update := domain.SnapshotUpdate{
			SnapshotID: row.ID,
			MonthKey:   month,
			Status:     &paid,
		}
		due, err := calendar.ComputeDueDate(month, def.DueDayFor())
		if err != nil {
			return ReconcilePlan{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		if row.DueDate.IsZero() {
			update.DueDate = &due
		}
		if row.PaidDate == nil {
			update.PaidDate = &due
		}
		plan.Updates = append(plan.Updates, update)
		plan.AutoMarkedPaid++
	}

	return plan, nil
}

// PlanCreateBackfill decides the ledger writes for a freshly persisted
// definition: paid rows for every elapsed month since the start month, plus
// a row for the current month whose status follows the caller's initialMark.
// Re-running the same plan against its own outcome yields no further
// inserts, which is what makes retried create requests safe.
func PlanCreateBackfill(def domain.RecurringDefinition, currentMonth string, existing map[string]domain.ExpenseSnapshot, initialMark domain.SnapshotStatus, now time.Time, actorID string) (ReconcilePlan, error) {
	plan, err := planPastBackfill(def, currentMonth, existing, now, actorID)
	if err != nil {
		return ReconcilePlan{}, err
	}

	startIdx := calendar.MonthKeyToIndex(def.StartMonthKey)
	curIdx := calendar.MonthKeyToIndex(currentMonth)
	if startIdx > curIdx {
		// Definition starts in the future; nothing to materialize yet.
		return plan, nil
	}

	if _, exists := existing[currentMonth]; !exists {
		snap, err := newSnapshotForMonth(def, currentMonth, initialMark, now, actorID)
		if err != nil {
			return ReconcilePlan{}, err
		}
		plan.Inserts = append(plan.Inserts, snap)
		plan.RowsInserted++
	}

	return plan, nil
}

// PlanEditPropagation decides the ledger writes after a definition edit.
// New amount and due-day values flow forward onto unpaid rows at or after
// the current month only; paid rows and past months are never rewritten. A
// changed start month re-runs the past backfill over the new range. Whether
// a field "changed" is decided by its presence in the typed patch, so a bare
// payment_type change does not, on its own, rewrite any due date.
func PlanEditPropagation(after domain.RecurringDefinition, patch domain.DefinitionPatch, currentMonth string, existing map[string]domain.ExpenseSnapshot, now time.Time, actorID string) (ReconcilePlan, error) {
	plan := ReconcilePlan{}

	curIdx := calendar.MonthKeyToIndex(currentMonth)
	if curIdx == calendar.InvalidMonthIndex {
		return plan, fmt.Errorf("%w: invalid current month key %q", apperrors.ErrValidation, currentMonth)
	}

	if patch.Amount != nil || patch.DueDayOfMonth != nil {
		// Deterministic ascending month order for the applied updates.
		months := make([]string, 0, len(existing))
		for month := range existing {
			months = append(months, month)
		}
		sort.Strings(months)

		for _, month := range months {
			row := existing[month]
			monthIdx := calendar.MonthKeyToIndex(month)
			if monthIdx == calendar.InvalidMonthIndex || monthIdx < curIdx {
				continue
			}
			if row.Status == domain.SnapshotPaid {
				continue
			}

			update := domain.SnapshotUpdate{SnapshotID: row.ID, MonthKey: month}
			changed := false
			if patch.Amount != nil {
				amount := *patch.Amount
				update.Amount = &amount
				changed = true
			}
			if patch.DueDayOfMonth != nil {
				due, err := calendar.ComputeDueDate(month, after.DueDayFor())
				if err != nil {
					return ReconcilePlan{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
				}
				update.DueDate = &due
				changed = true
			}
			if changed {
				plan.Updates = append(plan.Updates, update)
				plan.RowsUpdated++
			}
		}
	}

	if patch.StartMonthKey != nil {
		backfill, err := planPastBackfill(after, currentMonth, existing, now, actorID)
		if err != nil {
			return ReconcilePlan{}, err
		}
		// Months newly brought into scope are inserted already settled, so
		// they count as auto-marked alongside corrected unpaid rows.
		backfill.AutoMarkedPaid += backfill.RowsInserted
		backfill.RowsInserted = 0
		plan.merge(backfill)
	}

	return plan, nil
}

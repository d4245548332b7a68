package mapping

import (
	"github.com/propops/property_ops_backend/internal/core/domain"
	"github.com/propops/property_ops_backend/internal/models"
)

// ToModelRecurringPayment converts a domain definition to its persisted model.
func ToModelRecurringPayment(d domain.RecurringDefinition) models.RecurringPayment {
	return models.RecurringPayment{
		ID:               d.ID,
		Scope:            string(d.Scope),
		PropertyID:       d.PropertyID,
		Vendor:           d.Vendor,
		Category:         d.Category,
		CategoryDetail:   d.CategoryDetail,
		Amount:           d.Amount,
		DueDayOfMonth:    d.DueDayOfMonth,
		FrequencyMonths:  d.FrequencyMonths,
		PaymentType:      string(d.PaymentType),
		AccountName:      d.Banking.AccountName,
		BSB:              d.Banking.BSB,
		AccountNumber:    d.Banking.AccountNumber,
		PaymentReference: d.Banking.PaymentReference,
		BPAYCode:         d.Banking.BPAYCode,
		PayIDMobile:      d.Banking.PayIDMobile,
		ReportCategory:   d.ReportCategory,
		StartMonthKey:    d.StartMonthKey,
		Status:           string(d.Status),
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainRecurringPayment converts a persisted model back to the domain definition.
func ToDomainRecurringPayment(m models.RecurringPayment) domain.RecurringDefinition {
	return domain.RecurringDefinition{
		ID:              m.ID,
		Scope:           domain.PaymentScope(m.Scope),
		PropertyID:      m.PropertyID,
		Vendor:          m.Vendor,
		Category:        m.Category,
		CategoryDetail:  m.CategoryDetail,
		Amount:          m.Amount,
		DueDayOfMonth:   m.DueDayOfMonth,
		FrequencyMonths: m.FrequencyMonths,
		PaymentType:     domain.PaymentType(m.PaymentType),
		Banking: domain.BankingDetails{
			AccountName:      m.AccountName,
			BSB:              m.BSB,
			AccountNumber:    m.AccountNumber,
			PaymentReference: m.PaymentReference,
			BPAYCode:         m.BPAYCode,
			PayIDMobile:      m.PayIDMobile,
		},
		ReportCategory: m.ReportCategory,
		StartMonthKey:  m.StartMonthKey,
		Status:         domain.DefinitionStatus(m.Status),
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelExpenseSnapshot converts a domain snapshot to its persisted model.
func ToModelExpenseSnapshot(d domain.ExpenseSnapshot) models.ExpenseSnapshot {
	return models.ExpenseSnapshot{
		ID:             d.ID,
		OccurredAt:     d.OccurredAt,
		Amount:         d.Amount,
		Currency:       d.Currency,
		Category:       d.Category,
		CategoryDetail: d.CategoryDetail,
		Note:           d.Note,
		GeneratedFrom:  d.GeneratedFrom,
		FixedExpenseID: d.FixedExpenseID,
		MonthKey:       d.MonthKey,
		DueDate:        d.DueDate,
		PaidDate:       d.PaidDate,
		Status:         string(d.Status),
		PropertyID:     d.PropertyID,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainExpenseSnapshot converts a persisted model back to the domain snapshot.
func ToDomainExpenseSnapshot(m models.ExpenseSnapshot) domain.ExpenseSnapshot {
	return domain.ExpenseSnapshot{
		ID:             m.ID,
		OccurredAt:     m.OccurredAt,
		Amount:         m.Amount,
		Currency:       m.Currency,
		Category:       m.Category,
		CategoryDetail: m.CategoryDetail,
		Note:           m.Note,
		GeneratedFrom:  m.GeneratedFrom,
		FixedExpenseID: m.FixedExpenseID,
		MonthKey:       m.MonthKey,
		DueDate:        m.DueDate,
		PaidDate:       m.PaidDate,
		Status:         domain.SnapshotStatus(m.Status),
		PropertyID:     m.PropertyID,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainExpenseSnapshotSlice converts a slice of persisted snapshots.
func ToDomainExpenseSnapshotSlice(ms []models.ExpenseSnapshot) []domain.ExpenseSnapshot {
	out := make([]domain.ExpenseSnapshot, len(ms))
	for i, m := range ms {
		out[i] = ToDomainExpenseSnapshot(m)
	}
	return out
}

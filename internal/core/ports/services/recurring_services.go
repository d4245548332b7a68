package services

import (
	"context"

	"github.com/propops/property_ops_backend/internal/core/domain"
	"github.com/propops/property_ops_backend/internal/dto"
)

// RecurringSvcFacade is the service surface for the recurring obligation
// ledger engine. Each mutating call runs inside exactly one store
// transaction and is idempotent with respect to already-applied state.
type RecurringSvcFacade interface {
	// CreateRecurringPayment persists a new definition and backfills its
	// ledger rows from the start month up to the current month.
	CreateRecurringPayment(ctx context.Context, req dto.CreateRecurringPaymentRequest, creatorUserID string) (*dto.CreateRecurringPaymentResponse, error)

	// UpdateRecurringPayment applies a typed patch to an existing definition
	// and propagates amount/due-day changes onto unpaid rows at or after the
	// current month.
	UpdateRecurringPayment(ctx context.Context, definitionID string, req dto.UpdateRecurringPaymentRequest, updaterUserID string) (*dto.UpdateRecurringPaymentResponse, error)

	// GetRecurringPayment retrieves a single definition.
	GetRecurringPayment(ctx context.Context, definitionID string) (*domain.RecurringDefinition, error)

	// ListRecurringPayments retrieves a paginated list of definitions.
	ListRecurringPayments(ctx context.Context, params dto.ListParams) (*dto.ListRecurringPaymentsResponse, error)

	// ListSnapshots retrieves a paginated list of ledger rows for a definition.
	ListSnapshots(ctx context.Context, definitionID string, params dto.ListParams) (*dto.ListSnapshotsResponse, error)
}

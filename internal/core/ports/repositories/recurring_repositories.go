package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/propops/property_ops_backend/internal/core/domain"
)

// RecurringDefinitionReader defines read operations for recurring payment definitions.
type RecurringDefinitionReader interface {
	// FindDefinitionByID retrieves a definition by its caller-supplied identifier.
	FindDefinitionByID(ctx context.Context, definitionID string) (*domain.RecurringDefinition, error)

	// FindDefinitionByIDForUpdate retrieves a definition inside tx with a row
	// lock, serializing concurrent edits to the same definition.
	FindDefinitionByIDForUpdate(ctx context.Context, tx pgx.Tx, definitionID string) (*domain.RecurringDefinition, error)

	// ListDefinitions retrieves a paginated list of definitions using token-based pagination.
	ListDefinitions(ctx context.Context, limit int, nextToken *string) ([]domain.RecurringDefinition, *string, error)
}

// RecurringDefinitionWriter defines write operations for recurring payment definitions.
// All writes are transaction-scoped; the service owns the boundary.
type RecurringDefinitionWriter interface {
	// InsertDefinitionInTx persists a new definition within tx.
	InsertDefinitionInTx(ctx context.Context, tx pgx.Tx, def domain.RecurringDefinition) error

	// UpdateDefinitionInTx persists an edited definition within tx.
	UpdateDefinitionInTx(ctx context.Context, tx pgx.Tx, def domain.RecurringDefinition) error
}

// SnapshotReader defines read operations for monthly expense snapshots. The
// owning definition selects which ledger table (company or property scoped)
// is read.
type SnapshotReader interface {
	// FindSnapshotsByDefinitionInTx retrieves all snapshots of a definition
	// within tx, keyed by month key.
	FindSnapshotsByDefinitionInTx(ctx context.Context, tx pgx.Tx, def domain.RecurringDefinition) (map[string]domain.ExpenseSnapshot, error)

	// ListSnapshotsByDefinition retrieves a paginated, month-descending list
	// of snapshots for a definition using token-based pagination.
	ListSnapshotsByDefinition(ctx context.Context, def domain.RecurringDefinition, limit int, nextToken *string) ([]domain.ExpenseSnapshot, *string, error)
}

// SnapshotWriter defines write operations for monthly expense snapshots.
type SnapshotWriter interface {
	// InsertSnapshotsInTx persists new snapshots within tx. A unique
	// violation on (fixed_expense_id, month_key) surfaces as ErrConflict.
	InsertSnapshotsInTx(ctx context.Context, tx pgx.Tx, def domain.RecurringDefinition, snapshots []domain.ExpenseSnapshot) error

	// UpdateSnapshotsInTx applies partial mutations to existing snapshots within tx.
	UpdateSnapshotsInTx(ctx context.Context, tx pgx.Tx, def domain.RecurringDefinition, updates []domain.SnapshotUpdate) error
}

// RecurringRepositoryFacade combines all recurring-ledger repository interfaces.
type RecurringRepositoryFacade interface {
	RecurringDefinitionReader
	RecurringDefinitionWriter
	SnapshotReader
	SnapshotWriter
}

// RecurringRepositoryWithTx extends RecurringRepositoryFacade with transaction capabilities.
type RecurringRepositoryWithTx interface {
	RecurringRepositoryFacade
	TransactionManager
}

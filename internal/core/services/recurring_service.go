package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/propops/property_ops_backend/internal/apperrors"
	"github.com/propops/property_ops_backend/internal/core/domain"
	portsrepo "github.com/propops/property_ops_backend/internal/core/ports/repositories"
	portssvc "github.com/propops/property_ops_backend/internal/core/ports/services"
	"github.com/propops/property_ops_backend/internal/dto"
	"github.com/propops/property_ops_backend/internal/middleware"
	"github.com/propops/property_ops_backend/internal/utils/calendar"
	"github.com/shopspring/decimal"
)

const auditEntityRecurringPayment = "RecurringPayment"

// recurringService is the obligation store: it owns the transaction boundary
// around definition writes and ledger reconciliation.
type recurringService struct {
	repo     portsrepo.RecurringRepositoryWithTx
	auditSvc portssvc.AuditSvcFacade

	// now is swappable so tests can pin the current month.
	now func() time.Time
}

// NewRecurringService creates the recurring payment service.
func NewRecurringService(repo portsrepo.RecurringRepositoryWithTx, auditSvc portssvc.AuditSvcFacade) portssvc.RecurringSvcFacade {
	return &recurringService{
		repo:     repo,
		auditSvc: auditSvc,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NewRecurringServiceAt creates the service with a fixed clock. Test hook.
func NewRecurringServiceAt(repo portsrepo.RecurringRepositoryWithTx, auditSvc portssvc.AuditSvcFacade, now func() time.Time) portssvc.RecurringSvcFacade {
	return &recurringService{repo: repo, auditSvc: auditSvc, now: now}
}

var _ portssvc.RecurringSvcFacade = (*recurringService)(nil)

// validateDefinition enforces the invariants the engine rejects up front,
// before any write: well-formed identifiers and month keys, scope/property
// coupling, due-day bounds, non-negative amounts and the backfill cap.
func (s *recurringService) validateDefinition(def domain.RecurringDefinition, currentMonth string) error {
	if len(def.ID) < 8 {
		return fmt.Errorf("%w: id must be at least 8 characters", apperrors.ErrValidation)
	}
	if def.Scope != domain.ScopeCompany && def.Scope != domain.ScopeProperty {
		return fmt.Errorf("%w: unknown scope %q", apperrors.ErrValidation, def.Scope)
	}
	if def.Scope == domain.ScopeProperty && (def.PropertyID == nil || *def.PropertyID == "") {
		return fmt.Errorf("%w: propertyID is required for property-scoped payments", apperrors.ErrValidation)
	}
	if def.Amount.LessThan(decimal.Zero) {
		return fmt.Errorf("%w: amount must not be negative", apperrors.ErrValidation)
	}
	if def.PaymentType != domain.PaymentRentDeduction && (def.DueDayOfMonth < 1 || def.DueDayOfMonth > 31) {
		return fmt.Errorf("%w: dueDayOfMonth %d is out of range [1,31]", apperrors.ErrValidation, def.DueDayOfMonth)
	}
	if def.FrequencyMonths < 1 || def.FrequencyMonths > 24 {
		return fmt.Errorf("%w: frequencyMonths %d is out of range [1,24]", apperrors.ErrValidation, def.FrequencyMonths)
	}

	startIdx := calendar.MonthKeyToIndex(def.StartMonthKey)
	if startIdx == calendar.InvalidMonthIndex {
		return fmt.Errorf("%w: malformed start month key %q", apperrors.ErrValidation, def.StartMonthKey)
	}
	curIdx := calendar.MonthKeyToIndex(currentMonth)
	if startIdx < curIdx && curIdx-startIdx > MaxBackfillMonths {
		return fmt.Errorf("%w: start month %s implies a backfill of %d months, exceeding the %d month limit",
			apperrors.ErrValidation, def.StartMonthKey, curIdx-startIdx, MaxBackfillMonths)
	}
	return nil
}

// CreateRecurringPayment persists a definition and materializes its ledger
// rows in one transaction. Any failure rolls the whole operation back; a
// retried request replays against the committed state and inserts nothing
// twice.
func (s *recurringService) CreateRecurringPayment(ctx context.Context, req dto.CreateRecurringPaymentRequest, creatorUserID string) (*dto.CreateRecurringPaymentResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := s.now()
	currentMonth := calendar.MonthKeyOf(now)

	def := req.ToDomain()
	def.AuditFields = domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     creatorUserID,
		LastUpdatedAt: now,
		LastUpdatedBy: creatorUserID,
	}

	if err := s.validateDefinition(def, currentMonth); err != nil {
		logger.Warn("Recurring payment rejected by validation", slog.String("payment_id", def.ID), slog.String("error", err.Error()))
		return nil, err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.repo.Rollback(ctx, tx) // no-op after a successful commit

	if err := s.repo.InsertDefinitionInTx(ctx, tx, def); err != nil {
		logger.Error("Failed to insert recurring definition", slog.String("payment_id", def.ID), slog.String("error", err.Error()))
		return nil, err
	}

	// Rows may already exist for this definition id when a previous attempt
	// of the same request committed snapshots; reconcile against them.
	existing, err := s.repo.FindSnapshotsByDefinitionInTx(ctx, tx, def)
	if err != nil {
		logger.Error("Failed to load existing snapshots", slog.String("payment_id", def.ID), slog.String("error", err.Error()))
		return nil, err
	}

	plan, err := PlanCreateBackfill(def, currentMonth, existing, req.InitialSnapshotStatus(), now, creatorUserID)
	if err != nil {
		logger.Warn("Create-time reconciliation rejected", slog.String("payment_id", def.ID), slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.applyPlan(ctx, tx, def, plan); err != nil {
		logger.Error("Failed to apply reconcile plan", slog.String("payment_id", def.ID), slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.repo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit recurring payment %s: %w", def.ID, err)
	}

	s.recordAudit(ctx, logger, def.ID, "create", nil, def, creatorUserID)

	logger.Info("Recurring payment created",
		slog.String("payment_id", def.ID),
		slog.String("current_month", currentMonth),
		slog.Int("rows_inserted", plan.RowsInserted),
		slog.Int("rows_updated", plan.AutoMarkedPaid),
	)

	return &dto.CreateRecurringPaymentResponse{
		Definition:   dto.ToRecurringPaymentResponse(&def),
		RowsInserted: plan.RowsInserted,
		RowsUpdated:  plan.AutoMarkedPaid,
		CurrentMonth: currentMonth,
	}, nil
}

// UpdateRecurringPayment applies a typed patch and propagates it forward in
// one transaction. The definition row is locked for the duration, so
// concurrent edits to the same definition serialize at the store.
func (s *recurringService) UpdateRecurringPayment(ctx context.Context, definitionID string, req dto.UpdateRecurringPaymentRequest, updaterUserID string) (*dto.UpdateRecurringPaymentResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := s.now()
	currentMonth := calendar.MonthKeyOf(now)
	patch := req.ToPatch()

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.repo.Rollback(ctx, tx)

	before, err := s.repo.FindDefinitionByIDForUpdate(ctx, tx, definitionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to load definition for update", slog.String("payment_id", definitionID), slog.String("error", err.Error()))
		}
		return nil, err
	}

	if patch.IsEmpty() {
		logger.Debug("No fields provided for recurring payment update", slog.String("payment_id", definitionID))
		return &dto.UpdateRecurringPaymentResponse{
			Definition:   dto.ToRecurringPaymentResponse(before),
			CurrentMonth: currentMonth,
		}, nil
	}

	after := patch.ApplyTo(*before)
	after.LastUpdatedAt = now
	after.LastUpdatedBy = updaterUserID

	if err := s.validateDefinition(after, currentMonth); err != nil {
		logger.Warn("Recurring payment edit rejected by validation", slog.String("payment_id", definitionID), slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.repo.UpdateDefinitionInTx(ctx, tx, after); err != nil {
		logger.Error("Failed to update recurring definition", slog.String("payment_id", definitionID), slog.String("error", err.Error()))
		return nil, err
	}

	existing, err := s.repo.FindSnapshotsByDefinitionInTx(ctx, tx, after)
	if err != nil {
		logger.Error("Failed to load existing snapshots", slog.String("payment_id", definitionID), slog.String("error", err.Error()))
		return nil, err
	}

	plan, err := PlanEditPropagation(after, patch, currentMonth, existing, now, updaterUserID)
	if err != nil {
		logger.Warn("Edit-time reconciliation rejected", slog.String("payment_id", definitionID), slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.applyPlan(ctx, tx, after, plan); err != nil {
		logger.Error("Failed to apply reconcile plan", slog.String("payment_id", definitionID), slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.repo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit recurring payment edit %s: %w", definitionID, err)
	}

	s.recordAudit(ctx, logger, definitionID, "update", before, after, updaterUserID)

	logger.Info("Recurring payment updated",
		slog.String("payment_id", definitionID),
		slog.String("current_month", currentMonth),
		slog.Int("unpaid_rows_updated", plan.RowsUpdated),
		slog.Int("auto_marked_paid", plan.AutoMarkedPaid),
	)

	return &dto.UpdateRecurringPaymentResponse{
		Definition:        dto.ToRecurringPaymentResponse(&after),
		UnpaidRowsUpdated: plan.RowsUpdated,
		AutoMarkedPaid:    plan.AutoMarkedPaid,
		CurrentMonth:      currentMonth,
	}, nil
}

// applyPlan writes a reconcile plan's inserts and updates within tx.
func (s *recurringService) applyPlan(ctx context.Context, tx pgx.Tx, def domain.RecurringDefinition, plan ReconcilePlan) error {
	if len(plan.Inserts) > 0 {
		if err := s.repo.InsertSnapshotsInTx(ctx, tx, def, plan.Inserts); err != nil {
			return err
		}
	}
	if len(plan.Updates) > 0 {
		if err := s.repo.UpdateSnapshotsInTx(ctx, tx, def, plan.Updates); err != nil {
			return err
		}
	}
	return nil
}

// GetRecurringPayment retrieves a single definition.
func (s *recurringService) GetRecurringPayment(ctx context.Context, definitionID string) (*domain.RecurringDefinition, error) {
	def, err := s.repo.FindDefinitionByID(ctx, definitionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to find recurring payment", slog.String("payment_id", definitionID), slog.String("error", err.Error()))
		}
		return nil, err
	}
	return def, nil
}

// ListRecurringPayments retrieves a paginated list of definitions.
func (s *recurringService) ListRecurringPayments(ctx context.Context, params dto.ListParams) (*dto.ListRecurringPaymentsResponse, error) {
	defs, nextToken, err := s.repo.ListDefinitions(ctx, params.Limit, params.NextToken)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to list recurring payments", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list recurring payments: %w", err)
	}

	payments := make([]dto.RecurringPaymentResponse, len(defs))
	for i := range defs {
		payments[i] = dto.ToRecurringPaymentResponse(&defs[i])
	}
	return &dto.ListRecurringPaymentsResponse{Payments: payments, NextToken: nextToken}, nil
}

// ListSnapshots retrieves a paginated list of ledger rows for a definition.
func (s *recurringService) ListSnapshots(ctx context.Context, definitionID string, params dto.ListParams) (*dto.ListSnapshotsResponse, error) {
	def, err := s.repo.FindDefinitionByID(ctx, definitionID)
	if err != nil {
		return nil, err
	}

	snaps, nextToken, err := s.repo.ListSnapshotsByDefinition(ctx, *def, params.Limit, params.NextToken)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to list snapshots", slog.String("payment_id", definitionID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list snapshots for %s: %w", definitionID, err)
	}
	return &dto.ListSnapshotsResponse{Snapshots: dto.ToSnapshotResponses(snaps), NextToken: nextToken}, nil
}

// recordAudit emits one audit entry after commit. Best-effort only.
func (s *recurringService) recordAudit(ctx context.Context, logger *slog.Logger, entityID, action string, before, after interface{}, actorID string) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.RecordAudit(ctx, auditEntityRecurringPayment, entityID, action, before, after, actorID); err != nil {
		logger.Warn("Failed to record audit entry",
			slog.String("entity_id", entityID),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}

package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/propops/property_ops_backend/internal/apperrors"
	"github.com/propops/property_ops_backend/internal/core/domain"
	portsrepo "github.com/propops/property_ops_backend/internal/core/ports/repositories"
	"github.com/propops/property_ops_backend/internal/models"
	"github.com/propops/property_ops_backend/internal/utils/mapping"
	"github.com/propops/property_ops_backend/internal/utils/pagination"
)

const uniqueViolationCode = "23505"

// PgxRecurringRepository persists recurring payment definitions and their
// monthly expense snapshots. The owning definition's scope selects which
// ledger table the snapshot statements target.
type PgxRecurringRepository struct {
	BaseRepository
}

// newPgxRecurringRepository creates a new repository for recurring payment data.
func newPgxRecurringRepository(pool *pgxpool.Pool) portsrepo.RecurringRepositoryWithTx {
	return &PgxRecurringRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RecurringRepositoryWithTx = (*PgxRecurringRepository)(nil)

// snapshotTable selects the ledger table for a definition's scope.
func snapshotTable(def domain.RecurringDefinition) string {
	if def.Scope == domain.ScopeProperty {
		return "property_expenses"
	}
	return "company_expenses"
}

// isUniqueViolation reports whether err is a postgres unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

const definitionColumns = `
	id, scope, property_id, vendor, category, category_detail, amount,
	due_day_of_month, frequency_months, payment_type,
	account_name, bsb, account_number, payment_reference, bpay_code, payid_mobile,
	report_category, start_month_key, status,
	created_at, created_by, last_updated_at, last_updated_by`

// InsertDefinitionInTx persists a new definition within tx. A duplicate
// primary key maps to ErrDuplicate.
func (r *PgxRecurringRepository) InsertDefinitionInTx(ctx context.Context, tx pgx.Tx, def domain.RecurringDefinition) error {
	m := mapping.ToModelRecurringPayment(def)
	query := `
		INSERT INTO recurring_payments (` + definitionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23);
	`
	_, err := tx.Exec(ctx, query,
		m.ID, m.Scope, m.PropertyID, m.Vendor, m.Category, m.CategoryDetail, m.Amount,
		m.DueDayOfMonth, m.FrequencyMonths, m.PaymentType,
		m.AccountName, m.BSB, m.AccountNumber, m.PaymentReference, m.BPAYCode, m.PayIDMobile,
		m.ReportCategory, m.StartMonthKey, m.Status,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewAppError(409, "recurring payment "+m.ID+" already exists", apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to insert recurring payment "+m.ID, err)
	}
	return nil
}

// UpdateDefinitionInTx persists an edited definition within tx. The id,
// scope and property_id columns are immutable and never rewritten.
func (r *PgxRecurringRepository) UpdateDefinitionInTx(ctx context.Context, tx pgx.Tx, def domain.RecurringDefinition) error {
	m := mapping.ToModelRecurringPayment(def)
	query := `
		UPDATE recurring_payments
		SET vendor = $2,
		    category = $3,
		    category_detail = $4,
		    amount = $5,
		    due_day_of_month = $6,
		    frequency_months = $7,
		    payment_type = $8,
		    account_name = $9,
		    bsb = $10,
		    account_number = $11,
		    payment_reference = $12,
		    bpay_code = $13,
		    payid_mobile = $14,
		    report_category = $15,
		    start_month_key = $16,
		    status = $17,
		    last_updated_at = $18,
		    last_updated_by = $19
		WHERE id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query,
		m.ID, m.Vendor, m.Category, m.CategoryDetail, m.Amount,
		m.DueDayOfMonth, m.FrequencyMonths, m.PaymentType,
		m.AccountName, m.BSB, m.AccountNumber, m.PaymentReference, m.BPAYCode, m.PayIDMobile,
		m.ReportCategory, m.StartMonthKey, m.Status,
		m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update recurring payment "+m.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("recurring payment " + m.ID + " not found for update")
	}
	return nil
}

// scanDefinition scans one recurring_payments row.
func scanDefinition(row pgx.Row) (*domain.RecurringDefinition, error) {
	var m models.RecurringPayment
	err := row.Scan(
		&m.ID, &m.Scope, &m.PropertyID, &m.Vendor, &m.Category, &m.CategoryDetail, &m.Amount,
		&m.DueDayOfMonth, &m.FrequencyMonths, &m.PaymentType,
		&m.AccountName, &m.BSB, &m.AccountNumber, &m.PaymentReference, &m.BPAYCode, &m.PayIDMobile,
		&m.ReportCategory, &m.StartMonthKey, &m.Status,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to scan recurring payment row", err)
	}
	def := mapping.ToDomainRecurringPayment(m)
	return &def, nil
}

// FindDefinitionByID retrieves a definition by its identifier.
func (r *PgxRecurringRepository) FindDefinitionByID(ctx context.Context, definitionID string) (*domain.RecurringDefinition, error) {
	query := `SELECT ` + definitionColumns + ` FROM recurring_payments WHERE id = $1;`
	return scanDefinition(r.Pool.QueryRow(ctx, query, definitionID))
}

// FindDefinitionByIDForUpdate retrieves a definition inside tx with a row
// lock. Concurrent edits to the same definition block here until the first
// transaction commits or rolls back.
func (r *PgxRecurringRepository) FindDefinitionByIDForUpdate(ctx context.Context, tx pgx.Tx, definitionID string) (*domain.RecurringDefinition, error) {
	query := `SELECT ` + definitionColumns + ` FROM recurring_payments WHERE id = $1 FOR UPDATE;`
	return scanDefinition(tx.QueryRow(ctx, query, definitionID))
}

// ListDefinitions retrieves a paginated list of definitions using token-based pagination.
func (r *PgxRecurringRepository) ListDefinitions(ctx context.Context, limit int, nextToken *string) ([]domain.RecurringDefinition, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + definitionColumns + ` FROM recurring_payments`
	orderByClause := `ORDER BY created_at DESC, id DESC`

	args := []interface{}{}
	whereClause := ""
	if nextToken != nil && *nextToken != "" {
		fields, err := pagination.DecodeMultiFieldToken(*nextToken)
		if err != nil || len(fields) != 2 {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", err)
		}
		lastCreatedAt, err := time.Parse(time.RFC3339Nano, fields[0])
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", err)
		}
		whereClause = `WHERE (created_at, id) < ($1, $2)`
		args = append(args, lastCreatedAt, fields[1])
	}

	query := baseQuery + " " + whereClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query recurring payments", err)
	}
	defer rows.Close()

	defs := make([]domain.RecurringDefinition, 0, fetchLimit)
	for rows.Next() {
		var m models.RecurringPayment
		if err := rows.Scan(
			&m.ID, &m.Scope, &m.PropertyID, &m.Vendor, &m.Category, &m.CategoryDetail, &m.Amount,
			&m.DueDayOfMonth, &m.FrequencyMonths, &m.PaymentType,
			&m.AccountName, &m.BSB, &m.AccountNumber, &m.PaymentReference, &m.BPAYCode, &m.PayIDMobile,
			&m.ReportCategory, &m.StartMonthKey, &m.Status,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		); err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan recurring payment row", err)
		}
		defs = append(defs, mapping.ToDomainRecurringPayment(m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating recurring payment rows", err)
	}

	var nextTokenVal *string
	if len(defs) > limit {
		last := defs[limit-1]
		token := pagination.EncodeMultiFieldToken(last.CreatedAt.Format(time.RFC3339Nano), last.ID)
		nextTokenVal = &token
		defs = defs[:limit]
	}
	return defs, nextTokenVal, nil
}

const snapshotColumns = `
	id, occurred_at, amount, currency, category, category_detail, note, generated_from,
	fixed_expense_id, month_key, due_date, paid_date, status,
	created_at, created_by, last_updated_at, last_updated_by`

// FindSnapshotsByDefinitionInTx retrieves every snapshot of a definition
// within tx, keyed by month key. The (fixed_expense_id, month_key) unique
// constraint guarantees the keys are distinct.
func (r *PgxRecurringRepository) FindSnapshotsByDefinitionInTx(ctx context.Context, tx pgx.Tx, def domain.RecurringDefinition) (map[string]domain.ExpenseSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM ` + snapshotTable(def) + ` WHERE fixed_expense_id = $1;`
	rows, err := tx.Query(ctx, query, def.ID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query snapshots for "+def.ID, err)
	}
	defer rows.Close()

	byMonth := make(map[string]domain.ExpenseSnapshot)
	for rows.Next() {
		m, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snap := mapping.ToDomainExpenseSnapshot(m)
		if def.Scope == domain.ScopeProperty {
			snap.PropertyID = def.PropertyID
		}
		byMonth[snap.MonthKey] = snap
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating snapshot rows for "+def.ID, err)
	}
	return byMonth, nil
}

func scanSnapshot(rows pgx.Rows) (models.ExpenseSnapshot, error) {
	var m models.ExpenseSnapshot
	if err := rows.Scan(
		&m.ID, &m.OccurredAt, &m.Amount, &m.Currency, &m.Category, &m.CategoryDetail, &m.Note, &m.GeneratedFrom,
		&m.FixedExpenseID, &m.MonthKey, &m.DueDate, &m.PaidDate, &m.Status,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	); err != nil {
		return models.ExpenseSnapshot{}, apperrors.NewAppError(500, "failed to scan snapshot row", err)
	}
	return m, nil
}

// InsertSnapshotsInTx persists new snapshots within tx as one batch. A
// unique violation on (fixed_expense_id, month_key) means a concurrent
// transaction materialized the same month first; it maps to ErrConflict so
// the caller can retry the whole request.
func (r *PgxRecurringRepository) InsertSnapshotsInTx(ctx context.Context, tx pgx.Tx, def domain.RecurringDefinition, snapshots []domain.ExpenseSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	table := snapshotTable(def)
	propertyScoped := def.Scope == domain.ScopeProperty

	query := `
		INSERT INTO ` + table + ` (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	if propertyScoped {
		query = `
		INSERT INTO ` + table + ` (` + snapshotColumns + `, property_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	}

	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		m := mapping.ToModelExpenseSnapshot(snap)
		args := []interface{}{
			m.ID, m.OccurredAt, m.Amount, m.Currency, m.Category, m.CategoryDetail, m.Note, m.GeneratedFrom,
			m.FixedExpenseID, m.MonthKey, m.DueDate, m.PaidDate, m.Status,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		}
		if propertyScoped {
			args = append(args, m.PropertyID)
		}
		batch.Queue(query, args...)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewAppError(409, "snapshot already exists for "+def.ID, apperrors.ErrConflict)
		}
		return apperrors.NewAppError(500, "failed to insert snapshots for "+def.ID, err)
	}
	return nil
}

// UpdateSnapshotsInTx applies partial snapshot mutations within tx as one
// batch. Nil fields in an update leave the stored value untouched.
func (r *PgxRecurringRepository) UpdateSnapshotsInTx(ctx context.Context, tx pgx.Tx, def domain.RecurringDefinition, updates []domain.SnapshotUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	query := `
		UPDATE ` + snapshotTable(def) + `
		SET status = COALESCE($2, status),
		    amount = COALESCE($3, amount),
		    due_date = COALESCE($4, due_date),
		    paid_date = COALESCE($5, paid_date),
		    last_updated_at = $6,
		    last_updated_by = $7
		WHERE id = $1;
	`

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, u := range updates {
		var status *string
		if u.Status != nil {
			s := string(*u.Status)
			status = &s
		}
		batch.Queue(query, u.SnapshotID, status, u.Amount, u.DueDate, u.PaidDate, now, def.LastUpdatedBy)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to update snapshots for "+def.ID, err)
	}
	return nil
}

// ListSnapshotsByDefinition retrieves a month-descending page of snapshots
// for a definition using token-based pagination.
func (r *PgxRecurringRepository) ListSnapshotsByDefinition(ctx context.Context, def domain.RecurringDefinition, limit int, nextToken *string) ([]domain.ExpenseSnapshot, *string, error) {
	if limit <= 0 {
		limit = 24
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + snapshotColumns + ` FROM ` + snapshotTable(def) + ` WHERE fixed_expense_id = $1`
	orderByClause := `ORDER BY month_key DESC`

	args := []interface{}{def.ID}
	if nextToken != nil && *nextToken != "" {
		fields, err := pagination.DecodeMultiFieldToken(*nextToken)
		if err != nil || len(fields) != 1 {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", err)
		}
		baseQuery += ` AND month_key < $2`
		args = append(args, fields[0])
	}

	query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query snapshots for "+def.ID, err)
	}
	defer rows.Close()

	modelSnaps := make([]models.ExpenseSnapshot, 0, fetchLimit)
	for rows.Next() {
		m, err := scanSnapshot(rows)
		if err != nil {
			return nil, nil, err
		}
		modelSnaps = append(modelSnaps, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating snapshot rows for "+def.ID, err)
	}

	var nextTokenVal *string
	if len(modelSnaps) > limit {
		token := pagination.EncodeMultiFieldToken(modelSnaps[limit-1].MonthKey)
		nextTokenVal = &token
		modelSnaps = modelSnaps[:limit]
	}

	snaps := mapping.ToDomainExpenseSnapshotSlice(modelSnaps)
	if def.Scope == domain.ScopeProperty {
		for i := range snaps {
			snaps[i].PropertyID = def.PropertyID
		}
	}
	return snaps, nextTokenVal, nil
}

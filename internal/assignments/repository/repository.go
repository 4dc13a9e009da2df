package repository

import (
	"context"
	"errors"
	"fmt"

	offerdomain "schadenportal_backend/internal/offers/domain"
	orderdomain "schadenportal_backend/internal/orders/domain"
	"schadenportal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	msgAlreadyAssigned = "offer no longer available"
	msgOrderClosed     = "order is closed"
	msgOfferNotOpen    = "offer is no longer open for a response"

	uniqueViolation    = "23505"
	singleWinnerIndex  = "idx_assignments_single_winner"
	assignmentNotFound = "assignment not found"
)

const assignmentColumns = `id, order_id, assignee_id, assignee_kind, source, bound_at, superseded_at, created_at`

type repository struct {
	pool *pgxpool.Pool
}

// New creates a pgx-backed assignment repository.
func New(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(
		&a.ID, &a.OrderID, &a.AssigneeID, &a.AssigneeKind, &a.Source,
		&a.BoundAt, &a.SupersededAt, &a.CreatedAt,
	)
	return a, err
}

func (r *repository) Finalize(ctx context.Context, params FinalizeParams) (Assignment, error) {
	return r.bind(ctx, params, false)
}

func (r *repository) Reassign(ctx context.Context, params FinalizeParams) (Assignment, error) {
	return r.bind(ctx, params, true)
}

// bind runs the single-winner critical section. The order row lock
// serializes concurrent callers; the partial unique index on
// (order_id) WHERE superseded_at IS NULL backstops the check at the
// schema level for anything that slips past it.
func (r *repository) bind(ctx context.Context, params FinalizeParams, supersedeCurrent bool) (Assignment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Assignment{}, fmt.Errorf("begin finalize: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderStatus orderdomain.Status
	err = tx.QueryRow(ctx,
		`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, params.OrderID).Scan(&orderStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, apperr.NotFound("order not found")
	}
	if err != nil {
		return Assignment{}, fmt.Errorf("lock order for finalize: %w", err)
	}
	if orderStatus == orderdomain.StatusCancelled || orderStatus == orderdomain.StatusDone {
		return Assignment{}, apperr.Gone(msgOrderClosed)
	}

	var activeID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id FROM assignments
		WHERE order_id = $1 AND superseded_at IS NULL`, params.OrderID).Scan(&activeID)
	switch {
	case err == nil:
		if !supersedeCurrent {
			return Assignment{}, apperr.Conflict(msgAlreadyAssigned)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE assignments SET superseded_at = now()
			WHERE id = $1`, activeID); err != nil {
			return Assignment{}, fmt.Errorf("supersede assignment: %w", err)
		}
		// The old winner's pending commission no longer applies.
		if _, err := tx.Exec(ctx, `
			UPDATE commissions SET status = 'CANCELLED'
			WHERE order_id = $1 AND status = 'PENDING'`, params.OrderID); err != nil {
			return Assignment{}, fmt.Errorf("cancel pending commission: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		// No active assignment, nothing to supersede.
	default:
		return Assignment{}, fmt.Errorf("check active assignment: %w", err)
	}

	if params.OfferID != nil {
		// The deadline is re-checked under the lock; an offer that
		// expired after the ledger's respondability check cannot win.
		tag, err := tx.Exec(ctx, `
			UPDATE offers SET status = $2, responded_at = now(), updated_at = now()
			WHERE id = $1 AND status = $3 AND deadline >= now()`,
			*params.OfferID, offerdomain.StatusAccepted, offerdomain.StatusSent)
		if err != nil {
			return Assignment{}, fmt.Errorf("accept offer: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return Assignment{}, apperr.Conflict(msgOfferNotOpen)
		}
	}

	assignment, err := scanAssignment(tx.QueryRow(ctx, `
		INSERT INTO assignments (order_id, assignee_id, assignee_kind, source)
		VALUES ($1, $2, $3, $4)
		RETURNING `+assignmentColumns,
		params.OrderID, params.AssigneeID, params.AssigneeKind, params.Source))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == singleWinnerIndex {
			return Assignment{}, apperr.Conflict(msgAlreadyAssigned)
		}
		return Assignment{}, fmt.Errorf("create assignment: %w", err)
	}

	// Everyone else's open offer loses.
	if _, err := tx.Exec(ctx, `
		UPDATE offers SET status = $2, updated_at = now()
		WHERE order_id = $1 AND status = $3`,
		params.OrderID, offerdomain.StatusSuperseded, offerdomain.StatusSent); err != nil {
		return Assignment{}, fmt.Errorf("supersede sibling offers: %w", err)
	}

	// An accepted offer moves the order to OFFER_MADE; manual binding
	// means work is already being arranged.
	nextStatus := orderdomain.StatusInProgress
	if params.Source == SourceOfferAccept {
		nextStatus = orderdomain.StatusOfferMade
	}
	if _, err := tx.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`,
		params.OrderID, nextStatus); err != nil {
		return Assignment{}, fmt.Errorf("update order status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Assignment{}, fmt.Errorf("commit finalize: %w", err)
	}

	return assignment, nil
}

func (r *repository) GetActiveByOrder(ctx context.Context, orderID uuid.UUID) (Assignment, error) {
	a, err := scanAssignment(r.pool.QueryRow(ctx, `
		SELECT `+assignmentColumns+` FROM assignments
		WHERE order_id = $1 AND superseded_at IS NULL`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, apperr.NotFound(assignmentNotFound)
	}
	if err != nil {
		return Assignment{}, fmt.Errorf("get active assignment: %w", err)
	}
	return a, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Assignment, error) {
	return r.queryAssignments(ctx, `
		SELECT `+assignmentColumns+` FROM assignments
		WHERE order_id = $1 ORDER BY bound_at`, orderID)
}

func (r *repository) ListByAssignee(ctx context.Context, assigneeID uuid.UUID) ([]Assignment, error) {
	return r.queryAssignments(ctx, `
		SELECT `+assignmentColumns+` FROM assignments
		WHERE assignee_id = $1 ORDER BY bound_at DESC`, assigneeID)
}

func (r *repository) queryAssignments(ctx context.Context, query string, args ...any) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	assignments := make([]Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}

	return assignments, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"schadenportal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	commissionNotFoundMsg = "commission not found"

	uniqueViolation   = "23505"
	activePerOrderIdx = "idx_commissions_order_active"
)

const commissionColumns = `id, order_id, partner_id, assignment_id, amount_cents, rate_bps, status, created_at, paid_at`

type repository struct {
	pool *pgxpool.Pool
}

// New creates a pgx-backed commission repository.
func New(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func scanCommission(row pgx.Row) (Commission, error) {
	var c Commission
	err := row.Scan(
		&c.ID, &c.OrderID, &c.PartnerID, &c.AssignmentID,
		&c.AmountCents, &c.RateBps, &c.Status, &c.CreatedAt, &c.PaidAt,
	)
	return c, err
}

func (r *repository) Create(ctx context.Context, params CreateParams) (Commission, bool, error) {
	query := `
		INSERT INTO commissions (order_id, partner_id, assignment_id, amount_cents, rate_bps)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + commissionColumns

	c, err := scanCommission(r.pool.QueryRow(ctx, query,
		params.OrderID, params.PartnerID, params.AssignmentID, params.AmountCents, params.RateBps))
	if err == nil {
		return c, true, nil
	}

	// The partial unique index on (order_id) WHERE status <> 'CANCELLED'
	// turns duplicate derivation into a lookup of the existing row.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == activePerOrderIdx {
		existing, err := r.GetActiveByOrder(ctx, params.OrderID)
		if err != nil {
			return Commission{}, false, err
		}
		return existing, false, nil
	}

	return Commission{}, false, fmt.Errorf("create commission: %w", err)
}

func (r *repository) GetActiveByOrder(ctx context.Context, orderID uuid.UUID) (Commission, error) {
	c, err := scanCommission(r.pool.QueryRow(ctx, `
		SELECT `+commissionColumns+` FROM commissions
		WHERE order_id = $1 AND status <> $2`, orderID, StatusCancelled))
	if errors.Is(err, pgx.ErrNoRows) {
		return Commission{}, apperr.NotFound(commissionNotFoundMsg)
	}
	if err != nil {
		return Commission{}, fmt.Errorf("get commission: %w", err)
	}
	return c, nil
}

func (r *repository) ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]Commission, error) {
	return r.queryCommissions(ctx, `
		SELECT `+commissionColumns+` FROM commissions
		WHERE partner_id = $1 ORDER BY created_at DESC`, partnerID)
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Commission, error) {
	return r.queryCommissions(ctx, `
		SELECT `+commissionColumns+` FROM commissions
		WHERE order_id = $1 ORDER BY created_at`, orderID)
}

func (r *repository) queryCommissions(ctx context.Context, query string, args ...any) ([]Commission, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list commissions: %w", err)
	}
	defer rows.Close()

	commissions := make([]Commission, 0)
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan commission: %w", err)
		}
		commissions = append(commissions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commissions: %w", err)
	}

	return commissions, nil
}

func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID) (Commission, error) {
	query := `
		UPDATE commissions
		SET status = $2, paid_at = now()
		WHERE id = $1 AND status = $3
		RETURNING ` + commissionColumns

	c, err := scanCommission(r.pool.QueryRow(ctx, query, id, StatusPaid, StatusPending))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, err := r.getByID(ctx, id); err != nil {
			return Commission{}, err
		}
		return Commission{}, apperr.Conflict("commission is not pending")
	}
	if err != nil {
		return Commission{}, fmt.Errorf("mark commission paid: %w", err)
	}
	return c, nil
}

func (r *repository) getByID(ctx context.Context, id uuid.UUID) (Commission, error) {
	c, err := scanCommission(r.pool.QueryRow(ctx,
		`SELECT `+commissionColumns+` FROM commissions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Commission{}, apperr.NotFound(commissionNotFoundMsg)
	}
	if err != nil {
		return Commission{}, fmt.Errorf("get commission: %w", err)
	}
	return c, nil
}

func (r *repository) GetRate(ctx context.Context, partnerID uuid.UUID) (int32, bool, error) {
	var rateBps int32
	err := r.pool.QueryRow(ctx,
		`SELECT rate_bps FROM partner_commission_rates WHERE partner_id = $1`, partnerID).Scan(&rateBps)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get partner rate: %w", err)
	}
	return rateBps, true, nil
}

func (r *repository) UpsertRate(ctx context.Context, partnerID uuid.UUID, rateBps int32) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO partner_commission_rates (partner_id, rate_bps)
		VALUES ($1, $2)
		ON CONFLICT (partner_id) DO UPDATE SET rate_bps = EXCLUDED.rate_bps, updated_at = now()`,
		partnerID, rateBps)
	if err != nil {
		return fmt.Errorf("upsert partner rate: %w", err)
	}
	return nil
}

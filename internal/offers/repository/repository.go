package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"schadenportal_backend/internal/offers/domain"
	"schadenportal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const offerNotFoundMsg = "offer not found"

const offerColumns = `id, order_id, candidate_id, status, issued_at, responded_at, deadline, created_at, updated_at`

type repository struct {
	pool *pgxpool.Pool
}

// New creates a pgx-backed offer repository.
func New(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func scanOffer(row pgx.Row) (Offer, error) {
	var o Offer
	err := row.Scan(
		&o.ID, &o.OrderID, &o.CandidateID, &o.Status,
		&o.IssuedAt, &o.RespondedAt, &o.Deadline, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func (r *repository) Issue(ctx context.Context, orderID, candidateID uuid.UUID, deadline time.Time) (Offer, bool, error) {
	// The partial unique index on (order_id, candidate_id) WHERE
	// status='sent' makes concurrent duplicate issuance collapse into
	// the DO NOTHING path.
	query := `
		INSERT INTO offers (order_id, candidate_id, deadline)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id, candidate_id) WHERE status = 'sent' DO NOTHING
		RETURNING ` + offerColumns

	offer, err := scanOffer(r.pool.QueryRow(ctx, query, orderID, candidateID, deadline))
	if err == nil {
		return offer, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Offer{}, false, fmt.Errorf("issue offer: %w", err)
	}

	existing, err := scanOffer(r.pool.QueryRow(ctx, `
		SELECT `+offerColumns+` FROM offers
		WHERE order_id = $1 AND candidate_id = $2 AND status = $3`,
		orderID, candidateID, domain.StatusSent))
	if err != nil {
		return Offer{}, false, fmt.Errorf("load existing offer: %w", err)
	}

	return existing, false, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`

	offer, err := scanOffer(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Offer{}, apperr.NotFound(offerNotFoundMsg)
	}
	if err != nil {
		return Offer{}, fmt.Errorf("get offer: %w", err)
	}

	return offer, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Offer, error) {
	return r.queryOffers(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE order_id = $1 ORDER BY issued_at`, orderID)
}

func (r *repository) ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]Offer, error) {
	return r.queryOffers(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE candidate_id = $1 ORDER BY issued_at DESC`, candidateID)
}

func (r *repository) queryOffers(ctx context.Context, query string, args ...any) ([]Offer, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	offers := make([]Offer, 0)
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offers: %w", err)
	}

	return offers, nil
}

func (r *repository) TriedCandidateIDs(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT candidate_id FROM offers WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list tried candidates: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tried candidate: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tried candidates: %w", err)
	}

	return ids, nil
}

func (r *repository) Transition(ctx context.Context, id uuid.UUID, from, to string, respondedAt *time.Time) (bool, error) {
	query := `
		UPDATE offers
		SET status = $3, responded_at = COALESCE($4, responded_at), updated_at = now()
		WHERE id = $1 AND status = $2`

	tag, err := r.pool.Exec(ctx, query, id, from, to, respondedAt)
	if err != nil {
		return false, fmt.Errorf("transition offer: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) SweepExpired(ctx context.Context, now time.Time) ([]Offer, error) {
	query := `
		UPDATE offers
		SET status = $2, updated_at = now()
		WHERE status = $1 AND deadline < $3
		RETURNING ` + offerColumns

	return r.queryOffers(ctx, query, domain.StatusSent, domain.StatusExpired, now)
}

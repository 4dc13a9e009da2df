package repository

import (
	"context"
	"errors"
	"fmt"

	"schadenportal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const candidateNotFoundMsg = "candidate not found"

type repository struct {
	pool *pgxpool.Pool
}

// New creates a pgx-backed candidate repository.
func New(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Create(ctx context.Context, params CreateParams) (Candidate, error) {
	query := `
		INSERT INTO candidates (kind, display_name, contact_email, contact_phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, kind, display_name, contact_email, contact_phone,
		          availability, active, created_at, updated_at`

	var c Candidate
	err := r.pool.QueryRow(ctx, query,
		params.Kind, params.DisplayName, params.ContactEmail, params.ContactPhone,
	).Scan(
		&c.ID, &c.Kind, &c.DisplayName, &c.ContactEmail, &c.ContactPhone,
		&c.Availability, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return Candidate{}, fmt.Errorf("create candidate: %w", err)
	}

	return c, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (Candidate, error) {
	query := `
		SELECT id, kind, display_name, contact_email, contact_phone,
		       availability, active, created_at, updated_at
		FROM candidates
		WHERE id = $1`

	var c Candidate
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Kind, &c.DisplayName, &c.ContactEmail, &c.ContactPhone,
		&c.Availability, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Candidate{}, apperr.NotFound(candidateNotFoundMsg)
	}
	if err != nil {
		return Candidate{}, fmt.Errorf("get candidate: %w", err)
	}

	return c, nil
}

func (r *repository) List(ctx context.Context) ([]Candidate, error) {
	query := `
		SELECT id, kind, display_name, contact_email, contact_phone,
		       availability, active, created_at, updated_at
		FROM candidates
		ORDER BY display_name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(
			&c.ID, &c.Kind, &c.DisplayName, &c.ContactEmail, &c.ContactPhone,
			&c.Availability, &c.Active, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}

	return candidates, nil
}

func (r *repository) SetAvailability(ctx context.Context, id uuid.UUID, availability string) error {
	query := `
		UPDATE candidates
		SET availability = $2, updated_at = now()
		WHERE id = $1 AND active`

	tag, err := r.pool.Exec(ctx, query, id, availability)
	if err != nil {
		return fmt.Errorf("set availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(candidateNotFoundMsg)
	}

	return nil
}

func (r *repository) GetAvailability(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	result := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		result[id] = AvailabilityUnavailable
	}
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT id, availability
		FROM candidates
		WHERE id = ANY($1) AND active`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var availability string
		if err := rows.Scan(&id, &availability); err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}
		result[id] = availability
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate availability: %w", err)
	}

	return result, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"schadenportal_backend/internal/orders/domain"
	"schadenportal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderNotFoundMsg = "order not found"

const orderColumns = `id, category, region_code, description,
	customer_name, customer_phone, customer_email,
	value_cents, status, scheduled_at, created_at, updated_at`

type repository struct {
	pool *pgxpool.Pool
}

// New creates a pgx-backed order repository.
func New(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.Category, &o.RegionCode, &o.Description,
		&o.CustomerName, &o.CustomerPhone, &o.CustomerEmail,
		&o.ValueCents, &o.Status, &o.ScheduledAt, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func (r *repository) Create(ctx context.Context, params CreateParams) (Order, error) {
	query := `
		INSERT INTO orders (category, region_code, description,
			customer_name, customer_phone, customer_email, value_cents, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + orderColumns

	o, err := scanOrder(r.pool.QueryRow(ctx, query,
		params.Category, params.RegionCode, params.Description,
		params.CustomerName, params.CustomerPhone, params.CustomerEmail,
		params.ValueCents, params.ScheduledAt,
	))
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}

	return o, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, apperr.NotFound(orderNotFoundMsg)
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}

	return o, nil
}

func (r *repository) List(ctx context.Context, params ListParams) (ListResult, error) {
	page := params.Page
	pageSize := params.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	where := []string{"true"}
	args := []any{}
	nextArg := 1

	if strings.TrimSpace(params.Status) != "" {
		where = append(where, fmt.Sprintf("status = $%d", nextArg))
		args = append(args, strings.TrimSpace(params.Status))
		nextArg++
	}
	if strings.TrimSpace(params.Category) != "" {
		where = append(where, fmt.Sprintf("category = $%d", nextArg))
		args = append(args, strings.TrimSpace(params.Category))
		nextArg++
	}

	whereSQL := "WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM orders "+whereSQL, args...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count orders: %w", err)
	}

	query := "SELECT " + orderColumns + " FROM orders " + whereSQL +
		" ORDER BY created_at DESC" +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", nextArg, nextArg+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	items := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return ListResult{}, fmt.Errorf("scan order: %w", err)
		}
		items = append(items, o)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("iterate orders: %w", err)
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	return ListResult{Items: items, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from []domain.Status, to domain.Status) error {
	fromValues := make([]string, 0, len(from))
	for _, s := range from {
		fromValues = append(fromValues, string(s))
	}

	query := `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3::text[])`

	tag, err := r.pool.Exec(ctx, query, id, to, fromValues)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either missing or in a state the transition table forbids.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return apperr.Conflict("order is not in a valid state for this transition")
	}

	return nil
}

func (r *repository) Cancel(ctx context.Context, id uuid.UUID) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin cancel order: %w", err)
	}
	defer tx.Rollback(ctx)

	var status domain.Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.NotFound(orderNotFoundMsg)
	}
	if err != nil {
		return 0, fmt.Errorf("lock order for cancel: %w", err)
	}

	if status == domain.StatusCancelled {
		// Already cancelled; cancelling again is a no-op.
		return 0, tx.Commit(ctx)
	}
	if status == domain.StatusDone {
		return 0, apperr.Gone("order is already completed")
	}

	if _, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`,
		id, domain.StatusCancelled,
	); err != nil {
		return 0, fmt.Errorf("cancel order: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE offers
		SET status = 'cancelled', updated_at = now()
		WHERE order_id = $1 AND status = 'sent'`, id)
	if err != nil {
		return 0, fmt.Errorf("cancel open offers: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit cancel order: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

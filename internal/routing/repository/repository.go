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

const ruleNotFoundMsg = "routing rule not found"

const ruleColumns = `id, category, region_prefix, priority, mode, capacity, active, created_at, updated_at`

type repository struct {
	pool *pgxpool.Pool
}

// New creates a pgx-backed routing rule repository.
func New(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func scanRule(row pgx.Row) (Rule, error) {
	var r Rule
	err := row.Scan(
		&r.ID, &r.Category, &r.RegionPrefix, &r.Priority, &r.Mode,
		&r.Capacity, &r.Active, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func (r *repository) CreateRule(ctx context.Context, params CreateRuleParams) (Rule, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Rule{}, fmt.Errorf("begin create rule: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO routing_rules (category, region_prefix, priority, mode, capacity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + ruleColumns

	rule, err := scanRule(tx.QueryRow(ctx, query,
		params.Category, params.RegionPrefix, params.Priority, params.Mode, params.Capacity))
	if err != nil {
		return Rule{}, fmt.Errorf("create rule: %w", err)
	}

	rule.Targets, err = replaceTargets(ctx, tx, rule.ID, params.Targets)
	if err != nil {
		return Rule{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Rule{}, fmt.Errorf("commit create rule: %w", err)
	}

	return rule, nil
}

func replaceTargets(ctx context.Context, tx pgx.Tx, ruleID uuid.UUID, candidateIDs []uuid.UUID) ([]Target, error) {
	if _, err := tx.Exec(ctx, `DELETE FROM routing_rule_targets WHERE rule_id = $1`, ruleID); err != nil {
		return nil, fmt.Errorf("clear rule targets: %w", err)
	}

	targets := make([]Target, 0, len(candidateIDs))
	for i, candidateID := range candidateIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO routing_rule_targets (rule_id, candidate_id, position)
			VALUES ($1, $2, $3)`, ruleID, candidateID, i); err != nil {
			return nil, fmt.Errorf("insert rule target: %w", err)
		}
		targets = append(targets, Target{CandidateID: candidateID, Position: i})
	}

	return targets, nil
}

func (r *repository) GetRule(ctx context.Context, id uuid.UUID) (Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM routing_rules WHERE id = $1`

	rule, err := scanRule(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Rule{}, apperr.NotFound(ruleNotFoundMsg)
	}
	if err != nil {
		return Rule{}, fmt.Errorf("get rule: %w", err)
	}

	rules, err := r.attachTargets(ctx, []Rule{rule})
	if err != nil {
		return Rule{}, err
	}
	return rules[0], nil
}

func (r *repository) ListRules(ctx context.Context) ([]Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM routing_rules ORDER BY category, priority, created_at`
	return r.queryRules(ctx, query)
}

func (r *repository) ListActiveByCategory(ctx context.Context, category string) ([]Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM routing_rules
		WHERE category = $1 AND active
		ORDER BY priority, created_at`
	return r.queryRules(ctx, query, category)
}

func (r *repository) queryRules(ctx context.Context, query string, args ...any) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	rules := make([]Rule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}

	return r.attachTargets(ctx, rules)
}

func (r *repository) attachTargets(ctx context.Context, rules []Rule) ([]Rule, error) {
	if len(rules) == 0 {
		return rules, nil
	}

	ids := make([]uuid.UUID, 0, len(rules))
	index := make(map[uuid.UUID]int, len(rules))
	for i, rule := range rules {
		ids = append(ids, rule.ID)
		index[rule.ID] = i
	}

	rows, err := r.pool.Query(ctx, `
		SELECT rule_id, candidate_id, position
		FROM routing_rule_targets
		WHERE rule_id = ANY($1)
		ORDER BY rule_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("list rule targets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ruleID uuid.UUID
		var t Target
		if err := rows.Scan(&ruleID, &t.CandidateID, &t.Position); err != nil {
			return nil, fmt.Errorf("scan rule target: %w", err)
		}
		i := index[ruleID]
		rules[i].Targets = append(rules[i].Targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule targets: %w", err)
	}

	return rules, nil
}

func (r *repository) UpdateRule(ctx context.Context, id uuid.UUID, params UpdateRuleParams) (Rule, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Rule{}, fmt.Errorf("begin update rule: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE routing_rules SET
			priority = COALESCE($2, priority),
			mode = COALESCE($3, mode),
			capacity = COALESCE($4, capacity),
			active = COALESCE($5, active),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + ruleColumns

	rule, err := scanRule(tx.QueryRow(ctx, query, id, params.Priority, params.Mode, params.Capacity, params.Active))
	if errors.Is(err, pgx.ErrNoRows) {
		return Rule{}, apperr.NotFound(ruleNotFoundMsg)
	}
	if err != nil {
		return Rule{}, fmt.Errorf("update rule: %w", err)
	}

	if params.Targets != nil {
		rule.Targets, err = replaceTargets(ctx, tx, id, params.Targets)
		if err != nil {
			return Rule{}, err
		}
		if err := tx.Commit(ctx); err != nil {
			return Rule{}, fmt.Errorf("commit update rule: %w", err)
		}
		return rule, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return Rule{}, fmt.Errorf("commit update rule: %w", err)
	}

	rules, err := r.attachTargets(ctx, []Rule{rule})
	if err != nil {
		return Rule{}, err
	}
	return rules[0], nil
}

func (r *repository) DeleteRule(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM routing_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(ruleNotFoundMsg)
	}
	return nil
}

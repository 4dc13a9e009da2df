package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Dispatch modes for routing rules.
const (
	ModeBroadcast  = "broadcast"
	ModeSequential = "sequential"
)

// Rule maps a (category, region prefix) pair to a prioritized target set.
// Lower priority values win. Capacity, when set, caps how many candidates
// a broadcast dispatch may offer to at once.
type Rule struct {
	ID           uuid.UUID
	Category     string
	RegionPrefix string
	Priority     int
	Mode         string
	Capacity     *int
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Targets      []Target
}

// Target is one candidate slot in a rule, ordered by Position.
type Target struct {
	CandidateID uuid.UUID
	Position    int
}

// CreateRuleParams contains parameters for creating a routing rule with
// its target list.
type CreateRuleParams struct {
	Category     string
	RegionPrefix string
	Priority     int
	Mode         string
	Capacity     *int
	Targets      []uuid.UUID
}

// UpdateRuleParams contains the mutable rule fields; nil means unchanged.
type UpdateRuleParams struct {
	Priority *int
	Mode     *string
	Capacity *int
	Active   *bool
	// Targets, when non-nil, replaces the full target list.
	Targets []uuid.UUID
}

// Repository provides persistence for routing rules and their targets.
type Repository interface {
	CreateRule(ctx context.Context, params CreateRuleParams) (Rule, error)
	GetRule(ctx context.Context, id uuid.UUID) (Rule, error)
	ListRules(ctx context.Context) ([]Rule, error)
	UpdateRule(ctx context.Context, id uuid.UUID, params UpdateRuleParams) (Rule, error)
	DeleteRule(ctx context.Context, id uuid.UUID) error
	// ListActiveByCategory returns active rules for a category with their
	// targets, ordered by priority then creation time.
	ListActiveByCategory(ctx context.Context, category string) ([]Rule, error)
}

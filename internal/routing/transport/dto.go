package transport

import (
	"time"

	"schadenportal_backend/internal/routing/repository"

	"github.com/google/uuid"
)

type CreateRuleRequest struct {
	Category     string   `json:"category" binding:"required,oneof=sanitaer heizung elektro dach maler fenster boden sonstiges"`
	RegionPrefix string   `json:"regionPrefix" binding:"required,min=1,max=10"`
	Priority     int      `json:"priority" binding:"omitempty,min=0,max=10000"`
	Mode         string   `json:"mode" binding:"required,oneof=broadcast sequential"`
	Capacity     *int     `json:"capacity" binding:"omitempty,min=1"`
	Targets      []string `json:"targets" binding:"required,min=1,dive,uuid"`
}

type UpdateRuleRequest struct {
	Priority *int      `json:"priority" binding:"omitempty,min=0,max=10000"`
	Mode     *string   `json:"mode" binding:"omitempty,oneof=broadcast sequential"`
	Capacity *int      `json:"capacity" binding:"omitempty,min=1"`
	Active   *bool     `json:"active"`
	Targets  *[]string `json:"targets" binding:"omitempty,min=1,dive,uuid"`
}

type TargetResponse struct {
	CandidateID uuid.UUID `json:"candidateId"`
	Position    int       `json:"position"`
}

type RuleResponse struct {
	ID           uuid.UUID        `json:"id"`
	Category     string           `json:"category"`
	RegionPrefix string           `json:"regionPrefix"`
	Priority     int              `json:"priority"`
	Mode         string           `json:"mode"`
	Capacity     *int             `json:"capacity,omitempty"`
	Active       bool             `json:"active"`
	Targets      []TargetResponse `json:"targets"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

type ListRulesResponse struct {
	Items []RuleResponse `json:"items"`
}

func ToRuleResponse(r repository.Rule) RuleResponse {
	targets := make([]TargetResponse, 0, len(r.Targets))
	for _, t := range r.Targets {
		targets = append(targets, TargetResponse{CandidateID: t.CandidateID, Position: t.Position})
	}
	return RuleResponse{
		ID:           r.ID,
		Category:     r.Category,
		RegionPrefix: r.RegionPrefix,
		Priority:     r.Priority,
		Mode:         r.Mode,
		Capacity:     r.Capacity,
		Active:       r.Active,
		Targets:      targets,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func ToListRulesResponse(rules []repository.Rule) ListRulesResponse {
	items := make([]RuleResponse, 0, len(rules))
	for _, r := range rules {
		items = append(items, ToRuleResponse(r))
	}
	return ListRulesResponse{Items: items}
}

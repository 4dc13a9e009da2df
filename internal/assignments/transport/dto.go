package transport

import (
	"time"

	"schadenportal_backend/internal/assignments/repository"

	"github.com/google/uuid"
)

type AssignRequest struct {
	CandidateID string `json:"candidateId" binding:"required,uuid"`
}

type AssignmentResponse struct {
	ID           uuid.UUID  `json:"id"`
	OrderID      uuid.UUID  `json:"orderId"`
	AssigneeID   uuid.UUID  `json:"assigneeId"`
	AssigneeKind string     `json:"assigneeKind"`
	Source       string     `json:"source"`
	BoundAt      time.Time  `json:"boundAt"`
	SupersededAt *time.Time `json:"supersededAt,omitempty"`
}

type ListAssignmentsResponse struct {
	Items []AssignmentResponse `json:"items"`
}

func ToAssignmentResponse(a repository.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:           a.ID,
		OrderID:      a.OrderID,
		AssigneeID:   a.AssigneeID,
		AssigneeKind: a.AssigneeKind,
		Source:       a.Source,
		BoundAt:      a.BoundAt,
		SupersededAt: a.SupersededAt,
	}
}

func ToListAssignmentsResponse(assignments []repository.Assignment) ListAssignmentsResponse {
	items := make([]AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		items = append(items, ToAssignmentResponse(a))
	}
	return ListAssignmentsResponse{Items: items}
}

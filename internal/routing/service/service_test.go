package service

import (
	"context"
	"testing"
	"time"

	"schadenportal_backend/internal/routing/repository"
	"schadenportal_backend/internal/routing/transport"
	"schadenportal_backend/platform/apperr"
	"schadenportal_backend/platform/logger"

	"github.com/google/uuid"
)

func TestCreateRuleRejectsUnknownCategory(t *testing.T) {
	svc := New(&fakeRuleRepo{}, fixedTTL(24*time.Hour), logger.New("test"))

	_, err := svc.CreateRule(context.Background(), transport.CreateRuleRequest{
		Category:     "plumbing",
		RegionPrefix: "10",
		Mode:         repository.ModeBroadcast,
		Targets:      []string{uuid.NewString()},
	})
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
}

package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"schadenportal_backend/internal/assignments/repository"
	candrepo "schadenportal_backend/internal/candidates/repository"
	"schadenportal_backend/platform/apperr"
	"schadenportal_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeAssignmentRepo emulates the conditional-insert semantics of the
// real repository: the single-winner check and the insert happen under
// one lock, the way the row lock serializes them in Postgres.
type fakeAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[uuid.UUID][]repository.Assignment
	closed      map[uuid.UUID]bool
	// offer deadlines re-checked inside the bind, like the real
	// conditional accept does under the row lock
	offerDeadlines map[uuid.UUID]time.Time
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{
		assignments:    make(map[uuid.UUID][]repository.Assignment),
		closed:         make(map[uuid.UUID]bool),
		offerDeadlines: make(map[uuid.UUID]time.Time),
	}
}

func (f *fakeAssignmentRepo) Finalize(_ context.Context, params repository.FinalizeParams) (repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed[params.OrderID] {
		return repository.Assignment{}, apperr.Gone("order is closed")
	}
	for _, a := range f.assignments[params.OrderID] {
		if a.SupersededAt == nil {
			return repository.Assignment{}, apperr.Conflict("offer no longer available")
		}
	}
	if params.OfferID != nil {
		if deadline, ok := f.offerDeadlines[*params.OfferID]; ok && deadline.Before(time.Now()) {
			return repository.Assignment{}, apperr.Conflict("offer is no longer open for a response")
		}
	}
	a := repository.Assignment{
		ID:           uuid.New(),
		OrderID:      params.OrderID,
		AssigneeID:   params.AssigneeID,
		AssigneeKind: params.AssigneeKind,
		Source:       params.Source,
		BoundAt:      time.Now(),
	}
	f.assignments[params.OrderID] = append(f.assignments[params.OrderID], a)
	return a, nil
}

func (f *fakeAssignmentRepo) Reassign(_ context.Context, params repository.FinalizeParams) (repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed[params.OrderID] {
		return repository.Assignment{}, apperr.Gone("order is closed")
	}
	now := time.Now()
	for i, a := range f.assignments[params.OrderID] {
		if a.SupersededAt == nil {
			f.assignments[params.OrderID][i].SupersededAt = &now
		}
	}
	a := repository.Assignment{
		ID:           uuid.New(),
		OrderID:      params.OrderID,
		AssigneeID:   params.AssigneeID,
		AssigneeKind: params.AssigneeKind,
		Source:       params.Source,
		BoundAt:      now,
	}
	f.assignments[params.OrderID] = append(f.assignments[params.OrderID], a)
	return a, nil
}

func (f *fakeAssignmentRepo) GetActiveByOrder(_ context.Context, orderID uuid.UUID) (repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments[orderID] {
		if a.SupersededAt == nil {
			return a, nil
		}
	}
	return repository.Assignment{}, apperr.NotFound("assignment not found")
}

func (f *fakeAssignmentRepo) ListByOrder(_ context.Context, orderID uuid.UUID) ([]repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]repository.Assignment(nil), f.assignments[orderID]...), nil
}

func (f *fakeAssignmentRepo) ListByAssignee(_ context.Context, assigneeID uuid.UUID) ([]repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Assignment, 0)
	for _, list := range f.assignments {
		for _, a := range list {
			if a.AssigneeID == assigneeID {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

type fakeCandidates struct {
	kinds map[uuid.UUID]string
}

func (f *fakeCandidates) KindOf(_ context.Context, id uuid.UUID) (string, error) {
	kind, ok := f.kinds[id]
	if !ok {
		return "", apperr.NotFound("candidate not found")
	}
	return kind, nil
}

type fakeDeriver struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeDeriver) DeriveForAssignment(_ context.Context, _, _, _ uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeEnqueuer) EnqueueCommissionDerive(_ context.Context, _, _, _ uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func newCoordinator(repo repository.Repository, kinds map[uuid.UUID]string, deriver *fakeDeriver, retries *fakeEnqueuer) *Service {
	svc := New(repo, logger.New("test"))
	svc.SetCandidateDirectory(&fakeCandidates{kinds: kinds})
	if deriver != nil {
		svc.SetCommissionDeriver(deriver)
	}
	if retries != nil {
		svc.SetRetryEnqueuer(retries)
	}
	return svc
}

func TestConcurrentAcceptsProduceExactlyOneWinner(t *testing.T) {
	repo := newFakeAssignmentRepo()
	orderID := uuid.New()

	const attempts = 32
	kinds := make(map[uuid.UUID]string, attempts)
	candidates := make([]uuid.UUID, attempts)
	for i := range candidates {
		candidates[i] = uuid.New()
		kinds[candidates[i]] = candrepo.KindProfessional
	}
	svc := newCoordinator(repo, kinds, nil, nil)

	var wg sync.WaitGroup
	var winners, losers sync.Map
	for i, candidateID := range candidates {
		wg.Add(1)
		go func(i int, candidateID uuid.UUID) {
			defer wg.Done()
			// Jitter to shuffle goroutine interleaving.
			time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
			_, err := svc.FinalizeFromOffer(context.Background(), orderID, candidateID, uuid.New())
			switch {
			case err == nil:
				winners.Store(i, candidateID)
			case apperr.GetKind(err) == apperr.KindConflict:
				losers.Store(i, candidateID)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i, candidateID)
	}
	wg.Wait()

	winnerCount := 0
	winners.Range(func(_, _ any) bool { winnerCount++; return true })
	loserCount := 0
	losers.Range(func(_, _ any) bool { loserCount++; return true })

	if winnerCount != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", winnerCount)
	}
	if loserCount != attempts-1 {
		t.Fatalf("expected %d lost races, got %d", attempts-1, loserCount)
	}

	all, _ := repo.ListByOrder(context.Background(), orderID)
	if len(all) != 1 {
		t.Fatalf("expected 1 assignment row total, got %d", len(all))
	}
}

func TestPartnerAssignmentTriggersCommission(t *testing.T) {
	repo := newFakeAssignmentRepo()
	orderID := uuid.New()
	partner := uuid.New()
	deriver := &fakeDeriver{}
	svc := newCoordinator(repo, map[uuid.UUID]string{partner: candrepo.KindPartner}, deriver, nil)

	if _, err := svc.Assign(context.Background(), orderID, partner, repository.SourceAdminOverride); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if deriver.calls != 1 {
		t.Fatalf("expected 1 derivation, got %d", deriver.calls)
	}
}

func TestProfessionalAssignmentSkipsCommission(t *testing.T) {
	repo := newFakeAssignmentRepo()
	orderID := uuid.New()
	pro := uuid.New()
	deriver := &fakeDeriver{}
	svc := newCoordinator(repo, map[uuid.UUID]string{pro: candrepo.KindProfessional}, deriver, nil)

	if _, err := svc.Assign(context.Background(), orderID, pro, repository.SourceDirectAssign); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if deriver.calls != 0 {
		t.Fatalf("expected no derivation for a professional, got %d", deriver.calls)
	}
}

func TestAcceptOfOfferExpiringMidFlightLoses(t *testing.T) {
	repo := newFakeAssignmentRepo()
	orderID := uuid.New()
	pro := uuid.New()
	offerID := uuid.New()
	// Deadline slipped past after the ledger's respondability check.
	repo.offerDeadlines[offerID] = time.Now().Add(-time.Second)
	svc := newCoordinator(repo, map[uuid.UUID]string{pro: candrepo.KindProfessional}, nil, nil)

	_, err := svc.FinalizeFromOffer(context.Background(), orderID, pro, offerID)
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(repo.assignments[orderID]) != 0 {
		t.Fatalf("expected no assignment, got %d", len(repo.assignments[orderID]))
	}
}

func TestPartnerCannotClaimDirectly(t *testing.T) {
	repo := newFakeAssignmentRepo()
	orderID := uuid.New()
	partner := uuid.New()
	deriver := &fakeDeriver{}
	svc := newCoordinator(repo, map[uuid.UUID]string{partner: candrepo.KindPartner}, deriver, nil)

	_, err := svc.Assign(context.Background(), orderID, partner, repository.SourceDirectAssign)
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(repo.assignments[orderID]) != 0 {
		t.Fatalf("expected no assignment, got %d", len(repo.assignments[orderID]))
	}
	if deriver.calls != 0 {
		t.Fatalf("expected no derivation, got %d", deriver.calls)
	}
}

func TestDerivationFailureSchedulesRetryWithoutFailingAssignment(t *testing.T) {
	repo := newFakeAssignmentRepo()
	orderID := uuid.New()
	partner := uuid.New()
	deriver := &fakeDeriver{err: errors.New("db down")}
	retries := &fakeEnqueuer{}
	svc := newCoordinator(repo, map[uuid.UUID]string{partner: candrepo.KindPartner}, deriver, retries)

	assignment, err := svc.Assign(context.Background(), orderID, partner, repository.SourceAdminOverride)
	if err != nil {
		t.Fatalf("Assign must not fail on derivation error: %v", err)
	}
	if assignment.ID == uuid.Nil {
		t.Fatal("expected a bound assignment")
	}
	if retries.calls != 1 {
		t.Fatalf("expected 1 retry enqueue, got %d", retries.calls)
	}
}

func TestAssignRejectsUnknownSource(t *testing.T) {
	svc := newCoordinator(newFakeAssignmentRepo(), map[uuid.UUID]string{}, nil, nil)

	_, err := svc.Assign(context.Background(), uuid.New(), uuid.New(), "offer_accept")
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestReassignSupersedesPreviousWinner(t *testing.T) {
	repo := newFakeAssignmentRepo()
	orderID := uuid.New()
	first := uuid.New()
	second := uuid.New()
	kinds := map[uuid.UUID]string{
		first:  candrepo.KindProfessional,
		second: candrepo.KindProfessional,
	}
	svc := newCoordinator(repo, kinds, nil, nil)

	if _, err := svc.Assign(context.Background(), orderID, first, repository.SourceAdminOverride); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	// A second plain assign must lose.
	if _, err := svc.Assign(context.Background(), orderID, second, repository.SourceAdminOverride); apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	replacement, err := svc.Reassign(context.Background(), orderID, second)
	if err != nil {
		t.Fatalf("Reassign failed: %v", err)
	}

	active, err := svc.GetActiveByOrder(context.Background(), orderID)
	if err != nil {
		t.Fatalf("GetActiveByOrder failed: %v", err)
	}
	if active.ID != replacement.ID || active.AssigneeID != second {
		t.Fatalf("expected the replacement to be active, got %+v", active)
	}

	history, _ := svc.ListByOrder(context.Background(), orderID)
	activeCount := 0
	for _, a := range history {
		if a.SupersededAt == nil {
			activeCount++
		}
	}
	if len(history) != 2 || activeCount != 1 {
		t.Fatalf("expected 2 rows with 1 active, got %d rows %d active", len(history), activeCount)
	}
}

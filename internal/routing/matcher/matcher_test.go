package matcher

import (
	"testing"
	"time"

	candrepo "schadenportal_backend/internal/candidates/repository"
	routingrepo "schadenportal_backend/internal/routing/repository"

	"github.com/google/uuid"
)

func rule(prefix string, priority int, mode string, targets ...uuid.UUID) routingrepo.Rule {
	r := routingrepo.Rule{
		ID:           uuid.New(),
		Category:     "sanitaer",
		RegionPrefix: prefix,
		Priority:     priority,
		Mode:         mode,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	for i, t := range targets {
		r.Targets = append(r.Targets, routingrepo.Target{CandidateID: t, Position: i})
	}
	return r
}

func allAvailable(ids ...uuid.UUID) map[uuid.UUID]string {
	m := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		m[id] = candrepo.AvailabilityAvailable
	}
	return m
}

func TestLongestPrefixWins(t *testing.T) {
	narrow := uuid.New()
	broad := uuid.New()

	// The broad rule has the better priority; the narrower prefix must
	// still win for region 10115.
	rules := []routingrepo.Rule{
		rule("10", 1, routingrepo.ModeBroadcast, broad),
		rule("101", 50, routingrepo.ModeBroadcast, narrow),
	}

	res := Match(Input{
		RegionCode:   "10115",
		Rules:        rules,
		Availability: allAvailable(narrow, broad),
	})

	if !res.Matched {
		t.Fatal("expected a match")
	}
	if len(res.Candidates) != 1 || res.Candidates[0] != narrow {
		t.Fatalf("expected candidate from the 101 rule, got %v", res.Candidates)
	}
}

func TestEqualPrefixLengthFallsBackToIncomingOrder(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	// Rules arrive sorted by priority then creation time; at equal prefix
	// length the first one keeps its slot.
	rules := []routingrepo.Rule{
		rule("101", 10, routingrepo.ModeBroadcast, first),
		rule("101", 20, routingrepo.ModeBroadcast, second),
	}

	res := Match(Input{
		RegionCode:   "10115",
		Rules:        rules,
		Availability: allAvailable(first, second),
	})

	if !res.Matched || len(res.Candidates) != 1 || res.Candidates[0] != first {
		t.Fatalf("expected the higher-priority rule to win, got %+v", res)
	}
}

func TestNoRuleMatchesRegion(t *testing.T) {
	res := Match(Input{
		RegionCode: "80331",
		Rules:      []routingrepo.Rule{rule("10", 1, routingrepo.ModeBroadcast, uuid.New())},
	})
	if res.Matched {
		t.Fatalf("expected no match, got %+v", res)
	}
}

func TestUnavailableAndExcludedAreFiltered(t *testing.T) {
	available := uuid.New()
	unavailable := uuid.New()
	limited := uuid.New()
	declined := uuid.New()

	r := rule("10", 1, routingrepo.ModeBroadcast, unavailable, declined, limited, available)

	res := Match(Input{
		RegionCode: "10115",
		Rules:      []routingrepo.Rule{r},
		Availability: map[uuid.UUID]string{
			available:   candrepo.AvailabilityAvailable,
			unavailable: candrepo.AvailabilityUnavailable,
			limited:     candrepo.AvailabilityLimited,
			declined:    candrepo.AvailabilityAvailable,
		},
		Excluded: map[uuid.UUID]struct{}{declined: {}},
	})

	if !res.Matched {
		t.Fatal("expected a match")
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %v", res.Candidates)
	}
	if res.Candidates[0] != limited || res.Candidates[1] != available {
		t.Fatalf("expected target order preserved, got %v", res.Candidates)
	}
}

func TestMissingAvailabilityMeansUnavailable(t *testing.T) {
	unknown := uuid.New()

	res := Match(Input{
		RegionCode:   "10115",
		Rules:        []routingrepo.Rule{rule("10", 1, routingrepo.ModeBroadcast, unknown)},
		Availability: map[uuid.UUID]string{},
	})
	if res.Matched {
		t.Fatalf("expected no match for unknown candidate, got %+v", res)
	}
}

func TestSequentialReturnsOnlyNextUntried(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	third := uuid.New()

	r := rule("10", 1, routingrepo.ModeSequential, first, second, third)
	avail := allAvailable(first, second, third)

	res := Match(Input{RegionCode: "10115", Rules: []routingrepo.Rule{r}, Availability: avail})
	if len(res.Candidates) != 1 || res.Candidates[0] != first {
		t.Fatalf("expected first target, got %v", res.Candidates)
	}

	// After the first declines, the next in order is selected.
	res = Match(Input{
		RegionCode:   "10115",
		Rules:        []routingrepo.Rule{r},
		Availability: avail,
		Excluded:     map[uuid.UUID]struct{}{first: {}},
	})
	if len(res.Candidates) != 1 || res.Candidates[0] != second {
		t.Fatalf("expected second target, got %v", res.Candidates)
	}

	// All tried: terminal no-match.
	res = Match(Input{
		RegionCode:   "10115",
		Rules:        []routingrepo.Rule{r},
		Availability: avail,
		Excluded:     map[uuid.UUID]struct{}{first: {}, second: {}, third: {}},
	})
	if res.Matched {
		t.Fatalf("expected no match once all targets tried, got %+v", res)
	}
}

func TestBroadcastCapacityCapsCandidates(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	capacity := 2
	r := rule("10", 1, routingrepo.ModeBroadcast, a, b, c)
	r.Capacity = &capacity

	res := Match(Input{
		RegionCode:   "10115",
		Rules:        []routingrepo.Rule{r},
		Availability: allAvailable(a, b, c),
	})
	if len(res.Candidates) != 2 {
		t.Fatalf("expected capacity cap of 2, got %v", res.Candidates)
	}
}

func TestTargetTieBreakIsLexical(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	r := rule("10", 1, routingrepo.ModeBroadcast)
	r.Targets = []routingrepo.Target{
		{CandidateID: b, Position: 0},
		{CandidateID: a, Position: 0},
	}

	res := Match(Input{
		RegionCode:   "10115",
		Rules:        []routingrepo.Rule{r},
		Availability: allAvailable(a, b),
	})
	if len(res.Candidates) != 2 || res.Candidates[0] != a {
		t.Fatalf("expected lexical tie-break on equal position, got %v", res.Candidates)
	}
}

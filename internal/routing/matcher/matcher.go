// Package matcher implements the eligibility selection algorithm as a
// pure function over rule and availability snapshots. It performs no I/O;
// the dispatcher loads the inputs and acts on the result.
package matcher

import (
	"sort"
	"strings"

	"schadenportal_backend/internal/candidates/repository"
	routingrepo "schadenportal_backend/internal/routing/repository"

	"github.com/google/uuid"
)

// Input is a snapshot of everything the selection needs.
type Input struct {
	RegionCode string
	// Rules are the active rules for the order's category, ordered by
	// priority then creation time (the repository guarantees this order).
	Rules []routingrepo.Rule
	// Availability holds the gate status per target candidate. Missing
	// entries are treated as UNAVAILABLE.
	Availability map[uuid.UUID]string
	// Excluded candidates are skipped: already declined, expired or
	// otherwise tried for this order.
	Excluded map[uuid.UUID]struct{}
}

// Result is the selection outcome. Matched is false when no rule covers
// the region or every candidate is filtered out; that is a valid terminal
// state, not an error.
type Result struct {
	Matched    bool
	RuleID     uuid.UUID
	Mode       string
	Candidates []uuid.UUID
}

// Match picks the best rule for the region and expands it to the ordered,
// filtered candidate list. Rule selection: longest region prefix wins;
// among equal prefix lengths the rules' incoming order (priority, then
// creation time) decides. Candidate order within a rule: target position,
// then candidate ID lexically.
func Match(in Input) Result {
	rule, ok := bestRule(in.Rules, in.RegionCode)
	if !ok {
		return Result{}
	}

	candidates := eligibleCandidates(rule, in.Availability, in.Excluded)
	if len(candidates) == 0 {
		return Result{}
	}

	switch rule.Mode {
	case routingrepo.ModeSequential:
		// Only the next untried candidate receives an offer.
		candidates = candidates[:1]
	default:
		if rule.Capacity != nil && len(candidates) > *rule.Capacity {
			candidates = candidates[:*rule.Capacity]
		}
	}

	return Result{Matched: true, RuleID: rule.ID, Mode: rule.Mode, Candidates: candidates}
}

func bestRule(rules []routingrepo.Rule, regionCode string) (routingrepo.Rule, bool) {
	best := -1
	bestLen := -1
	for i, rule := range rules {
		if !strings.HasPrefix(regionCode, rule.RegionPrefix) {
			continue
		}
		// Strictly longer prefix beats everything; at equal length the
		// earlier rule keeps its slot (rules arrive sorted by priority
		// and creation time).
		if len(rule.RegionPrefix) > bestLen {
			best = i
			bestLen = len(rule.RegionPrefix)
		}
	}
	if best < 0 {
		return routingrepo.Rule{}, false
	}
	return rules[best], true
}

func eligibleCandidates(rule routingrepo.Rule, availability map[uuid.UUID]string, excluded map[uuid.UUID]struct{}) []uuid.UUID {
	targets := make([]routingrepo.Target, len(rule.Targets))
	copy(targets, rule.Targets)
	sort.SliceStable(targets, func(i, j int) bool {
		if targets[i].Position != targets[j].Position {
			return targets[i].Position < targets[j].Position
		}
		return targets[i].CandidateID.String() < targets[j].CandidateID.String()
	})

	out := make([]uuid.UUID, 0, len(targets))
	for _, t := range targets {
		if _, skip := excluded[t.CandidateID]; skip {
			continue
		}
		if availability[t.CandidateID] == repository.AvailabilityUnavailable || availability[t.CandidateID] == "" {
			continue
		}
		out = append(out, t.CandidateID)
	}
	return out
}

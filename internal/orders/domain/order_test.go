package domain

import "testing"

func TestCanTransition_TerminalStatesHaveNoExits(t *testing.T) {
	all := []Status{StatusNew, StatusInProgress, StatusOfferMade, StatusDone, StatusCancelled}
	for _, to := range all {
		if CanTransition(StatusDone, to) {
			t.Fatalf("DONE must not transition to %s", to)
		}
		if CanTransition(StatusCancelled, to) {
			t.Fatalf("CANCELLED must not transition to %s", to)
		}
	}
}

func TestCanTransition_OpenStates(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusNew, StatusOfferMade, true},
		{StatusNew, StatusInProgress, true},
		{StatusNew, StatusDone, false},
		{StatusInProgress, StatusDone, true},
		{StatusOfferMade, StatusDone, true},
		{StatusOfferMade, StatusCancelled, true},
		{StatusNew, StatusCancelled, true},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestStatusIsOpen(t *testing.T) {
	if !StatusNew.IsOpen() || !StatusInProgress.IsOpen() || !StatusOfferMade.IsOpen() {
		t.Fatal("NEW, IN_PROGRESS and OFFER_MADE must be open")
	}
	if StatusDone.IsOpen() || StatusCancelled.IsOpen() {
		t.Fatal("DONE and CANCELLED must be closed")
	}
}

func TestParseCategory(t *testing.T) {
	if _, ok := ParseCategory("sanitaer"); !ok {
		t.Fatal("sanitaer must be a valid category")
	}
	if _, ok := ParseCategory("plumbing"); ok {
		t.Fatal("unknown categories must be rejected")
	}
}

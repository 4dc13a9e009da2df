// Package domain holds the offer lifecycle rules: the status set and the
// lazy expiry function every reader applies before trusting a stored status.
package domain

import "time"

// Offer statuses. sent is the only open state; everything else is final.
const (
	StatusSent       = "sent"
	StatusAccepted   = "accepted"
	StatusDeclined   = "declined"
	StatusExpired    = "expired"
	StatusSuperseded = "superseded"
	StatusCancelled  = "cancelled"
)

// Effective returns the status a reader must act on. A sent offer past
// its deadline reads as expired even before the background sweep has
// persisted that transition.
func Effective(status string, deadline, now time.Time) string {
	if status == StatusSent && now.After(deadline) {
		return StatusExpired
	}
	return status
}

// IsRespondable reports whether an offer can still take an accept or
// decline at the given instant.
func IsRespondable(status string, deadline, now time.Time) bool {
	return Effective(status, deadline, now) == StatusSent
}

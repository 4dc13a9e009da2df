// Package domain holds the order lifecycle rules shared by the intake
// surface, the offer ledger, and the assignment coordinator.
package domain

// Status is an order's lifecycle state.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusOfferMade  Status = "OFFER_MADE"
	StatusDone       Status = "DONE"
	StatusCancelled  Status = "CANCELLED"
)

// transitions is the closed transition table. Cancellation is reachable
// from every open state; terminal states have no outgoing edges.
var transitions = map[Status][]Status{
	StatusNew:        {StatusInProgress, StatusOfferMade, StatusCancelled},
	StatusInProgress: {StatusOfferMade, StatusDone, StatusCancelled},
	StatusOfferMade:  {StatusInProgress, StatusDone, StatusCancelled},
	StatusDone:       {},
	StatusCancelled:  {},
}

// CanTransition reports whether from → to is a legal lifecycle move.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsOpen reports whether the order can still receive offers or an assignment.
func (s Status) IsOpen() bool {
	return s != StatusDone && s != StatusCancelled
}

// Category is the closed enumeration of trades a claim can belong to.
type Category string

const (
	CategorySanitaer  Category = "sanitaer"
	CategoryHeizung   Category = "heizung"
	CategoryElektro   Category = "elektro"
	CategoryDach      Category = "dach"
	CategoryMaler     Category = "maler"
	CategoryFenster   Category = "fenster"
	CategoryBoden     Category = "boden"
	CategorySonstiges Category = "sonstiges"
)

// Categories lists every valid trade.
var Categories = []Category{
	CategorySanitaer, CategoryHeizung, CategoryElektro, CategoryDach,
	CategoryMaler, CategoryFenster, CategoryBoden, CategorySonstiges,
}

// ParseCategory validates a raw category value.
func ParseCategory(raw string) (Category, bool) {
	for _, c := range Categories {
		if Category(raw) == c {
			return c, true
		}
	}
	return "", false
}

package models

import "time"

// Expense is an amount one participant (the payee) fronted for a set of
// participants. The split records how much of it each participant owes.
//
// Invariant: the sum of Split amounts equals AmountMinor.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// EventID is the event this expense belongs to.
	EventID string

	// Title is a short description (e.g., "Groceries").
	Title string

	// AmountMinor is the expense amount in minor units of Currency.
	AmountMinor int64

	// Currency is the ISO-4217 code the expense was paid in.
	Currency string

	// Date is the day the expense was paid. Conversion rates are
	// looked up for this day.
	Date time.Time

	// Payee is the participant who paid.
	Payee Participant

	// Split is the ordered per-participant breakdown, payee included.
	Split []Share

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Share is one participant's portion of an expense.
type Share struct {
	Participant Participant
	AmountMinor int64
}

// SplitTotal sums the split amounts.
func (e *Expense) SplitTotal() int64 {
	var total int64
	for _, s := range e.Split {
		total += s.AmountMinor
	}
	return total
}

// PaidBy reports whether p fronted the expense.
func (e *Expense) PaidBy(p Participant) bool {
	return e.Payee.Is(p)
}

// Involves reports whether p has a share of the expense.
func (e *Expense) Involves(p Participant) bool {
	for _, s := range e.Split {
		if s.Participant.Is(p) {
			return true
		}
	}
	return false
}

package models

// Event is a shared ledger that a group of participants logs expenses into.
type Event struct {
	// ID is the unique identifier for the event (UUID format).
	ID string

	// Name is the display name of the event (e.g., "Ski trip").
	Name string

	// InviteCode lets a client join the event and obtain an access token.
	InviteCode string

	// BaseCurrency is the ISO-4217 code balances are normalized to
	// when a request does not name one.
	BaseCurrency string

	// Participants is the list of people taking part in the event.
	Participants []Participant

	// CreatedAt is the Unix timestamp when the event was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last expense change.
	UpdatedAt int64
}

// Participant is a member of an event. Two participants are the same
// person when their IDs match; the other fields are descriptive.
type Participant struct {
	// ID is the unique identifier for the participant (UUID format).
	ID string

	// EventID is the event this participant belongs to.
	EventID string

	// Name is the display name.
	Name string

	// Email is optional contact information.
	Email string

	// IBAN and BIC are optional bank details shown to debtors
	// who need to pay this participant.
	IBAN string
	BIC  string
}

// Is reports whether p and other identify the same participant.
func (p Participant) Is(other Participant) bool {
	return p.ID == other.ID
}

// CanReceiveTransfer reports whether bank details are on file.
func (p Participant) CanReceiveTransfer() bool {
	return p.IBAN != "" && p.BIC != ""
}

// Participant returns the participant with the given ID, if present.
func (e *Event) Participant(id string) (Participant, bool) {
	for _, p := range e.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

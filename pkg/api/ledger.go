package api

// Participant identifies an event member.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Share is one participant's portion of an expense.
type Share struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	AmountMinor   int64  `json:"amount_minor"`
}

// AllocateSplitRequest asks for an exact split of total_minor. An empty
// participant_ids splits among everyone in the event.
type AllocateSplitRequest struct {
	EventID        string   `json:"event_id"`
	TotalMinor     int64    `json:"total_minor"`
	PayeeID        string   `json:"payee_id"`
	ParticipantIDs []string `json:"participant_ids,omitempty"`
}

type AllocateSplitResponse struct {
	Shares []*Share `json:"shares"`
}

// CreateExpenseRequest records an expense. The split is allocated by the
// server. Date is YYYY-MM-DD and defaults to today (UTC).
type CreateExpenseRequest struct {
	EventID        string   `json:"event_id"`
	Title          string   `json:"title"`
	AmountMinor    int64    `json:"amount_minor"`
	Currency       string   `json:"currency"`
	Date           string   `json:"date,omitempty"`
	PayeeID        string   `json:"payee_id"`
	ParticipantIDs []string `json:"participant_ids,omitempty"`
}

type Expense struct {
	ID          string   `json:"id"`
	EventID     string   `json:"event_id"`
	Title       string   `json:"title"`
	AmountMinor int64    `json:"amount_minor"`
	Currency    string   `json:"currency"`
	Date        string   `json:"date"`
	PayeeID     string   `json:"payee_id"`
	PayeeName   string   `json:"payee_name"`
	Shares      []*Share `json:"shares"`
	CreatedAt   int64    `json:"created_at"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

// ListExpensesRequest lists an event's expenses. payee_id keeps only
// expenses that participant paid, participant_id only those they have a
// share of; both may be combined.
type ListExpensesRequest struct {
	EventID       string `json:"event_id"`
	PayeeID       string `json:"payee_id,omitempty"`
	ParticipantID string `json:"participant_id,omitempty"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

// UpdateExpenseRequest edits an expense. Empty or zero fields keep their
// current value. The split is re-allocated when amount_minor or
// participant_ids change; a new payee must already have a share
// otherwise.
type UpdateExpenseRequest struct {
	EventID        string   `json:"event_id"`
	ExpenseID      string   `json:"expense_id"`
	Title          string   `json:"title,omitempty"`
	AmountMinor    int64    `json:"amount_minor,omitempty"`
	Currency       string   `json:"currency,omitempty"`
	Date           string   `json:"date,omitempty"`
	PayeeID        string   `json:"payee_id,omitempty"`
	ParticipantIDs []string `json:"participant_ids,omitempty"`
}

type UpdateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	EventID   string `json:"event_id"`
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

// GetBalancesRequest computes balances in base_currency, or in the event's
// base currency when empty.
type GetBalancesRequest struct {
	EventID      string `json:"event_id"`
	BaseCurrency string `json:"base_currency,omitempty"`
}

// Balance is positive when the participant is owed money. OwesMinor is
// the participant's share of what others paid, OwedMinor the others'
// share of what the participant paid.
type Balance struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	AmountMinor   int64  `json:"amount_minor"`
	Amount        string `json:"amount"`
	OwesMinor     int64  `json:"owes_minor"`
	OwedMinor     int64  `json:"owed_minor"`
}

type GetBalancesResponse struct {
	BaseCurrency string     `json:"base_currency"`
	Balances     []*Balance `json:"balances"`
}

type GetSettlementRequest struct {
	EventID      string `json:"event_id"`
	BaseCurrency string `json:"base_currency,omitempty"`
}

// Debt is one payment of the settlement. Creditor bank details are
// included when the creditor has both IBAN and BIC on file.
type Debt struct {
	DebtorID     string `json:"debtor_id"`
	DebtorName   string `json:"debtor_name"`
	CreditorID   string `json:"creditor_id"`
	CreditorName string `json:"creditor_name"`
	AmountMinor  int64  `json:"amount_minor"`
	Amount       string `json:"amount"`
	CreditorIBAN string `json:"creditor_iban,omitempty"`
	CreditorBIC  string `json:"creditor_bic,omitempty"`
}

type GetSettlementResponse struct {
	BaseCurrency string  `json:"base_currency"`
	Debts        []*Debt `json:"debts"`
}

type GetEventTotalRequest struct {
	EventID      string `json:"event_id"`
	BaseCurrency string `json:"base_currency,omitempty"`
}

type GetEventTotalResponse struct {
	BaseCurrency string `json:"base_currency"`
	TotalMinor   int64  `json:"total_minor"`
	Total        string `json:"total"`
	ExpenseCount int    `json:"expense_count"`
}

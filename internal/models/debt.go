package models

// Debt is one settlement payment: DebtorID should pay AmountMinor
// (hundredths of the base currency) to CreditorID.
type Debt struct {
	DebtorID    string
	CreditorID  string
	AmountMinor int64
}

package calculator

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/currency"
	"github.com/mmynk/splitledger/internal/models"
)

var half = decimal.New(5, -1)

// Position is a participant's standing in hundredths of the base
// currency. Owes is the sum of their shares of expenses others paid,
// Owed the sum of other people's shares of expenses they paid, and Net
// is Owed minus Owes rounded once.
type Position struct {
	Owes int64
	Owed int64
	Net  int64
}

// ComputeBalance returns participantID's net position across expenses in
// hundredths of base. Positive means the participant is owed money.
//
// Algorithm, per share (p, a) of each expense e:
//   - p is the participant and did not pay: subtract a
//   - the participant paid and p is someone else: add a
//   - the participant paid their own share: nothing
//
// Amounts are converted to base on each expense's date and accumulated
// exactly; the total is rounded once, half-up.
func ComputeBalance(ctx context.Context, conv currency.Converter, participantID string, expenses []models.Expense, base string) (int64, error) {
	pos, err := ComputePosition(ctx, conv, participantID, expenses, base)
	if err != nil {
		return 0, err
	}
	return pos.Net, nil
}

// ComputePosition is ComputeBalance with the gross owes and owed sums
// kept alongside the net.
func ComputePosition(ctx context.Context, conv currency.Converter, participantID string, expenses []models.Expense, base string) (Position, error) {
	owes, owed := decimal.Zero, decimal.Zero

	for _, e := range expenses {
		paid := e.Payee.ID == participantID
		for _, share := range e.Split {
			isShare := share.Participant.ID == participantID
			if isShare == paid {
				continue
			}

			amount, err := conv.Convert(ctx, e.Date, e.Currency, base, currency.ToMajor(e.Currency, share.AmountMinor))
			if err != nil {
				return Position{}, fmt.Errorf("failed to convert expense %s for %s: %w", e.ID, participantID, err)
			}

			if isShare {
				owes = owes.Add(amount)
			} else {
				owed = owed.Add(amount)
			}
		}
	}

	return Position{
		Owes: roundHundredths(owes),
		Owed: roundHundredths(owed),
		Net:  roundHundredths(owed.Sub(owes)),
	}, nil
}

// ComputeBalances runs ComputeBalance for every participant, keyed by ID.
// The first conversion failure aborts the whole set.
func ComputeBalances(ctx context.Context, conv currency.Converter, participants []models.Participant, expenses []models.Expense, base string) (map[string]int64, error) {
	positions, err := ComputePositions(ctx, conv, participants, expenses, base)
	if err != nil {
		return nil, err
	}
	balances := make(map[string]int64, len(positions))
	for id, pos := range positions {
		balances[id] = pos.Net
	}
	return balances, nil
}

// ComputePositions runs ComputePosition for every participant, keyed by ID.
func ComputePositions(ctx context.Context, conv currency.Converter, participants []models.Participant, expenses []models.Expense, base string) (map[string]Position, error) {
	positions := make(map[string]Position, len(participants))
	for _, p := range participants {
		pos, err := ComputePosition(ctx, conv, p.ID, expenses, base)
		if err != nil {
			return nil, err
		}
		positions[p.ID] = pos
	}
	return positions, nil
}

// roundHundredths rounds to two decimals with ties toward +inf
// (2.345 -> 2.35, -2.345 -> -2.34) and returns the result in hundredths.
func roundHundredths(d decimal.Decimal) int64 {
	return d.Shift(2).Add(half).Floor().IntPart()
}

// ComputeTotal is the sum of all expense amounts converted to base, in
// hundredths, rounded once like ComputeBalance.
func ComputeTotal(ctx context.Context, conv currency.Converter, expenses []models.Expense, base string) (int64, error) {
	total := decimal.Zero
	for _, e := range expenses {
		amount, err := conv.Convert(ctx, e.Date, e.Currency, base, currency.ToMajor(e.Currency, e.AmountMinor))
		if err != nil {
			return 0, fmt.Errorf("failed to convert expense %s: %w", e.ID, err)
		}
		total = total.Add(amount)
	}
	return roundHundredths(total), nil
}

package calculator

import (
	"container/heap"

	"github.com/mmynk/splitledger/internal/models"
)

// position is an outstanding magnitude owed to or by a participant.
type position struct {
	participantID string
	amount        int64
}

// positionHeap is a max-heap by amount; equal amounts pop in ascending
// participant ID order so results do not depend on map iteration.
type positionHeap []position

func (h positionHeap) Len() int { return len(h) }
func (h positionHeap) Less(i, j int) bool {
	if h[i].amount != h[j].amount {
		return h[i].amount > h[j].amount
	}
	return h[i].participantID < h[j].participantID
}
func (h positionHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *positionHeap) Push(x any)   { *h = append(*h, x.(position)) }
func (h *positionHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Settle reduces balances (hundredths, positive = owed) to a list of
// payments using greedy largest-pair matching: repeatedly pay the largest
// debt towards the largest credit, putting back whichever side is not yet
// settled. It produces at most len(balances)-1 debts. This is a heuristic,
// not a minimum-transaction solution.
//
// Any residual left once one side is exhausted is rounding slack and is
// not reported.
func Settle(balances map[string]int64) []models.Debt {
	creditors := &positionHeap{}
	debtors := &positionHeap{}
	for id, amount := range balances {
		switch {
		case amount > 0:
			*creditors = append(*creditors, position{participantID: id, amount: amount})
		case amount < 0:
			*debtors = append(*debtors, position{participantID: id, amount: -amount})
		}
	}
	heap.Init(creditors)
	heap.Init(debtors)

	debts := make([]models.Debt, 0, max(len(balances)-1, 0))
	for creditors.Len() > 0 && debtors.Len() > 0 {
		creditor := heap.Pop(creditors).(position)
		debtor := heap.Pop(debtors).(position)

		amount := min(creditor.amount, debtor.amount)
		if creditor.participantID != debtor.participantID {
			debts = append(debts, models.Debt{
				DebtorID:    debtor.participantID,
				CreditorID:  creditor.participantID,
				AmountMinor: amount,
			})
		}

		creditor.amount -= amount
		debtor.amount -= amount
		if creditor.amount > 0 {
			heap.Push(creditors, creditor)
		}
		if debtor.amount > 0 {
			heap.Push(debtors, debtor)
		}
	}

	return debts
}

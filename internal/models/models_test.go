package models

import "testing"

func TestExpenseParticipation(t *testing.T) {
	alice := Participant{ID: "alice", Name: "Alice"}
	bob := Participant{ID: "bob", Name: "Bob"}
	charlie := Participant{ID: "charlie", Name: "Charlie"}

	e := &Expense{
		Payee: alice,
		Split: []Share{{Participant: alice, AmountMinor: 500}, {Participant: bob, AmountMinor: 500}},
	}

	tests := []struct {
		name         string
		p            Participant
		wantPaid     bool
		wantInvolved bool
	}{
		{name: "payee", p: alice, wantPaid: true, wantInvolved: true},
		{name: "payee renamed", p: Participant{ID: "alice", Name: "Ally"}, wantPaid: true, wantInvolved: true},
		{name: "sharer", p: bob, wantInvolved: true},
		{name: "outsider", p: charlie},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.PaidBy(tt.p); got != tt.wantPaid {
				t.Errorf("PaidBy = %v, want %v", got, tt.wantPaid)
			}
			if got := e.Involves(tt.p); got != tt.wantInvolved {
				t.Errorf("Involves = %v, want %v", got, tt.wantInvolved)
			}
		})
	}

	if e.SplitTotal() != 1000 {
		t.Errorf("SplitTotal = %d, want 1000", e.SplitTotal())
	}
}

package calculator

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/currency"
	"github.com/mmynk/splitledger/internal/models"
)

var (
	march = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rates = currency.NewRateConverter(currency.StaticSource{
		"USD/EUR": decimal.RequireFromString("0.5"),
		"EUR/CHF": decimal.RequireFromString("0.955"),
	})
)

func expense(id string, amount int64, code string, payee models.Participant, split ...models.Share) models.Expense {
	return models.Expense{
		ID:          id,
		AmountMinor: amount,
		Currency:    code,
		Date:        march,
		Payee:       payee,
		Split:       split,
	}
}

func share(p models.Participant, amount int64) models.Share {
	return models.Share{Participant: p, AmountMinor: amount}
}

func sumBalances(balances map[string]int64) int64 {
	var total int64
	for _, b := range balances {
		total += b
	}
	return total
}

func TestComputeBalances(t *testing.T) {
	everyone := []models.Participant{alice, bob, charlie}

	tests := []struct {
		name     string
		expenses []models.Expense
		base     string
		want     map[string]int64
	}{
		{
			name: "payee nets out own share",
			expenses: []models.Expense{
				expense("e1", 1000, "EUR", alice, share(alice, 334), share(bob, 333), share(charlie, 333)),
			},
			base: "EUR",
			want: map[string]int64{"alice": 666, "bob": -333, "charlie": -333},
		},
		{
			name:     "no expenses",
			expenses: nil,
			base:     "EUR",
			want:     map[string]int64{"alice": 0, "bob": 0, "charlie": 0},
		},
		{
			name: "expenses offset each other",
			expenses: []models.Expense{
				expense("e1", 2000, "EUR", alice, share(alice, 1000), share(bob, 1000)),
				expense("e2", 2000, "EUR", bob, share(alice, 1000), share(bob, 1000)),
			},
			base: "EUR",
			want: map[string]int64{"alice": 0, "bob": 0, "charlie": 0},
		},
		{
			name: "payee not among the split",
			expenses: []models.Expense{
				expense("e1", 600, "EUR", charlie, share(alice, 300), share(bob, 300)),
			},
			base: "EUR",
			want: map[string]int64{"alice": -300, "bob": -300, "charlie": 600},
		},
		{
			name: "converted into base currency",
			expenses: []models.Expense{
				expense("e1", 1000, "USD", bob, share(alice, 500), share(bob, 500)),
				expense("e2", 900, "EUR", alice, share(bob, 300), share(charlie, 300), share(alice, 300)),
			},
			base: "EUR",
			want: map[string]int64{"alice": 350, "bob": -50, "charlie": -300},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeBalances(context.Background(), rates, everyone, tt.expenses, tt.base)
			if err != nil {
				t.Fatalf("ComputeBalances() error = %v", err)
			}
			for id, want := range tt.want {
				if got[id] != want {
					t.Errorf("balance[%s] = %d, want %d", id, got[id], want)
				}
			}
			if sum := sumBalances(got); sum < -1 || sum > 1 {
				t.Errorf("balances sum to %d, want 0 within 1", sum)
			}
		})
	}
}

func TestComputeBalance_RoundsOnceHalfUp(t *testing.T) {
	// Each share is 0.0955 CHF; three of them are 0.2865, which rounds to
	// 0.29. Rounding per share would give 3 x 0.10 = 0.30.
	expenses := []models.Expense{
		expense("e1", 10, "EUR", alice, share(bob, 10)),
		expense("e2", 10, "EUR", alice, share(bob, 10)),
		expense("e3", 10, "EUR", alice, share(bob, 10)),
	}

	got, err := ComputeBalance(context.Background(), rates, "alice", expenses, "CHF")
	if err != nil {
		t.Fatalf("ComputeBalance() error = %v", err)
	}
	if got != 29 {
		t.Errorf("alice = %d, want 29", got)
	}

	got, err = ComputeBalance(context.Background(), rates, "bob", expenses, "CHF")
	if err != nil {
		t.Fatalf("ComputeBalance() error = %v", err)
	}
	if got != -29 {
		t.Errorf("bob = %d, want -29", got)
	}
}

func TestRoundHundredths(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"6.66", 666},
		{"2.345", 235},
		{"-2.345", -234},
		{"-2.3451", -235},
		{"0.004", 0},
		{"-0.005", 0},
		{"0.005", 1},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := roundHundredths(decimal.RequireFromString(tt.in)); got != tt.want {
				t.Errorf("roundHundredths(%s) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestComputeBalances_ConversionUnavailable(t *testing.T) {
	expenses := []models.Expense{
		expense("e1", 1000, "JPY", alice, share(alice, 500), share(bob, 500)),
	}

	_, err := ComputeBalances(context.Background(), rates, []models.Participant{alice, bob}, expenses, "EUR")
	if !errors.Is(err, currency.ErrConversionUnavailable) {
		t.Fatalf("error = %v, want ErrConversionUnavailable", err)
	}
}

func TestComputeBalances_SelfPaymentSkipsConverter(t *testing.T) {
	// Only alice is involved, so no share needs converting for anyone.
	expenses := []models.Expense{
		expense("e1", 1000, "JPY", alice, share(alice, 1000)),
	}

	got, err := ComputeBalances(context.Background(), rates, []models.Participant{alice, bob}, expenses, "EUR")
	if err != nil {
		t.Fatalf("ComputeBalances() error = %v", err)
	}
	if got["alice"] != 0 || got["bob"] != 0 {
		t.Errorf("balances = %v, want all zero", got)
	}
}

func TestComputeBalances_ConservationAndIdempotence(t *testing.T) {
	rnd := rand.New(rand.NewPCG(3, 5))
	everyone := []models.Participant{alice, bob, charlie, diana}

	var expenses []models.Expense
	for i := 0; i < 50; i++ {
		payee := everyone[rnd.IntN(len(everyone))]
		split := everyone[:1+rnd.IntN(len(everyone))]
		if !containsParticipant(split, payee) {
			split = append([]models.Participant{payee}, split...)
		}
		total := rnd.Int64N(100000)
		shares, err := Allocate(total, payee, split, rnd)
		if err != nil {
			t.Fatalf("Allocate() error = %v", err)
		}
		code := "EUR"
		if i%3 == 0 {
			code = "USD"
		}
		expenses = append(expenses, expense("e", total, code, payee, shares...))
	}

	first, err := ComputeBalances(context.Background(), rates, everyone, expenses, "EUR")
	if err != nil {
		t.Fatalf("ComputeBalances() error = %v", err)
	}
	second, err := ComputeBalances(context.Background(), rates, everyone, expenses, "EUR")
	if err != nil {
		t.Fatalf("ComputeBalances() error = %v", err)
	}

	// USD shares halve into half-cents; each participant's total can round
	// by at most half a cent.
	if sum := sumBalances(first); sum < -2 || sum > 2 {
		t.Errorf("balances sum to %d, want near 0", sum)
	}
	for id := range first {
		if first[id] != second[id] {
			t.Errorf("balance[%s] changed between calls: %d vs %d", id, first[id], second[id])
		}
	}
}

func containsParticipant(list []models.Participant, p models.Participant) bool {
	for _, q := range list {
		if q.Is(p) {
			return true
		}
	}
	return false
}

func TestComputeTotal(t *testing.T) {
	expenses := []models.Expense{
		expense("e1", 1000, "EUR", alice, share(alice, 500), share(bob, 500)),
		expense("e2", 1001, "USD", bob, share(alice, 501), share(bob, 500)),
	}

	got, err := ComputeTotal(context.Background(), rates, expenses, "EUR")
	if err != nil {
		t.Fatalf("ComputeTotal failed: %v", err)
	}
	// 10.00 + 10.01 * 0.5 = 15.005, rounded half-up to 15.01
	if got != 1501 {
		t.Errorf("total = %d, want 1501", got)
	}

	got, err = ComputeTotal(context.Background(), rates, nil, "EUR")
	if err != nil || got != 0 {
		t.Errorf("empty total = %d, %v; want 0, nil", got, err)
	}

	expenses = append(expenses, expense("e3", 500, "JPY", alice, share(alice, 500)))
	if _, err := ComputeTotal(context.Background(), rates, expenses, "EUR"); !errors.Is(err, currency.ErrConversionUnavailable) {
		t.Errorf("expected ErrConversionUnavailable, got %v", err)
	}
}

func TestComputePositions(t *testing.T) {
	everyone := []models.Participant{alice, bob, charlie}
	expenses := []models.Expense{
		expense("e1", 3000, "EUR", alice, share(alice, 1000), share(bob, 1000), share(charlie, 1000)),
		expense("e2", 1001, "USD", bob, share(alice, 501), share(bob, 500)),
	}

	got, err := ComputePositions(context.Background(), rates, everyone, expenses, "EUR")
	if err != nil {
		t.Fatalf("ComputePositions failed: %v", err)
	}

	want := map[string]Position{
		// owes 2.505, rounded to 2.51; net 17.495, rounded to 17.50
		"alice":   {Owes: 251, Owed: 2000, Net: 1750},
		"bob":     {Owes: 1000, Owed: 251, Net: -749},
		"charlie": {Owes: 1000, Owed: 0, Net: -1000},
	}
	for id, w := range want {
		if got[id] != w {
			t.Errorf("%s: position = %+v, want %+v", id, got[id], w)
		}
	}

	balances, err := ComputeBalances(context.Background(), rates, everyone, expenses, "EUR")
	if err != nil {
		t.Fatalf("ComputeBalances failed: %v", err)
	}
	for id, pos := range got {
		if balances[id] != pos.Net {
			t.Errorf("%s: balance %d differs from net %d", id, balances[id], pos.Net)
		}
	}
}

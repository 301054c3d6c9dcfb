package calculator

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	ErrInvalidParticipantSet = errors.New("participants must be a non-empty set that includes the payee")
	ErrInvalidAmount         = errors.New("amount must not be negative")
)

// Allocate divides totalMinor among participants in whole minor units.
// Everyone gets totalMinor / n; the remainder goes one unit each to the
// first r participants of a shuffled ordering, so shares differ by at
// most one unit and always sum to totalMinor.
//
// The result keeps the order of participants and includes the payee.
// A nil rnd shuffles with the unseeded global source, so identical calls
// may hand the extra units to different people.
func Allocate(totalMinor int64, payee models.Participant, participants []models.Participant, rnd *rand.Rand) ([]models.Share, error) {
	if totalMinor < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAmount, totalMinor)
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: no participants", ErrInvalidParticipantSet)
	}

	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: duplicate participant %s", ErrInvalidParticipantSet, p.ID)
		}
		seen[p.ID] = true
	}
	if !seen[payee.ID] {
		return nil, fmt.Errorf("%w: payee %s missing", ErrInvalidParticipantSet, payee.ID)
	}

	n := int64(len(participants))
	base, remainder := totalMinor/n, totalMinor%n

	shares := make([]models.Share, len(participants))
	order := make([]int, len(participants))
	for i, p := range participants {
		shares[i] = models.Share{Participant: p, AmountMinor: base}
		order[i] = i
	}

	swap := func(i, j int) { order[i], order[j] = order[j], order[i] }
	if rnd == nil {
		rand.Shuffle(len(order), swap)
	} else {
		rnd.Shuffle(len(order), swap)
	}
	for _, i := range order[:remainder] {
		shares[i].AmountMinor++
	}

	return shares, nil
}

package brackets

import (
	"fmt"
	"math"
	"time"
)

type SingleEliminationGenerator struct{}

func (g *SingleEliminationGenerator) Format() Format { return SingleElimination }

func (g *SingleEliminationGenerator) Generate(entries []Entry) (*Bracket, error) {
	if len(entries) < 2 {
		return nil, ErrInsufficientParticipants
	}

	rounds := buildEliminationTree(entries, "", "", roundName)

	b := &Bracket{
		Format:      SingleElimination,
		GeneratedAt: time.Now().UTC(),
		Rounds:      rounds,
	}
	resolveByes(b)
	return b, nil
}

// seedPositions returns the standard bracket placement order for a
// field of the given size (a power of two): seed 1 meets seed size in
// round one, seed 2 meets seed size-1 in the opposite half, and so on.
// Returned values are 0-based seed indexes; consecutive pairs form the
// first-round matches. Because the padded field always has fewer byes
// than first-round pairings, this placement never puts two byes into
// the same pairing — the byes attach to the top seeds.
func seedPositions(size int) []int {
	positions := []int{0}
	for len(positions) < size {
		doubled := len(positions) * 2
		next := make([]int, 0, doubled)
		for _, s := range positions {
			next = append(next, s, doubled-1-s)
		}
		positions = next
	}
	return positions
}

// buildEliminationTree materializes every round of a knockout bracket
// up front. Later rounds hold TBD slots wired to their source matches.
// UIDs are "r<round>-m<order>" with an optional prefix so the winners
// side of a double-elimination bracket can share this code.
func buildEliminationTree(entries []Entry, uidPrefix string, branch Branch, nameOf func(round, total int) string) []*Round {
	n := len(entries)
	totalRounds := int(math.Ceil(math.Log2(float64(n))))
	size := 1 << uint(totalRounds)

	positions := seedPositions(size)

	rounds := make([]*Round, 0, totalRounds)

	// Round one: real entries in seed positions, byes everywhere else.
	first := &Round{Number: 1, Name: nameOf(1, totalRounds), Branch: branch}
	for i := 0; i < size; i += 2 {
		m := &Match{
			UID:          fmt.Sprintf("%sr1-m%d", uidPrefix, i/2+1),
			Branch:       branch,
			Round:        1,
			OrderInRound: i/2 + 1,
			Status:       StatusPending,
		}
		for s := 0; s < 2; s++ {
			seedIdx := positions[i+s]
			if seedIdx < n {
				id := entries[seedIdx].ParticipantID
				m.Slots[s] = Slot{ParticipantID: &id}
			} else {
				m.Slots[s] = Slot{Bye: true}
			}
		}
		if m.Slots[0].ParticipantID != nil && m.Slots[1].ParticipantID != nil {
			m.Status = StatusReady
		}
		first.Matches = append(first.Matches, m)
	}
	rounds = append(rounds, first)

	// Later rounds: placeholder matches fed by the previous round.
	prev := first.Matches
	for r := 2; r <= totalRounds; r++ {
		round := &Round{Number: r, Name: nameOf(r, totalRounds), Branch: branch}
		for i := 0; i < len(prev); i += 2 {
			m := &Match{
				UID:          fmt.Sprintf("%sr%d-m%d", uidPrefix, r, i/2+1),
				Branch:       branch,
				Round:        r,
				OrderInRound: i/2 + 1,
				Status:       StatusPending,
				Slots: [2]Slot{
					{SourceUID: prev[i].UID},
					{SourceUID: prev[i+1].UID},
				},
			}
			prev[i].WinnerTo = m.UID
			prev[i].WinnerSlot = 1
			prev[i+1].WinnerTo = m.UID
			prev[i+1].WinnerSlot = 2
			round.Matches = append(round.Matches, m)
		}
		rounds = append(rounds, round)
		prev = round.Matches
	}

	return rounds
}

package brackets

import (
	"fmt"
	"time"
)

type RoundRobinGenerator struct{}

func (g *RoundRobinGenerator) Format() Format { return RoundRobin }

// Generate schedules every participant against every other exactly
// once using the circle method: the first seat stays fixed, the rest of
// the field rotates one position per round, and seat i plays seat
// count-1-i. An odd field gets a phantom seat whose pairings are
// skipped, so each participant sits out one round. Total matches are
// always N*(N-1)/2, across N-1 rounds for even N and N rounds for odd
// N. Matches have no interdependencies and start out ready.
func (g *RoundRobinGenerator) Generate(entries []Entry) (*Bracket, error) {
	n := len(entries)
	if n < 2 {
		return nil, ErrInsufficientParticipants
	}

	seats := make([]int, n)
	for i := range seats {
		seats[i] = i
	}
	if n%2 != 0 {
		seats = append(seats, -1) // phantom seat, pairings skipped
	}
	count := len(seats)
	totalRounds := count - 1

	rounds := make([]*Round, 0, totalRounds)
	for r := 1; r <= totalRounds; r++ {
		round := &Round{Number: r, Name: fmt.Sprintf("Round %d", r)}
		order := 0
		for i := 0; i < count/2; i++ {
			a, b := seats[i], seats[count-1-i]
			if a == -1 || b == -1 {
				continue
			}
			order++
			p1 := entries[a].ParticipantID
			p2 := entries[b].ParticipantID
			round.Matches = append(round.Matches, &Match{
				UID:          fmt.Sprintf("rr-r%d-m%d", r, order),
				Round:        r,
				OrderInRound: order,
				Status:       StatusReady,
				Slots: [2]Slot{
					{ParticipantID: &p1},
					{ParticipantID: &p2},
				},
			})
		}
		rounds = append(rounds, round)

		// Rotate the field, keeping the first seat fixed.
		last := seats[count-1]
		copy(seats[2:], seats[1:count-1])
		seats[1] = last
	}

	return &Bracket{
		Format:      RoundRobin,
		GeneratedAt: time.Now().UTC(),
		Rounds:      rounds,
	}, nil
}

package brackets

import (
	"fmt"
	"math"
	"time"
)

const GrandFinalUID = "grand-final"

type DoubleEliminationGenerator struct{}

func (g *DoubleEliminationGenerator) Format() Format { return DoubleElimination }

// Generate builds a winners bracket identical to single elimination, a
// losers bracket of 2*ceil(log2(N))-1 rounds, and one grand final.
//
// Losers routing follows standard drop-down seeding: losers of winners
// round 1 pair up in losers round 1; the loser of winners round r>=2
// drops into losers round 2r-2 against a survivor of the losers
// bracket, with the pairing order reversed in every other drop round so
// nobody replays the opponent they just lost to. The sizing formula
// leaves one trailing losers round beyond what the routing consumes; it
// is kept as an empty placeholder round.
func (g *DoubleEliminationGenerator) Generate(entries []Entry) (*Bracket, error) {
	if len(entries) < 2 {
		return nil, ErrInsufficientParticipants
	}

	n := len(entries)
	totalRounds := int(math.Ceil(math.Log2(float64(n))))
	size := 1 << uint(totalRounds)

	winners := buildEliminationTree(entries, "w-", BranchWinners, roundName)
	winnersFinal := winners[len(winners)-1].Matches[0]

	losersRoundCount := 2*totalRounds - 1
	losers := make([]*Round, losersRoundCount)
	for i := range losers {
		losers[i] = &Round{
			Number: i + 1,
			Name:   fmt.Sprintf("Losers Round %d", i+1),
			Branch: BranchLosers,
		}
	}

	grandFinal := &Match{
		UID:    GrandFinalUID,
		Branch: BranchFinals,
		Round:  1,
		Status: StatusPending,
		Slots: [2]Slot{
			{SourceUID: winnersFinal.UID},
			{}, // losers champion, wired below
		},
	}
	winnersFinal.WinnerTo = GrandFinalUID
	winnersFinal.WinnerSlot = 1

	if totalRounds == 1 {
		// Two entrants: the loser of the only winners match goes
		// straight back into the grand final.
		winnersFinal.LoserTo = GrandFinalUID
		winnersFinal.LoserSlot = 2
		grandFinal.Slots[1].SourceUID = winnersFinal.UID
	} else {
		// Losers round 1: losers of consecutive winners round 1
		// matches meet each other.
		wr1 := winners[0].Matches
		for j := 0; j < len(wr1); j += 2 {
			lm := &Match{
				UID:          fmt.Sprintf("l-r1-m%d", j/2+1),
				Branch:       BranchLosers,
				Round:        1,
				OrderInRound: j/2 + 1,
				Status:       StatusPending,
				Slots: [2]Slot{
					{SourceUID: wr1[j].UID},
					{SourceUID: wr1[j+1].UID},
				},
			}
			wr1[j].LoserTo = lm.UID
			wr1[j].LoserSlot = 1
			wr1[j+1].LoserTo = lm.UID
			wr1[j+1].LoserSlot = 2
			losers[0].Matches = append(losers[0].Matches, lm)
		}

		prev := losers[0].Matches
		for r := 2; r <= totalRounds; r++ {
			// Drop round 2r-2: survivors meet the losers of
			// winners round r.
			drop := losers[2*r-3]
			wr := winners[r-1].Matches
			count := size >> uint(r)
			for j := 0; j < count; j++ {
				wIdx := j
				if r%2 == 0 {
					wIdx = count - 1 - j // reverse to avoid instant rematches
				}
				lm := &Match{
					UID:          fmt.Sprintf("l-r%d-m%d", 2*r-2, j+1),
					Branch:       BranchLosers,
					Round:        2*r - 2,
					OrderInRound: j + 1,
					Status:       StatusPending,
					Slots: [2]Slot{
						{SourceUID: prev[j].UID},
						{SourceUID: wr[wIdx].UID},
					},
				}
				prev[j].WinnerTo = lm.UID
				prev[j].WinnerSlot = 1
				wr[wIdx].LoserTo = lm.UID
				wr[wIdx].LoserSlot = 2
				drop.Matches = append(drop.Matches, lm)
			}
			prev = drop.Matches

			// Condensing round 2r-1 halves the field again, except
			// after the final drop where one survivor remains.
			if r == totalRounds {
				break
			}
			condense := losers[2*r-2]
			for j := 0; j < len(prev); j += 2 {
				lm := &Match{
					UID:          fmt.Sprintf("l-r%d-m%d", 2*r-1, j/2+1),
					Branch:       BranchLosers,
					Round:        2*r - 1,
					OrderInRound: j/2 + 1,
					Status:       StatusPending,
					Slots: [2]Slot{
						{SourceUID: prev[j].UID},
						{SourceUID: prev[j+1].UID},
					},
				}
				prev[j].WinnerTo = lm.UID
				prev[j].WinnerSlot = 1
				prev[j+1].WinnerTo = lm.UID
				prev[j+1].WinnerSlot = 2
				condense.Matches = append(condense.Matches, lm)
			}
			prev = condense.Matches
		}

		losersChampionMatch := prev[0]
		losersChampionMatch.WinnerTo = GrandFinalUID
		losersChampionMatch.WinnerSlot = 2
		grandFinal.Slots[1].SourceUID = losersChampionMatch.UID
	}

	rounds := make([]*Round, 0, len(winners)+len(losers)+1)
	rounds = append(rounds, winners...)
	rounds = append(rounds, losers...)
	rounds = append(rounds, &Round{
		Number:  1,
		Name:    "Grand Finals",
		Branch:  BranchFinals,
		Matches: []*Match{grandFinal},
	})

	b := &Bracket{
		Format:      DoubleElimination,
		GeneratedAt: time.Now().UTC(),
		Rounds:      rounds,
	}
	resolveByes(b)
	return b, nil
}

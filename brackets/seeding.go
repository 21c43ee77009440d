package brackets

import (
	"math/rand"
	"sort"
)

type SeedingMethod string

const (
	SeedingRandom  SeedingMethod = "random"
	SeedingRanking SeedingMethod = "ranking"
	SeedingManual  SeedingMethod = "manual"
)

func (m SeedingMethod) Valid() bool {
	switch m {
	case SeedingRandom, SeedingRanking, SeedingManual:
		return true
	}
	return false
}

// Seed orders entries into bracket position order (index 0 = seed 1).
// random shuffles uniformly, ranking sorts ascending by Ranking with a
// stable sort (lower ranking value = stronger seed), manual keeps the
// caller's order. The input slice is never modified.
func Seed(entries []Entry, method SeedingMethod) ([]Entry, error) {
	if len(entries) == 0 {
		return nil, ErrNoParticipants
	}
	seen := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.ParticipantID]; ok {
			return nil, ErrDuplicateParticipant
		}
		seen[e.ParticipantID] = struct{}{}
	}

	seeded := make([]Entry, len(entries))
	copy(seeded, entries)

	switch method {
	case SeedingRandom:
		rand.Shuffle(len(seeded), func(i, j int) {
			seeded[i], seeded[j] = seeded[j], seeded[i]
		})
	case SeedingRanking:
		sort.SliceStable(seeded, func(i, j int) bool {
			return seeded[i].Ranking < seeded[j].Ranking
		})
	case SeedingManual:
		// Caller pre-ordered the list.
	default:
		return nil, ErrUnknownSeedingMethod
	}

	return seeded, nil
}

package brackets

import (
	"fmt"
	"time"
)

type Format string

const (
	SingleElimination Format = "single-elimination"
	DoubleElimination Format = "double-elimination"
	RoundRobin        Format = "round-robin"
)

func (f Format) Valid() bool {
	switch f {
	case SingleElimination, DoubleElimination, RoundRobin:
		return true
	}
	return false
}

type Branch string

const (
	BranchWinners Branch = "winners"
	BranchLosers  Branch = "losers"
	BranchFinals  Branch = "finals"
)

type MatchStatus string

const (
	StatusPending   MatchStatus = "pending"
	StatusReady     MatchStatus = "ready"
	StatusLive      MatchStatus = "live"
	StatusPaused    MatchStatus = "paused"
	StatusCompleted MatchStatus = "completed"
)

// Entry is one seeded participant as the bracket engine sees it. The
// engine never touches user accounts or storage, only these values.
type Entry struct {
	ParticipantID int    `json:"participant_id"`
	Name          string `json:"name"`
	Ranking       int    `json:"ranking"`
}

// Slot is one side of a match. A slot is unresolved ("TBD") until
// either a participant or a bye marker lands in it, usually through
// completion of the source match named by SourceUID.
type Slot struct {
	ParticipantID *int   `json:"participant_id,omitempty"`
	Bye           bool   `json:"bye,omitempty"`
	Score         int    `json:"score"`
	SourceUID     string `json:"source_uid,omitempty"`
}

// Resolved reports whether the slot holds a participant or a bye.
func (s *Slot) Resolved() bool {
	return s.ParticipantID != nil || s.Bye
}

// Match is a template match at a fixed position in the bracket. The
// UID identifies the position; the stored match document carries its
// own id and references this one.
type Match struct {
	UID          string      `json:"uid"`
	Branch       Branch      `json:"branch,omitempty"`
	Round        int         `json:"round"`
	OrderInRound int         `json:"order_in_round"`
	Slots        [2]Slot     `json:"slots"`
	Status       MatchStatus `json:"status"`
	WinnerID     *int        `json:"winner_id,omitempty"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	EndedAt      *time.Time  `json:"ended_at,omitempty"`

	// Routing set at build time: where the winner (and, in double
	// elimination, the loser) of this match is written.
	WinnerTo   string `json:"winner_to,omitempty"`
	WinnerSlot int    `json:"winner_slot,omitempty"` // 1 or 2
	LoserTo    string `json:"loser_to,omitempty"`
	LoserSlot  int    `json:"loser_slot,omitempty"`
}

// IsBye reports whether at least one slot of the match is a bye marker.
func (m *Match) IsBye() bool {
	return m.Slots[0].Bye || m.Slots[1].Bye
}

type Round struct {
	Number  int      `json:"number"`
	Name    string   `json:"name"`
	Branch  Branch   `json:"branch,omitempty"`
	Matches []*Match `json:"matches"`
}

// Bracket is the full round structure generated for one tournament.
// It is a value aggregate: builders return it, the progression engine
// mutates it, services persist it.
type Bracket struct {
	Format      Format    `json:"format"`
	GeneratedAt time.Time `json:"generated_at"`
	Rounds      []*Round  `json:"rounds"`
}

// AllMatches returns every match in round order, winners bracket
// before losers bracket before the grand final.
func (b *Bracket) AllMatches() []*Match {
	var out []*Match
	for _, r := range b.Rounds {
		out = append(out, r.Matches...)
	}
	return out
}

// FindMatch looks a match up by its template UID.
func (b *Bracket) FindMatch(uid string) *Match {
	for _, r := range b.Rounds {
		for _, m := range r.Matches {
			if m.UID == uid {
				return m
			}
		}
	}
	return nil
}

// BranchRounds returns the rounds tagged with the given branch.
func (b *Bracket) BranchRounds(branch Branch) []*Round {
	var out []*Round
	for _, r := range b.Rounds {
		if r.Branch == branch {
			out = append(out, r)
		}
	}
	return out
}

// roundName derives the display name of an elimination round from its
// distance to the final: Finals, Semi-Finals, Quarter-Finals, Round of
// 16, then plain "Round k".
func roundName(round, totalRounds int) string {
	switch totalRounds - round + 1 {
	case 1:
		return "Finals"
	case 2:
		return "Semi-Finals"
	case 3:
		return "Quarter-Finals"
	case 4:
		return "Round of 16"
	default:
		return fmt.Sprintf("Round %d", round)
	}
}

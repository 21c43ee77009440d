package brackets

import (
	"fmt"
	"time"
)

// Progression drives the per-match state machine of one bracket and
// propagates results between matches. It is a pure in-memory engine:
// callers load the current bracket aggregate, apply a command, and
// persist whatever comes back changed.
type Progression struct {
	bracket *Bracket
	index   map[string]*Match
}

func NewProgression(b *Bracket) *Progression {
	idx := make(map[string]*Match)
	for _, m := range b.AllMatches() {
		idx[m.UID] = m
	}
	return &Progression{bracket: b, index: idx}
}

func (p *Progression) Bracket() *Bracket { return p.bracket }

func (p *Progression) Match(uid string) (*Match, error) {
	m, ok := p.index[uid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, uid)
	}
	return m, nil
}

// Start moves a ready match live. Matches holding a bye never reach
// ready, so only real pairings can start.
func (p *Progression) Start(uid string, at time.Time) (*Match, error) {
	m, err := p.Match(uid)
	if err != nil {
		return nil, err
	}
	if m.Status != StatusReady {
		return nil, fmt.Errorf("%w: cannot start match %s in status %s", ErrInvalidTransition, uid, m.Status)
	}
	m.Status = StatusLive
	t := at
	m.StartedAt = &t
	return m, nil
}

func (p *Progression) Pause(uid string) (*Match, error) {
	m, err := p.Match(uid)
	if err != nil {
		return nil, err
	}
	if m.Status != StatusLive {
		return nil, fmt.Errorf("%w: cannot pause match %s in status %s", ErrInvalidTransition, uid, m.Status)
	}
	m.Status = StatusPaused
	return m, nil
}

func (p *Progression) Resume(uid string) (*Match, error) {
	m, err := p.Match(uid)
	if err != nil {
		return nil, err
	}
	if m.Status != StatusPaused {
		return nil, fmt.Errorf("%w: cannot resume match %s in status %s", ErrInvalidTransition, uid, m.Status)
	}
	m.Status = StatusLive
	return m, nil
}

// IncrementScore adds one point to the named slot (1 or 2). Only legal
// while the match is live; there is no upper bound — race-to-N is
// advisory and completion is always an explicit Finish.
func (p *Progression) IncrementScore(uid string, slot int) (*Match, error) {
	m, err := p.Match(uid)
	if err != nil {
		return nil, err
	}
	if slot != 1 && slot != 2 {
		return nil, ErrSlotOutOfRange
	}
	if m.Status != StatusLive {
		return nil, fmt.Errorf("%w: cannot score match %s in status %s", ErrInvalidTransition, uid, m.Status)
	}
	m.Slots[slot-1].Score++
	return m, nil
}

// SyncScores overwrites both slot scores from the authoritative store
// record. Allowed while the match is live or paused.
func (p *Progression) SyncScores(uid string, s1, s2 int) error {
	m, err := p.Match(uid)
	if err != nil {
		return err
	}
	if m.Status != StatusLive && m.Status != StatusPaused {
		return fmt.Errorf("%w: cannot set scores of match %s in status %s", ErrInvalidTransition, uid, m.Status)
	}
	if s1 < 0 || s2 < 0 {
		return fmt.Errorf("%w: scores must be non-negative", ErrInvalidTransition)
	}
	m.Slots[0].Score = s1
	m.Slots[1].Score = s2
	return nil
}

// Finish completes a live match, declaring the higher-scoring slot the
// winner. Equal scores are rejected: the operator must break the tie
// before finishing. The winner is written into the downstream match
// slot, the loser into its losers-bracket slot where one exists, and
// every match changed by the cascade is returned (the finished match
// first).
func (p *Progression) Finish(uid string, at time.Time) ([]*Match, error) {
	m, err := p.Match(uid)
	if err != nil {
		return nil, err
	}
	if m.Status != StatusLive {
		return nil, fmt.Errorf("%w: cannot finish match %s in status %s", ErrInvalidTransition, uid, m.Status)
	}
	if m.Slots[0].Score == m.Slots[1].Score {
		return nil, fmt.Errorf("%w: match %s is %d-%d", ErrTiedScore, uid, m.Slots[0].Score, m.Slots[1].Score)
	}

	winnerSlot := 0
	if m.Slots[1].Score > m.Slots[0].Score {
		winnerSlot = 1
	}
	m.WinnerID = m.Slots[winnerSlot].ParticipantID
	m.Status = StatusCompleted
	t := at
	m.EndedAt = &t

	changed := []*Match{m}
	p.propagate(m, &changed)
	return changed, nil
}

// Champion returns the tournament winner's participant id once the
// decisive match has completed, or nil while play continues. Round
// robin brackets have no single decisive match and always return nil.
func (p *Progression) Champion() *int {
	if p.bracket.Format == RoundRobin {
		return nil
	}
	var final *Match
	switch p.bracket.Format {
	case SingleElimination:
		last := p.bracket.Rounds[len(p.bracket.Rounds)-1]
		final = last.Matches[0]
	case DoubleElimination:
		final = p.index[GrandFinalUID]
	}
	if final == nil || final.Status != StatusCompleted {
		return nil
	}
	return final.WinnerID
}

// Done reports whether every match that can still be played has
// completed (placeholder losers rounds may stay empty).
func (p *Progression) Done() bool {
	for _, m := range p.bracket.AllMatches() {
		if m.Status != StatusCompleted {
			return false
		}
	}
	return true
}

// propagate pushes the outcome of a completed match into its
// downstream slots. A bye outcome keeps cascading: a slot that
// receives a bye can auto-complete its match, which propagates again.
func (p *Progression) propagate(m *Match, changed *[]*Match) {
	winnerSlot := -1
	if m.WinnerID != nil {
		for i := range m.Slots {
			if m.Slots[i].ParticipantID != nil && *m.Slots[i].ParticipantID == *m.WinnerID {
				winnerSlot = i
				break
			}
		}
	}

	if m.WinnerTo != "" {
		if m.WinnerID != nil {
			p.fillSlot(m.WinnerTo, m.WinnerSlot, m.WinnerID, false, changed)
		} else {
			// Double-bye artifact: the "winner" is itself a bye.
			p.fillSlot(m.WinnerTo, m.WinnerSlot, nil, true, changed)
		}
	}

	if m.LoserTo != "" {
		if winnerSlot >= 0 {
			loser := m.Slots[1-winnerSlot]
			p.fillSlot(m.LoserTo, m.LoserSlot, loser.ParticipantID, loser.Bye, changed)
		} else {
			p.fillSlot(m.LoserTo, m.LoserSlot, nil, true, changed)
		}
	}
}

// fillSlot writes a participant or bye into a downstream slot, then
// re-evaluates the target: both slots real promotes pending to ready,
// a bye against anything auto-completes.
func (p *Progression) fillSlot(uid string, slot int, participantID *int, bye bool, changed *[]*Match) {
	target, ok := p.index[uid]
	if !ok || target.Status == StatusCompleted {
		return
	}
	if participantID != nil {
		id := *participantID
		target.Slots[slot-1].ParticipantID = &id
		target.Slots[slot-1].Bye = false
	} else {
		target.Slots[slot-1].Bye = bye
	}

	if !target.Slots[0].Resolved() || !target.Slots[1].Resolved() {
		appendChanged(changed, target)
		return
	}

	if target.IsBye() {
		p.completeByeMatch(target, changed)
		return
	}

	if target.Status == StatusPending {
		target.Status = StatusReady
	}
	appendChanged(changed, target)
}

// completeByeMatch resolves a match in which at least one slot is a
// bye: the real side advances without play. Two byes produce a bye
// winner, which keeps propagating.
func (p *Progression) completeByeMatch(m *Match, changed *[]*Match) {
	if m.Slots[0].ParticipantID != nil {
		m.WinnerID = m.Slots[0].ParticipantID
	} else if m.Slots[1].ParticipantID != nil {
		m.WinnerID = m.Slots[1].ParticipantID
	}
	m.Status = StatusCompleted
	appendChanged(changed, m)
	p.propagate(m, changed)
}

func appendChanged(changed *[]*Match, m *Match) {
	for _, c := range *changed {
		if c == m {
			return
		}
	}
	*changed = append(*changed, m)
}

// resolveByes completes every bye pairing of a freshly built bracket
// and advances the unopposed participants, so bye matches never enter
// ready or live.
func resolveByes(b *Bracket) {
	p := NewProgression(b)
	var changed []*Match
	for _, m := range b.AllMatches() {
		if m.Status != StatusCompleted && m.Slots[0].Resolved() && m.Slots[1].Resolved() && m.IsBye() {
			p.completeByeMatch(m, &changed)
		}
	}
}

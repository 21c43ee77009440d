package brackets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClock = time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

// playMatch drives a ready match through start, a point for the winning
// slot, and finish.
func playMatch(t *testing.T, p *Progression, uid string, winnerSlot int) []*Match {
	t.Helper()

	_, err := p.Start(uid, testClock)
	require.NoError(t, err)
	_, err = p.IncrementScore(uid, winnerSlot)
	require.NoError(t, err)
	changed, err := p.Finish(uid, testClock)
	require.NoError(t, err)
	return changed
}

func newSingleElimBracket(t *testing.T, n int) *Bracket {
	t.Helper()
	b, err := (&SingleEliminationGenerator{}).Generate(testEntries(n))
	require.NoError(t, err)
	return b
}

func TestProgressionSingleEliminationPlaythrough(t *testing.T) {
	b := newSingleElimBracket(t, 4)
	p := NewProgression(b)

	// Semifinal one: participant 1 beats participant 4.
	changed := playMatch(t, p, "r1-m1", 1)
	require.NotEmpty(t, changed)
	assert.Equal(t, "r1-m1", changed[0].UID)

	final, err := p.Match("r2-m1")
	require.NoError(t, err)
	require.NotNil(t, final.Slots[0].ParticipantID)
	assert.Equal(t, 1, *final.Slots[0].ParticipantID)
	assert.Equal(t, StatusPending, final.Status)

	// Semifinal two: participant 3 upsets participant 2.
	playMatch(t, p, "r1-m2", 2)
	assert.Equal(t, StatusReady, final.Status)
	require.NotNil(t, final.Slots[1].ParticipantID)
	assert.Equal(t, 3, *final.Slots[1].ParticipantID)

	assert.Nil(t, p.Champion())
	assert.False(t, p.Done())

	playMatch(t, p, "r2-m1", 1)

	champion := p.Champion()
	require.NotNil(t, champion)
	assert.Equal(t, 1, *champion)
	assert.True(t, p.Done())
}

func TestProgressionRejectsTiedScore(t *testing.T) {
	b := newSingleElimBracket(t, 2)
	p := NewProgression(b)

	_, err := p.Start("r1-m1", testClock)
	require.NoError(t, err)

	// 0-0 is a tie too.
	_, err = p.Finish("r1-m1", testClock)
	assert.ErrorIs(t, err, ErrTiedScore)

	_, err = p.IncrementScore("r1-m1", 1)
	require.NoError(t, err)
	_, err = p.IncrementScore("r1-m1", 2)
	require.NoError(t, err)

	_, err = p.Finish("r1-m1", testClock)
	assert.ErrorIs(t, err, ErrTiedScore)

	// Break the tie and the match finishes.
	_, err = p.IncrementScore("r1-m1", 2)
	require.NoError(t, err)
	changed, err := p.Finish("r1-m1", testClock)
	require.NoError(t, err)
	require.NotEmpty(t, changed)
	require.NotNil(t, changed[0].WinnerID)
	assert.Equal(t, 2, *changed[0].WinnerID)
}

func TestProgressionInvalidTransitions(t *testing.T) {
	b := newSingleElimBracket(t, 4)
	p := NewProgression(b)

	// The final has unresolved slots and cannot start.
	_, err := p.Start("r2-m1", testClock)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Scoring and finishing need a live match.
	_, err = p.IncrementScore("r1-m1", 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = p.Finish("r1-m1", testClock)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = p.Pause("r1-m1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = p.Resume("r1-m1")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Double start.
	_, err = p.Start("r1-m1", testClock)
	require.NoError(t, err)
	_, err = p.Start("r1-m1", testClock)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = p.Start("no-such-match", testClock)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestProgressionPauseResume(t *testing.T) {
	b := newSingleElimBracket(t, 2)
	p := NewProgression(b)

	_, err := p.Start("r1-m1", testClock)
	require.NoError(t, err)

	m, err := p.Pause("r1-m1")
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, m.Status)

	// No scoring while paused.
	_, err = p.IncrementScore("r1-m1", 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	m, err = p.Resume("r1-m1")
	require.NoError(t, err)
	assert.Equal(t, StatusLive, m.Status)

	_, err = p.IncrementScore("r1-m1", 1)
	assert.NoError(t, err)
}

func TestProgressionScoreSlotValidation(t *testing.T) {
	b := newSingleElimBracket(t, 2)
	p := NewProgression(b)

	_, err := p.Start("r1-m1", testClock)
	require.NoError(t, err)

	_, err = p.IncrementScore("r1-m1", 0)
	assert.ErrorIs(t, err, ErrSlotOutOfRange)
	_, err = p.IncrementScore("r1-m1", 3)
	assert.ErrorIs(t, err, ErrSlotOutOfRange)

	err = p.SyncScores("r1-m1", -1, 0)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = p.SyncScores("r1-m1", 7, 5)
	require.NoError(t, err)
	m, err := p.Match("r1-m1")
	require.NoError(t, err)
	assert.Equal(t, 7, m.Slots[0].Score)
	assert.Equal(t, 5, m.Slots[1].Score)
}

func TestProgressionDoubleEliminationPlaythrough(t *testing.T) {
	b, err := (&DoubleEliminationGenerator{}).Generate(testEntries(4))
	require.NoError(t, err)
	p := NewProgression(b)

	// Winners round one: 1 beats 4, 2 beats 3.
	playMatch(t, p, "w-r1-m1", 1)
	playMatch(t, p, "w-r1-m2", 1)

	l1, err := p.Match("l-r1-m1")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, l1.Status)
	require.NotNil(t, l1.Slots[0].ParticipantID)
	require.NotNil(t, l1.Slots[1].ParticipantID)
	assert.Equal(t, 4, *l1.Slots[0].ParticipantID)
	assert.Equal(t, 3, *l1.Slots[1].ParticipantID)

	// Winners final: 1 beats 2, sending 2 down to the losers bracket.
	playMatch(t, p, "w-r2-m1", 1)

	gf, err := p.Match(GrandFinalUID)
	require.NoError(t, err)
	require.NotNil(t, gf.Slots[0].ParticipantID)
	assert.Equal(t, 1, *gf.Slots[0].ParticipantID)
	assert.Equal(t, StatusPending, gf.Status)

	// Losers bracket: 4 beats 3, then 2 beats 4.
	playMatch(t, p, "l-r1-m1", 1)
	l2, err := p.Match("l-r2-m1")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, l2.Status)
	require.NotNil(t, l2.Slots[1].ParticipantID)
	assert.Equal(t, 2, *l2.Slots[1].ParticipantID)

	playMatch(t, p, "l-r2-m1", 2)

	assert.Equal(t, StatusReady, gf.Status)
	require.NotNil(t, gf.Slots[1].ParticipantID)
	assert.Equal(t, 2, *gf.Slots[1].ParticipantID)
	assert.Nil(t, p.Champion())

	// Grand final: 2 completes the run from the losers bracket.
	playMatch(t, p, GrandFinalUID, 2)

	champion := p.Champion()
	require.NotNil(t, champion)
	assert.Equal(t, 2, *champion)
}

func TestProgressionDoubleByeCascade(t *testing.T) {
	// Five entrants in double elimination: winners round one holds three
	// byes, so the losers bracket receives bye markers that must cascade
	// without producing phantom winners.
	b, err := (&DoubleEliminationGenerator{}).Generate(testEntries(5))
	require.NoError(t, err)
	p := NewProgression(b)

	for _, m := range b.AllMatches() {
		if m.Status != StatusCompleted {
			continue
		}
		if m.IsBye() {
			// A real participant advanced, or a double bye produced a
			// bye winner, never a phantom participant id.
			if m.WinnerID == nil {
				assert.True(t, m.Slots[0].Bye && m.Slots[1].Bye, "match %s completed without winner but is not a double bye", m.UID)
			}
		}
	}

	// The second losers pairing receives the dropped byes of winners
	// matches three and four. It auto-completes with no winner and the
	// bye cascades into the next losers round.
	l2, err := p.Match("l-r1-m2")
	require.NoError(t, err)
	assert.True(t, l2.Slots[0].Bye)
	assert.True(t, l2.Slots[1].Bye)
	assert.Equal(t, StatusCompleted, l2.Status)
	assert.Nil(t, l2.WinnerID)

	next, err := p.Match("l-r2-m2")
	require.NoError(t, err)
	assert.True(t, next.Slots[0].Bye)
}

func TestProgressionRoundRobinHasNoChampion(t *testing.T) {
	b, err := (&RoundRobinGenerator{}).Generate(testEntries(4))
	require.NoError(t, err)
	p := NewProgression(b)

	for _, m := range b.AllMatches() {
		playMatch(t, p, m.UID, 1)
	}

	assert.True(t, p.Done())
	assert.Nil(t, p.Champion())
}

func TestProgressionFinishReturnsCascade(t *testing.T) {
	b := newSingleElimBracket(t, 4)
	p := NewProgression(b)

	changed := playMatch(t, p, "r1-m1", 1)

	uids := make([]string, 0, len(changed))
	for _, m := range changed {
		uids = append(uids, m.UID)
	}
	assert.Equal(t, []string{"r1-m1", "r2-m1"}, uids)
}

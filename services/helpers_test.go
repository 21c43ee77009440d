package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuesports/tournament-hub/brackets"
	"github.com/cuesports/tournament-hub/models"
)

func TestMatchRowFromTemplate(t *testing.T) {
	id1, id2 := 11, 22
	now := time.Now()
	tm := &brackets.Match{
		UID:          "w-r1-m2",
		Branch:       brackets.BranchWinners,
		Round:        1,
		OrderInRound: 2,
		Status:       brackets.StatusCompleted,
		WinnerID:     &id1,
		StartedAt:    &now,
		EndedAt:      &now,
		Slots: [2]brackets.Slot{
			{ParticipantID: &id1, Score: 7},
			{ParticipantID: &id2, Score: 4},
		},
	}

	row := matchRowFromTemplate(42, tm)

	assert.Equal(t, 42, row.TournamentID)
	assert.Equal(t, "w-r1-m2", row.BracketUID)
	assert.Equal(t, "winners", row.Branch)
	assert.Equal(t, 1, row.Round)
	assert.Equal(t, 2, row.OrderInRound)
	require.NotNil(t, row.P1ParticipantID)
	require.NotNil(t, row.P2ParticipantID)
	assert.Equal(t, 11, *row.P1ParticipantID)
	assert.Equal(t, 22, *row.P2ParticipantID)
	assert.Equal(t, 7, row.ScoreP1)
	assert.Equal(t, 4, row.ScoreP2)
	assert.Equal(t, brackets.StatusCompleted, row.Status)
	require.NotNil(t, row.WinnerParticipantID)
	assert.Equal(t, 11, *row.WinnerParticipantID)

	// The row holds copies, not aliases into the template.
	*row.P1ParticipantID = 99
	assert.Equal(t, 11, *tm.Slots[0].ParticipantID)
}

func TestMatchRowFromTemplateByeSlots(t *testing.T) {
	id := 5
	tm := &brackets.Match{
		UID:    "r1-m1",
		Round:  1,
		Status: brackets.StatusCompleted,
		Slots: [2]brackets.Slot{
			{ParticipantID: &id},
			{Bye: true},
		},
		WinnerID: &id,
	}

	row := matchRowFromTemplate(1, tm)
	assert.False(t, row.P1Bye)
	assert.True(t, row.P2Bye)
	assert.Nil(t, row.P2ParticipantID)
}

func TestEligibleParticipantsFiltering(t *testing.T) {
	tournament := &models.Tournament{
		Settings: models.TournamentSettings{CheckInRequired: true},
	}
	participants := []*models.Participant{
		{ID: 1, Paid: true, CheckedIn: true},
		{ID: 2, Paid: true, CheckedIn: false},
		{ID: 3, Paid: false, CheckedIn: true},
		{ID: 4, Paid: true, CheckedIn: true},
	}

	eligible := eligibleParticipants(tournament, participants)
	require.Len(t, eligible, 2)
	assert.Equal(t, 1, eligible[0].ID)
	assert.Equal(t, 4, eligible[1].ID)

	// Without the check-in requirement only payment matters.
	tournament.Settings.CheckInRequired = false
	eligible = eligibleParticipants(tournament, participants)
	assert.Len(t, eligible, 3)
}

func TestMapBracketError(t *testing.T) {
	assert.ErrorIs(t, mapBracketError(brackets.ErrMatchNotFound), ErrMatchNotFound)
	assert.ErrorIs(t, mapBracketError(brackets.ErrTiedScore), ErrTiedScore)
	assert.ErrorIs(t, mapBracketError(brackets.ErrInvalidTransition), ErrInvalidMatchTransition)
	assert.ErrorIs(t, mapBracketError(brackets.ErrInsufficientParticipants), ErrNotEnoughParticipants)
	assert.ErrorIs(t, mapBracketError(brackets.ErrUnknownFormat), ErrValidationFailed)
	assert.ErrorIs(t, mapBracketError(brackets.ErrSlotOutOfRange), ErrValidationFailed)
	assert.NoError(t, mapBracketError(nil))
}

func TestTournamentRoom(t *testing.T) {
	assert.Equal(t, "42", tournamentRoom(42))
}

func TestEntriesFromParticipants(t *testing.T) {
	participants := []*models.Participant{
		{ID: 9, Name: "Alex", Ranking: 1300},
		{ID: 10, Name: "Bo", Ranking: 1100},
	}

	entries := entriesFromParticipants(participants)
	require.Len(t, entries, 2)
	assert.Equal(t, brackets.Entry{ParticipantID: 9, Name: "Alex", Ranking: 1300}, entries[0])
	assert.Equal(t, brackets.Entry{ParticipantID: 10, Name: "Bo", Ranking: 1100}, entries[1])
}

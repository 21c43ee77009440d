package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuesports/tournament-hub/brackets"
	"github.com/cuesports/tournament-hub/models"
)

type bracketFixture struct {
	tournamentRepo  *fakeTournamentRepo
	participantRepo *fakeParticipantRepo
	matchRepo       *fakeMatchRepo
	broadcaster     *fakeBroadcaster
	svc             BracketService
}

func newBracketFixture(t *testing.T) *bracketFixture {
	t.Helper()
	f := &bracketFixture{
		tournamentRepo:  newFakeTournamentRepo(),
		participantRepo: newFakeParticipantRepo(),
		matchRepo:       newFakeMatchRepo(),
		broadcaster:     &fakeBroadcaster{},
	}
	svc := NewBracketService(nil, f.tournamentRepo, f.participantRepo, f.matchRepo, f.broadcaster).(*bracketService)
	svc.runTx = stubTx
	f.svc = svc
	return f
}

func seedPaidParticipant(t *testing.T, repo *fakeParticipantRepo, tournamentID, userID int, name string, ranking int) *models.Participant {
	t.Helper()
	p := &models.Participant{
		TournamentID: tournamentID,
		UserID:       userID,
		Name:         name,
		Ranking:      ranking,
		Paid:         true,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestGenerateBracketPersistsRowsAndSeeds(t *testing.T) {
	f := newBracketFixture(t)
	ctx := context.Background()
	tournament := seedTournament(t, f.tournamentRepo, nil)

	first := seedPaidParticipant(t, f.participantRepo, tournament.ID, 1, "ana", 100)
	fourth := seedPaidParticipant(t, f.participantRepo, tournament.ID, 2, "bo", 400)
	second := seedPaidParticipant(t, f.participantRepo, tournament.ID, 3, "cai", 200)
	third := seedPaidParticipant(t, f.participantRepo, tournament.ID, 4, "dee", 300)
	unpaid := &models.Participant{TournamentID: tournament.ID, UserID: 5, Name: "eve", Ranking: 150}
	require.NoError(t, f.participantRepo.Create(ctx, unpaid))

	result, err := f.svc.GenerateBracket(ctx, tournament.ID, GenerateBracketInput{
		Format: brackets.SingleElimination,
	})
	require.NoError(t, err)

	stored, err := f.tournamentRepo.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	require.True(t, stored.BracketGenerated)
	require.NotNil(t, stored.Bracket)
	assert.Equal(t, brackets.SingleElimination, stored.Bracket.Format)

	// One row per template match, linked through the bracket UID.
	template := stored.Bracket.AllMatches()
	require.Len(t, template, 3)
	assert.Len(t, result.Matches, 3)
	for _, tm := range template {
		row, err := f.matchRepo.GetByBracketUID(ctx, tournament.ID, tm.UID)
		require.NoError(t, err, "row for %s", tm.UID)
		assert.Equal(t, tm.Round, row.Round)
		assert.Equal(t, tm.Status, row.Status)
		assert.Equal(t, tm.Slots[0].ParticipantID, row.P1ParticipantID)
		assert.Equal(t, tm.Slots[1].ParticipantID, row.P2ParticipantID)
	}

	// Ranking seeding: lowest ranking seeds first, 1 vs 4 and 2 vs 3.
	opener, err := f.matchRepo.GetByBracketUID(ctx, tournament.ID, "r1-m1")
	require.NoError(t, err)
	require.NotNil(t, opener.P1ParticipantID)
	require.NotNil(t, opener.P2ParticipantID)
	assert.Equal(t, first.ID, *opener.P1ParticipantID)
	assert.Equal(t, fourth.ID, *opener.P2ParticipantID)

	for p, want := range map[*models.Participant]int{first: 1, second: 2, third: 3, fourth: 4} {
		got, err := f.participantRepo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Seed, "seed of %s", p.Name)
		assert.Equal(t, want, *got.Seed, "seed of %s", p.Name)
	}
	skipped, err := f.participantRepo.GetByID(ctx, unpaid.ID)
	require.NoError(t, err)
	assert.Nil(t, skipped.Seed)

	require.Len(t, f.broadcaster.messages, 1)
	assert.Equal(t, brackets.EventBracketUpdated, f.broadcaster.messages[0].Type)
	assert.Equal(t, tournamentRoom(tournament.ID), f.broadcaster.rooms[0])
}

func TestGenerateBracketReplacesPreviousRows(t *testing.T) {
	f := newBracketFixture(t)
	ctx := context.Background()
	tournament := seedTournament(t, f.tournamentRepo, nil)
	for i := 1; i <= 4; i++ {
		seedPaidParticipant(t, f.participantRepo, tournament.ID, i, "p", i*100)
	}

	_, err := f.svc.GenerateBracket(ctx, tournament.ID, GenerateBracketInput{Format: brackets.SingleElimination})
	require.NoError(t, err)
	_, err = f.svc.GenerateBracket(ctx, tournament.ID, GenerateBracketInput{Format: brackets.RoundRobin})
	require.NoError(t, err)

	rows, err := f.matchRepo.ListByTournament(ctx, tournament.ID, nil, nil)
	require.NoError(t, err)
	// Round robin of 4: 6 matches, no stale single-elimination rows.
	require.Len(t, rows, 6)
	for _, row := range rows {
		assert.Equal(t, models.MatchReady, row.Status)
	}
}

func TestGenerateBracketGuards(t *testing.T) {
	f := newBracketFixture(t)
	ctx := context.Background()

	live := seedTournament(t, f.tournamentRepo, func(tr *models.Tournament) {
		tr.Status = models.TournamentLive
	})
	_, err := f.svc.GenerateBracket(ctx, live.ID, GenerateBracketInput{Format: brackets.SingleElimination})
	assert.ErrorIs(t, err, ErrTournamentLive)

	completed := seedTournament(t, f.tournamentRepo, func(tr *models.Tournament) {
		tr.Status = models.TournamentCompleted
	})
	_, err = f.svc.GenerateBracket(ctx, completed.ID, GenerateBracketInput{Format: brackets.SingleElimination})
	assert.ErrorIs(t, err, ErrTournamentCompleted)

	sparse := seedTournament(t, f.tournamentRepo, nil)
	seedPaidParticipant(t, f.participantRepo, sparse.ID, 9, "solo", 100)
	_, err = f.svc.GenerateBracket(ctx, sparse.ID, GenerateBracketInput{Format: brackets.SingleElimination})
	assert.ErrorIs(t, err, ErrNotEnoughParticipants)

	_, err = f.svc.GenerateBracket(ctx, 9999, GenerateBracketInput{Format: brackets.SingleElimination})
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

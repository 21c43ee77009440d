package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cuesports/tournament-hub/brackets"
	"github.com/cuesports/tournament-hub/models"
	"github.com/cuesports/tournament-hub/repositories"
)

// GenerateBracketInput selects the bracket shape. SeedingMethod, when
// empty, falls back to the tournament's configured method and finally
// to random.
type GenerateBracketInput struct {
	Format        brackets.Format        `json:"format"`
	SeedingMethod brackets.SeedingMethod `json:"seeding_method,omitempty"`
}

type BracketService interface {
	GenerateBracket(ctx context.Context, tournamentID int, input GenerateBracketInput) (*models.Tournament, error)
	GetTournamentData(ctx context.Context, tournamentID int) (*models.Tournament, error)
}

type bracketService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	broadcaster     Broadcaster
	runTx           func(ctx context.Context, fn func(tx *sql.Tx) error) error
}

func NewBracketService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	broadcaster Broadcaster,
) BracketService {
	return &bracketService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		broadcaster:     broadcaster,
		runTx: func(ctx context.Context, fn func(tx *sql.Tx) error) error {
			return runInTx(ctx, db, fn)
		},
	}
}

// GenerateBracket seeds the eligible participants, builds the bracket
// template and persists it together with one match row per template
// match in a single transaction. Regenerating replaces any previous
// bracket, which is only allowed while the tournament is upcoming.
func (s *bracketService) GenerateBracket(ctx context.Context, tournamentID int, input GenerateBracketInput) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	switch tournament.Status {
	case models.TournamentLive:
		return nil, ErrTournamentLive
	case models.TournamentCompleted:
		return nil, ErrTournamentCompleted
	}

	generator, err := brackets.NewGenerator(input.Format)
	if err != nil {
		return nil, mapBracketError(err)
	}

	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	eligible := eligibleParticipants(tournament, participants)
	if len(eligible) < 2 {
		return nil, ErrNotEnoughParticipants
	}

	method := input.SeedingMethod
	if method == "" {
		method = tournament.Settings.SeedingMethod
	}
	if method == "" {
		method = brackets.SeedingRandom
	}

	seeded, err := brackets.Seed(entriesFromParticipants(eligible), method)
	if err != nil {
		return nil, mapBracketError(err)
	}

	bracket, err := generator.Generate(seeded)
	if err != nil {
		return nil, mapBracketError(err)
	}

	err = s.runTx(ctx, func(tx *sql.Tx) error {
		if err := s.matchRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
			return fmt.Errorf("failed to clear previous matches: %w", err)
		}

		// Seeds reflect the final seeded order; participants left out of
		// the bracket lose any stale seed.
		seedOf := make(map[int]int, len(seeded))
		for i, entry := range seeded {
			seedOf[entry.ParticipantID] = i + 1
		}
		for _, p := range participants {
			var seed *int
			if n, ok := seedOf[p.ID]; ok {
				seed = &n
			}
			if err := s.participantRepo.UpdateSeed(ctx, tx, p.ID, seed); err != nil {
				return fmt.Errorf("failed to update seed of participant %d: %w", p.ID, err)
			}
		}

		for _, tm := range bracket.AllMatches() {
			row := matchRowFromTemplate(tournamentID, tm)
			if err := s.matchRepo.Create(ctx, tx, row); err != nil {
				return fmt.Errorf("failed to create match %s: %w", tm.UID, err)
			}
		}

		if err := s.tournamentRepo.SaveBracket(ctx, tx, tournamentID, bracket); err != nil {
			return fmt.Errorf("failed to save bracket: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err := s.GetTournamentData(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToRoom(tournamentRoom(tournamentID), brackets.Message{
			Type:    brackets.EventBracketUpdated,
			Payload: result,
		})
	}
	return result, nil
}

// GetTournamentData loads the tournament together with its participants
// and match rows.
func (s *bracketService) GetTournamentData(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	var participants []*models.Participant
	var matches []*models.Match

	g.Go(func() error {
		var err error
		participants, err = s.participantRepo.ListByTournament(gctx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gctx, tournamentID, nil, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load tournament %d data: %w", tournamentID, err)
	}

	tournament.Participants = participantsToValues(participants)
	tournament.Matches = matchesToValues(matches)
	return tournament, nil
}

// eligibleParticipants filters to paid entries, and to checked-in ones
// when the tournament requires check-in.
func eligibleParticipants(t *models.Tournament, participants []*models.Participant) []*models.Participant {
	eligible := make([]*models.Participant, 0, len(participants))
	for _, p := range participants {
		if !p.Paid {
			continue
		}
		if t.Settings.CheckInRequired && !p.CheckedIn {
			continue
		}
		eligible = append(eligible, p)
	}
	return eligible
}

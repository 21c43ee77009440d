package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cuesports/tournament-hub/brackets"
	"github.com/cuesports/tournament-hub/models"
	"github.com/cuesports/tournament-hub/repositories"
)

type MatchService interface {
	GetByID(ctx context.Context, matchID int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)
	ListLive(ctx context.Context) ([]*models.Match, error)
	StartMatch(ctx context.Context, matchID int) (*models.Match, error)
	PauseMatch(ctx context.Context, matchID int) (*models.Match, error)
	ResumeMatch(ctx context.Context, matchID int) (*models.Match, error)
	IncrementScore(ctx context.Context, matchID int, slot int) (*models.Match, error)
	FinishMatch(ctx context.Context, matchID int) (*models.Match, error)
	AssignTable(ctx context.Context, matchID int, table *int) (*models.Match, error)
}

// TournamentWinnerPayload is broadcast when the decisive match
// completes.
type TournamentWinnerPayload struct {
	TournamentID int                 `json:"tournament_id"`
	Winner       *models.Participant `json:"winner,omitempty"`
	Message      string              `json:"message"`
}

type matchService struct {
	matchRepo       repositories.MatchRepository
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	broadcaster     Broadcaster
	now             func() time.Time
	runTx           func(ctx context.Context, fn func(tx *sql.Tx) error) error
}

func NewMatchService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	broadcaster Broadcaster,
) MatchService {
	return &matchService{
		matchRepo:       matchRepo,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		broadcaster:     broadcaster,
		now:             time.Now,
		runTx: func(ctx context.Context, fn func(tx *sql.Tx) error) error {
			return runInTx(ctx, db, fn)
		},
	}
}

func (s *matchService) GetByID(ctx context.Context, matchID int) (*models.Match, error) {
	return s.getMatch(ctx, matchID)
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	return s.matchRepo.ListByTournament(ctx, tournamentID, round, status)
}

func (s *matchService) ListLive(ctx context.Context) ([]*models.Match, error) {
	return s.matchRepo.ListLive(ctx)
}

func (s *matchService) StartMatch(ctx context.Context, matchID int) (*models.Match, error) {
	return s.applyTransition(ctx, matchID, func(engine *brackets.Progression, uid string) (*brackets.Match, error) {
		return engine.Start(uid, s.now())
	})
}

func (s *matchService) PauseMatch(ctx context.Context, matchID int) (*models.Match, error) {
	return s.applyTransition(ctx, matchID, func(engine *brackets.Progression, uid string) (*brackets.Match, error) {
		return engine.Pause(uid)
	})
}

func (s *matchService) ResumeMatch(ctx context.Context, matchID int) (*models.Match, error) {
	return s.applyTransition(ctx, matchID, func(engine *brackets.Progression, uid string) (*brackets.Match, error) {
		return engine.Resume(uid)
	})
}

// IncrementScore adds a point through a guarded store update, then
// mirrors the authoritative row back into the bracket template. The
// engine validates the transition first so callers get the state
// machine's error, not a bare "0 rows updated".
func (s *matchService) IncrementScore(ctx context.Context, matchID int, slot int) (*models.Match, error) {
	if slot != 1 && slot != 2 {
		return nil, fmt.Errorf("%w: slot must be 1 or 2", ErrValidationFailed)
	}

	row, tournament, engine, err := s.loadMatchContext(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if _, err := engine.IncrementScore(row.BracketUID, slot); err != nil {
		return nil, mapBracketError(err)
	}

	updated, err := s.matchRepo.IncrementScore(ctx, matchID, slot)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotLive) {
			return nil, fmt.Errorf("%w: match is not live", ErrInvalidMatchTransition)
		}
		return nil, err
	}

	// The row is the scoring authority; re-sync the template from it in
	// case concurrent increments landed between our read and update.
	if err := engine.SyncScores(row.BracketUID, updated.ScoreP1, updated.ScoreP2); err != nil {
		return nil, mapBracketError(err)
	}
	err = s.runTx(ctx, func(tx *sql.Tx) error {
		return s.tournamentRepo.SaveBracket(ctx, tx, tournament.ID, engine.Bracket())
	})
	if err != nil {
		return nil, err
	}

	s.broadcastMatch(tournament.ID, updated)
	return updated, nil
}

// FinishMatch completes a live match and persists the full propagation
// cascade in one transaction. A drawn score is rejected.
func (s *matchService) FinishMatch(ctx context.Context, matchID int) (*models.Match, error) {
	row, tournament, engine, err := s.loadMatchContext(ctx, matchID)
	if err != nil {
		return nil, err
	}

	// The store carries the authoritative scores.
	if err := engine.SyncScores(row.BracketUID, row.ScoreP1, row.ScoreP2); err != nil {
		return nil, mapBracketError(err)
	}
	changed, err := engine.Finish(row.BracketUID, s.now())
	if err != nil {
		return nil, mapBracketError(err)
	}

	champion := engine.Champion()
	updatedRows := make([]*models.Match, 0, len(changed))
	err = s.runTx(ctx, func(tx *sql.Tx) error {
		for _, tm := range changed {
			target := row
			if tm.UID != row.BracketUID {
				loaded, loadErr := s.matchRepo.GetByBracketUID(ctx, tournament.ID, tm.UID)
				if loadErr != nil {
					return fmt.Errorf("failed to load match %s: %w", tm.UID, loadErr)
				}
				target = loaded
			}
			applyTemplateToRow(target, tm)
			if err := s.matchRepo.UpdateState(ctx, tx, target); err != nil {
				return err
			}
			updatedRows = append(updatedRows, target)
		}
		if err := s.tournamentRepo.SaveBracket(ctx, tx, tournament.ID, engine.Bracket()); err != nil {
			return err
		}
		if champion != nil {
			return s.tournamentRepo.UpdateStatus(ctx, tx, tournament.ID, models.TournamentCompleted, s.now())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, updated := range updatedRows {
		s.broadcastMatch(tournament.ID, updated)
	}
	if champion != nil {
		s.broadcastWinner(ctx, tournament.ID, *champion)
	}
	return updatedRows[0], nil
}

func (s *matchService) AssignTable(ctx context.Context, matchID int, table *int) (*models.Match, error) {
	if table != nil && *table <= 0 {
		return nil, fmt.Errorf("%w: table number must be positive", ErrValidationFailed)
	}
	row, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if row.Status == models.MatchCompleted {
		return nil, fmt.Errorf("%w: match already completed", ErrInvalidMatchTransition)
	}
	if err := s.matchRepo.UpdateTable(ctx, matchID, table); err != nil {
		return nil, err
	}
	row.Table = table
	s.broadcastMatch(row.TournamentID, row)
	return row, nil
}

// applyTransition runs a single-match state change through the engine
// and persists the row plus the bracket template together.
func (s *matchService) applyTransition(
	ctx context.Context,
	matchID int,
	apply func(engine *brackets.Progression, uid string) (*brackets.Match, error),
) (*models.Match, error) {
	row, tournament, engine, err := s.loadMatchContext(ctx, matchID)
	if err != nil {
		return nil, err
	}

	tm, err := apply(engine, row.BracketUID)
	if err != nil {
		return nil, mapBracketError(err)
	}
	applyTemplateToRow(row, tm)

	err = s.runTx(ctx, func(tx *sql.Tx) error {
		if err := s.matchRepo.UpdateState(ctx, tx, row); err != nil {
			return err
		}
		return s.tournamentRepo.SaveBracket(ctx, tx, tournament.ID, engine.Bracket())
	})
	if err != nil {
		return nil, err
	}

	s.broadcastMatch(tournament.ID, row)
	return row, nil
}

// loadMatchContext resolves a stored match row into its tournament and
// a progression engine over the tournament's bracket template.
func (s *matchService) loadMatchContext(ctx context.Context, matchID int) (*models.Match, *models.Tournament, *brackets.Progression, error) {
	row, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, nil, nil, err
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, row.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, nil, nil, ErrTournamentNotFound
		}
		return nil, nil, nil, err
	}
	if tournament.Bracket == nil {
		return nil, nil, nil, ErrBracketNotGenerated
	}
	return row, tournament, brackets.NewProgression(tournament.Bracket), nil
}

func (s *matchService) getMatch(ctx context.Context, matchID int) (*models.Match, error) {
	row, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return row, nil
}

func (s *matchService) broadcastMatch(tournamentID int, match *models.Match) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToRoom(tournamentRoom(tournamentID), brackets.Message{
		Type:    brackets.EventMatchUpdated,
		Payload: match,
	})
}

func (s *matchService) broadcastWinner(ctx context.Context, tournamentID, participantID int) {
	if s.broadcaster == nil {
		return
	}
	payload := TournamentWinnerPayload{TournamentID: tournamentID}
	if winner, err := s.participantRepo.GetByID(ctx, participantID); err == nil {
		payload.Winner = winner
		payload.Message = fmt.Sprintf("%s wins the tournament", winner.Name)
	}
	s.broadcaster.BroadcastToRoom(tournamentRoom(tournamentID), brackets.Message{
		Type:    brackets.EventTournamentWinner,
		Payload: payload,
	})
}

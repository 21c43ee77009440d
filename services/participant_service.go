package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cuesports/tournament-hub/models"
	"github.com/cuesports/tournament-hub/repositories"
)

type ParticipantService interface {
	Join(ctx context.Context, tournamentID, userID int) (*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error)
	SetPaid(ctx context.Context, participantID int, paid bool) (*models.Participant, error)
	CheckIn(ctx context.Context, participantID int) (*models.Participant, error)
	Remove(ctx context.Context, participantID int) error
}

type participantService struct {
	participantRepo repositories.ParticipantRepository
	tournamentRepo  repositories.TournamentRepository
	userRepo        repositories.UserRepository
}

func NewParticipantService(
	participantRepo repositories.ParticipantRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
) ParticipantService {
	return &participantService{
		participantRepo: participantRepo,
		tournamentRepo:  tournamentRepo,
		userRepo:        userRepo,
	}
}

// Join registers a user for a tournament. The entry snapshot (name,
// ranking, skill level) is copied from the user profile at join time so
// later profile edits do not rewrite history.
func (s *participantService) Join(ctx context.Context, tournamentID, userID int) (*models.Participant, error) {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.TournamentUpcoming || !tournament.RegistrationOpen {
		return nil, ErrRegistrationNotOpen
	}
	if deadline := tournament.Settings.CheckInDeadline; deadline != nil && time.Now().After(*deadline) {
		return nil, ErrRegistrationNotOpen
	}

	if tournament.MaxParticipants > 0 {
		count, err := s.participantRepo.CountByTournament(ctx, tournamentID)
		if err != nil {
			return nil, fmt.Errorf("failed to count participants: %w", err)
		}
		if count >= tournament.MaxParticipants {
			return nil, ErrTournamentFull
		}
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	participant := &models.Participant{
		TournamentID: tournamentID,
		UserID:       user.ID,
		Name:         user.DisplayName(),
		Ranking:      user.Ranking,
		SkillLevel:   user.SkillLevel,
		Reference:    uuid.NewString(),
	}
	if err := s.participantRepo.Create(ctx, participant); err != nil {
		if errors.Is(err, repositories.ErrParticipantConflict) {
			return nil, ErrRegistrationConflict
		}
		return nil, fmt.Errorf("failed to register participant: %w", err)
	}
	return participant, nil
}

func (s *participantService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	if _, err := s.getTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.participantRepo.ListByTournament(ctx, tournamentID)
}

func (s *participantService) SetPaid(ctx context.Context, participantID int, paid bool) (*models.Participant, error) {
	participant, err := s.getParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if err := s.participantRepo.SetPaid(ctx, participantID, paid); err != nil {
		return nil, err
	}
	participant.Paid = paid
	return participant, nil
}

func (s *participantService) CheckIn(ctx context.Context, participantID int) (*models.Participant, error) {
	participant, err := s.getParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	tournament, err := s.getTournament(ctx, participant.TournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.TournamentUpcoming {
		return nil, ErrTournamentLive
	}
	if deadline := tournament.Settings.CheckInDeadline; deadline != nil && time.Now().After(*deadline) {
		return nil, fmt.Errorf("%w: check-in deadline has passed", ErrValidationFailed)
	}
	if err := s.participantRepo.SetCheckedIn(ctx, participantID, true); err != nil {
		return nil, err
	}
	participant.CheckedIn = true
	return participant, nil
}

// Remove withdraws a participant. Only allowed before the tournament
// goes live; once matches exist the bracket must be regenerated instead.
func (s *participantService) Remove(ctx context.Context, participantID int) error {
	participant, err := s.getParticipant(ctx, participantID)
	if err != nil {
		return err
	}
	tournament, err := s.getTournament(ctx, participant.TournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != models.TournamentUpcoming {
		return ErrTournamentLive
	}
	if err := s.participantRepo.Delete(ctx, participantID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}
	return nil
}

func (s *participantService) getTournament(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (s *participantService) getParticipant(ctx context.Context, id int) (*models.Participant, error) {
	participant, err := s.participantRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return participant, nil
}

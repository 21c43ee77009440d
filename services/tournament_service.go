package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cuesports/tournament-hub/models"
	"github.com/cuesports/tournament-hub/repositories"
	"github.com/cuesports/tournament-hub/storage"
)

type CreateTournamentInput struct {
	Title           string                     `json:"title"`
	Description     *string                    `json:"description,omitempty"`
	Location        *string                    `json:"location,omitempty"`
	EntryFee        *string                    `json:"entry_fee,omitempty"`
	Prize           *string                    `json:"prize,omitempty"`
	MaxParticipants int                        `json:"max_participants"`
	StartDate       time.Time                  `json:"start_date"`
	Settings        *models.TournamentSettings `json:"settings,omitempty"`
}

type UpdateTournamentInput struct {
	Title            *string                    `json:"title,omitempty"`
	Description      *string                    `json:"description,omitempty"`
	Location         *string                    `json:"location,omitempty"`
	EntryFee         *string                    `json:"entry_fee,omitempty"`
	Prize            *string                    `json:"prize,omitempty"`
	MaxParticipants  *int                       `json:"max_participants,omitempty"`
	StartDate        *time.Time                 `json:"start_date,omitempty"`
	RegistrationOpen *bool                      `json:"registration_open,omitempty"`
	Settings         *models.TournamentSettings `json:"settings,omitempty"`
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput, createdBy int) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error)
	Update(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error)
	Delete(ctx context.Context, id int) error
	StartTournament(ctx context.Context, id int) (*models.Tournament, error)
	UploadLogo(ctx context.Context, id int, contentType string, reader io.Reader) (*models.Tournament, error)
	CloseExpiredCheckIns(ctx context.Context) (int, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
	now            func() time.Time
	runTx          func(ctx context.Context, fn func(tx *sql.Tx) error) error
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		uploader:       uploader,
		logger:         logger,
		now:            time.Now,
		runTx: func(ctx context.Context, fn func(tx *sql.Tx) error) error {
			return runInTx(ctx, db, fn)
		},
	}
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput, createdBy int) (*models.Tournament, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	if input.MaxParticipants < 0 {
		return nil, fmt.Errorf("%w: max participants cannot be negative", ErrValidationFailed)
	}
	if input.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", ErrValidationFailed)
	}

	settings := models.TournamentSettings{}
	if input.Settings != nil {
		settings = *input.Settings
	}
	if settings.SeedingMethod != "" && !settings.SeedingMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown seeding method %q", ErrValidationFailed, settings.SeedingMethod)
	}

	tournament := &models.Tournament{
		Title:            input.Title,
		Description:      input.Description,
		Location:         input.Location,
		EntryFee:         input.EntryFee,
		Prize:            input.Prize,
		MaxParticipants:  input.MaxParticipants,
		Status:           models.TournamentUpcoming,
		RegistrationOpen: true,
		Settings:         settings,
		CreatedBy:        createdBy,
		StartDate:        input.StartDate,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	s.populateLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	tournaments, err := s.tournamentRepo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, err
	}
	for _, t := range tournaments {
		s.populateLogoURL(t)
	}
	return tournaments, nil
}

func (s *tournamentService) Update(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status == models.TournamentCompleted {
		return nil, ErrTournamentCompleted
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrValidationFailed)
		}
		tournament.Title = title
	}
	if input.Description != nil {
		tournament.Description = input.Description
	}
	if input.Location != nil {
		tournament.Location = input.Location
	}
	if input.EntryFee != nil {
		tournament.EntryFee = input.EntryFee
	}
	if input.Prize != nil {
		tournament.Prize = input.Prize
	}
	if input.MaxParticipants != nil {
		if *input.MaxParticipants < 0 {
			return nil, fmt.Errorf("%w: max participants cannot be negative", ErrValidationFailed)
		}
		tournament.MaxParticipants = *input.MaxParticipants
	}
	if input.StartDate != nil {
		tournament.StartDate = *input.StartDate
	}
	if input.RegistrationOpen != nil {
		if tournament.Status != models.TournamentUpcoming && *input.RegistrationOpen {
			return nil, fmt.Errorf("%w: registration can only reopen for upcoming tournaments", ErrValidationFailed)
		}
		tournament.RegistrationOpen = *input.RegistrationOpen
	}
	if input.Settings != nil {
		if input.Settings.SeedingMethod != "" && !input.Settings.SeedingMethod.Valid() {
			return nil, fmt.Errorf("%w: unknown seeding method %q", ErrValidationFailed, input.Settings.SeedingMethod)
		}
		tournament.Settings = *input.Settings
	}

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	s.populateLogoURL(tournament)
	return tournament, nil
}

// Delete removes a tournament and its match rows. Participants go with
// the tournament through the foreign key cascade.
func (s *tournamentService) Delete(ctx context.Context, id int) error {
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return err
	}
	err = s.runTx(ctx, func(tx *sql.Tx) error {
		if err := s.matchRepo.DeleteByTournament(ctx, tx, id); err != nil {
			return fmt.Errorf("failed to delete matches: %w", err)
		}
		return s.tournamentRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}

	if tournament.LogoKey != nil && s.uploader != nil {
		if delErr := s.uploader.Delete(ctx, *tournament.LogoKey); delErr != nil {
			s.logger.Warn("failed to delete tournament logo",
				slog.Int("tournament_id", id), slog.Any("error", delErr))
		}
	}
	return nil
}

// StartTournament flips an upcoming tournament live. A generated
// bracket is required; registration closes as a side effect.
func (s *tournamentService) StartTournament(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	switch tournament.Status {
	case models.TournamentLive:
		return nil, fmt.Errorf("%w: tournament is already live", ErrInvalidStatusTransition)
	case models.TournamentCompleted:
		return nil, ErrTournamentCompleted
	}
	if !tournament.BracketGenerated {
		return nil, ErrBracketNotGenerated
	}

	startedAt := s.now()
	err = s.runTx(ctx, func(tx *sql.Tx) error {
		return s.tournamentRepo.UpdateStatus(ctx, tx, id, models.TournamentLive, startedAt)
	})
	if err != nil {
		return nil, err
	}

	tournament.Status = models.TournamentLive
	tournament.RegistrationOpen = false
	tournament.StartedAt = &startedAt
	return tournament, nil
}

var allowedLogoTypes = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
}

// UploadLogo stores a tournament logo and swaps the stored key,
// deleting the previous object best-effort.
func (s *tournamentService) UploadLogo(ctx context.Context, id int, contentType string, reader io.Reader) (*models.Tournament, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: file storage is not configured", ErrValidationFailed)
	}
	ext, ok := allowedLogoTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported logo content type %q", ErrValidationFailed, contentType)
	}

	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("tournaments/%d/logo-%s.%s", id, uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, reader); err != nil {
		return nil, fmt.Errorf("failed to upload logo: %w", err)
	}

	oldKey := tournament.LogoKey
	tournament.LogoKey = &key
	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		_ = s.uploader.Delete(ctx, key)
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if oldKey != nil && *oldKey != "" {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	s.populateLogoURL(tournament)
	return tournament, nil
}

// CloseExpiredCheckIns closes registration for upcoming tournaments
// whose check-in deadline has passed. Run periodically by the
// scheduler; returns how many were closed.
func (s *tournamentService) CloseExpiredCheckIns(ctx context.Context) (int, error) {
	expired, err := s.tournamentRepo.ListCheckInExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, t := range expired {
		if err := s.tournamentRepo.SetRegistrationOpen(ctx, t.ID, false); err != nil {
			s.logger.Error("failed to close registration",
				slog.Int("tournament_id", t.ID), slog.Any("error", err))
			continue
		}
		s.logger.Info("registration closed after check-in deadline",
			slog.Int("tournament_id", t.ID), slog.String("title", t.Title))
		closed++
	}
	return closed, nil
}

func (s *tournamentService) getTournament(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) populateLogoURL(t *models.Tournament) {
	if t.LogoKey != nil && *t.LogoKey != "" && s.uploader != nil {
		if url := s.uploader.GetPublicURL(*t.LogoKey); url != "" {
			t.LogoURL = &url
		}
	}
}

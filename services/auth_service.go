package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cuesports/tournament-hub/models"
	"github.com/cuesports/tournament-hub/repositories"
	"github.com/cuesports/tournament-hub/utils"
)

const minPasswordLength = 8

type RegisterInput struct {
	FirstName  string            `json:"first_name"`
	LastName   string            `json:"last_name"`
	Nickname   *string           `json:"nickname,omitempty"`
	Email      string            `json:"email"`
	Password   string            `json:"password"`
	Ranking    int               `json:"ranking"`
	SkillLevel models.SkillLevel `json:"skill_level"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, creds models.Credentials) (*models.User, error)
}

type authService struct {
	userRepo repositories.UserRepository
}

func NewAuthService(userRepo repositories.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" || input.FirstName == "" {
		return nil, fmt.Errorf("%w: first name and email are required", ErrValidationFailed)
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	skill := input.SkillLevel
	if skill == "" {
		skill = models.SkillBeginner
	}
	if !skill.Valid() {
		return nil, fmt.Errorf("%w: unknown skill level %q", ErrValidationFailed, input.SkillLevel)
	}

	ranking := input.Ranking
	if ranking <= 0 {
		ranking = 1000 // default ranking for new players
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Nickname:     input.Nickname,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         models.RolePlayer,
		Ranking:      ranking,
		SkillLevel:   skill,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrEmailConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !utils.CheckPasswordHash(creds.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

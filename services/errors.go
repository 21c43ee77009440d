package services

import "errors"

// Shared sentinel errors, mapped to HTTP statuses by the handler layer.
var (
	// Not found.
	ErrNotFound            = errors.New("requested resource not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrMatchNotFound       = errors.New("match not found")

	// Validation and business rules.
	ErrValidationFailed        = errors.New("validation failed")
	ErrPasswordTooShort        = errors.New("password is too short")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrRegistrationNotOpen     = errors.New("tournament registration is not open")
	ErrTournamentFull          = errors.New("tournament registration is full")
	ErrNotEnoughParticipants   = errors.New("at least 2 eligible participants are required to generate a bracket")
	ErrTournamentLive          = errors.New("operation not allowed while the tournament is live")
	ErrTournamentCompleted     = errors.New("tournament is already completed")
	ErrBracketNotGenerated     = errors.New("tournament has no generated bracket")
	ErrInvalidStatusTransition = errors.New("invalid tournament status transition")
	ErrInvalidMatchTransition  = errors.New("invalid match status transition")
	ErrTiedScore               = errors.New("match scores must differ before finishing")

	// Conflicts.
	ErrEmailConflict        = errors.New("email address is already in use")
	ErrRegistrationConflict = errors.New("user is already registered for this tournament")
	ErrPersistenceConflict  = errors.New("storage write conflicted, retry the action")

	// Authentication and authorization.
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
)

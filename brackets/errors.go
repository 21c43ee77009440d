package brackets

import "errors"

var (
	// Seeding input errors.
	ErrNoParticipants       = errors.New("participant list is empty")
	ErrDuplicateParticipant = errors.New("participant list contains duplicate identities")
	ErrUnknownSeedingMethod = errors.New("unknown seeding method")

	// Build errors.
	ErrInsufficientParticipants = errors.New("at least 2 participants are required")
	ErrUnknownFormat            = errors.New("unknown bracket format")

	// Progression errors.
	ErrMatchNotFound     = errors.New("match not found in bracket")
	ErrInvalidTransition = errors.New("invalid match status transition")
	ErrTiedScore         = errors.New("match cannot finish with a tied score")
	ErrSlotOutOfRange    = errors.New("slot must be 1 or 2")
)

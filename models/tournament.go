package models

import (
	"time"

	"github.com/cuesports/tournament-hub/brackets"
)

// TournamentStatus follows the lifecycle upcoming -> live -> completed.
// Registration being open is a sub-state of upcoming, tracked by
// RegistrationOpen.
type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentLive      TournamentStatus = "live"
	TournamentCompleted TournamentStatus = "completed"
)

// TournamentSettings is stored as a JSON column on the tournament row.
type TournamentSettings struct {
	SeedingMethod   brackets.SeedingMethod `json:"seeding_method"`
	MatchFormat     string                 `json:"match_format"` // advisory, e.g. "race-to-7"
	CheckInRequired bool                   `json:"check_in_required"`
	CheckInDeadline *time.Time             `json:"check_in_deadline,omitempty"`
}

type Tournament struct {
	ID              int              `json:"id" db:"id"`
	Title           string           `json:"title" db:"title"`
	Description     *string          `json:"description,omitempty" db:"description"`
	Location        *string          `json:"location,omitempty" db:"location"`
	EntryFee        *string          `json:"entry_fee,omitempty" db:"entry_fee"`
	Prize           *string          `json:"prize,omitempty" db:"prize"`
	MaxParticipants int              `json:"max_participants" db:"max_participants"`
	Status          TournamentStatus `json:"status" db:"status"`
	RegistrationOpen bool            `json:"registration_open" db:"registration_open"`

	BracketType        *brackets.Format `json:"bracket_type,omitempty" db:"bracket_type"`
	BracketGenerated   bool             `json:"bracket_generated" db:"bracket_generated"`
	BracketGeneratedAt *time.Time       `json:"bracket_generated_at,omitempty" db:"bracket_generated_at"`

	Settings TournamentSettings `json:"settings" db:"-"`

	CreatedBy   int        `json:"created_by" db:"created_by"`
	StartDate   time.Time  `json:"start_date" db:"start_date"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	// Related entities, loaded on demand.
	Bracket      *brackets.Bracket `json:"bracket,omitempty" db:"-"`
	Participants []Participant     `json:"participants,omitempty" db:"-"`
	Matches      []Match           `json:"matches,omitempty" db:"-"`
}

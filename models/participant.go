package models

import "time"

// Participant is a confirmed entry of a user into one tournament.
// The seed is assigned at bracket generation time and stays fixed until
// the bracket is regenerated.
type Participant struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	UserID       int        `json:"user_id" db:"user_id"`
	Name         string     `json:"name" db:"name"`
	Ranking      int        `json:"ranking" db:"ranking"`
	SkillLevel   SkillLevel `json:"skill_level" db:"skill_level"`
	Seed         *int       `json:"seed,omitempty" db:"seed"`
	Paid         bool       `json:"paid" db:"paid"`
	CheckedIn    bool       `json:"checked_in" db:"checked_in"`
	Reference    string     `json:"reference" db:"reference"`
	RegisteredAt time.Time  `json:"registered_at" db:"registered_at"`
}

package models

import (
	"time"

	"github.com/cuesports/tournament-hub/brackets"
)

// MatchStatus is owned by the bracket engine; the stored match row
// mirrors it.
type MatchStatus = brackets.MatchStatus

const (
	MatchPending   = brackets.StatusPending
	MatchReady     = brackets.StatusReady
	MatchLive      = brackets.StatusLive
	MatchPaused    = brackets.StatusPaused
	MatchCompleted = brackets.StatusCompleted
)

// Match is the stored, independently-identified record of one bracket
// match. BracketUID ties the row back to its position in the bracket
// template owned by the tournament.
type Match struct {
	ID           int    `json:"id" db:"id"`
	TournamentID int    `json:"tournament_id" db:"tournament_id"`
	BracketUID   string `json:"bracket_uid" db:"bracket_uid"`
	Branch       string `json:"branch,omitempty" db:"branch"`
	Round        int    `json:"round" db:"round"`
	OrderInRound int    `json:"order_in_round" db:"order_in_round"`

	P1ParticipantID *int `json:"p1_participant_id,omitempty" db:"p1_participant_id"`
	P2ParticipantID *int `json:"p2_participant_id,omitempty" db:"p2_participant_id"`
	P1Bye           bool `json:"p1_bye" db:"p1_bye"`
	P2Bye           bool `json:"p2_bye" db:"p2_bye"`

	ScoreP1 int `json:"score_p1" db:"score_p1"`
	ScoreP2 int `json:"score_p2" db:"score_p2"`

	Status              MatchStatus `json:"status" db:"status"`
	WinnerParticipantID *int        `json:"winner_participant_id,omitempty" db:"winner_participant_id"`
	Table               *int        `json:"table,omitempty" db:"table_number"`

	StartedAt *time.Time `json:"started_at,omitempty" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

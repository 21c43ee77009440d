package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/cuesports/tournament-hub/brackets"
	"github.com/cuesports/tournament-hub/models"
)

// Broadcaster pushes live updates to subscribed clients. Satisfied by
// *brackets.Hub; faked in tests.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

// tournamentRoom is the hub room key for one tournament.
func tournamentRoom(tournamentID int) string {
	return strconv.Itoa(tournamentID)
}

// runInTx executes fn inside a transaction, committing on success and
// rolling back on error or panic.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// entriesFromParticipants converts stored participants into the bracket
// engine's entry representation, in the given order.
func entriesFromParticipants(participants []*models.Participant) []brackets.Entry {
	entries := make([]brackets.Entry, 0, len(participants))
	for _, p := range participants {
		entries = append(entries, brackets.Entry{
			ParticipantID: p.ID,
			Name:          p.Name,
			Ranking:       p.Ranking,
		})
	}
	return entries
}

// matchRowFromTemplate creates the stored match record for one bracket
// template match. The bracket UID is the stable link between the two.
func matchRowFromTemplate(tournamentID int, tm *brackets.Match) *models.Match {
	row := &models.Match{
		TournamentID: tournamentID,
		BracketUID:   tm.UID,
		Branch:       string(tm.Branch),
		Round:        tm.Round,
		OrderInRound: tm.OrderInRound,
		Status:       tm.Status,
	}
	applyTemplateToRow(row, tm)
	return row
}

// applyTemplateToRow copies the play state of a template match onto its
// stored row.
func applyTemplateToRow(row *models.Match, tm *brackets.Match) {
	row.P1ParticipantID = copyIntPtr(tm.Slots[0].ParticipantID)
	row.P2ParticipantID = copyIntPtr(tm.Slots[1].ParticipantID)
	row.P1Bye = tm.Slots[0].Bye
	row.P2Bye = tm.Slots[1].Bye
	row.ScoreP1 = tm.Slots[0].Score
	row.ScoreP2 = tm.Slots[1].Score
	row.Status = tm.Status
	row.WinnerParticipantID = copyIntPtr(tm.WinnerID)
	row.StartedAt = tm.StartedAt
	row.EndedAt = tm.EndedAt
}

func copyIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// mapBracketError translates bracket engine errors into the service
// error taxonomy.
func mapBracketError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, brackets.ErrMatchNotFound):
		return fmt.Errorf("%w: %v", ErrMatchNotFound, err)
	case errors.Is(err, brackets.ErrTiedScore):
		return fmt.Errorf("%w: %v", ErrTiedScore, err)
	case errors.Is(err, brackets.ErrInvalidTransition):
		return fmt.Errorf("%w: %v", ErrInvalidMatchTransition, err)
	case errors.Is(err, brackets.ErrInsufficientParticipants):
		return ErrNotEnoughParticipants
	case errors.Is(err, brackets.ErrNoParticipants),
		errors.Is(err, brackets.ErrDuplicateParticipant),
		errors.Is(err, brackets.ErrUnknownSeedingMethod),
		errors.Is(err, brackets.ErrUnknownFormat),
		errors.Is(err, brackets.ErrSlotOutOfRange):
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	default:
		return err
	}
}

func participantsToValues(slice []*models.Participant) []models.Participant {
	result := make([]models.Participant, 0, len(slice))
	for _, ptr := range slice {
		if ptr != nil {
			result = append(result, *ptr)
		}
	}
	return result
}

func matchesToValues(slice []*models.Match) []models.Match {
	result := make([]models.Match, 0, len(slice))
	for _, ptr := range slice {
		if ptr != nil {
			result = append(result, *ptr)
		}
	}
	return result
}

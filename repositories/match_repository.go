package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cuesports/tournament-hub/models"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	// ErrMatchNotLive is returned by IncrementScore when the guarded
	// update matched no live row: the match either does not exist or
	// is not currently live.
	ErrMatchNotLive = errors.New("match is not live")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	GetByBracketUID(ctx context.Context, tournamentID int, uid string) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)
	ListLive(ctx context.Context) ([]*models.Match, error)
	IncrementScore(ctx context.Context, id int, slot int) (*models.Match, error)
	UpdateState(ctx context.Context, exec SQLExecutor, match *models.Match) error
	UpdateTable(ctx context.Context, id int, table *int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, tournament_id, bracket_uid, branch, round, order_in_round,
	p1_participant_id, p2_participant_id, p1_bye, p2_bye, score_p1, score_p2,
	status, winner_participant_id, table_number, started_at, ended_at, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, bracket_uid, branch, round, order_in_round,
			 p1_participant_id, p2_participant_id, p1_bye, p2_bye,
			 score_p1, score_p2, status, winner_participant_id, table_number,
			 started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at`

	return exec.QueryRowContext(ctx, query,
		match.TournamentID,
		match.BracketUID,
		match.Branch,
		match.Round,
		match.OrderInRound,
		match.P1ParticipantID,
		match.P2ParticipantID,
		match.P1Bye,
		match.P2Bye,
		match.ScoreP1,
		match.ScoreP2,
		match.Status,
		match.WinnerParticipantID,
		match.Table,
		match.StartedAt,
		match.EndedAt,
	).Scan(&match.ID, &match.CreatedAt)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := fmt.Sprintf(`SELECT %s FROM matches WHERE id = $1`, matchColumns)
	return r.scanMatch(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetByBracketUID(ctx context.Context, tournamentID int, uid string) (*models.Match, error) {
	query := fmt.Sprintf(`SELECT %s FROM matches WHERE tournament_id = $1 AND bracket_uid = $2`, matchColumns)
	return r.scanMatch(r.db.QueryRowContext(ctx, query, tournamentID, uid))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	var query strings.Builder
	query.WriteString(fmt.Sprintf(`SELECT %s FROM matches WHERE tournament_id = $1`, matchColumns))

	args := []interface{}{tournamentID}
	if round != nil {
		args = append(args, *round)
		query.WriteString(" AND round = $" + strconv.Itoa(len(args)))
	}
	if status != nil {
		args = append(args, *status)
		query.WriteString(" AND status = $" + strconv.Itoa(len(args)))
	}
	query.WriteString(" ORDER BY branch, round ASC, order_in_round ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches of tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *postgresMatchRepository) ListLive(ctx context.Context) ([]*models.Match, error) {
	query := fmt.Sprintf(`SELECT %s FROM matches WHERE status = 'live' ORDER BY started_at DESC NULLS LAST, id ASC`, matchColumns)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query live matches: %w", err)
	}
	defer rows.Close()
	return r.collect(rows)
}

// IncrementScore applies the delta in a single guarded UPDATE so
// concurrent operators never lose increments to stale reads. The
// status guard makes the store the authority on whether scoring is
// currently legal.
func (r *postgresMatchRepository) IncrementScore(ctx context.Context, id int, slot int) (*models.Match, error) {
	column := "score_p1"
	if slot == 2 {
		column = "score_p2"
	}
	query := fmt.Sprintf(`
		UPDATE matches SET %s = %s + 1
		WHERE id = $1 AND status = 'live'
		RETURNING %s`, column, column, matchColumns)

	match, err := r.scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return nil, ErrMatchNotLive
		}
		return nil, err
	}
	return match, nil
}

// UpdateState persists the mutable play state of one match row:
// participants (filled by propagation), scores, status, winner and
// timestamps.
func (r *postgresMatchRepository) UpdateState(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches
		SET p1_participant_id = $1, p2_participant_id = $2, p1_bye = $3, p2_bye = $4,
		    score_p1 = $5, score_p2 = $6, status = $7, winner_participant_id = $8,
		    started_at = $9, ended_at = $10
		WHERE id = $11`

	result, err := exec.ExecContext(ctx, query,
		match.P1ParticipantID,
		match.P2ParticipantID,
		match.P1Bye,
		match.P2Bye,
		match.ScoreP1,
		match.ScoreP2,
		match.Status,
		match.WinnerParticipantID,
		match.StartedAt,
		match.EndedAt,
		match.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update match %d: %w", match.ID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateTable(ctx context.Context, id int, table *int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE matches SET table_number = $1 WHERE id = $2`, table, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	_, err := exec.ExecContext(ctx, `DELETE FROM matches WHERE tournament_id = $1`, tournamentID)
	return err
}

func (r *postgresMatchRepository) scanMatch(row *sql.Row) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.BracketUID, &m.Branch, &m.Round, &m.OrderInRound,
		&m.P1ParticipantID, &m.P2ParticipantID, &m.P1Bye, &m.P2Bye,
		&m.ScoreP1, &m.ScoreP2, &m.Status, &m.WinnerParticipantID, &m.Table,
		&m.StartedAt, &m.EndedAt, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	return m, nil
}

func (r *postgresMatchRepository) collect(rows *sql.Rows) ([]*models.Match, error) {
	matches := make([]*models.Match, 0)
	for rows.Next() {
		m := &models.Match{}
		if err := rows.Scan(
			&m.ID, &m.TournamentID, &m.BracketUID, &m.Branch, &m.Round, &m.OrderInRound,
			&m.P1ParticipantID, &m.P2ParticipantID, &m.P1Bye, &m.P2Bye,
			&m.ScoreP1, &m.ScoreP2, &m.Status, &m.WinnerParticipantID, &m.Table,
			&m.StartedAt, &m.EndedAt, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cuesports/tournament-hub/brackets"
	"github.com/cuesports/tournament-hub/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error)
	Update(ctx context.Context, t *models.Tournament) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus, at time.Time) error
	SetRegistrationOpen(ctx context.Context, id int, open bool) error
	SaveBracket(ctx context.Context, exec SQLExecutor, id int, bracket *brackets.Bracket) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	ListCheckInExpired(ctx context.Context, now time.Time) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, title, description, location, entry_fee, prize, max_participants,
	status, registration_open, bracket_type, bracket_generated, bracket_generated_at,
	settings, bracket, created_by, start_date, started_at, completed_at, logo_key, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal tournament settings: %w", err)
	}

	query := `
		INSERT INTO tournaments
			(title, description, location, entry_fee, prize, max_participants,
			 status, registration_open, settings, created_by, start_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		t.Title,
		t.Description,
		t.Location,
		t.EntryFee,
		t.Prize,
		t.MaxParticipants,
		t.Status,
		t.RegistrationOpen,
		settings,
		t.CreatedBy,
		t.StartDate,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := fmt.Sprintf(`SELECT %s FROM tournaments WHERE id = $1`, tournamentColumns)
	t, err := scanTournament(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	var query strings.Builder
	query.WriteString(fmt.Sprintf(`SELECT %s FROM tournaments`, tournamentColumns))

	args := []interface{}{}
	if status != nil {
		args = append(args, *status)
		query.WriteString(" WHERE status = $1")
	}
	query.WriteString(" ORDER BY start_date DESC, id DESC")
	args = append(args, limit, offset)
	query.WriteString(" LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args)))

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournamentRows(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal tournament settings: %w", err)
	}

	query := `
		UPDATE tournaments
		SET title = $1, description = $2, location = $3, entry_fee = $4, prize = $5,
		    max_participants = $6, registration_open = $7, settings = $8, start_date = $9,
		    logo_key = $10
		WHERE id = $11`

	result, err := r.db.ExecContext(ctx, query,
		t.Title,
		t.Description,
		t.Location,
		t.EntryFee,
		t.Prize,
		t.MaxParticipants,
		t.RegistrationOpen,
		settings,
		t.StartDate,
		t.LogoKey,
		t.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus, at time.Time) error {
	var query string
	switch status {
	case models.TournamentLive:
		query = `UPDATE tournaments SET status = $1, registration_open = FALSE, started_at = $2 WHERE id = $3`
	case models.TournamentCompleted:
		query = `UPDATE tournaments SET status = $1, registration_open = FALSE, completed_at = $2 WHERE id = $3`
	default:
		query = `UPDATE tournaments SET status = $1 WHERE id = $2`
		result, err := exec.ExecContext(ctx, query, status, id)
		if err != nil {
			return err
		}
		return checkAffectedRows(result, ErrTournamentNotFound)
	}
	result, err := exec.ExecContext(ctx, query, status, at, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetRegistrationOpen(ctx context.Context, id int, open bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tournaments SET registration_open = $1 WHERE id = $2`, open, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// SaveBracket stores the bracket template JSON and flips the generated
// flag. Passing a nil bracket clears it (used before regeneration).
func (r *postgresTournamentRepository) SaveBracket(ctx context.Context, exec SQLExecutor, id int, bracket *brackets.Bracket) error {
	if bracket == nil {
		result, err := exec.ExecContext(ctx, `
			UPDATE tournaments
			SET bracket = NULL, bracket_type = NULL, bracket_generated = FALSE, bracket_generated_at = NULL
			WHERE id = $1`, id)
		if err != nil {
			return err
		}
		return checkAffectedRows(result, ErrTournamentNotFound)
	}

	data, err := json.Marshal(bracket)
	if err != nil {
		return fmt.Errorf("failed to marshal bracket: %w", err)
	}
	result, err := exec.ExecContext(ctx, `
		UPDATE tournaments
		SET bracket = $1, bracket_type = $2, bracket_generated = TRUE, bracket_generated_at = $3
		WHERE id = $4`,
		data, bracket.Format, bracket.GeneratedAt, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// ListCheckInExpired returns upcoming tournaments whose check-in
// deadline has passed while registration is still open. The deadline
// lives inside the settings JSON.
func (r *postgresTournamentRepository) ListCheckInExpired(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tournaments
		WHERE status = 'upcoming'
		  AND registration_open = TRUE
		  AND (settings->>'check_in_deadline') IS NOT NULL
		  AND (settings->>'check_in_deadline')::timestamptz <= $1`, tournamentColumns)

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired check-in tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournamentRows(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTournament(row *sql.Row) (*models.Tournament, error) {
	return scanTournamentFrom(row)
}

func scanTournamentRows(rows *sql.Rows) (*models.Tournament, error) {
	return scanTournamentFrom(rows)
}

func scanTournamentFrom(s rowScanner) (*models.Tournament, error) {
	t := &models.Tournament{}
	var settingsData, bracketData []byte
	var bracketType sql.NullString

	err := s.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Location,
		&t.EntryFee,
		&t.Prize,
		&t.MaxParticipants,
		&t.Status,
		&t.RegistrationOpen,
		&bracketType,
		&t.BracketGenerated,
		&t.BracketGeneratedAt,
		&settingsData,
		&bracketData,
		&t.CreatedBy,
		&t.StartDate,
		&t.StartedAt,
		&t.CompletedAt,
		&t.LogoKey,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if bracketType.Valid {
		f := brackets.Format(bracketType.String)
		t.BracketType = &f
	}
	if len(settingsData) > 0 {
		if err := json.Unmarshal(settingsData, &t.Settings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal settings of tournament %d: %w", t.ID, err)
		}
	}
	if len(bracketData) > 0 {
		var b brackets.Bracket
		if err := json.Unmarshal(bracketData, &b); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bracket of tournament %d: %w", t.ID, err)
		}
		t.Bracket = &b
	}
	return t, nil
}

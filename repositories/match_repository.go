package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-live/models"
	"github.com/google/uuid"
)

type MatchRepository interface {
	// CreateBatch вставляет все матчи сетки в рамках транзакции вызывающего:
	// частично записанная сетка не должна быть видна снаружи.
	CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Match, error)
	// SetWinner — условная запись победителя: проходит, только если победитель
	// ещё не записан. Проигрыш гонки — ErrWinnerAlreadySet.
	SetWinner(ctx context.Context, id, winnerID uuid.UUID) error
	// AssignSlot — условное заполнение слота (1 или 2): проходит, только если
	// слот ещё пуст. Проигрыш гонки — ErrSlotOccupied.
	AssignSlot(ctx context.Context, id uuid.UUID, slot int, playerID uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	query := `
		INSERT INTO matches (id, tournament_id, round, position, player1_id, player2_id, next_match_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	for _, m := range matches {
		err := exec.QueryRowContext(ctx, query,
			m.ID,
			m.TournamentID,
			m.Round,
			m.Position,
			m.Player1ID,
			m.Player2ID,
			m.NextMatchID,
		).Scan(&m.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert match %s (round %d): %w", m.ID, m.Round, err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	query := `
		SELECT id, tournament_id, round, position, player1_id, player2_id, winner_id, next_match_id, created_at
		FROM matches
		WHERE id = $1`

	match := &models.Match{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&match.ID,
		&match.TournamentID,
		&match.Round,
		&match.Position,
		&match.Player1ID,
		&match.Player2ID,
		&match.WinnerID,
		&match.NextMatchID,
		&match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %s: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Match, error) {
	query := `
		SELECT id, tournament_id, round, position, player1_id, player2_id, winner_id, next_match_id, created_at
		FROM matches
		WHERE tournament_id = $1
		ORDER BY round ASC, position ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(
			&m.ID,
			&m.TournamentID,
			&m.Round,
			&m.Position,
			&m.Player1ID,
			&m.Player2ID,
			&m.WinnerID,
			&m.NextMatchID,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) SetWinner(ctx context.Context, id, winnerID uuid.UUID) error {
	query := `UPDATE matches SET winner_id = $1 WHERE id = $2 AND winner_id IS NULL`
	result, err := r.db.ExecContext(ctx, query, winnerID, id)
	if err != nil {
		return fmt.Errorf("failed to set winner of match %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrWinnerAlreadySet)
}

func (r *postgresMatchRepository) AssignSlot(ctx context.Context, id uuid.UUID, slot int, playerID uuid.UUID) error {
	var query string
	switch slot {
	case 1:
		query = `UPDATE matches SET player1_id = $1 WHERE id = $2 AND player1_id IS NULL`
	case 2:
		query = `UPDATE matches SET player2_id = $1 WHERE id = $2 AND player2_id IS NULL`
	default:
		return fmt.Errorf("invalid match slot %d", slot)
	}

	result, err := r.db.ExecContext(ctx, query, playerID, id)
	if err != nil {
		return fmt.Errorf("failed to assign slot %d of match %s: %w", slot, id, err)
	}
	return checkAffectedRows(result, ErrSlotOccupied)
}

func (r *postgresMatchRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}

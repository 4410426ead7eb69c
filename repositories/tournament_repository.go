package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-live/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Tournament, error)
	AddPlayer(ctx context.Context, tournamentID, userID uuid.UUID) error
	// UpdateStatus — условный переход статуса: запись проходит, только если
	// текущий статус равен from. exec может быть nil (вне транзакции).
	UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, from, to models.TournamentStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context, status models.TournamentStatus) (int, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments (id, title, location, start_time, creator_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		tournament.ID,
		tournament.Title,
		tournament.Location,
		tournament.StartTime,
		tournament.CreatorID,
		tournament.Status,
	).Scan(&tournament.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	query := `
		SELECT id, title, location, start_time, creator_id, status, created_at
		FROM tournaments
		WHERE id = $1`

	tournament := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tournament.ID,
		&tournament.Title,
		&tournament.Location,
		&tournament.StartTime,
		&tournament.CreatorID,
		&tournament.Status,
		&tournament.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %s: %w", id, err)
	}

	players, err := r.loadPlayers(ctx, id)
	if err != nil {
		return nil, err
	}
	tournament.Players = players
	return tournament, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]*models.Tournament, error) {
	return r.list(ctx, `
		SELECT id, title, location, start_time, creator_id, status, created_at
		FROM tournaments
		ORDER BY created_at DESC`)
}

func (r *postgresTournamentRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Tournament, error) {
	return r.list(ctx, `
		SELECT id, title, location, start_time, creator_id, status, created_at
		FROM tournaments
		WHERE creator_id = $1
		ORDER BY created_at DESC`, creatorID)
}

func (r *postgresTournamentRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Tournament, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := rows.Scan(&t.ID, &t.Title, &t.Location, &t.StartTime, &t.CreatorID, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		tournaments = append(tournaments, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", err)
	}

	for _, t := range tournaments {
		players, err := r.loadPlayers(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		t.Players = players
	}
	return tournaments, nil
}

// loadPlayers возвращает участников в порядке регистрации.
func (r *postgresTournamentRepository) loadPlayers(ctx context.Context, tournamentID uuid.UUID) ([]models.User, error) {
	query := `
		SELECT u.id, u.email, u.username, u.created_at
		FROM tournament_players tp
		JOIN users u ON u.id = tp.user_id
		WHERE tp.tournament_id = $1
		ORDER BY tp.seq ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	players := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tournament player row: %w", err)
		}
		players = append(players, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player rows iteration: %w", err)
	}
	return players, nil
}

func (r *postgresTournamentRepository) AddPlayer(ctx context.Context, tournamentID, userID uuid.UUID) error {
	query := `INSERT INTO tournament_players (tournament_id, user_id) VALUES ($1, $2)`
	_, err := r.db.ExecContext(ctx, query, tournamentID, userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Constraint {
			case "tournament_players_pkey":
				return ErrAlreadyJoined
			case "tournament_players_tournament_id_fkey":
				return ErrTournamentNotFound
			case "tournament_players_user_id_fkey":
				return ErrUserNotFound
			}
		}
		return fmt.Errorf("failed to add player %s to tournament %s: %w", userID, tournamentID, err)
	}
	return nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, from, to models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.executor(exec).ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update status of tournament %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrStatusConflict)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Матчи и регистрации участников удаляются каскадом по внешним ключам.
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tournament %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) CountByStatus(ctx context.Context, status models.TournamentStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tournaments WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tournaments by status %s: %w", status, err)
	}
	return count, nil
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLExecutor покрывает *sql.DB и *sql.Tx: запись, которая должна попасть
// в транзакцию вызывающего, принимает его явно.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")

	ErrEmailTaken     = errors.New("email is already taken")
	ErrAlreadyJoined  = errors.New("user is already registered for this tournament")

	// Условная запись не прошла: поле уже занято другим значением.
	ErrWinnerAlreadySet = errors.New("match winner is already set")
	ErrSlotOccupied     = errors.New("match slot is already occupied")
	ErrStatusConflict   = errors.New("tournament status changed concurrently")
)

func checkAffectedRows(result sql.Result, notFoundErr error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundErr
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Match — плоская запись матча сетки. Bye-матч отличается только тем,
// что один из слотов пуст; отдельного типа для него нет.
type Match struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TournamentID uuid.UUID  `json:"tournament_id" db:"tournament_id"`
	Round        int        `json:"round" db:"round"`
	Position     int        `json:"position" db:"position"`
	Player1ID    *uuid.UUID `json:"player1_id,omitempty" db:"player1_id"`
	Player2ID    *uuid.UUID `json:"player2_id,omitempty" db:"player2_id"`
	WinnerID     *uuid.UUID `json:"winner_id,omitempty" db:"winner_id"`
	NextMatchID  *uuid.UUID `json:"next_match_id,omitempty" db:"next_match_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// HasPlayer сообщает, занимает ли участник один из слотов матча.
func (m *Match) HasPlayer(id uuid.UUID) bool {
	if m.Player1ID != nil && *m.Player1ID == id {
		return true
	}
	if m.Player2ID != nil && *m.Player2ID == id {
		return true
	}
	return false
}

// SolePlayer возвращает единственного заполненного участника матча
// (bye-случай) или nil, если заполнены оба слота или ни одного.
func (m *Match) SolePlayer() *uuid.UUID {
	if m.Player1ID != nil && m.Player2ID == nil {
		return m.Player1ID
	}
	if m.Player1ID == nil && m.Player2ID != nil {
		return m.Player2ID
	}
	return nil
}

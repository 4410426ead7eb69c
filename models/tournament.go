package models

import (
	"time"

	"github.com/google/uuid"
)

// TournamentStatus соответствует ENUM tournament_status в БД.
type TournamentStatus string

const (
	StatusPending  TournamentStatus = "pending"
	StatusStarted  TournamentStatus = "started"
	StatusFinished TournamentStatus = "finished"
)

type Tournament struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	Title     string           `json:"title" db:"title"`
	Location  *string          `json:"location,omitempty" db:"location"`
	StartTime time.Time        `json:"start_time" db:"start_time"`
	CreatorID uuid.UUID        `json:"creator_id" db:"creator_id"`
	Status    TournamentStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`

	// Players заполняется репозиторием в порядке регистрации.
	Players []User `json:"players,omitempty" db:"-"`
}

func (s TournamentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusStarted, StatusFinished:
		return true
	}
	return false
}

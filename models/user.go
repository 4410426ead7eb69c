package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	AvatarKey    *string   `json:"-" db:"avatar_key"`
	AvatarURL    *string   `json:"avatar_url,omitempty" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

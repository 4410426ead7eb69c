package services

import "errors"

// Общие ошибки сервисного слоя: возвращаются значениями и мапятся на
// HTTP-статусы в handlers.
var (
	// Ресурсы
	ErrUserNotFound       = errors.New("user not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")

	// Валидация и бизнес-правила
	ErrTournamentTitleRequired = errors.New("tournament title is required")
	ErrTournamentInvalidState  = errors.New("operation is not allowed in the current tournament status")
	ErrInsufficientPlayers     = errors.New("not enough players to generate the bracket (minimum 2)")
	ErrMatchAlreadyDecided     = errors.New("match winner is already recorded")
	ErrInvalidWinner           = errors.New("winner must be one of the match players")
	ErrAlreadyJoined           = errors.New("you are already registered for this tournament")

	// Аутентификация и авторизация
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrPasswordTooShort       = errors.New("password must be at least 8 characters")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Хранилище
	ErrStoreConflict    = errors.New("concurrent write conflict, please retry")
	ErrStoreUnavailable = errors.New("storage is temporarily unavailable, please retry")
)

package brackets

import "github.com/google/uuid"

// EventType — тип события, рассылаемого подписчикам.
type EventType string

const (
	EventTournamentCreated EventType = "TOURNAMENT_CREATED"
	EventTournamentDeleted EventType = "TOURNAMENT_DELETED"
	EventParticipantJoined EventType = "PARTICIPANT_JOINED"
	EventStatusChanged     EventType = "STATUS_CHANGED"
	EventBracketGenerated  EventType = "BRACKET_GENERATED"
	EventMatchUpdated      EventType = "MATCH_UPDATED"
	EventLoader            EventType = "LOADER"
	EventOnlineUsers       EventType = "ONLINE_USERS"
)

type Message struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
	RoomID  string      `json:"room_id,omitempty"`
}

// LoaderPayload — транзиентный флаг "операция выполняется", по нему клиент
// показывает/прячет индикатор ожидания при генерации сетки и записи результата.
type LoaderPayload struct {
	Scope        string     `json:"scope"`
	Active       bool       `json:"active"`
	TournamentID *uuid.UUID `json:"tournament_id,omitempty"`
}

// TournamentRoom возвращает ID комнаты для турнира.
func TournamentRoom(tournamentID uuid.UUID) string {
	return "tournament_" + tournamentID.String()
}

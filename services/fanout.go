package services

import "github.com/Dosada05/bracket-live/brackets"

// Broadcaster — то, что сервисам нужно от Presence & Fan-out Hub.
// Реализуется *brackets.Hub; тесты подставляют запись событий.
type Broadcaster interface {
	BroadcastAll(msg brackets.Message)
	BroadcastToRoom(roomID string, msg brackets.Message)
}

package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/bracket-live/brackets"
	"github.com/Dosada05/bracket-live/models"
	"github.com/Dosada05/bracket-live/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeHub struct {
	mu    sync.Mutex
	all   []brackets.Message
	rooms map[string][]brackets.Message
}

func newFakeHub() *fakeHub {
	return &fakeHub{rooms: make(map[string][]brackets.Message)}
}

func (f *fakeHub) BroadcastAll(msg brackets.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.all = append(f.all, msg)
}

func (f *fakeHub) BroadcastToRoom(roomID string, msg brackets.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.RoomID = roomID
	f.rooms[roomID] = append(f.rooms[roomID], msg)
}

func (f *fakeHub) allMessages() []brackets.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]brackets.Message(nil), f.all...)
}

func (f *fakeHub) roomMessages(roomID string) []brackets.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]brackets.Message(nil), f.rooms[roomID]...)
}

func (f *fakeHub) roomMessagesOfType(roomID string, eventType brackets.EventType) []brackets.Message {
	out := make([]brackets.Message, 0)
	for _, msg := range f.roomMessages(roomID) {
		if msg.Type == eventType {
			out = append(out, msg)
		}
	}
	return out
}

func seedUser(t *testing.T, store *repositories.InMemoryStore, email string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     email,
		PasswordHash: "x",
	}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func seedTournament(t *testing.T, store *repositories.InMemoryStore, creatorID uuid.UUID, status models.TournamentStatus, playerCount int) (*models.Tournament, []uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	tournament := &models.Tournament{
		ID:        uuid.New(),
		Title:     "Test Cup",
		StartTime: time.Now().Add(time.Hour),
		CreatorID: creatorID,
		Status:    status,
	}
	require.NoError(t, store.Tournaments().Create(ctx, tournament))

	players := make([]uuid.UUID, 0, playerCount)
	for i := 0; i < playerCount; i++ {
		u := seedUser(t, store, uuid.NewString()+"@example.com")
		require.NoError(t, store.Tournaments().AddPlayer(ctx, tournament.ID, u.ID))
		players = append(players, u.ID)
	}
	return tournament, players
}

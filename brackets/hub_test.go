package brackets

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, userID uuid.UUID, room string) *Client {
	return &Client{
		Hub:    hub,
		Send:   make(chan []byte, 16),
		UserID: userID,
		Room:   room,
	}
}

func drain(c *Client) []Message {
	var out []Message
	for {
		select {
		case data := <-c.Send:
			var msg Message
			if err := json.Unmarshal(data, &msg); err == nil {
				out = append(out, msg)
			}
		default:
			return out
		}
	}
}

func TestHubJoinLeaveOnlineUsers(t *testing.T) {
	hub := NewHub()
	alice, bob := uuid.New(), uuid.New()

	c1 := newTestClient(hub, alice, "")
	c2 := newTestClient(hub, bob, "")
	hub.Join(c1)
	hub.Join(c2)
	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, hub.OnlineUserIDs())

	hub.Leave(c2)
	assert.ElementsMatch(t, []uuid.UUID{alice}, hub.OnlineUserIDs())

	hub.Leave(c1)
	assert.Empty(t, hub.OnlineUserIDs())
}

func TestHubMultipleConnectionsPerUser(t *testing.T) {
	hub := NewHub()
	alice := uuid.New()

	c1 := newTestClient(hub, alice, "")
	c2 := newTestClient(hub, alice, "")
	hub.Join(c1)
	hub.Join(c2)
	assert.ElementsMatch(t, []uuid.UUID{alice}, hub.OnlineUserIDs())

	// Пользователь считается офлайн только после закрытия всех подключений.
	hub.Leave(c1)
	assert.ElementsMatch(t, []uuid.UUID{alice}, hub.OnlineUserIDs())
	hub.Leave(c2)
	assert.Empty(t, hub.OnlineUserIDs())
}

func TestHubBroadcastAllReachesEveryConnection(t *testing.T) {
	hub := NewHub()
	c1 := newTestClient(hub, uuid.New(), "")
	c2 := newTestClient(hub, uuid.New(), "room-a")
	hub.Join(c1)
	hub.Join(c2)
	drain(c1)
	drain(c2)

	hub.BroadcastAll(Message{Type: EventStatusChanged, Payload: "x"})

	for _, c := range []*Client{c1, c2} {
		msgs := drain(c)
		require.Len(t, msgs, 1)
		assert.Equal(t, EventStatusChanged, msgs[0].Type)
	}
}

func TestHubBroadcastToRoomIsolation(t *testing.T) {
	hub := NewHub()
	roomA := TournamentRoom(uuid.New())
	roomB := TournamentRoom(uuid.New())

	inA := newTestClient(hub, uuid.New(), roomA)
	inB := newTestClient(hub, uuid.New(), roomB)
	noRoom := newTestClient(hub, uuid.New(), "")
	hub.Join(inA)
	hub.Join(inB)
	hub.Join(noRoom)
	drain(inA)
	drain(inB)
	drain(noRoom)

	hub.BroadcastToRoom(roomA, Message{Type: EventMatchUpdated, Payload: "update"})

	msgs := drain(inA)
	require.Len(t, msgs, 1)
	assert.Equal(t, EventMatchUpdated, msgs[0].Type)
	assert.Equal(t, roomA, msgs[0].RoomID)

	assert.Empty(t, drain(inB))
	assert.Empty(t, drain(noRoom))
}

func TestHubPerConnectionOrdering(t *testing.T) {
	hub := NewHub()
	c := newTestClient(hub, uuid.New(), "")
	hub.Join(c)
	drain(c)

	for i := 0; i < 5; i++ {
		hub.BroadcastAll(Message{Type: EventMatchUpdated, Payload: i})
	}

	msgs := drain(c)
	require.Len(t, msgs, 5)
	for i, msg := range msgs {
		assert.Equal(t, float64(i), msg.Payload)
	}
}

func TestHubSlowConsumerDoesNotBlock(t *testing.T) {
	hub := NewHub()
	slow := &Client{Hub: hub, Send: make(chan []byte, 1), UserID: uuid.New()}
	hub.Join(slow)
	drain(slow)

	// Переполнение канала не блокирует рассылку: лишние сообщения
	// отбрасываются.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.BroadcastAll(Message{Type: EventMatchUpdated, Payload: i})
		}
		close(done)
	}()
	<-done

	assert.LessOrEqual(t, len(drain(slow)), 1)
}

func TestHubOnlineUsersBroadcastOnJoin(t *testing.T) {
	hub := NewHub()
	c1 := newTestClient(hub, uuid.New(), "")
	hub.Join(c1)

	msgs := drain(c1)
	require.NotEmpty(t, msgs)
	assert.Equal(t, EventOnlineUsers, msgs[len(msgs)-1].Type)
}

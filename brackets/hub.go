package brackets

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client — одно WebSocket-подключение зрителя. У одного пользователя может
// быть несколько подключений одновременно (несколько вкладок).
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uuid.UUID
	Room   string

	mu     sync.Mutex
	closed bool
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

func (c *Client) trySend(message []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- message:
	default:
		// Канал клиента переполнен — доставка best-effort, сообщение
		// пропускается, клиент синхронизируется повторной загрузкой.
	}
}

// Hub хранит реестр подключённых зрителей и рассылает события. Состояние
// только в памяти процесса: после рестарта клиенты переподключаются и
// перечитывают авторитативное состояние из хранилища.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	actors map[uuid.UUID]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		actors: make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Join регистрирует подключение под ID пользователя и, если задана комната,
// подписывает его на неё. Повторный Join того же пользователя с другим
// подключением добавляет ещё один канал доставки.
func (h *Hub) Join(client *Client) {
	h.mu.Lock()
	if _, ok := h.actors[client.UserID]; !ok {
		h.actors[client.UserID] = make(map[*Client]struct{})
	}
	h.actors[client.UserID][client] = struct{}{}
	if client.Room != "" {
		if _, ok := h.rooms[client.Room]; !ok {
			h.rooms[client.Room] = make(map[*Client]struct{})
		}
		h.rooms[client.Room][client] = struct{}{}
	}
	total := len(h.actors)
	h.mu.Unlock()

	log.Printf("client %s joined (room %q), %d users online", client.UserID, client.Room, total)
	h.broadcastOnlineUsers()
}

// Leave убирает конкретное подключение; другие подключения того же
// пользователя продолжают получать события.
func (h *Hub) Leave(client *Client) {
	h.mu.Lock()
	if client.Room != "" {
		if room, ok := h.rooms[client.Room]; ok {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, client.Room)
			}
		}
	}
	if conns, ok := h.actors[client.UserID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.actors, client.UserID)
		}
	}
	h.mu.Unlock()

	client.closeSend()
	h.broadcastOnlineUsers()
}

// OnlineUserIDs возвращает пользователей, у которых есть хотя бы одно
// живое подключение.
func (h *Hub) OnlineUserIDs() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(h.actors))
	for id := range h.actors {
		ids = append(ids, id)
	}
	return ids
}

// BroadcastAll доставляет сообщение каждому зарегистрированному
// подключению. Порядок гарантируется только в пределах одного подключения.
func (h *Hub) BroadcastAll(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal %s message: %v", msg.Type, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conns := range h.actors {
		for client := range conns {
			client.trySend(data)
		}
	}
}

// BroadcastToRoom доставляет сообщение всем подписчикам комнаты.
func (h *Hub) BroadcastToRoom(roomID string, msg Message) {
	msg.RoomID = roomID
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal %s message for room %s: %v", msg.Type, roomID, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[roomID] {
		client.trySend(data)
	}
}

func (h *Hub) broadcastOnlineUsers() {
	h.BroadcastAll(Message{Type: EventOnlineUsers, Payload: h.OnlineUserIDs()})
}

// ReadPump читает входящие фреймы (и отвечает на ping/pong); прикладных
// сообщений от клиентов нет, соединение используется только на доставку.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Leave(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("client %s read error: %v", c.UserID, err)
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Добираем накопившиеся сообщения в тот же фрейм записи,
			// сохраняя их порядок.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

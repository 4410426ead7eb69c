package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dosada05/bracket-live/brackets"
	"github.com/Dosada05/bracket-live/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin фильтруется CORS-слоем, апгрейд разрешаем всем.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub       *brackets.Hub
	jwtSecret string
}

func NewWebSocketHandler(hub *brackets.Hub, jwtSecret string) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, jwtSecret: jwtSecret}
}

// Serve апгрейдит соединение и регистрирует его в хабе. Токен принимается
// query-параметром token (браузерный WebSocket не умеет заголовки) либо
// заголовком Authorization. Необязательный tournament_id подписывает
// подключение на комнату турнира.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		if header := r.Header.Get("Authorization"); header != "" {
			tokenString, _ = strings.CutPrefix(header, "Bearer ")
		}
	}
	if tokenString == "" {
		unauthorizedResponse(w, r, "authentication token is required")
		return
	}

	claims, err := middleware.ParseToken(tokenString, h.jwtSecret)
	if err != nil {
		unauthorizedResponse(w, r, "invalid authentication token")
		return
	}
	userID, err := middleware.UserIDFromClaims(claims)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var room string
	if raw := r.URL.Query().Get("tournament_id"); raw != "" {
		tournamentID, err := uuid.Parse(raw)
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		room = brackets.TournamentRoom(tournamentID)
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err, "user_id", userID)
		return
	}

	client := &brackets.Client{
		Hub:    h.hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: userID,
		Room:   room,
	}
	h.hub.Join(client)

	go client.WritePump()
	go client.ReadPump()
}

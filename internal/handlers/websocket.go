package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"readalong-backend/internal/middleware"
	"readalong-backend/internal/models"
	"readalong-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	pongWait       = 60 * time.Second
	maxInboundSize = 4 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // bearer token in the query authenticates the socket
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub       *services.WSHub
	validator middleware.TokenValidator
	chat      ChatService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, validator middleware.TokenValidator, chat ChatService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		validator: validator,
		chat:      chat,
	}
}

// HandleWebSocket handles GET /ws?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.validator)
	if err != nil {
		respondError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID := identity.UserID

	ctx := r.Context()
	groupIDs, err := h.chat.Subscriptions(ctx, userID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to load chat subscriptions")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := h.hub.Register(userID, groupIDs, conn)
	defer h.hub.Unregister(client)

	h.send(client, services.WSMessage{
		Type: services.WSTypeHello,
		Data: map[string]any{"group_ids": groupIDs},
	})

	conn.SetReadLimit(maxInboundSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg services.WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendError(client, "Invalid message format")
			continue
		}
		h.handleMessage(ctx, client, msg)
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, client *services.WSClient, msg services.WSMessage) {
	switch msg.Type {
	case services.WSTypePing:
		h.send(client, services.WSMessage{Type: services.WSTypePong})
	case services.WSTypeResync:
		h.handleResync(ctx, client, msg)
	default:
		h.sendError(client, "Unknown message type")
	}
}

// handleResync replays messages the client missed while disconnected as one
// chat_history event
func (h *WebSocketHandler) handleResync(ctx context.Context, client *services.WSClient, msg services.WSMessage) {
	if !client.InGroup(msg.GroupID) {
		h.sendError(client, services.ErrNotGroupMember.Error())
		return
	}

	afterID := msg.AfterID
	missed, err := h.chat.History(ctx, client.UserID, msg.GroupID, &afterID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", client.UserID).
			Str("group_id", msg.GroupID).
			Msg("Failed to resync chat")
		h.sendError(client, "Failed to load messages")
		return
	}

	if missed == nil {
		missed = []*models.ChatMessage{}
	}
	h.send(client, services.WSMessage{Type: services.WSTypeChatHistory, GroupID: msg.GroupID, Data: missed})
}

func (h *WebSocketHandler) send(client *services.WSClient, msg services.WSMessage) {
	if err := h.hub.Send(client, msg); err != nil {
		log.Debug().Err(err).Str("user_id", client.UserID).Str("type", msg.Type).Msg("Failed to send WebSocket message")
	}
}

// sendError sends an error event to the connection
func (h *WebSocketHandler) sendError(client *services.WSClient, message string) {
	h.send(client, services.WSMessage{Type: services.WSTypeError, Message: message})
}

package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"readalong-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocket event types
const (
	WSTypeHello       = "hello"
	WSTypeChatMessage = "chat_message"
	WSTypeChatHistory = "chat_history"
	WSTypeGroupJoined = "group_joined"
	WSTypeResync      = "resync"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeError       = "error"
)

const (
	sendBufferSize = 64
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	GroupID string      `json:"group_id,omitempty"`
	AfterID int64       `json:"after_id,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WSConn is the part of a websocket connection the hub writes to
type WSConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// WSClient is one registered connection. A user may hold several.
type WSClient struct {
	UserID   string
	mu       sync.RWMutex
	groupIDs map[string]struct{}
	conn     WSConn
	send     chan []byte
	done     chan struct{}
	once     sync.Once
}

// InGroup reports whether the client receives events for groupID
func (c *WSClient) InGroup(groupID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.groupIDs[groupID]
	return ok
}

func (c *WSClient) subscribe(groupID string) {
	c.mu.Lock()
	c.groupIDs[groupID] = struct{}{}
	c.mu.Unlock()
}

func (c *WSClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// writePump is the only writer on the connection
func (c *WSClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("user_id", c.UserID).Msg("WebSocket write failed")
				c.close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// WSHub manages WebSocket connections grouped by user
type WSHub struct {
	mu      sync.RWMutex
	clients map[string]map[*WSClient]struct{}
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		clients: make(map[string]map[*WSClient]struct{}),
	}
}

// Register adds a connection for a user subscribed to groupIDs
func (h *WSHub) Register(userID string, groupIDs []string, conn WSConn) *WSClient {
	client := &WSClient{
		UserID:   userID,
		groupIDs: make(map[string]struct{}, len(groupIDs)),
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}
	for _, id := range groupIDs {
		client.groupIDs[id] = struct{}{}
	}

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*WSClient]struct{})
	}
	h.clients[userID][client] = struct{}{}
	h.mu.Unlock()

	go client.writePump()

	log.Info().Str("user_id", userID).Strs("group_ids", groupIDs).Msg("WebSocket connection registered")
	return client
}

// Unregister removes and closes a connection
func (h *WSHub) Unregister(client *WSClient) {
	h.mu.Lock()
	if conns, ok := h.clients[client.UserID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	h.mu.Unlock()

	client.close()
	log.Info().Str("user_id", client.UserID).Msg("WebSocket connection unregistered")
}

// Send queues a message for one connection. A full buffer drops the
// connection; the client resyncs after reconnecting. Replays go out as a
// single chat_history event so they never fill the buffer.
func (h *WSHub) Send(client *WSClient, message WSMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	select {
	case <-client.done:
		return fmt.Errorf("connection for user %s is closed", client.UserID)
	default:
	}

	select {
	case client.send <- data:
		return nil
	default:
		log.Warn().Str("user_id", client.UserID).Msg("WebSocket send buffer full, dropping connection")
		h.Unregister(client)
		return fmt.Errorf("send buffer full for user %s", client.UserID)
	}
}

// SendToUser sends a message to every connection of a user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	conns := make([]*WSClient, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return fmt.Errorf("user %s is not connected", userID)
	}

	for _, c := range conns {
		if err := h.Send(c, message); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to send message")
		}
	}
	return nil
}

// JoinedGroup subscribes every open connection of a user to groupID and
// tells them about it
func (h *WSHub) JoinedGroup(userID, groupID string) {
	h.mu.RLock()
	online := len(h.clients[userID]) > 0
	for c := range h.clients[userID] {
		c.subscribe(groupID)
	}
	h.mu.RUnlock()

	if !online {
		return
	}
	if err := h.SendToUser(userID, WSMessage{Type: WSTypeGroupJoined, GroupID: groupID}); err != nil {
		log.Debug().Err(err).Str("user_id", userID).Str("group_id", groupID).Msg("Failed to announce group join")
	}
}

// PublishChat pushes a new chat message to every connection in its group
func (h *WSHub) PublishChat(msg *models.ChatMessage) {
	event := WSMessage{Type: WSTypeChatMessage, GroupID: msg.GroupID, Data: msg}

	h.mu.RLock()
	var targets []*WSClient
	for _, conns := range h.clients {
		for c := range conns {
			if c.InGroup(msg.GroupID) {
				targets = append(targets, c)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := h.Send(c, event); err != nil {
			log.Error().Err(err).Str("user_id", c.UserID).Int64("message_id", msg.ID).Msg("Failed to deliver chat message")
		}
	}
}

// IsOnline checks if a user has at least one connection
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// Close drops every connection
func (h *WSHub) Close() {
	h.mu.Lock()
	var all []*WSClient
	for _, conns := range h.clients {
		for c := range conns {
			all = append(all, c)
		}
	}
	h.clients = make(map[string]map[*WSClient]struct{})
	h.mu.Unlock()

	for _, c := range all {
		c.close()
	}
}

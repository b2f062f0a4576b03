package hub

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/weiawesome/lobby-chat/internal/broadcast"
	"github.com/weiawesome/lobby-chat/internal/config"
	"github.com/weiawesome/lobby-chat/internal/domain"
	"github.com/weiawesome/lobby-chat/pkg/log"
)

var (
	ErrUnknownClient = errors.New("hub: unknown client")
	ErrSlowConsumer  = errors.New("hub: client send buffer full")
)

// Hub tracks live WebSocket clients and the room audience. Every push into a
// client's Send channel happens under mu, so each client receives frames in
// the order the hub was called.
type Hub struct {
	clients map[string]*Client // clientID -> client
	room    map[string]*Client // clientID -> client, joined members only
	mu      sync.Mutex
	config  config.WebSocketConfig
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		room:    make(map[string]*Client),
		config:  cfg,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	l := log.L()
	l.Debug().Str(log.FieldConnectionID, client.ID).Msg("client registered")
}

// Unregister drops the client and closes its Send channel. Safe to call twice.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	removed := h.removeLocked(client.ID)
	h.mu.Unlock()

	if removed {
		l := log.L()
		l.Debug().Str(log.FieldConnectionID, client.ID).Msg("client unregistered")
	}
}

// Send queues env for one client.
func (h *Hub) Send(clientID string, env *domain.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return ErrUnknownClient
	}
	return h.pushLocked(client, data)
}

// Broadcast queues env for every room member except exclude.
func (h *Hub) Broadcast(env *domain.Envelope, exclude string) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for clientID, client := range h.room {
		if clientID == exclude {
			continue
		}
		h.pushLocked(client, data)
	}
	return nil
}

func (h *Hub) JoinRoom(clientID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return ErrUnknownClient
	}
	h.room[clientID] = client
	return nil
}

func (h *Hub) LeaveRoom(clientID string) {
	h.mu.Lock()
	delete(h.room, clientID)
	h.mu.Unlock()
}

// Close unregisters the client. Its write pump flushes what is already queued
// and then sends a close frame.
func (h *Hub) Close(clientID string) {
	h.mu.Lock()
	h.removeLocked(clientID)
	h.mu.Unlock()
}

// CloseAll closes every client. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for clientID := range h.clients {
		h.removeLocked(clientID)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) RoomSize() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.room)
}

func (h *Hub) pushLocked(client *Client, data []byte) error {
	select {
	case client.Send <- data:
		return nil
	default:
		l := log.L()
		l.Warn().Str(log.FieldConnectionID, client.ID).Msg("send buffer full, dropping client")
		h.removeLocked(client.ID)
		return ErrSlowConsumer
	}
}

func (h *Hub) removeLocked(clientID string) bool {
	client, ok := h.clients[clientID]
	if !ok {
		return false
	}
	delete(h.room, clientID)
	delete(h.clients, clientID)
	close(client.Send)
	return true
}

var _ broadcast.Gateway = (*Hub)(nil)

package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/weiawesome/lobby-chat/internal/config"
	"github.com/weiawesome/lobby-chat/internal/domain"
	"github.com/weiawesome/lobby-chat/internal/hub"
	"github.com/weiawesome/lobby-chat/internal/session"
	"github.com/weiawesome/lobby-chat/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler turns WebSocket frames into session events.
type WSHandler struct {
	hub      *hub.Hub
	sessions *session.Manager
	wsCfg    config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, sessions *session.Manager, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:      h,
		sessions: sessions,
		wsCfg:    wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	l := log.Ctx(c.Request.Context())

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)

	// The request context ends when this handler returns; keep only its logger.
	ctx := log.WithConnection(log.WithLogger(context.Background(), l), client.ID)

	h.hub.Register(client)
	if err := h.sessions.Submit(ctx, session.Connect(client.ID)); err != nil {
		l.Warn().Err(err).Msg("session manager unavailable")
		h.hub.Unregister(client)
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump(
		func(cl *hub.Client, message []byte) { h.handleMessage(ctx, cl, message) },
		func(cl *hub.Client) { h.submit(ctx, session.Disconnect(cl.ID)) },
	)
}

func (h *WSHandler) handleMessage(ctx context.Context, client *hub.Client, message []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(message, &env); err != nil || env.Type == "" {
		h.reject(client, "Invalid message format")
		return
	}

	switch env.Type {
	case domain.EventJoin:
		var req domain.JoinRequest
		if err := env.Decode(&req); err != nil {
			h.reject(client, "Invalid join message")
			return
		}
		h.submit(ctx, session.Join(client.ID, req.Nickname, req.Secret()))

	case domain.EventChatMessage:
		var req domain.ChatMessageRequest
		if err := env.Decode(&req); err != nil {
			h.reject(client, "Invalid chat-message")
			return
		}
		h.submit(ctx, session.Chat(client.ID, req.Message))

	case domain.EventTyping:
		h.submit(ctx, session.Typing(client.ID))

	case domain.EventStopTyping:
		h.submit(ctx, session.StopTyping(client.ID))

	case domain.EventPing:
		client.SendEnvelope(domain.EventPong, nil)

	default:
		h.reject(client, "Unknown message type")
	}
}

func (h *WSHandler) submit(ctx context.Context, ev session.Event) {
	if err := h.sessions.Submit(ctx, ev); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldEvent, ev.Kind.String()).Msg("failed to submit session event")
	}
}

func (h *WSHandler) reject(client *hub.Client, message string) {
	client.SendEnvelope(domain.EventError, domain.NewErrorPayload(domain.ErrCodeBadRequest, message))
}

func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
}

package handler

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/lobby-chat/internal/domain"
	"github.com/weiawesome/lobby-chat/pkg/log"
	"github.com/weiawesome/lobby-chat/pkg/response"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// RoomReader is the read side of the room exposed over HTTP.
type RoomReader interface {
	Roster() []string
	Recent(ctx context.Context, limit int) ([]domain.ChatMessage, error)
}

// Handler serves the pages, health check and read-only room API.
type Handler struct {
	room      RoomReader
	publicDir string
	sf        singleflight.Group
}

func NewHandler(room RoomReader, publicDir string) *Handler {
	return &Handler{
		room:      room,
		publicDir: publicDir,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.page("index.html"))
	r.GET("/chat", h.page("chat.html"))
	r.Static("/static", h.publicDir)
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	{
		api.GET("/users", h.ListUsers)
		api.GET("/history", h.GetHistory)
	}
}

func (h *Handler) page(name string) gin.HandlerFunc {
	path := filepath.Join(h.publicDir, name)
	return func(c *gin.Context) {
		c.File(path)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// ListUsers returns the current roster.
func (h *Handler) ListUsers(c *gin.Context) {
	response.Success(c, h.room.Roster())
}

// GetHistory returns up to limit recent messages, oldest first.
func (h *Handler) GetHistory(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	limit := defaultHistoryLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	// Concurrent reads of the same window share one store round trip.
	result, err, _ := h.sf.Do(strconv.Itoa(limit), func() (interface{}, error) {
		return h.room.Recent(context.WithoutCancel(ctx), limit)
	})
	if err != nil {
		l.Error().Err(err).Msg("failed to read history")
		response.InternalError(c, "failed to read history")
		return
	}

	messages, ok := result.([]domain.ChatMessage)
	if !ok {
		l.Error().Err(fmt.Errorf("unexpected result type %T", result)).Msg("failed to read history")
		response.InternalError(c, "failed to read history")
		return
	}

	response.Success(c, messages)
}

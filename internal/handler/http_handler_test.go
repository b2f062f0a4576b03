package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/lobby-chat/internal/domain"
)

type stubRoom struct {
	roster  []string
	history []domain.ChatMessage
	err     error
	reads   atomic.Int32
	limits  chan int
}

func (s *stubRoom) Roster() []string { return s.roster }

func (s *stubRoom) Recent(_ context.Context, limit int) ([]domain.ChatMessage, error) {
	s.reads.Add(1)
	if s.limits != nil {
		s.limits <- limit
	}
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.history) {
		return s.history[len(s.history)-limit:], nil
	}
	return s.history, nil
}

func newTestRouter(t *testing.T, room RoomReader) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>login</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat.html"), []byte("<h1>room</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "client.js"), []byte("// js"), 0o644))

	r := gin.New()
	NewHandler(room, dir).RegisterRoutes(r)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decodeAPI(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestPagesAndHealth(t *testing.T) {
	r := newTestRouter(t, &stubRoom{})

	w := get(r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	w = get(r, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "login")

	w = get(r, "/chat")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "room")

	w = get(r, "/static/client.js")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListUsers(t *testing.T) {
	r := newTestRouter(t, &stubRoom{roster: []string{"alice", "bob"}})

	w := get(r, "/api/v1/users")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeAPI(t, w)
	assert.True(t, resp.Success)
	var roster []string
	require.NoError(t, json.Unmarshal(resp.Data, &roster))
	assert.Equal(t, []string{"alice", "bob"}, roster)
}

func TestGetHistory(t *testing.T) {
	room := &stubRoom{history: []domain.ChatMessage{
		{ID: "1", Nickname: "alice", Message: "one"},
		{ID: "2", Nickname: "bob", Message: "two"},
		{ID: "3", Nickname: "alice", Message: "three"},
	}}
	r := newTestRouter(t, room)

	w := get(r, "/api/v1/history?limit=2")
	require.Equal(t, http.StatusOK, w.Code)

	var got []domain.ChatMessage
	require.NoError(t, json.Unmarshal(decodeAPI(t, w).Data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Message)
	assert.Equal(t, "three", got[1].Message)
}

func TestGetHistoryLimits(t *testing.T) {
	room := &stubRoom{limits: make(chan int, 2)}
	r := newTestRouter(t, room)

	require.Equal(t, http.StatusOK, get(r, "/api/v1/history").Code)
	assert.Equal(t, defaultHistoryLimit, <-room.limits)

	require.Equal(t, http.StatusOK, get(r, "/api/v1/history?limit=100000").Code)
	assert.Equal(t, maxHistoryLimit, <-room.limits)

	for _, bad := range []string{"0", "-3", "ten"} {
		w := get(r, "/api/v1/history?limit="+bad)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
		assert.Equal(t, "BAD_REQUEST", decodeAPI(t, w).Error.Code)
	}
	assert.Equal(t, int32(2), room.reads.Load())
}

func TestGetHistoryStoreFailure(t *testing.T) {
	r := newTestRouter(t, &stubRoom{err: errors.New("redis down")})

	w := get(r, "/api/v1/history")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeAPI(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
}

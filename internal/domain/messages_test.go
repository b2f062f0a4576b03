package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinRequestAcceptsBareNickname(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"type":"join","data":"alice"}`), &env))

	var req JoinRequest
	require.NoError(t, env.Decode(&req))
	assert.Equal(t, "alice", req.Nickname)
	assert.Empty(t, req.Secret())
}

func TestJoinRequestCredentialAliases(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"credential", `{"nickname":"carol","credential":"secret"}`, "secret"},
		{"password", `{"nickname":"carol","password":"secret"}`, "secret"},
		{"credential wins", `{"nickname":"carol","credential":"a","password":"b"}`, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req JoinRequest
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &req))
			assert.Equal(t, "carol", req.Nickname)
			assert.Equal(t, tt.want, req.Secret())
		})
	}
}

func TestEnvelopeWithoutPayload(t *testing.T) {
	env, err := NewEnvelope(EventNicknameTaken, nil)
	require.NoError(t, err)

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"nickname-taken"}`, string(data))
	assert.Error(t, env.Decode(&struct{}{}))
}

func TestNewChatMessageTimestamps(t *testing.T) {
	now := time.Date(2024, 5, 1, 13, 4, 5, 0, time.UTC)
	msg := NewChatMessage("alice", "hi", now)

	assert.Equal(t, "13:04:05", msg.Timestamp)
	assert.True(t, now.Equal(msg.FullTimestamp))
	assert.Empty(t, msg.ID)

	b := msg.Broadcast()
	assert.Equal(t, "alice", b.Nickname)
	assert.Equal(t, "hi", b.Message)
}

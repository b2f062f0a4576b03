package domain

import (
	"encoding/json"
	"errors"
)

// Client -> server event types.
const (
	EventJoin       = "join"
	EventTyping     = "typing"
	EventStopTyping = "stop-typing"
	EventPing       = "ping"
)

// EventChatMessage travels in both directions.
const EventChatMessage = "chat-message"

// Server -> client event types.
const (
	EventJoined         = "joined"
	EventNicknameTaken  = "nickname-taken"
	EventLoginFailed    = "login-failed"
	EventForceLogout    = "force-logout"
	EventUserJoined     = "user-joined"
	EventUserLeft       = "user-left"
	EventUserList       = "user-list"
	EventChatHistory    = "chat-history"
	EventUserTyping     = "user-typing"
	EventUserStopTyping = "user-stop-typing"
	EventPong           = "pong"
	EventError          = "error"
)

// Error codes
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidNickname = "INVALID_NICKNAME"
	ErrCodeMessageTooLong  = "MESSAGE_TOO_LONG"
)

// Envelope is the frame shape for every WebSocket message in either direction.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into an envelope. A nil payload yields an
// envelope without data.
func NewEnvelope(eventType string, payload interface{}) (*Envelope, error) {
	env := &Envelope{Type: eventType}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	env.Data = data
	return env, nil
}

// Decode unmarshals the envelope payload into v.
func (e *Envelope) Decode(v interface{}) error {
	if len(e.Data) == 0 {
		return errors.New("missing data")
	}
	return json.Unmarshal(e.Data, v)
}

// Client -> Server payloads

// JoinRequest is the payload of a join event. Clients send either a bare
// nickname string or an object; "password" is accepted as an alias of
// "credential".
type JoinRequest struct {
	Nickname   string `json:"nickname"`
	Credential string `json:"credential,omitempty"`
	Password   string `json:"password,omitempty"`
}

// UnmarshalJSON accepts `"nick"` as well as the object form.
func (j *JoinRequest) UnmarshalJSON(data []byte) error {
	var nickname string
	if err := json.Unmarshal(data, &nickname); err == nil {
		*j = JoinRequest{Nickname: nickname}
		return nil
	}

	type plain JoinRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*j = JoinRequest(p)
	return nil
}

// Secret returns the supplied credential.
func (j *JoinRequest) Secret() string {
	if j.Credential != "" {
		return j.Credential
	}
	return j.Password
}

// ChatMessageRequest is the payload of a client chat-message.
type ChatMessageRequest struct {
	Message string `json:"message"`
}

// Server -> Client payloads

type JoinedPayload struct {
	Nickname string `json:"nickname"`
}

// PresenceNotice announces an arrival or a departure.
type PresenceNotice struct {
	Nickname string `json:"nickname"`
	Message  string `json:"message"`
}

// ChatBroadcast is the live chat-message payload.
type ChatBroadcast struct {
	ID        string `json:"id,omitempty"`
	Nickname  string `json:"nickname"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorPayload(code, message string) *ErrorPayload {
	return &ErrorPayload{
		Code:    code,
		Message: message,
	}
}

package domain

import "time"

// DisplayTimeLayout is the clock format shown next to live messages.
const DisplayTimeLayout = "15:04:05"

// ChatMessage is one user-authored utterance as stored in history.
type ChatMessage struct {
	ID            string    `json:"id"`
	Nickname      string    `json:"nickname"`
	Message       string    `json:"message"`
	Timestamp     string    `json:"timestamp"`
	FullTimestamp time.Time `json:"fullTimestamp"`
}

// NewChatMessage snapshots the author and the send time. The ID is assigned
// by the history store.
func NewChatMessage(nickname, message string, now time.Time) *ChatMessage {
	return &ChatMessage{
		Nickname:      nickname,
		Message:       message,
		Timestamp:     now.Format(DisplayTimeLayout),
		FullTimestamp: now.UTC(),
	}
}

// Broadcast returns the live payload for the message.
func (m *ChatMessage) Broadcast() *ChatBroadcast {
	return &ChatBroadcast{
		ID:        m.ID,
		Nickname:  m.Nickname,
		Message:   m.Message,
		Timestamp: m.Timestamp,
	}
}

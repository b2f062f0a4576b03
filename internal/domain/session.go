package domain

import "time"

// SessionState is the lifecycle state of one connection.
type SessionState int

const (
	StateConnected SessionState = iota
	StateJoined
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// UserSession is one authenticated, live participant.
type UserSession struct {
	ConnectionID string    `json:"-"`
	Nickname     string    `json:"nickname"`
	JoinedAt     time.Time `json:"joined_at"`
}

func NewUserSession(connectionID, nickname string) *UserSession {
	return &UserSession{
		ConnectionID: connectionID,
		Nickname:     nickname,
		JoinedAt:     time.Now(),
	}
}

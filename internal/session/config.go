package session

import (
	"errors"
	"fmt"
)

// Mode decides what happens when a nickname is already in use.
type Mode string

const (
	// ModeStrict rejects the second join with nickname-taken.
	ModeStrict Mode = "strict"
	// ModeCredentialed lets the newcomer take the nickname over and
	// evicts the previous session.
	ModeCredentialed Mode = "credentialed"
)

const (
	DefaultMaxNicknameLength = 32
	DefaultMaxMessageLength  = 2000
	DefaultHistoryReplay     = 50
	DefaultQueueSize         = 1024

	// ReasonLoggedInElsewhere is sent with force-logout.
	ReasonLoggedInElsewhere = "You have been logged out because someone else logged in with your credentials."
	// ReasonInvalidCredential is sent with login-failed.
	ReasonInvalidCredential = "Invalid password."
)

// Config holds session manager configuration.
type Config struct {
	Mode              Mode
	Password          string
	MaxNicknameLength int
	MaxMessageLength  int // 0 disables the limit
	HistoryReplay     int
	QueueSize         int
}

// ParseMode maps a config string to a Mode. An empty string selects
// credentialed when a password is configured and strict otherwise.
func ParseMode(s, password string) (Mode, error) {
	switch Mode(s) {
	case "":
		if password != "" {
			return ModeCredentialed, nil
		}
		return ModeStrict, nil
	case ModeStrict, ModeCredentialed:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown chat mode %q", s)
	}
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Mode == "" {
		out.Mode, _ = ParseMode("", out.Password)
	}
	if out.MaxNicknameLength <= 0 {
		out.MaxNicknameLength = DefaultMaxNicknameLength
	}
	if out.MaxMessageLength < 0 {
		out.MaxMessageLength = 0
	}
	if out.HistoryReplay <= 0 {
		out.HistoryReplay = DefaultHistoryReplay
	}
	if out.QueueSize <= 0 {
		out.QueueSize = DefaultQueueSize
	}
	return out
}

var (
	ErrInvalidNickname = errors.New("invalid nickname")
	ErrLoginFailed     = errors.New("login failed")
	ErrStopped         = errors.New("session manager stopped")
)

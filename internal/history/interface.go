package history

import (
	"context"
	"errors"

	"github.com/weiawesome/lobby-chat/internal/domain"
)

var (
	// ErrPersistence wraps any failure to write the backing store.
	ErrPersistence = errors.New("history: persistence failure")
	// ErrCorrupt marks a backing document that could not be decoded.
	ErrCorrupt = errors.New("history: corrupt store")
)

// Store is a size-bounded, append-only log of chat messages.
type Store interface {
	// Initialize ensures the backing store exists, creating an empty log if
	// absent. Called once before connections are accepted.
	Initialize(ctx context.Context) error

	// Append adds exactly one message, assigning its ID when empty, then
	// drops the oldest entries beyond the cap.
	Append(ctx context.Context, msg *domain.ChatMessage) error

	// Recent returns the last min(limit, len) messages, oldest first.
	Recent(ctx context.Context, limit int) ([]domain.ChatMessage, error)

	// Len returns the number of retained messages.
	Len(ctx context.Context) (int, error)

	Close() error
}

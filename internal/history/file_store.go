package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/weiawesome/lobby-chat/internal/domain"
	"github.com/weiawesome/lobby-chat/internal/idgen"
	"github.com/weiawesome/lobby-chat/pkg/log"
	"github.com/weiawesome/lobby-chat/pkg/storage"
)

const contentTypeJSON = "application/json"

// FileStore keeps the log in memory and mirrors it as one JSON document in
// a storage.Storage backend (local disk or S3).
type FileStore struct {
	storage storage.Storage
	key     string
	ids     idgen.Generator

	mu  sync.Mutex
	log *capped
}

// NewFileStore creates a store writing the document at key.
func NewFileStore(s storage.Storage, key string, maxEntries int, ids idgen.Generator) *FileStore {
	return &FileStore{
		storage: s,
		key:     key,
		ids:     ids,
		log:     newCapped(maxEntries),
	}
}

// Initialize loads the document, or creates an empty one when absent.
// A document that fails to decode degrades to an empty log; any other
// storage failure is returned so an unreachable backend is never overwritten.
func (s *FileStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := log.Ctx(ctx)

	exists, err := s.storage.Exists(ctx, s.key)
	if err != nil {
		return fmt.Errorf("failed to stat history document %s: %w", s.key, err)
	}

	if exists {
		entries, err := s.load(ctx)
		switch {
		case err == nil:
			s.log.reset(entries)
			l.Info().Str("key", s.key).Int("messages", s.log.len()).Msg("history loaded")
			return nil
		case errors.Is(err, ErrCorrupt):
			l.Warn().Err(err).Str("key", s.key).Msg("history document corrupt, starting empty")
			s.log.reset(nil)
			return nil
		case !isNotFound(err):
			return fmt.Errorf("failed to load history document %s: %w", s.key, err)
		}
		// Removed between the stat and the read.
	}

	s.log.reset(nil)
	if err := s.persistLocked(ctx); err != nil {
		return fmt.Errorf("failed to create history document %s: %w", s.key, err)
	}
	l.Info().Str("key", s.key).Msg("created empty history document")
	return nil
}

func (s *FileStore) load(ctx context.Context) ([]domain.ChatMessage, error) {
	rc, err := s.storage.Read(ctx, s.key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read history document: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var entries []domain.ChatMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return entries, nil
}

// Append records msg and rewrites the document. The in-memory log keeps the
// message even when the write fails.
func (s *FileStore) Append(ctx context.Context, msg *domain.ChatMessage) error {
	if msg.ID == "" {
		id, err := s.ids.Generate()
		if err != nil {
			return fmt.Errorf("failed to generate message id: %w", err)
		}
		msg.ID = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.append(*msg)
	if err := s.persistLocked(ctx); err != nil {
		return err
	}
	return nil
}

// persistLocked must be called with s.mu held.
func (s *FileStore) persistLocked(ctx context.Context) error {
	entries := s.log.entries
	if entries == nil {
		entries = []domain.ChatMessage{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrPersistence, err)
	}

	if err := s.storage.Write(ctx, s.key, bytes.NewReader(data), int64(len(data)), contentTypeJSON); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (s *FileStore) Recent(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.recent(limit), nil
}

func (s *FileStore) Len(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.len(), nil
}

func (s *FileStore) Close() error {
	return nil
}

var _ Store = (*FileStore)(nil)

// isNotFound reports whether err means the document is missing.
func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/weiawesome/lobby-chat/internal/domain"
	"github.com/weiawesome/lobby-chat/internal/idgen"
	"github.com/weiawesome/lobby-chat/pkg/log"
)

// RedisConfig holds Redis connection configuration for the history list.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Key      string
}

// RedisStore keeps the log in a Redis list capped with LTRIM.
type RedisStore struct {
	client     redis.UniversalClient
	key        string
	maxEntries int
	ids        idgen.Generator
}

// NewRedisStore dials Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig, maxEntries int, ids idgen.Generator) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, cfg.Key, maxEntries, ids), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient, key string, maxEntries int, ids idgen.Generator) *RedisStore {
	if key == "" {
		key = "chat:history"
	}
	return &RedisStore{
		client:     client,
		key:        key,
		maxEntries: maxEntries,
		ids:        ids,
	}
}

// Initialize re-applies the cap so a lowered max_entries takes effect at
// startup. An absent key is an empty log.
func (s *RedisStore) Initialize(ctx context.Context) error {
	if err := s.client.LTrim(ctx, s.key, int64(-s.maxEntries), -1).Err(); err != nil {
		return fmt.Errorf("failed to initialize history list %s: %w", s.key, err)
	}

	n, err := s.client.LLen(ctx, s.key).Result()
	if err != nil {
		return fmt.Errorf("failed to read history list %s: %w", s.key, err)
	}

	l := log.Ctx(ctx)
	l.Info().Str("key", s.key).Int64("messages", n).Msg("history loaded")
	return nil
}

func (s *RedisStore) Append(ctx context.Context, msg *domain.ChatMessage) error {
	if msg.ID == "" {
		id, err := s.ids.Generate()
		if err != nil {
			return fmt.Errorf("failed to generate message id: %w", err)
		}
		msg.ID = id
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrPersistence, err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key, data)
	pipe.LTrim(ctx, s.key, int64(-s.maxEntries), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// Recent skips entries that fail to decode.
func (s *RedisStore) Recent(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		return []domain.ChatMessage{}, nil
	}

	raw, err := s.client.LRange(ctx, s.key, int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	out := make([]domain.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str("key", s.key).Msg("skipping undecodable history entry")
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *RedisStore) Len(ctx context.Context) (int, error) {
	n, err := s.client.LLen(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read history length: %w", err)
	}
	return int(n), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/weiawesome/lobby-chat/internal/history"
	"github.com/weiawesome/lobby-chat/internal/session"
	pkgconfig "github.com/weiawesome/lobby-chat/pkg/config"
	"github.com/weiawesome/lobby-chat/pkg/log"
	"github.com/weiawesome/lobby-chat/pkg/storage"
)

// History backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Chat      ChatConfig
	History   HistoryConfig
	Storage   storage.Config
	Redis     RedisConfig
	Log       log.Config
}

type ServerConfig struct {
	Host            string
	Port            int
	PublicDir       string        `mapstructure:"public_dir"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
}

type ChatConfig struct {
	Mode              string
	Password          string
	MaxNicknameLength int `mapstructure:"max_nickname_length"`
	MaxMessageLength  int `mapstructure:"max_message_length"`
	HistoryReplay     int `mapstructure:"history_replay"`
	QueueSize         int `mapstructure:"queue_size"`
}

type HistoryConfig struct {
	Backend    string
	MaxEntries int    `mapstructure:"max_entries"`
	Key        string
	RedisKey   string `mapstructure:"redis_key"`
	MachineID  int64  `mapstructure:"machine_id"`
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	setDefaults(v)

	if err := pkgconfig.BindEnvs(v, map[string]string{
		"server.port":                  "PORT",
		"chat.mode":                    "CHAT_MODE",
		"chat.password":                "CHAT_PASSWORD",
		"history.backend":              "HISTORY_BACKEND",
		"history.max_entries":          "HISTORY_MAX_ENTRIES",
		"storage.type":                 "STORAGE_TYPE",
		"storage.local.base_path":      "STORAGE_LOCAL_BASE_PATH",
		"storage.s3.endpoint":          "S3_ENDPOINT",
		"storage.s3.region":            "S3_REGION",
		"storage.s3.bucket":            "S3_BUCKET",
		"storage.s3.prefix":            "S3_PREFIX",
		"storage.s3.access_key_id":     "S3_ACCESS_KEY_ID",
		"storage.s3.secret_access_key": "S3_SECRET_ACCESS_KEY",
		"storage.s3.use_path_style":    "S3_USE_PATH_STYLE",
		"redis.address":                "REDIS_ADDRESS",
		"redis.password":               "REDIS_PASSWORD",
		"log.level":                    "LOG_LEVEL",
	}); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Parse durations
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Server.ShutdownTimeout = parseDuration(v, "server.shutdown_timeout", 30*time.Second)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.public_dir", "./public")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 16384)
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("chat.mode", "")
	v.SetDefault("chat.password", "")
	v.SetDefault("chat.max_nickname_length", session.DefaultMaxNicknameLength)
	v.SetDefault("chat.max_message_length", session.DefaultMaxMessageLength)
	v.SetDefault("chat.history_replay", session.DefaultHistoryReplay)
	v.SetDefault("chat.queue_size", session.DefaultQueueSize)
	v.SetDefault("history.backend", BackendFile)
	v.SetDefault("history.max_entries", 100)
	v.SetDefault("history.key", "chat-history.json")
	v.SetDefault("history.redis_key", "chat:history")
	v.SetDefault("history.machine_id", 1)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local.base_path", "./data")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.use_path_style", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "lobby-chat")
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	mode, err := session.ParseMode(c.Chat.Mode, c.Chat.Password)
	if err != nil {
		errs = append(errs, err)
	}
	if mode == session.ModeCredentialed && c.Chat.Password == "" {
		errs = append(errs, errors.New("chat.password is required in credentialed mode"))
	}
	if c.Chat.MaxNicknameLength <= 0 {
		errs = append(errs, errors.New("chat.max_nickname_length must be positive"))
	}
	if c.Chat.HistoryReplay <= 0 {
		errs = append(errs, errors.New("chat.history_replay must be positive"))
	}
	if c.History.MaxEntries <= 0 {
		errs = append(errs, errors.New("history.max_entries must be positive"))
	}

	switch c.History.Backend {
	case BackendFile:
		if c.History.Key == "" {
			errs = append(errs, errors.New("history.key is required for the file backend"))
		}
		switch c.Storage.Type {
		case "", "local":
		case "s3":
			if c.Storage.S3.Bucket == "" {
				errs = append(errs, errors.New("storage.s3.bucket is required for s3 storage"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown storage.type %q", c.Storage.Type))
		}
	case BackendRedis:
		if c.Redis.Address == "" {
			errs = append(errs, errors.New("redis.address is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown history.backend %q", c.History.Backend))
	}

	return errors.Join(errs...)
}

// Session returns the session manager settings.
func (c *Config) Session() session.Config {
	mode, _ := session.ParseMode(c.Chat.Mode, c.Chat.Password)
	return session.Config{
		Mode:              mode,
		Password:          c.Chat.Password,
		MaxNicknameLength: c.Chat.MaxNicknameLength,
		MaxMessageLength:  c.Chat.MaxMessageLength,
		HistoryReplay:     c.Chat.HistoryReplay,
		QueueSize:         c.Chat.QueueSize,
	}
}

// RedisHistory returns the Redis history store settings.
func (c *Config) RedisHistory() history.RedisConfig {
	return history.RedisConfig{
		Address:  c.Redis.Address,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		Key:      c.History.RedisKey,
	}
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}

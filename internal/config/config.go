package config

import (
	"log/slog"
	"os"
	"strings"
)

const (
	EventBusLocal = "local"
	EventBusRedis = "redis"
)

type Config struct {
	Port     string
	LogLevel slog.Level
	EventBus string
	Store    *StoreConfig
	Redis    *RedisConfig
	Notify   *NotifyConfig
	Quota    *QuotaConfig
}

func Load() (*Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	eventBus := strings.ToLower(os.Getenv("EVENT_BUS"))
	if eventBus == "" {
		eventBus = EventBusLocal
	}
	if eventBus != EventBusLocal && eventBus != EventBusRedis {
		return nil, ErrInvalidEventBus
	}

	redisConfig, err := LoadRedisConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:     port,
		LogLevel: parseLogLevel(os.Getenv("LOG_LEVEL")),
		EventBus: eventBus,
		Store:    LoadStoreConfig(),
		Redis:    redisConfig,
		Notify:   LoadNotifyConfig(),
		Quota:    LoadQuotaConfig(),
	}, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

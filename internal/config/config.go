package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	LogLevel    string
	HTTPAddr    string

	// DBDSN пустой: хранилище в памяти
	DBDSN    string
	SeedFile string

	// RedisAddr пустой: события через gochannel внутри процесса
	RedisAddr         string
	EventsTopicPrefix string

	TelegramToken string
	// TelegramChats username -> chat ID
	TelegramChats map[string]int64

	CompletionInterval time.Duration
	ShutdownTimeout    time.Duration
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment:       getenv("ENV", "development"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		DBDSN:             os.Getenv("DB_DSN"),
		SeedFile:          os.Getenv("SEED_FILE"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		EventsTopicPrefix: getenv("EVENTS_TOPIC_PREFIX", "booking."),
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
	}

	var err error
	if cfg.CompletionInterval, err = duration("COMPLETION_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = duration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.TelegramChats, err = ParseChats(os.Getenv("TELEGRAM_CHATS")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseChats разбирает список вида "alice:123,bob:-100456"
func ParseChats(raw string) (map[string]int64, error) {
	chats := make(map[string]int64)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		user, id, ok := strings.Cut(pair, ":")
		user = strings.TrimSpace(user)
		if !ok || user == "" {
			return nil, fmt.Errorf("TELEGRAM_CHATS: invalid entry %q", pair)
		}

		chatID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHATS: invalid chat id for %s: %w", user, err)
		}
		chats[user] = chatID
	}
	return chats, nil
}

// UseDatabase включено ли PostgreSQL хранилище
func (c *Config) UseDatabase() bool {
	return c.DBDSN != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, d)
	}
	return d, nil
}

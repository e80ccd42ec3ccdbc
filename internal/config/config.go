package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	Feed   FeedConfig
	Cache  CacheConfig
	Client ClientConfig
}

type ServerConfig struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

type FeedConfig struct {
	BaseURL string
	Timeout time.Duration
}

type CacheConfig struct {
	TTL     time.Duration
	Backend string // memory or redis
	Redis   RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ClientConfig struct {
	BaseURL  string
	Timeout  time.Duration
	StateDir string
	CacheTTL time.Duration
}

func LoadConfig() (*Config, error) {
	// Present in development, absent in production; either is fine.
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:           getEnvInt("SERVER_PORT", 4000),
			ReadTimeout:    getEnvDuration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout:   getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			AllowedOrigins: getEnvStrings("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		},
		Feed: FeedConfig{
			BaseURL: getEnvString("FEED_BASE_URL", "https://www.cbr-xml-daily.ru"),
			Timeout: getEnvDuration("FEED_TIMEOUT", 8*time.Second),
		},
		Cache: CacheConfig{
			TTL:     getEnvDuration("CACHE_TTL", 1*time.Hour),
			Backend: getEnvString("CACHE_BACKEND", "memory"),
			Redis: RedisConfig{
				Addr:     getEnvString("REDIS_ADDR", "localhost:6379"),
				Password: getEnvString("REDIS_PASSWORD", ""),
				DB:       getEnvInt("REDIS_DB", 0),
			},
		},
		Client: ClientConfig{
			BaseURL:  getEnvString("CLIENT_BASE_URL", "http://localhost:4000"),
			Timeout:  getEnvDuration("CLIENT_TIMEOUT", 9*time.Second),
			StateDir: getEnvString("CLIENT_STATE_DIR", defaultStateDir()),
			CacheTTL: getEnvDuration("CLIENT_CACHE_TTL", 1*time.Hour),
		},
	}

	if config.Cache.Backend != "memory" && config.Cache.Backend != "redis" {
		return nil, fmt.Errorf("unsupported CACHE_BACKEND %q", config.Cache.Backend)
	}

	return config, nil
}

func defaultStateDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "currency-rates")
	}
	return ".currency-rates"
}

func getEnvString(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvStrings(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		fmt.Printf("Warning: Invalid value for %s, using default: %d\n", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		fmt.Printf("Warning: Invalid duration for %s, using default: %s\n", key, defaultValue)
		return defaultValue
	}

	return value
}

package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	Environment string

	// DatabaseURL selects the Postgres store; when empty the server
	// falls back to a local SQLite file at SQLitePath.
	DatabaseURL string
	SQLitePath  string

	// RedisURL enables cross-instance message fan-out when set.
	RedisURL string

	MaxMessageLength int
	PongWaitSeconds  int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		SQLitePath:       getEnv("SQLITE_PATH", "./data/unimarket.db"),
		RedisURL:         getEnv("REDIS_URL", ""),
		MaxMessageLength: getEnvAsInt("MAX_MESSAGE_LENGTH", 2000),
		PongWaitSeconds:  getEnvAsInt("WS_PONG_WAIT", 60),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

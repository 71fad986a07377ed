package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config holds the process settings read from the environment at startup.
type Config struct {
	Backend         string
	MongoURI        string
	MongoDB         string
	RedisAddr       string
	SQLitePath      string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// LoadConfig reads envFiles (".env" when none are given) into the process
// environment and builds a Config from it. Missing env files are ignored;
// variables already set in the environment take precedence.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	backend := strings.ToLower(getEnv("STORE_BACKEND", BackendMongo))
	switch backend {
	case BackendMongo, BackendRedis, BackendSQLite:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", backend)
	}

	mongoURI := os.Getenv("MONGO_URI")
	if backend == BackendMongo && mongoURI == "" {
		return nil, fmt.Errorf("no MONGO_URI in environment")
	}

	shutdownSecs, err := loadInt("SHUTDOWN_TIMEOUT", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}
	if shutdownSecs <= 0 {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: must be positive, got %d", shutdownSecs)
	}

	return &Config{
		Backend:         backend,
		MongoURI:        mongoURI,
		MongoDB:         getEnv("MONGO_DB", "foodpanda_pau"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		SQLitePath:      getEnv("SQLITE_PATH", "./sightings.db"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":3000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "*")),
		ShutdownTimeout: time.Duration(shutdownSecs) * time.Second,
	}, nil
}

func getEnv(key, defValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defValue
}

func loadInt(key string, defValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value != "" {
		return strconv.Atoi(value)
	}
	return defValue, nil
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

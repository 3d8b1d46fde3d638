package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries every runtime knob the server reads from the
// environment. A .env file is loaded by the composition root before
// this runs.
type Config struct {
	// Port the HTTP/WebSocket listener binds to.
	Port string

	// RedisAddr and RedisDB select the shared room store. Empty
	// RedisAddr falls back to the in-process store, which is fine for a
	// single instance but loses rooms on restart.
	RedisAddr string
	RedisDB   int

	// DatabaseURL enables Postgres archival of finished matches when
	// set.
	DatabaseURL string

	LogLevel string

	// RoomTTL is how long an untouched room survives in Redis.
	RoomTTL time.Duration
	// SessionTTL bounds the connection-to-room bindings.
	SessionTTL time.Duration

	// HeartbeatInterval paces the sweep that settles overdue turns.
	HeartbeatInterval time.Duration

	// TokenTTL bounds issued tokens. Zero means they never expire.
	TokenTTL time.Duration
}

// Load reads the environment and fills in defaults for anything unset.
func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		RoomTTL:           getEnvDuration("ROOM_TTL", time.Hour),
		SessionTTL:        getEnvDuration("SESSION_TTL", 24*time.Hour),
		HeartbeatInterval: getEnvDuration("HEARTBEAT_INTERVAL", 5*time.Second),
		TokenTTL:          getEnvDuration("TOKEN_EXPIRE_TIME", 0),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" || s == "never" || s == "0" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

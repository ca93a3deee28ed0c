package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port           string
	RedisURL       string // empty keeps snapshots in memory
	JWTSecret      string // empty disables token auth, everyone is a guest
	AllowedOrigins string // comma-separated, empty allows all

	MaxMembers   int
	RoomTTL      time.Duration // grace period before an empty room expires
	SnapshotTTL  time.Duration // how long saved canvases live in Redis
	EventsPerSec int           // per-connection rate limit
	EventBurst   int
	GameRounds   int
	GameTurnTime int // seconds
}

func Load() Config {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		RedisURL:       os.Getenv("REDIS_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		MaxMembers:     getEnvInt("MAX_MEMBERS", 12),
		RoomTTL:        time.Duration(getEnvInt("ROOM_TTL_SECONDS", 300)) * time.Second,
		SnapshotTTL:    time.Duration(getEnvInt("SNAPSHOT_TTL_HOURS", 720)) * time.Hour,
		EventsPerSec:   getEnvInt("EVENTS_PER_SEC", 120),
		EventBurst:     getEnvInt("EVENT_BURST", 240),
		GameRounds:     getEnvInt("GAME_ROUNDS", 3),
		GameTurnTime:   getEnvInt("GAME_TURN_TIME", 80),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string
	JWTSecret        string
	ServerPort       string
	AutoRevealDelay  time.Duration
	RoomInactiveDays int
	CleanupInterval  time.Duration
}

func Load() *Config {
	return &Config{
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", "postgres"),
		DBName:           getEnv("DB_NAME", "pokerplanning"),
		JWTSecret:        getEnv("JWT_SECRET", "super-secret-key-change-me"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		AutoRevealDelay:  time.Duration(getEnvInt("AUTO_REVEAL_DELAY_MS", 3000)) * time.Millisecond,
		RoomInactiveDays: getEnvInt("ROOM_INACTIVE_DAYS", 30),
		CleanupInterval:  time.Duration(getEnvInt("CLEANUP_INTERVAL_MIN", 60)) * time.Minute,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

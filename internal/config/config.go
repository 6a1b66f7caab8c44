package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env            string
	ListenAddr     string
	DatabaseURL    string
	ItemWorkers    int
	WebhookURL     string
	WebhookTimeout time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		if _, err := fmt.Sscanf(v, "%d", &out); err == nil {
			return out
		}
	}
	return def
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:            getenv("APP_ENV", "development"),
		ListenAddr:     getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ItemWorkers:    getenvInt("ITEM_WORKERS", 4),
		WebhookURL:     os.Getenv("WEBHOOK_URL"),
		WebhookTimeout: time.Duration(getenvInt("WEBHOOK_TIMEOUT_SECONDS", 10)) * time.Second,
	}
	if cfg.DatabaseURL == "" {
		// Not fatal for local runs; the caller falls back to the in-memory store.
		return cfg, fmt.Errorf("DATABASE_URL not set")
	}
	return cfg, nil
}

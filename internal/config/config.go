package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            int
	LogLevel        string
	DatabaseURL     string
	NatsURL         string
	NatsToken       string
	OpenAIAPIKey    string
	ChatModel       string
	LangDetectModel string
	TranscribeModel string
	TTSModel        string
	Temperature     float64
	MaxReplyTokens  int
	MaxHistoryTurns int
	SessionTTL      time.Duration
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first if present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:            envInt("NIVARAN_PORT", 8760),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		NatsURL:         envStr("NATS_URL", ""),
		NatsToken:       envStr("NATS_TOKEN", ""),
		OpenAIAPIKey:    envStr("OPENAI_API_KEY", ""),
		ChatModel:       envStr("NIVARAN_CHAT_MODEL", "gpt-4.1-2025-04-14"),
		LangDetectModel: envStr("NIVARAN_LANG_MODEL", "gpt-3.5-turbo"),
		TranscribeModel: envStr("NIVARAN_STT_MODEL", "gpt-4o-transcribe"),
		TTSModel:        envStr("NIVARAN_TTS_MODEL", "gpt-4o-mini-tts"),
		Temperature:     envFloat("NIVARAN_TEMPERATURE", 0.7),
		MaxReplyTokens:  envInt("NIVARAN_MAX_REPLY_TOKENS", 180),
		MaxHistoryTurns: envInt("NIVARAN_MAX_HISTORY_TURNS", 10),
		SessionTTL:      envDuration("NIVARAN_SESSION_TTL", 60*time.Minute),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

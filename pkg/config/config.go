package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string

	SessionsDir      string
	QuestionsCSVPath string

	OpenRouterAPIKey   string
	OpenRouterBase     string
	OpenRouterModel    string
	OpenRouterAppTitle string
	OpenRouterReferer  string

	GoogleAPIKey  string
	SpeechAPIBase string
	TTSAPIBase    string

	SessionMaxAgeHours     int
	CleanupIntervalMinutes int

	LogJSON  bool
	LogDebug bool
}

// Load reads environment variables, optionally from a .env file if present.
func Load() Config {
	// Try to load .env if it exists; ignore error if file not found
	_ = godotenv.Load()

	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		SessionsDir:      getEnv("SESSIONS_DIR", "sessions"),
		QuestionsCSVPath: getEnv("QUESTIONS_CSV_PATH", "data/vc_interview_questions_full.csv"),

		OpenRouterAPIKey:   os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBase:     os.Getenv("OPENROUTER_BASE"),
		OpenRouterModel:    os.Getenv("OPENROUTER_MODEL"),
		OpenRouterAppTitle: getEnv("OPENROUTER_APP_TITLE", "interview-service"),
		OpenRouterReferer:  os.Getenv("OPENROUTER_REFERER"),

		GoogleAPIKey:  os.Getenv("GOOGLE_API_KEY"),
		SpeechAPIBase: os.Getenv("SPEECH_API_BASE"),
		TTSAPIBase:    os.Getenv("TTS_API_BASE"),

		SessionMaxAgeHours:     getEnvInt("SESSION_MAX_AGE_HOURS", 24),
		CleanupIntervalMinutes: getEnvInt("CLEANUP_INTERVAL_MINUTES", 60),

		LogJSON:  getEnvBool("LOG_JSON", false),
		LogDebug: getEnvBool("LOG_DEBUG", false),
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

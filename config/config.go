package config

import (
	"os"
	"strconv"
	"time"
)

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// GetPort returns the HTTP listen port.
func GetPort() string {
	return getEnv("PORT", "8080")
}

// GetMongoDBURI returns the MongoDB connection URI.
func GetMongoDBURI() string {
	return os.Getenv("MONGODB_URI")
}

// GetMongoDBName returns the database name.
func GetMongoDBName() string {
	return getEnv("MONGODB_DATABASE", "chatnet")
}

// GetGeminiAPIKey returns the Gemini API key.
func GetGeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

// GetGeminiModel returns the Gemini model to use.
// Defaults to "gemini-2.5-flash" if not set.
func GetGeminiModel() string {
	return getEnv("GEMINI_MODEL", "gemini-2.5-flash")
}

// GetAllowedOrigins returns the allowed CORS origins.
func GetAllowedOrigins() string {
	return os.Getenv("ALLOWED_ORIGINS")
}

// GetNPCCatalogPath returns the path of the NPC catalog YAML.
func GetNPCCatalogPath() string {
	return getEnv("NPC_CATALOG", "npcs.yaml")
}

// GetRateLimitMax returns how many AI-triggering actions a user may take
// per rolling window.
func GetRateLimitMax() int {
	return getIntEnv("RATE_LIMIT_MAX", 10)
}

// GetRateLimitWindow returns the rolling window duration.
func GetRateLimitWindow() time.Duration {
	return getDurationEnv("RATE_LIMIT_WINDOW", time.Minute)
}

// GetHistoryMaxTurns returns the turn-count ceiling for model context.
func GetHistoryMaxTurns() int {
	return getIntEnv("HISTORY_MAX_TURNS", 20)
}

// GetHistoryMaxBytes returns the serialized-size ceiling for model context.
func GetHistoryMaxBytes() int {
	return getIntEnv("HISTORY_MAX_BYTES", 50000)
}

// GetModelMaxAttempts returns the total model-call attempts per send.
func GetModelMaxAttempts() int {
	return getIntEnv("MODEL_MAX_ATTEMPTS", 3)
}

// GetModelRetryDelay returns the initial backoff between model attempts.
func GetModelRetryDelay() time.Duration {
	return getDurationEnv("MODEL_RETRY_DELAY", 500*time.Millisecond)
}

// GetCacheTTL returns how long a cached page stays servable.
func GetCacheTTL() time.Duration {
	return getDurationEnv("CACHE_TTL", 5*time.Minute)
}

// GetCacheFreshness returns the window during which a cached page is served
// without revalidation.
func GetCacheFreshness() time.Duration {
	return getDurationEnv("CACHE_FRESHNESS", 15*time.Second)
}

// GetPageSize returns the default number of items per page.
func GetPageSize() int {
	return getIntEnv("PAGE_SIZE", 20)
}

// Package config loads settings from the environment and dotenv files.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// KeyVar is the environment variable holding the provider key.
const KeyVar = "OPENAI_API_KEY"

// DefaultFiles are loaded in order; later files override earlier ones and
// the process environment.
var DefaultFiles = []string{".env", ".env.local"}

// Config holds the server and CLI settings.
type Config struct {
	Port     string
	LogLevel string

	OpenAI OpenAI

	Stream           bool
	DocsDir          string
	PDFServiceURL    string
	SessionDB        string
	SessionCacheSize int
	RateLimit        float64
	RateBurst        int
}

// OpenAI configures the chat provider.
type OpenAI struct {
	APIKey    string
	KeySource string // "env" or the dotenv file that set the key
	BaseURL   string
	Model     string
	MaxTokens int
}

// HasKey reports whether a provider key is configured.
func (c *Config) HasKey() bool {
	return c.OpenAI.APIKey != ""
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// Load reads DefaultFiles and then the environment.
func Load() *Config {
	return LoadFiles(DefaultFiles...)
}

// LoadFiles overlays the given dotenv files onto the environment, skipping
// missing ones, and builds the config.
func LoadFiles(paths ...string) *Config {
	source := ""
	if os.Getenv(KeyVar) != "" {
		source = "env"
	}
	for _, p := range paths {
		values, err := godotenv.Read(p)
		if err != nil {
			continue
		}
		if err := godotenv.Overload(p); err != nil {
			continue
		}
		if values[KeyVar] != "" {
			source = p
		}
	}

	cfg := fromEnv()
	if cfg.HasKey() {
		cfg.OpenAI.KeySource = source
	}
	return cfg
}

func fromEnv() *Config {
	return &Config{
		Port:     getEnv("API_PORT", "8787"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		OpenAI: OpenAI{
			APIKey:    strings.TrimSpace(os.Getenv(KeyVar)),
			BaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			MaxTokens: getEnvInt("OPENAI_MAX_TOKENS", 1024),
		},
		Stream:           getEnvBool("CHAT_STREAM", true),
		DocsDir:          getEnv("DOCS_DIR", ""),
		PDFServiceURL:    getEnv("PDF_SERVICE_URL", "http://localhost:8081"),
		SessionDB:        getEnv("SESSION_DB", ""),
		SessionCacheSize: getEnvInt("SESSION_CACHE_SIZE", 256),
		RateLimit:        getEnvFloat("CHAT_RATE_LIMIT", 5),
		RateBurst:        getEnvInt("CHAT_RATE_BURST", 10),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

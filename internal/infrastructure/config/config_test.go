package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"API_PORT", "LOG_LEVEL", KeyVar, "OPENAI_BASE_URL", "OPENAI_MODEL", "OPENAI_MAX_TOKENS",
	"CHAT_STREAM", "DOCS_DIR", "PDF_SERVICE_URL", "SESSION_DB", "SESSION_CACHE_SIZE",
	"CHAT_RATE_LIMIT", "CHAT_RATE_BURST",
}

// clearEnv blanks every key; t.Setenv restores the previous values.
func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadFiles()

	assert.Equal(t, "8787", cfg.Port)
	assert.Equal(t, ":8787", cfg.Addr())
	assert.False(t, cfg.HasKey())
	assert.Empty(t, cfg.OpenAI.KeySource)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 1024, cfg.OpenAI.MaxTokens)
	assert.True(t, cfg.Stream)
	assert.Empty(t, cfg.DocsDir)
	assert.Equal(t, "http://localhost:8081", cfg.PDFServiceURL)
	assert.Empty(t, cfg.SessionDB)
	assert.Equal(t, 256, cfg.SessionCacheSize)
	assert.Equal(t, 5.0, cfg.RateLimit)
	assert.Equal(t, 10, cfg.RateBurst)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_PORT", "9000")
	t.Setenv(KeyVar, " sk-env ")
	t.Setenv("OPENAI_MAX_TOKENS", "256")
	t.Setenv("CHAT_STREAM", "false")
	t.Setenv("CHAT_RATE_LIMIT", "0.5")

	cfg := LoadFiles()

	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "env", cfg.OpenAI.KeySource)
	assert.Equal(t, 256, cfg.OpenAI.MaxTokens)
	assert.False(t, cfg.Stream)
	assert.Equal(t, 0.5, cfg.RateLimit)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_MAX_TOKENS", "lots")
	t.Setenv("CHAT_STREAM", "maybe")

	cfg := LoadFiles()

	assert.Equal(t, 1024, cfg.OpenAI.MaxTokens)
	assert.True(t, cfg.Stream)
}

func TestLoad_DotenvFilesOverrideInOrder(t *testing.T) {
	clearEnv(t)
	t.Setenv(KeyVar, "sk-env")
	dir := t.TempDir()
	env := writeFile(t, dir, ".env", "OPENAI_API_KEY=sk-file\nAPI_PORT=7000\n")
	local := writeFile(t, dir, ".env.local", "OPENAI_MODEL=gpt-4o\n")

	cfg := LoadFiles(env, local, filepath.Join(dir, "missing.env"))

	assert.Equal(t, "sk-file", cfg.OpenAI.APIKey)
	assert.Equal(t, env, cfg.OpenAI.KeySource)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
}

func TestLoad_LocalFileWins(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	env := writeFile(t, dir, ".env", "OPENAI_API_KEY=sk-one\n")
	local := writeFile(t, dir, ".env.local", "OPENAI_API_KEY=sk-two\n")

	cfg := LoadFiles(env, local)

	assert.Equal(t, "sk-two", cfg.OpenAI.APIKey)
	assert.Equal(t, local, cfg.OpenAI.KeySource)
}

func TestConfig_AddrKeepsHost(t *testing.T) {
	cfg := &Config{Port: "127.0.0.1:8080"}

	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
}

package config

import (
	"os"
	"strconv"
)

// AIConfig holds the evaluator's LLM settings
type AIConfig struct {
	APIKey     string `json:"-"` // Never serialize
	BaseURL    string `json:"baseUrl"`
	Model      string `json:"model"`
	TimeoutMS  int    `json:"timeoutMs"`
	MaxRetries uint64 `json:"maxRetries"`
}

// DefaultAIConfig returns the AI configuration from the environment
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey:     os.Getenv("OPENAI_API_KEY"),
		BaseURL:    getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		Model:      getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		TimeoutMS:  getIntOrDefault("OPENAI_TIMEOUT_MS", 30000),
		MaxRetries: uint64(getIntOrDefault("OPENAI_MAX_RETRIES", 3)),
	}
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n >= 0 {
		return n
	}
	return defaultValue
}

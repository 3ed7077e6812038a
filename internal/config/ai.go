package config

import (
	"fmt"
	"os"
	"strconv"
)

// GenerationConfig holds the sampling parameters sent with every request
type GenerationConfig struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
	TopK        int     `json:"topK"`
}

// AIConfig holds all AI-related configuration
type AIConfig struct {
	APIKey     string           `json:"-"` // Never serialize
	BaseURL    string           `json:"baseUrl"`
	Model      string           `json:"model"`
	TimeoutMS  int              `json:"timeoutMs"`
	Generation GenerationConfig `json:"generation"`
}

// DefaultAIConfig returns the AI configuration, overridden from the environment
func DefaultAIConfig() (*AIConfig, error) {
	timeout, err := strconv.Atoi(getEnvOrDefault("GEMINI_TIMEOUT_MS", "30000"))
	if err != nil {
		return nil, fmt.Errorf("GEMINI_TIMEOUT_MS: %w", err)
	}
	temperature, err := strconv.ParseFloat(getEnvOrDefault("GEMINI_TEMPERATURE", "0.7"), 64)
	if err != nil {
		return nil, fmt.Errorf("GEMINI_TEMPERATURE: %w", err)
	}
	topP, err := strconv.ParseFloat(getEnvOrDefault("GEMINI_TOP_P", "0.9"), 64)
	if err != nil {
		return nil, fmt.Errorf("GEMINI_TOP_P: %w", err)
	}
	topK, err := strconv.Atoi(getEnvOrDefault("GEMINI_TOP_K", "40"))
	if err != nil {
		return nil, fmt.Errorf("GEMINI_TOP_K: %w", err)
	}

	return &AIConfig{
		APIKey:    os.Getenv("GEMINI_API_KEY"),
		BaseURL:   getEnvOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/models"),
		Model:     getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-pro-latest"),
		TimeoutMS: timeout,
		Generation: GenerationConfig{
			Temperature: temperature,
			TopP:        topP,
			TopK:        topK,
		},
	}, nil
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// ModelEndpoint returns the full endpoint for the configured model
func (c *AIConfig) ModelEndpoint() string {
	return c.BaseURL + "/" + c.Model + ":generateContent"
}

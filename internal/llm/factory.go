package llm

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/paper-scout/scout/internal/config"
	"github.com/paper-scout/scout/internal/types"
)

const (
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
	defaultDeepSeekBaseURL  = "https://api.deepseek.com/v1"
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultGeminiBaseURL    = "https://generativelanguage.googleapis.com"
)

// NewProvider builds the stream provider named by cfg.Provider
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	return newProvider(&http.Client{}, cfg)
}

func newProvider(httpClient *http.Client, cfg config.LLMConfig) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch name {
	case "openai", "openai_compat", "deepseek", "anthropic", "google", "gemini":
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedProvider, cfg.Provider)
	}

	apiKey := cfg.APIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s", types.ErrMissingCredential, credentialEnv(name))
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for provider %s", name)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	switch name {
	case "openai", "openai_compat":
		return newOpenAIProvider(httpClient, withDefault(baseURL, defaultOpenAIBaseURL), apiKey, cfg.Model)
	case "deepseek":
		return newOpenAIProvider(httpClient, withDefault(baseURL, defaultDeepSeekBaseURL), apiKey, cfg.Model)
	case "anthropic":
		return newAnthropicProvider(httpClient, withDefault(baseURL, defaultAnthropicBaseURL), apiKey, cfg.Model, cfg.MaxTokens)
	default:
		return newGeminiProvider(httpClient, withDefault(baseURL, defaultGeminiBaseURL), apiKey, cfg.Model)
	}
}

func credentialEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "google", "gemini":
		return "GOOGLE_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

func withDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

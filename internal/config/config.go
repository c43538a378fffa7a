package config

import (
	"strings"
	"time"
)

// LLMConfig selects and parameterizes the chat model provider
type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`

	// BaseURL overrides the provider's public endpoint (proxies, compatible gateways).
	BaseURL string `mapstructure:"base_url"`

	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	GoogleAPIKey    string `mapstructure:"google_api_key"`

	// MaxTokens bounds each completion; required by the anthropic messages API.
	MaxTokens int `mapstructure:"max_tokens"`

	// IdleTimeout cancels a stream that delivers nothing for this long.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	SystemPrompt string `mapstructure:"system_prompt"`
}

// APIKey returns the credential for the configured provider
func (c LLMConfig) APIKey() string {
	switch strings.ToLower(strings.TrimSpace(c.Provider)) {
	case "openai", "openai_compat", "deepseek":
		return strings.TrimSpace(c.OpenAIAPIKey)
	case "anthropic":
		return strings.TrimSpace(c.AnthropicAPIKey)
	case "google", "gemini":
		return strings.TrimSpace(c.GoogleAPIKey)
	}
	return ""
}

// ToolEndpointConfig locates one tool server
type ToolEndpointConfig struct {
	URL string `mapstructure:"url"`

	// Timeout overrides the catalogue timeout when non-zero.
	Timeout time.Duration `mapstructure:"timeout"`
}

type ToolConfig struct {
	PaperSearch  ToolEndpointConfig `mapstructure:"paper_search"`
	PdfSummarize ToolEndpointConfig `mapstructure:"pdf_summarize"`
}

// AgentConfig bounds the chat loop
type AgentConfig struct {
	MaxToolRounds int `mapstructure:"max_tool_rounds"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`

	// ToolRecords appends every tool call record to this JSON lines file when set.
	ToolRecords string `mapstructure:"tool_records"`
}

type MetricsConfig struct {
	// Addr serves /metrics from the chat process when set.
	Addr string `mapstructure:"addr"`
}

type PaperSearchServerConfig struct {
	Addr     string        `mapstructure:"addr"`
	ArxivURL string        `mapstructure:"arxiv_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type PdfSummarizeServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	MaxDownloadSize int64         `mapstructure:"max_download_size"`
	MaxInputTokens  int           `mapstructure:"max_input_tokens"`
}

type ServerConfig struct {
	PaperSearch  PaperSearchServerConfig  `mapstructure:"paper_search"`
	PdfSummarize PdfSummarizeServerConfig `mapstructure:"pdf_summarize"`
}

// Config holds all configuration of the chat agent and its tool servers
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Tools   ToolConfig    `mapstructure:"tools"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Server  ServerConfig  `mapstructure:"server"`
}

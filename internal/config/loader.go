package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath names the environment variable holding the config file path
	EnvConfigPath = "SCOUT_CONFIG"

	DefaultConfigPath = "etc/scout.yaml"
)

// envBindings keeps the environment names the agent has always understood
var envBindings = map[string][]string{
	"llm.provider":            {"LLM_PROVIDER", "SCOUT_LLM_PROVIDER"},
	"llm.model":               {"LLM_MODEL", "SCOUT_LLM_MODEL"},
	"llm.openai_api_key":      {"OPENAI_API_KEY", "SCOUT_LLM_OPENAI_API_KEY"},
	"llm.anthropic_api_key":   {"ANTHROPIC_API_KEY", "SCOUT_LLM_ANTHROPIC_API_KEY"},
	"llm.google_api_key":      {"GOOGLE_API_KEY", "SCOUT_LLM_GOOGLE_API_KEY"},
	"tools.paper_search.url":  {"PAPER_SEARCH_SERVER_URL", "SCOUT_TOOLS_PAPER_SEARCH_URL"},
	"tools.pdf_summarize.url": {"PDF_SUMMARIZE_SERVER_URL", "SCOUT_TOOLS_PDF_SUMMARIZE_URL"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.openai_api_key", "")
	v.SetDefault("llm.anthropic_api_key", "")
	v.SetDefault("llm.google_api_key", "")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.idle_timeout", 90*time.Second)
	v.SetDefault("llm.system_prompt", "")

	v.SetDefault("tools.paper_search.url", "http://127.0.0.1:8001")
	v.SetDefault("tools.paper_search.timeout", time.Duration(0))
	v.SetDefault("tools.pdf_summarize.url", "http://127.0.0.1:8002")
	v.SetDefault("tools.pdf_summarize.timeout", time.Duration(0))

	v.SetDefault("agent.max_tool_rounds", 8)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.tool_records", "")

	v.SetDefault("metrics.addr", "")

	v.SetDefault("server.paper_search.addr", ":8001")
	v.SetDefault("server.paper_search.arxiv_url", "http://export.arxiv.org/api/query")
	v.SetDefault("server.paper_search.timeout", 10*time.Second)
	v.SetDefault("server.pdf_summarize.addr", ":8002")
	v.SetDefault("server.pdf_summarize.download_timeout", 30*time.Second)
	v.SetDefault("server.pdf_summarize.max_download_size", int64(64<<20))
	v.SetDefault("server.pdf_summarize.max_input_tokens", 2000)
}

// ResolveConfigPath returns the config file to read, or "" when none is present
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return DefaultConfigPath
	}
	return ""
}

// loadConfig loads configuration from the specified file path using viper.
// An empty path uses defaults and environment only.
func loadConfig(configPath string) (Config, error) {
	var c Config

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return c, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return c, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return c, nil
}

// Load reads configuration from configPath, defaults and environment
func Load(configPath string) (Config, error) {
	return loadConfig(configPath)
}

// LoadYAML decodes a YAML file into T
func LoadYAML[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return LoadYAMLBytes[T](data)
}

// LoadYAMLBytes decodes a YAML document into T
func LoadYAMLBytes[T any](data []byte) (*T, error) {
	if len(data) == 0 {
		return nil, errors.New("empty yaml document")
	}
	out := new(T)
	if err := yaml.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}
	return out, nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scoutEnv = []string{
	"LLM_PROVIDER", "LLM_MODEL", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GOOGLE_API_KEY",
	"PAPER_SEARCH_SERVER_URL", "PDF_SUMMARIZE_SERVER_URL",
	"SCOUT_LLM_PROVIDER", "SCOUT_LLM_MODEL", "SCOUT_LLM_BASE_URL", "SCOUT_LOG_LEVEL",
	"SCOUT_AGENT_MAX_TOOL_ROUNDS", EnvConfigPath,
}

// clearEnv unsets every variable the loader reads for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range scoutEnv {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", c.LLM.Provider)
	assert.Equal(t, "gpt-4o", c.LLM.Model)
	assert.Equal(t, 1024, c.LLM.MaxTokens)
	assert.Equal(t, 90*time.Second, c.LLM.IdleTimeout)
	assert.Equal(t, "http://127.0.0.1:8001", c.Tools.PaperSearch.URL)
	assert.Equal(t, "http://127.0.0.1:8002", c.Tools.PdfSummarize.URL)
	assert.Zero(t, c.Tools.PaperSearch.Timeout)
	assert.Equal(t, 8, c.Agent.MaxToolRounds)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, ":8001", c.Server.PaperSearch.Addr)
	assert.Equal(t, "http://export.arxiv.org/api/query", c.Server.PaperSearch.ArxivURL)
	assert.Equal(t, 10*time.Second, c.Server.PaperSearch.Timeout)
	assert.Equal(t, 30*time.Second, c.Server.PdfSummarize.DownloadTimeout)
	assert.Equal(t, int64(64<<20), c.Server.PdfSummarize.MaxDownloadSize)
	assert.Equal(t, 2000, c.Server.PdfSummarize.MaxInputTokens)
}

func TestLoad_LegacyEnvironmentNames(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("LLM_MODEL", "claude-3-5-sonnet-latest")
	t.Setenv("ANTHROPIC_API_KEY", " sk-ant ")
	t.Setenv("PAPER_SEARCH_SERVER_URL", "http://search:9001")
	t.Setenv("PDF_SUMMARIZE_SERVER_URL", "http://pdf:9002")

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "anthropic", c.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", c.LLM.Model)
	assert.Equal(t, "sk-ant", c.LLM.APIKey())
	assert.Equal(t, "http://search:9001", c.Tools.PaperSearch.URL)
	assert.Equal(t, "http://pdf:9002", c.Tools.PdfSummarize.URL)
}

func TestLoad_FileThenPrefixedEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "scout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: google
  model: gemini-1.5-pro
  idle_timeout: 5s
tools:
  pdf_summarize:
    timeout: 3m
agent:
  max_tool_rounds: 3
log:
  level: debug
`), 0o600))
	t.Setenv("SCOUT_LLM_BASE_URL", "http://proxy:8080")
	t.Setenv("SCOUT_AGENT_MAX_TOOL_ROUNDS", "4")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "google", c.LLM.Provider)
	assert.Equal(t, "gemini-1.5-pro", c.LLM.Model)
	assert.Equal(t, 5*time.Second, c.LLM.IdleTimeout)
	assert.Equal(t, "http://proxy:8080", c.LLM.BaseURL)
	assert.Equal(t, 3*time.Minute, c.Tools.PdfSummarize.Timeout)
	assert.Equal(t, 4, c.Agent.MaxToolRounds)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestResolveConfigPath(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfigPath, "/etc/custom.yaml")
	assert.Equal(t, "/etc/custom.yaml", ResolveConfigPath())
}

func TestLLMConfig_APIKey(t *testing.T) {
	c := LLMConfig{OpenAIAPIKey: "o", AnthropicAPIKey: "a", GoogleAPIKey: "g"}

	for provider, want := range map[string]string{
		"openai": "o", "deepseek": "o", "openai_compat": "o",
		"anthropic": "a", "Google": "g", "gemini": "g", "mistral": "",
	} {
		c.Provider = provider
		assert.Equal(t, want, c.APIKey(), provider)
	}
}

type sample struct {
	Name  string   `yaml:"name"`
	Items []string `yaml:"items"`
}

func TestLoadYAMLBytes(t *testing.T) {
	out, err := LoadYAMLBytes[sample]([]byte("name: catalogue\nitems: [a, b]\n"))
	require.NoError(t, err)
	assert.Equal(t, "catalogue", out.Name)
	assert.Equal(t, []string{"a", "b"}, out.Items)

	_, err = LoadYAMLBytes[sample](nil)
	assert.Error(t, err)

	_, err = LoadYAMLBytes[sample]([]byte("name: [unclosed"))
	assert.Error(t, err)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: file\n"), 0o600))

	out, err := LoadYAML[sample](path)
	require.NoError(t, err)
	assert.Equal(t, "file", out.Name)

	_, err = LoadYAML[sample](filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

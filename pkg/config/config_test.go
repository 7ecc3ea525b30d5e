package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"OPENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "OLLAMA_BASE_URL",
		"DATABASE_URL", "JFK_LLM_PROVIDER", "JFK_LLM_MODEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig(t *testing.T) {
	clearEnv(t)

	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  provider: "ollama"
  model: "llama3"
  base_url: "http://localhost:11434"
  max_tokens: 1000
  temperature: 0.5

fetcher:
  index_url: "https://example.com/release"
  documents_dir: "docs"
  rate_limit: 2.5
  timeout: 15s
  max_pages: 10

analyzer:
  mode: "chain"
  max_input_chars: 8000
  chunk_size: 2000
  chunk_overlap: 100
  reports_dir: "out"
  file_prefix: "test"

store:
  url: "postgres://localhost:5432/test"
  table_name: "test_analyses"
  vector_dim: 768
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "ollama", config.LLM.Provider)
	assert.Equal(t, "llama3", config.LLM.Model)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	require.NotNil(t, config.LLM.Temperature)
	assert.Equal(t, 0.5, *config.LLM.Temperature)
	assert.Equal(t, 4000, config.LLM.SummaryMaxTokens)
	assert.Equal(t, "https://example.com/release", config.Fetcher.IndexURL)
	assert.Equal(t, "docs", config.Fetcher.DocumentsDir)
	assert.Equal(t, 2.5, config.Fetcher.RateLimit)
	assert.Equal(t, 15*time.Second, config.Fetcher.Timeout)
	assert.Equal(t, "chain", config.Analyzer.Mode)
	assert.Equal(t, 8000, config.Analyzer.MaxInputChars)
	assert.Equal(t, 500, config.Analyzer.ExcerptChars)
	assert.Equal(t, "test", config.Analyzer.FilePrefix)
	assert.Equal(t, "postgres://localhost:5432/test", config.Store.URL)
	assert.Equal(t, 768, config.Store.VectorDim)
	assert.Empty(t, config.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unterminated"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	clearEnv(t)

	config, err := getDefaultConfig()
	require.NoError(t, err)

	assert.Equal(t, "openai", config.LLM.Provider)
	assert.Equal(t, "gpt-4", config.LLM.Model)
	assert.Equal(t, 1500, config.LLM.MaxTokens)
	assert.Equal(t, 0.2, *config.LLM.Temperature)
	assert.Equal(t, 0.3, *config.LLM.SummaryTemperature)
	assert.Equal(t, 1536, config.Store.VectorDim)
	assert.Equal(t, DefaultIndexURL, config.Fetcher.IndexURL)
	assert.Equal(t, "pdf", config.Fetcher.DocumentsDir)
	assert.Equal(t, "reports", config.Analyzer.ReportsDir)
	assert.Equal(t, "direct", config.Analyzer.Mode)
	assert.Empty(t, config.Validate())
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(c *Config)
		errorMessages []string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name: "invalid llm settings",
			mutate: func(c *Config) {
				c.LLM.Provider = "anthropic"
				c.LLM.MaxTokens = 50000
				c.LLM.Temperature = ptr(3.0)
			},
			errorMessages: []string{
				"llm.provider: unsupported provider: anthropic",
				"llm.max_tokens: max_tokens must be between 1 and 8192",
				"llm.temperature: temperature must be between 0 and 2",
			},
		},
		{
			name: "invalid fetcher and analyzer settings",
			mutate: func(c *Config) {
				c.Fetcher.IndexURL = "not-a-url"
				c.Fetcher.RateLimit = -1
				c.Analyzer.Mode = "parallel"
				c.Analyzer.ChunkOverlap = c.Analyzer.ChunkSize
			},
			errorMessages: []string{
				"fetcher.index_url: index_url must be an absolute http(s) URL",
				"fetcher.rate_limit: rate_limit must be positive",
				"analyzer.mode: mode must be direct or chain",
				"analyzer.chunk_overlap: chunk_overlap must be non-negative and less than chunk_size",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			config, err := getDefaultConfig()
			require.NoError(t, err)
			tt.mutate(config)

			errors := config.Validate()
			require.Len(t, errors, len(tt.errorMessages))
			for i, msg := range tt.errorMessages {
				assert.Equal(t, msg, errors[i].Error())
			}
		})
	}
}

func TestValidateAnalyzerRequiresAPIKey(t *testing.T) {
	clearEnv(t)

	config, err := getDefaultConfig()
	require.NoError(t, err)

	errors := config.ValidateAnalyzer()
	require.Len(t, errors, 1)
	assert.Equal(t, "llm.api_key", errors[0].Field)

	config.LLM.Provider = "ollama"
	assert.Empty(t, config.ValidateAnalyzer())
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JFK_LLM_PROVIDER", "gemini")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("DATABASE_URL", "postgres://env-db:5432/test")

	config, err := getDefaultConfig()
	require.NoError(t, err)

	assert.Equal(t, "gemini", config.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", config.LLM.Model)
	assert.Equal(t, "google-key", config.LLM.APIKey)
	assert.Equal(t, "postgres://env-db:5432/test", config.Store.URL)

	t.Setenv("GEMINI_API_KEY", "gemini-key")
	config = &Config{}
	config.LLM.Provider = "gemini"
	mergeWithEnv(config)
	assert.Equal(t, "gemini-key", config.LLM.APIKey)
}

func TestNormalizeAfterProviderOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("OLLAMA_BASE_URL", "http://gpu-box:11434")

	config, err := getDefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", config.LLM.Model)

	config.LLM.Provider = "ollama"
	config.LLM.Model = ""
	Normalize(config)

	assert.Equal(t, "mistral", config.LLM.Model)
	assert.Equal(t, "http://gpu-box:11434", config.LLM.BaseURL)
	assert.Empty(t, config.LLM.APIKey)
	assert.Empty(t, config.ValidateAnalyzer())
}

func TestZeroTemperatureIsKept(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  temperature: 0\n"), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	require.NotNil(t, config.LLM.Temperature)
	assert.Equal(t, 0.0, *config.LLM.Temperature)
	assert.Equal(t, 0.3, *config.LLM.SummaryTemperature)
	assert.Empty(t, config.Validate())
}

func TestDefaultVectorDimFollowsProvider(t *testing.T) {
	tests := []struct {
		provider string
		dim      int
	}{
		{provider: "openai", dim: 1536},
		{provider: "ollama", dim: 768},
		{provider: "gemini", dim: 768},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("JFK_LLM_PROVIDER", tt.provider)

			config, err := getDefaultConfig()
			require.NoError(t, err)
			assert.Equal(t, tt.dim, config.Store.VectorDim)
			assert.Equal(t, tt.dim, DefaultVectorDim(tt.provider))
		})
	}

	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: gemini\nstore:\n  vector_dim: 3072\n"), 0644))
	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3072, config.Store.VectorDim)
}

func TestValidateFetcherIgnoresOtherSections(t *testing.T) {
	clearEnv(t)
	t.Setenv("JFK_LLM_PROVIDER", "anthropic")

	config, err := getDefaultConfig()
	require.NoError(t, err)
	config.Analyzer.Mode = "batch"

	assert.NotEmpty(t, config.Validate())
	assert.Empty(t, config.ValidateFetcher())

	config.Fetcher.IndexURL = "ftp://example.com/release"
	config.Fetcher.RateLimit = 0
	errs := config.ValidateFetcher()
	require.Len(t, errs, 2)
	assert.Equal(t, "fetcher.index_url", errs[0].Field)
	assert.Equal(t, "fetcher.rate_limit", errs[1].Field)
}

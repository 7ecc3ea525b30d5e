package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultIndexURL  = "https://www.archives.gov/research/jfk/release-2025"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

type Config struct {
	LLM struct {
		Provider           string  `yaml:"provider"`
		Model              string  `yaml:"model"`
		BaseURL            string  `yaml:"base_url"`
		APIKey             string  `yaml:"api_key"`
		MaxTokens          int     `yaml:"max_tokens"`
		SummaryMaxTokens   int     `yaml:"summary_max_tokens"`
		Temperature        *float64 `yaml:"temperature"`
		SummaryTemperature *float64 `yaml:"summary_temperature"`
	} `yaml:"llm"`

	Fetcher struct {
		IndexURL     string        `yaml:"index_url"`
		DocumentsDir string        `yaml:"documents_dir"`
		RateLimit    float64       `yaml:"rate_limit"`
		UserAgent    string        `yaml:"user_agent"`
		Timeout      time.Duration `yaml:"timeout"`
		MaxPages     int           `yaml:"max_pages"`
	} `yaml:"fetcher"`

	Analyzer struct {
		Mode              string `yaml:"mode"`
		MaxInputChars     int    `yaml:"max_input_chars"`
		ExcerptChars      int    `yaml:"excerpt_chars"`
		ChunkSize         int    `yaml:"chunk_size"`
		ChunkOverlap      int    `yaml:"chunk_overlap"`
		SynthesisMaxChars int    `yaml:"synthesis_max_chars"`
		ReportsDir        string `yaml:"reports_dir"`
		FilePrefix        string `yaml:"file_prefix"`
	} `yaml:"analyzer"`

	Store struct {
		URL            string `yaml:"url"`
		TableName      string `yaml:"table_name"`
		VectorDim      int    `yaml:"vector_dim"`
		EmbeddingModel string `yaml:"embedding_model"`
	} `yaml:"store"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/jfkfiles/config.yaml"),
			"/etc/jfkfiles/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

// Normalize fills settings left empty after command line overrides, such as
// the model and API key of a provider chosen by flag.
func Normalize(config *Config) {
	if config.LLM.APIKey == "" {
		config.LLM.APIKey = apiKeyFromEnv(config.LLM.Provider)
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && config.LLM.BaseURL == "" && config.LLM.Provider == "ollama" {
		config.LLM.BaseURL = baseURL
	}
	applyDefaults(config)
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = "openai"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = defaultModel(config.LLM.Provider)
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 1500
	}
	if config.LLM.SummaryMaxTokens == 0 {
		config.LLM.SummaryMaxTokens = 4000
	}
	if config.LLM.Temperature == nil {
		config.LLM.Temperature = ptr(0.2)
	}
	if config.LLM.SummaryTemperature == nil {
		config.LLM.SummaryTemperature = ptr(0.3)
	}
	if config.LLM.BaseURL == "" && config.LLM.Provider == "ollama" {
		config.LLM.BaseURL = "http://localhost:11434"
	}

	if config.Fetcher.IndexURL == "" {
		config.Fetcher.IndexURL = DefaultIndexURL
	}
	if config.Fetcher.DocumentsDir == "" {
		config.Fetcher.DocumentsDir = "pdf"
	}
	if config.Fetcher.RateLimit == 0 {
		config.Fetcher.RateLimit = 1.0
	}
	if config.Fetcher.UserAgent == "" {
		config.Fetcher.UserAgent = DefaultUserAgent
	}
	if config.Fetcher.Timeout == 0 {
		config.Fetcher.Timeout = 60 * time.Second
	}
	if config.Fetcher.MaxPages == 0 {
		config.Fetcher.MaxPages = 500
	}

	if config.Analyzer.Mode == "" {
		config.Analyzer.Mode = "direct"
	}
	if config.Analyzer.MaxInputChars == 0 {
		config.Analyzer.MaxInputChars = 12000
	}
	if config.Analyzer.ExcerptChars == 0 {
		config.Analyzer.ExcerptChars = 500
	}
	if config.Analyzer.ChunkSize == 0 {
		config.Analyzer.ChunkSize = 4000
	}
	if config.Analyzer.ChunkOverlap == 0 {
		config.Analyzer.ChunkOverlap = 200
	}
	if config.Analyzer.SynthesisMaxChars == 0 {
		config.Analyzer.SynthesisMaxChars = 60000
	}
	if config.Analyzer.ReportsDir == "" {
		config.Analyzer.ReportsDir = "reports"
	}
	if config.Analyzer.FilePrefix == "" {
		config.Analyzer.FilePrefix = "jfk"
	}

	if config.Store.TableName == "" {
		config.Store.TableName = "analyses"
	}
	if config.Store.VectorDim == 0 {
		config.Store.VectorDim = DefaultVectorDim(config.LLM.Provider)
	}
}

// DefaultVectorDim returns the vector size of the provider's default
// embedding model: text-embedding-3-small for openai, nomic-embed-text for
// ollama and text-embedding-004 for gemini.
func DefaultVectorDim(provider string) int {
	switch provider {
	case "ollama", "gemini":
		return 768
	default:
		return 1536
	}
}

func ptr[T any](v T) *T {
	return &v
}

func defaultModel(provider string) string {
	switch provider {
	case "ollama":
		return "mistral"
	case "gemini":
		return "gemini-2.5-flash"
	default:
		return "gpt-4"
	}
}

func mergeWithEnv(config *Config) {
	if provider := os.Getenv("JFK_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = provider
	}
	if model := os.Getenv("JFK_LLM_MODEL"); model != "" {
		config.LLM.Model = model
	}
	if config.LLM.APIKey == "" {
		config.LLM.APIKey = apiKeyFromEnv(config.LLM.Provider)
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && config.LLM.Provider == "ollama" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Store.URL = dbURL
	}
}

func apiKeyFromEnv(provider string) string {
	switch provider {
	case "gemini":
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	case "ollama":
		return ""
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

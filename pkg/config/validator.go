package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every section of the configuration. The API key is only
// required by ValidateAnalyzer.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.validateLLM()...)
	errors = append(errors, c.validateFetcher()...)
	errors = append(errors, c.validateAnalyzer()...)
	errors = append(errors, c.validateStore()...)
	return errors
}

// ValidateFetcher checks only the settings the fetcher reads.
func (c *Config) ValidateFetcher() []ValidationError {
	return c.validateFetcher()
}

func (c *Config) validateLLM() []ValidationError {
	var errors []ValidationError

	switch c.LLM.Provider {
	case "openai", "ollama", "gemini":
	default:
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unsupported provider: %s", c.LLM.Provider),
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 8192 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 8192",
		})
	}

	if c.LLM.SummaryMaxTokens < 1 || c.LLM.SummaryMaxTokens > 16384 {
		errors = append(errors, ValidationError{
			Field:   "llm.summary_max_tokens",
			Message: "summary_max_tokens must be between 1 and 16384",
		})
	}

	if !validTemperature(c.LLM.Temperature) {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if !validTemperature(c.LLM.SummaryTemperature) {
		errors = append(errors, ValidationError{
			Field:   "llm.summary_temperature",
			Message: "summary_temperature must be between 0 and 2",
		})
	}

	if c.LLM.BaseURL != "" && !isHTTPURL(c.LLM.BaseURL) {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid base URL",
		})
	}

	return errors
}

func (c *Config) validateFetcher() []ValidationError {
	var errors []ValidationError

	if !isHTTPURL(c.Fetcher.IndexURL) {
		errors = append(errors, ValidationError{
			Field:   "fetcher.index_url",
			Message: "index_url must be an absolute http(s) URL",
		})
	}

	if c.Fetcher.DocumentsDir == "" {
		errors = append(errors, ValidationError{
			Field:   "fetcher.documents_dir",
			Message: "documents_dir is required",
		})
	}

	if c.Fetcher.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "fetcher.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	if c.Fetcher.MaxPages < 1 {
		errors = append(errors, ValidationError{
			Field:   "fetcher.max_pages",
			Message: "max_pages must be positive",
		})
	}

	return errors
}

func (c *Config) validateAnalyzer() []ValidationError {
	var errors []ValidationError

	if c.Analyzer.Mode != "direct" && c.Analyzer.Mode != "chain" {
		errors = append(errors, ValidationError{
			Field:   "analyzer.mode",
			Message: "mode must be direct or chain",
		})
	}

	if c.Analyzer.MaxInputChars < 1 {
		errors = append(errors, ValidationError{
			Field:   "analyzer.max_input_chars",
			Message: "max_input_chars must be positive",
		})
	}

	if c.Analyzer.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "analyzer.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Analyzer.ChunkOverlap < 0 || c.Analyzer.ChunkOverlap >= c.Analyzer.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "analyzer.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	if c.Analyzer.SynthesisMaxChars < 1 {
		errors = append(errors, ValidationError{
			Field:   "analyzer.synthesis_max_chars",
			Message: "synthesis_max_chars must be positive",
		})
	}

	if c.Analyzer.ReportsDir == "" {
		errors = append(errors, ValidationError{
			Field:   "analyzer.reports_dir",
			Message: "reports_dir is required",
		})
	}

	return errors
}

func (c *Config) validateStore() []ValidationError {
	var errors []ValidationError

	if c.Store.URL != "" {
		if _, err := url.Parse(c.Store.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "store.url",
				Message: "invalid database URL",
			})
		}
		if c.Store.VectorDim < 1 {
			errors = append(errors, ValidationError{
				Field:   "store.vector_dim",
				Message: "vector_dim must be positive",
			})
		}
	}

	return errors
}

func (c *Config) ValidateAnalyzer() []ValidationError {
	errors := c.Validate()
	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.api_key",
			Message: fmt.Sprintf("an API key is required for provider %s", c.LLM.Provider),
		})
	}
	return errors
}

func validTemperature(t *float64) bool {
	return t == nil || (*t >= 0 && *t <= 2)
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

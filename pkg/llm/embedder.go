package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/xhad/jfkfiles/internal/types"
)

// EmbedderConfig selects the embedding backend for archived analyses.
type EmbedderConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

func NewEmbedderWithConfig(ctx context.Context, config EmbedderConfig) (types.Embedder, error) {
	var (
		client embeddings.EmbedderClient
		err    error
	)

	switch config.Provider {
	case "", "openai":
		if config.Model == "" {
			config.Model = "text-embedding-3-small"
		}
		opts := []openai.Option{openai.WithEmbeddingModel(config.Model)}
		if config.APIKey != "" {
			opts = append(opts, openai.WithToken(config.APIKey))
		}
		if config.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(config.BaseURL))
		}
		client, err = openai.New(opts...)
	case "ollama":
		if config.Model == "" {
			config.Model = "nomic-embed-text:latest" // Default Ollama model
		}
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434" // Default Ollama URL
		}
		client, err = ollama.New(ollama.WithModel(config.Model),
			ollama.WithServerURL(config.BaseURL))
	case "gemini":
		client, err = NewGeminiModel(ctx, GeminiConfig{
			APIKey:         config.APIKey,
			EmbeddingModel: config.Model,
			BaseURL:        config.BaseURL,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", config.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	return embedder, nil
}

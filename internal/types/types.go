package types

import (
	"context"

	"github.com/xhad/jfkfiles/internal/models"
)

// Core interfaces
type Extractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

type Completer interface {
	Complete(ctx context.Context, system, prompt string, opts CallOptions) (string, error)
	RunChain(ctx context.Context, template string, vars map[string]any, opts CallOptions) (string, error)
	ModelName() string
}

type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

type Archive interface {
	Store(ctx context.Context, runID string, records []models.Analysis) error
	Close()
}

// CallOptions overrides generation settings for a single completion. A nil
// Temperature or zero MaxTokens falls back to the engine configuration.
type CallOptions struct {
	Temperature *float64
	MaxTokens   int
}

func Ptr[T any](v T) *T {
	return &v
}

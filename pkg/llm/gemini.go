package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"google.golang.org/genai"
)

type GeminiConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	BaseURL        string // overrides the API endpoint, used by tests
}

// GeminiModel adapts the Gemini API client to langchaingo's llms.Model so it
// can be used directly or inside chains.
type GeminiModel struct {
	client         *genai.Client
	model          string
	embeddingModel string
}

var _ llms.Model = (*GeminiModel)(nil)

func NewGeminiModel(ctx context.Context, config GeminiConfig) (*GeminiModel, error) {
	if config.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if config.Model == "" {
		config.Model = "gemini-2.5-flash"
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = "text-embedding-004"
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiModel{
		client:         client,
		model:          config.Model,
		embeddingModel: config.EmbeddingModel,
	}, nil
}

func (g *GeminiModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	// ChatEngine always passes a temperature, so zero is a real setting here.
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}

	var system []string
	var contents []*genai.Content
	for _, msg := range messages {
		text := messageText(msg)
		switch msg.Role {
		case llms.ChatMessageTypeSystem:
			system = append(system, text)
		case llms.ChatMessageTypeAI:
			contents = append(contents, genai.NewContentFromText(text, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: resp.Text()}},
	}, nil
}

func (g *GeminiModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, g, prompt, options...)
}

// CreateEmbedding embeds each text with the configured embedding model.
func (g *GeminiModel) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding call failed: %w", err)
	}

	vectors := make([][]float32, 0, len(resp.Embeddings))
	for _, emb := range resp.Embeddings {
		vectors = append(vectors, emb.Values)
	}
	return vectors, nil
}

func messageText(msg llms.MessageContent) string {
	var parts []string
	for _, part := range msg.Parts {
		if text, ok := part.(llms.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/prompts"
	"github.com/xhad/jfkfiles/internal/types"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("empty response from LLM")

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Provider    string // openai, ollama or gemini
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// ChatEngine sends prompts to a language model, either directly or through a
// langchaingo LLM chain.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

// NewWithConfig creates a new ChatEngine backed by the configured provider.
func NewWithConfig(ctx context.Context, config ChatConfig) (*ChatEngine, error) {
	if config.Provider == "" {
		config.Provider = "openai"
	}

	var (
		model llms.Model
		err   error
	)
	switch config.Provider {
	case "openai":
		opts := []openai.Option{openai.WithModel(config.Model)}
		if config.APIKey != "" {
			opts = append(opts, openai.WithToken(config.APIKey))
		}
		if config.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(config.BaseURL))
		}
		model, err = openai.New(opts...)
	case "ollama":
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434" // Default Ollama URL
		}
		model, err = ollama.New(ollama.WithModel(config.Model),
			ollama.WithServerURL(config.BaseURL))
	case "gemini":
		model, err = NewGeminiModel(ctx, GeminiConfig{
			APIKey:  config.APIKey,
			Model:   config.Model,
			BaseURL: config.BaseURL,
		})
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", config.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return NewWithModel(model, config)
}

// NewWithModel wraps an existing model.
func NewWithModel(model llms.Model, config ChatConfig) (*ChatEngine, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 1500
	}

	return &ChatEngine{
		config: config,
		llm:    model,
	}, nil
}

func (ce *ChatEngine) ModelName() string {
	return ce.config.Model
}

// Complete sends a system instruction and a user prompt as chat messages and
// returns the first choice.
func (ce *ChatEngine) Complete(ctx context.Context, system, prompt string, opts types.CallOptions) (string, error) {
	var content []llms.MessageContent
	if system != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	temperature, maxTokens := ce.resolve(opts)
	response, err := ce.llm.GenerateContent(ctx, content,
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}

	if response == nil || len(response.Choices) == 0 || response.Choices[0] == nil {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(response.Choices[0].Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// RunChain fills template with vars through an LLM chain and returns its output.
func (ce *ChatEngine) RunChain(ctx context.Context, template string, vars map[string]any, opts types.CallOptions) (string, error) {
	chain := chains.NewLLMChain(ce.llm, prompts.NewPromptTemplate(template, inputKeys(vars)))

	temperature, maxTokens := ce.resolve(opts)
	out, err := chains.Call(ctx, chain, vars,
		chains.WithTemperature(temperature),
		chains.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("chain error: %w", err)
	}

	text, ok := out[chain.OutputKey].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(text), nil
}

func (ce *ChatEngine) resolve(opts types.CallOptions) (float64, int) {
	temperature := ce.config.Temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	maxTokens := ce.config.MaxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	return temperature, maxTokens
}

// RenderPrompt fills a Go-template prompt with vars.
func RenderPrompt(template string, vars map[string]any) (string, error) {
	return prompts.NewPromptTemplate(template, inputKeys(vars)).Format(vars)
}

func inputKeys(vars map[string]any) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

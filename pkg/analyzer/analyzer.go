package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/xhad/jfkfiles/internal/models"
	"github.com/xhad/jfkfiles/internal/types"
	"github.com/xhad/jfkfiles/pkg/llm"
	"github.com/xhad/jfkfiles/pkg/processor"
)

type Mode string

const (
	// ModeDirect sends one chat completion per document.
	ModeDirect Mode = "direct"
	// ModeChain runs every chunk of a document through a langchaingo LLM chain.
	ModeChain Mode = "chain"
)

var (
	ErrNoAnalyses = errors.New("no analyses to synthesize")
	ErrEmptyInput = errors.New("document produced no input text")
)

type AnalyzerConfig struct {
	Mode              Mode
	MaxInputChars     int
	SynthesisMaxChars int
	AnalysisSystem    string
	AnalysisTemplate  string
	SummarySystem     string
	SummaryTemplate   string
	ReportTitle       string
	AnalysisOptions   types.CallOptions
	SummaryOptions    types.CallOptions
	Now               func() time.Time
}

type Analyzer struct {
	config    AnalyzerConfig
	extractor types.Extractor
	completer types.Completer
	processor processor.Processor
}

func NewWithConfig(config AnalyzerConfig, extractor types.Extractor, completer types.Completer, proc processor.Processor) (*Analyzer, error) {
	if extractor == nil || completer == nil {
		return nil, errors.New("extractor and completer are required")
	}
	if config.Mode == "" {
		config.Mode = ModeDirect
	}
	if config.Mode != ModeDirect && config.Mode != ModeChain {
		return nil, fmt.Errorf("unknown analysis mode: %s", config.Mode)
	}
	if config.MaxInputChars == 0 {
		config.MaxInputChars = 12000
	}
	if config.SynthesisMaxChars == 0 {
		config.SynthesisMaxChars = 60000
	}
	if config.AnalysisSystem == "" {
		config.AnalysisSystem = DefaultAnalysisSystem
	}
	if config.AnalysisTemplate == "" {
		config.AnalysisTemplate = DefaultAnalysisTemplate
	}
	if config.SummarySystem == "" {
		config.SummarySystem = DefaultSummarySystem
	}
	if config.SummaryTemplate == "" {
		config.SummaryTemplate = DefaultSummaryTemplate
	}
	if config.ReportTitle == "" {
		config.ReportTitle = DefaultReportTitle
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Analyzer{
		config:    config,
		extractor: extractor,
		completer: completer,
		processor: proc,
	}, nil
}

// AnalyzeDocument extracts the text of one document and runs it through the model.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, ref models.DocumentRef) (models.Analysis, error) {
	text, err := a.extractor.ExtractText(ctx, ref.Path)
	if err != nil {
		return models.Analysis{}, fmt.Errorf("text extraction failed for %s: %w", ref.Name, err)
	}

	input := processor.Truncate(text, a.config.MaxInputChars)
	if strings.TrimSpace(input) == "" {
		return models.Analysis{}, fmt.Errorf("%s: %w", ref.Name, ErrEmptyInput)
	}

	var (
		analysis string
		chunks   int
	)
	switch a.config.Mode {
	case ModeChain:
		analysis, chunks, err = a.analyzeChunks(ctx, ref, input)
	default:
		analysis, err = a.analyzeDirect(ctx, input)
		chunks = 1
	}
	if err != nil {
		return models.Analysis{}, fmt.Errorf("analysis failed for %s: %w", ref.Name, err)
	}

	return models.Analysis{
		Document:  ref.Name,
		Path:      ref.Path,
		Excerpt:   a.processor.Excerpt(text),
		Analysis:  analysis,
		Chunks:    chunks,
		Model:     a.completer.ModelName(),
		CreatedAt: a.config.Now(),
	}, nil
}

func (a *Analyzer) analyzeDirect(ctx context.Context, input string) (string, error) {
	prompt, err := llm.RenderPrompt(a.config.AnalysisTemplate, map[string]any{"text": input})
	if err != nil {
		return "", fmt.Errorf("failed to render analysis prompt: %w", err)
	}
	return a.completer.Complete(ctx, a.config.AnalysisSystem, prompt, a.config.AnalysisOptions)
}

// analyzeChunks splits input and analyses each chunk; chunk failures are
// skipped as long as one chunk succeeds.
func (a *Analyzer) analyzeChunks(ctx context.Context, ref models.DocumentRef, input string) (string, int, error) {
	parts, err := a.processor.Split(input)
	if err != nil {
		return "", 0, err
	}
	if len(parts) == 0 {
		return "", 0, ErrEmptyInput
	}

	var results []string
	var lastErr error
	for i, part := range parts {
		out, err := a.completer.RunChain(ctx, a.config.AnalysisTemplate, map[string]any{"text": part}, a.config.AnalysisOptions)
		if err != nil {
			log.Printf("Error analyzing chunk %d/%d of %s: %v", i+1, len(parts), ref.Name, err)
			lastErr = err
			continue
		}
		results = append(results, out)
	}

	if len(results) == 0 {
		return "", 0, fmt.Errorf("all %d chunks failed: %w", len(parts), lastErr)
	}
	return strings.Join(results, "\n\n"), len(results), nil
}

// AnalyzeAll processes refs one after another. Documents that fail are
// logged and left out; the returned records keep input order.
func (a *Analyzer) AnalyzeAll(ctx context.Context, refs []models.DocumentRef, onDone func(ref models.DocumentRef, err error)) []models.Analysis {
	records := make([]models.Analysis, 0, len(refs))
	seen := make(map[string]bool)

	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}

		var err error
		if seen[ref.Name] {
			err = fmt.Errorf("duplicate document %s", ref.Name)
		} else {
			var record models.Analysis
			record, err = a.AnalyzeDocument(ctx, ref)
			if err == nil {
				seen[ref.Name] = true
				records = append(records, record)
			}
		}

		if err != nil {
			log.Printf("Skipping %s: %v", ref.Name, err)
		}
		if onDone != nil {
			onDone(ref, err)
		}
	}

	return records
}

package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/xhad/jfkfiles/internal/models"
	"github.com/xhad/jfkfiles/pkg/llm"
	"github.com/xhad/jfkfiles/pkg/processor"
)

// SynthesisContext concatenates records in order, one headed block per
// document, and truncates the result to limit runes.
func SynthesisContext(records []models.Analysis, limit int) string {
	var b strings.Builder
	for _, record := range records {
		fmt.Fprintf(&b, "=== ANALYSIS OF DOCUMENT: %s ===\n\n%s\n\n", record.Document, record.Analysis)
	}
	return processor.Truncate(b.String(), limit)
}

// Synthesize makes the single aggregating call over every record.
func (a *Analyzer) Synthesize(ctx context.Context, records []models.Analysis) (models.Report, error) {
	if len(records) == 0 {
		return models.Report{}, ErrNoAnalyses
	}

	analyses := SynthesisContext(records, a.config.SynthesisMaxChars)
	vars := map[string]any{"analyses": analyses}

	var (
		content string
		err     error
	)
	if a.config.Mode == ModeChain {
		content, err = a.completer.RunChain(ctx, a.config.SummaryTemplate, vars, a.config.SummaryOptions)
	} else {
		var prompt string
		prompt, err = llm.RenderPrompt(a.config.SummaryTemplate, vars)
		if err != nil {
			return models.Report{}, fmt.Errorf("failed to render summary prompt: %w", err)
		}
		content, err = a.completer.Complete(ctx, a.config.SummarySystem, prompt, a.config.SummaryOptions)
	}
	if err != nil {
		return models.Report{}, fmt.Errorf("synthesis failed: %w", err)
	}

	documents := make([]string, len(records))
	for i, record := range records {
		documents[i] = record.Document
	}

	return models.Report{
		Title:     a.config.ReportTitle,
		Content:   content,
		Documents: documents,
		Model:     a.completer.ModelName(),
		CreatedAt: a.config.Now(),
	}, nil
}

package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/textsplitter"
)

// ErrNoText is returned for PDFs that parse but carry no extractable text,
// typically scanned image-only documents.
var ErrNoText = errors.New("no text content extracted")

type ProcessorConfig struct {
	ChunkSize    int
	ChunkOverlap int
	ExcerptChars int
}

type Processor struct {
	config   ProcessorConfig
	splitter textsplitter.RecursiveCharacter
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize == 0 {
		config.ChunkSize = 4000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 200
	}
	if config.ExcerptChars == 0 {
		config.ExcerptChars = 500
	}

	return Processor{
		config: config,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(config.ChunkSize),
			textsplitter.WithChunkOverlap(config.ChunkOverlap),
		),
	}
}

// ExtractText returns the text of every page of the PDF at path, one page per line block.
func (p Processor) ExtractText(ctx context.Context, path string) (text string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	// The PDF reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed PDF %s: %v", path, r)
		}
	}()

	pages, err := documentloaders.NewPDF(f, info.Size()).Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF %s: %w", path, err)
	}

	var b strings.Builder
	for _, page := range pages {
		b.WriteString(page.PageContent)
		b.WriteString("\n")
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("%s: %w", path, ErrNoText)
	}
	return b.String(), nil
}

// Split breaks text into overlapping chunks of at most ChunkSize characters.
func (p Processor) Split(text string) ([]string, error) {
	chunks, err := p.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}
	return chunks, nil
}

// Excerpt returns the whitespace-collapsed head of text for analysis records.
func (p Processor) Excerpt(text string) string {
	return Truncate(strings.Join(strings.Fields(text), " "), p.config.ExcerptChars)
}

// Truncate keeps at most limit runes from the head of text.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	n := 0
	for i := range text {
		if n == limit {
			return text[:i]
		}
		n++
	}
	return text
}

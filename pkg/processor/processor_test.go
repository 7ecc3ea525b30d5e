package processor_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/jfkfiles/pkg/processor"
)

// buildPDF assembles a single-page PDF showing text in Helvetica, with a
// correct cross-reference table.
func buildPDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 24 Tf 72 712 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestExtractText(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{})
	path := writeFile(t, "memo.pdf", buildPDF("Hello archive"))

	text, err := p.ExtractText(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, text, "Hello archive")
}

func TestExtractTextFailures(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{})
	ctx := context.Background()

	_, err := p.ExtractText(ctx, filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)

	_, err = p.ExtractText(ctx, writeFile(t, "corrupt.pdf", []byte("this is not a pdf at all")))
	assert.Error(t, err)

	_, err = p.ExtractText(ctx, writeFile(t, "scanned.pdf", buildPDF("")))
	assert.ErrorIs(t, err, processor.ErrNoText)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{"shorter than limit", "memo", 10, "memo"},
		{"exact limit", "memo", 4, "memo"},
		{"tail dropped", "memorandum", 4, "memo"},
		{"multibyte runes", "café société", 6, "café s"},
		{"zero limit", "memo", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := processor.Truncate(tt.text, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestSplit(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    100,
		ChunkOverlap: 10,
	})

	text := strings.Repeat("The witness described the motorcade route in detail. ", 20)
	chunks, err := p.Split(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100)
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestExcerpt(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{ExcerptChars: 12})

	assert.Equal(t, "CIA cable re", p.Excerpt("  CIA\n\ncable   regarding travel"))
	assert.Equal(t, "short", p.Excerpt("short"))
}

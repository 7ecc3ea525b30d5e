package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xhad/jfkfiles/internal/models"
)

const timestampLayout = "20060102_150405"

// Writer saves analysis records and reports as timestamped files in Dir.
type Writer struct {
	Dir    string
	Prefix string
	Now    func() time.Time
}

func NewWriter(dir, prefix string) *Writer {
	return &Writer{
		Dir:    dir,
		Prefix: prefix,
		Now:    time.Now,
	}
}

// WriteAnalyses writes records as an indented JSON array and returns the file path.
func (w *Writer) WriteAnalyses(records []models.Analysis) (string, error) {
	if records == nil {
		records = []models.Analysis{}
	}

	// Model output is free text; keep <, > and & readable.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return "", fmt.Errorf("failed to encode analyses: %w", err)
	}

	return w.write("analyses", ".json", buf.Bytes())
}

// WriteReport writes the report as markdown and returns the file path. The
// body is preceded by the title and generation details and followed by the
// list of source documents.
func (w *Writer) WriteReport(r models.Report) (string, error) {
	return w.write("report", ".md", []byte(RenderReport(r)))
}

func RenderReport(r models.Report) string {
	var b strings.Builder

	if r.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", r.Title)
	}

	var details []string
	if !r.CreatedAt.IsZero() {
		details = append(details, "Generated "+r.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if r.Model != "" {
		details = append(details, "model "+r.Model)
	}
	if len(r.Documents) > 0 {
		details = append(details, fmt.Sprintf("%d source documents", len(r.Documents)))
	}
	if len(details) > 0 {
		fmt.Fprintf(&b, "_%s_\n\n", strings.Join(details, ", "))
	}

	b.WriteString(r.Content)

	if len(r.Documents) > 0 {
		b.WriteString("\n\n## Source documents\n\n")
		for _, doc := range r.Documents {
			fmt.Fprintf(&b, "- %s\n", doc)
		}
	}

	return b.String()
}

func (w *Writer) write(kind, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", w.Dir, err)
	}

	path := filepath.Join(w.Dir, w.filename(kind, ext))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func (w *Writer) filename(kind, ext string) string {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	name := kind + "_" + now().Format(timestampLayout) + ext
	if w.Prefix != "" {
		name = w.Prefix + "_" + name
	}
	return name
}

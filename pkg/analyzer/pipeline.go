package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xhad/jfkfiles/internal/models"
	"github.com/xhad/jfkfiles/internal/types"
	"github.com/xhad/jfkfiles/pkg/report"
)

var ErrNoDocuments = errors.New("no PDF files found")

type Pipeline struct {
	Analyzer     *Analyzer
	Writer       *report.Writer
	Archive      types.Archive // optional
	DocumentsDir string

	OnStart      func(total int)
	OnDocument   func(ref models.DocumentRef, err error)
	OnSynthesize func()
}

type Result struct {
	Documents    int
	Analyses     []models.Analysis
	AnalysesPath string
	Report       models.Report
	ReportPath   string
}

// Run analyses every local document, saves the records, then synthesizes
// and saves the report. When synthesis fails the records file is kept and
// returned in Result alongside the error.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	var result Result

	refs, err := ListLocal(p.DocumentsDir)
	if err != nil {
		return result, err
	}
	if len(refs) == 0 {
		return result, fmt.Errorf("%w in %s", ErrNoDocuments, p.DocumentsDir)
	}
	result.Documents = len(refs)
	log.Printf("Found %d PDF files", len(refs))

	if p.OnStart != nil {
		p.OnStart(len(refs))
	}
	result.Analyses = p.Analyzer.AnalyzeAll(ctx, refs, p.OnDocument)

	result.AnalysesPath, err = p.Writer.WriteAnalyses(result.Analyses)
	if err != nil {
		return result, fmt.Errorf("failed to save analyses: %w", err)
	}
	log.Printf("Saved analyses to %s", result.AnalysesPath)

	if p.Archive != nil {
		runID := strings.TrimSuffix(filepath.Base(result.AnalysesPath), filepath.Ext(result.AnalysesPath))
		if err := p.Archive.Store(ctx, runID, result.Analyses); err != nil {
			log.Printf("Error archiving analyses: %v", err)
		}
	}

	if p.OnSynthesize != nil {
		p.OnSynthesize()
	}
	result.Report, err = p.Analyzer.Synthesize(ctx, result.Analyses)
	if err != nil {
		return result, err
	}

	result.ReportPath, err = p.Writer.WriteReport(result.Report)
	if err != nil {
		return result, fmt.Errorf("failed to save report: %w", err)
	}
	log.Printf("Saved report to %s", result.ReportPath)

	return result, nil
}

// ListLocal returns the PDF files directly inside dir, sorted by name.
func ListLocal(dir string) ([]models.DocumentRef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read documents directory %s: %w", dir, err)
	}

	var refs []models.DocumentRef
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		refs = append(refs, models.DocumentRef{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
		})
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/xhad/jfkfiles/internal/models"
	"github.com/xhad/jfkfiles/internal/types"
	"github.com/xhad/jfkfiles/pkg/analyzer"
	cfgPkg "github.com/xhad/jfkfiles/pkg/config"
	"github.com/xhad/jfkfiles/pkg/llm"
	"github.com/xhad/jfkfiles/pkg/processor"
	"github.com/xhad/jfkfiles/pkg/report"
	"github.com/xhad/jfkfiles/pkg/store"
)

// Search holds the flags of the archive lookup mode.
type Search struct {
	Query string
	Limit int
}

func main() {
	cfg, search, err := parseFlags()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if search.Query != "" {
		err = runSearch(ctx, cfg, search)
	} else {
		err = run(ctx, cfg)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func parseFlags() (*cfgPkg.Config, Search, error) {
	var (
		search     Search
		configPath string
		provider   string
		model      string
		mode       string
		docsDir    string
		reportsDir string
		dbURL      string
	)

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&provider, "provider", "", "LLM provider (openai, ollama, gemini)")
	flag.StringVar(&model, "model", "", "LLM model to use")
	flag.StringVar(&mode, "mode", "", "Analysis mode (direct, chain)")
	flag.StringVar(&docsDir, "dir", "", "Directory holding the PDF documents")
	flag.StringVar(&reportsDir, "out", "", "Directory to write analyses and reports to")
	flag.StringVar(&dbURL, "db-url", "", "PostgreSQL connection string for the analysis archive")
	flag.StringVar(&search.Query, "similar", "", "Search the archive for analyses similar to this text instead of analyzing")
	flag.IntVar(&search.Limit, "limit", 5, "Number of archived analyses to show with -similar")
	flag.Parse()

	cfg, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		return nil, search, err
	}

	// Override config with command line flags if provided
	if provider != "" && provider != cfg.LLM.Provider {
		if cfg.Store.VectorDim == cfgPkg.DefaultVectorDim(cfg.LLM.Provider) {
			cfg.Store.VectorDim = 0
		}
		cfg.LLM.Provider = provider
		cfg.LLM.APIKey = ""
		cfg.LLM.BaseURL = ""
		if model == "" {
			cfg.LLM.Model = ""
		}
	}
	if model != "" {
		cfg.LLM.Model = model
	}
	if mode != "" {
		cfg.Analyzer.Mode = mode
	}
	if docsDir != "" {
		cfg.Fetcher.DocumentsDir = docsDir
	}
	if reportsDir != "" {
		cfg.Analyzer.ReportsDir = reportsDir
	}
	if dbURL != "" {
		cfg.Store.URL = dbURL
	}
	cfgPkg.Normalize(cfg)

	if errs := cfg.ValidateAnalyzer(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		return nil, search, fmt.Errorf("invalid configuration")
	}

	return cfg, search, nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(ctx context.Context, cfg *cfgPkg.Config) error {
	chatEngine, err := llm.NewWithConfig(ctx, llm.ChatConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: *cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %v", err)
	}

	proc := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    cfg.Analyzer.ChunkSize,
		ChunkOverlap: cfg.Analyzer.ChunkOverlap,
		ExcerptChars: cfg.Analyzer.ExcerptChars,
	})

	a, err := analyzer.NewWithConfig(analyzer.AnalyzerConfig{
		Mode:              analyzer.Mode(cfg.Analyzer.Mode),
		MaxInputChars:     cfg.Analyzer.MaxInputChars,
		SynthesisMaxChars: cfg.Analyzer.SynthesisMaxChars,
		AnalysisOptions: types.CallOptions{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		},
		SummaryOptions: types.CallOptions{
			Temperature: cfg.LLM.SummaryTemperature,
			MaxTokens:   cfg.LLM.SummaryMaxTokens,
		},
	}, proc, chatEngine, proc)
	if err != nil {
		return fmt.Errorf("failed to initialize analyzer: %v", err)
	}

	archive, err := openArchive(ctx, cfg)
	if err != nil {
		// Reports on disk do not depend on the archive.
		color.Yellow("Archive disabled: %v\n", err)
	}
	if archive != nil {
		defer archive.Close()
	}

	var bar *progressbar.ProgressBar
	var spinner *progressbar.ProgressBar
	pipeline := &analyzer.Pipeline{
		Analyzer:     a,
		Writer:       report.NewWriter(cfg.Analyzer.ReportsDir, cfg.Analyzer.FilePrefix),
		DocumentsDir: cfg.Fetcher.DocumentsDir,
		OnStart: func(total int) {
			color.Blue("\nAnalyzing %d documents with %s (%s mode)\n", total, chatEngine.ModelName(), cfg.Analyzer.Mode)
			bar = getProgressBar(total, "🔍 Analyzing documents...")
		},
		OnDocument: func(ref models.DocumentRef, err error) {
			if err != nil {
				bar.Describe(color.YellowString("🔍 Skipped %s", ref.Name))
			} else {
				bar.Describe(color.BlueString("🔍 Analyzed %s", ref.Name))
			}
			bar.Add(1)
		},
		OnSynthesize: func() {
			bar.Finish()
			spinner = getSpinner("🤖 Writing final report...")
		},
	}
	if archive != nil {
		pipeline.Archive = archive
	}

	result, err := pipeline.Run(ctx)
	if spinner != nil {
		spinner.Finish()
	}
	if result.AnalysesPath != "" {
		color.Green("\n✓ %d of %d documents analyzed, saved to %s\n", len(result.Analyses), result.Documents, result.AnalysesPath)
	}
	if err != nil {
		return err
	}

	color.Green("✓ Report saved to %s\n", result.ReportPath)
	return nil
}

// runSearch prints the archived analyses closest to the query.
func runSearch(ctx context.Context, cfg *cfgPkg.Config, search Search) error {
	if cfg.Store.URL == "" {
		return errors.New("-similar needs an archive: set store.url, DATABASE_URL or -db-url")
	}

	archive, err := openArchive(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open archive: %v", err)
	}
	defer archive.Close()

	spinner := getSpinner("🔍 Searching archived analyses...")
	matches, err := archive.Similar(ctx, search.Query, search.Limit)
	spinner.Finish()
	fmt.Print("\r")
	if err != nil {
		return fmt.Errorf("search failed: %v", err)
	}

	if len(matches) == 0 {
		color.Yellow("No archived analyses found")
		return nil
	}
	printMatches(os.Stdout, matches)
	return nil
}

func printMatches(w io.Writer, matches []store.Match) {
	title := color.New(color.FgGreen, color.Bold)
	meta := color.New(color.FgCyan)

	for i, m := range matches {
		title.Fprintf(w, "%d. %s\n", i+1, m.Analysis.Document)
		meta.Fprintf(w, "   run %s, distance %.3f\n", m.RunID, m.Distance)
		snippet := processor.Truncate(strings.Join(strings.Fields(m.Analysis.Analysis), " "), 300)
		fmt.Fprintf(w, "   %s\n\n", snippet)
	}
}

// openArchive connects the pgvector archive when a database URL is configured.
func openArchive(ctx context.Context, cfg *cfgPkg.Config) (*store.VectorStore, error) {
	if cfg.Store.URL == "" {
		return nil, nil
	}

	embedder, err := llm.NewEmbedderWithConfig(ctx, llm.EmbedderConfig{
		Provider: cfg.LLM.Provider,
		Model:    cfg.Store.EmbeddingModel,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	return store.NewWithConfig(ctx, store.VectorStoreConfig{
		ConnString: cfg.Store.URL,
		TableName:  cfg.Store.TableName,
		VectorDim:  cfg.Store.VectorDim,
		Embedder:   embedder,
	})
}

package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/xhad/jfkfiles/internal/models"
)

var ErrEmptyDocument = errors.New("empty document body")

// Summary counts the outcome of a FetchAll run.
type Summary struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// FetchAll downloads every ref that is not already on disk. Failures are
// logged and counted; they never stop the run.
func (s *Scraper) FetchAll(ctx context.Context, refs []models.DocumentRef, onDone func(ref models.DocumentRef, err error)) (Summary, error) {
	var summary Summary

	if err := os.MkdirAll(s.config.DocumentsDir, 0o755); err != nil {
		return summary, fmt.Errorf("failed to create documents directory %s: %w", s.config.DocumentsDir, err)
	}

	for _, ref := range refs {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		if Exists(ref.Path) {
			log.Printf("Skipping already downloaded: %s", ref.Name)
			summary.Skipped++
			if onDone != nil {
				onDone(ref, nil)
			}
			continue
		}

		// Apply rate limiting
		if err := s.limiter.Wait(ctx); err != nil {
			return summary, err
		}

		err := s.Download(ctx, ref)
		if err != nil {
			log.Printf("Error downloading %s: %v", ref.URL, err)
			summary.Failed++
		} else {
			summary.Downloaded++
		}
		if onDone != nil {
			onDone(ref, err)
		}
	}

	return summary, nil
}

// Download streams ref.URL into ref.Path through a temporary ".part" file so
// an interrupted or failed transfer never leaves a partial document behind.
func (s *Scraper) Download(ctx context.Context, ref models.DocumentRef) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return err
	}

	resp, err := s.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(ref.Path), 0o755); err != nil {
		return err
	}

	tmpPath := ref.Path + ".part"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmpPath, err)
	}

	n, err := io.Copy(f, resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n == 0 {
		err = ErrEmptyDocument
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to download %s: %w", ref.URL, err)
	}

	if err := os.Rename(tmpPath, ref.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move %s into place: %w", ref.Name, err)
	}
	return nil
}

// Exists reports whether a complete (non-empty) file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

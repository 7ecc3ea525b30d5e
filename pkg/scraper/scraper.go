package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/xhad/jfkfiles/internal/models"
	"golang.org/x/time/rate"
)

type ScraperConfig struct {
	BaseURL            string // archive index page
	DocumentsDir       string
	RateLimit          float64 // downloads per second
	UserAgent          string
	MaxPages           int
	AllowedExtensions  []string
	PaginationSelector string
	Timeout            time.Duration
	OnProgress         func(url string)
}

type Scraper struct {
	config   ScraperConfig
	client   *http.Client
	limiter  *rate.Limiter
	baseHost string
}

var unsafeFilenameChars = regexp.MustCompile(`[^\w\-.]`)

func NewWithConfig(config ScraperConfig) (*Scraper, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 1 // one download per second by default
	}
	if config.MaxPages == 0 {
		config.MaxPages = 500
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = []string{".pdf"}
	}
	if config.PaginationSelector == "" {
		config.PaginationSelector = "div.pagination a[href]"
	}
	if config.DocumentsDir == "" {
		config.DocumentsDir = "pdf"
	}

	parsedURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, err
	}
	if !parsedURL.IsAbs() {
		return nil, fmt.Errorf("index URL must be absolute: %s", config.BaseURL)
	}

	return &Scraper{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		baseHost: parsedURL.Host,
	}, nil
}

// ListDocuments walks the index and its pagination links breadth-first and
// returns every linked document once, in the order first seen.
func (s *Scraper) ListDocuments(ctx context.Context) ([]models.DocumentRef, error) {
	var refs []models.DocumentRef
	seenDocs := make(map[string]bool)
	seenNames := make(map[string]bool)
	visited := make(map[string]bool)
	queue := []string{s.config.BaseURL}

	for len(queue) > 0 && len(visited) < s.config.MaxPages {
		pageURL := queue[0]
		queue = queue[1:]
		if visited[pageURL] {
			continue
		}
		visited[pageURL] = true

		if s.config.OnProgress != nil {
			s.config.OnProgress(pageURL)
		}

		doc, err := s.fetchPage(ctx, pageURL)
		if err != nil {
			if pageURL == s.config.BaseURL {
				return nil, fmt.Errorf("failed to fetch index %s: %w", pageURL, err)
			}
			log.Printf("Error fetching page %s: %v", pageURL, err)
			continue
		}

		for _, link := range s.documentLinks(doc, pageURL) {
			if seenDocs[link] {
				continue
			}
			seenDocs[link] = true

			name := SanitizeFilename(link)
			if name == "" || seenNames[name] {
				log.Printf("Skipping %s: duplicate or empty filename %q", link, name)
				continue
			}
			seenNames[name] = true

			refs = append(refs, models.DocumentRef{
				Name: name,
				URL:  link,
				Path: filepath.Join(s.config.DocumentsDir, name),
			})
		}

		for _, next := range s.paginationLinks(doc, pageURL) {
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}

	return refs, nil
}

func (s *Scraper) fetchPage(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return goquery.NewDocumentFromReader(resp.Body)
}

func (s *Scraper) do(req *http.Request) (*http.Response, error) {
	if s.config.UserAgent != "" {
		req.Header.Set("User-Agent", s.config.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, req.URL)
	}
	return resp, nil
}

func (s *Scraper) documentLinks(doc *goquery.Document, pageURL string) []string {
	var links []string
	doc.Find("a[href]").Each(func(_ int, selection *goquery.Selection) {
		href, _ := selection.Attr("href")
		absoluteURL, err := resolve(pageURL, href)
		if err != nil {
			log.Printf("Error parsing URL: %v", err)
			return
		}
		if s.isDocument(absoluteURL) {
			links = append(links, absoluteURL.String())
		}
	})
	return links
}

func (s *Scraper) paginationLinks(doc *goquery.Document, pageURL string) []string {
	var links []string
	doc.Find(s.config.PaginationSelector).Each(func(_ int, selection *goquery.Selection) {
		href, _ := selection.Attr("href")
		absoluteURL, err := resolve(pageURL, href)
		if err != nil {
			log.Printf("Error parsing pagination URL: %v", err)
			return
		}
		// Stay on the archive host
		if absoluteURL.Host != s.baseHost {
			return
		}
		absoluteURL.Fragment = ""
		if next := absoluteURL.String(); next != pageURL {
			links = append(links, next)
		}
	})
	return links
}

func (s *Scraper) isDocument(u *url.URL) bool {
	p := strings.ToLower(u.Path)
	for _, ext := range s.config.AllowedExtensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

func resolve(pageURL, href string) (*url.URL, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, err
	}
	return base.ResolveReference(ref), nil
}

// SanitizeFilename derives a local filename from a document URL.
func SanitizeFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

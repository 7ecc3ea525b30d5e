package models

import "time"

// DocumentRef identifies one archive document and where it lives on disk.
type DocumentRef struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	Path string `json:"path"`
}

type Analysis struct {
	Document  string    `json:"document"`
	Path      string    `json:"path"`
	Excerpt   string    `json:"excerpt"`
	Analysis  string    `json:"analysis"`
	Chunks    int       `json:"chunks"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Report is the synthesized narrative built from every Analysis of a run.
type Report struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Documents []string  `json:"documents"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

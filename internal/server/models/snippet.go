package models

import (
	"strings"
	"time"
)

const (
	DefaultLanguage   = "python"
	DefaultBackground = "#ABB8C3"
	DefaultTheme      = "seti"
)

// Snippet is a stored code sample and the URL of its rendered image.
type Snippet struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language"`
	Background  string    `json:"background"`
	Theme       string    `json:"theme"`
	Watermark   string    `json:"watermark,omitempty"`
	AccountID   string    `json:"account_id"`
	URL         string    `json:"url,omitempty"`
	Public      bool      `json:"public"`
	CreatedAt   time.Time `json:"created_at"`
}

// SnippetDraft is what a caller submits to create a Snippet.
type SnippetDraft struct {
	Title       string `json:"title" form:"title" binding:"required,max=200"`
	Code        string `json:"code" form:"code" binding:"required"`
	Description string `json:"description" form:"description"`
	Language    string `json:"language" form:"language"`
	Background  string `json:"background" form:"background"`
	Theme       string `json:"theme" form:"theme"`
	Watermark   string `json:"watermark" form:"watermark"`
	Public      *bool  `json:"public" form:"public"`
}

// Normalize fills display defaults and lowercases the language.
func (d SnippetDraft) Normalize() SnippetDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.Language = strings.ToLower(strings.TrimSpace(d.Language))
	if d.Language == "" {
		d.Language = DefaultLanguage
	}
	if d.Background == "" {
		d.Background = DefaultBackground
	}
	if d.Theme == "" {
		d.Theme = DefaultTheme
	}
	if d.Public == nil {
		public := true
		d.Public = &public
	}
	return d
}

// Page bounds a listing query.
type Page struct {
	Offset int
	Limit  int
}

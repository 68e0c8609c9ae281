package page

import (
	"time"

	"github.com/DannyMang/theta/internal/domain/content"
)

// Heading is one h1-h6 element in document order
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id,omitempty"`
}

// Page is an analyzed document
type Page struct {
	URL         string                    `json:"url"`
	StatusCode  int                       `json:"status_code,omitempty"`
	ContentType string                    `json:"content_type,omitempty"`
	Charset     string                    `json:"charset,omitempty"`
	Truncated   bool                      `json:"truncated,omitempty"`
	Content     *content.ExtractedContent `json:"content"`
	HTML        string                    `json:"html"`
	Metadata    map[string]string         `json:"metadata"`
	Headings    []Heading                 `json:"headings"`
	ExtractedAt time.Time                 `json:"extracted_at"`
}

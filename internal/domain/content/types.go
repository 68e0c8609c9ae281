package content

import (
	"errors"
	"fmt"
)

// DefaultTitle is used when a document has no usable title element.
const DefaultTitle = "Untitled"

// UserAgent identifies extraction fetches.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// WordsPerMinute is the assumed reading speed.
const WordsPerMinute = 200

// ExtractedContent is the structured result of one extraction.
type ExtractedContent struct {
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	MetaDescription *string  `json:"meta_description"`
	MetaKeywords    *string  `json:"meta_keywords"`
	Links           []string `json:"links"`
	Images          []string `json:"images"`
	WordCount       int      `json:"word_count"`
	ReadingTime     int      `json:"reading_time"`
}

// ErrFetch matches every error returned by ExtractFromURL.
var ErrFetch = errors.New("content fetch failed")

// FetchError reports a transport failure or an undecodable body. The cause
// is available through errors.Unwrap.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is reports ErrFetch as a match so callers need not know the cause.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

package fetch

import (
	"fmt"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
)

// minConfidence is the chardet confidence below which its guess is ignored.
const minConfidence = 50

// decodeBody rejects binary payloads and converts text to UTF-8.
func decodeBody(body []byte, contentType string) (string, string, error) {
	if len(body) == 0 {
		return "", "utf-8", nil
	}

	if detected := mimetype.Detect(body); !isText(detected) {
		return "", "", fmt.Errorf("%w: binary content %s", ErrDecode, detected.String())
	}

	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if !certain && name == "windows-1252" {
		// DetermineEncoding fell through to its default guess
		if guessed, guessedName := detectCharset(body); guessed != nil {
			enc, name = guessed, guessedName
		}
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
	}
	return string(decoded), name, nil
}

// isText reports whether m is text/plain or one of its descendants
// (html, xml, json, ...).
func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func detectCharset(body []byte) (encoding.Encoding, string) {
	result, err := chardet.NewTextDetector().DetectBest(body)
	if err != nil || result.Confidence < minConfidence {
		return nil, ""
	}
	return charset.Lookup(result.Charset)
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	return mt
}

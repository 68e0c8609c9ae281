package content

import "strings"

type scanState int

const (
	outsideTag scanState = iota
	insideTag
	scriptBody
	styleBody
)

// isSpace holds the ASCII bytes that separate tag names and attributes.
var isSpace = [256]bool{' ': true, '\t': true, '\n': true, '\r': true, '\f': true, '\v': true}

// ExtractFromHTML extracts title, body text, metas, links and images.
func ExtractFromHTML(html string) *ExtractedContent {
	s := scanner{src: html}
	s.run()

	body := strings.Join(strings.Fields(s.body.String()), " ")
	words := len(strings.Fields(body))

	title := DefaultTitle
	if s.titleFound && s.title != "" {
		title = s.title
	}

	links, images := s.links, s.images
	if links == nil {
		links = []string{}
	}
	if images == nil {
		images = []string{}
	}

	return &ExtractedContent{
		Title:           title,
		Content:         body,
		MetaDescription: s.description,
		MetaKeywords:    s.keywords,
		Links:           links,
		Images:          images,
		WordCount:       words,
		ReadingTime:     ReadingTime(words),
	}
}

// ReadingTime returns max(1, ceil(words/WordsPerMinute)).
func ReadingTime(words int) int {
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

type scanner struct {
	src   string
	pos   int
	state scanState
	body  strings.Builder

	titleSeen  bool
	titleFound bool
	title      string

	description *string
	keywords    *string
	links       []string
	images      []string
}

func (s *scanner) run() {
	for s.pos < len(s.src) {
		switch s.state {
		case outsideTag:
			s.scanText()
		case insideTag:
			s.scanTag()
		case scriptBody:
			s.skipRawBody("</script")
		case styleBody:
			s.skipRawBody("</style")
		}
	}
}

func (s *scanner) scanText() {
	lt := strings.IndexByte(s.src[s.pos:], '<')
	if lt < 0 {
		s.body.WriteString(s.src[s.pos:])
		s.pos = len(s.src)
		return
	}

	start := s.pos + lt
	if strings.IndexByte(s.src[start+1:], '>') < 0 {
		// no tag can close: the rest is text
		s.body.WriteString(s.src[s.pos:])
		s.pos = len(s.src)
		return
	}

	s.body.WriteString(s.src[s.pos:start])
	s.pos = start
	s.state = insideTag
}

// scanTag consumes one tag starting at '<'; the closing '>' is known to exist.
func (s *scanner) scanTag() {
	end := s.pos + 1 + strings.IndexByte(s.src[s.pos+1:], '>')
	raw := s.src[s.pos+1 : end]
	s.pos = end + 1
	s.state = outsideTag

	closing := strings.HasPrefix(raw, "/")
	if closing {
		raw = raw[1:]
	}
	name, attrs := splitTagName(raw)

	if closing {
		s.body.WriteByte(' ')
		return
	}

	switch {
	case strings.EqualFold(name, "script"):
		s.state = scriptBody
		return
	case strings.EqualFold(name, "style"):
		s.state = styleBody
		return
	}

	s.body.WriteByte(' ')

	switch {
	case strings.EqualFold(name, "title"):
		s.captureTitle()
	case strings.EqualFold(name, "meta"):
		s.captureMeta(attrs)
	case strings.EqualFold(name, "a"):
		if v, ok := attrValue(attrs, "href"); ok && v != "" {
			s.links = append(s.links, v)
		}
	case strings.EqualFold(name, "img"):
		if v, ok := attrValue(attrs, "src"); ok && v != "" {
			s.images = append(s.images, v)
		}
	}
}

// skipRawBody drops everything up to and including the close tag. An
// unterminated body, or a close tag without '>', runs to end of input.
func (s *scanner) skipRawBody(closeTag string) {
	s.state = outsideTag

	at := indexCloseTag(s.src, s.pos, closeTag)
	if at < 0 {
		s.pos = len(s.src)
		return
	}
	gt := strings.IndexByte(s.src[at:], '>')
	if gt < 0 {
		s.pos = len(s.src)
		return
	}
	s.pos = at + gt + 1
}

// captureTitle records the raw text up to the next </title. Only the first
// title element counts.
func (s *scanner) captureTitle() {
	if s.titleSeen {
		return
	}
	s.titleSeen = true

	at := indexCloseTag(s.src, s.pos, "</title")
	if at < 0 {
		return
	}
	s.titleFound = true
	s.title = strings.TrimSpace(s.src[s.pos:at])
}

// captureMeta matches name=description|keywords followed later in the same
// tag by a non-empty content attribute. The reverse order is not matched.
func (s *scanner) captureMeta(attrs string) {
	var (
		name    string
		haveKey bool
	)
	forEachAttr(attrs, func(key, value string) bool {
		switch {
		case !haveKey && strings.EqualFold(key, "name"):
			name, haveKey = value, true
		case haveKey && strings.EqualFold(key, "content") && value != "":
			v := value
			switch {
			case strings.EqualFold(name, "description") && s.description == nil:
				s.description = &v
			case strings.EqualFold(name, "keywords") && s.keywords == nil:
				s.keywords = &v
			}
			return false
		}
		return true
	})
}

// indexCloseTag finds tag (e.g. "</script") case-insensitively at or after
// from, followed by a delimiter or end of input.
func indexCloseTag(src string, from int, tag string) int {
	for i := from; i+len(tag) <= len(src); i++ {
		if src[i] != '<' || !strings.EqualFold(src[i:i+len(tag)], tag) {
			continue
		}
		next := i + len(tag)
		if next == len(src) || isSpace[src[next]] || src[next] == '>' || src[next] == '/' {
			return i
		}
	}
	return -1
}

func splitTagName(raw string) (name, rest string) {
	i := 0
	for i < len(raw) && !isSpace[raw[i]] && raw[i] != '/' {
		i++
	}
	return raw[:i], raw[i:]
}

// attrValue returns the first attribute with the given name.
func attrValue(attrs, want string) (string, bool) {
	var (
		found string
		ok    bool
	)
	forEachAttr(attrs, func(key, value string) bool {
		if strings.EqualFold(key, want) {
			found, ok = value, true
			return false
		}
		return true
	})
	return found, ok
}

// forEachAttr walks key[=value] pairs in a tag body. Values may be
// double-quoted, single-quoted or bare; an unclosed quote runs to the end of
// the tag. fn returns false to stop.
func forEachAttr(attrs string, fn func(key, value string) bool) {
	i := 0
	n := len(attrs)
	for i < n {
		for i < n && (isSpace[attrs[i]] || attrs[i] == '/') {
			i++
		}
		if i >= n {
			return
		}

		keyStart := i
		for i < n && !isSpace[attrs[i]] && attrs[i] != '=' && attrs[i] != '/' {
			i++
		}
		key := attrs[keyStart:i]

		j := i
		for j < n && isSpace[attrs[j]] {
			j++
		}
		if j >= n || attrs[j] != '=' {
			if !fn(key, "") {
				return
			}
			continue
		}

		i = j + 1
		for i < n && isSpace[attrs[i]] {
			i++
		}

		var value string
		switch {
		case i < n && (attrs[i] == '"' || attrs[i] == '\''):
			quote := attrs[i]
			i++
			valueStart := i
			for i < n && attrs[i] != quote {
				i++
			}
			value = attrs[valueStart:i]
			if i < n {
				i++
			}
		default:
			valueStart := i
			for i < n && !isSpace[attrs[i]] {
				i++
			}
			value = attrs[valueStart:i]
		}

		if !fn(key, value) {
			return
		}
	}
}

package content

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestExtractEmpty(t *testing.T) {
	got := ExtractFromHTML("")

	assert.Equal(t, DefaultTitle, got.Title)
	assert.Equal(t, "", got.Content)
	assert.Nil(t, got.MetaDescription)
	assert.Nil(t, got.MetaKeywords)
	assert.NotNil(t, got.Links)
	assert.Empty(t, got.Links)
	assert.NotNil(t, got.Images)
	assert.Empty(t, got.Images)
	assert.Equal(t, 0, got.WordCount)
	assert.Equal(t, 1, got.ReadingTime)
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"trimmed", "<title>  Hello World  </title>", "Hello World"},
		{"inner whitespace kept", "<title>Hello   big\nWorld</title>", "Hello   big\nWorld"},
		{"case insensitive tags", "<TITLE>Upper</Title>", "Upper"},
		{"attributes on open tag", `<title lang="en">Attr</title>`, "Attr"},
		{"no entity decoding", "<title>Tom &amp; Jerry</title>", "Tom &amp; Jerry"},
		{"raw markup inside", "<title>a <b>bold</b></title>", "a <b>bold</b>"},
		{"markup inside is not a stop", "<title>a<b>c</b></title>", "a<b>c</b>"},
		{"only markup inside", "<title><b></b></title>", "<b></b>"},
		{"first wins", "<title>One</title><title>Two</title>", "One"},
		{"missing", "<p>no title here</p>", DefaultTitle},
		{"empty", "<title></title>", DefaultTitle},
		{"blank", "<title> \n\t </title>", DefaultTitle},
		{"unclosed", "<title>never closed", DefaultTitle},
		{"unclosed first hides later", "<title>a <p>b", DefaultTitle},
		{"inside script ignored", "<script><title>js</title></script><title>real</title>", "real"},
		{"titlebar is not title", "<titlebar>x</titlebar>", DefaultTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFromHTML(tt.html).Title)
		})
	}
}

func TestExtractContent(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"plain text", "just text", "just text"},
		{"tags become spaces", "<p>Hello</p><p>World</p>", "Hello World"},
		{"inline break", "Hello<br>World", "Hello World"},
		{"whitespace collapsed", "  a \n\n\t b   ", "a b"},
		{"unicode whitespace", "a\u00a0\u2003b", "a b"},
		{"title text stays in body", "<title>  Hello World  </title>", "Hello World"},
		{"script removed without space", "foo<script>var x = 1;</script>bar", "foobar"},
		{"style removed", "<p>a</p><style>p{color:red}</style><p>b</p>", "a b"},
		{"script case and spacing", "<SCRIPT type='x'>alert(1)</Script >after", "after"},
		{"script close needs delimiter", "<script>a</scripts>b</script>c", "c"},
		{"script body holds tags", `<script>if (a<b && c>d) {}</script>ok`, "ok"},
		{"unterminated script runs to end", "before<script>let a = '<b>';", "before"},
		{"unterminated style runs to end", "x<style>body{}", "x"},
		{"close tag without gt runs to end", "x<script>y</script", "x"},
		{"stray close script is a tag", "a</script>b", "a b"},
		{"scripts tag is not script", "<scripts>visible</scripts>", "visible"},
		{"lone lt is text", "a < b", "a < b"},
		{"lt before later gt swallows", "1 < 2 and 3 > 2", "1 2"},
		{"empty tag", "a<>b", "a b"},
		{"gt inside quotes ends tag", `<a title="x>y">z</a>`, `y">z`},
		{"comment is a tag", "a<!-- note -->b", "a b"},
		{"entities untouched", "Tom &amp; Jerry", "Tom &amp; Jerry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFromHTML(tt.html)
			assert.Equal(t, tt.want, got.Content)
			assert.Equal(t, len(strings.Fields(got.Content)), got.WordCount)
		})
	}
}

func TestExtractMeta(t *testing.T) {
	tests := []struct {
		name            string
		html            string
		wantDescription *string
		wantKeywords    *string
	}{
		{
			name:            "both present",
			html:            `<meta name="description" content="A page"><meta name="keywords" content="go, html">`,
			wantDescription: strPtr("A page"),
			wantKeywords:    strPtr("go, html"),
		},
		{
			name:            "reverse attribute order not matched",
			html:            `<meta content="A page" name="description">`,
			wantDescription: nil,
		},
		{
			name:            "case insensitive names",
			html:            `<META NAME="Description" CONTENT="Shout">`,
			wantDescription: strPtr("Shout"),
		},
		{
			name:            "single quoted and bare",
			html:            `<meta name='keywords' content=plain>`,
			wantKeywords:    strPtr("plain"),
		},
		{
			name:            "value kept raw",
			html:            `<meta name="description" content="  spaced &amp; raw  ">`,
			wantDescription: strPtr("  spaced &amp; raw  "),
		},
		{
			name:            "empty content skipped",
			html:            `<meta name="description" content=""><meta name="description" content="second">`,
			wantDescription: strPtr("second"),
		},
		{
			name:            "first match wins",
			html:            `<meta name="description" content="first"><meta name="description" content="second">`,
			wantDescription: strPtr("first"),
		},
		{
			name:            "other attributes between",
			html:            `<meta name="description" lang="en" content="between">`,
			wantDescription: strPtr("between"),
		},
		{
			name: "other names ignored",
			html: `<meta name="author" content="me"><meta property="og:description" content="og">`,
		},
		{
			name: "inside style ignored",
			html: `<style><meta name="description" content="no"></style>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFromHTML(tt.html)
			assert.Equal(t, tt.wantDescription, got.MetaDescription)
			assert.Equal(t, tt.wantKeywords, got.MetaKeywords)
		})
	}
}

func TestExtractLinks(t *testing.T) {
	html := `
		<a href="A">one</a>
		<a href='B'>two</a>
		<A HREF=C>three</A>
		<a href="A">dup</a>
		<a href="">empty</a>
		<a name="anchor">no href</a>
		<abbr href="not-a-link">x</abbr>
		<a class="btn" href = "D">spaced</a>
		<script>document.write('<a href="E">')</script>`

	got := ExtractFromHTML(html)
	assert.Equal(t, []string{"A", "B", "C", "A", "D"}, got.Links)
}

func TestExtractLinksDocumentOrder(t *testing.T) {
	got := ExtractFromHTML(`<a href="A">x</a><a href="B">y</a>`)
	assert.Equal(t, []string{"A", "B"}, got.Links)
}

func TestExtractImages(t *testing.T) {
	html := `<img src="i1.png"><IMG alt="x" SRC='i2.png'/><img src=i3.png >` +
		`<img alt="none"><img src="i1.png"><style>.x{background:url(<img src="no.png">)}</style>`

	got := ExtractFromHTML(html)
	assert.Equal(t, []string{"i1.png", "i2.png", "i3.png", "i1.png"}, got.Images)
	assert.Empty(t, got.Links)
}

func TestReadingTime(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 1},
		{1, 1},
		{199, 1},
		{200, 1},
		{201, 2},
		{400, 2},
		{401, 3},
		{1000, 5},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.words), func(t *testing.T) {
			assert.Equal(t, tt.want, ReadingTime(tt.words))
		})
	}
}

func TestExtractWordCountAndReadingTime(t *testing.T) {
	got := ExtractFromHTML("<p>" + words(201) + "</p><script>" + words(1000) + "</script>")

	assert.Equal(t, 201, got.WordCount)
	assert.Equal(t, 2, got.ReadingTime)
}

func TestExtractFullDocument(t *testing.T) {
	html := `<!DOCTYPE html>
<html>
<head>
  <title>  Example Domain  </title>
  <meta charset="utf-8">
  <meta name="description" content="An example page">
  <style>body { font: 12px sans-serif; }</style>
  <script>window.track = function() { return "<a href='bad'>"; };</script>
</head>
<body>
  <h1>Example</h1>
  <p>This domain is for use in <a href="https://iana.org/">examples</a>.</p>
  <img src="/logo.png" alt="logo">
</body>
</html>`

	got := ExtractFromHTML(html)

	assert.Equal(t, "Example Domain", got.Title)
	assert.Equal(t, "Example Domain Example This domain is for use in examples .", got.Content)
	require.NotNil(t, got.MetaDescription)
	assert.Equal(t, "An example page", *got.MetaDescription)
	assert.Nil(t, got.MetaKeywords)
	assert.Equal(t, []string{"https://iana.org/"}, got.Links)
	assert.Equal(t, []string{"/logo.png"}, got.Images)
	assert.Equal(t, 11, got.WordCount)
	assert.Equal(t, 1, got.ReadingTime)
}

func TestExtractIsTotal(t *testing.T) {
	inputs := []string{
		"<",
		">",
		"<<<<",
		"<a",
		"<a href=",
		`<a href="`,
		`<a href="x`,
		"<meta name=",
		"<script",
		"<script>",
		"</",
		"<title>",
		"\x00\xff<\x01>\xfe",
		strings.Repeat("<", 10000) + ">",
		strings.Repeat("<script>", 1000),
		string([]byte{0xc3, 0x28, '<', 'p', '>', 0xa0}),
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() {
			got := ExtractFromHTML(in)
			assert.NotEmpty(t, got.Title)
			assert.Equal(t, len(strings.Fields(got.Content)), got.WordCount)
		}, "input %q", in)
	}
}

func FuzzExtractFromHTML(f *testing.F) {
	seeds := []string{
		"",
		"<title> t </title><p>body</p>",
		`<meta name="description" content="d"><a href="x">x</a><img src="y">`,
		"<script>x</script><style>y</style>z",
		"a < b > c",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, html string) {
		got := ExtractFromHTML(html)

		if got.Title == "" {
			t.Fatal("title must never be empty")
		}
		if got.WordCount != len(strings.Fields(got.Content)) {
			t.Fatalf("word count %d does not match content %q", got.WordCount, got.Content)
		}
		if got.ReadingTime != ReadingTime(got.WordCount) || got.ReadingTime < 1 {
			t.Fatalf("reading time %d for %d words", got.ReadingTime, got.WordCount)
		}
		if got.Content != strings.Join(strings.Fields(got.Content), " ") {
			t.Fatalf("content not normalized: %q", got.Content)
		}
		for _, l := range got.Links {
			if l == "" {
				t.Fatal("empty link collected")
			}
		}
	})
}

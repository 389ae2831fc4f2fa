package indexer

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	imgTagRe     = regexp.MustCompile(`<img[^>]*>`)
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	entityRe     = regexp.MustCompile(`&[^;]+;`)

	// Applied in order, so "&amp;lt;" ends up as "<".
	entities = [][2]string{
		{"&nbsp;", " "},
		{"&amp;", "&"},
		{"&lt;", "<"},
		{"&gt;", ">"},
		{"&quot;", `"`},
	}
)

// Normalize turns an HTML note body into plain single-spaced text.
// Image tags go first, then every other tag; the five common entities are
// decoded and any other entity reference is dropped.
func Normalize(raw string) string {
	s := imgTagRe.ReplaceAllString(raw, "")
	s = tagRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	for _, e := range entities {
		s = strings.ReplaceAll(s, e[0], e[1])
	}
	s = entityRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// MarkdownToHTML renders a markdown body so it can go through Normalize.
func MarkdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

package core

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	// richTextPolicy accepts what the back office editor produces.
	richTextPolicy = newRichTextPolicy()
	stripPolicy    = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)

	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()),
	)
)

func newRichTextPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^(ql-[a-z0-9-]+\s?)+$`)).Globally()
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowElements("figure", "figcaption")
	p.AllowAttrs("src", "controls", "poster").OnElements("video")
	p.AllowURLSchemes("http", "https", "mailto", "tel")
	p.RequireNoReferrerOnLinks(true)
	return p
}

// SanitizeHTML strips anything from rich text content that is not safe to render back to visitors.
func SanitizeHTML(s string) string {
	return strings.TrimSpace(richTextPolicy.Sanitize(s))
}

// RenderMarkdown converts markdown `src` into sanitised HTML.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return SanitizeHTML(buf.String()), nil
}

// PlainText returns the text content of an HTML fragment.
func PlainText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(stripPolicy.Sanitize(s))), " ")
}

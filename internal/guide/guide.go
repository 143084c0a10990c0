// Package guide serves the embedded explainer pages shown next to the
// dashboard.
package guide

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed pages/*.md
var pages embed.FS

// ErrNotFound is returned for an unknown slug.
var ErrNotFound = errors.New("guide page not found")

// Page is one explainer.
type Page struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

var index = []struct {
	slug, title, file string
}{
	{"what-goes-into-eji", "What Goes Into the EJI?", "pages/what_goes_into_eji.md"},
	{"eji-scale", "What Does the EJI Mean?", "pages/eji_scale.md"},
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Pages returns every page in menu order.
func Pages() []Page {
	out := make([]Page, 0, len(index))
	for _, e := range index {
		p, err := Get(e.slug)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Get loads the page with the given slug.
func Get(slug string) (Page, error) {
	for _, e := range index {
		if e.slug != slug {
			continue
		}
		b, err := pages.ReadFile(e.file)
		if err != nil {
			return Page{}, fmt.Errorf("failed to read guide page %s: %w", slug, err)
		}
		return Page{Slug: e.slug, Title: e.title, Markdown: string(b)}, nil
	}
	return Page{}, fmt.Errorf("%w: %s", ErrNotFound, slug)
}

// HTML renders the page for the web UI.
func (p Page) HTML() (template.HTML, error) {
	html, err := MarkdownHTML(p.Markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render guide page %s: %w", p.Slug, err)
	}
	return html, nil
}

// MarkdownHTML converts GitHub-flavored markdown to HTML. Raw HTML in the
// input is dropped.
func MarkdownHTML(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Terminal renders the page for a terminal of the given width.
func (p Page) Terminal(width int) (string, error) {
	return RenderMarkdown(p.Markdown, width)
}

// RenderMarkdown renders markdown with glamour, wrapping to fit inside a
// bordered, padded box of the given width.
func RenderMarkdown(content string, width int) (string, error) {
	const glamourGutter = 2
	const borderWidth = 4

	renderWidth := width - borderWidth - glamourGutter
	if renderWidth < 40 {
		renderWidth = 40
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(renderWidth),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(content)
}

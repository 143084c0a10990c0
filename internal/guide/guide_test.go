package guide

import (
	"errors"
	"strings"
	"testing"
)

func TestPages(t *testing.T) {
	pages := Pages()
	if len(pages) != 2 {
		t.Fatalf("Pages() = %d pages, want 2", len(pages))
	}
	for _, p := range pages {
		if p.Markdown == "" {
			t.Errorf("page %s has no content", p.Slug)
		}
		if !strings.Contains(p.Markdown, p.Title) {
			t.Errorf("page %s content does not start with its title %q", p.Slug, p.Title)
		}
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		slug    string
		wantErr bool
	}{
		{"what-goes-into-eji", false},
		{"eji-scale", false},
		{"missing", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			_, err := Get(tt.slug)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Get(%q) error = %v, wantErr %v", tt.slug, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(%q) error = %v, want ErrNotFound", tt.slug, err)
			}
		})
	}
}

func TestHTML(t *testing.T) {
	p, err := Get("eji-scale")
	if err != nil {
		t.Fatal(err)
	}
	html, err := p.HTML()
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	s := string(html)
	if !strings.Contains(s, "<h1>") {
		t.Errorf("missing heading:\n%s", s)
	}
	if !strings.Contains(s, "<table>") {
		t.Errorf("GFM table not rendered:\n%s", s)
	}
}

func TestTerminal(t *testing.T) {
	p, err := Get("what-goes-into-eji")
	if err != nil {
		t.Fatal(err)
	}
	out, err := p.Terminal(80)
	if err != nil {
		t.Fatalf("Terminal() error = %v", err)
	}
	if !strings.Contains(out, "Older releases") {
		t.Errorf("rendered page missing content:\n%s", out)
	}
}

func TestMarkdownHTMLDropsRawHTML(t *testing.T) {
	html, err := MarkdownHTML("**bold** <script>alert(1)</script>")
	if err != nil {
		t.Fatal(err)
	}
	s := string(html)
	if !strings.Contains(s, "<strong>bold</strong>") {
		t.Errorf("markdown not rendered: %s", s)
	}
	if strings.Contains(s, "<script>") {
		t.Errorf("raw html passed through: %s", s)
	}
}

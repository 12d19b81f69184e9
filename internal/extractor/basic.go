package extractor

import (
	"strings"

	"github.com/aleister1102/ogpreview/internal/models"
)

// faviconSelectors are tried in order; the first non-blank href wins.
var faviconSelectors = []string{
	`link[rel="icon"][type="image/svg+xml"]`,
	`link[rel="icon"][sizes~="32x32"]`,
	`link[rel="icon"][sizes~="16x16"]`,
	`link[rel="icon"]`,
	`link[rel="shortcut icon"]`,
}

const defaultFaviconPath = "/favicon.ico"

func (p *page) basic() *models.BasicMetadata {
	basic := &models.BasicMetadata{
		Title:       strings.TrimSpace(p.doc.Find("title").First().Text()),
		Description: p.meta(`meta[name="description"]`),
		Keywords:    p.meta(`meta[name="keywords"]`),
		Author:      p.meta(`meta[name="author"]`),
		Robots: &models.RobotsDirectives{
			All:       p.meta(`meta[name="robots"]`),
			Googlebot: p.meta(`meta[name="googlebot"]`),
			Bingbot:   p.meta(`meta[name="bingbot"]`),
		},
		Viewport:   p.meta(`meta[name="viewport"]`),
		Charset:    strings.TrimSpace(p.doc.Find("meta[charset]").First().AttrOr("charset", "")),
		Generator:  p.meta(`meta[name="generator"]`),
		Publisher:  p.meta(`meta[name="publisher"]`),
		ThemeColor: p.meta(`meta[name="theme-color"]`),
		Favicon:    p.favicon(),
	}
	if href := strings.TrimSpace(p.doc.Find(`link[rel="canonical"]`).First().AttrOr("href", "")); href != "" {
		basic.Canonical = p.resolve(href)
	}
	return basic
}

func (p *page) favicon() string {
	for _, selector := range faviconSelectors {
		href := strings.TrimSpace(p.doc.Find(selector).First().AttrOr("href", ""))
		if href != "" {
			return p.resolve(href)
		}
	}
	return p.resolve(defaultFaviconPath)
}

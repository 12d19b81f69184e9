// Package extractor turns fetched HTML into structured page metadata.
package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/ogpreview/internal/models"
	"github.com/aleister1102/ogpreview/internal/urlhandler"
	"github.com/rs/zerolog"
)

// Extractor parses HTML documents. It performs no I/O.
type Extractor struct {
	logger zerolog.Logger
}

// NewExtractor creates an extractor that logs parse problems at debug level.
func NewExtractor(logger zerolog.Logger) *Extractor {
	return &Extractor{logger: logger.With().Str("component", "MetadataExtractor").Logger()}
}

// Extract parses html with the package default extractor.
func Extract(html string, base urlhandler.ScrapeTarget) models.ScrapedMetadata {
	return NewExtractor(zerolog.Nop()).Extract(html, base)
}

// Extract builds the metadata groups for html. Relative URLs are resolved
// against base and every empty value is pruned from the result.
func (e *Extractor) Extract(html string, base urlhandler.ScrapeTarget) models.ScrapedMetadata {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// The HTML5 parser accepts any input; this only fires on reader failures.
		e.logger.Warn().Err(err).Str("base_url", base.String()).Msg("Failed to parse HTML document")
		return models.ScrapedMetadata{}
	}

	baseURL := base.URL()
	if baseURL == nil {
		baseURL = &url.URL{}
	}

	p := &page{doc: doc, base: baseURL}

	openGraph := p.openGraph()
	twitter := p.twitter()
	metadata := models.ScrapedMetadata{
		Basic:      p.basic(),
		OpenGraph:  openGraph,
		Twitter:    twitter,
		Structured: e.structured(p),
		Images:     p.images(openGraph.Images, twitter.Images),
		Links:      p.links(),
		Other:      p.other(),
		Raw:        p.raw(),
	}
	metadata.Clean()

	e.logger.Debug().
		Str("base_url", base.String()).
		Bool("has_og_image", metadata.HasOpenGraphImage()).
		Int("images", len(metadata.Images)).
		Int("meta_tags", len(metadata.Raw)).
		Msg("Metadata extracted")

	return metadata
}

// page bundles a parsed document with the URL its references resolve against.
type page struct {
	doc  *goquery.Document
	base *url.URL
}

// meta returns the trimmed content attribute of the first element matching
// selector. An empty first match yields "".
func (p *page) meta(selector string) string {
	content, _ := p.doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// allMeta returns every non-blank content attribute matching selector.
func (p *page) allMeta(selector string) []string {
	var values []string
	p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if content := strings.TrimSpace(s.AttrOr("content", "")); content != "" {
			values = append(values, content)
		}
	})
	return values
}

func (p *page) resolve(href string) string {
	return urlhandler.ResolveURL(strings.TrimSpace(href), p.base)
}

func (p *page) resolveAll(hrefs []string) []string {
	return urlhandler.ResolveURLs(hrefs, p.base)
}

package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/ogpreview/internal/models"
)

const iconSelector = `link[rel="icon"], link[rel="shortcut icon"], link[rel^="apple-touch-icon"], link[rel="mask-icon"]`

// images collects every discovered image, de-duplicated by URL with the
// first occurrence kept.
func (p *page) images(ogImages, twitterImages []string) []models.DiscoveredImage {
	var images []models.DiscoveredImage
	for _, u := range ogImages {
		images = append(images, models.DiscoveredImage{URL: u, Source: "og:image"})
	}
	for _, u := range twitterImages {
		images = append(images, models.DiscoveredImage{URL: u, Source: "twitter:image"})
	}

	p.doc.Find(iconSelector).Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		images = append(images, models.DiscoveredImage{
			URL:    p.resolve(href),
			Source: iconSource(s.AttrOr("rel", "")),
			Sizes:  strings.TrimSpace(s.AttrOr("sizes", "")),
			Type:   strings.TrimSpace(s.AttrOr("type", "")),
		})
	})

	hasIcon := false
	for _, img := range images {
		if strings.Contains(img.Source, "icon") {
			hasIcon = true
			break
		}
	}
	if !hasIcon {
		images = append(images, models.DiscoveredImage{URL: p.resolve(defaultFaviconPath), Source: "favicon-default"})
	}

	seen := make(map[string]struct{}, len(images))
	unique := images[:0]
	for _, img := range images {
		if _, ok := seen[img.URL]; ok {
			continue
		}
		seen[img.URL] = struct{}{}
		unique = append(unique, img)
	}
	return unique
}

func iconSource(rel string) string {
	rel = strings.ToLower(rel)
	switch {
	case strings.Contains(rel, "apple-touch-icon"):
		return "apple-touch-icon"
	case strings.Contains(rel, "shortcut"):
		return "shortcut-icon"
	case strings.Contains(rel, "mask-icon"):
		return "mask-icon"
	default:
		return "icon"
	}
}

func (p *page) links() *models.LinkMetadata {
	links := &models.LinkMetadata{}
	if href := strings.TrimSpace(p.doc.Find(`link[rel="canonical"]`).First().AttrOr("href", "")); href != "" {
		links.Canonical = p.resolve(href)
	}
	if href := strings.TrimSpace(p.doc.Find(`link[rel="manifest"]`).First().AttrOr("href", "")); href != "" {
		links.Manifest = p.resolve(href)
	}
	p.doc.Find(`link[rel="alternate"]`).Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		links.Alternate = append(links.Alternate, models.AlternateLink{
			Href:     p.resolve(href),
			Hreflang: strings.TrimSpace(s.AttrOr("hreflang", "")),
			Type:     strings.TrimSpace(s.AttrOr("type", "")),
		})
	})
	return links
}

func (p *page) other() *models.OtherMetadata {
	other := &models.OtherMetadata{
		MSTileColor:                     p.meta(`meta[name="msapplication-TileColor"]`),
		Language:                        strings.TrimSpace(p.doc.Find("html").First().AttrOr("lang", "")),
		ApplicationName:                 p.meta(`meta[name="application-name"]`),
		AppleMobileWebAppTitle:          p.meta(`meta[name="apple-mobile-web-app-title"]`),
		AppleMobileWebAppCapable:        p.meta(`meta[name="apple-mobile-web-app-capable"]`),
		AppleMobileWebAppStatusBarStyle: p.meta(`meta[name="apple-mobile-web-app-status-bar-style"]`),
		FormatDetection:                 p.meta(`meta[name="format-detection"]`),
		MobileWebAppCapable:             p.meta(`meta[name="mobile-web-app-capable"]`),
	}
	if tile := p.meta(`meta[name="msapplication-TileImage"]`); tile != "" {
		other.MSTileImage = p.resolve(tile)
	}
	return other
}

// raw flattens every <meta> element, skipping ones with no usable attribute.
func (p *page) raw() []models.MetaTag {
	var tags []models.MetaTag
	p.doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		tag := models.MetaTag{
			Name:      strings.TrimSpace(s.AttrOr("name", "")),
			Property:  strings.TrimSpace(s.AttrOr("property", "")),
			Content:   strings.TrimSpace(s.AttrOr("content", "")),
			Charset:   strings.TrimSpace(s.AttrOr("charset", "")),
			HTTPEquiv: strings.TrimSpace(s.AttrOr("http-equiv", "")),
		}
		if !tag.IsEmpty() {
			tags = append(tags, tag)
		}
	})
	return tags
}

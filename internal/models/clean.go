package models

import "strings"

// Clean prunes semantically empty values from the record: blank strings are
// trimmed away, empty slices become nil and groups with no populated field
// become nil.
func (m *ScrapedMetadata) Clean() {
	if m == nil {
		return
	}
	m.Basic = m.Basic.clean()
	m.OpenGraph = m.OpenGraph.clean()
	m.Twitter = m.Twitter.clean()
	m.Structured = m.Structured.clean()
	m.Links = m.Links.clean()
	m.Other = m.Other.clean()

	images := m.Images[:0]
	for _, img := range m.Images {
		if strings.TrimSpace(img.URL) != "" {
			images = append(images, img)
		}
	}
	m.Images = nilIfEmpty(images)

	raw := m.Raw[:0]
	for _, tag := range m.Raw {
		if !tag.IsEmpty() {
			raw = append(raw, tag)
		}
	}
	m.Raw = nilIfEmpty(raw)
}

// IsEmpty reports whether extraction produced nothing at all.
func (m *ScrapedMetadata) IsEmpty() bool {
	return m == nil || (m.Basic == nil && m.OpenGraph == nil && m.Twitter == nil &&
		m.Structured == nil && len(m.Images) == 0 && m.Links == nil && m.Other == nil && len(m.Raw) == 0)
}

// HasOpenGraphImage reports whether the page declares at least one og:image.
func (m *ScrapedMetadata) HasOpenGraphImage() bool {
	return m != nil && m.OpenGraph != nil && len(m.OpenGraph.Images) > 0
}

// DisplayTitle prefers the document title and falls back to og:title.
func (m *ScrapedMetadata) DisplayTitle() string {
	if m == nil {
		return ""
	}
	if m.Basic != nil && m.Basic.Title != "" {
		return m.Basic.Title
	}
	if m.OpenGraph != nil {
		return m.OpenGraph.Title
	}
	return ""
}

// DisplayDescription prefers the meta description and falls back to og:description.
func (m *ScrapedMetadata) DisplayDescription() string {
	if m == nil {
		return ""
	}
	if m.Basic != nil && m.Basic.Description != "" {
		return m.Basic.Description
	}
	if m.OpenGraph != nil {
		return m.OpenGraph.Description
	}
	return ""
}

func (b *BasicMetadata) clean() *BasicMetadata {
	if b == nil {
		return nil
	}
	trimAll(&b.Title, &b.Description, &b.Keywords, &b.Author, &b.Viewport, &b.Charset,
		&b.Generator, &b.Publisher, &b.ThemeColor, &b.Favicon, &b.Canonical)
	if b.Robots != nil {
		trimAll(&b.Robots.All, &b.Robots.Googlebot, &b.Robots.Bingbot)
		if b.Robots.IsEmpty() {
			b.Robots = nil
		}
	}
	if *b == (BasicMetadata{}) {
		return nil
	}
	return b
}

func (o *OpenGraphMetadata) clean() *OpenGraphMetadata {
	if o == nil {
		return nil
	}
	trimAll(&o.Title, &o.Description, &o.Type, &o.URL, &o.SiteName, &o.Locale, &o.ImageWidth,
		&o.ImageHeight, &o.ImageAlt, &o.Audio, &o.Video, &o.Determiner, &o.UpdatedTime)
	o.LocaleAlternate = compactStrings(o.LocaleAlternate)
	o.Images = compactStrings(o.Images)
	o.ImageSecureURL = compactStrings(o.ImageSecureURL)
	o.ImageType = compactStrings(o.ImageType)
	o.SeeAlso = compactStrings(o.SeeAlso)
	if o.Article != nil {
		trimAll(&o.Article.Author, &o.Article.PublishedTime, &o.Article.ModifiedTime, &o.Article.Section)
		o.Article.Tags = compactStrings(o.Article.Tags)
		if o.Article.IsEmpty() {
			o.Article = nil
		}
	}
	if o.Title == "" && o.Description == "" && o.Type == "" && o.URL == "" && o.SiteName == "" &&
		o.Locale == "" && o.LocaleAlternate == nil && o.Images == nil && o.ImageSecureURL == nil &&
		o.ImageType == nil && o.ImageWidth == "" && o.ImageHeight == "" && o.ImageAlt == "" &&
		o.Audio == "" && o.Video == "" && o.Determiner == "" && o.UpdatedTime == "" &&
		o.SeeAlso == nil && o.Article == nil {
		return nil
	}
	return o
}

func (t *TwitterMetadata) clean() *TwitterMetadata {
	if t == nil {
		return nil
	}
	trimAll(&t.Card, &t.Site, &t.SiteID, &t.Creator, &t.CreatorID, &t.Title, &t.Description, &t.ImageAlt)
	t.Images = compactStrings(t.Images)
	if t.App != nil {
		a := t.App
		trimAll(&a.NameIPhone, &a.IDIPhone, &a.NameIPad, &a.IDIPad, &a.NameGooglePlay, &a.IDGooglePlay)
		if a.IsEmpty() {
			t.App = nil
		}
	}
	if t.Card == "" && t.Site == "" && t.SiteID == "" && t.Creator == "" && t.CreatorID == "" &&
		t.Title == "" && t.Description == "" && t.Images == nil && t.ImageAlt == "" && t.App == nil {
		return nil
	}
	return t
}

func (s *StructuredData) clean() *StructuredData {
	if s == nil {
		return nil
	}
	s.JSONLD = nilIfEmpty(s.JSONLD)
	s.Types = compactStrings(s.Types)
	if s.JSONLD == nil && s.Types == nil {
		return nil
	}
	return s
}

func (l *LinkMetadata) clean() *LinkMetadata {
	if l == nil {
		return nil
	}
	trimAll(&l.Canonical, &l.Manifest)
	alternates := l.Alternate[:0]
	for _, alt := range l.Alternate {
		if strings.TrimSpace(alt.Href) != "" {
			alternates = append(alternates, alt)
		}
	}
	l.Alternate = nilIfEmpty(alternates)
	if l.Canonical == "" && l.Manifest == "" && l.Alternate == nil {
		return nil
	}
	return l
}

func (o *OtherMetadata) clean() *OtherMetadata {
	if o == nil {
		return nil
	}
	trimAll(&o.MSTileColor, &o.MSTileImage, &o.Language, &o.ApplicationName, &o.AppleMobileWebAppTitle,
		&o.AppleMobileWebAppCapable, &o.AppleMobileWebAppStatusBarStyle, &o.FormatDetection, &o.MobileWebAppCapable)
	if *o == (OtherMetadata{}) {
		return nil
	}
	return o
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}

func compactStrings(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return nilIfEmpty(out)
}

func nilIfEmpty[T any](values []T) []T {
	if len(values) == 0 {
		return nil
	}
	return values
}

package extractor

import "github.com/aleister1102/ogpreview/internal/models"

func (p *page) openGraph() *models.OpenGraphMetadata {
	og := &models.OpenGraphMetadata{
		Title:           p.meta(`meta[property="og:title"]`),
		Description:     p.meta(`meta[property="og:description"]`),
		Type:            p.meta(`meta[property="og:type"]`),
		URL:             p.meta(`meta[property="og:url"]`),
		SiteName:        p.meta(`meta[property="og:site_name"]`),
		Locale:          p.meta(`meta[property="og:locale"]`),
		LocaleAlternate: p.allMeta(`meta[property="og:locale:alternate"]`),
		Images:          p.resolveAll(p.allMeta(`meta[property="og:image"]`)),
		ImageSecureURL:  p.resolveAll(p.allMeta(`meta[property="og:image:secure_url"]`)),
		ImageType:       p.allMeta(`meta[property="og:image:type"]`),
		ImageWidth:      p.meta(`meta[property="og:image:width"]`),
		ImageHeight:     p.meta(`meta[property="og:image:height"]`),
		ImageAlt:        p.meta(`meta[property="og:image:alt"]`),
		Audio:           p.meta(`meta[property="og:audio"]`),
		Video:           p.meta(`meta[property="og:video"]`),
		Determiner:      p.meta(`meta[property="og:determiner"]`),
		UpdatedTime:     p.meta(`meta[property="og:updated_time"]`),
		SeeAlso:         p.resolveAll(p.allMeta(`meta[property="og:see_also"]`)),
		Article: &models.ArticleMetadata{
			Author:        p.meta(`meta[property="article:author"]`),
			PublishedTime: p.meta(`meta[property="article:published_time"]`),
			ModifiedTime:  p.meta(`meta[property="article:modified_time"]`),
			Section:       p.meta(`meta[property="article:section"]`),
			Tags:          p.allMeta(`meta[property="article:tag"]`),
		},
	}
	return og
}

// twitterMeta reads a twitter:* tag declared with either name or property.
func (p *page) twitterMeta(key string) string {
	return p.meta(`meta[name="twitter:` + key + `"], meta[property="twitter:` + key + `"]`)
}

func (p *page) twitter() *models.TwitterMetadata {
	var images []string
	for _, selector := range []string{
		`meta[name="twitter:image"]`,
		`meta[property="twitter:image"]`,
		`meta[name="twitter:image:src"]`,
		`meta[property="twitter:image:src"]`,
	} {
		images = append(images, p.allMeta(selector)...)
	}

	return &models.TwitterMetadata{
		Card:        p.twitterMeta("card"),
		Site:        p.twitterMeta("site"),
		SiteID:      p.twitterMeta("site:id"),
		Creator:     p.twitterMeta("creator"),
		CreatorID:   p.twitterMeta("creator:id"),
		Title:       p.twitterMeta("title"),
		Description: p.twitterMeta("description"),
		Images:      p.resolveAll(images),
		ImageAlt:    p.twitterMeta("image:alt"),
		App: &models.TwitterApp{
			NameIPhone:     p.meta(`meta[name="twitter:app:name:iphone"]`),
			IDIPhone:       p.meta(`meta[name="twitter:app:id:iphone"]`),
			NameIPad:       p.meta(`meta[name="twitter:app:name:ipad"]`),
			IDIPad:         p.meta(`meta[name="twitter:app:id:ipad"]`),
			NameGooglePlay: p.meta(`meta[name="twitter:app:name:googleplay"]`),
			IDGooglePlay:   p.meta(`meta[name="twitter:app:id:googleplay"]`),
		},
	}
}

package models

// ScrapedMetadata is the structured result of extracting a single HTML page.
// Every group is optional; empty groups are nil after Clean.
type ScrapedMetadata struct {
	Basic      *BasicMetadata     `json:"basic,omitempty"`
	OpenGraph  *OpenGraphMetadata `json:"openGraph,omitempty"`
	Twitter    *TwitterMetadata   `json:"twitter,omitempty"`
	Structured *StructuredData    `json:"structured,omitempty"`
	Images     []DiscoveredImage  `json:"images,omitempty"`
	Links      *LinkMetadata      `json:"links,omitempty"`
	Other      *OtherMetadata     `json:"other,omitempty"`
	Raw        []MetaTag          `json:"raw,omitempty"`
}

// RobotsDirectives holds the robots meta tags of a page.
type RobotsDirectives struct {
	All       string `json:"all,omitempty"`
	Googlebot string `json:"googlebot,omitempty"`
	Bingbot   string `json:"bingbot,omitempty"`
}

// IsEmpty reports whether no directive is set.
func (r *RobotsDirectives) IsEmpty() bool {
	return r == nil || (r.All == "" && r.Googlebot == "" && r.Bingbot == "")
}

type BasicMetadata struct {
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Keywords    string            `json:"keywords,omitempty"`
	Author      string            `json:"author,omitempty"`
	Robots      *RobotsDirectives `json:"robots,omitempty"`
	Viewport    string            `json:"viewport,omitempty"`
	Charset     string            `json:"charset,omitempty"`
	Generator   string            `json:"generator,omitempty"`
	Publisher   string            `json:"publisher,omitempty"`
	ThemeColor  string            `json:"themeColor,omitempty"`
	Favicon     string            `json:"favicon,omitempty"`
	Canonical   string            `json:"canonical,omitempty"`
}

// ArticleMetadata holds the article:* Open Graph properties.
type ArticleMetadata struct {
	Author        string   `json:"author,omitempty"`
	PublishedTime string   `json:"publishedTime,omitempty"`
	ModifiedTime  string   `json:"modifiedTime,omitempty"`
	Section       string   `json:"section,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

func (a *ArticleMetadata) IsEmpty() bool {
	return a == nil || (a.Author == "" && a.PublishedTime == "" && a.ModifiedTime == "" &&
		a.Section == "" && len(a.Tags) == 0)
}

type OpenGraphMetadata struct {
	Title           string           `json:"title,omitempty"`
	Description     string           `json:"description,omitempty"`
	Type            string           `json:"type,omitempty"`
	URL             string           `json:"url,omitempty"`
	SiteName        string           `json:"siteName,omitempty"`
	Locale          string           `json:"locale,omitempty"`
	LocaleAlternate []string         `json:"localeAlternate,omitempty"`
	Images          []string         `json:"images,omitempty"`
	ImageSecureURL  []string         `json:"imageSecureUrl,omitempty"`
	ImageType       []string         `json:"imageType,omitempty"`
	ImageWidth      string           `json:"imageWidth,omitempty"`
	ImageHeight     string           `json:"imageHeight,omitempty"`
	ImageAlt        string           `json:"imageAlt,omitempty"`
	Audio           string           `json:"audio,omitempty"`
	Video           string           `json:"video,omitempty"`
	Determiner      string           `json:"determiner,omitempty"`
	UpdatedTime     string           `json:"updatedTime,omitempty"`
	SeeAlso         []string         `json:"seeAlso,omitempty"`
	Article         *ArticleMetadata `json:"article,omitempty"`
}

// TwitterApp holds the twitter:app:* identifiers.
type TwitterApp struct {
	NameIPhone     string `json:"nameIphone,omitempty"`
	IDIPhone       string `json:"idIphone,omitempty"`
	NameIPad       string `json:"nameIpad,omitempty"`
	IDIPad         string `json:"idIpad,omitempty"`
	NameGooglePlay string `json:"nameGoogleplay,omitempty"`
	IDGooglePlay   string `json:"idGoogleplay,omitempty"`
}

func (a *TwitterApp) IsEmpty() bool {
	return a == nil || *a == TwitterApp{}
}

type TwitterMetadata struct {
	Card        string      `json:"card,omitempty"`
	Site        string      `json:"site,omitempty"`
	SiteID      string      `json:"siteId,omitempty"`
	Creator     string      `json:"creator,omitempty"`
	CreatorID   string      `json:"creatorId,omitempty"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	Images      []string    `json:"images,omitempty"`
	ImageAlt    string      `json:"imageAlt,omitempty"`
	App         *TwitterApp `json:"app,omitempty"`
}

// StructuredData holds the parsed JSON-LD blocks of a page.
type StructuredData struct {
	JSONLD []any    `json:"jsonLd,omitempty"`
	Types  []string `json:"types,omitempty"`
}

// DiscoveredImage is an image reference found on a page, tagged with the
// tag family it came from.
type DiscoveredImage struct {
	URL    string `json:"url"`
	Source string `json:"source"`
	Sizes  string `json:"sizes,omitempty"`
	Type   string `json:"type,omitempty"`
}

// AlternateLink is a <link rel="alternate"> entry.
type AlternateLink struct {
	Href     string `json:"href,omitempty"`
	Hreflang string `json:"hreflang,omitempty"`
	Type     string `json:"type,omitempty"`
}

type LinkMetadata struct {
	Canonical string          `json:"canonical,omitempty"`
	Alternate []AlternateLink `json:"alternate,omitempty"`
	Manifest  string          `json:"manifest,omitempty"`
}

type OtherMetadata struct {
	MSTileColor                     string `json:"msTileColor,omitempty"`
	MSTileImage                     string `json:"msTileImage,omitempty"`
	Language                        string `json:"language,omitempty"`
	ApplicationName                 string `json:"applicationName,omitempty"`
	AppleMobileWebAppTitle          string `json:"appleMobileWebAppTitle,omitempty"`
	AppleMobileWebAppCapable        string `json:"appleMobileWebAppCapable,omitempty"`
	AppleMobileWebAppStatusBarStyle string `json:"appleMobileWebAppStatusBarStyle,omitempty"`
	FormatDetection                 string `json:"formatDetection,omitempty"`
	MobileWebAppCapable             string `json:"mobileWebAppCapable,omitempty"`
}

// MetaTag is the flattened attribute set of one <meta> element.
type MetaTag struct {
	Name      string `json:"name,omitempty"`
	Property  string `json:"property,omitempty"`
	Content   string `json:"content,omitempty"`
	Charset   string `json:"charset,omitempty"`
	HTTPEquiv string `json:"httpEquiv,omitempty"`
}

func (m MetaTag) IsEmpty() bool {
	return m == MetaTag{}
}

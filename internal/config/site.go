package config

// Built-in site description.
const (
	DefaultBaseURL   = "https://www.muftiwp.gov.my/ms/artikel/irsyad-hukum/umum"
	DefaultPageSize  = 25
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Selectors are the CSS selectors used to read listing and document pages.
type Selectors struct {
	// ListingContainer is the element holding the listing entries.
	ListingContainer string `yaml:"listing_container,omitempty"`

	// ListingRow is one entry inside the container.
	ListingRow string `yaml:"listing_row,omitempty"`

	// ListingLink is the document link inside a row.
	ListingLink string `yaml:"listing_link,omitempty"`

	// Title is the document heading.
	Title string `yaml:"title,omitempty"`

	// Body is the document body container.
	Body string `yaml:"body,omitempty"`

	// Paragraph is a paragraph inside the body.
	Paragraph string `yaml:"paragraph,omitempty"`
}

// SiteConfig describes the listing site to crawl.
type SiteConfig struct {
	// BaseURL is the URL of listing page 0.
	BaseURL string `yaml:"base_url,omitempty"`

	// PageSize is the number of entries per listing page.
	PageSize int `yaml:"page_size,omitempty"`

	// UserAgent is sent with every request.
	UserAgent string `yaml:"user_agent,omitempty"`

	// Headers are extra HTTP headers sent with every request.
	// Values may carry credentials and are masked in logs.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Selectors override the built-in CSS selectors.
	Selectors Selectors `yaml:"selectors,omitempty"`
}

// File represents the structure of the .irsyad configuration file.
type File struct {
	// Site overrides the built-in site description.
	Site SiteConfig `yaml:"site,omitempty"`
}

// DefaultSiteConfig returns the built-in site description.
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		BaseURL:   DefaultBaseURL,
		PageSize:  DefaultPageSize,
		UserAgent: DefaultUserAgent,
		Selectors: Selectors{
			ListingContainer: "table.category",
			ListingRow:       "tr",
			ListingLink:      "td.list-title a",
			Title:            "h2.article-details-title",
			Body:             `div[itemprop="articleBody"]`,
			Paragraph:        "p",
		},
	}
}

// Merge returns s with every field set in override replaced.
// Headers are merged key by key.
func (s SiteConfig) Merge(override SiteConfig) SiteConfig {
	result := s

	if override.BaseURL != "" {
		result.BaseURL = override.BaseURL
	}
	if override.PageSize != 0 {
		result.PageSize = override.PageSize
	}
	if override.UserAgent != "" {
		result.UserAgent = override.UserAgent
	}
	if len(override.Headers) > 0 {
		headers := make(map[string]string, len(s.Headers)+len(override.Headers))
		for k, v := range s.Headers {
			headers[k] = v
		}
		for k, v := range override.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	sel := override.Selectors
	if sel.ListingContainer != "" {
		result.Selectors.ListingContainer = sel.ListingContainer
	}
	if sel.ListingRow != "" {
		result.Selectors.ListingRow = sel.ListingRow
	}
	if sel.ListingLink != "" {
		result.Selectors.ListingLink = sel.ListingLink
	}
	if sel.Title != "" {
		result.Selectors.Title = sel.Title
	}
	if sel.Body != "" {
		result.Selectors.Body = sel.Body
	}
	if sel.Paragraph != "" {
		result.Selectors.Paragraph = sel.Paragraph
	}

	return result
}

package crawler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Default selectors for listing pages.
const (
	DefaultListingContainer = "table.category"
	DefaultListingRow       = "tr"
	DefaultListingLink      = "td.list-title a"
)

// DefaultPageSize is the number of entries per listing page.
const DefaultPageSize = 25

// LinkExtractor finds document links on listing pages.
type LinkExtractor struct {
	container string
	row       string
	link      string
}

// LinkOption configures a LinkExtractor.
type LinkOption func(*LinkExtractor)

// WithListingSelectors overrides the container, row and link selectors.
// Empty values keep the defaults.
func WithListingSelectors(container, row, link string) LinkOption {
	return func(e *LinkExtractor) {
		if container != "" {
			e.container = container
		}
		if row != "" {
			e.row = row
		}
		if link != "" {
			e.link = link
		}
	}
}

// NewLinkExtractor creates a LinkExtractor with the default selectors.
func NewLinkExtractor(opts ...LinkOption) *LinkExtractor {
	e := &LinkExtractor{
		container: DefaultListingContainer,
		row:       DefaultListingRow,
		link:      DefaultListingLink,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractLinks returns the absolute document URLs on a listing page, in
// document order.
//
// Only the first listing container is read. From each row the first link
// anchor with an href is taken and resolved against pageURL. An empty result
// means there are no more pages; it is not an error. An error is returned
// only when pageURL is not a valid URL.
func (e *LinkExtractor) ExtractLinks(body, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		// x/net/html recovers from malformed markup; this only fires on reader errors.
		return []string{}, nil //nolint:nilerr // unparseable listing has no links
	}
	doc := goquery.NewDocumentFromNode(root)

	links := make([]string, 0)
	doc.Find(e.container).First().Find(e.row).Each(func(_ int, row *goquery.Selection) {
		anchor := row.Find(e.link).FilterFunction(func(_ int, a *goquery.Selection) bool {
			_, ok := a.Attr("href")
			return ok
		}).First()
		if anchor.Length() == 0 {
			return
		}

		href, _ := anchor.Attr("href")
		if resolved := resolveURL(base, href); resolved != "" {
			links = append(links, resolved)
		}
	})

	return links, nil
}

// resolveURL resolves href against base.
// It returns "" when href cannot be parsed.
func resolveURL(base *url.URL, href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

// PageURL returns the URL of listing page n.
// Page 0 is baseURL itself; page n > 0 sets the "start" query parameter to
// n*pageSize.
func PageURL(baseURL string, page, pageSize int) (string, error) {
	if page <= 0 {
		return baseURL, nil
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("start", strconv.Itoa(page*pageSize))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

package extract

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/altscan/internal/model"
)

// Extraction is the result of parsing one page.
type Extraction struct {
	// Images are the img elements with a src, in document order.
	Images []model.ImageRecord

	// Links are absolute http(s) anchor targets, in document order.
	// Fragments are preserved; filtering is left to the caller.
	Links []string
}

// Parser extracts images and links relative to a base URL.
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving relative URLs.
	baseURL *url.URL
}

// NewParser creates a new HTML parser with the given base URL.
// The base URL must be absolute.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("base url %q is not absolute", baseURL)
	}
	return &Parser{baseURL: u}, nil
}

// Extract parses htmlText and resolves its images and links against
// baseURL. The only error is an unparsable base URL.
func Extract(htmlText, baseURL string) (*Extraction, error) {
	p, err := NewParser(baseURL)
	if err != nil {
		return nil, err
	}
	return p.Parse(strings.NewReader(htmlText))
}

// Parse parses HTML content and extracts images and links.
func (p *Parser) Parse(content io.Reader) (*Extraction, error) {
	root, err := html.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	base := p.documentBase(doc)
	pageURL := p.baseURL.String()

	result := &Extraction{
		Images: make([]model.ImageRecord, 0),
		Links:  make([]string, 0),
	}

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok {
			return
		}
		resolved := resolveImage(base, src)
		if resolved == "" {
			return
		}
		alt, hasAlt := s.Attr("alt")
		result.Images = append(result.Images, model.NewImageRecord(resolved, pageURL, alt, hasAlt))
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if resolved := resolveLink(base, href); resolved != "" {
			result.Links = append(result.Links, resolved)
		}
	})

	return result, nil
}

// documentBase returns the effective base URL: the first <base href>
// resolved against the page URL, or the page URL itself.
func (p *Parser) documentBase(doc *goquery.Document) *url.URL {
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok {
		return p.baseURL
	}
	href = strings.TrimSpace(href)
	if href == "" {
		return p.baseURL
	}
	u, err := url.Parse(href)
	if err != nil {
		return p.baseURL
	}
	resolved := p.baseURL.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return p.baseURL
	}
	return resolved
}

// hasScriptScheme reports whether ref uses a scheme that never names a
// fetchable resource.
func hasScriptScheme(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "about:")
}

// resolveImage resolves an img src. data: URIs are kept as-is since inline
// images need alt text too.
func resolveImage(base *url.URL, src string) string {
	src = strings.TrimSpace(src)
	if src == "" || hasScriptScheme(src) {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(src), "data:") {
		return src
	}
	u, err := url.Parse(src)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

// resolveLink resolves an anchor href, keeping only http(s) targets.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" || hasScriptScheme(href) {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	link := resolved.String()
	// An empty fragment ("/p#") is dropped by String; keep the marker.
	if strings.Contains(href, "#") && !strings.Contains(link, "#") {
		link += "#"
	}
	return link
}

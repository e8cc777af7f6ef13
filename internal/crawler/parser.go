package crawler

import (
	"io"
	"mime"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Parser extracts the title and hyperlinks of an HTML page.
// Links are resolved against the page URL, or against the document's
// <base href> when one is present.
type Parser struct {
	// baseURL is the URL of the page being parsed.
	baseURL *url.URL
}

// ParseResult holds what Parse extracted from one page.
type ParseResult struct {
	// Title is the whitespace-normalized text of the first <title> element.
	Title string

	// Links are the absolute targets of every <a href> in document order.
	// Targets that cannot be parsed as URLs are omitted.
	Links []string
}

// NewParser creates a parser for a page fetched from baseURL.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse reads an HTML document and extracts its title and links.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	root, err := html.Parse(content)
	if err != nil {
		return nil, err
	}
	doc := goquery.NewDocumentFromNode(root)

	base := p.baseURL
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	result := &ParseResult{
		Title: strings.Join(strings.Fields(doc.Find("title").First().Text()), " "),
		Links: make([]string, 0),
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		result.Links = append(result.Links, base.ResolveReference(ref).String())
	})

	return result, nil
}

// isHTML reports whether a Content-Type header value denotes an HTML document.
func isHTML(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "text/html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

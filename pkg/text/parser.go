// Package text provides URL extraction and text cleanup for chat messages.
package text

import (
	"net/url"
	"regexp"
	"strings"
)

// CatalogDomain is the host fragment that marks a catalog link in free text.
const CatalogDomain = "spotify.com"

var (
	urlRegex = regexp.MustCompile(`https?://\S+`)

	trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "si"}
)

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ExtractURLs returns every http(s) URL in text with tracking parameters removed.
func (p *Parser) ExtractURLs(text string) []string {
	matches := urlRegex.FindAllString(text, -1)
	var cleanURLs []string

	for _, match := range matches {
		cleanURL := p.cleanURL(match)
		if cleanURL != "" {
			cleanURLs = append(cleanURLs, cleanURL)
		}
	}

	return cleanURLs
}

// ContainsCatalogLink reports whether free text mentions the catalog domain.
func (p *Parser) ContainsCatalogLink(text string) bool {
	return strings.Contains(strings.ToLower(text), CatalogDomain)
}

// FirstCatalogURL returns the first catalog URL found in text, or the trimmed
// text itself when no URL matches.
func (p *Parser) FirstCatalogURL(text string) string {
	for _, u := range p.ExtractURLs(text) {
		if p.ContainsCatalogLink(u) {
			return u
		}
	}
	return strings.TrimSpace(text)
}

func (p *Parser) cleanURL(rawURL string) string {
	rawURL = strings.TrimRight(rawURL, ".,!?;)")

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return ""
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	if u.Host == "" {
		return ""
	}

	q := u.Query()
	for _, param := range trackingParams {
		q.Del(param)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// Package scrape pulls a little text out of a website to seed a tool prompt.
// It is deliberately naive.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"

	"toolsmith_server/internal/utils"
)

var (
	ErrInvalidURL     = errors.New("invalid url")
	ErrBlockedAddress = errors.New("address not allowed")
)

const (
	maxHeadings   = 10
	excerptLength = 600
	maxBodyBytes  = 2 << 20
)

// Page is what the scraper could find.
type Page struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Headings    []string `json:"headings"`
	Excerpt     string   `json:"excerpt"`
	Prompt      string   `json:"prompt"`
}

type Scraper struct {
	client *http.Client
}

// NewScraper returns a scraper whose requests give up after timeout. Unless
// allowPrivate is set, connections to loopback, private, link-local and
// unspecified addresses are refused at dial time, redirects included.
func NewScraper(timeout time.Duration, allowPrivate bool) *Scraper {
	dialer := &net.Dialer{Timeout: timeout}
	if !allowPrivate {
		dialer.Control = refusePrivate
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
	return &Scraper{client: &http.Client{Timeout: timeout, Transport: transport}}
}

// refusePrivate runs after name resolution, so it sees the address actually
// being dialled.
func refusePrivate(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	ip := net.ParseIP(host)
	if ip == nil || blockedIP(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, host)
	}
	return nil
}

func blockedIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast()
}

// NormalizeURL adds https:// to bare hosts and rejects anything but http(s).
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u.String(), nil
}

// Fetch downloads the page and extracts its title, description, headings and
// a body excerpt.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (Page, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return Page{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Page{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "toolsmith/1.0 (+prompt seeding)")
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, fmt.Errorf("failed to fetch %s: status %d", target, resp.StatusCode)
	}

	page, err := Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Page{}, err
	}
	page.URL = target
	return page, nil
}

// Parse extracts page details from an HTML document.
func Parse(r io.Reader) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Page{}, fmt.Errorf("failed to parse html: %w", err)
	}

	p := Page{Headings: []string{}}
	p.Title = collapse(doc.Find("title").First().Text())
	if p.Title == "" {
		p.Title = metaContent(doc, "og:title")
	}
	p.Description = metaContent(doc, "description")
	if p.Description == "" {
		p.Description = metaContent(doc, "og:description")
	}

	doc.Find("h1, h2, h3").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if text := collapse(sel.Text()); text != "" {
			p.Headings = append(p.Headings, text)
		}
		return len(p.Headings) < maxHeadings
	})

	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, nav, footer").Remove()
	p.Excerpt = utils.Truncate(collapse(body.Text()), excerptLength)

	p.Prompt = seedPrompt(p)
	return p, nil
}

// metaContent reads <meta name=...> or <meta property=...>.
func metaContent(doc *goquery.Document, name string) string {
	var out string
	doc.Find("meta").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		key, ok := sel.Attr("name")
		if !ok {
			key, ok = sel.Attr("property")
		}
		if ok && strings.EqualFold(key, name) {
			out = collapse(sel.AttrOr("content", ""))
			return false
		}
		return true
	})
	return out
}

func seedPrompt(p Page) string {
	subject := p.Title
	if subject == "" && len(p.Headings) > 0 {
		subject = p.Headings[0]
	}
	if subject == "" {
		return ""
	}
	prompt := fmt.Sprintf("Create an SEO tool for the website %q", subject)
	if p.Description != "" {
		prompt += ", which describes itself as: " + p.Description
	}
	return prompt
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

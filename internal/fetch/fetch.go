// Package fetch is the HTML fetch collaborator: it retrieves a shared
// conversation page and strips the elements the extractor never needs.
// It performs exactly one GET per call; retry policy belongs to the caller.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrBadURL indicates the submitted URL is not a fetchable share link.
var ErrBadURL = errors.New("invalid share URL")

// maxBodyBytes caps how much page content is read. Share pages with long
// conversations run to a few MB; anything past this is not a share page.
const maxBodyBytes = 32 << 20 // 32MB

const userAgent = "chatscope/1.0 (+https://github.com/chatscope/chatscope)"

// Client fetches and cleans share pages.
type Client struct {
	http    *http.Client
	maxBody int
}

// NewClient creates a fetch client with the given overall request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		maxBody: maxBodyBytes,
	}
}

// Fetch retrieves the page at rawURL and returns its HTML with meta, link,
// and audio elements removed.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := validateURL(rawURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching page: unexpected status %d", resp.StatusCode)
	}

	// Read one byte past the cap so an oversized page is an error, not a
	// silent truncation that surfaces later as a missing payload block.
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(c.maxBody)+1))
	if err != nil {
		return "", fmt.Errorf("reading page: %w", err)
	}
	if len(body) > c.maxBody {
		return "", fmt.Errorf("reading page: body exceeds %d bytes", c.maxBody)
	}

	return Clean(bytes.NewReader(body))
}

// Clean parses HTML and removes meta, link, and audio elements, returning
// the serialized remainder. Exposed separately so pasted page source goes
// through the same cleanup as fetched pages.
func Clean(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	doc.Find("meta, link, audio").Remove()

	html, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serializing HTML: %w", err)
	}
	return html, nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrBadURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrBadURL)
	}
	return nil
}

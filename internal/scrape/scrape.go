// Package scrape fetches article pages through the Crawlbase API and reduces
// them to plain text for the script generator.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

const DefaultBaseURL = "https://api.crawlbase.com"

// maxBody caps how much of a page is read
const maxBody = 10 << 20

var (
	ErrNoToken   = errors.New("crawlbase token is not configured")
	ErrNoContent = errors.New("no content extracted from url")
)

// Client fetches pages through Crawlbase
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a scraper. An empty baseURL uses the public endpoint.
func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		token:   token,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// FetchHTML returns the raw page body for target
func (c *Client) FetchHTML(ctx context.Context, target string) (string, error) {
	if c.token == "" {
		return "", ErrNoToken
	}
	if _, err := url.ParseRequestURI(target); err != nil {
		return "", fmt.Errorf("invalid url %q: %w", target, err)
	}

	query := url.Values{}
	query.Set("token", c.token)
	query.Set("url", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	log.Debug().Str("url", target).Msg("Fetching article through Crawlbase")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("crawlbase returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", ErrNoContent
	}
	return string(body), nil
}

// Fetch returns the readable text of the page at target
func (c *Client) Fetch(ctx context.Context, target string) (string, error) {
	page, err := c.FetchHTML(ctx, target)
	if err != nil {
		return "", err
	}
	text, err := ExtractText(strings.NewReader(page))
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrNoContent
	}
	log.Debug().Int("chars", len(text)).Msg("Extracted article text")
	return text, nil
}

var skipped = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"svg":      true,
}

var blocks = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"article": true, "section": true, "header": true, "footer": true,
	"blockquote": true, "pre": true, "title": true,
}

// ExtractText returns visible text with one paragraph per line and
// whitespace collapsed inside each line
func ExtractText(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)

	var (
		lines   []string
		current strings.Builder
		depth   int
	)
	flush := func() {
		line := strings.Join(strings.Fields(current.String()), " ")
		if line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", fmt.Errorf("failed to parse html: %w", err)
			}
			flush()
			return strings.Join(lines, "\n"), nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipped[tag] && tt == html.StartTagToken {
				depth++
			}
			if blocks[tag] {
				flush()
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipped[tag] && depth > 0 {
				depth--
			}
			if blocks[tag] {
				flush()
			}
		case html.TextToken:
			if depth == 0 {
				current.Write(z.Text())
				current.WriteByte(' ')
			}
		}
	}
}

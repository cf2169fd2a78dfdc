// Package fetch downloads job pages and reduces their HTML to readable text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/spigell/coldmail/internal/utils"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; coldmail/1.0)"
	// maxBodyBytes bounds how much of a page is read.
	maxBodyBytes = 5 << 20
)

// Error describes a failed page fetch.
type Error struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures a Fetcher.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// Browser enables headless rendering when the plain HTTP response yields
	// too little text.
	Browser bool
}

// Fetcher retrieves job pages.
type Fetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	browser   bool
	render    func(ctx context.Context, url string, timeout time.Duration) (string, error)
	logger    *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = DefaultUserAgent
	}

	return &Fetcher{
		client:    &http.Client{Timeout: opts.Timeout},
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
		browser:   opts.Browser,
		render:    WithBrowser,
		logger:    logger,
	}
}

// HTML returns the raw body of rawURL.
func (f *Fetcher) HTML(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", &Error{URL: rawURL, Message: "invalid URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{URL: rawURL, StatusCode: resp.StatusCode, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to read body", Cause: err}
	}

	return string(body), nil
}

// JobText fetches rawURL and returns the text of the job posting on it.
// Short results are re-rendered in a headless browser when enabled.
func (f *Fetcher) JobText(ctx context.Context, rawURL string) (string, error) {
	html, err := f.HTML(ctx, rawURL)
	if err != nil {
		return "", err
	}

	text, err := ExtractMainText(html, JobPostingSelectors())
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to extract text", Cause: err}
	}
	f.logger.Debug("job page fetched",
		zap.String("url", rawURL),
		zap.Int("html_bytes", len(html)),
		zap.Int("text_chars", len(text)),
	)

	if !f.browser || !ShouldUseBrowser(text) {
		return text, nil
	}

	f.logger.Info("job page text is short, rendering in browser", zap.String("url", rawURL))
	rendered, err := f.render(ctx, rawURL, f.timeout)
	if err != nil {
		f.logger.Warn("browser rendering failed, using plain page text",
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return text, nil
	}

	renderedText, err := ExtractMainText(rendered, JobPostingSelectors())
	if err != nil || len(renderedText) <= len(text) {
		return text, nil
	}
	f.logger.Debug("rendered job page",
		zap.String("url", rawURL),
		zap.String("preview", utils.TruncateForLog(renderedText, 200)),
	)

	return renderedText, nil
}

// ExtractMainText parses html and returns the text of the first element
// matching contentSelectors, falling back to the body. Navigation, scripts and
// the elements matched by noiseSelectors are removed first.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, svg, form, .ad, .ads, .advertisement, .sidebar, .cookie-banner, .popup").Remove()
	if noise := strings.Join(noiseSelectors, ", "); noise != "" {
		doc.Find(noise).Remove()
	}

	var main *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			main = selection.First()
			break
		}
	}
	if main == nil {
		main = doc.Find("body")
	}

	// Block elements would otherwise run together in Text().
	main.Find("p, li, h1, h2, h3, h4, h5, h6, div, br, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return cleanWhitespace(main.Text()), nil
}

// JobPostingSelectors lists containers job boards commonly use for the posting body.
func JobPostingSelectors() []string {
	return []string{
		".job-description",
		".job-content",
		"#job-description",
		"#job-content",
		".posting-content",
		".job-details",
		"[data-testid='job-description']",
		"main",
		"article",
		".content",
		"#content",
	}
}

func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/bryanwahyu/datashield/internal/domain/analysis"
	"github.com/bryanwahyu/datashield/internal/middleware"
)

// ErrTooManyRedirects is the cause reported when a target exceeds the hop limit.
var ErrTooManyRedirects = errors.New("too many redirects")

// Options configures a Fetcher.
type Options struct {
	Timeout           time.Duration
	MaxRedirects      int
	MaxBodyBytes      int64
	UserAgent         string
	BlockPrivateHosts bool
}

// Fetcher issues a single bounded GET per URL request.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	blockPrivate bool
	logger       *zap.Logger
}

// New builds a Fetcher whose client enforces the timeout and redirect limit.
func New(opts Options, logger *zap.Logger) *Fetcher {
	blockPrivate := opts.BlockPrivateHosts
	maxRedirects := opts.MaxRedirects

	client := &http.Client{
		Timeout: opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("%w (limit %d)", ErrTooManyRedirects, maxRedirects)
			}
			if blockPrivate {
				return middleware.ValidatePublicHost(req.URL.String())
			}
			return nil
		},
	}

	return &Fetcher{
		client:       client,
		userAgent:    opts.UserAgent,
		maxBodyBytes: opts.MaxBodyBytes,
		blockPrivate: blockPrivate,
		logger:       logger,
	}
}

// Fetch downloads rawURL and extracts its title and visible text. Any
// transport error, timeout or redirect overflow is FetchFailed. Non-2xx
// answers are returned as content: the status is part of the evidence.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*analysis.PageContent, error) {
	if f.blockPrivate {
		if err := middleware.ValidatePublicHost(rawURL); err != nil {
			return nil, analysis.E(analysis.KindFetchFailed, "fetch", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, analysis.E(analysis.KindFetchFailed, "fetch", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("Fetch failed", zap.String("url", rawURL), zap.Error(err))
		return nil, analysis.E(analysis.KindFetchFailed, "fetch", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, analysis.E(analysis.KindFetchFailed, "fetch", fmt.Errorf("read body: %w", err))
	}

	page := &analysis.PageContent{
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FetchedBody: string(body),
	}
	page.Title, page.Text = extractText(body, page.ContentType)

	f.logger.Debug("Fetched page",
		zap.String("url", rawURL),
		zap.String("final_url", page.FinalURL),
		zap.Int("status", page.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", time.Since(start)))

	return page, nil
}

// extractText returns the document title and whitespace-collapsed visible
// text. Non-HTML bodies are returned as-is.
func extractText(body []byte, contentType string) (string, string) {
	ct := strings.ToLower(contentType)
	if ct != "" && !strings.Contains(ct, "html") && !strings.Contains(ct, "xml") {
		return "", collapseSpace(string(body))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", collapseSpace(string(body))
	}

	title := collapseSpace(doc.Find("title").First().Text())
	doc.Find("script, style, noscript, template").Remove()
	text := collapseSpace(doc.Find("body").Text())
	if text == "" {
		text = collapseSpace(doc.Text())
	}
	return title, text
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Package fetch retrieves paginated category listings over HTTP.
// Requests are rate limited and rotate through a pool of user agents;
// pagination walks forward until an empty, repeated, or failing page.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bkaplan/brickwatch/internal/config"
	"github.com/bkaplan/brickwatch/internal/utils"
	"github.com/bkaplan/brickwatch/pkg/types"
)

// Fetcher downloads category pages.
type Fetcher struct {
	client        *http.Client
	limiter       *rate.Limiter
	userAgents    []string
	headers       map[string]string
	maxPages      int
	pageParameter string
	logger        utils.Logger

	mu      sync.Mutex
	uaIndex int
}

// New builds a Fetcher from the fetch configuration.
func New(cfg config.FetchConfig, logger utils.Logger) *Fetcher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	pageParameter := cfg.PageParameter
	if pageParameter == "" {
		pageParameter = "page"
	}
	if logger == nil {
		logger = utils.NewComponentLogger("fetch")
	}

	return &Fetcher{
		client:        &http.Client{Timeout: timeout},
		limiter:       rate.NewLimiter(rate.Limit(rps), 1),
		userAgents:    cfg.UserAgents,
		headers:       cfg.Headers,
		maxPages:      maxPages,
		pageParameter: pageParameter,
		logger:        logger,
	}
}

// FetchCategory downloads up to maxPages pages of a category listing
// and concatenates their HTML. Pagination stops early when a page
// fails or repeats the previous page's content; a failure on the very
// first page is an error, later failures just end the walk.
func (f *Fetcher) FetchCategory(ctx context.Context, category, categoryURL string) (types.PageContent, error) {
	content := types.PageContent{
		CategoryName: category,
		SourceURL:    categoryURL,
	}

	var pages []string
	var previous string

	for page := 1; page <= f.maxPages; page++ {
		pageURL, err := f.buildPageURL(categoryURL, page)
		if err != nil {
			return content, utils.WrapError(err, utils.ErrCodeFetchFailed, "invalid category URL")
		}

		html, err := f.fetchPage(ctx, pageURL)
		if err != nil {
			if page == 1 {
				return content, err
			}
			f.logger.WithFields(map[string]interface{}{
				"category": category,
				"page":     page,
				"error":    err.Error(),
			}).Warn("stopping pagination after fetch failure")
			break
		}

		if strings.TrimSpace(html) == "" || html == previous {
			break
		}
		pages = append(pages, html)
		previous = html
	}

	content.PagesScraped = len(pages)
	content.HTMLContent = strings.Join(pages, "\n")
	f.logger.WithFields(map[string]interface{}{
		"category": category,
		"pages":    content.PagesScraped,
	}).Info("category fetched")
	return content, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, pageURL string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", utils.WrapError(err, utils.ErrCodeFetchFailed, "rate limit wait interrupted")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", utils.WrapError(err, utils.ErrCodeFetchFailed, "failed to build request")
	}
	req.Header.Set("User-Agent", f.nextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", utils.WrapError(err, utils.ErrCodeFetchFailed, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", utils.NewError(utils.ErrCodeHTTPStatus,
			fmt.Sprintf("unexpected status %d for %s", resp.StatusCode, pageURL))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", utils.WrapError(err, utils.ErrCodeFetchFailed, "failed to read response body")
	}
	return string(body), nil
}

// buildPageURL appends the page query parameter; page 1 uses the
// category URL unchanged.
func (f *Fetcher) buildPageURL(categoryURL string, page int) (string, error) {
	if page <= 1 {
		return categoryURL, nil
	}
	parsed, err := url.Parse(categoryURL)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set(f.pageParameter, strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (f *Fetcher) nextUserAgent() string {
	if len(f.userAgents) == 0 {
		return "brickwatch/1.0"
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ua := f.userAgents[f.uaIndex%len(f.userAgents)]
	f.uaIndex++
	return ua
}

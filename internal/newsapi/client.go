// Package newsapi talks to a NewsAPI-shaped headlines service.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/time/rate"

	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/metrics"
	"github.com/pders01/headlines/internal/news"
)

const (
	DefaultBaseURL           = "https://newsapi.org/v2"
	DefaultUserAgent         = "headlines/1.0 (terminal news reader; github.com/pders01/headlines)"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerMinute = 60

	maxBodySize = 4 << 20
)

type SearchResult struct {
	TotalResults int
	Articles     []news.Article
}

type Options struct {
	BaseURL           string
	APIKey            string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerMinute int
	HTTPClient        *http.Client
	Metrics           metrics.Recorder
}

// Client performs one search per call. It is safe for concurrent use and
// never touches the local store.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	sanitizer  *bluemonday.Policy
	metrics    metrics.Recorder
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}

	limit := rate.Inf
	burst := 1
	if opts.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(opts.RequestsPerMinute) / 60.0)
		burst = opts.RequestsPerMinute
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(limit, burst),
		sanitizer:  bluemonday.StrictPolicy(),
		metrics:    opts.Metrics,
	}
}

// SearchURL builds the request URL for one page of p. Query parameters are
// encoded in key order, so the result is deterministic.
func (c *Client) SearchURL(p news.Partition, page, pageSize int) string {
	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))

	endpoint := "/everything"
	switch p.Scheme {
	case news.SchemeCategory:
		endpoint = "/top-headlines"
		q.Set("category", p.Value)
	default:
		q.Set("q", p.Value)
	}
	return c.baseURL + endpoint + "?" + q.Encode()
}

func (c *Client) Search(ctx context.Context, p news.Partition, page, pageSize int) (*SearchResult, error) {
	if strings.TrimSpace(p.Value) == "" {
		return nil, ErrEmptyPartition
	}

	start := time.Now()
	result, err := c.search(ctx, p, page, pageSize)

	outcome := metrics.OutcomeSuccess
	if kind, ok := KindOf(err); ok {
		outcome = kind.String()
	} else if err != nil {
		outcome = metrics.OutcomeTransport
	}
	c.metrics.RecordFetch(p.Scheme.String(), outcome, time.Since(start))

	if err != nil {
		debuglog.WithFields(map[string]any{
			"partition": p.String(),
			"page":      page,
		}).Warnf("search failed: %v", err)
		return nil, err
	}
	return result, nil
}

func (c *Client) search(ctx context.Context, p news.Partition, page, pageSize int) (*SearchResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Kind: KindTransport, Err: fmt.Errorf("waiting for rate limiter: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SearchURL(p, page, pageSize), nil)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	debuglog.Debugf("searching %s page %d", p, page)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Err: fmt.Errorf("fetching articles: %w", err)}
	}
	defer resp.Body.Close()

	c.metrics.RecordHTTPStatus(resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &FetchError{
			Kind:   KindTransport,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Status: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}
	if len(body) > maxBodySize {
		return nil, &FetchError{Kind: KindDecode, Status: resp.StatusCode, Err: errors.New("response body too large")}
	}

	result, err := c.decode(body)
	if err != nil {
		return nil, &FetchError{Kind: KindDecode, Status: resp.StatusCode, Err: err}
	}
	return result, nil
}

type searchResponse struct {
	TotalResults int              `json:"totalResults"`
	Articles     []articlePayload `json:"articles"`
}

// Every field may be missing or null; both decode to "".
type articlePayload struct {
	Author      *string `json:"author"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	URLToImage  *string `json:"urlToImage"`
	URL         *string `json:"url"`
}

func (c *Client) decode(body []byte) (*SearchResult, error) {
	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	articles := make([]news.Article, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		articles = append(articles, news.Article{
			Author:      c.clean(a.Author),
			Title:       c.clean(a.Title),
			Description: c.clean(a.Description),
			ImageURL:    deref(a.URLToImage),
			URL:         deref(a.URL),
		})
	}
	return &SearchResult{TotalResults: payload.TotalResults, Articles: articles}, nil
}

// clean strips markup from display text. bluemonday leaves entities
// escaped, so they are unescaped afterwards for the terminal.
func (c *Client) clean(s *string) string {
	v := deref(s)
	if v == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(c.sanitizer.Sanitize(v)))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

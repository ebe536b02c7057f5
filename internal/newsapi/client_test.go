package newsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/headlines/internal/metrics"
	"github.com/pders01/headlines/internal/news"
)

const samplePayload = `{
  "status": "ok",
  "totalResults": 2,
  "articles": [
    {
      "source": {"id": null, "name": "Example"},
      "author": "Jane Doe",
      "title": "<b>Markets</b> rally &amp; close higher",
      "description": "Stocks <script>alert(1)</script>rose today.",
      "url": "https://example.com/markets",
      "urlToImage": "https://example.com/markets.jpg"
    },
    {
      "author": null,
      "title": "Untitled wire",
      "description": null,
      "url": null,
      "urlToImage": null
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL, APIKey: "secret"}), srv
}

func TestSearchURL(t *testing.T) {
	c := NewClient(Options{BaseURL: "https://api.example.com/v2/", APIKey: "k"})

	tests := []struct {
		name     string
		p        news.Partition
		page     int
		expected string
	}{
		{
			name:     "category",
			p:        news.Category("sports"),
			page:     2,
			expected: "https://api.example.com/v2/top-headlines?apiKey=k&category=sports&page=2&pageSize=20",
		},
		{
			name:     "keyword",
			p:        news.Keyword("ios"),
			page:     1,
			expected: "https://api.example.com/v2/everything?apiKey=k&page=1&pageSize=20&q=ios",
		},
		{
			name:     "keyword is encoded",
			p:        news.Keyword("climate change&more"),
			page:     3,
			expected: "https://api.example.com/v2/everything?apiKey=k&page=3&pageSize=20&q=climate+change%26more",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.SearchURL(tt.p, tt.page, 20))
		})
	}
}

func TestSearch_Success(t *testing.T) {
	var gotPath, gotQuery, gotUA string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(samplePayload))
	})

	result, err := c.Search(context.Background(), news.Keyword("markets"), 1, 20)
	require.NoError(t, err)

	assert.Equal(t, "/everything", gotPath)
	assert.Equal(t, "apiKey=secret&page=1&pageSize=20&q=markets", gotQuery)
	assert.Equal(t, DefaultUserAgent, gotUA)

	assert.Equal(t, 2, result.TotalResults)
	require.Len(t, result.Articles, 2)

	first := result.Articles[0]
	assert.Equal(t, "Jane Doe", first.Author)
	assert.Equal(t, "Markets rally & close higher", first.Title)
	assert.Equal(t, "Stocks rose today.", first.Description)
	assert.Equal(t, "https://example.com/markets", first.URL)
	assert.Equal(t, "https://example.com/markets.jpg", first.ImageURL)

	assert.Equal(t, news.Article{Title: "Untitled wire"}, result.Articles[1])
}

func TestSearch_CategoryEndpoint(t *testing.T) {
	var gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "business", r.URL.Query().Get("category"))
		w.Write([]byte(`{"totalResults":0,"articles":[]}`))
	})

	result, err := c.Search(context.Background(), news.Category("business"), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, "/top-headlines", gotPath)
	assert.Empty(t, result.Articles)
}

func TestSearch_EmptyPartition(t *testing.T) {
	called := false
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.Search(context.Background(), news.Keyword("  "), 1, 20)
	assert.ErrorIs(t, err, ErrEmptyPartition)
	assert.False(t, called)
}

func TestSearch_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    Kind
		status  int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			kind:   KindTransport,
			status: http.StatusInternalServerError,
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			kind:   KindTransport,
			status: http.StatusTooManyRequests,
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"articles": [`))
			},
			kind:   KindDecode,
			status: http.StatusOK,
		},
		{
			name: "body too large",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(strings.Repeat(" ", maxBodySize+10)))
			},
			kind:   KindDecode,
			status: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, tt.handler)

			_, err := c.Search(context.Background(), news.Keyword("ios"), 1, 20)
			require.Error(t, err)

			var fe *FetchError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.kind, fe.Kind)
			assert.Equal(t, tt.status, fe.Status)
		})
	}
}

func TestSearch_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Options{BaseURL: url, Timeout: time.Second})
	_, err := c.Search(context.Background(), news.Keyword("ios"), 1, 20)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, kind)
}

func TestSearch_CancelledContext(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"articles":[]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Search(ctx, news.Keyword("ios"), 1, 20)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, kind)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "bad" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"articles":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Metrics: collector})
	_, err := c.Search(context.Background(), news.Keyword("good"), 1, 20)
	require.NoError(t, err)
	_, err = c.Search(context.Background(), news.Keyword("bad"), 1, 20)
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "headlines_fetch_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			var outcome string
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" {
					outcome = l.GetValue()
				}
			}
			counts[outcome] += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, counts[metrics.OutcomeSuccess])
	assert.Equal(t, 1.0, counts[metrics.OutcomeTransport])
}

func TestRateLimiterHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"articles":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, RequestsPerMinute: 1})
	_, err := c.Search(context.Background(), news.Keyword("ios"), 1, 20)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = c.Search(ctx, news.Keyword("ios"), 2, 20)
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindTransport, kind)
}

package pager

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/metrics"
	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/newsapi"
)

// request identifies one dispatched search by the partition and page it was
// issued for.
type request struct {
	id        string
	partition news.Partition
	page      int
	newQuery  bool
}

// current reports whether the view still shows the page req was issued for.
func (c *Controller) current(req request) bool {
	return req.partition == c.view.Partition && req.page == c.view.Page
}

type Controller struct {
	store  Store
	remote Searcher
	loop   Loop

	scheme       news.Scheme
	defaultValue string
	policy       Policy
	pageSize     int
	metrics      metrics.Recorder
	logger       *slog.Logger

	renderer Renderer

	view  ViewState
	state State
}

func New(store Store, remote Searcher, loop Loop, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		remote:   remote,
		loop:     loop,
		scheme:   news.SchemeKeyword,
		policy:   KeywordPolicy(),
		pageSize: DefaultPageSize,
		metrics:  metrics.Noop{},
		view:     ViewState{Page: 1},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = debuglog.Logger()
	}
	c.logger = c.logger.With(slog.String("scheme", c.scheme.String()))
	c.view.Partition = news.Partition{Scheme: c.scheme, Value: c.scheme.Default()}
	return c
}

func (c *Controller) Attach(r Renderer) {
	c.renderer = r
}

// Detach stops all further pushes. Searches already in flight still
// complete and persist their results.
func (c *Controller) Detach() {
	c.renderer = nil
}

func (c *Controller) Scheme() news.Scheme { return c.scheme }
func (c *Controller) Policy() Policy      { return c.policy }
func (c *Controller) PageSize() int       { return c.pageSize }
func (c *Controller) State() State        { return c.state }

func (c *Controller) Snapshot() ViewState {
	v := c.view
	v.Articles = clone(c.view.Articles)
	return v
}

// ViewReady starts a new query for the scheme's default partition.
func (c *Controller) ViewReady(ctx context.Context) {
	p := news.Partition{Scheme: c.scheme, Value: c.scheme.Default()}
	if c.defaultValue != "" {
		configured, err := news.NewPartition(c.scheme, c.defaultValue)
		if err != nil {
			c.logger.Warn("ignoring configured default", slog.String("value", c.defaultValue), slog.Any("error", err))
		} else {
			p = configured
		}
	}
	c.cycle(ctx, p, true)
}

// Search starts a new query for value. Invalid values are rejected without
// touching the view.
func (c *Controller) Search(ctx context.Context, value string) error {
	p, err := news.NewPartition(c.scheme, value)
	if err != nil {
		return err
	}
	c.cycle(ctx, p, true)
	return nil
}

// LoadNextPage fetches the page after the current one. It does nothing
// while a request is outstanding.
func (c *Controller) LoadNextPage(ctx context.Context) {
	if c.view.Loading {
		return
	}
	c.view.Page++
	c.cycle(ctx, c.view.Partition, false)
}

func (c *Controller) cycle(ctx context.Context, p news.Partition, newQuery bool) {
	if newQuery {
		c.view.Page = 1
		c.view.Articles = nil
		c.view.Partition = p
	}

	cached := c.query(p, c.view.Page)
	switch {
	case newQuery && len(cached) == 0:
		c.replaceAll([]news.Article{})
	case newQuery:
		c.view.Articles = cached
		c.replaceAll(cached)
	case len(cached) > 0:
		c.view.Articles = append(c.view.Articles, cached...)
		c.appendMore(cached)
	}

	c.view.Loading = true
	if newQuery {
		c.state = LoadingNewQuery
	} else {
		c.state = LoadingNextPage
	}
	c.setLoading(true)

	req := request{
		id:        uuid.NewString(),
		partition: p,
		page:      c.view.Page,
		newQuery:  newQuery,
	}
	c.logger.Debug("dispatching search",
		slog.String("request", req.id),
		slog.String("partition", p.String()),
		slog.Int("page", req.page),
		slog.Int("cached", len(cached)),
	)

	go func() {
		result, err := c.remote.Search(ctx, req.partition, req.page, c.pageSize)
		c.loop.Post(func() {
			c.complete(ctx, req, result, err)
		})
	}()
}

func (c *Controller) complete(ctx context.Context, req request, result *newsapi.SearchResult, err error) {
	log := c.logger.With(slog.String("request", req.id), slog.String("partition", req.partition.String()))

	if !c.current(req) {
		if c.policy.DiscardStaleResponses {
			log.Info("discarding stale response")
			c.metrics.RecordStaleResponse()
			return
		}
		log.Debug("applying response for a superseded query")
	}

	c.view.Loading = false
	c.state = Idle
	c.setLoading(false)

	if err != nil {
		c.fail(log, req, err)
		return
	}
	if result == nil {
		return
	}
	c.merge(log, req, result.Articles)
}

func (c *Controller) merge(log *slog.Logger, req request, fetched []news.Article) {
	fresh := c.fresh(log, fetched)
	if len(fresh) == 0 {
		return
	}

	c.view.Articles = append(c.view.Articles, fresh...)
	if req.newQuery {
		c.replaceAll(c.view.Articles)
	} else {
		c.appendMore(fresh)
	}

	if err := c.store.InsertAll(req.partition, fresh); err != nil {
		log.Error("persisting articles", slog.Any("error", err))
		c.metrics.RecordPersistFailure()
		return
	}
	c.metrics.RecordPersisted(len(fresh))
}

// fresh keeps the articles whose url is not stored yet. Articles without a
// url are always kept.
func (c *Controller) fresh(log *slog.Logger, fetched []news.Article) []news.Article {
	stored, err := c.store.StoredURLs()
	if err != nil {
		log.Error("reading stored urls", slog.Any("error", err))
		return nil
	}

	var fresh []news.Article
	for _, a := range fetched {
		if a.HasURL() {
			if _, ok := stored[a.URL]; ok {
				continue
			}
		}
		fresh = append(fresh, a)
	}
	if dropped := len(fetched) - len(fresh); dropped > 0 {
		c.metrics.RecordDeduped(dropped)
	}
	return fresh
}

func (c *Controller) fail(log *slog.Logger, req request, err error) {
	kind := "unknown"
	if k, ok := newsapi.KindOf(err); ok {
		kind = k.String()
	}
	log.Warn("search failed", slog.String("kind", kind), slog.Any("error", err))

	if !c.policy.FallbackToCacheOnFailure || len(c.view.Articles) > 0 {
		return
	}
	cached := c.query(req.partition, c.view.Page)
	c.view.Articles = cached
	c.replaceAll(cached)
}

func (c *Controller) query(p news.Partition, page int) []news.Article {
	articles, err := c.store.Query(p, page, c.pageSize)
	if err != nil {
		c.logger.Error("reading cached articles",
			slog.String("partition", p.String()),
			slog.Int("page", page),
			slog.Any("error", err),
		)
		return []news.Article{}
	}
	if articles == nil {
		return []news.Article{}
	}
	return articles
}

func (c *Controller) replaceAll(articles []news.Article) {
	if c.renderer != nil {
		c.renderer.ReplaceAll(clone(articles))
	}
}

func (c *Controller) appendMore(articles []news.Article) {
	if c.renderer != nil {
		c.renderer.AppendMore(clone(articles))
	}
}

func (c *Controller) setLoading(loading bool) {
	if c.renderer != nil {
		c.renderer.SetLoading(loading)
	}
}

func clone(articles []news.Article) []news.Article {
	out := make([]news.Article, len(articles))
	copy(out, articles)
	return out
}

package pager

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/newsapi"
)

func article(name string) news.Article {
	return news.Article{
		Title:  name,
		Author: "Author " + name,
		URL:    "https://example.com/" + name,
	}
}

func titles(articles []news.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.Title)
	}
	return out
}

type fakeStore struct {
	mu        sync.Mutex
	records   map[news.Partition][]news.Article
	inserted  [][]news.Article
	queryErr  error
	insertErr error
	urlsErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[news.Partition][]news.Article{}}
}

func (s *fakeStore) seed(p news.Partition, articles ...news.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[p] = append(s.records[p], articles...)
}

func (s *fakeStore) Query(p news.Partition, page, pageSize int) ([]news.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	all := s.records[p]
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []news.Article{}, nil
	}
	end := min(start+pageSize, len(all))
	return append([]news.Article{}, all[start:end]...), nil
}

func (s *fakeStore) InsertAll(p news.Partition, articles []news.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, append([]news.Article{}, articles...))
	s.records[p] = append(s.records[p], articles...)
	return nil
}

func (s *fakeStore) StoredURLs() (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.urlsErr != nil {
		return nil, s.urlsErr
	}
	urls := map[string]struct{}{}
	for _, articles := range s.records {
		for _, a := range articles {
			if a.URL != "" {
				urls[a.URL] = struct{}{}
			}
		}
	}
	return urls, nil
}

func (s *fakeStore) insertedTitles() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out [][]string
	for _, batch := range s.inserted {
		out = append(out, titles(batch))
	}
	return out
}

type response struct {
	articles []news.Article
	err      error
}

type pendingCall struct {
	partition news.Partition
	page      int
	reply     chan response
}

type searchCall struct {
	partition news.Partition
	page      int
	pageSize  int
}

// fakeSearcher answers from responses keyed by "partition#page". When
// manual is set every call waits for the test to reply.
type fakeSearcher struct {
	mu        sync.Mutex
	responses map[string]response
	calls     []searchCall
	manual    chan *pendingCall
	before    func(p news.Partition, page int)
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{responses: map[string]response{}}
}

func (s *fakeSearcher) on(p news.Partition, page int, articles []news.Article, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[fmt.Sprintf("%s#%d", p, page)] = response{articles: articles, err: err}
}

func (s *fakeSearcher) Search(ctx context.Context, p news.Partition, page, pageSize int) (*newsapi.SearchResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, searchCall{partition: p, page: page, pageSize: pageSize})
	r := s.responses[fmt.Sprintf("%s#%d", p, page)]
	before := s.before
	s.mu.Unlock()

	if before != nil {
		before(p, page)
	}

	if s.manual != nil {
		pc := &pendingCall{partition: p, page: page, reply: make(chan response, 1)}
		s.manual <- pc
		select {
		case r = <-pc.reply:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if r.err != nil {
		return nil, r.err
	}
	return &newsapi.SearchResult{TotalResults: len(r.articles), Articles: r.articles}, nil
}

func (s *fakeSearcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type event struct {
	kind     string
	articles []string
	loading  bool
}

func replaceAll(names ...string) event {
	if names == nil {
		names = []string{}
	}
	return event{kind: "replace", articles: names}
}

func appendMore(names ...string) event {
	if names == nil {
		names = []string{}
	}
	return event{kind: "append", articles: names}
}

func loading(on bool) event {
	return event{kind: "loading", loading: on}
}

type recorder struct {
	events []event
}

func (r *recorder) ReplaceAll(articles []news.Article) {
	r.events = append(r.events, event{kind: "replace", articles: titles(articles)})
}

func (r *recorder) AppendMore(articles []news.Article) {
	r.events = append(r.events, event{kind: "append", articles: titles(articles)})
}

func (r *recorder) SetLoading(on bool) {
	r.events = append(r.events, event{kind: "loading", loading: on})
}

func (r *recorder) reset() {
	r.events = nil
}

// runNext waits for the next continuation and runs it on the test goroutine.
func runNext(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, q.RunNext(ctx))
}

type harness struct {
	store    *fakeStore
	remote   *fakeSearcher
	queue    *Queue
	renderer *recorder
	ctrl     *Controller
}

func newHarness(opts ...Option) *harness {
	h := &harness{
		store:    newFakeStore(),
		remote:   newFakeSearcher(),
		queue:    NewQueue(8),
		renderer: &recorder{},
	}
	h.ctrl = New(h.store, h.remote, h.queue, opts...)
	h.ctrl.Attach(h.renderer)
	return h
}

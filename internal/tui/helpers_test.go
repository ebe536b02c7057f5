package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/newsapi"
	"github.com/pders01/headlines/internal/storage"
)

func article(name string) news.Article {
	return news.Article{
		Author:      "Reporter " + name,
		Title:       "Title " + name,
		Description: "Description of " + name,
		URL:         "https://example.com/" + name,
		ImageURL:    "https://example.com/" + name + ".jpg",
	}
}

func articles(names ...string) []news.Article {
	out := make([]news.Article, len(names))
	for i, n := range names {
		out[i] = article(n)
	}
	return out
}

// stubSearcher answers from a table keyed "value#page". Missing keys return
// an empty result.
type stubSearcher struct {
	mu        sync.Mutex
	responses map[string][]news.Article
	err       error
}

func (s *stubSearcher) set(value string, page int, a []news.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.responses == nil {
		s.responses = map[string][]news.Article{}
	}
	s.responses[fmt.Sprintf("%s#%d", value, page)] = a
}

func (s *stubSearcher) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *stubSearcher) Search(_ context.Context, p news.Partition, page, _ int) (*newsapi.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	found := s.responses[fmt.Sprintf("%s#%d", p.Value, page)]
	return &newsapi.SearchResult{TotalResults: len(found), Articles: found}, nil
}

type fakeLauncher struct {
	links  []string
	images []string
	err    error
}

func (f *fakeLauncher) OpenArticle(a news.Article) error {
	if f.err != nil {
		return f.err
	}
	f.links = append(f.links, a.URL)
	return nil
}

func (f *fakeLauncher) OpenImage(a news.Article) error {
	if f.err != nil {
		return f.err
	}
	f.images = append(f.images, a.ImageURL)
	return nil
}

func newTestApp(t *testing.T, remote *stubSearcher, opts Options) (*App, *fakeLauncher) {
	t.Helper()

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "headlines.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.TestConfig()
	app := NewApp(context.Background(), cfg, store, remote, opts)
	launcher := &fakeLauncher{}
	app.launcher = launcher
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return app, launcher
}

// pump runs n posted continuations through Update, the way the program
// loop would.
func pump(t *testing.T, app *App, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case fn := <-app.queue.C():
			app.Update(continuationMsg{fn: fn})
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for continuation %d of %d", i+1, n)
		}
	}
}

// ready starts both screens and waits for their first searches.
func ready(t *testing.T, app *App) {
	t.Helper()
	app.Update(readyMsg{})
	// each search posts a status report and a continuation
	pump(t, app, 4)
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func itemTitles(s *screen) []string {
	var out []string
	for _, it := range s.list.Items() {
		out = append(out, it.(articleItem).article.Title)
	}
	return out
}

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/pager"
)

type articleItem struct {
	article news.Article
	descLen int
}

func (i articleItem) Title() string {
	if strings.TrimSpace(i.article.Title) == "" {
		return "(untitled)"
	}
	return i.article.Title
}

func (i articleItem) Description() string {
	byline := TimeStyle.Render("By: " + i.article.Byline())
	desc := strings.Join(strings.Fields(i.article.Description), " ")
	if desc == "" {
		return byline
	}
	return byline + TimeStyle.Render(" • ") +
		lipgloss.NewStyle().Foreground(MutedColor).Render(truncateEnd(desc, i.descLen))
}

func (i articleItem) FilterValue() string { return i.article.Title }

// screen binds one controller to the list that shows its articles. It is
// the controller's Renderer.
type screen struct {
	view      View
	title     string
	emptyText string
	ctrl      *pager.Controller
	list      list.Model
	descLen   int

	loading bool
	// loaded is set after the first push so the empty state is not shown
	// before anything has been read.
	loaded bool
}

func newScreen(view View, title, emptyText string, descLen int) *screen {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	return &screen{
		view:      view,
		title:     title,
		emptyText: emptyText,
		list:      l,
		descLen:   descLen,
	}
}

func (s *screen) ReplaceAll(articles []news.Article) {
	s.loaded = true
	s.list.SetItems(s.items(articles))
	if idx := s.list.Index(); idx >= len(articles) {
		s.list.Select(clamp(len(articles)-1, 0, idx))
	}
}

func (s *screen) AppendMore(articles []news.Article) {
	s.loaded = true
	existing := s.list.Items()
	items := make([]list.Item, 0, len(existing)+len(articles))
	items = append(items, existing...)
	items = append(items, s.items(articles)...)
	s.list.SetItems(items)
}

func (s *screen) SetLoading(loading bool) {
	s.loading = loading
}

func (s *screen) items(articles []news.Article) []list.Item {
	items := make([]list.Item, len(articles))
	for i, a := range articles {
		items[i] = articleItem{article: a, descLen: s.descLen}
	}
	return items
}

func (s *screen) selected() (news.Article, bool) {
	item, ok := s.list.SelectedItem().(articleItem)
	if !ok {
		return news.Article{}, false
	}
	return item.article, true
}

func (s *screen) empty() bool {
	return s.loaded && !s.loading && len(s.list.Items()) == 0
}

// nearEnd reports whether the cursor is on one of the last two rows.
func (s *screen) nearEnd() bool {
	n := len(s.list.Items())
	return n > 0 && s.list.Index() >= n-2
}

// Package tui is the interactive terminal front end: a keyword search
// screen, a category screen and an article reader.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/media"
	"github.com/pders01/headlines/internal/metrics"
	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/newsapi"
	"github.com/pders01/headlines/internal/pager"
)

const queueSize = 16

// Options tune the app beyond what the config file holds.
type Options struct {
	Metrics metrics.Recorder
	// StartView is the screen shown first, ViewSearch or ViewCategories.
	StartView View
	// Keyword replaces the configured default keyword when set.
	Keyword string
}

type opener interface {
	OpenArticle(a news.Article) error
	OpenImage(a news.Article) error
}

type App struct {
	ctx    context.Context
	config *config.Config
	queue  *pager.Queue

	keywords   *screen
	categories *screen

	launcher    opener
	keyHandler  *KeyHandler
	searchInput textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model

	view         View
	previousView View
	category     int
	current      news.Article

	width  int
	height int

	err error
	// fetchFailed marks err as a search failure that the next successful
	// search clears.
	fetchFailed bool

	status     string
	statusKind StatusKind

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
	loadingArticle  bool
}

type readyMsg struct{}

type continuationMsg struct {
	fn func()
}

type articleRenderedMsg struct {
	content string
}

type statusMsg struct {
	text string
	kind StatusKind
}

type errorMsg struct {
	err error
}

func NewApp(ctx context.Context, cfg *config.Config, store pager.Store, remote pager.Searcher, opts Options) *App {
	a := &App{
		ctx:      ctx,
		config:   cfg,
		queue:    pager.NewQueue(queueSize),
		launcher: media.NewLauncher(cfg.Media),
		viewport: viewport.New(0, 0),
		view:     ViewSearch,
	}
	if opts.StartView == ViewCategories {
		a.view = ViewCategories
	}
	a.previousView = a.view

	keyword := cfg.Pager.DefaultKeyword
	if strings.TrimSpace(opts.Keyword) != "" {
		keyword = opts.Keyword
	}
	searcher := &statusSearcher{next: remote, loop: a.queue, app: a}
	descLen := cfg.UI.Article.MaxDescriptionLength

	a.keywords = newScreen(ViewSearch, "Main", MsgEmptySearch, descLen)
	a.keywords.ctrl = pager.New(store, searcher, a.queue,
		pager.WithScheme(news.SchemeKeyword),
		pager.WithPolicy(pager.Policy{
			FallbackToCacheOnFailure: true,
			DiscardStaleResponses:    cfg.Pager.DiscardStaleResponses,
		}),
		pager.WithPageSize(cfg.Pager.PageSize),
		pager.WithDefault(keyword),
		pager.WithMetrics(opts.Metrics),
	)
	a.keywords.ctrl.Attach(a.keywords)

	a.categories = newScreen(ViewCategories, "Categories", MsgEmptyCategory, descLen)
	a.categories.ctrl = pager.New(store, searcher, a.queue,
		pager.WithScheme(news.SchemeCategory),
		pager.WithPolicy(pager.Policy{
			DiscardStaleResponses: cfg.Pager.DiscardStaleResponses,
		}),
		pager.WithPageSize(cfg.Pager.PageSize),
		pager.WithDefault(cfg.Pager.DefaultCategory),
		pager.WithMetrics(opts.Metrics),
	)
	a.categories.ctrl.Attach(a.categories)
	a.category = categoryIndex(cfg.Pager.DefaultCategory)

	si := textinput.New()
	si.Placeholder = "Search news…"
	si.Prompt = "› "
	si.CharLimit = 256
	a.searchInput = si

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)
	a.spinner = sp

	a.keyHandler = NewKeyHandler(a)
	return a
}

func categoryIndex(value string) int {
	for i, c := range news.Categories {
		if c == value {
			return i
		}
	}
	return 0
}

// Close detaches both screens so late continuations stop rendering.
func (a *App) Close() {
	a.keywords.ctrl.Detach()
	a.categories.ctrl.Detach()
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return readyMsg{} },
		a.waitForContinuation(),
		a.spinner.Tick,
	)
}

// waitForContinuation hands the next posted controller continuation to
// Update, which runs it on the program goroutine.
func (a *App) waitForContinuation() tea.Cmd {
	return func() tea.Msg {
		select {
		case fn := <-a.queue.C():
			return continuationMsg{fn: fn}
		case <-a.ctx.Done():
			return nil
		}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case readyMsg:
		a.keywords.ctrl.ViewReady(a.ctx)
		a.categories.ctrl.ViewReady(a.ctx)
		return a, nil

	case continuationMsg:
		if msg.fn != nil {
			msg.fn()
		}
		return a, a.waitForContinuation()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case articleRenderedMsg:
		if a.view == ViewReader {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loadingArticle = false
			a.clearStatus()
		}
		return a, nil

	case statusMsg:
		a.setStatus(msg.text, msg.kind)
		return a, nil

	case errorMsg:
		a.err = msg.err
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case tea.MouseMsg:
		if a.view == ViewReader {
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			return a, cmd
		}
	}
	return a, nil
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height

	// tabs, subtitle, separator and status bar
	chrome := 5
	a.keywords.list.SetSize(width, clamp(height-chrome-3, 3, height))
	a.categories.list.SetSize(width, clamp(height-chrome-1, 3, height))
	a.viewport.Width = width
	a.viewport.Height = clamp(height-3, 1, height)

	inputWidth := width - 8
	if inputWidth < 10 {
		inputWidth = clamp(width-4, 1, width)
	}
	a.searchInput.Width = inputWidth
}

// active returns the list screen in front, or the one the reader was opened
// from.
func (a *App) active() *screen {
	v := a.view
	if v == ViewReader {
		v = a.previousView
	}
	if v == ViewCategories {
		return a.categories
	}
	return a.keywords
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	maxWidth := a.config.UI.Article.WordWrapMaxWidth
	minWidth := a.config.UI.Article.WordWrapMinWidth
	if maxWidth <= 0 {
		maxWidth = 120
	}
	if minWidth <= 0 || minWidth > maxWidth {
		minWidth = 40
	}

	wordWrap := clamp((a.width*9)/10, minWidth, maxWidth)
	if a.width > 0 && a.width < 50 {
		wordWrap = clamp(a.width-4, 20, maxWidth)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrap) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrap),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrap
	}
	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) View() string {
	var content string
	bodyHeight := clamp(a.height-3, 1, a.height)

	switch a.view {
	case ViewSearch:
		s := a.keywords
		frame := renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width)
		content = lipgloss.JoinVertical(lipgloss.Top,
			a.header(s),
			frame,
			a.listBody(s),
		)

	case ViewCategories:
		s := a.categories
		content = lipgloss.JoinVertical(lipgloss.Top,
			a.header(s),
			renderTabs(news.Categories, a.category),
			a.listBody(s),
		)

	case ViewReader:
		if a.loadingArticle {
			content = renderCentered(a.width, bodyHeight, renderMuted(MsgLoadingArticle))
		} else {
			content = a.viewport.View()
		}
	}

	content = ContentWrapper(a.width, bodyHeight).Render(content)
	return lipgloss.JoinVertical(lipgloss.Top, content, renderSeparator(a.width), a.statusBar())
}

// ContentWrapper constrains content to the given box.
func ContentWrapper(width, height int) lipgloss.Style {
	return EmptyStyle.Width(width).Height(height).MaxHeight(height)
}

func (a *App) header(s *screen) string {
	active := 0
	if s.view == ViewCategories {
		active = 1
	}
	tabs := renderTabs([]string{a.keywords.title, a.categories.title}, active)

	snap := s.ctrl.Snapshot()
	subtitle := fmt.Sprintf("› %s: %s • %s", snap.Partition.Scheme, snap.Partition.Value, MsgArticleCount(len(s.list.Items())))
	if s.loading {
		subtitle = a.spinner.View() + " " + subtitle
	}
	return lipgloss.JoinVertical(lipgloss.Top, tabs, renderMuted(truncateEnd(subtitle, a.width-2)))
}

func (a *App) listBody(s *screen) string {
	if s.empty() {
		text := lipgloss.NewStyle().Width(clamp(a.width-8, 20, 80)).Align(lipgloss.Center).Render(s.emptyText)
		return renderCentered(a.width, s.list.Height(), renderHelp(text))
	}
	if !s.loaded {
		return renderCentered(a.width, s.list.Height(), a.spinner.View()+" "+renderMuted(MsgLoading))
	}
	return s.list.View()
}

func (a *App) statusBar() string {
	style := StatusBarStyle.Width(a.width)
	if a.err != nil {
		return style.Render(ErrorMessageStyle.Render(fmt.Sprintf("✗ %v", a.err)))
	}
	if a.status != "" {
		return style.Render(statusStyle(a.statusKind).Render(a.status))
	}
	return style.Render(strings.Join(a.keyHandler.GetHelpForCurrentView(), " • "))
}

// statusSearcher reports each search outcome to the status bar. The report
// is posted before the controller's own continuation, so the bar is current
// when the result is rendered.
type statusSearcher struct {
	next pager.Searcher
	loop pager.Loop
	app  *App
}

func (s *statusSearcher) Search(ctx context.Context, p news.Partition, page, pageSize int) (*newsapi.SearchResult, error) {
	result, err := s.next.Search(ctx, p, page, pageSize)
	s.loop.Post(func() {
		if err != nil {
			s.app.err = wrapErr(fmt.Sprintf("fetching %s", p), err)
			s.app.fetchFailed = true
			return
		}
		if s.app.fetchFailed {
			s.app.err = nil
			s.app.fetchFailed = false
		}
		if s.app.statusKind == StatusInfo {
			s.app.clearStatus()
		}
	})
	return result, err
}

package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/headlines/internal/news"
)

const (
	keyToggleScreen = "ctrl+g"
	keyFocusSearch  = "ctrl+s"
	keyOpenLink     = "ctrl+o"
	keyOpenImage    = "ctrl+p"
)

type KeyHandler struct {
	app *App
}

func NewKeyHandler(app *App) *KeyHandler {
	return &KeyHandler{app: app}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(msg.String()); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	return kh.app.view == ViewSearch && kh.app.searchInput.Focused()
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return kh.app, tea.Quit
	case "esc":
		kh.app.searchInput.Blur()
		return kh.app, nil
	case "enter":
		return kh.submitSearch()
	case "tab", "down":
		if len(kh.app.keywords.list.Items()) > 0 {
			kh.app.searchInput.Blur()
		}
		return kh.app, nil
	case keyToggleScreen:
		kh.app.searchInput.Blur()
		return kh.toggleScreen()
	}

	var cmd tea.Cmd
	kh.app.searchInput, cmd = kh.app.searchInput.Update(msg)
	return kh.app, cmd
}

func (kh *KeyHandler) submitSearch() (tea.Model, tea.Cmd) {
	a := kh.app
	value := a.searchInput.Value()
	if err := a.keywords.ctrl.Search(a.ctx, value); err != nil {
		a.err = wrapErr("search", err)
		return a, nil
	}
	a.err = nil
	a.fetchFailed = false
	a.keywords.list.ResetSelected()
	a.searchInput.Blur()
	a.setStatus(MsgSearching(value), StatusInfo)
	return a, nil
}

func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "ctrl+c", "q":
		return kh.app, tea.Quit, true
	case "esc":
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case keyToggleScreen:
		model, cmd := kh.toggleScreen()
		return model, cmd, true
	case keyFocusSearch:
		model, cmd := kh.focusSearch()
		return model, cmd, true
	case keyOpenLink, keyOpenImage:
		article, ok := kh.currentArticle()
		if !ok {
			return kh.app, nil, true
		}
		if key == keyOpenLink {
			return kh.app, kh.app.openLink(article), true
		}
		return kh.app, kh.app.openImage(article), true
	}

	switch kh.app.view {
	case ViewSearch:
		if key == "/" || key == "tab" {
			kh.app.searchInput.Focus()
			return kh.app, nil, true
		}
	case ViewCategories:
		return kh.handleCategoryKeys(key)
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleCategoryKeys(key string) (tea.Model, tea.Cmd, bool) {
	n := len(news.Categories)
	switch key {
	case "tab", "right", "l":
		return kh.app, kh.selectCategory((kh.app.category + 1) % n), true
	case "shift+tab", "left", "h":
		return kh.app, kh.selectCategory((kh.app.category + n - 1) % n), true
	}
	if i, err := strconv.Atoi(key); err == nil && i >= 1 && i <= n {
		return kh.app, kh.selectCategory(i - 1), true
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) selectCategory(i int) tea.Cmd {
	a := kh.app
	a.category = i
	if err := a.categories.ctrl.Search(a.ctx, news.Categories[i]); err != nil {
		a.err = wrapErr("category", err)
		return nil
	}
	a.categories.list.ResetSelected()
	a.clearStatus()
	return nil
}

// delegateToCharm lets the list or viewport handle the keys we don't
// intercept, then asks for the next page once the cursor nears the end.
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd

	switch a.view {
	case ViewSearch, ViewCategories:
		s := a.active()
		if msg.String() == "enter" {
			if article, ok := s.selected(); ok {
				return a, kh.openReader(article)
			}
			return a, nil
		}
		s.list, cmd = s.list.Update(msg)
		if s.nearEnd() {
			s.ctrl.LoadNextPage(a.ctx)
		}
		return a, cmd

	case ViewReader:
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (kh *KeyHandler) openReader(article news.Article) tea.Cmd {
	a := kh.app
	a.current = article
	a.previousView = a.view
	a.view = ViewReader
	a.loadingArticle = true
	a.setStatus(MsgLoadingArticle, StatusInfo)

	r, err := a.getRenderer()
	if err != nil {
		a.err = wrapErr("renderer", err)
	}
	return renderArticle(article, r)
}

func (kh *KeyHandler) currentArticle() (news.Article, bool) {
	if kh.app.view == ViewReader {
		return kh.app.current, true
	}
	return kh.app.active().selected()
}

func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewReader:
		a.view = a.previousView
		a.loadingArticle = false
		a.clearStatus()
		return a, nil
	case ViewCategories:
		a.view = ViewSearch
		return a, nil
	default:
		return a, tea.Quit
	}
}

func (kh *KeyHandler) toggleScreen() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewSearch:
		a.view = ViewCategories
	case ViewCategories:
		a.view = ViewSearch
	case ViewReader:
		if a.previousView == ViewCategories {
			a.view = ViewSearch
		} else {
			a.view = ViewCategories
		}
	}
	a.previousView = a.view
	a.clearStatus()
	return a, nil
}

func (kh *KeyHandler) focusSearch() (tea.Model, tea.Cmd) {
	a := kh.app
	a.view = ViewSearch
	a.previousView = ViewSearch
	a.searchInput.SetValue("")
	a.searchInput.Focus()
	return a, textinput.Blink
}

// GetHelpForCurrentView returns our custom help text; the list handles its
// own navigation keys.
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	switch kh.app.view {
	case ViewSearch:
		if kh.app.searchInput.Focused() {
			return []string{"enter: search", "tab: results", "esc: cancel"}
		}
		return []string{"enter: read", "/: search", keyOpenLink + ": open", keyOpenImage + ": image", keyToggleScreen + ": categories", "q: quit"}
	case ViewCategories:
		return []string{"enter: read", "tab/1-7: category", keyOpenLink + ": open", keyOpenImage + ": image", keyToggleScreen + ": search", "q: quit"}
	case ViewReader:
		return []string{"↑↓: scroll", keyOpenLink + ": open", keyOpenImage + ": image", "esc: back"}
	default:
		return nil
	}
}
